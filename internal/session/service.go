// Package session manages browser sessions. Logging in proxies
// credentials to the library upstream; the upstream access token is held
// server-side and never reaches the browser, which only carries a signed
// session cookie.
package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/settings"
)

// CookieName is the browser session cookie.
const CookieName = "dagzflix_session"

// Lifetime is how long a session stays valid.
const Lifetime = 7 * 24 * time.Hour

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

// Session is an authenticated browser session.
type Session struct {
	ID             string    `json:"-"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	JellyfinUserID string    `json:"-"`
	JellyfinToken  string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Service creates, resolves and revokes sessions.
type Service struct {
	db       *sql.DB
	settings *settings.Service
	jellyfin *jellyfin.Client
	logger   zerolog.Logger

	secretMu sync.Mutex
}

// NewService creates a new session service.
func NewService(db *sql.DB, settingsSvc *settings.Service, jf *jellyfin.Client, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		settings: settingsSvc,
		jellyfin: jf,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Login authenticates against the library upstream and creates a session.
// It returns the session and the signed cookie token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, string, error) {
	auth, err := s.jellyfin.Authenticate(ctx, username, password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	session := &Session{
		ID:             uuid.New().String(),
		UserID:         auth.UserID,
		Username:       auth.Name,
		JellyfinUserID: auth.UserID,
		JellyfinToken:  auth.AccessToken,
		CreatedAt:      now,
		ExpiresAt:      now.Add(Lifetime),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, username, jellyfin_user_id, jellyfin_token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Username, session.JellyfinUserID,
		session.JellyfinToken, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	token, err := s.signToken(ctx, session)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("username", session.Username).Msg("user logged in")
	return session, token, nil
}

// Resolve validates a cookie token and loads the session it names.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	secret, err := s.secret(ctx)
	if err != nil {
		return nil, err
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	session := &Session{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, jellyfin_user_id, jellyfin_token, created_at, expires_at
		FROM sessions WHERE id = ?`, claims.SessionID).
		Scan(&session.ID, &session.UserID, &session.Username, &session.JellyfinUserID,
			&session.JellyfinToken, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrExpiredSession
	}
	return session, nil
}

// Logout revokes a session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes sessions past their expiry. Run periodically.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	removed, _ := result.RowsAffected()
	if removed > 0 {
		s.logger.Debug().Int64("removed", removed).Msg("expired sessions cleaned up")
	}
	return removed, nil
}

func (s *Service) signToken(ctx context.Context, session *Session) (string, error) {
	secret, err := s.secret(ctx)
	if err != nil {
		return "", err
	}

	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// secret loads the signing secret, generating and persisting one on
// first use. Creation is serialized so two concurrent first logins
// cannot each persist a different secret.
func (s *Service) secret(ctx context.Context) ([]byte, error) {
	s.secretMu.Lock()
	defer s.secretMu.Unlock()

	value, err := s.settings.Get(ctx, settings.KeySessionSecret)
	if err == nil {
		return []byte(value), nil
	}
	if !errors.Is(err, settings.ErrNotFound) {
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	generated := hex.EncodeToString(raw)
	if err := s.settings.Set(ctx, settings.KeySessionSecret, generated); err != nil {
		return nil, err
	}

	s.logger.Info().Msg("generated new session signing secret")
	return []byte(generated), nil
}
