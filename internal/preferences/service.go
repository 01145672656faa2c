// Package preferences stores each user's taste profile: favorite and
// disliked genres plus the onboarding flag driving the first-run wizard.
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Preferences is one user's taste profile. Saves are full replaces.
type Preferences struct {
	FavoriteGenres     []string `json:"favoriteGenres"`
	DislikedGenres     []string `json:"dislikedGenres"`
	OnboardingComplete bool     `json:"onboardingComplete"`
}

// Service reads and writes user preferences.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new preferences service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "preferences").Logger(),
	}
}

// Get returns the user's preferences. A user with no saved profile gets
// the zero profile, not an error.
func (s *Service) Get(ctx context.Context, userID string) (*Preferences, error) {
	var favoriteJSON, dislikedJSON string
	var onboarding bool

	err := s.db.QueryRowContext(ctx, `
		SELECT favorite_genres, disliked_genres, onboarding_complete
		FROM preferences WHERE user_id = ?`, userID).
		Scan(&favoriteJSON, &dislikedJSON, &onboarding)
	if errors.Is(err, sql.ErrNoRows) {
		return &Preferences{FavoriteGenres: []string{}, DislikedGenres: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	prefs := &Preferences{OnboardingComplete: onboarding}
	if err := json.Unmarshal([]byte(favoriteJSON), &prefs.FavoriteGenres); err != nil {
		return nil, fmt.Errorf("decode favorite genres: %w", err)
	}
	if err := json.Unmarshal([]byte(dislikedJSON), &prefs.DislikedGenres); err != nil {
		return nil, fmt.Errorf("decode disliked genres: %w", err)
	}
	if prefs.FavoriteGenres == nil {
		prefs.FavoriteGenres = []string{}
	}
	if prefs.DislikedGenres == nil {
		prefs.DislikedGenres = []string{}
	}
	return prefs, nil
}

// Save replaces the user's profile wholesale.
func (s *Service) Save(ctx context.Context, userID string, prefs Preferences) error {
	if prefs.FavoriteGenres == nil {
		prefs.FavoriteGenres = []string{}
	}
	if prefs.DislikedGenres == nil {
		prefs.DislikedGenres = []string{}
	}

	favoriteJSON, err := json.Marshal(prefs.FavoriteGenres)
	if err != nil {
		return fmt.Errorf("encode favorite genres: %w", err)
	}
	dislikedJSON, err := json.Marshal(prefs.DislikedGenres)
	if err != nil {
		return fmt.Errorf("encode disliked genres: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, favorite_genres, disliked_genres, onboarding_complete, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			favorite_genres = excluded.favorite_genres,
			disliked_genres = excluded.disliked_genres,
			onboarding_complete = excluded.onboarding_complete,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(favoriteJSON), string(dislikedJSON), prefs.OnboardingComplete)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	s.logger.Debug().
		Str("userId", userID).
		Int("favorites", len(prefs.FavoriteGenres)).
		Msg("preferences saved")
	return nil
}
