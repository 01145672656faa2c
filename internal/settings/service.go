// Package settings persists server-side configuration: upstream URLs and
// credentials, the setup-complete flag, and the session signing secret.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Setting keys.
const (
	KeyJellyfinURL      = "jellyfin_url"
	KeyJellyfinAPIKey   = "jellyfin_api_key"
	KeyJellyseerrURL    = "jellyseerr_url"
	KeyJellyseerrAPIKey = "jellyseerr_api_key"
	KeySetupComplete    = "setup_complete"
	KeySessionSecret    = "session_jwt_secret"
)

// ErrNotFound is returned when a setting key has no value.
var ErrNotFound = errors.New("setting not found")

const boolTrue = "true"

// Upstreams holds the configuration of both upstream services. The
// fulfillment upstream (Jellyseerr) is optional; an empty URL disables
// all fulfillment-dependent behavior.
type Upstreams struct {
	JellyfinURL      string `json:"jellyfinUrl"`
	JellyfinAPIKey   string `json:"-"`
	JellyseerrURL    string `json:"jellyseerrUrl"`
	JellyseerrAPIKey string `json:"-"`
}

// Service reads and writes settings in the database.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new settings service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// Get returns the value for key, or ErrNotFound.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key, replacing any previous value.
func (s *Service) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Upstreams returns the configured upstream endpoints. Missing keys are
// returned as empty strings, not errors.
func (s *Service) Upstreams(ctx context.Context) (Upstreams, error) {
	up := Upstreams{}
	for key, dst := range map[string]*string{
		KeyJellyfinURL:      &up.JellyfinURL,
		KeyJellyfinAPIKey:   &up.JellyfinAPIKey,
		KeyJellyseerrURL:    &up.JellyseerrURL,
		KeyJellyseerrAPIKey: &up.JellyseerrAPIKey,
	} {
		value, err := s.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Upstreams{}, err
		}
		*dst = value
	}
	return up, nil
}

// Jellyfin returns the library upstream's base URL and API key.
func (s *Service) Jellyfin(ctx context.Context) (baseURL, apiKey string, err error) {
	up, err := s.Upstreams(ctx)
	if err != nil {
		return "", "", err
	}
	return up.JellyfinURL, up.JellyfinAPIKey, nil
}

// Jellyseerr returns the fulfillment upstream's base URL and API key.
func (s *Service) Jellyseerr(ctx context.Context) (baseURL, apiKey string, err error) {
	up, err := s.Upstreams(ctx)
	if err != nil {
		return "", "", err
	}
	return up.JellyseerrURL, up.JellyseerrAPIKey, nil
}

// SetupComplete reports whether initial setup has been saved.
func (s *Service) SetupComplete(ctx context.Context) bool {
	value, err := s.Get(ctx, KeySetupComplete)
	return err == nil && value == boolTrue
}

// SetupInput is the payload of a setup save.
type SetupInput struct {
	JellyfinURL      string `json:"jellyfinUrl"`
	JellyfinAPIKey   string `json:"jellyfinApiKey"`
	JellyseerrURL    string `json:"jellyseerrUrl"`
	JellyseerrAPIKey string `json:"jellyseerrApiKey"`
}

// SaveSetup stores the upstream configuration as a full replace and marks
// setup complete. The Jellyfin URL is required; Jellyseerr is optional.
func (s *Service) SaveSetup(ctx context.Context, input SetupInput) error {
	if input.JellyfinURL == "" {
		return errors.New("jellyfin URL is required")
	}

	values := map[string]string{
		KeyJellyfinURL:      strings.TrimRight(input.JellyfinURL, "/"),
		KeyJellyfinAPIKey:   input.JellyfinAPIKey,
		KeyJellyseerrURL:    strings.TrimRight(input.JellyseerrURL, "/"),
		KeyJellyseerrAPIKey: input.JellyseerrAPIKey,
		KeySetupComplete:    boolTrue,
	}
	for key, value := range values {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}

	s.logger.Info().
		Bool("jellyseerrConfigured", input.JellyseerrURL != "").
		Msg("setup configuration saved")
	return nil
}
