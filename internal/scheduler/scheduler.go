// Package scheduler runs the periodic maintenance jobs: cache sweeping
// and expired-session cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/session"
)

const (
	cacheSweepInterval     = time.Minute
	sessionCleanupInterval = time.Hour
)

// Scheduler owns the background job runner.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

// New creates a scheduler. Jobs are registered separately; nothing runs
// until Start.
func New(logger zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// RegisterTasks wires the maintenance jobs.
func (s *Scheduler) RegisterTasks(responseCache *cache.Cache, sessions *session.Service) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(cacheSweepInterval),
		gocron.NewTask(func() {
			if removed := responseCache.Sweep(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("cache swept")
			}
		}),
		gocron.WithName("cache-sweep"),
	)
	if err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(sessionCleanupInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := sessions.CleanupExpired(ctx); err != nil {
				s.logger.Error().Err(err).Msg("session cleanup failed")
			}
		}),
		gocron.WithName("session-cleanup"),
	)
	if err != nil {
		return fmt.Errorf("register session cleanup: %w", err)
	}

	return nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
