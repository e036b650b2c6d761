package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RunFunc performs one pipeline rebuild
type RunFunc func(ctx context.Context) error

// Scheduler rebuilds the feature tables on a cron schedule. A rebuild
// that is still running when the next one fires causes that one to be
// skipped.
type Scheduler struct {
	spec     string
	run      RunFunc
	cron     *cron.Cron
	mu       sync.Mutex // held for the duration of a rebuild
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler instance
func NewScheduler(spec string, run RunFunc) *Scheduler {
	return &Scheduler{
		spec:     spec,
		run:      run,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start registers the rebuild job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.spec, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule rebuild: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Msg("Rebuild scheduled")

	return nil
}

// Trigger runs a rebuild now unless one is already in progress or the
// scheduler is stopped. It reports whether the rebuild ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if s.stopped() {
		return false
	}

	if !s.mu.TryLock() {
		log.Warn().Msg("Previous rebuild still running, skipping")
		return false
	}
	defer s.mu.Unlock()

	// Stop may have closed stopChan while we were acquiring the lock
	if s.stopped() {
		return false
	}

	start := time.Now()
	log.Info().Msg("Running scheduled rebuild...")
	if err := s.run(ctx); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled rebuild failed")
		return true
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Scheduled rebuild complete")
	return true
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// Stop stops the cron loop and waits for a running rebuild to finish.
// No rebuild starts once Stop returns.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	s.stopOnce.Do(func() { close(s.stopChan) })

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	// Any rebuild holding mu started before stopChan closed
	s.mu.Lock()
	s.mu.Unlock()

	log.Info().Msg("Scheduler stopped")
}
