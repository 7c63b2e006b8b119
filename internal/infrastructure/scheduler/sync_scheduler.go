// Package scheduler runs the periodic background order sync.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/application/ordersync"
)

// SyncRunner executes one sync run. Implemented by ordersync.Service.
type SyncRunner interface {
	RunSync(ctx context.Context, opts ordersync.RunOptions) ordersync.Summary
}

// SyncSchedulerConfig holds configuration for the periodic sync trigger.
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// SyncInterval is the time between incremental sync runs
	SyncInterval time.Duration
	// RunTimeout is the maximum time a single run may take
	RunTimeout time.Duration
	// AllowResume lets scheduled runs continue an interrupted run from
	// its checkpoint instead of starting a fresh window
	AllowResume bool
	// RunOnStart triggers a sync immediately at startup instead of
	// waiting for the first tick
	RunOnStart bool
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:      true,
		SyncInterval: 10 * time.Minute,
		RunTimeout:   30 * time.Minute,
		AllowResume:  true,
		RunOnStart:   false,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.SyncInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler triggers incremental order sync runs on a fixed interval.
// Runs execute one at a time; overlap is prevented by the runner's own
// liveness check, so a slow run simply absorbs the next tick.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}, nil
}

// Start starts the scheduler loop. It is a no-op when disabled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("sync_interval", s.config.SyncInterval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Bool("allow_resume", s.config.AllowResume),
	)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight run to
// finish or the given context to expire.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs a sync immediately, outside the normal schedule.
func (s *SyncScheduler) TriggerNow(ctx context.Context) (ordersync.Summary, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ordersync.Summary{}, ErrSchedulerNotRunning
	}

	return s.runOnce(ctx), nil
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncScheduler) runOnce(ctx context.Context) ordersync.Summary {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	started := time.Now()
	summary := s.runner.RunSync(runCtx, ordersync.RunOptions{
		AllowResume: s.config.AllowResume,
	})

	s.logger.Info("Scheduled sync run finished",
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
		zap.Int("pages", summary.Pages),
		zap.String("message", summary.Message),
		zap.Duration("elapsed", time.Since(started)),
	)

	return summary
}
