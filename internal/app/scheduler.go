package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSyncInFlight is returned when a cycle is requested while another one
// is still running. Ticks that hit this are skipped, never queued.
var ErrSyncInFlight = errors.New("sync cycle already in flight")

// SyncScheduler drives the sync engine: one cycle at startup (optional),
// then one per interval until the context is canceled. Overlapping cycles
// are prevented by a single-flight guard shared with manual triggers.
type SyncScheduler struct {
	engine       *SyncEngine
	interval     time.Duration
	cycleTimeout time.Duration
	startup      bool
	logger       *slog.Logger

	// running is the single-flight guard; TryLock failing means a cycle is
	// in progress.
	running sync.Mutex

	mu      sync.Mutex
	skipped int64
	lastRun SyncResult
}

// SchedulerConfig configures the sync scheduler.
type SchedulerConfig struct {
	Interval     time.Duration
	CycleTimeout time.Duration
	Startup      bool
	Logger       *slog.Logger
}

// NewSyncScheduler creates a scheduler for the given engine.
func NewSyncScheduler(engine *SyncEngine, cfg SchedulerConfig) *SyncScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncScheduler{
		engine:       engine,
		interval:     cfg.Interval,
		cycleTimeout: cfg.CycleTimeout,
		startup:      cfg.Startup,
		logger:       logger.With(slog.String("component", "app.SyncScheduler")),
	}
}

// Run blocks until ctx is canceled, triggering cycles on the interval.
// Cycle failures are logged and the loop keeps going; sync is never fatal
// to the process.
func (s *SyncScheduler) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "sync scheduler started",
		slog.Duration("interval", s.interval),
		slog.Bool("startup", s.startup),
	)

	if s.startup {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync scheduler stopped",
				slog.Int64("skipped_ticks", s.SkippedTicks()),
			)

			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one scheduled cycle, skipping if one is already in flight.
func (s *SyncScheduler) tick(ctx context.Context) {
	if _, err := s.TriggerNow(ctx); err != nil {
		if errors.Is(err, ErrSyncInFlight) {
			s.logger.WarnContext(ctx, "tick skipped, previous cycle still running",
				slog.Int64("skipped_ticks", s.SkippedTicks()),
			)

			return
		}

		s.logger.ErrorContext(ctx, "reconcile cycle failed", slog.Any("error", err))
	}
}

// TriggerNow runs one cycle immediately, honoring the single-flight guard.
// Returns ErrSyncInFlight when a cycle is already running. Manual sync
// requests come through here.
func (s *SyncScheduler) TriggerNow(ctx context.Context) (SyncResult, error) {
	if !s.running.TryLock() {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()

		return SyncResult{}, ErrSyncInFlight
	}
	defer s.running.Unlock()

	cycleCtx := ctx
	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc

		cycleCtx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	result, err := s.engine.Reconcile(cycleCtx)
	if err != nil {
		return SyncResult{}, err
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	return result, nil
}

// SkippedTicks returns how many ticks were skipped by the single-flight
// guard since startup.
func (s *SyncScheduler) SkippedTicks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.skipped
}

// LastResult returns the most recent completed cycle result.
func (s *SyncScheduler) LastResult() SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun
}
