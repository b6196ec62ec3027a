package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// DefaultSessionIdle is how long an explorer session may stay unused
	DefaultSessionIdle = 30 * time.Minute
)

// ConfirmationSweeper drops expired delete confirmations
type ConfirmationSweeper interface {
	SweepConfirmations(now time.Time) int
}

// CachePurger drops expired search results
type CachePurger interface {
	Purge(now time.Time) int
}

// SessionSweeper closes idle explorer sessions
type SessionSweeper interface {
	Sweep(now time.Time, idle time.Duration) int
}

// GarbageCollector periodically clears expired in-memory state.
// Any of its targets may be nil.
type GarbageCollector struct {
	confirms ConfirmationSweeper
	cache    CachePurger
	sessions SessionSweeper
	logger   logger.Logger
	interval time.Duration
	idle     time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	confirms ConfirmationSweeper,
	cache CachePurger,
	sessions SessionSweeper,
	log logger.Logger,
	interval time.Duration,
	idle time.Duration,
) *GarbageCollector {
	if idle == 0 {
		idle = DefaultSessionIdle
	}

	return &GarbageCollector{
		confirms: confirms,
		cache:    cache,
		sessions: sessions,
		logger:   log,
		interval: interval,
		idle:     idle,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector. Safe to call more than once.
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect sweeps every configured target once
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := gc.now()
	var confirms, cached, sessions int

	if gc.confirms != nil {
		confirms = gc.confirms.SweepConfirmations(now)
	}
	if gc.cache != nil {
		cached = gc.cache.Purge(now)
	}
	if gc.sessions != nil {
		sessions = gc.sessions.Sweep(now, gc.idle)
	}

	total := confirms + cached + sessions
	if total > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("confirmations_expired", confirms),
			logger.Int("cache_entries_expired", cached),
			logger.Int("sessions_closed", sessions),
			logger.Int("total", total))
	} else {
		gc.logger.Debug("no items to garbage collect")
	}

	return nil
}
