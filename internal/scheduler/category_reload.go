package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/sources/categories"
)

// CategoryStore receives reloaded categories
type CategoryStore interface {
	UpsertCategories(ctx context.Context, cats []domain.Category) (int, error)
}

// CategoryReloader handles periodic reloading of categories.yaml into the blog database
type CategoryReloader struct {
	loader        *categories.Loader
	mapper        *categories.Mapper
	store         CategoryStore
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu         sync.RWMutex
	lastReload time.Time
	loaded     int
}

// NewCategoryReloader creates a new category reloader
func NewCategoryReloader(
	categoryFile string,
	store CategoryStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CategoryReloader {
	return &CategoryReloader{
		loader:        categories.NewLoader(categoryFile),
		mapper:        categories.NewMapper(),
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads once and then reloads on every tick or manual trigger
func (cr *CategoryReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial category reload failed: %w", err)
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload categories",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual category reload triggered")
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload categories",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader. Safe to call more than once.
func (cr *CategoryReloader) Stop() {
	cr.stopOnce.Do(func() { close(cr.stopCh) })
}

// Reload reads the file and upserts every category it lists
func (cr *CategoryReloader) Reload(ctx context.Context) error {
	cr.logger.Debug("reloading categories", logger.String("file", cr.loader.Path()))

	config, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	cats, err := cr.mapper.MapCategories(config)
	if err != nil {
		return fmt.Errorf("failed to map categories: %w", err)
	}

	n, err := cr.store.UpsertCategories(ctx, cats)
	if err != nil {
		return fmt.Errorf("failed to save categories: %w", err)
	}

	cr.mu.Lock()
	cr.lastReload = time.Now()
	cr.loaded = n
	cr.mu.Unlock()

	cr.logger.Info("categories reloaded", logger.Int("count", n))
	return nil
}

// Status returns when categories were last reloaded and how many
func (cr *CategoryReloader) Status() (time.Time, int) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.lastReload, cr.loaded
}
