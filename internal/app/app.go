package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/blog"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/explorer"
	"github.com/MrSnakeDoc/shelf/internal/github"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	storage    *Storage
	server     *httpserver.Server
	explorer   *explorer.Registry
	categories *scheduler.CategoryReloader
	gc         *scheduler.GarbageCollector
	unsubAuth  func()
}

// New opens storage and wires every component behind the HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	storage, err := OpenStorage(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	ghClient, err := github.NewClient(github.Options{
		BaseURL: cfg.GitHubBaseURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.GitHubTimeout,
		PerPage: cfg.GitHubPerPage,
	}, loggerClient.Named("github"))
	if err != nil {
		storage.Close()
		return nil, err
	}

	// Search results are cached in Redis when available, in memory otherwise
	var (
		cache      explorer.Cache
		purger     scheduler.CachePurger
		memIndex   *index.MemoryIndex
		redisCache *redisstore.SearchCache
	)
	if storage.RedisStore != nil {
		redisCache = storage.RedisStore.SearchCache()
		cache = redisCache
	} else {
		memIndex = index.NewMemoryIndex()
		cache = memIndex
		purger = memIndex
	}

	searcher := explorer.NewSearcher(ghClient, cache, cfg.SearchStaleTime, loggerClient.Named("explorer"))
	registry := explorer.NewRegistry(searcher, storage.Bookmarks, loggerClient.Named("explorer"))

	blogService := blog.NewService(storage.DB, loggerClient.Named("blog"), blog.WithConfirmTTL(cfg.DeleteConfirmTTL))

	authManager := auth.NewManager(storage.DB, auth.Options{
		Secret: cfg.SessionSecret,
		Secure: cfg.SecureCookies,
		MaxAge: cfg.SessionMaxAge,
	}, loggerClient.Named("auth"))
	unsubAuth := authManager.Broker().Subscribe(func(ev auth.Event) {
		loggerClient.Info("auth session changed",
			logger.String("event", string(ev.Kind)),
			logger.String("profile", ev.ProfileID))
	})

	// Initialize category reloader (if a categories file is configured)
	var categories *scheduler.CategoryReloader
	var reloadTrigger chan struct{}
	if cfg.CategoryFile != "" {
		loggerClient.Info("categories file configured, initializing category reloader",
			logger.String("file", cfg.CategoryFile))
		reloadTrigger = make(chan struct{}, 1)
		categories = scheduler.NewCategoryReloader(
			cfg.CategoryFile,
			storage.DB,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("categories file not configured, category seeding disabled")
	}

	gc := scheduler.NewGarbageCollector(
		blogService,
		purger,
		registry,
		loggerClient,
		cfg.GCInterval,
		cfg.SessionIdle,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		SecureCookie:  cfg.SecureCookies,
		RedisClient:   storage.Redis,
		RedisCache:    redisCache,
		MemoryIndex:   memIndex,
		DB:            storage.DB,
		Bookmarks:     storage.Bookmarks,
		Explorer:      registry,
		Blog:          blogService,
		Auth:          authManager,
		Categories:    categories,
		ReloadTrigger: reloadTrigger,
		SearchBurst:   cfg.SearchBurst,
		SearchPerMin:  cfg.SearchPerMin,
	}

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		storage:    storage,
		server:     httpserver.New(cfg, loggerClient, d),
		explorer:   registry,
		categories: categories,
		gc:         gc,
		unsubAuth:  unsubAuth,
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.logger.Infof("🚀 Starting Shelf v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Shelf %s", version.String())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed categories first so the blog never serves an empty category list
	if a.categories != nil {
		if err := a.categories.Start(ctx); err != nil {
			return fmt.Errorf("failed to start category reloader: %w", err)
		}
		a.logger.Info("category reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		if a.categories != nil {
			a.categories.Stop()
		}
		a.gc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("✅ Shelf stopped cleanly")
	return nil
}

func (a *App) close() {
	a.unsubAuth()
	a.explorer.Close()
	a.storage.Close()
}
