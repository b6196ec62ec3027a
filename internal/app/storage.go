package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/bookmarks"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/redis"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/store/sqlite"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

// Storage holds the persistent backends shared by the server and the CLI.
type Storage struct {
	Redis      *goredis.Client   // nil when Redis is not configured
	RedisStore *redisstore.Store // nil when Redis is not configured
	DB         *sqlite.DB
	Bookmarks  *bookmarks.Store

	logger logger.Logger
}

// OpenStorage connects Redis (when configured), opens the blog database and
// loads the bookmark collection from Redis or from the data directory.
func OpenStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (*Storage, error) {
	s := &Storage{logger: log}

	var persister bookmarks.Persister
	if cfg.RedisEnabled() {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.Redis = client
		s.RedisStore = redisstore.NewStore(client)
		persister = s.RedisStore.Persister(bookmarks.StorageKey)
		log.Info("Redis initialized successfully")
	} else {
		fp := bookmarks.NewFilePersister(cfg.DataDir, bookmarks.StorageKey)
		persister = fp
		log.Info("redis not configured, bookmarks stored on disk",
			logger.String("file", fp.Path()))
	}

	if cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}
	db, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.DB = db

	s.Bookmarks = bookmarks.New(ctx, persister, log.Named("bookmarks"))
	return s, nil
}

// Close releases the database and the Redis client.
func (s *Storage) Close() {
	if s.DB != nil {
		utils.CloseWithLog(s.DB, s.logger, "sqlite")
	}
	if s.Redis != nil {
		utils.CloseWithLog(s.Redis, s.logger, "redis")
	}
}
