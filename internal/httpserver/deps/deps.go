package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/blog"
	"github.com/MrSnakeDoc/shelf/internal/bookmarks"
	"github.com/MrSnakeDoc/shelf/internal/explorer"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/store/sqlite"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access readyz/infra/reload
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SecureCookie bool             // explorer cookie sent over https only

	RedisClient *redis.Client           // nil when Redis is not configured
	RedisCache  *redisstore.SearchCache // nil when Redis is not configured
	MemoryIndex *index.MemoryIndex      // in-memory search cache, nil when Redis is used
	DB          *sqlite.DB              // blog database

	Bookmarks *bookmarks.Store
	Explorer  *explorer.Registry
	Blog      *blog.Service
	Auth      *auth.Manager

	Categories    *scheduler.CategoryReloader // nil if no categories file
	ReloadTrigger chan struct{}               // manual category reload, nil if no categories file

	SearchBurst  int // rate limit burst per client on /api/repos
	SearchPerMin int // rate limit refill per client per minute
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
