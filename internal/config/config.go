package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (GitHub calls included)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	DataDir      string // directory for the bookmark file when Redis is not used
	DatabasePath string // sqlite file for the blog (":memory:" for throwaway)

	// Blog
	CategoryFile     string        // categories.yaml (optional, empty = no seeding)
	ReloadInterval   time.Duration // interval to reload categories.yaml (default: 24h)
	DeleteConfirmTTL time.Duration // lifetime of a delete confirmation token

	// Explorer
	GitHubToken     string        // optional, raises the search rate limit
	GitHubBaseURL   string        // optional, for GitHub Enterprise or tests
	GitHubTimeout   time.Duration // per search call
	GitHubPerPage   int           // results per search
	SearchStaleTime time.Duration // how long search results are served from cache
	SessionIdle     time.Duration // explorer sessions unused this long are dropped
	GCInterval      time.Duration // interval to sweep expired tokens, cache and sessions
	SearchBurst     int           // rate limit burst per client on /api/repos
	SearchPerMin    int           // rate limit refill per client per minute

	// Auth
	SessionSecret string        // signs session cookies
	SecureCookies bool          // https-only cookies
	SessionMaxAge time.Duration // cookie lifetime

	// Redis (optional, empty address = file + memory fallback)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict /reload, /readyz and /infra to these IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // origins allowed to call the API from a browser ("*" = any)
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads .env (if present) then the SHELF_* environment.
// It panics on invalid combinations, like the rest of the startup path.
func Load() *Config {
	// Missing .env is fine, the environment is authoritative.
	_ = godotenv.Load()

	dataDir := getenv("SHELF_DATA_DIR", "./data")

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHELF_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("SHELF_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("SHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SHELF_PRETTY_LOG", true),

		// Storage
		DataDir:      dataDir,
		DatabasePath: getenv("SHELF_DATABASE_PATH", filepath.Join(dataDir, "shelf.db")),

		// Blog
		CategoryFile:     getenv("SHELF_CATEGORY_FILE", ""), // Optional, empty = no seeding
		ReloadInterval:   mustDuration("SHELF_RELOAD_INTERVAL", 24*time.Hour),
		DeleteConfirmTTL: mustDuration("SHELF_DELETE_CONFIRM_TTL", 5*time.Minute),

		// Explorer
		GitHubToken:     getenv("SHELF_GITHUB_TOKEN", ""),
		GitHubBaseURL:   getenv("SHELF_GITHUB_BASE_URL", ""),
		GitHubTimeout:   mustDuration("SHELF_GITHUB_TIMEOUT", 10*time.Second),
		GitHubPerPage:   getenvInt("SHELF_GITHUB_PER_PAGE", 30),
		SearchStaleTime: mustDuration("SHELF_SEARCH_STALE_TIME", 5*time.Minute),
		SessionIdle:     mustDuration("SHELF_SESSION_IDLE", 30*time.Minute),
		GCInterval:      mustDuration("SHELF_GC_INTERVAL", time.Minute),
		SearchBurst:     getenvInt("SHELF_SEARCH_BURST", 20),
		SearchPerMin:    getenvInt("SHELF_SEARCH_PER_MIN", 30),

		// Auth
		SessionSecret: getenv("SHELF_SESSION_SECRET", ""),
		SecureCookies: mustBool("SHELF_SECURE_COOKIES", false),
		SessionMaxAge: mustDuration("SHELF_SESSION_MAX_AGE", 7*24*time.Hour),

		// Redis settings
		RedisAddr:             getenv("SHELF_REDIS_ADDR", ""),
		RedisUser:             getenv("SHELF_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SHELF_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SHELF_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SHELF_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SHELF_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SHELF_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("SHELF_CORS_ORIGINS", "")),
	}

	// Secure cookies mean a real deployment: sessions must survive restarts
	if cfg.SecureCookies {
		cfg.SessionSecret = requireEnv("SHELF_SESSION_SECRET")
	}

	// Validate Redis password configuration
	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SHELF_REDIS_PASSWORD is required when SHELF_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.GitHubToken != "" {
		cp.GitHubToken = "***REDACTED***"
	}
	if cp.SessionSecret != "" {
		cp.SessionSecret = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
