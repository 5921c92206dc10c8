package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Transition modes for free-form ticket status edits.
const (
	TransitionPermissive = "permissive"
	TransitionStrict     = "strict"
)

type Config struct {
	Port string

	// DatabaseURL selects the PostgreSQL backend when set. When empty the
	// embedded SQLite file at SQLitePath is used.
	DatabaseURL string
	SQLitePath  string

	// DBMaxOpenConns is the maximum number of open connections to PostgreSQL (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// TransitionMode controls whether PUT /api/maintenance/{id} may set any
	// status ("permissive", default) or only the next one in the workflow ("strict").
	TransitionMode string

	// LineAccessToken and LineTo configure the LINE push notifier. When the
	// token is empty, ticket notifications are only logged.
	LineAccessToken string
	LineTo          string

	// NotifyQueueSize bounds the number of pending notifications (default 100).
	NotifyQueueSize int
	// NotifyRatePerMinute caps outbound pushes (default 60).
	NotifyRatePerMinute int

	// RateLimitPerMinute is the per-IP request budget for write endpoints (default 120).
	RateLimitPerMinute int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated).
	// When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/itam.db"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		TransitionMode: parseTransitionMode(getEnv("TRANSITION_MODE", TransitionPermissive)),

		LineAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineTo:          getEnv("LINE_TO", ""),

		NotifyQueueSize:     getEnvInt("NOTIFY_QUEUE_SIZE", 100),
		NotifyRatePerMinute: getEnvInt("NOTIFY_RATE_PER_MINUTE", 60),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// Backend returns "postgres" or "sqlite" depending on DatabaseURL.
func (c Config) Backend() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}

// Strict reports whether ticket status edits must follow the workflow.
func (c Config) Strict() bool {
	return c.TransitionMode == TransitionStrict
}

func parseTransitionMode(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), TransitionStrict) {
		return TransitionStrict
	}
	return TransitionPermissive
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
