// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/sirupsen/logrus"
)

// Config holds process settings read from the environment. Game timing is not configurable.
type Config struct {
	Port     string
	LogLevel logrus.Level

	// AllowedOrigins are websocket origin patterns, comma separated in the env.
	AllowedOrigins []string

	IdleThreshold time.Duration
	IdleTick      time.Duration

	// RedisAddr empty disables match history publishing.
	RedisAddr    string
	RedisDB      int
	HistoryQueue string

	// DatabaseURL empty disables the match history reader on the server.
	DatabaseURL string

	HistorianBatchSize int
	HistorianFlush     time.Duration
	MatchInactivity    time.Duration
}

// Load reads the configuration. Unparseable numbers fall back to their defaults; an unknown
// log level is an error.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           level,
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		IdleThreshold:      time.Duration(getEnvInt("IDLE_THRESHOLD_MS", 45000)) * time.Millisecond,
		IdleTick:           time.Duration(getEnvInt("IDLE_TICK_MS", 10000)) * time.Millisecond,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistoryQueue:       getEnv("HISTORY_QUEUE_NAME", cache.DefaultQueueName),
		DatabaseURL:        databaseURL(),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		MatchInactivity:    time.Duration(getEnvInt("MATCH_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise builds one from the POSTGRES_* / PG_* parts.
// Returns "" when neither is set.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := os.Getenv("POSTGRES_USER")
	host := os.Getenv("PG_HOST")
	if user == "" || host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, os.Getenv("POSTGRES_PASSWORD")),
		Host:   host + ":" + getEnv("PG_PORT", "5432"),
		Path:   "/" + getEnv("PG_DATABASE", "ciziko"),
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
