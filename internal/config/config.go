package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	BackendBaseURL string
	LoginPath      string

	// Resolver and mutation tuning
	AttemptTimeout       time.Duration
	AggregateConcurrency int
	BulkConcurrency      int
	RequestsPerSecond    float64
	RequestBurst         int

	CredentialFile     string
	JournalDatabaseURL string // empty disables the status journal
	LogLevel           slog.Level
}

// Load reads .env when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		Port:                 getenv("PORT", "8080"),
		BackendBaseURL:       getenv("BACKEND_BASE_URL", "http://localhost:5000/api"),
		LoginPath:            getenv("LOGIN_PATH", "/login"),
		AttemptTimeout:       duration("ATTEMPT_TIMEOUT", 15*time.Second),
		AggregateConcurrency: integer("AGGREGATE_CONCURRENCY", 4),
		BulkConcurrency:      integer("BULK_CONCURRENCY", 8),
		RequestsPerSecond:    float("REQUESTS_PER_SECOND", 20),
		RequestBurst:         integer("REQUEST_BURST", 10),
		CredentialFile:       getenv("CREDENTIAL_FILE", "token.json"),
		JournalDatabaseURL:   os.Getenv("JOURNAL_DATABASE_URL"),
		LogLevel:             level(getenv("LOG_LEVEL", "info")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("Warning: invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}

func level(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
