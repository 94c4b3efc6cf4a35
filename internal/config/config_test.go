package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/justsurfingit/hiring-pipeline/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ATTEMPT_TIMEOUT", "")
	t.Setenv("BULK_CONCURRENCY", "")
	t.Setenv("JOURNAL_DATABASE_URL", "")

	cfg := config.Load()
	if cfg.AttemptTimeout != 15*time.Second {
		t.Fatalf("attempt timeout = %s", cfg.AttemptTimeout)
	}
	if cfg.BulkConcurrency != 8 || cfg.AggregateConcurrency != 4 {
		t.Fatalf("concurrency = %d/%d", cfg.BulkConcurrency, cfg.AggregateConcurrency)
	}
	if cfg.JournalDatabaseURL != "" {
		t.Fatal("journal should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ATTEMPT_TIMEOUT", "3s")
	t.Setenv("BULK_CONCURRENCY", "2")
	t.Setenv("REQUESTS_PER_SECOND", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := config.Load()
	if cfg.AttemptTimeout != 3*time.Second {
		t.Fatalf("attempt timeout = %s", cfg.AttemptTimeout)
	}
	if cfg.BulkConcurrency != 2 {
		t.Fatalf("bulk concurrency = %d", cfg.BulkConcurrency)
	}
	if cfg.RequestsPerSecond != 20 {
		t.Fatalf("invalid value should fall back, got %g", cfg.RequestsPerSecond)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.LogLevel)
	}
}
