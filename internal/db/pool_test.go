package db

import (
	"context"
	"testing"

	"gorm.io/gorm/logger"

	"horse.fit/translator/internal/config"
	"horse.fit/translator/internal/stats"
)

func TestResolveGormLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level       string
		environment string
		want        logger.LogLevel
	}{
		{level: "debug", want: logger.Info},
		{level: "INFO", want: logger.Warn},
		{level: "", want: logger.Warn},
		{level: "error", want: logger.Error},
		{level: "disabled", want: logger.Silent},
		{level: "odd", environment: "local", want: logger.Warn},
		{level: "odd", environment: "production", want: logger.Error},
	}
	for _, tc := range cases {
		if got := gormLogLevel(tc.level, tc.environment); got != tc.want {
			t.Fatalf("gormLogLevel(%q, %q) = %v, want %v", tc.level, tc.environment, got, tc.want)
		}
	}
}

func TestNewPoolRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(context.Background(), nil); err == nil {
		t.Fatalf("expected nil config to fail")
	}
	if _, err := NewPool(context.Background(), &config.Config{}); err == nil {
		t.Fatalf("expected missing DATABASE_URL to fail")
	}
}

func TestUsageRepoWithoutPool(t *testing.T) {
	t.Parallel()

	repo := NewUsageRepo(nil)
	ctx := context.Background()

	if err := repo.Increment(ctx, "Google", stats.KindSource, "auto", ""); err != nil {
		t.Fatalf("auto source must be skipped before touching the database, got %v", err)
	}
	if err := repo.Increment(ctx, "Google", stats.KindSource, "en", ""); err == nil {
		t.Fatalf("expected uninitialized pool to fail")
	}
	if _, err := repo.MostUsed(ctx, "Google", stats.KindSource, 5); err == nil {
		t.Fatalf("expected uninitialized pool to fail")
	}
	if err := (*Pool)(nil).Close(); err != nil {
		t.Fatalf("closing a nil pool must be a no-op, got %v", err)
	}
}
