package db

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horse.fit/translator/internal/stats"
)

const usageRanking = "use_count DESC, last_used_at DESC, language_code ASC"

// UsageRepo stores language usage counters in Postgres.
type UsageRepo struct {
	pool *Pool
}

var _ stats.Store = (*UsageRepo)(nil)

func NewUsageRepo(pool *Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) Increment(ctx context.Context, provider string, kind stats.Kind, code, name string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "auto" {
		return nil
	}
	if provider == "" {
		return fmt.Errorf("provider is required")
	}
	if kind != stats.KindSource && kind != stats.KindTarget {
		return fmt.Errorf("unknown stats kind %q", kind)
	}

	tx, err := r.pool.session(ctx)
	if err != nil {
		return err
	}

	row := LanguageUsage{
		Provider:     provider,
		Kind:         string(kind),
		LanguageCode: code,
		LanguageName: strings.TrimSpace(name),
		UseCount:     1,
		LastUsedAt:   tx.NowFunc(),
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "kind"}, {Name: "language_code"}},
		DoUpdates: clause.Assignments(map[string]any{
			"use_count":     gorm.Expr("translator.language_usage.use_count + 1"),
			"language_name": gorm.Expr("COALESCE(NULLIF(EXCLUDED.language_name, ''), translator.language_usage.language_name)"),
			"last_used_at":  gorm.Expr("EXCLUDED.last_used_at"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert language usage: %w", err)
	}
	return nil
}

func (r *UsageRepo) MostUsed(ctx context.Context, provider string, kind stats.Kind, limit int) ([]stats.Entry, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if limit <= 0 {
		limit = 100
	}

	tx, err := r.pool.session(ctx)
	if err != nil {
		return nil, err
	}

	var rows []LanguageUsage
	err = tx.Where("provider = ? AND kind = ? AND use_count > 0", provider, string(kind)).
		Order(usageRanking).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query language usage: %w", err)
	}

	entries := make([]stats.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, stats.Entry{
			Code:       row.LanguageCode,
			Name:       row.LanguageName,
			Count:      row.UseCount,
			LastUsedAt: row.LastUsedAt,
		})
	}
	return entries, nil
}
