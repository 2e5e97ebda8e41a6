package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// migrationStep runs raw SQL around gorm's AutoMigrate for what struct tags
// cannot express.
type migrationStep struct {
	label string
	sql   string
}

var (
	beforeModels = []migrationStep{
		{label: "create schema", sql: `CREATE SCHEMA IF NOT EXISTS translator`},
	}
	afterModels = []migrationStep{
		{label: "ranking index", sql: `
CREATE INDEX IF NOT EXISTS language_usage_ranking_idx
	ON translator.language_usage (provider, kind, use_count DESC, last_used_at DESC)`},
	}
)

func (p *Pool) autoMigrate(ctx context.Context) error {
	tx, err := p.session(ctx)
	if err != nil {
		return err
	}

	if err := runSteps(tx, beforeModels); err != nil {
		return err
	}
	if err := tx.AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}
	return runSteps(tx, afterModels)
}

func runSteps(tx *gorm.DB, steps []migrationStep) error {
	for _, step := range steps {
		if err := tx.Exec(step.sql).Error; err != nil {
			return fmt.Errorf("migration step %q: %w", step.label, err)
		}
	}
	return nil
}
