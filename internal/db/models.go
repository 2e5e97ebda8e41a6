package db

import "time"

// LanguageUsage maps translator.language_usage.
type LanguageUsage struct {
	Provider     string    `gorm:"column:provider;type:text;primaryKey"`
	Kind         string    `gorm:"column:kind;type:text;primaryKey"`
	LanguageCode string    `gorm:"column:language_code;type:text;primaryKey"`
	LanguageName string    `gorm:"column:language_name;type:text;not null;default:''"`
	UseCount     int64     `gorm:"column:use_count;type:bigint;not null;default:0"`
	LastUsedAt   time.Time `gorm:"column:last_used_at;type:timestamptz;not null;default:now()"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (LanguageUsage) TableName() string { return "translator.language_usage" }

func autoMigrateModels() []any {
	return []any{
		&LanguageUsage{},
	}
}
