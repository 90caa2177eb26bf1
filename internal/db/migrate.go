package db

import (
	"literature-manager/internal/domain"

	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&domain.Journal{},
		&domain.Author{},
		&domain.Tag{},
		&domain.Publication{},
		&domain.Authorship{},
		&domain.Project{},
		&domain.Annotation{},
	}
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
