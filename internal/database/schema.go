package database

import (
	"context"
	"fmt"

	"chronicle/internal/models"
	"chronicle/internal/observability"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.BlogPost{},
		&models.BlogPostCategory{},
	}
}

// ApplySchema auto-migrates every persistent model.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := backfillSearchText(ctx, db); err != nil {
		return fmt.Errorf("failed to backfill search text: %w", err)
	}
	observability.Logger.InfoContext(ctx, "Database migration completed")
	return nil
}

// backfillSearchText fills search_text on rows written before the column existed.
func backfillSearchText(ctx context.Context, db *gorm.DB) error {
	var batch []models.BlogPost
	return db.WithContext(ctx).
		Select("id", "title", "content", "excerpt").
		Where("search_text = ?", "").
		FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				err := db.WithContext(ctx).Model(&models.BlogPost{}).
					Where("id = ?", batch[i].ID).
					UpdateColumn("search_text", batch[i].SearchDocument()).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// TableStatus reports whether a model's table exists.
type TableStatus struct {
	Table  string `json:"table"`
	Exists bool   `json:"exists"`
}

// SchemaStatus lists the presence of every persistent table.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	migrator := db.WithContext(ctx).Migrator()
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		out = append(out, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(m),
		})
	}
	return out, nil
}
