package seed

import (
	"context"
	"log"

	"chronicle/internal/models"

	"gorm.io/gorm"
)

// ClearAll removes every post and category row.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	log.Println("🧹 Clearing blog tables...")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.BlogPostCategory{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.BlogPost{}).Error
	})
}
