package notify

import (
	"context"
	"errors"
	"fmt"

	"condo-whatsapp/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedTemplates writes DefaultTemplates as global whatsapp_templates rows.
// Existing rows keep their edits unless overwrite is set; WABA settings are
// never touched. It returns how many rows were created and updated.
func SeedTemplates(ctx context.Context, db *gorm.DB, overwrite bool) (created, updated int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range DefaultTemplates {
			var row models.WhatsAppTemplate
			err := tx.Where("slug = ? AND condominium_id IS NULL", d.Slug).First(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = models.WhatsAppTemplate{
					Slug:        d.Slug,
					Name:        d.Name,
					Content:     d.Content,
					ParamsOrder: datatypes.JSONSlice[string](d.ParamsOrder),
					IsActive:    true,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("create %s: %w", d.Slug, err)
				}
				created++
			case err != nil:
				return err
			case overwrite:
				if err := tx.Model(&row).Updates(map[string]interface{}{
					"name":         d.Name,
					"content":      d.Content,
					"params_order": datatypes.JSONSlice[string](d.ParamsOrder),
				}).Error; err != nil {
					return fmt.Errorf("update %s: %w", d.Slug, err)
				}
				updated++
			}
		}
		return nil
	})
	return created, updated, err
}
