package repo

import (
	"context"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) ActiveDeliveryCosts(ctx context.Context) ([]models.DeliveryCost, error) {
	var rows []models.DeliveryCost
	if err := r.DB.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) ListDeliveryCosts(ctx context.Context) ([]models.DeliveryCost, error) {
	var rows []models.DeliveryCost
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) CreateDeliveryCost(ctx context.Context, dc *models.DeliveryCost) error {
	return r.DB.WithContext(ctx).Create(dc).Error
}

// ActivateDeliveryCost makes id the only active row.
func (r *GormRepo) ActivateDeliveryCost(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dc models.DeliveryCost
		if err := tx.Clauses(forUpdate()).First(&dc, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DeliveryCost{}).Where("id <> ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&dc).Update("is_active", true).Error
	})
}
