package repo

import (
	"context"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm/clause"
)

// UpsertPayment replaces the single payment row of the order.
func (r *GormRepo) UpsertPayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "number", "month", "year", "code", "is_paid", "error", "updated_at"}),
	}).Create(p).Error
}

func (r *GormRepo) GetPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
