package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) BasketLines(ctx context.Context, o Owner) ([]models.BasketLine, error) {
	var lines []models.BasketLine
	err := o.scope(r.DB.WithContext(ctx)).
		Preload("Product").
		Preload("Product.Sale").
		Order("product_id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) CountBasketLines(ctx context.Context, o Owner) (int64, error) {
	var n int64
	err := o.scope(r.DB.WithContext(ctx).Model(&models.BasketLine{})).Count(&n).Error
	return n, err
}

// AddToBasket increments the owner's line for the product or creates it.
func (r *GormRepo) AddToBasket(ctx context.Context, line *models.BasketLine) error {
	o := Owner{SessionKey: deref(line.SessionKey)}
	if line.UserID != nil {
		o = Owner{UserID: *line.UserID}
	}
	count := line.Count

	increment := func(tx *gorm.DB) (bool, error) {
		res := o.scope(tx.Model(&models.BasketLine{})).
			Where("product_id = ?", line.ProductID).
			Update("count", gorm.Expr("count + ?", count))
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, nil
		}
		return true, o.scope(tx).Where("product_id = ?", line.ProductID).First(line).Error
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done, err := increment(tx)
		if err != nil || done {
			return err
		}

		// a concurrent add may have created the line first; the savepoint
		// keeps the outer transaction usable after the unique violation
		err = tx.Transaction(func(sp *gorm.DB) error { return sp.Create(line).Error })
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			line.ID = 0
			_, err = increment(tx)
		}
		return err
	})
}

// RemoveFromBasket deletes the line, or decrements it when count is below
// the line's current count.
func (r *GormRepo) RemoveFromBasket(ctx context.Context, o Owner, lineID uint, count *int) (bool, *models.BasketLine, error) {
	var line models.BasketLine
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := o.scope(tx.Clauses(forUpdate())).Where("id = ?", lineID).First(&line).Error; err != nil {
			return err
		}
		if count != nil && *count < line.Count {
			if err := tx.Model(&line).Update("count", gorm.Expr("count - ?", *count)).Error; err != nil {
				return err
			}
			return tx.First(&line, line.ID).Error
		}
		if err := tx.Delete(&line).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, &line, nil
}

func (r *GormRepo) ClearBasket(ctx context.Context, o Owner) error {
	return o.scope(r.DB.WithContext(ctx)).Delete(&models.BasketLine{}).Error
}

// MergeBasket moves session lines to the user. Lines for products the user
// already has are summed into the user's line.
func (r *GormRepo) MergeBasket(ctx context.Context, sessionKey string, userID uint) (int, error) {
	moved := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.BasketLine
		if err := tx.Clauses(forUpdate()).Where("session_key = ?", sessionKey).Find(&lines).Error; err != nil {
			return err
		}

		for i := range lines {
			l := lines[i]
			res := tx.Model(&models.BasketLine{}).
				Where("user_id = ? AND product_id = ?", userID, l.ProductID).
				Update("count", gorm.Expr("count + ?", l.Count))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := tx.Delete(&models.BasketLine{}, l.ID).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.BasketLine{}).Where("id = ?", l.ID).
					Updates(map[string]any{"user_id": userID, "session_key": nil}).Error; err != nil {
					return err
				}
			}
			moved++
		}
		return nil
	})
	return moved, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
