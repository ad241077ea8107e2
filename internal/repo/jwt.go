package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm"
)

var ErrRefreshRevoked = errors.New("refresh token expired or revoked")

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func refreshExpiredOrRevoked(db *gorm.DB, jti string) (bool, error) {
	var rt models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&rt).Error; err != nil {
		return false, err
	}
	return rt.Revoked || rt.ExpiresAt < time.Now().Unix(), nil
}

// RotateRefreshToken revokes oldJTI and stores newToken in one transaction.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Clauses(forUpdate()).Where("jti = ?", oldJTI).First(&old).Error; err != nil {
			return err
		}
		expired, err := refreshExpiredOrRevoked(tx, oldJTI)
		if err != nil {
			return err
		}
		if expired {
			return ErrRefreshRevoked
		}
		if err := tx.Model(&old).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(newToken).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokenHash).
		Update("revoked", true).Error
}
