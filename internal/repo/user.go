package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm/clause"
)

var ErrUserAlreadyExist = errors.New("user already exist")

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", u.Username).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UpdateUserNames(ctx context.Context, id uint, first, last string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"first_name": first, "last_name": last}).Error
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *GormRepo) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var p models.Profile
	if err := r.DB.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates or updates the profile keyed by user.
func (r *GormRepo) UpsertProfile(ctx context.Context, p *models.Profile) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"middle_name", "email", "phone"}),
	}).Create(p).Error
}

func (r *GormRepo) UpdateAvatar(ctx context.Context, userID uint, avatar string) error {
	return r.DB.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Update("avatar", avatar).Error
}

// ContactOwner returns the user owning the email or phone in another profile, or 0.
func (r *GormRepo) ContactOwner(ctx context.Context, userID uint, email, phone string) (uint, error) {
	var p models.Profile
	err := r.DB.WithContext(ctx).
		Where("user_id <> ? AND (email = ? OR phone = ?)", userID, email, phone).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}
