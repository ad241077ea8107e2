package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/hash"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
)

type ProfileService struct {
	Repo *repo.GormRepo
}

type ProfileInput struct {
	FullName string
	Email    string
	Phone    string
	Avatar   string
}

// Get returns the user and the profile. ErrNotFound until a profile exists.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.User, *models.Profile, error) {
	p, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, translate(err, "profile")
	}
	return &p.User, p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileInput) (*models.User, *models.Profile, error) {
	name, err := domain.SplitFullName(in.FullName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := domain.ValidatePhone(in.Phone); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := syncProfile(ctx, tx, userID, name, in.Email, in.Phone); err != nil {
			return err
		}
		if in.Avatar == "" {
			return nil
		}
		return tx.UpdateAvatar(ctx, userID, in.Avatar)
	})
	if err != nil {
		return nil, nil, err
	}
	return s.Get(ctx, userID)
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	l := logging.FromContext(ctx).With("svc", "profile.change_password", "user_id", userID)

	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}
	if !hash.CheckPassword(u.PasswordHash, current) {
		l.Warn("change_password_error", "status", 401, "reason", "wrong current password")
		return fmt.Errorf("%w: current password is wrong", ErrUnauthorized)
	}
	if err := domain.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePasswordHash(ctx, userID, pwHash)
}
