package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/ozonilberries/internal/hash"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_UpdateAndGet(t *testing.T) {
	r := newRepo(t)
	svc := &ProfileService{Repo: r}
	ctx := context.Background()
	u := seedUser(t, r, "ivan", models.RoleUser)

	_, _, err := svc.Get(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)

	user, profile, err := svc.Update(ctx, u.ID, ProfileInput{
		FullName: "Ivanov Ivan Ivanovich",
		Email:    "ivan@example.com",
		Phone:    "89991234567",
		Avatar:   "/media/ivan.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ivan", user.FirstName)
	assert.Equal(t, "Ivanov", user.LastName)
	assert.Equal(t, "Ivanovich", profile.MiddleName)
	assert.Equal(t, "/media/ivan.png", profile.Avatar)

	// a second update rewrites the same profile row
	_, profile, err = svc.Update(ctx, u.ID, ProfileInput{
		FullName: "Ivanov Ivan Petrovich",
		Email:    "ivan@example.org",
		Phone:    "89990000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Petrovich", profile.MiddleName)
	assert.Equal(t, "/media/ivan.png", profile.Avatar)
	assert.EqualValues(t, 1, countRows(t, r, &models.Profile{}, ""))
}

func TestProfileService_UpdateValidation(t *testing.T) {
	r := newRepo(t)
	svc := &ProfileService{Repo: r}
	ctx := context.Background()
	u := seedUser(t, r, "ivan", models.RoleUser)

	tests := []struct {
		name string
		in   ProfileInput
	}{
		{name: "two token name", in: ProfileInput{FullName: "Ivanov Ivan", Email: "a@b.c", Phone: "89991234567"}},
		{name: "short phone", in: ProfileInput{FullName: "Ivanov Ivan Ivanovich", Email: "a@b.c", Phone: "8999"}},
		{name: "letters in phone", in: ProfileInput{FullName: "Ivanov Ivan Ivanovich", Email: "a@b.c", Phone: "8999123456x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Update(ctx, u.ID, tt.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProfileService_ChangePassword(t *testing.T) {
	r := newRepo(t)
	svc := &ProfileService{Repo: r}
	ctx := context.Background()

	pw, err := hash.HashPassword("old-password")
	require.NoError(t, err)
	u := &models.User{Username: "ivan", PasswordHash: pw, Role: models.RoleUser}
	require.NoError(t, r.DB.Create(u).Error)

	err = svc.ChangePassword(ctx, u.ID, "wrong", "new-password")
	require.ErrorIs(t, err, ErrUnauthorized)

	err = svc.ChangePassword(ctx, u.ID, "old-password", "123")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "old-password", "new-password"))

	stored, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "new-password"))
}
