package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/hash"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	Baskets       *BasketService
	Events        EventPublisher
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *AuthService) Register(ctx context.Context, name, username, password, sessionKey string) (*models.User, *tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, nil, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		FirstName:    strings.TrimSpace(name),
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUser, user.ID, mykafka.NewEvent("user_registered", map[string]any{
		"userID":   user.ID,
		"username": user.Username,
	}))

	pair, err := s.signIn(ctx, user, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, username, password, sessionKey string) (*models.User, *tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	pair, err := s.signIn(ctx, user, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	publish(ctx, s.Events, mykafka.TopicUser, user.ID, mykafka.NewEvent("user_logged_in", map[string]any{
		"userID": user.ID,
	}))
	return user, pair, nil
}

// signIn issues a token pair and moves the anonymous basket to the user.
func (s *AuthService) signIn(ctx context.Context, user *models.User, sessionKey string) (*tokens.Pair, error) {
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Baskets != nil && sessionKey != "" {
		if err := s.Baskets.MergeSessionBasket(ctx, sessionKey, user.ID); err != nil {
			logging.FromContext(ctx).Error("basket_merge_error", "user_id", user.ID, "error", err)
		}
	}
	return pair, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*tokens.Pair, error) {
	pair, record, err := s.newPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefreshToken(ctx, record); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) newPair(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	now := time.Now()
	subject := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(tokens.AccessTTL)
	access, err := tokens.NewAccessToken(s.JWTSecret, subject, user.Role, accessExp)
	if err != nil {
		return nil, nil, err
	}

	jti := tokens.NewJTI()
	refreshExp := now.Add(tokens.RefreshTTL)
	refresh, err := tokens.NewRefreshToken(s.RefreshSecret, subject, jti, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	pair := &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}
	record := &models.RefreshToken{
		Token:     tokens.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return pair, record, nil
}

// Refresh rotates the refresh token: the old one is revoked and a new pair
// is issued with the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	user, err := s.Repo.UserByID(ctx, uint(userID))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: user is gone", ErrUnauthorized)
		}
		return nil, err
	}

	pair, record, err := s.newPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, record); err != nil {
		if errors.Is(err, repo.ErrRefreshRevoked) || isNotFound(err) {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token revoked or unknown")
			return nil, fmt.Errorf("%w: refresh token expired or revoked", ErrUnauthorized)
		}
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(refreshToken))
}
