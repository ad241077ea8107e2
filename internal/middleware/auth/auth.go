package authmw

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/tokens"
)

const (
	ctxUserID  = "user_id"
	ctxRole    = "role"
	ctxSession = "basket_session"

	sessionTTL = 30 * 24 * time.Hour
)

// Refresher rotates a refresh token into a new pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

// AutoRefresh authenticates requests by the access cookie and, when the
// access token has expired, transparently rotates the refresh cookie.
type AutoRefresh struct {
	JWTSecret    []byte
	Refresher    Refresher
	CookieSecure bool
}

func NewAutoRefresh(secret []byte, r Refresher, secure bool) *AutoRefresh {
	return &AutoRefresh{JWTSecret: secret, Refresher: r, CookieSecure: secure}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefresh) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, nil, true)
}

func (m *AutoRefresh) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	}, true)
}

// OptionalAuth identifies the user when possible and lets anonymous
// requests through untouched.
func (m *AutoRefresh) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, nil, false)
}

func (m *AutoRefresh) withValidator(next echo.HandlerFunc, validator ValidatorFunc, required bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			if !required {
				return next(c)
			}
			return err
		}
		if validator != nil {
			if vErr := validator(claims); vErr != nil {
				return vErr
			}
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AutoRefresh) authenticate(c echo.Context) (*tokens.AccessClaims, error) {
	accessCookie, err := c.Cookie(tokens.AccessCookie)
	if err != nil || accessCookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
	if err == nil {
		return claims, nil
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		m.clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
	if rErr != nil || refreshCookie.Value == "" || m.Refresher == nil {
		m.clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	ctx := c.Request().Context()
	pair, refErr := m.Refresher.Refresh(ctx, refreshCookie.Value)
	if refErr != nil {
		logging.FromContext(ctx).Info("auto_refresh_failed", "error", refErr)
		m.clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
	}
	m.SetAuthCookies(c, pair)

	newClaims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
	if pErr != nil {
		m.clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
	}
	return newClaims, nil
}

// SetAuthCookies writes both token cookies.
func (m *AutoRefresh) SetAuthCookies(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp, m.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp, m.CookieSecure))
}

// ClearAuthCookies expires both token cookies.
func (m *AutoRefresh) ClearAuthCookies(c echo.Context) { m.clearAuthCookies(c) }

func (m *AutoRefresh) clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.CookieSecure))
}

// BasketSession makes sure every request carries an anonymous basket key.
func (m *AutoRefresh) BasketSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ck, err := c.Cookie(tokens.SessionCookie); err == nil && ck.Value != "" {
			c.Set(ctxSession, ck.Value)
			return next(c)
		}
		key := uuid.NewString()
		c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, key, "/", time.Now().Add(sessionTTL), m.CookieSecure))
		c.Set(ctxSession, key)
		return next(c)
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

// UserID returns the authenticated user, if any.
func UserID(c echo.Context) (uint, bool) {
	sub, _ := c.Get(ctxUserID).(string)
	if sub == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func Role(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}

func Caller(c echo.Context) service.Caller {
	id, _ := UserID(c)
	return service.Caller{UserID: id, Role: Role(c)}
}

// SessionKey returns the anonymous basket key, reading the cookie when
// BasketSession did not run.
func SessionKey(c echo.Context) string {
	if key, _ := c.Get(ctxSession).(string); key != "" {
		return key
	}
	if ck, err := c.Cookie(tokens.SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// Owner picks the basket owner: the user when signed in, the session otherwise.
func Owner(c echo.Context) repo.Owner {
	if id, ok := UserID(c); ok {
		return repo.Owner{UserID: id}
	}
	return repo.Owner{SessionKey: SessionKey(c)}
}
