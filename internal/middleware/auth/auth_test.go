package authmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/tokens"
)

var secret = []byte("test-jwt-secret")

type fakeRefresher struct {
	role  string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*tokens.Pair, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	exp := time.Now().Add(tokens.AccessTTL)
	access, err := tokens.NewAccessToken(secret, "7", f.role, exp)
	if err != nil {
		return nil, err
	}
	return &tokens.Pair{AccessToken: access, RefreshToken: "rotated", AccessExp: exp, RefreshExp: exp, Role: f.role}, nil
}

func access(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(secret, "7", role, exp)
	require.NoError(t, err)
	return tok
}

func serve(m echo.MiddlewareFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := m(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, c, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	m := NewAutoRefresh(secret, &fakeRefresher{role: models.RoleUser}, false)

	_, _, err := serve(m.RequireAuth)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, _, err = serve(m.RequireAuth, &http.Cookie{Name: tokens.AccessCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	rec, c, err := serve(m.RequireAuth, &http.Cookie{Name: tokens.AccessCookie, Value: access(t, models.RoleUser, time.Now().Add(time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	id, ok := UserID(c)
	require.True(t, ok)
	assert.EqualValues(t, 7, id)
	assert.Equal(t, models.RoleUser, Caller(c).Role)
}

func TestRequireAuth_RefreshesExpiredToken(t *testing.T) {
	ref := &fakeRefresher{role: models.RoleUser}
	m := NewAutoRefresh(secret, ref, false)
	expired := &http.Cookie{Name: tokens.AccessCookie, Value: access(t, models.RoleUser, time.Now().Add(-time.Minute))}

	_, _, err := serve(m.RequireAuth, expired)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Zero(t, ref.calls)

	rec, c, err := serve(m.RequireAuth, expired, &http.Cookie{Name: tokens.RefreshCookie, Value: "old"})
	require.NoError(t, err)
	assert.Equal(t, 1, ref.calls)
	assert.Equal(t, uint(7), Owner(c).UserID)

	names := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = ck.Value
	}
	assert.Equal(t, "rotated", names[tokens.RefreshCookie])
	assert.NotEmpty(t, names[tokens.AccessCookie])

	ref.err = errors.New("revoked")
	rec, _, err = serve(m.RequireAuth, expired, &http.Cookie{Name: tokens.RefreshCookie, Value: "old"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}

func TestRequireAdmin(t *testing.T) {
	m := NewAutoRefresh(secret, nil, false)

	_, _, err := serve(m.RequireAdmin, &http.Cookie{Name: tokens.AccessCookie, Value: access(t, models.RoleUser, time.Now().Add(time.Minute))})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, c, err := serve(m.RequireAdmin, &http.Cookie{Name: tokens.AccessCookie, Value: access(t, models.RoleAdmin, time.Now().Add(time.Minute))})
	require.NoError(t, err)
	assert.True(t, Caller(c).IsAdmin())
}

func TestOptionalAuthAndBasketSession(t *testing.T) {
	m := NewAutoRefresh(secret, nil, false)
	chain := func(next echo.HandlerFunc) echo.HandlerFunc { return m.BasketSession(m.OptionalAuth(next)) }

	rec, c, err := serve(chain)
	require.NoError(t, err)
	_, ok := UserID(c)
	assert.False(t, ok)
	owner := Owner(c)
	assert.NotEmpty(t, owner.SessionKey)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, tokens.SessionCookie, rec.Result().Cookies()[0].Name)
	assert.Equal(t, owner.SessionKey, rec.Result().Cookies()[0].Value)

	rec, c, err = serve(chain, &http.Cookie{Name: tokens.SessionCookie, Value: "anon-1"})
	require.NoError(t, err)
	assert.Equal(t, "anon-1", Owner(c).SessionKey)
	assert.Empty(t, rec.Result().Cookies())

	_, c, err = serve(chain,
		&http.Cookie{Name: tokens.SessionCookie, Value: "anon-1"},
		&http.Cookie{Name: tokens.AccessCookie, Value: access(t, models.RoleUser, time.Now().Add(time.Minute))},
	)
	require.NoError(t, err)
	assert.Equal(t, uint(7), Owner(c).UserID)
	assert.Empty(t, Owner(c).SessionKey)
	assert.Equal(t, "anon-1", SessionKey(c))
}
