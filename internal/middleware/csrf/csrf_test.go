package csrf

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg Config, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(req.URL.Path)
	err := Middleware(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, err
}

func code(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestMiddleware_SafeMethodIssuesToken(t *testing.T) {
	rec, err := run(t, Config{}, httptest.NewRequest(http.MethodGet, "/api/basket", nil))
	require.NoError(t, err)

	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)
}

func TestMiddleware_UnsafeMethod(t *testing.T) {
	newReq := func(header, origin string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "http://shop.local/api/basket", strings.NewReader(`{}`))
		req.Host = "shop.local"
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok-1"})
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	tests := []struct {
		name   string
		header string
		origin string
		want   int
	}{
		{name: "matching token", header: "tok-1", origin: "http://shop.local", want: 0},
		{name: "missing token", origin: "http://shop.local", want: http.StatusForbidden},
		{name: "wrong token", header: "tok-2", origin: "http://shop.local", want: http.StatusForbidden},
		{name: "foreign origin", header: "tok-1", origin: "http://evil.local", want: http.StatusForbidden},
		{name: "no origin", header: "tok-1", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, Config{EnforceSameOrigin: true}, newReq(tt.header, tt.origin))
			if tt.want == 0 {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, code(err))
		})
	}
}

func TestMiddleware_SkipPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/sign-in", nil)
	rec, err := run(t, Config{SkipPaths: []string{"/api/sign-in"}}, req)
	require.NoError(t, err)
	assert.Empty(t, rec.Result().Cookies())
}
