// Package csrf guards the cookie authenticated API with a double submit
// token: the token travels in a readable cookie and must be echoed back in
// a header (or form field) on every state changing request.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const tokenBytes = 32

type Config struct {
	CookieName string
	HeaderName string
	FormField  string

	CookiePath string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	EnforceSameOrigin bool

	// SkipPaths are matched against the route path (e.g. /health/ready)
	// and the raw request path.
	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:        "XSRF-TOKEN",
		HeaderName:        "X-CSRF-Token",
		FormField:         "csrf_token",
		CookiePath:        "/",
		SameSite:          http.SameSiteLaxMode,
		MaxAge:            24 * time.Hour,
		EnforceSameOrigin: true,
	}
}

type guard struct {
	cfg  Config
	skip map[string]struct{}
}

func newGuard(cfg Config) *guard {
	def := DefaultConfig()
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&cfg.CookieName, def.CookieName},
		{&cfg.HeaderName, def.HeaderName},
		{&cfg.FormField, def.FormField},
		{&cfg.CookiePath, def.CookiePath},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	g := &guard{cfg: cfg, skip: make(map[string]struct{}, len(cfg.SkipPaths))}
	for _, p := range cfg.SkipPaths {
		g.skip[p] = struct{}{}
	}
	return g
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	g := newGuard(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.skipped(c) {
				return next(c)
			}

			token, err := g.issue(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
			}

			if safeMethod(c.Request().Method) {
				c.Response().Header().Set(g.cfg.HeaderName, token)
				return next(c)
			}
			if err := g.verify(c, token); err != nil {
				return err
			}

			c.Set("csrf_token", token)
			return next(c)
		}
	}
}

func (g *guard) skipped(c echo.Context) bool {
	if _, ok := g.skip[c.Path()]; ok {
		return true
	}
	_, ok := g.skip[c.Request().URL.Path]
	return ok
}

// issue returns the token of the request cookie, minting one when absent,
// and refreshes the cookie expiry.
func (g *guard) issue(c echo.Context) (string, error) {
	token := ""
	if ck, err := c.Cookie(g.cfg.CookieName); err == nil {
		token = ck.Value
	}
	if token == "" {
		b := make([]byte, tokenBytes)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		token = base64.RawURLEncoding.EncodeToString(b)
	}

	c.SetCookie(&http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     g.cfg.CookiePath,
		Domain:   g.cfg.Domain,
		Secure:   g.cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(g.cfg.MaxAge.Seconds()),
		SameSite: g.cfg.SameSite,
	})
	return token, nil
}

func (g *guard) verify(c echo.Context, token string) error {
	req := c.Request()
	if g.cfg.EnforceSameOrigin && !sameOrigin(req) {
		return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
	}

	provided := req.Header.Get(g.cfg.HeaderName)
	if provided == "" {
		provided = c.FormValue(g.cfg.FormField)
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
		return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
	}
	return nil
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// sameOrigin compares Origin (or Referer) with the host the request was sent to.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	scheme := "http"
	switch {
	case r.Header.Get("X-Forwarded-Proto") != "":
		scheme = r.Header.Get("X-Forwarded-Proto")
	case r.TLS != nil:
		scheme = "https"
	}
	return strings.EqualFold(u.Scheme, scheme) && strings.EqualFold(u.Host, r.Host)
}
