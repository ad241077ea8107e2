package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookie names shared by the auth middleware and the basket session.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
	SessionCookie = "basketSession"
)

func httpOnly(name, value, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateCookie builds an http-only cookie expiring at exp.
func CreateCookie(name, value, path string, exp time.Time, secure bool) *http.Cookie {
	ck := httpOnly(name, value, path, secure)
	ck.Expires = exp
	return ck
}

// DeleteCookie builds a cookie that makes the browser drop name.
func DeleteCookie(name, path string, secure bool) *http.Cookie {
	ck := httpOnly(name, "", path, secure)
	ck.Expires = time.Unix(0, 0)
	ck.MaxAge = -1
	return ck
}

// Sha256Hex is how refresh tokens are stored at rest.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NewJTI() string { return uuid.NewString() }
