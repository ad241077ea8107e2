package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/tokens"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

type AuthHandler struct {
	Auth    *service.AuthService
	Session *authmw.AutoRefresh
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req transport.SignUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, pair, err := h.Auth.Register(c.Request().Context(), req.Name, req.Username, req.Password, authmw.SessionKey(c))
	if err != nil {
		return fail(c, "sign_up", err)
	}
	h.Session.SetAuthCookies(c, pair)
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req transport.SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, pair, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password, authmw.SessionKey(c))
	if err != nil {
		return fail(c, "sign_in", err)
	}
	h.Session.SetAuthCookies(c, pair)
	return c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil && ck.Value != "" {
		if err := h.Auth.Logout(c.Request().Context(), ck.Value); err != nil {
			return fail(c, "sign_out", err)
		}
	}
	h.Session.ClearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), ck.Value)
	if err != nil {
		h.Session.ClearAuthCookies(c)
		return fail(c, "refresh", err)
	}
	h.Session.SetAuthCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{"role": pair.Role, "access_expires_at": pair.AccessExp})
}
