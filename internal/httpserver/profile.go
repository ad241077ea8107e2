package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

type ProfileHandler struct {
	Profiles *service.ProfileService
}

func (h *ProfileHandler) Get(c echo.Context) error {
	id, _ := authmw.UserID(c)
	user, profile, err := h.Profiles.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, "get_profile", err)
	}
	return c.JSON(http.StatusOK, transport.NewProfileResponse(*user, profile))
}

func (h *ProfileHandler) Update(c echo.Context) error {
	var req transport.ProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id, _ := authmw.UserID(c)
	user, profile, err := h.Profiles.Update(c.Request().Context(), id, service.ProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return fail(c, "update_profile", err)
	}
	return c.JSON(http.StatusOK, transport.NewProfileResponse(*user, profile))
}

func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	var req transport.PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id, _ := authmw.UserID(c)
	if err := h.Profiles.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, "change_password", err)
	}
	return c.NoContent(http.StatusNoContent)
}
