package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elmazzun/jwt-manager/internal/auth"
	"github.com/elmazzun/jwt-manager/internal/logging"
	"github.com/elmazzun/jwt-manager/internal/repo"
	"github.com/elmazzun/jwt-manager/internal/service"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	if err := h.Svc.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
		l.Error("register failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User created successfully"})
}

// Login answers with the bare signed token as the response body.
func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	signed, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrWrongPassword):
			return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
		}
		l.Error("login failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.String(http.StatusOK, signed)
}

func (h *AccountHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get_user")

	user, err := h.Svc.GetUser(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("user lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"email":    user.Email,
		"username": user.Username,
	})
}

func (h *AccountHTTP) Revoke(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "revoke")

	if err := h.Svc.RevokeUser(ctx, c.Param("username")); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("revoke failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

func (h *AccountHTTP) PasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "password_reset")

	var req struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldpassword"`
		NewPassword string `json:"newpassword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ResetPassword(ctx, req.Username, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrWrongPassword):
			return echo.NewHTTPError(http.StatusUnauthorized, "passwordreset: wrong credentials")
		}
		l.Error("password reset failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset OK"})
}

// ChangeRoles updates the role of the CALLER, taken from the
// authenticated identity, not from the body.
func (h *AccountHTTP) ChangeRoles(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "change_roles")

	identity := auth.Identity(c)
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated identity")
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangeRole(ctx, identity.Username, req.Role); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownRole):
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("role change failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query on DB failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Role update ok"})
}

func (h *AccountHTTP) RevokeOlder(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Datetime int64 `json:"datetime"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	h.Svc.RevokeOlder(ctx, req.Datetime)

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("rejecting tokens older than %d", req.Datetime),
	})
}
