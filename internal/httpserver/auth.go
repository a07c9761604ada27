package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pethostel/internal/domain"
	"github.com/Skotchmaster/pethostel/internal/logging"
	"github.com/Skotchmaster/pethostel/internal/middleware"
	"github.com/Skotchmaster/pethostel/internal/service"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return writeError(c, domain.ErrInvalidRequest)
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return writeError(c, domain.ErrInvalidRequest)
	}

	res, err := h.Svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return writeError(c, domain.ErrInvalidRequest)
	}

	res, err := h.Svc.Refresh(ctx, req.AccessToken, req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Revoke(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_revoke")

	var req transport.RevokeRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("revoke_error", "status", 400, "error", err)
		return writeError(c, domain.ErrInvalidRequest)
	}

	if err := h.Svc.RevokeToken(ctx, req.RefreshToken); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transport.APIResponse{Success: true, Code: domain.CodeTokenRevoked})
}

func (h *AuthHTTP) RevokeAll(c echo.Context) error {
	ctx := c.Request().Context()

	var userID string
	if claims := middleware.Claims(c); claims != nil {
		userID = claims.Subject
	}

	n, err := h.Svc.RevokeAll(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transport.APIResponse{
		Success:    true,
		Code:       domain.CodeAllTokensRevoked,
		Parameters: map[string]any{"count": n},
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	info := h.Svc.CurrentUser(middleware.Claims(c))
	return c.JSON(http.StatusOK, transport.APIResponse{
		Success: true,
		Code:    domain.CodeUserInfoRetrieved,
		Data:    info,
	})
}
