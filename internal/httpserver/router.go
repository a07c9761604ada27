package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pethostel/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Bearer      *middleware.BearerAuth
	// Ready reports whether dependencies such as the database are reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	g := e.Group("/api/authentication")
	g.POST("/register", d.AuthHandler.Register)
	g.POST("/login", d.AuthHandler.Login)
	g.POST("/refresh", d.AuthHandler.Refresh)

	private := g.Group("")
	private.Use(d.Bearer.RequireAuth)
	private.POST("/revoke", d.AuthHandler.Revoke)
	private.POST("/revoke-all", d.AuthHandler.RevokeAll)
	private.GET("/me", d.AuthHandler.Me)
}
