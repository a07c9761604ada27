package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pethostel/internal/domain"
	"github.com/Skotchmaster/pethostel/internal/logging"
	"github.com/Skotchmaster/pethostel/internal/tokens"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

const claimsKey = "auth.claims"

type BearerAuth struct {
	Codec *tokens.Codec
}

func NewBearerAuth(codec *tokens.Codec) *BearerAuth {
	return &BearerAuth{Codec: codec}
}

// RequireAuth rejects requests without a valid, unexpired access token and
// attaches the verified claims for downstream handlers.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "require_auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
			return unauthorized(c)
		}

		claims, err := m.Codec.Parse(raw)
		if err != nil || claims.Subject == "" {
			l.Warn("auth_failed", "status", 401, "reason", "invalid or expired token", "error", err)
			return unauthorized(c)
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// Claims returns the claims attached by RequireAuth, or nil.
func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(claimsKey).(*tokens.AccessClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	return c.JSON(domain.ErrUnauthorized.Status(), transport.APIResponse{Success: false, Code: domain.ErrUnauthorized.Code})
}
