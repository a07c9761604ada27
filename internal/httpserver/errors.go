package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pethostel/internal/domain"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

// writeError renders err as the failure envelope. The status follows the
// error kind and internal causes are never written out.
func writeError(c echo.Context, err error) error {
	de := domain.As(err)
	return c.JSON(de.Status(), transport.APIResponse{
		Success:    false,
		Code:       de.Code,
		Parameters: de.Params,
	})
}
