package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/clover/pkg/context"
	"github.com/labstack/echo/v4"
)

// RequireAdmin rejects callers without the admin role. Merge and status
// transitions are admin-only operations.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if context.GetUserID(ctx) == "" {
				return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !context.IsAdmin(ctx) {
				return httperror.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
}
