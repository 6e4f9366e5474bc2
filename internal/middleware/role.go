package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/policy"
)

// RequirePrivileged aborts with 403 unless the authenticated principal is a
// superuser (or superorganizer).  It must run after SessionAuth.
func RequirePrivileged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !policy.CanAdminister(Principal(c)) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough privileges"})
			}
			return next(c)
		}
	}
}
