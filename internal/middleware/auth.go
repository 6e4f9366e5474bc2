package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/model"
)

// SessionResolver turns a raw bearer token into the principal it names.
type SessionResolver interface {
	Variant() model.Variant
	Resolve(ctx context.Context, raw string) (*model.Principal, error)
}

const principalKey = "principal"

// unauthorized is the one response every authentication failure gets; the
// cause is logged by the resolver, never returned.
func unauthorized(c echo.Context) error {
	c.Response().Header().Set("WWW-Authenticate", "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
}

// SessionAuth validates the Bearer token of each request with r and stores
// the resolved principal in the context for handlers (see Principal).
func SessionAuth(r SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			p, err := r.Resolve(c.Request().Context(), raw)
			if err != nil || p == nil || p.Variant != r.Variant() {
				return unauthorized(c)
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}
