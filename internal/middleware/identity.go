package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/model"
)

// Principal returns the principal stored by SessionAuth, or nil on
// unauthenticated routes.
func Principal(c echo.Context) *model.Principal {
	p, _ := c.Get(principalKey).(*model.Principal)
	return p
}

// principalLabel identifies the caller in rate limit keys: "<variant>:<id>"
// when authenticated, "anon" otherwise.
func principalLabel(c echo.Context) string {
	p := Principal(c)
	if p == nil {
		return "anon"
	}
	return string(p.Variant) + ":" + strconv.FormatUint(p.ID, 10)
}
