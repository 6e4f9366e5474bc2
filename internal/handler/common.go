package handler // handler adapts the services to HTTP

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/service"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds the storage work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// writeError maps a service error onto a status code and a JSON body.
// Unknown errors are logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrRegistrationClosed):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "err", err)
		if status == http.StatusInternalServerError {
			return c.JSON(status, echo.Map{"error": "internal error"})
		}
	}
	msg := service.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// page reads the skip and limit query parameters.
func page(c echo.Context) (int, int, bool) {
	skip, limit := 0, service.DefaultLimit
	if s := c.QueryParam("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		skip = n
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		limit = n
	}
	skip, limit = service.NormalizePage(skip, limit)
	return skip, limit, true
}

// ----- responses -----

// principalOut renders a principal.  The privileged flag is named after the
// variant: is_superuser or is_superorganizer.
func principalOut(p *model.Principal) echo.Map {
	return echo.Map{
		"id":                        p.ID,
		"email":                     p.Email,
		"full_name":                 p.FullName,
		"is_active":                 p.IsActive,
		p.Variant.PrivilegedField(): p.IsPrivileged,
	}
}

type resourceOut struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	OwnerID     uint64  `json:"owner_id"`
}

func toResourceOut(r *model.Resource) resourceOut {
	return resourceOut{ID: r.ID, Title: r.Title, Description: r.Description, OwnerID: r.OwnerID}
}

type listOut[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}
