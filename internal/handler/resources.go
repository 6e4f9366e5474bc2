package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/middleware"
	"github.com/iliyamo/eventdesk/internal/service"
)

// ResourceHandler serves /items or /events.
type ResourceHandler struct {
	Resources *service.Resources
}

// NewResourceHandler serves items or events, whichever r owns.
func NewResourceHandler(r *service.Resources) *ResourceHandler {
	if r == nil {
		panic("nil resources passed to NewResourceHandler")
	}
	return &ResourceHandler{Resources: r}
}

type createResourceReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateResourceReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List: GET / scoped to the caller unless privileged.
func (h *ResourceHandler) List(c echo.Context) error {
	skip, limit, ok := page(c)
	if !ok {
		return badRequest(c, "invalid skip/limit")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rs, total, err := h.Resources.List(ctx, middleware.Principal(c), skip, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := listOut[resourceOut]{Data: make([]resourceOut, 0, len(rs)), Count: total}
	for _, r := range rs {
		out.Data = append(out.Data, toResourceOut(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Create: POST /.
func (h *ResourceHandler) Create(c echo.Context) error {
	var req createResourceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Resources.Create(ctx, middleware.Principal(c), service.ResourceInput{Title: req.Title, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResourceOut(r))
}

// Get: GET /:id.
func (h *ResourceHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Resources.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResourceOut(r))
}

// Update: PUT /:id.
func (h *ResourceHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateResourceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Resources.Update(ctx, middleware.Principal(c), id, service.ResourceChanges{Title: req.Title, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResourceOut(r))
}

// Delete: DELETE /:id.
func (h *ResourceHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Resources.Delete(ctx, middleware.Principal(c), id); err != nil {
		return writeError(c, err)
	}
	return message(c, "Deleted successfully")
}
