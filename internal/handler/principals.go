package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/middleware"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/service"
)

// PrincipalHandler serves /users or /organizers.
type PrincipalHandler struct {
	Accounts *service.Accounts
}

// NewPrincipalHandler serves account endpoints for one variant.
func NewPrincipalHandler(a *service.Accounts) *PrincipalHandler {
	if a == nil {
		panic("nil accounts passed to NewPrincipalHandler")
	}
	return &PrincipalHandler{Accounts: a}
}

// ----- DTOs -----

type createPrincipalReq struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	FullName         *string `json:"full_name"`
	IsActive         *bool   `json:"is_active"`
	IsSuperuser      bool    `json:"is_superuser"`
	IsSuperorganizer bool    `json:"is_superorganizer"`
}

type openSignupReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

type updatePrincipalReq struct {
	Email            *string `json:"email"`
	Password         *string `json:"password"`
	FullName         *string `json:"full_name"`
	IsActive         *bool   `json:"is_active"`
	IsSuperuser      *bool   `json:"is_superuser"`
	IsSuperorganizer *bool   `json:"is_superorganizer"`
}

type updateMeReq struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

type updatePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *PrincipalHandler) variant() model.Variant { return h.Accounts.Variant() }

// List: GET / (privileged).
func (h *PrincipalHandler) List(c echo.Context) error {
	skip, limit, ok := page(c)
	if !ok {
		return badRequest(c, "invalid skip/limit")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, total, err := h.Accounts.List(ctx, middleware.Principal(c), skip, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := listOut[echo.Map]{Data: make([]echo.Map, 0, len(ps)), Count: total}
	for _, p := range ps {
		out.Data = append(out.Data, principalOut(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Create: POST / (privileged).
func (h *PrincipalHandler) Create(c echo.Context) error {
	var req createPrincipalReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	privileged := req.IsSuperuser
	if h.variant() == model.VariantOrganizer {
		privileged = req.IsSuperorganizer
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.Create(ctx, middleware.Principal(c), service.SignupInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		IsActive:     req.IsActive,
		IsPrivileged: privileged,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, principalOut(p))
}

// SignupOpen: POST /open.
func (h *PrincipalHandler) SignupOpen(c echo.Context) error {
	var req openSignupReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.SignupOpen(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, principalOut(p))
}

// Me: GET /me.
func (h *PrincipalHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, principalOut(middleware.Principal(c)))
}

// UpdateMe: PATCH /me.  Only email and full name can be changed here.
func (h *PrincipalHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	me := middleware.Principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.Update(ctx, me, me.ID, service.Changes{Email: req.Email, FullName: req.FullName})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, principalOut(p))
}

// UpdatePasswordMe: PATCH /me/password.
func (h *PrincipalHandler) UpdatePasswordMe(c echo.Context) error {
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Accounts.UpdateSecret(ctx, middleware.Principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return message(c, "Password updated successfully")
}

// Get: GET /:id.
func (h *PrincipalHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.Get(ctx, middleware.Principal(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, principalOut(p))
}

// Update: PATCH /:id.  Flags and password are privileged fields.
func (h *PrincipalHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updatePrincipalReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	privileged := req.IsSuperuser
	if h.variant() == model.VariantOrganizer {
		privileged = req.IsSuperorganizer
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.Update(ctx, middleware.Principal(c), id, service.Changes{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		IsActive:     req.IsActive,
		IsPrivileged: privileged,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, principalOut(p))
}

// Delete: DELETE /:id.
func (h *PrincipalHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Accounts.Delete(ctx, middleware.Principal(c), id); err != nil {
		return writeError(c, err)
	}
	return message(c, fmtDeleted(h.variant()))
}

func fmtDeleted(v model.Variant) string {
	if v == model.VariantOrganizer {
		return "Organizer deleted successfully"
	}
	return "User deleted successfully"
}
