package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventdesk/internal/middleware"
	"github.com/iliyamo/eventdesk/internal/service"
)

// AuthHandler bundles the login and password recovery endpoints of one
// variant.
type AuthHandler struct {
	Sessions *service.Sessions
	Recovery *service.Recovery
}

// NewAuthHandler serves login and password recovery for one variant.
func NewAuthHandler(s *service.Sessions, r *service.Recovery) *AuthHandler {
	return &AuthHandler{Sessions: s, Recovery: r}
}

// ----- DTOs -----

// loginReq accepts the OAuth2 password form as well as JSON.
type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Login: POST /login/access-token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username/password required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, _, err := h.Sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: tok.Token, TokenType: "bearer"})
}

// TestToken: POST /login/test-token returns the bearer's principal.
func (h *AuthHandler) TestToken(c echo.Context) error {
	return c.JSON(http.StatusOK, principalOut(middleware.Principal(c)))
}

// RecoverPassword: POST /password-recovery/:email.
func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Recovery.Request(ctx, c.Param("email")); err != nil {
		return writeError(c, err)
	}
	return message(c, "Password recovery email sent")
}

// ResetPassword: POST /reset-password/.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Recovery.Reset(ctx, req.Token, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return message(c, "Password updated successfully")
}

// RecoveryHTML: POST /password-recovery-html-content/:email (privileged).
func (h *AuthHandler) RecoveryHTML(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	subject, html, err := h.Recovery.Preview(ctx, middleware.Principal(c), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("X-Mail-Subject", subject)
	return c.HTML(http.StatusOK, html)
}
