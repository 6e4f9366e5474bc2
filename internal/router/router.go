package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/eventdesk/internal/handler"
	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/middleware"
)

// VariantHandlers are the handlers of one principal hierarchy.
type VariantHandlers struct {
	Sessions   middleware.SessionResolver
	Auth       *handler.AuthHandler
	Principals *handler.PrincipalHandler
	Resources  *handler.ResourceHandler
}

// Deps is everything Register needs.
type Deps struct {
	Users      VariantHandlers
	Organizers VariantHandlers
	// RateLimit guards the credential endpoints; nil disables it.
	RateLimit echo.MiddlewareFunc
	DB        handler.Pinger
}

// paths names the URL segments of one variant.
type paths struct {
	auth       string // prefix of login and recovery routes
	principals string
	resources  string
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// Register wires every route of both variants under /api/v1.  Trailing
// slashes are stripped before routing, so /users/ and /users are the same.
func Register(e *echo.Echo, d Deps) {
	e.Pre(echomw.RemoveTrailingSlash())
	RegisterRoutes(e, d.DB)

	api := e.Group("/api/v1")
	registerVariant(api, paths{auth: "", principals: "/users", resources: "/items"}, d.Users, d.RateLimit)
	registerVariant(api, paths{auth: "/organizer", principals: "/organizers", resources: "/events"}, d.Organizers, d.RateLimit)
}

func registerVariant(api *echo.Group, p paths, h VariantHandlers, limit echo.MiddlewareFunc) {
	authn := middleware.SessionAuth(h.Sessions)
	admin := middleware.RequirePrivileged()
	guard := []echo.MiddlewareFunc{}
	if limit != nil {
		guard = append(guard, limit)
	}

	// login and recovery
	api.POST(p.auth+"/login/access-token", h.Auth.Login, guard...)
	api.POST(p.auth+"/login/test-token", h.Auth.TestToken, authn)
	api.POST(p.auth+"/password-recovery/:email", h.Auth.RecoverPassword, guard...)
	api.POST(p.auth+"/reset-password", h.Auth.ResetPassword, guard...)
	api.POST(p.auth+"/password-recovery-html-content/:email", h.Auth.RecoveryHTML, authn, admin)

	// principals
	g := api.Group(p.principals)
	g.POST("/open", h.Principals.SignupOpen, guard...)
	g.GET("", h.Principals.List, authn, admin)
	g.POST("", h.Principals.Create, authn, admin)
	g.GET("/me", h.Principals.Me, authn)
	g.PATCH("/me", h.Principals.UpdateMe, authn)
	g.PATCH("/me/password", h.Principals.UpdatePasswordMe, authn)
	g.GET("/:id", h.Principals.Get, authn)
	g.PATCH("/:id", h.Principals.Update, authn)
	g.DELETE("/:id", h.Principals.Delete, authn)

	// owned resources
	r := api.Group(p.resources, authn)
	r.GET("", h.Resources.List)
	r.POST("", h.Resources.Create)
	r.GET("/:id", h.Resources.Get)
	r.PUT("/:id", h.Resources.Update)
	r.DELETE("/:id", h.Resources.Delete)
}
