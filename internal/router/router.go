package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-planner/internal/handler"
	"github.com/iliyamo/seat-planner/internal/middleware"
)

// Deps carries the handlers and middleware the routes are built from.
// Auth is nil when operator authentication is disabled; RateLimit and
// LayoutCache may be nil to mount the routes without them.
type Deps struct {
	Seating     *handler.SeatingHandler
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	JWTSecret   string
	Metrics     http.Handler
	RateLimit   echo.MiddlewareFunc
	LayoutCache echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication:
// liveness, readiness and the prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.Health != nil {
		e.GET("/v1/health", d.Health.Ready)
	}
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}
}

// RegisterAuth exposes the operator login.  It is a no-op when
// authentication is disabled.
func RegisterAuth(e *echo.Echo, d Deps) {
	if d.Auth == nil {
		return
	}
	g := e.Group("/v1/auth")
	g.POST("/login", d.Auth.Login)
}

// RegisterSeating mounts the seating API under /v1.  Every route goes
// through the rate limiter and, when enabled, operator authentication.
func RegisterSeating(e *echo.Echo, d Deps) {
	g := e.Group("/v1")
	if d.Auth != nil {
		g.Use(middleware.OperatorAuth(d.JWTSecret))
	}
	if d.RateLimit != nil {
		g.Use(d.RateLimit)
	}
	h := d.Seating

	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.UpdateConfig)

	g.GET("/ambassadors", h.ListAmbassadors)
	g.POST("/ambassadors", h.CreateAmbassador)
	g.DELETE("/ambassadors/batch", h.DeleteAmbassadors)
	g.PUT("/ambassadors/:id", h.RenameAmbassador)
	g.DELETE("/ambassadors/:id", h.DeleteAmbassador)

	g.GET("/persons", h.ListPersons)
	g.POST("/persons", h.CreatePerson)
	g.POST("/persons/import", h.ImportPersons)
	g.POST("/persons/import/xlsx", h.ImportWorkbook)
	g.DELETE("/persons/batch", h.DeletePersons)
	g.PUT("/persons/:id", h.UpdatePerson)
	g.DELETE("/persons/:id", h.DeletePerson)

	g.GET("/assignments", h.ListAssignments)
	layout := []echo.MiddlewareFunc{}
	if d.LayoutCache != nil {
		layout = append(layout, d.LayoutCache)
	}
	g.GET("/assignments/layout", h.Layout, layout...)
	g.POST("/assignments/single", h.AssignSingle)
	g.PUT("/assignments", h.AssignBatch)
	g.POST("/assignments/suggest", h.Suggest)
	g.DELETE("/assignments/:personId", h.Unassign)

	g.GET("/export/seating.xlsx", h.ExportSeating)
	g.GET("/export/sign-in.xlsx", h.ExportSignIn)
}

// Register mounts every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterSeating(e, d)
}
