package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/disease-case-tracker/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/disease-case-tracker/internal/middleware" // session middleware and response cache
	"github.com/iliyamo/disease-case-tracker/internal/session"    // session manager for the auth gate
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Each former
// `?action=` value is its own route, so "unknown action" is a routing 404
// rather than a reachable runtime state.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/check", a.Check)
}

// RegisterCases registers the case-report endpoints.  Mutations run behind
// the session middleware; the list endpoint is public because listing by
// user does its own identity check inside the handler and every other
// filter is open data.
func RegisterCases(e *echo.Echo, h *handler.CaseHandler, mgr *session.Manager, cookieName string) {
	auth := middleware.SessionAuth(mgr, cookieName)
	e.POST("/v1/cases", h.Create, auth)
	e.PUT("/v1/cases", h.Update, auth)
	e.DELETE("/v1/cases", h.Delete, auth)
	e.GET("/v1/cases", h.List)
	e.GET("/v1/diseases", h.ListDiseases)
}

// RegisterMapData registers the public heat-map projection.  The optional
// cache middleware (no-op without Redis) keeps repeated map loads off the
// database.
func RegisterMapData(e *echo.Echo, h *handler.MapDataHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/map-data", h.MapData, cache)
		return
	}
	e.GET("/v1/map-data", h.MapData)
}
