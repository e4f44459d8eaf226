package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/school-behavior-tracker/internal/handler"    // import the handlers that implement each endpoint
	"github.com/iliyamo/school-behavior-tracker/internal/metrics"    // import the Prometheus exposition handler
	"github.com/iliyamo/school-behavior-tracker/internal/middleware" // import the session gate
)

// Handlers bundles the data handlers mounted under /api.
type Handlers struct {
	Users         *handler.UserHandler
	Students      *handler.StudentHandler
	Behaviors     *handler.BehaviorHandler
	Notifications *handler.NotificationHandler
	Messages      *handler.MessageHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe /healthz.
	e.GET("/healthz", handler.Health)
	// Prometheus scrapes /metrics.
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers the session routes.  Login is public and guarded
// by the rate limiter; logout works with or without a session; the current
// user and password change require one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, loginLimiter echo.MiddlewareFunc) {
	// Create a route group under /api for all session operations.
	g := e.Group("/api")
	// POST /api/login verifies credentials and starts a session.
	g.POST("/login", a.Login, loginLimiter)
	// POST /api/logout destroys the session unconditionally.
	g.POST("/logout", a.Logout)
	// GET /api/user returns the authenticated user's record.
	g.GET("/user", a.Me, middleware.RequireAuth())
	// POST /api/change-password replaces the caller's password.
	g.POST("/change-password", a.ChangePassword, middleware.RequireAuth())
}

// RegisterData registers every data route.  All of them require a session;
// the stats endpoint is additionally fronted by the response cache.
func RegisterData(e *echo.Echo, h Handlers, statsCache echo.MiddlewareFunc) {
	// Every handler on this group runs after RequireAuth.
	api := e.Group("/api", middleware.RequireAuth())

	api.GET("/users", h.Users.List)
	api.POST("/users", h.Users.Create)
	api.GET("/users/:id", h.Users.Get)
	api.PATCH("/users/:id", h.Users.Update)
	api.DELETE("/users/:id", h.Users.Delete)

	api.GET("/students", h.Students.List)
	api.POST("/students", h.Students.Create)
	api.GET("/students/:id", h.Students.Get)
	api.PATCH("/students/:id", h.Students.Update)
	api.DELETE("/students/:id", h.Students.Delete)

	api.GET("/behaviors/stats", h.Behaviors.Stats, statsCache)
	api.GET("/behaviors", h.Behaviors.List)
	api.POST("/behaviors", h.Behaviors.Create)

	api.GET("/notifications", h.Notifications.List)
	api.POST("/notifications/:id/read", h.Notifications.MarkRead)

	api.GET("/messages", h.Messages.List)
	api.POST("/messages", h.Messages.Send)
}
