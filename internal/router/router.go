package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // sql is the MySQL handle checked by /readyz

	"github.com/labstack/echo/v4"  // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9" // redis client checked by /readyz

	"github.com/iliyamo/wedding-seating/internal/handler" // import the handlers that implement planner logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: liveness and readiness checks.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	// Readiness additionally checks MySQL and, when configured, Redis.
	e.GET("/readyz", handler.Ready(db, rdb))
}

// RegisterSessions registers the endpoint that opens a planner session.
// It is the only planner route without a token: it is what hands one out.
// limit is applied so anonymous callers cannot create charts in a loop.
func RegisterSessions(e *echo.Echo, p *handler.PlannerHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/sessions", p.CreateSession, limit)
}
