package handler // declare the package name; contains HTTP handlers

import (
	"context"      // context bounds the readiness checks
	"database/sql" // sql is the MySQL handle being checked
	"net/http"     // net/http provides status codes and response helpers
	"time"         // time sets the check timeout

	"github.com/labstack/echo/v4"  // echo is the web framework used for this project
	"github.com/redis/go-redis/v9" // redis client for the cache check
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error { // Health handler signature accepts an echo context and returns an error
	return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status; String writes plain text
}

// Ready reports whether the stores the planner depends on answer.  MySQL
// is required; Redis is optional, so a missing client reads "disabled"
// and a failing one "down" without failing the check.
func Ready(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second) // keep checks short
		defer cancel()
		status := echo.Map{"mysql": "up", "redis": "disabled"} // report per dependency
		code := http.StatusOK
		if err := db.PingContext(ctx); err != nil { // the authoritative store must answer
			status["mysql"] = "down"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil { // cache is optional
			status["redis"] = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
			}
		}
		return c.JSON(code, status)
	}
}
