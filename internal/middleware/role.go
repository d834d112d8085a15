package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// session token carries one of the specified roles.  The roles accepted
// should correspond to the values stored in the JWT's "role" claim
// (utils.RolePlanner, utils.RoleViewer).  If the role is not in the
// allowed set, the request is aborted with a 403 Forbidden response.  It
// assumes JWTAuth ran first and stored the role under "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				// Viewers reach here when they try to edit a chart.
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
