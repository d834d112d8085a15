package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/wedding-seating/internal/utils" // session token parsing
)

// Context keys set by JWTAuth.
const (
	CtxSessionID = "session_id"
	CtxRole      = "role"
)

// JWTAuth returns an Echo middleware that validates a planner session token
// and injects its session id and role into the request context.  The token
// is read from the Authorization header ("Bearer <jwt>") or, for WebSocket
// upgrades where browsers cannot set headers, from the "token" query
// parameter.  Handlers access the values via SessionID(c) and c.Get("role").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The header form takes precedence over the query parameter.
			raw := ""
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			} else if q := c.QueryParam("token"); q != "" {
				raw = q // query form for WebSocket clients
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token"})
			}

			claims, err := utils.ParseSessionToken(secret, raw) // verify signature, expiry and claims
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxSessionID, claims.SessionID) // chart the caller may touch
			c.Set(CtxRole, claims.Role)           // PLANNER or VIEWER
			return next(c)
		}
	}
}
