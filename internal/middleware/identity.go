package middleware

// identity.go defines helpers shared across middleware files and handlers.
// SessionID pulls the planner session set by JWTAuth out of the Echo
// context.  When no token was presented "anonymous" is returned so rate
// limit and cache keys still have a stable segment.

import (
	"github.com/labstack/echo/v4"
)

const anonymous = "anonymous"

// SessionID returns the chart id of the authenticated planner session, or
// "" when the request carried no valid token.
func SessionID(c echo.Context) string {
	if v, ok := c.Get(CtxSessionID).(string); ok {
		return v
	}
	return ""
}

// Role returns the role claim of the session token, or "".
func Role(c echo.Context) string {
	if v, ok := c.Get(CtxRole).(string); ok {
		return v
	}
	return ""
}

// sessionKey is SessionID with a fallback for key building.
func sessionKey(c echo.Context) string {
	if id := SessionID(c); id != "" {
		return id
	}
	return anonymous
}
