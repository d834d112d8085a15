package utils // package utils provides helper functions for planner session tokens

import (
	"errors" // errors defines the sentinel returned for bad tokens
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Roles carried by the "role" claim.  A planner edits the chart; a viewer
// may only read it (the shared link a couple sends to family).
const (
	RolePlanner = "PLANNER"
	RoleViewer  = "VIEWER"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken is a signed JWT bound to one planner session (chart) along
// with its expiry.  Clients send it as a Bearer token, or in the "token"
// query parameter when opening the canvas WebSocket.
type SessionToken struct {
	Token string    `json:"token"`      // the serialized JWT string
	Exp   time.Time `json:"expires_at"` // the UTC expiration time
}

// SessionClaims are the claims a planner token carries.
type SessionClaims struct {
	SessionID string `json:"sid"`  // chart id the token grants access to
	Role      string `json:"role"` // PLANNER or VIEWER
	jwt.RegisteredClaims
}

// NewSessionToken builds and signs an HS256 JWT for a planner session.  The
// session id doubles as the subject so generic JWT tooling shows it.
func NewSessionToken(secret, sessionID, role string, ttlMin int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := SessionClaims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret)) // sign with the shared secret
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken validates raw and returns its claims.  Only HMAC
// signatures are accepted and both sid and role must be present.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok { // reject alg swapping
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" || (claims.Role != RolePlanner && claims.Role != RoleViewer) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
