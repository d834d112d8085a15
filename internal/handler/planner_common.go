package handler // handler defines http handlers

import (
	"errors"   // errors matches sentinel values from the service layers
	"net/http" // http defines status code constants

	"github.com/labstack/echo/v4" // echo defines request context types
	"go.uber.org/zap"             // zap structured fields for error logs

	"github.com/iliyamo/wedding-seating/internal/canvas"     // gesture and resize errors
	"github.com/iliyamo/wedding-seating/internal/importer"   // csv import errors
	"github.com/iliyamo/wedding-seating/internal/localstore" // template and draft storage
	"github.com/iliyamo/wedding-seating/internal/logging"    // process-wide logger
	"github.com/iliyamo/wedding-seating/internal/middleware" // session id extraction
	"github.com/iliyamo/wedding-seating/internal/planner"    // planner service
	"github.com/iliyamo/wedding-seating/internal/repository" // not-found sentinels
	"github.com/iliyamo/wedding-seating/internal/seating"    // assignment errors
)

// PlannerHandler bundles the planner service with the local store and the
// token settings used to open sessions.
type PlannerHandler struct {
	Svc           *planner.Service  // Svc owns charts, tables, guests and assignments
	Store         *localstore.Store // Store holds drafts, guest columns and templates
	JWTSecret     string            // JWTSecret signs session tokens
	SessionTTLMin int               // SessionTTLMin is the lifetime of issued tokens
}

// NewPlannerHandler constructs a PlannerHandler and panics if a dependency is nil
func NewPlannerHandler(svc *planner.Service, store *localstore.Store, secret string, ttlMin int) *PlannerHandler {
	if svc == nil || store == nil { // both are required by some route
		panic("nil dependency passed to NewPlannerHandler")
	}
	return &PlannerHandler{Svc: svc, Store: store, JWTSecret: secret, SessionTTLMin: ttlMin}
}

// chartID returns the chart bound to the caller's session token.
func chartID(c echo.Context) string {
	return middleware.SessionID(c)
}

// fail maps service errors onto HTTP responses.  Anything unrecognised is
// logged and reported as a 500 without leaking the cause.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrChartNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrGuestNotFound),
		errors.Is(err, repository.ErrGroupNotFound),
		errors.Is(err, localstore.ErrTemplateNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()}) // missing resource
	case errors.Is(err, planner.ErrInvalidInput),
		errors.Is(err, seating.ErrUnknownGuest),
		errors.Is(err, seating.ErrUnknownTable),
		errors.Is(err, seating.ErrSeatOutOfRange),
		errors.Is(err, seating.ErrTableFull),
		errors.Is(err, canvas.ErrUnknownTable),
		errors.Is(err, canvas.ErrInvalidHandle),
		errors.Is(err, localstore.ErrTemplateName),
		errors.Is(err, importer.ErrNoNameColumn):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()}) // caller sent something unusable
	case errors.Is(err, canvas.ErrGestureInProgress):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()}) // finish the current gesture first
	case errors.Is(err, planner.ErrNoTemplateStore):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}
	logging.Log.Error("request failed",
		zap.String("route", c.Path()),
		zap.String("session", chartID(c)),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ignored reports a drop that raced with a delete.  The client treats it as
// a no-op rather than an error.
func ignored(c echo.Context, reason string) error {
	logging.Log.Debug("drop ignored", zap.String("session", chartID(c)), zap.String("reason", reason))
	return c.JSON(http.StatusOK, echo.Map{"applied": false, "reason": reason})
}

// badBody is the shared reply for bind failures.
func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}
