package handler // handler package contains planner table handlers

import (
	"errors"   // errors matches the not-found sentinel for races
	"net/http" // http defines status code constants

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/model"      // table and position types
	"github.com/iliyamo/wedding-seating/internal/planner"    // planner service inputs
	"github.com/iliyamo/wedding-seating/internal/repository" // table not-found sentinel
)

// defaultCapacity is used when a new seating table arrives without one.
const defaultCapacity = 8

// tableGone is the reason reported when a drop targets a deleted table.
const tableGone = "table no longer exists"

// AddTable handles POST /v1/planner/tables.  Without x/y the table lands
// on the next free grid slot.
func (h *PlannerHandler) AddTable(c echo.Context) error {
	var body struct { // anonymous struct to bind JSON payload
		Name        string   `json:"name"`          // optional; "Table N" by default
		Shape       string   `json:"shape"`         // round, long, square or sweetheart
		Capacity    *int     `json:"capacity"`      // chairs; defaults to 8
		Width       *float64 `json:"width"`         // optional custom width
		Height      *float64 `json:"height"`        // optional custom height
		Rotation    float64  `json:"rotation"`      // degrees
		Description string   `json:"description"`   // optional free text
		IsVenueItem bool     `json:"is_venue_item"` // dance floor, cake table, ...
		X           *float64 `json:"x"`             // optional canvas position
		Y           *float64 `json:"y"`             // optional canvas position
	}
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return badBody(c)
	}
	capacity := defaultCapacity // seat eight unless told otherwise
	if body.IsVenueItem {
		capacity = 0 // venue items seat nobody
	}
	if body.Capacity != nil {
		capacity = *body.Capacity
	}
	t, pos, err := h.Svc.AddTable(c.Request().Context(), chartID(c), planner.TableInput{
		Name:        body.Name,
		Shape:       body.Shape,
		Capacity:    capacity,
		Width:       body.Width,
		Height:      body.Height,
		Rotation:    body.Rotation,
		Description: body.Description,
		IsVenueItem: body.IsVenueItem,
		X:           body.X,
		Y:           body.Y,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"table": t, "position": pos})
}

// UpdateTable handles PATCH /v1/planner/tables/:id.  Guests left without a
// chair by a smaller capacity are moved or unseated by the repair pass.
func (h *PlannerHandler) UpdateTable(c echo.Context) error {
	var body struct {
		Name            *string  `json:"name"`             // new name when present
		Shape           *string  `json:"shape"`            // new outline
		Capacity        *int     `json:"capacity"`         // new chair count
		Description     *string  `json:"description"`      // new free text
		IsVenueItem     *bool    `json:"is_venue_item"`    // toggle venue item
		Width           *float64 `json:"width"`            // custom width
		Height          *float64 `json:"height"`           // custom height
		ClearDimensions bool     `json:"clear_dimensions"` // back to the shape default size
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.UpdateTable(c.Request().Context(), chartID(c), c.Param("id"), planner.TablePatch{
		Name:            body.Name,
		Shape:           body.Shape,
		Capacity:        body.Capacity,
		Description:     body.Description,
		IsVenueItem:     body.IsVenueItem,
		Width:           body.Width,
		Height:          body.Height,
		ClearDimensions: body.ClearDimensions,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/planner/tables/:id and reports the guests
// that lost their seat.
func (h *PlannerHandler) DeleteTable(c echo.Context) error {
	unseated, err := h.Svc.DeleteTable(c.Request().Context(), chartID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unseated": unseated})
}

// MoveTable handles PUT /v1/planner/tables/:id/position.  Moving a table
// that was deleted meanwhile is ignored rather than failed.
func (h *PlannerHandler) MoveTable(c echo.Context) error {
	var body struct {
		X *float64 `json:"x"` // canvas x of the centre
		Y *float64 `json:"y"` // canvas y of the centre
	}
	if err := c.Bind(&body); err != nil || body.X == nil || body.Y == nil { // both coordinates are required
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "x and y are required"})
	}
	pos, err := h.Svc.MoveTable(c.Request().Context(), chartID(c), c.Param("id"), *body.X, *body.Y)
	if errors.Is(err, repository.ErrTableNotFound) {
		return ignored(c, tableGone)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": true, "position": pos})
}

// CommitPositions handles PUT /v1/planner/tables/positions.  Entries for
// tables that no longer exist are skipped.
func (h *PlannerHandler) CommitPositions(c echo.Context) error {
	var body struct {
		Positions []model.TablePosition `json:"positions"` // one entry per moved table
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	applied, err := h.Svc.CommitPositions(c.Request().Context(), chartID(c), body.Positions)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"positions": applied, "skipped": len(body.Positions) - len(applied)})
}

// ResizeTable handles PUT /v1/planner/tables/:id/dimensions.
func (h *PlannerHandler) ResizeTable(c echo.Context) error {
	var body struct {
		Width  float64 `json:"width"`  // requested width
		Height float64 `json:"height"` // requested height
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.ResizeTable(c.Request().Context(), chartID(c), c.Param("id"), body.Width, body.Height)
	if errors.Is(err, repository.ErrTableNotFound) {
		return ignored(c, tableGone)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": true, "table": t})
}

// RotateTable handles PUT /v1/planner/tables/:id/rotation.  Either an
// absolute angle or a number of rotate-knob steps is accepted.
func (h *PlannerHandler) RotateTable(c echo.Context) error {
	var body struct {
		Rotation *float64 `json:"rotation"` // absolute degrees
		Steps    *int     `json:"steps"`    // knob clicks; negative turns back
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	ctx := c.Request().Context()
	var (
		pos model.TablePosition
		err error
	)
	switch {
	case body.Rotation != nil:
		pos, err = h.Svc.RotateTable(ctx, chartID(c), c.Param("id"), *body.Rotation)
	case body.Steps != nil:
		pos, err = h.Svc.RotateTableBy(ctx, chartID(c), c.Param("id"), *body.Steps)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rotation or steps is required"})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

// SeatPositions handles GET /v1/planner/tables/:id/seats and returns the
// chair centres in canvas coordinates.
func (h *PlannerHandler) SeatPositions(c echo.Context) error {
	pts, err := h.Svc.SeatPositions(c.Request().Context(), chartID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": pts})
}
