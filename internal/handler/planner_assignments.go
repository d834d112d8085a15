package handler // handler package contains seat assignment handlers

import (
	"errors"   // errors matches seating sentinels for drop races
	"net/http" // http defines status code constants

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/model"   // assignment types
	"github.com/iliyamo/wedding-seating/internal/planner" // planner service inputs
	"github.com/iliyamo/wedding-seating/internal/seating" // unknown guest and table errors
)

// dropRace turns the errors of a drop whose guest, table or seat vanished during
// the drag into an ignored reply.  handled is false for any other error.
func dropRace(c echo.Context, err error) (handled bool, resp error) {
	switch {
	case errors.Is(err, seating.ErrUnknownTable):
		return true, ignored(c, tableGone)
	case errors.Is(err, seating.ErrUnknownGuest):
		return true, ignored(c, "guest no longer exists")
	case errors.Is(err, seating.ErrSeatOutOfRange): // capacity shrank under the drag
		return true, ignored(c, "seat no longer exists")
	}
	return false, nil
}

// AssignSeat handles PUT /v1/planner/assignments/:guestId.  A seat_index
// of -1 unseats the guest; an occupied seat moves them to the next free
// chair at the same table.
func (h *PlannerHandler) AssignSeat(c echo.Context) error {
	var body struct {
		TableID   string `json:"table_id"`   // destination table
		SeatIndex *int   `json:"seat_index"` // zero-based chair, or -1
	}
	if err := c.Bind(&body); err != nil || body.SeatIndex == nil { // seat_index is required
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_index is required"})
	}
	a, err := h.Svc.Assign(c.Request().Context(), chartID(c), c.Param("guestId"), body.TableID, *body.SeatIndex)
	if ok, resp := dropRace(c, err); ok {
		return resp
	}
	if err != nil {
		return fail(c, err)
	}
	if *body.SeatIndex == model.Unassigned { // nothing left to report
		return c.JSON(http.StatusOK, echo.Map{"applied": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": true, "assignment": a})
}

// UnassignSeat handles DELETE /v1/planner/assignments/:guestId.
func (h *PlannerHandler) UnassignSeat(c echo.Context) error {
	had, err := h.Svc.Unassign(c.Request().Context(), chartID(c), c.Param("guestId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": had})
}

// SwapSeats handles POST /v1/planner/assignments/swap: an avatar dropped
// onto a chair.  The guest leaves whatever seat the server has for them;
// a displaced occupant takes that seat, or is unseated when there was none.
func (h *PlannerHandler) SwapSeats(c echo.Context) error {
	var body struct {
		GuestID string `json:"guest_id"` // guest being dropped
		ToTable string `json:"to_table"` // destination table
		ToSeat  *int   `json:"to_seat"`  // destination chair
	}
	if err := c.Bind(&body); err != nil || body.ToSeat == nil {
		return badBody(c)
	}
	changed, err := h.Svc.Swap(c.Request().Context(), chartID(c), planner.SwapInput{
		GuestID: body.GuestID,
		ToTable: body.ToTable,
		ToSeat:  *body.ToSeat,
	})
	if ok, resp := dropRace(c, err); ok {
		return resp
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": true, "changed": changed})
}

// RepairSeats handles POST /v1/planner/assignments/repair.
func (h *PlannerHandler) RepairSeats(c echo.Context) error {
	changed, err := h.Svc.Repair(c.Request().Context(), chartID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": changed})
}

// RestoreAssignments handles PUT /v1/planner/assignments.  A client that
// kept assignments offline pushes them back; valid entries win and
// collisions are repaired.
func (h *PlannerHandler) RestoreAssignments(c echo.Context) error {
	var body struct {
		Assignments []model.Assignment `json:"assignments"` // entries kept by the client
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	applied, err := h.Svc.Merge(c.Request().Context(), chartID(c), "http", body.Assignments)
	if err != nil {
		return fail(c, err)
	}
	st, err := h.Svc.State(c.Request().Context(), chartID(c)) // reply with the merged map
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": applied, "assignments": st.Assignments, "unseated": st.Unseated})
}
