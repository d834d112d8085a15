package handler // handler package contains planner session handlers

import (
	"net/http" // http defines status code constants
	"strings"  // strings trims user input
	"time"     // time parses event dates

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/planner" // planner service inputs
	"github.com/iliyamo/wedding-seating/internal/utils"   // session token helpers
)

// parseEventDate accepts a plain date ("2026-06-20") or an RFC 3339 timestamp.
func parseEventDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// CreateSession handles POST /v1/sessions.  It creates a fresh chart and
// returns a planner token bound to it together with the initial state.
func (h *PlannerHandler) CreateSession(c echo.Context) error {
	var body struct { // anonymous struct to bind JSON payload
		Name           string `json:"name"`            // optional chart name
		EventDate      string `json:"event_date"`      // optional wedding date
		SeedSweetheart *bool  `json:"seed_sweetheart"` // defaults to true
	}
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return badBody(c)
	}
	in := planner.ChartInput{Name: body.Name, SeedSweetheart: true} // sweetheart table unless told otherwise
	if body.SeedSweetheart != nil {
		in.SeedSweetheart = *body.SeedSweetheart
	}
	if body.EventDate != "" { // date is optional at this wizard step
		d, ok := parseEventDate(body.EventDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be YYYY-MM-DD"})
		}
		in.EventDate = d
	}
	st, err := h.Svc.CreateChart(c.Request().Context(), in) // persist chart and seed tables
	if err != nil {
		return fail(c, err)
	}
	tok, err := utils.NewSessionToken(h.JWTSecret, st.Chart.ID, utils.RolePlanner, h.SessionTTLMin) // planner token for the new chart
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusCreated, echo.Map{ // token plus everything needed to draw the canvas
		"token":      tok.Token,
		"expires_at": tok.Exp,
		"state":      st,
	})
}

// ShareSession handles POST /v1/planner/share and issues a read-only token
// for the caller's chart.
func (h *PlannerHandler) ShareSession(c echo.Context) error {
	id := chartID(c) // chart bound to the caller's token
	if _, err := h.Svc.GetChart(c.Request().Context(), id); err != nil { // the chart may have been deleted
		return fail(c, err)
	}
	tok, err := utils.NewSessionToken(h.JWTSecret, id, utils.RoleViewer, h.SessionTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusCreated, tok)
}

// GetState handles GET /v1/planner and returns the whole chart.
func (h *PlannerHandler) GetState(c echo.Context) error {
	st, err := h.Svc.State(c.Request().Context(), chartID(c)) // read through the session cache
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// UpdateChart handles PATCH /v1/planner and changes chart metadata.
func (h *PlannerHandler) UpdateChart(c echo.Context) error {
	var body struct {
		Name           *string `json:"name"`             // new name when present
		EventDate      *string `json:"event_date"`       // new date when present
		ClearEventDate bool    `json:"clear_event_date"` // drop the date entirely
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	p := planner.ChartPatch{Name: body.Name, ClearEventDate: body.ClearEventDate}
	if body.EventDate != nil && !body.ClearEventDate {
		d, ok := parseEventDate(*body.EventDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be YYYY-MM-DD"})
		}
		p.EventDate = d
	}
	ch, err := h.Svc.UpdateChart(c.Request().Context(), chartID(c), p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

// EndSession handles DELETE /v1/planner.  The chart, its cached state and
// the session's wizard draft and column setup are removed.
func (h *PlannerHandler) EndSession(c echo.Context) error {
	ctx := c.Request().Context()
	id := chartID(c)
	if err := h.Svc.DeleteChart(ctx, id); err != nil { // cascades to tables, guests and assignments
		return fail(c, err)
	}
	if err := h.Store.DeleteDraft(ctx, id); err != nil { // drop the wizard draft too
		return fail(c, err)
	}
	if err := h.Store.DeleteColumns(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
