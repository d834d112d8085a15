package handler // handler package contains guest list and group handlers

import (
	"io"       // io reads uploaded CSV bodies
	"net/http" // http defines status code constants
	"strings"  // strings inspects content types

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/importer" // csv guest import
	"github.com/iliyamo/wedding-seating/internal/model"    // guest types
	"github.com/iliyamo/wedding-seating/internal/planner"  // planner service inputs
)

// maxImportBytes bounds an uploaded guest spreadsheet.
const maxImportBytes = 2 << 20

// guestBody is the JSON shape of a guest sent by the client.
type guestBody struct {
	FullName       string            `json:"full_name"`       // required display name
	Relationship   string            `json:"relationship"`    // e.g. "Bride's cousin"
	MealPreference string            `json:"meal_preference"` // e.g. "vegetarian"
	Notes          string            `json:"notes"`           // free text
	CustomFields   map[string]string `json:"custom_fields"`   // user-defined columns
}

func (b guestBody) guest() model.Guest {
	return model.Guest{
		FullName:       b.FullName,
		Relationship:   b.Relationship,
		MealPreference: b.MealPreference,
		Notes:          b.Notes,
		CustomFields:   b.CustomFields,
	}
}

// AddGuests handles POST /v1/planner/guests with {"guests": [...]}.
func (h *PlannerHandler) AddGuests(c echo.Context) error {
	var body struct {
		Guests []guestBody `json:"guests"` // one or more guests to add
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	if len(body.Guests) == 0 { // nothing to add
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must not be empty"})
	}
	in := make([]model.Guest, 0, len(body.Guests))
	for _, g := range body.Guests {
		in = append(in, g.guest())
	}
	out, err := h.Svc.AddGuests(c.Request().Context(), chartID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"guests": out})
}

// ListGuests handles GET /v1/planner/guests.  ?unseated=true narrows the
// list to guests without a chair.
func (h *PlannerHandler) ListGuests(c echo.Context) error {
	var (
		gs  []model.Guest
		err error
	)
	if c.QueryParam("unseated") == "true" {
		gs, err = h.Svc.UnseatedGuests(c.Request().Context(), chartID(c))
	} else {
		gs, err = h.Svc.ListGuests(c.Request().Context(), chartID(c))
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"guests": gs})
}

// UpdateGuest handles PUT /v1/planner/guests/:id.
func (h *PlannerHandler) UpdateGuest(c echo.Context) error {
	var body guestBody
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	g := body.guest()
	g.ID = c.Param("id")
	out, err := h.Svc.UpdateGuest(c.Request().Context(), chartID(c), g)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteGuest handles DELETE /v1/planner/guests/:id; their seat is freed.
func (h *PlannerHandler) DeleteGuest(c echo.Context) error {
	if err := h.Svc.DeleteGuest(c.Request().Context(), chartID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImportGuests handles POST /v1/planner/guests/import.  The CSV arrives as
// the "file" field of a multipart form or as a raw text/csv body.  Headers
// are matched with the default names plus the session's column setup;
// rows with problems are reported and skipped.
func (h *PlannerHandler) ImportGuests(c echo.Context) error {
	ctx := c.Request().Context()
	var r io.Reader // source of CSV bytes
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file") // uploaded spreadsheet
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
		}
		defer f.Close()
		r = f
	} else {
		r = c.Request().Body // raw CSV body
	}

	cols, err := h.Store.LoadColumns(ctx, chartID(c)) // session column labels
	if err != nil {
		return fail(c, err)
	}
	mapping := importer.DefaultMapping()
	for _, col := range cols.Columns {
		if col.Field != "" {
			mapping = mapping.With(col.Label, col.Field)
		}
	}

	res, err := importer.ImportCSV(io.LimitReader(r, maxImportBytes), mapping)
	if err != nil {
		return fail(c, err)
	}
	if len(res.Guests) > 0 { // store only when at least one row was usable
		added, err := h.Svc.AddGuests(ctx, chartID(c), res.Guests)
		if err != nil {
			return fail(c, err)
		}
		res.Guests = added
	}
	return c.JSON(http.StatusOK, res)
}

// groupBody is the JSON shape of a guest group.
type groupBody struct {
	Name      string   `json:"name"`       // display name
	Type      string   `json:"type"`       // couple, family, extended, friends or other
	MemberIDs []string `json:"member_ids"` // guest ids
}

func (b groupBody) input() planner.GroupInput {
	return planner.GroupInput{Name: b.Name, Type: b.Type, MemberIDs: b.MemberIDs}
}

// CreateGroup handles POST /v1/planner/groups.
func (h *PlannerHandler) CreateGroup(c echo.Context) error {
	var body groupBody
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	g, err := h.Svc.CreateGroup(c.Request().Context(), chartID(c), body.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

// ListGroups handles GET /v1/planner/groups.
func (h *PlannerHandler) ListGroups(c echo.Context) error {
	gs, err := h.Svc.ListGroups(c.Request().Context(), chartID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": gs})
}

// UpdateGroup handles PUT /v1/planner/groups/:id.
func (h *PlannerHandler) UpdateGroup(c echo.Context) error {
	var body groupBody
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	g, err := h.Svc.UpdateGroup(c.Request().Context(), chartID(c), c.Param("id"), body.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

// DeleteGroup handles DELETE /v1/planner/groups/:id.
func (h *PlannerHandler) DeleteGroup(c echo.Context) error {
	if err := h.Svc.DeleteGroup(c.Request().Context(), chartID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
