package handler // handler package contains layout template handlers

import (
	"net/http" // http defines status code constants
	"strings"  // strings trims names

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/model" // template types
)

// templateBody is the JSON shape of a template sent by the client.
type templateBody struct {
	Name        string                `json:"name"`        // required on create
	Description string                `json:"description"` // optional free text
	Tables      []model.TemplateTable `json:"tables"`      // table geometry; nil keeps the old layout on update
}

func (b templateBody) template() model.Template {
	return model.Template{Name: b.Name, Description: b.Description, Tables: b.Tables}
}

// ListTemplates handles GET /v1/templates.
func (h *PlannerHandler) ListTemplates(c echo.Context) error {
	ts, err := h.Store.ListTemplates(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": ts})
}

// GetTemplate handles GET /v1/templates/:id.
func (h *PlannerHandler) GetTemplate(c echo.Context) error {
	t, err := h.Store.GetTemplate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// CreateTemplate handles POST /v1/templates.
func (h *PlannerHandler) CreateTemplate(c echo.Context) error {
	var body templateBody
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Store.CreateTemplate(c.Request().Context(), body.template())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTemplate handles PUT /v1/templates/:id.
func (h *PlannerHandler) UpdateTemplate(c echo.Context) error {
	var body templateBody
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Store.UpdateTemplate(c.Request().Context(), c.Param("id"), body.template())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTemplate handles DELETE /v1/templates/:id.
func (h *PlannerHandler) DeleteTemplate(c echo.Context) error {
	if err := h.Store.DeleteTemplate(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CloneTemplate handles POST /v1/templates/:id/clone.  Without a name the
// copy is called "<original> (copy)".
func (h *PlannerHandler) CloneTemplate(c echo.Context) error {
	var body struct {
		Name string `json:"name"` // name of the copy
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	ctx := c.Request().Context()
	name := strings.TrimSpace(body.Name)
	if name == "" { // derive a name from the source
		src, err := h.Store.GetTemplate(ctx, c.Param("id"))
		if err != nil {
			return fail(c, err)
		}
		name = src.Name + " (copy)"
	}
	t, err := h.Store.CloneTemplate(ctx, c.Param("id"), name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// SaveAsTemplate handles POST /v1/planner/templates and stores the
// session's current table layout as a template.
func (h *PlannerHandler) SaveAsTemplate(c echo.Context) error {
	var body struct {
		Name        string `json:"name"`        // template name
		Description string `json:"description"` // optional free text
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.SaveAsTemplate(c.Request().Context(), chartID(c), body.Name, body.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// ApplyTemplate handles POST /v1/planner/templates/:id/apply.  The chart's
// tables are replaced and every guest becomes unseated.
func (h *PlannerHandler) ApplyTemplate(c echo.Context) error {
	st, err := h.Svc.ApplyTemplate(c.Request().Context(), chartID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
