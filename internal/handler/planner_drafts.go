package handler // handler package contains wizard draft and column handlers

import (
	"errors"   // errors matches the missing-key sentinel
	"net/http" // http defines status code constants

	"github.com/labstack/echo/v4" // echo framework supplies request context

	"github.com/iliyamo/wedding-seating/internal/localstore" // draft and column storage
)

// GetDraft handles GET /v1/planner/draft.  404 means the wizard starts
// from the first step.
func (h *PlannerHandler) GetDraft(c echo.Context) error {
	d, err := h.Store.LoadDraft(c.Request().Context(), chartID(c))
	if errors.Is(err, localstore.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no draft saved"})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// SaveDraft handles PUT /v1/planner/draft.
func (h *PlannerHandler) SaveDraft(c echo.Context) error {
	var body localstore.Draft
	if err := c.Bind(&body); err != nil || body.Step < 0 { // steps are zero-based
		return badBody(c)
	}
	d, err := h.Store.SaveDraft(c.Request().Context(), chartID(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteDraft handles DELETE /v1/planner/draft once the wizard completes.
func (h *PlannerHandler) DeleteDraft(c echo.Context) error {
	if err := h.Store.DeleteDraft(c.Request().Context(), chartID(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetColumns handles GET /v1/planner/columns.
func (h *PlannerHandler) GetColumns(c echo.Context) error {
	cols, err := h.Store.LoadColumns(c.Request().Context(), chartID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cols)
}

// SaveColumns handles PUT /v1/planner/columns.  Every column needs a label.
func (h *PlannerHandler) SaveColumns(c echo.Context) error {
	var body localstore.ColumnConfig
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	for _, col := range body.Columns {
		if col.Label == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "column label is required"})
		}
	}
	if err := h.Store.SaveColumns(c.Request().Context(), chartID(c), body); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, body)
}
