package handler // handler package contains canvas view and render handlers

import (
	"net/http" // http defines status code constants
	"strconv"  // strconv parses render sizes

	"github.com/labstack/echo/v4" // echo framework supplies request context
	"go.uber.org/zap"             // zap structured fields for cache warnings

	"github.com/iliyamo/wedding-seating/internal/logging" // process-wide logger
	"github.com/iliyamo/wedding-seating/internal/model"   // canvas transform
	"github.com/iliyamo/wedding-seating/internal/planner" // render options
)

// Screen size assumed when the client does not send one.
const (
	defaultScreenW = 1200.0
	defaultScreenH = 800.0
)

// screenSize is embedded by bodies that need the client's viewport size.
type screenSize struct {
	Width  float64 `json:"width"`  // screen width in pixels
	Height float64 `json:"height"` // screen height in pixels
}

func (s screenSize) orDefault() (float64, float64) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = defaultScreenW
	}
	if h <= 0 {
		h = defaultScreenH
	}
	return w, h
}

// GetTransform handles GET /v1/planner/canvas.
func (h *PlannerHandler) GetTransform(c echo.Context) error {
	t, err := h.Svc.Transform(c.Request().Context(), chartID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// SaveTransform handles PUT /v1/planner/canvas.  The scale is clamped to the
// configured zoom range.
func (h *PlannerHandler) SaveTransform(c echo.Context) error {
	var body model.CanvasTransform
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.SaveTransform(c.Request().Context(), chartID(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Pan handles POST /v1/planner/canvas/pan with a screen-space delta.
func (h *PlannerHandler) Pan(c echo.Context) error {
	var body struct {
		DX float64 `json:"dx"` // horizontal shift in pixels
		DY float64 `json:"dy"` // vertical shift in pixels
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.Pan(c.Request().Context(), chartID(c), body.DX, body.DY)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Zoom handles POST /v1/planner/canvas/zoom: the toolbar zoom buttons,
// anchored at the screen centre.
func (h *PlannerHandler) Zoom(c echo.Context) error {
	var body struct {
		Factor float64 `json:"factor"` // >1 zooms in, <1 zooms out
		screenSize
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	w, ht := body.orDefault()
	t, err := h.Svc.ZoomBy(c.Request().Context(), chartID(c), body.Factor, w, ht)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Wheel handles POST /v1/planner/canvas/wheel.  The canvas point under the
// cursor stays put.
func (h *PlannerHandler) Wheel(c echo.Context) error {
	var body struct {
		X      float64 `json:"x"`       // cursor x in screen pixels
		Y      float64 `json:"y"`       // cursor y in screen pixels
		DeltaY float64 `json:"delta_y"` // wheel delta; negative zooms in
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	t, err := h.Svc.Wheel(c.Request().Context(), chartID(c), body.X, body.Y, body.DeltaY)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// ResetView handles POST /v1/planner/canvas/reset.
func (h *PlannerHandler) ResetView(c echo.Context) error {
	t, err := h.Svc.ResetView(c.Request().Context(), chartID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// FitView handles POST /v1/planner/canvas/fit and frames every table.
func (h *PlannerHandler) FitView(c echo.Context) error {
	var body screenSize
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	w, ht := body.orDefault()
	t, err := h.Svc.FitView(c.Request().Context(), chartID(c), w, ht)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// RenderRevision keys cached renders by chart revision, so any write makes
// earlier renders unreachable.  Requests are served uncached when the
// revision cannot be read.
func (h *PlannerHandler) RenderRevision(c echo.Context) (string, bool) {
	rev, err := h.Svc.Revision(c.Request().Context(), chartID(c))
	if err != nil {
		logging.Log.Warn("render cache: revision unavailable", zap.String("chart", chartID(c)), zap.Error(err))
		return "", false
	}
	return strconv.FormatInt(rev, 10), true
}

// Render handles GET /v1/planner/render and returns the chart as SVG.
// ?width and ?height size the drawing; ?selected shows the grips of one
// table.
func (h *PlannerHandler) Render(c echo.Context) error {
	var size screenSize
	if v, err := strconv.ParseFloat(c.QueryParam("width"), 64); err == nil {
		size.Width = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("height"), 64); err == nil {
		size.Height = v
	}
	w, ht := size.orDefault()
	svg, err := h.Svc.Render(c.Request().Context(), chartID(c), planner.RenderOptions{
		Width:    w,
		Height:   ht,
		Selected: c.QueryParam("selected"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}
