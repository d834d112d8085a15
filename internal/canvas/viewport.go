// Package canvas holds the interactive state of the seating canvas: the
// pan/zoom viewport, the table layout being edited and the gesture
// controller that decides which pointer interaction is active.
package canvas

import (
	"encoding/json"
	"math"

	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

// ViewportConfig bounds the zoom behaviour of a Viewport.
type ViewportConfig struct {
	DefaultScale float64
	MinScale     float64
	MaxScale     float64
	ZoomStep     float64 // fractional scale change per wheel tick
}

// DefaultViewportConfig returns the stock zoom range of [0.1, 5] with 5%
// wheel steps.
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{DefaultScale: 1, MinScale: 0.1, MaxScale: 5, ZoomStep: 0.05}
}

func (c ViewportConfig) sanitized() ViewportConfig {
	def := DefaultViewportConfig()
	if !(c.MinScale > 0) {
		c.MinScale = def.MinScale
	}
	if !(c.MaxScale >= c.MinScale) {
		c.MaxScale = math.Max(def.MaxScale, c.MinScale)
	}
	if !(c.DefaultScale > 0) {
		c.DefaultScale = def.DefaultScale
	}
	c.DefaultScale = math.Min(math.Max(c.DefaultScale, c.MinScale), c.MaxScale)
	if !(c.ZoomStep > 0 && c.ZoomStep < 1) {
		c.ZoomStep = def.ZoomStep
	}
	return c
}

// Viewport is the affine canvas→screen mapping screen = canvas*scale + t.
type Viewport struct {
	cfg ViewportConfig
	t   model.CanvasTransform
}

// NewViewport returns a viewport at the origin with the default scale.
func NewViewport(cfg ViewportConfig) *Viewport {
	cfg = cfg.sanitized()
	return &Viewport{cfg: cfg, t: model.CanvasTransform{Scale: cfg.DefaultScale}}
}

// RestoreViewport rebuilds a viewport from a persisted transform.  Absent
// or malformed data, including a non-positive or non-finite scale, yields
// the default view.
func RestoreViewport(cfg ViewportConfig, raw []byte) *Viewport {
	v := NewViewport(cfg)
	if len(raw) == 0 {
		return v
	}
	var t model.CanvasTransform
	if err := json.Unmarshal(raw, &t); err != nil {
		return v
	}
	v.Set(t)
	return v
}

// Set replaces the transform, clamping its scale.  A non-finite transform
// or a non-positive scale is refused and the view is left unchanged.
func (v *Viewport) Set(t model.CanvasTransform) bool {
	if !finite(t.X) || !finite(t.Y) || !finite(t.Scale) || t.Scale <= 0 {
		return false
	}
	t.Scale = v.clamp(t.Scale)
	v.t = t
	return true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Transform returns the current transform.
func (v *Viewport) Transform() model.CanvasTransform { return v.t }

// Config returns the zoom limits in effect.
func (v *Viewport) Config() ViewportConfig { return v.cfg }

// MarshalJSON encodes the current transform.
func (v *Viewport) MarshalJSON() ([]byte, error) { return json.Marshal(v.t) }

// ScreenToCanvas maps a screen pixel to canvas coordinates.
func (v *Viewport) ScreenToCanvas(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - v.t.X) / v.t.Scale, Y: (p.Y - v.t.Y) / v.t.Scale}
}

// CanvasToScreen maps a canvas point to screen pixels.
func (v *Viewport) CanvasToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*v.t.Scale + v.t.X, Y: p.Y*v.t.Scale + v.t.Y}
}

// Pan shifts the translation by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	v.t.X += dx
	v.t.Y += dy
}

// ZoomAt multiplies the scale by factor, clamped to the configured range,
// keeping the canvas point under screen position p fixed on screen.
func (v *Viewport) ZoomAt(p geometry.Point, factor float64) {
	if !(factor > 0) || !finite(factor) {
		return
	}
	anchor := v.ScreenToCanvas(p)
	v.t.Scale = v.clamp(v.t.Scale * factor)
	v.t.X = p.X - anchor.X*v.t.Scale
	v.t.Y = p.Y - anchor.Y*v.t.Scale
}

// Wheel applies one wheel tick at p.  Negative deltaY (wheel away from the
// user) zooms in, positive zooms out, zero is ignored.
func (v *Viewport) Wheel(p geometry.Point, deltaY float64) {
	switch {
	case deltaY < 0:
		v.ZoomAt(p, 1+v.cfg.ZoomStep)
	case deltaY > 0:
		v.ZoomAt(p, 1-v.cfg.ZoomStep)
	}
}

// ZoomBy zooms about the centre of a screen area of the given size, as the
// toolbar zoom buttons do.
func (v *Viewport) ZoomBy(factor, screenW, screenH float64) {
	v.ZoomAt(geometry.Point{X: screenW / 2, Y: screenH / 2}, factor)
}

// Reset restores {0, 0, defaultScale}.
func (v *Viewport) Reset() {
	v.t = model.CanvasTransform{Scale: v.cfg.DefaultScale}
}

// FitToBounds scales and centres the view so that b fills a screen area of
// screenW x screenH minus padding on every side.
func (v *Viewport) FitToBounds(b geometry.Box, screenW, screenH, padding float64) {
	if b.Empty() || screenW <= 2*padding || screenH <= 2*padding {
		v.Reset()
		return
	}
	bw, bh := math.Max(b.Width(), 1), math.Max(b.Height(), 1)
	scale := v.clamp(math.Min((screenW-2*padding)/bw, (screenH-2*padding)/bh))
	cx, cy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	v.t = model.CanvasTransform{
		X:     screenW/2 - cx*scale,
		Y:     screenH/2 - cy*scale,
		Scale: scale,
	}
}

func (v *Viewport) clamp(s float64) float64 {
	return math.Min(math.Max(s, v.cfg.MinScale), v.cfg.MaxScale)
}
