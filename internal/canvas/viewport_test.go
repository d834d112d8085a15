package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

func TestZoomKeepsPointUnderCursor(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	vp.Pan(37, -12)

	cursors := []geometry.Point{{X: 0, Y: 0}, {X: 250, Y: 140}, {X: -80, Y: 990}}
	for _, cursor := range cursors {
		for _, dy := range []float64{-1, -1, 1, -1, 1, 1, 1} {
			before := vp.ScreenToCanvas(cursor)
			vp.Wheel(cursor, dy)
			after := vp.CanvasToScreen(before)
			assert.InDelta(t, cursor.X, after.X, 1e-9)
			assert.InDelta(t, cursor.Y, after.Y, 1e-9)
		}
	}
}

func TestZoomIsClamped(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	for i := 0; i < 500; i++ {
		vp.Wheel(geometry.Point{X: 10, Y: 10}, -1)
	}
	assert.InDelta(t, 5.0, vp.Transform().Scale, 1e-12)

	for i := 0; i < 500; i++ {
		vp.Wheel(geometry.Point{X: 10, Y: 10}, 1)
	}
	assert.InDelta(t, 0.1, vp.Transform().Scale, 1e-12)

	// clamped zoom still anchors at the cursor
	before := vp.ScreenToCanvas(geometry.Point{X: 10, Y: 10})
	vp.Wheel(geometry.Point{X: 10, Y: 10}, 1)
	after := vp.CanvasToScreen(before)
	assert.InDelta(t, 10, after.X, 1e-9)
}

func TestWheelStep(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	vp.Wheel(geometry.Point{}, -3)
	assert.InDelta(t, 1.05, vp.Transform().Scale, 1e-12)
	vp.Wheel(geometry.Point{}, 0)
	assert.InDelta(t, 1.05, vp.Transform().Scale, 1e-12)
}

func TestPanThenReset(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	vp.Pan(120, -45)
	vp.Wheel(geometry.Point{X: 3, Y: 4}, -1)
	vp.Reset()
	assert.Equal(t, model.CanvasTransform{X: 0, Y: 0, Scale: 1}, vp.Transform())
}

func TestRestoreViewport(t *testing.T) {
	cfg := DefaultViewportConfig()

	vp := RestoreViewport(cfg, []byte(`{"x":12.5,"y":-3,"scale":2}`))
	assert.Equal(t, model.CanvasTransform{X: 12.5, Y: -3, Scale: 2}, vp.Transform())

	for _, raw := range []string{"", "not json", `{"x":1,"y":2,"scale":0}`, `{"x":1,"y":2,"scale":-4}`, `{"x":1}`} {
		vp := RestoreViewport(cfg, []byte(raw))
		assert.Equal(t, model.CanvasTransform{Scale: 1}, vp.Transform(), "raw=%q", raw)
	}

	vp = RestoreViewport(cfg, []byte(`{"x":0,"y":0,"scale":40}`))
	assert.Equal(t, 5.0, vp.Transform().Scale)
}

func TestSetRefusesUnusableTransform(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	require.True(t, vp.Set(model.CanvasTransform{X: 4, Y: 5, Scale: 9}))
	assert.Equal(t, model.CanvasTransform{X: 4, Y: 5, Scale: 5}, vp.Transform())

	assert.False(t, vp.Set(model.CanvasTransform{X: math.NaN(), Scale: 1}))
	assert.False(t, vp.Set(model.CanvasTransform{Scale: 0}))
	assert.Equal(t, model.CanvasTransform{X: 4, Y: 5, Scale: 5}, vp.Transform())
}

func TestFitToBounds(t *testing.T) {
	vp := NewViewport(DefaultViewportConfig())
	box := geometry.Box{MinX: 100, MinY: 100, MaxX: 500, MaxY: 300}
	vp.FitToBounds(box, 1000, 800, 50)

	tr := vp.Transform()
	require.InDelta(t, 2.25, tr.Scale, 1e-9)
	centre := vp.CanvasToScreen(geometry.Point{X: 300, Y: 200})
	assert.InDelta(t, 500, centre.X, 1e-9)
	assert.InDelta(t, 400, centre.Y, 1e-9)

	vp.FitToBounds(geometry.EmptyBox(), 1000, 800, 50)
	assert.Equal(t, model.CanvasTransform{Scale: 1}, vp.Transform())
}

func TestSanitizedConfig(t *testing.T) {
	vp := NewViewport(ViewportConfig{DefaultScale: -1, MinScale: 0, MaxScale: -2, ZoomStep: 3})
	cfg := vp.Config()
	assert.Equal(t, DefaultViewportConfig(), cfg)
}
