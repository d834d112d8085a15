package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/wedding-seating/internal/geometry"
)

func TestResizeUnrotated(t *testing.T) {
	cases := []struct {
		handle Handle
		delta  geometry.Point
		w, h   float64
	}{
		{HandleE, geometry.Point{X: 30, Y: 50}, 150, 80},
		{HandleW, geometry.Point{X: 30, Y: 50}, 90, 80},
		{HandleS, geometry.Point{X: 30, Y: 50}, 120, 130},
		{HandleN, geometry.Point{X: 30, Y: -50}, 120, 130},
		{HandleSE, geometry.Point{X: 30, Y: 50}, 150, 130},
		{HandleNW, geometry.Point{X: -30, Y: -20}, 150, 100},
		{HandleNE, geometry.Point{X: 10, Y: 10}, 130, 70},
		{HandleSW, geometry.Point{X: 10, Y: 10}, 110, 90},
	}
	for _, tc := range cases {
		w, h := ResizeDimensions(tc.handle, 120, 80, 0, tc.delta)
		assert.InDelta(t, tc.w, w, 1e-9, "handle %s", tc.handle)
		assert.InDelta(t, tc.h, h, 1e-9, "handle %s", tc.handle)
	}
}

func TestResizeFollowsRotation(t *testing.T) {
	// a table turned 90° has its east edge pointing down the screen
	w, h := ResizeDimensions(HandleE, 120, 80, 90, geometry.Point{X: 0, Y: 40})
	assert.InDelta(t, 160, w, 1e-9)
	assert.InDelta(t, 80, h, 1e-9)

	// dragging sideways on screen does not widen it
	w, _ = ResizeDimensions(HandleE, 120, 80, 90, geometry.Point{X: 40, Y: 0})
	assert.InDelta(t, 120, w, 1e-9)
}

func TestResizeClampsToMinimum(t *testing.T) {
	w, h := ResizeDimensions(HandleSE, 120, 80, 0, geometry.Point{X: -500, Y: -500})
	assert.Equal(t, MinTableWidth, w)
	assert.Equal(t, MinTableHeight, h)
}

func TestHandleModes(t *testing.T) {
	for _, h := range Handles {
		assert.True(t, h.Valid())
	}
	assert.False(t, Handle("x").Valid())
	assert.Equal(t, ResizeCorner, HandleNE.Mode())
	assert.Equal(t, ResizeSide, HandleS.Mode())
	assert.Equal(t, geometry.Point{X: 60, Y: -40}, HandleNE.Anchor(120, 80))
}
