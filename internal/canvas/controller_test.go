package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	tables := []model.Table{
		{ID: "t1", Shape: model.ShapeRound, Capacity: 8},
		{ID: "t2", Shape: model.ShapeLong, Capacity: 10, Rotation: 90},
	}
	positions := []model.TablePosition{
		{TableID: "t1", X: 100, Y: 100},
		{TableID: "t2", X: 400, Y: 200},
	}
	return NewController(NewViewport(DefaultViewportConfig()), NewLayout(tables, positions))
}

func TestDragKeepsPointerOffset(t *testing.T) {
	c := newTestController(t)

	eff, err := c.PointerDown(geometry.Point{X: 110, Y: 95}, Target{Kind: TargetTable, TableID: "t1"}, false)
	require.NoError(t, err)
	assert.Equal(t, "t1", eff.Selected)
	assert.Equal(t, ModeDraggingTable, c.Mode())

	var hooked []geometry.Point
	c.OnTableMoved(func(id string, dx, dy float64) {
		assert.Equal(t, "t1", id)
		hooked = append(hooked, geometry.Point{X: dx, Y: dy})
	})

	eff = c.PointerMove(geometry.Point{X: 160, Y: 135})
	assert.Equal(t, []string{"t1"}, eff.Moved)

	table, _ := c.Layout().Table("t1")
	assert.Equal(t, geometry.Point{X: 150, Y: 140}, table.Center)
	assert.Equal(t, []geometry.Point{{X: 50, Y: 40}}, hooked)

	eff = c.PointerUp()
	assert.True(t, eff.Committed)
	assert.Equal(t, []string{"t1"}, eff.Moved)
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, "t1", c.Selected())
}

func TestDragUsesCanvasCoordinates(t *testing.T) {
	c := newTestController(t)
	c.Viewport().ZoomAt(geometry.Point{}, 2) // scale 2, origin anchored

	_, err := c.PointerDown(geometry.Point{X: 200, Y: 200}, Target{Kind: TargetTable, TableID: "t1"}, false)
	require.NoError(t, err)
	c.PointerMove(geometry.Point{X: 240, Y: 200})

	table, _ := c.Layout().Table("t1")
	assert.InDelta(t, 120, table.Center.X, 1e-9)
	assert.InDelta(t, 100, table.Center.Y, 1e-9)
}

func TestGesturesAreExclusive(t *testing.T) {
	c := newTestController(t)

	_, err := c.PointerDown(geometry.Point{}, Target{Kind: TargetTable, TableID: "t1"}, false)
	require.NoError(t, err)

	_, err = c.PointerDown(geometry.Point{}, Target{Kind: TargetBackground}, false)
	assert.ErrorIs(t, err, ErrGestureInProgress)
	_, err = c.PointerDown(geometry.Point{}, Target{Kind: TargetHandle, TableID: "t2", Handle: HandleE}, false)
	assert.ErrorIs(t, err, ErrGestureInProgress)

	before := c.Viewport().Transform()
	_, err = c.Wheel(geometry.Point{X: 5, Y: 5}, -1)
	assert.ErrorIs(t, err, ErrGestureInProgress)
	assert.Equal(t, before, c.Viewport().Transform())

	c.PointerUp()
	_, err = c.PointerDown(geometry.Point{}, Target{Kind: TargetBackground}, false)
	assert.NoError(t, err)
}

func TestPanGesture(t *testing.T) {
	c := newTestController(t)

	_, err := c.PointerDown(geometry.Point{X: 10, Y: 10}, Target{Kind: TargetBackground}, false)
	require.NoError(t, err)
	assert.Equal(t, ModePanning, c.Mode())

	eff := c.PointerMove(geometry.Point{X: 30, Y: 5})
	assert.True(t, eff.TransformChanged)
	eff = c.PointerMove(geometry.Point{X: 35, Y: 0})
	assert.True(t, eff.TransformChanged)
	assert.Equal(t, model.CanvasTransform{X: 25, Y: -10, Scale: 1}, c.Viewport().Transform())

	eff = c.PointerUp()
	assert.True(t, eff.Committed)
	assert.True(t, eff.TransformChanged)

	// tables did not move
	table, _ := c.Layout().Table("t1")
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, table.Center)
}

func TestModifierPansOverTable(t *testing.T) {
	c := newTestController(t)
	_, err := c.PointerDown(geometry.Point{}, Target{Kind: TargetTable, TableID: "t1"}, true)
	require.NoError(t, err)
	assert.Equal(t, ModePanning, c.Mode())
	assert.Equal(t, "", c.ActiveTable())
}

func TestResizeGesture(t *testing.T) {
	c := newTestController(t)

	_, err := c.PointerDown(geometry.Point{X: 400, Y: 240}, Target{Kind: TargetHandle, TableID: "t2", Handle: HandleE}, false)
	require.NoError(t, err)
	assert.Equal(t, ModeResizingTable, c.Mode())
	assert.Equal(t, HandleE, c.ActiveHandle())

	// t2 is rotated 90°, so its east edge faces down the screen
	eff := c.PointerMove(geometry.Point{X: 400, Y: 300})
	assert.Equal(t, []string{"t2"}, eff.Resized)

	table, _ := c.Layout().Table("t2")
	assert.InDelta(t, 300, table.Width, 1e-9)
	assert.InDelta(t, 80, table.Height, 1e-9)

	eff = c.PointerUp()
	assert.True(t, eff.Committed)
	assert.Equal(t, []string{"t2"}, eff.Resized)
}

func TestPointerDownErrors(t *testing.T) {
	c := newTestController(t)

	_, err := c.PointerDown(geometry.Point{}, Target{Kind: TargetTable, TableID: "missing"}, false)
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = c.PointerDown(geometry.Point{}, Target{Kind: TargetHandle, TableID: "t1", Handle: "up"}, false)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestClickWithoutMoveCommitsNothing(t *testing.T) {
	c := newTestController(t)
	_, err := c.PointerDown(geometry.Point{X: 100, Y: 100}, Target{Kind: TargetTable, TableID: "t1"}, false)
	require.NoError(t, err)
	eff := c.PointerUp()
	assert.False(t, eff.Committed)
	assert.Equal(t, "t1", c.Selected())
}

func TestMoveWhileIdleIsNoop(t *testing.T) {
	c := newTestController(t)
	assert.Equal(t, Effect{}, c.PointerMove(geometry.Point{X: 9, Y: 9}))
	assert.Equal(t, Effect{}, c.PointerUp())
}
