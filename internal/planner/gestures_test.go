package planner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

func (f *fixture) placed(t *testing.T, chartID string, x, y float64) model.Table {
	t.Helper()
	tb, _, err := f.svc.AddTable(f.ctx, chartID, TableInput{Shape: "round", Capacity: 8, X: &x, Y: &y})
	require.NoError(t, err)
	return *tb
}

func storedPosition(t *testing.T, f *fixture, chartID, tableID string) model.TablePosition {
	t.Helper()
	ps, err := f.deps.Positions.ListByChart(f.ctx, chartID)
	require.NoError(t, err)
	for _, p := range ps {
		if p.TableID == tableID {
			return p
		}
	}
	t.Fatalf("no position for %s", tableID)
	return model.TablePosition{}
}

func TestGestureDragCoalescesMovesAndCommits(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 200, 100)

	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)
	var (
		mu     sync.Mutex
		frames []Frame
	)
	g.OnFrame(func(fr Frame) {
		mu.Lock()
		frames = append(frames, fr)
		mu.Unlock()
	})
	var hooked int
	g.OnTableMoved(func(string, float64, float64) { hooked++ })

	fr, err := g.Down(geometry.Point{X: 210, Y: 100}, canvas.Target{Kind: canvas.TargetTable, TableID: tb.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, "dragging_table", fr.Mode)
	assert.Equal(t, tb.ID, fr.Effect.Selected)

	g.Move(geometry.Point{X: 260, Y: 150})
	g.Move(geometry.Point{X: 270, Y: 160})
	g.Move(geometry.Point{X: 310, Y: 200})
	assert.Equal(t, 2, g.Dropped())

	fr, err = g.Up(f.ctx)
	require.NoError(t, err)
	assert.True(t, fr.Effect.Committed)
	assert.Equal(t, []string{tb.ID}, fr.Effect.Moved)
	assert.Equal(t, "idle", fr.Mode)
	assert.Equal(t, 1, hooked)

	mu.Lock()
	assert.Len(t, frames, 1)
	mu.Unlock()

	p := storedPosition(t, f, id, tb.ID)
	assert.Equal(t, 300.0, p.X)
	assert.Equal(t, 200.0, p.Y)
}

func TestGesturePanStoresTransform(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)

	_, err = g.Down(geometry.Point{X: 0, Y: 0}, canvas.Target{Kind: canvas.TargetBackground}, false)
	require.NoError(t, err)
	assert.Equal(t, canvas.ModePanning, g.Mode())
	g.Move(geometry.Point{X: 50, Y: 20})
	fr, err := g.Up(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CanvasTransform{X: 50, Y: 20, Scale: 1}, fr.Transform)

	tr, err := f.svc.Transform(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fr.Transform, tr)
}

func TestGestureWheelRefusedWhileDragging(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 0, 0)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)

	_, err = g.Down(geometry.Point{}, canvas.Target{Kind: canvas.TargetTable, TableID: tb.ID}, false)
	require.NoError(t, err)
	_, err = g.Wheel(f.ctx, geometry.Point{}, -1)
	assert.ErrorIs(t, err, canvas.ErrGestureInProgress)
	_, err = g.Down(geometry.Point{}, canvas.Target{Kind: canvas.TargetBackground}, false)
	assert.ErrorIs(t, err, canvas.ErrGestureInProgress)

	_, err = g.Up(f.ctx)
	require.NoError(t, err)
	fr, err := g.Wheel(f.ctx, geometry.Point{}, -1)
	require.NoError(t, err)
	assert.InDelta(t, 1.05, fr.Transform.Scale, 1e-9)
}

func TestGestureResizeCommitsDimensions(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 0, 0)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)

	_, err = g.Down(geometry.Point{X: 60, Y: 0}, canvas.Target{Kind: canvas.TargetHandle, TableID: tb.ID, Handle: canvas.HandleE}, false)
	require.NoError(t, err)
	g.Move(geometry.Point{X: 100, Y: 0})
	fr, err := g.Up(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{tb.ID}, fr.Effect.Resized)

	st, err := f.svc.State(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, st.Tables[0].Width)
	assert.Equal(t, 160.0, *st.Tables[0].Width)
	assert.Equal(t, 120.0, *st.Tables[0].Height)
}

func TestGestureCommitIgnoresDeletedTable(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 0, 0)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)

	_, err = g.Down(geometry.Point{}, canvas.Target{Kind: canvas.TargetTable, TableID: tb.ID}, false)
	require.NoError(t, err)
	g.Move(geometry.Point{X: 30, Y: 30})
	_, err = f.svc.DeleteTable(f.ctx, id, tb.ID)
	require.NoError(t, err)

	fr, err := g.Up(f.ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, fr.Ignored)
	assert.Nil(t, fr.Table)
}

func TestGestureRotateAndCancel(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 40, 40)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)

	fr, err := g.Rotate(f.ctx, tb.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, fr.Table)
	assert.Equal(t, 15.0, fr.Table.Rotation)

	_, err = g.Down(geometry.Point{X: 40, Y: 40}, canvas.Target{Kind: canvas.TargetTable, TableID: tb.ID}, false)
	require.NoError(t, err)
	_, err = g.Rotate(f.ctx, tb.ID, 1)
	assert.ErrorIs(t, err, canvas.ErrGestureInProgress)
	g.Move(geometry.Point{X: 400, Y: 400})

	_, err = g.Cancel(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, canvas.ModeIdle, g.Mode())
	p := storedPosition(t, f, id, tb.ID)
	assert.Equal(t, 40.0, p.X)
	assert.Equal(t, 15.0, p.Rotation)
}

func TestViewChangesWaitForRunningGesture(t *testing.T) {
	f := newFixture(t)
	id := f.chart(t)
	tb := f.placed(t, id, 0, 0)
	g, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	other, err := f.svc.OpenGestures(f.ctx, id)
	require.NoError(t, err)
	t.Cleanup(other.Close)

	_, err = g.Down(geometry.Point{}, canvas.Target{Kind: canvas.TargetTable, TableID: tb.ID}, false)
	require.NoError(t, err)
	_, err = f.svc.Pan(f.ctx, id, 30, 0)
	assert.ErrorIs(t, err, canvas.ErrGestureInProgress)
	_, err = f.svc.FitView(f.ctx, id, 800, 600)
	assert.ErrorIs(t, err, canvas.ErrGestureInProgress)

	_, err = g.Up(f.ctx)
	require.NoError(t, err)
	tr, err := f.svc.Pan(f.ctx, id, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, model.CanvasTransform{X: 30, Scale: 1}, tr)

	// The open stream starts its next pan from the stored view.
	fr, err := g.Down(geometry.Point{X: 500, Y: 500}, canvas.Target{Kind: canvas.TargetBackground}, false)
	require.NoError(t, err)
	assert.Equal(t, tr, fr.Transform)
	g.Move(geometry.Point{X: 510, Y: 500})
	fr, err = g.Up(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CanvasTransform{X: 40, Scale: 1}, fr.Transform)

	fr, err = other.Down(geometry.Point{X: 5, Y: 5}, canvas.Target{Kind: canvas.TargetBackground}, false)
	require.NoError(t, err)
	assert.Equal(t, model.CanvasTransform{X: 40, Scale: 1}, fr.Transform)

	// A closed stream no longer holds the view.
	other.Close()
	_, err = f.svc.ResetView(f.ctx, id)
	require.NoError(t, err)
}
