package planner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/repository"
)

// Frame is what a gesture stream sends back after each applied step.
type Frame struct {
	Mode      string                `json:"mode"`
	Effect    canvas.Effect         `json:"effect"`
	Transform model.CanvasTransform `json:"transform"`
	Table     *canvas.TableState    `json:"table,omitempty"`
	Ignored   string                `json:"ignored,omitempty"`
}

// Gestures is a live pointer session over one chart.  Pointer moves are
// coalesced per frame and only the latest move of a frame is applied;
// positions, sizes and the transform are committed on pointer-up.
//
// View changes made through the service while the stream is idle are
// picked up at the next pointer-down or wheel tick.  While a gesture runs
// they are refused with canvas.ErrGestureInProgress.
type Gestures struct {
	svc     *Service
	chartID string

	mu     sync.Mutex
	ctrl   *canvas.Controller
	batch  canvas.FrameBatcher
	emit   func(Frame)
	onMove canvas.MoveHook

	busy atomic.Bool                           // a gesture is running or committing
	view atomic.Pointer[model.CanvasTransform] // stored by another writer, not yet adopted
}

// OpenGestures snapshots the chart layout for a gesture stream.  The
// stream must be closed when the client goes away.
func (s *Service) OpenGestures(ctx context.Context, chartID string) (*Gestures, error) {
	g := &Gestures{svc: s, chartID: chartID}
	if err := g.Reload(ctx); err != nil {
		return nil, err
	}
	s.track(g)
	return g, nil
}

// Close detaches the stream from the service.
func (g *Gestures) Close() {
	g.svc.untrack(g)
}

func (s *Service) track(g *Gestures) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.streams[g.chartID]
	if m == nil {
		m = make(map[*Gestures]struct{})
		s.streams[g.chartID] = m
	}
	m[g] = struct{}{}
}

func (s *Service) untrack(g *Gestures) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.streams[g.chartID]
	delete(m, g)
	if len(m) == 0 {
		delete(s.streams, g.chartID)
	}
}

func (s *Service) openStreams(chartID string) []*Gestures {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Gestures, 0, len(s.streams[chartID]))
	for g := range s.streams[chartID] {
		out = append(out, g)
	}
	return out
}

// gestureActive reports whether any stream of the chart is mid gesture.
func (s *Service) gestureActive(chartID string) bool {
	for _, g := range s.openStreams(chartID) {
		if g.busy.Load() {
			return true
		}
	}
	return false
}

// broadcast hands a stored transform to every stream of the chart except
// from.  Streams apply it when they next start a gesture.
func (s *Service) broadcast(chartID string, from *Gestures, t model.CanvasTransform) {
	for _, g := range s.openStreams(chartID) {
		if g != from {
			v := t
			g.view.Store(&v)
		}
	}
}

// adopt applies a transform stored by another writer.  g.mu must be held.
func (g *Gestures) adopt() {
	if g.ctrl.Mode() != canvas.ModeIdle {
		return
	}
	if t := g.view.Swap(nil); t != nil {
		g.ctrl.Viewport().Set(*t)
	}
}

// commitTransform stores the stream's view and passes it to the other
// streams.  g.mu and the chart write lock must be held.
func (g *Gestures) commitTransform(ctx context.Context) (model.CanvasTransform, error) {
	t, err := g.svc.storeTransform(ctx, g.chartID, g.ctrl.Viewport().Transform())
	if err != nil {
		return t, err
	}
	g.view.Store(nil)
	g.svc.broadcast(g.chartID, g, t)
	return t, nil
}

// Reload refreshes the layout from the stores.  It is refused while a
// gesture runs.
func (g *Gestures) Reload(ctx context.Context) error {
	unlock := g.svc.lock(g.chartID)
	st, err := g.svc.load(ctx, g.chartID)
	unlock()
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl != nil && g.ctrl.Mode() != canvas.ModeIdle {
		return canvas.ErrGestureInProgress
	}
	g.ctrl = canvas.NewController(st.vp, st.layout())
	g.ctrl.OnTableMoved(g.onMove)
	g.busy.Store(false)
	return nil
}

// OnFrame registers the sink for frames produced by coalesced moves.
func (g *Gestures) OnFrame(fn func(Frame)) {
	g.mu.Lock()
	g.emit = fn
	g.mu.Unlock()
}

// OnTableMoved forwards to the controller's move hook.
func (g *Gestures) OnTableMoved(h canvas.MoveHook) {
	g.mu.Lock()
	g.onMove = h
	g.ctrl.OnTableMoved(h)
	g.mu.Unlock()
}

// Run applies pending moves on every frame tick until ctx is done.
func (g *Gestures) Run(ctx context.Context) {
	g.batch.Run(ctx, g.svc.cfg.FrameInterval)
}

// Dropped is the number of pointer moves superseded within a frame.
func (g *Gestures) Dropped() int { return g.batch.Dropped() }

// Mode is the current interaction.
func (g *Gestures) Mode() canvas.Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.Mode()
}

// frame must be called with g.mu held.
func (g *Gestures) frame(eff canvas.Effect) Frame {
	f := Frame{Mode: g.ctrl.Mode().String(), Effect: eff, Transform: g.ctrl.Viewport().Transform()}
	id := g.ctrl.ActiveTable()
	if id == "" {
		id = eff.Selected
	}
	if id != "" {
		if t, ok := g.ctrl.Layout().Table(id); ok {
			f.Table = &t
		}
	}
	return f
}

// Down starts a gesture.
func (g *Gestures) Down(screen geometry.Point, target canvas.Target, modifier bool) (Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Under the chart lock a view change made elsewhere is either adopted
	// here or sees this stream busy.
	defer g.svc.lock(g.chartID)()
	g.adopt()
	eff, err := g.ctrl.PointerDown(screen, target, modifier)
	g.busy.Store(g.ctrl.Mode() != canvas.ModeIdle)
	if err != nil {
		return Frame{}, err
	}
	return g.frame(eff), nil
}

// Move schedules a pointer move for the next frame.
func (g *Gestures) Move(screen geometry.Point) {
	g.batch.Schedule(func() {
		g.mu.Lock()
		eff := g.ctrl.PointerMove(screen)
		f := g.frame(eff)
		emit := g.emit
		g.mu.Unlock()
		if emit != nil && (eff.TransformChanged || len(eff.Moved) > 0 || len(eff.Resized) > 0) {
			emit(f)
		}
	})
}

// Up applies any pending move, ends the gesture and commits what it
// changed.  A table deleted mid-gesture is reported in Frame.Ignored.
func (g *Gestures) Up(ctx context.Context) (Frame, error) {
	g.batch.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()
	eff := g.ctrl.PointerUp()
	defer g.busy.Store(false)
	f := g.frame(eff)
	if !eff.Committed {
		return f, nil
	}
	if eff.TransformChanged {
		unlock := g.svc.write(ctx, g.chartID)
		t, err := g.commitTransform(ctx)
		unlock()
		if err != nil {
			return f, err
		}
		f.Transform = t
	}
	for _, id := range eff.Moved {
		pos, ok := g.ctrl.Layout().Position(id)
		if !ok {
			continue
		}
		applied, err := g.svc.CommitPositions(ctx, g.chartID, []model.TablePosition{pos})
		if err != nil {
			return f, err
		}
		if len(applied) == 0 {
			g.drop(id, &f)
		}
	}
	for _, id := range eff.Resized {
		ts, ok := g.ctrl.Layout().Table(id)
		if !ok {
			continue
		}
		if _, err := g.svc.ResizeTable(ctx, g.chartID, id, ts.Width, ts.Height); err != nil {
			if errors.Is(err, repository.ErrTableNotFound) {
				g.drop(id, &f)
				continue
			}
			return f, err
		}
	}
	return f, nil
}

// drop forgets a table that vanished while it was being edited.
func (g *Gestures) drop(id string, f *Frame) {
	logging.Log.Debug("planner: gesture target removed before commit",
		zap.String("chart", g.chartID), zap.String("table", id))
	g.ctrl.Layout().Remove(id)
	if g.ctrl.Selected() == id {
		_ = g.ctrl.Select("")
	}
	f.Table = nil
	f.Ignored = "table no longer exists"
}

// Wheel zooms at the pointer and stores the new transform.  It fails with
// canvas.ErrGestureInProgress while a table is dragged or resized.
func (g *Gestures) Wheel(ctx context.Context, screen geometry.Point, deltaY float64) (Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer g.svc.write(ctx, g.chartID)()
	g.adopt()
	eff, err := g.ctrl.Wheel(screen, deltaY)
	if err != nil {
		return Frame{}, err
	}
	f := g.frame(eff)
	if eff.TransformChanged {
		t, err := g.commitTransform(ctx)
		if err != nil {
			return f, err
		}
		f.Transform = t
	}
	return f, nil
}

// Rotate turns a table by rotate-knob steps.  Only allowed while idle.
func (g *Gestures) Rotate(ctx context.Context, tableID string, steps int) (Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl.Mode() != canvas.ModeIdle {
		return Frame{}, canvas.ErrGestureInProgress
	}
	pos, err := g.svc.RotateTableBy(ctx, g.chartID, tableID, steps)
	if err != nil {
		return Frame{}, err
	}
	g.ctrl.Layout().Rotate(tableID, pos.Rotation)
	_ = g.ctrl.Select(tableID)
	return g.frame(canvas.Effect{Selected: tableID}), nil
}

// Cancel abandons the running gesture and reloads the layout so that
// uncommitted moves are discarded.
func (g *Gestures) Cancel(ctx context.Context) (Frame, error) {
	g.batch.Flush()
	g.mu.Lock()
	g.ctrl.Cancel()
	g.busy.Store(false)
	g.mu.Unlock()
	if err := g.Reload(ctx); err != nil {
		return Frame{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame(canvas.Effect{}), nil
}
