package canvas

import (
	"errors"

	"github.com/iliyamo/wedding-seating/internal/geometry"
)

var (
	// ErrGestureInProgress is returned when a gesture starts while another
	// one is still active.
	ErrGestureInProgress = errors.New("another gesture is in progress")
	// ErrUnknownTable is returned when a gesture targets a table the layout
	// does not contain.
	ErrUnknownTable = errors.New("unknown table")
	// ErrInvalidHandle is returned for a resize grip that does not exist.
	ErrInvalidHandle = errors.New("invalid resize handle")
)

// Mode is the interaction the controller is currently running.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeDraggingTable
	ModeResizingTable
)

func (m Mode) String() string {
	switch m {
	case ModePanning:
		return "panning"
	case ModeDraggingTable:
		return "dragging_table"
	case ModeResizingTable:
		return "resizing_table"
	default:
		return "idle"
	}
}

// TargetKind says what a pointer-down landed on.
type TargetKind string

const (
	TargetBackground TargetKind = "background"
	TargetTable      TargetKind = "table"
	TargetHandle     TargetKind = "handle"
)

// Target is the hit-test result the client sends with a pointer-down.
type Target struct {
	Kind    TargetKind `json:"kind"`
	TableID string     `json:"table_id,omitempty"`
	Handle  Handle     `json:"handle,omitempty"`
}

// Effect reports what a controller call changed so the caller can persist
// it.  Committed is set on pointer-up once a gesture has ended.
type Effect struct {
	TransformChanged bool     `json:"transform_changed,omitempty"`
	Moved            []string `json:"moved,omitempty"`
	Resized          []string `json:"resized,omitempty"`
	Selected         string   `json:"selected,omitempty"`
	Committed        bool     `json:"committed,omitempty"`
}

// MoveHook is called after a table moves by (dx, dy) canvas units.
type MoveHook func(tableID string, dx, dy float64)

type resizeState struct {
	handle Handle
	startW float64
	startH float64
	start  geometry.Point
}

// Controller is the single owner of the canvas interaction mode:
// Idle, Panning, DraggingTable(id) or ResizingTable(id, handle).  A new
// gesture can only start from Idle.  It is not safe for concurrent use.
type Controller struct {
	vp     *Viewport
	layout *Layout

	mode     Mode
	active   string // table under drag or resize
	selected string
	last     geometry.Point // last screen point while panning
	offset   geometry.Point // pointer minus table centre while dragging
	resize   resizeState
	onMove   MoveHook
	moved    bool
}

// NewController binds a controller to a viewport and a layout.
func NewController(vp *Viewport, layout *Layout) *Controller {
	return &Controller{vp: vp, layout: layout}
}

// OnTableMoved registers a hook invoked on every table move.
func (c *Controller) OnTableMoved(h MoveHook) { c.onMove = h }

// Mode returns the active interaction.
func (c *Controller) Mode() Mode { return c.mode }

// ActiveTable is the table being dragged or resized, or "".
func (c *Controller) ActiveTable() string { return c.active }

// ActiveHandle is the grip of the running resize, or "".
func (c *Controller) ActiveHandle() Handle {
	if c.mode != ModeResizingTable {
		return ""
	}
	return c.resize.handle
}

// Selected is the last table picked by the user.
func (c *Controller) Selected() string { return c.selected }

// Select marks a table as selected without starting a gesture.  An empty
// id clears the selection.
func (c *Controller) Select(id string) error {
	if id != "" {
		if _, ok := c.layout.Table(id); !ok {
			return ErrUnknownTable
		}
	}
	c.selected = id
	return nil
}

// Viewport exposes the controlled viewport.
func (c *Controller) Viewport() *Viewport { return c.vp }

// Layout exposes the controlled layout.
func (c *Controller) Layout() *Layout { return c.layout }

// PointerDown starts a gesture.  Background hits and modifier-held hits
// pan; table hits drag; grip hits resize.
func (c *Controller) PointerDown(screen geometry.Point, target Target, modifier bool) (Effect, error) {
	if c.mode != ModeIdle {
		return Effect{}, ErrGestureInProgress
	}
	if modifier || target.Kind == TargetBackground || target.Kind == "" {
		c.mode = ModePanning
		c.last = screen
		return Effect{}, nil
	}

	t, ok := c.layout.Table(target.TableID)
	if !ok {
		return Effect{}, ErrUnknownTable
	}
	pointer := c.vp.ScreenToCanvas(screen)

	switch target.Kind {
	case TargetTable:
		c.mode = ModeDraggingTable
		c.offset = pointer.Sub(t.Center)
	case TargetHandle:
		if !target.Handle.Valid() {
			return Effect{}, ErrInvalidHandle
		}
		c.mode = ModeResizingTable
		c.resize = resizeState{handle: target.Handle, startW: t.Width, startH: t.Height, start: pointer}
	default:
		return Effect{}, ErrUnknownTable
	}
	c.active = t.ID
	c.selected = t.ID
	c.moved = false
	return Effect{Selected: t.ID}, nil
}

// PointerMove advances the running gesture.  It is a no-op while idle.
func (c *Controller) PointerMove(screen geometry.Point) Effect {
	switch c.mode {
	case ModePanning:
		d := screen.Sub(c.last)
		c.last = screen
		if d.X == 0 && d.Y == 0 {
			return Effect{}
		}
		c.vp.Pan(d.X, d.Y)
		return Effect{TransformChanged: true}

	case ModeDraggingTable:
		to := c.vp.ScreenToCanvas(screen).Sub(c.offset)
		delta, ok := c.layout.move(c.active, to)
		if !ok {
			c.reset()
			return Effect{}
		}
		c.moved = true
		if c.onMove != nil && (delta.X != 0 || delta.Y != 0) {
			c.onMove(c.active, delta.X, delta.Y)
		}
		return Effect{Moved: []string{c.active}}

	case ModeResizingTable:
		t, ok := c.layout.Table(c.active)
		if !ok {
			c.reset()
			return Effect{}
		}
		delta := c.vp.ScreenToCanvas(screen).Sub(c.resize.start)
		w, h := ResizeDimensions(c.resize.handle, c.resize.startW, c.resize.startH, t.Rotation, delta)
		c.layout.resize(c.active, w, h)
		c.moved = true
		return Effect{Resized: []string{c.active}}
	}
	return Effect{}
}

// PointerUp ends the running gesture and reports what must be committed.
func (c *Controller) PointerUp() Effect {
	var eff Effect
	switch c.mode {
	case ModePanning:
		eff = Effect{TransformChanged: true, Committed: true}
	case ModeDraggingTable:
		if c.moved {
			eff = Effect{Moved: []string{c.active}, Committed: true}
		}
	case ModeResizingTable:
		if c.moved {
			eff = Effect{Resized: []string{c.active}, Committed: true}
		}
	}
	c.reset()
	return eff
}

// Wheel zooms at the pointer.  Zooming is refused while a table is being
// dragged or resized because both gestures track canvas coordinates.
func (c *Controller) Wheel(screen geometry.Point, deltaY float64) (Effect, error) {
	if c.mode == ModeDraggingTable || c.mode == ModeResizingTable {
		return Effect{}, ErrGestureInProgress
	}
	before := c.vp.Transform()
	c.vp.Wheel(screen, deltaY)
	return Effect{TransformChanged: before != c.vp.Transform()}, nil
}

// Cancel returns to Idle without reporting a commit.
func (c *Controller) Cancel() { c.reset() }

func (c *Controller) reset() {
	c.mode = ModeIdle
	c.active = ""
	c.resize = resizeState{}
	c.offset = geometry.Point{}
	c.moved = false
}
