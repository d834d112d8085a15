package handler // handler package contains the canvas gesture stream

import (
	"context"  // context cancels the frame loop when the socket closes
	"net/http" // http is needed by the upgrader
	"sync"     // sync guards concurrent socket writes
	"time"     // time sets write deadlines

	"github.com/gorilla/websocket" // websocket upgrades and frames the connection
	"github.com/labstack/echo/v4"  // echo framework supplies request context
	"go.uber.org/zap"              // zap structured fields

	"github.com/iliyamo/wedding-seating/internal/canvas"   // gesture targets and errors
	"github.com/iliyamo/wedding-seating/internal/geometry" // screen points
	"github.com/iliyamo/wedding-seating/internal/logging"  // process-wide logger
	"github.com/iliyamo/wedding-seating/internal/planner"  // gesture sessions
)

const (
	wsWriteWait    = 5 * time.Second
	wsMaxMessage   = 64 << 10
	wsMsgDown      = "down"
	wsMsgMove      = "move"
	wsMsgUp        = "up"
	wsMsgWheel     = "wheel"
	wsMsgRotate    = "rotate"
	wsMsgCancel    = "cancel"
	wsMsgReload    = "reload"
	wsOutFrame     = "frame"
	wsOutMoved     = "table_moved"
	wsOutError     = "error"
	wsOutConnected = "ready"
)

// upgrader accepts any origin; the session token in the query string is
// what authenticates the socket.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// gestureIn is one pointer event sent by the client.
type gestureIn struct {
	Type     string        `json:"type"`               // down, move, up, wheel, rotate, cancel or reload
	X        float64       `json:"x"`                  // screen x
	Y        float64       `json:"y"`                  // screen y
	Target   canvas.Target `json:"target"`             // hit-test result for down
	Modifier bool          `json:"modifier,omitempty"` // space/middle button forces a pan
	DeltaY   float64       `json:"delta_y,omitempty"`  // wheel delta
	TableID  string        `json:"table_id,omitempty"` // rotate target
	Steps    int           `json:"steps,omitempty"`    // rotate-knob clicks
}

// gestureOut is one message sent back to the client.
type gestureOut struct {
	Type    string         `json:"type"`
	Frame   *planner.Frame `json:"frame,omitempty"`
	TableID string         `json:"table_id,omitempty"`
	DX      float64        `json:"dx,omitempty"`
	DY      float64        `json:"dy,omitempty"`
	Dropped int            `json:"dropped,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(m gestureOut) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := w.conn.WriteJSON(m); err != nil {
		logging.Log.Debug("ws: write failed", zap.Error(err))
	}
}

// CanvasStream handles GET /v1/planner/canvas/ws.  The socket carries
// pointer events in and frames out; moves are coalesced to one per frame
// tick and positions are stored when the pointer is released.
func (h *PlannerHandler) CanvasStream(c echo.Context) error {
	id := chartID(c)
	g, err := h.Svc.OpenGestures(c.Request().Context(), id) // snapshot the layout before upgrading
	if err != nil {
		return fail(c, err)
	}
	defer g.Close()
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // the upgrader already wrote the error response
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)

	out := &wsConn{conn: conn}
	g.OnFrame(func(f planner.Frame) {
		out.send(gestureOut{Type: wsOutFrame, Frame: &f, Dropped: g.Dropped()})
	})
	g.OnTableMoved(func(tableID string, dx, dy float64) {
		out.send(gestureOut{Type: wsOutMoved, TableID: tableID, DX: dx, DY: dy})
	})

	ctx, cancel := context.WithCancel(context.Background()) // outlives the upgrade request
	defer cancel()
	go g.Run(ctx)

	logging.Log.Info("ws: gesture stream opened", zap.String("session", id))
	out.send(gestureOut{Type: wsOutConnected})

	for {
		var msg gestureIn
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Log.Warn("ws: read failed", zap.String("session", id), zap.Error(err))
			}
			break
		}
		h.dispatch(ctx, g, out, msg)
	}

	if g.Mode() != canvas.ModeIdle { // a gesture was cut off; keep the stored layout
		if _, err := g.Cancel(ctx); err != nil {
			logging.Log.Warn("ws: cancel on close failed", zap.String("session", id), zap.Error(err))
		}
	}
	logging.Log.Info("ws: gesture stream closed", zap.String("session", id), zap.Int("dropped_moves", g.Dropped()))
	return nil
}

// dispatch applies one client message.  Errors are reported on the socket
// and never close it.
func (h *PlannerHandler) dispatch(ctx context.Context, g *planner.Gestures, out *wsConn, msg gestureIn) {
	pt := geometry.Point{X: msg.X, Y: msg.Y}
	var (
		f   planner.Frame
		err error
	)
	switch msg.Type {
	case wsMsgDown:
		f, err = g.Down(pt, msg.Target, msg.Modifier)
	case wsMsgMove:
		g.Move(pt) // answered by the frame loop
		return
	case wsMsgUp:
		f, err = g.Up(ctx)
	case wsMsgWheel:
		f, err = g.Wheel(ctx, pt, msg.DeltaY)
	case wsMsgRotate:
		f, err = g.Rotate(ctx, msg.TableID, msg.Steps)
	case wsMsgCancel:
		f, err = g.Cancel(ctx)
	case wsMsgReload:
		if err = g.Reload(ctx); err == nil {
			out.send(gestureOut{Type: wsOutConnected})
			return
		}
	default:
		out.send(gestureOut{Type: wsOutError, Error: "unknown message type " + msg.Type})
		return
	}
	if err != nil {
		logging.Log.Debug("ws: gesture rejected", zap.String("type", msg.Type), zap.Error(err))
		out.send(gestureOut{Type: wsOutError, Error: err.Error()})
		return
	}
	out.send(gestureOut{Type: wsOutFrame, Frame: &f})
}
