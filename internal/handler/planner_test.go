package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/database"
	"github.com/iliyamo/wedding-seating/internal/handler"
	"github.com/iliyamo/wedding-seating/internal/localstore"
	"github.com/iliyamo/wedding-seating/internal/middleware"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/planner"
	"github.com/iliyamo/wedding-seating/internal/repository"
	"github.com/iliyamo/wedding-seating/internal/router"
	"github.com/iliyamo/wedding-seating/internal/session"
)

const secret = "handler-test-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	local, err := localstore.Open(ctx, filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	svc := planner.New(planner.Deps{
		Charts:      repository.NewChartRepo(db),
		Tables:      repository.NewTableRepo(db),
		Positions:   repository.NewPositionRepo(db),
		Guests:      repository.NewGuestRepo(db),
		Groups:      repository.NewGroupRepo(db),
		Assignments: repository.NewAssignmentRepo(db),
		Cache:       session.NewMemory(config.SessionConfig{Prefix: "test"}),
		Templates:   local,
	}, planner.Config{
		Viewport:      canvas.DefaultViewportConfig(),
		RotateStep:    15,
		FitPadding:    40,
		FrameInterval: 5 * time.Millisecond,
	})

	e := echo.New()
	limit := middleware.NewTokenBucket(config.RateLimitConfig{}, nil)
	p := handler.NewPlannerHandler(svc, local, secret, 30)
	cache := middleware.NewRedisCache(config.CacheConfig{}, nil, p.RenderRevision)
	router.RegisterRoutes(e, db, nil)
	router.RegisterSessions(e, p, limit)
	router.RegisterPlanner(e, p, secret, limit, cache)
	router.RegisterTemplates(e, p, secret, limit)
	return e
}

// call sends a JSON request and returns the recorder.
func call(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionResp struct {
	Token string        `json:"token"`
	State planner.State `json:"state"`
}

func openSession(t *testing.T, e *echo.Echo) sessionResp {
	t.Helper()
	rec := call(t, e, http.MethodPost, "/v1/sessions", "", map[string]any{"name": "Ana & Ben", "event_date": "2026-06-20"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResp](t, rec)
}

type tableResp struct {
	Table    model.Table         `json:"table"`
	Position model.TablePosition `json:"position"`
}

func addTable(t *testing.T, e *echo.Echo, token string, body map[string]any) tableResp {
	t.Helper()
	rec := call(t, e, http.MethodPost, "/v1/planner/tables", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[tableResp](t, rec)
}

func addGuests(t *testing.T, e *echo.Echo, token string, names ...string) []model.Guest {
	t.Helper()
	gs := make([]map[string]any, 0, len(names))
	for _, n := range names {
		gs = append(gs, map[string]any{"full_name": n})
	}
	rec := call(t, e, http.MethodPost, "/v1/planner/guests", token, map[string]any{"guests": gs})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		Guests []model.Guest `json:"guests"`
	}](t, rec).Guests
}

func TestHealthz(t *testing.T) {
	e := newServer(t)
	rec := call(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = call(t, e, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mysql":"up","redis":"disabled"}`, rec.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)
	require.NotEmpty(t, s.Token)
	assert.Equal(t, "Ana & Ben", s.State.Chart.Name)
	require.Len(t, s.State.Tables, 1)
	assert.Equal(t, model.ShapeSweetheart, s.State.Tables[0].Shape)

	rec := call(t, e, http.MethodGet, "/v1/planner", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, e, http.MethodGet, "/v1/planner", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.State.Chart.ID, decode[planner.State](t, rec).Chart.ID)

	rec = call(t, e, http.MethodPatch, "/v1/planner", s.Token, map[string]any{"name": "Ana & Ben 2026"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana & Ben 2026", decode[model.Chart](t, rec).Name)

	rec = call(t, e, http.MethodDelete, "/v1/planner", s.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, e, http.MethodGet, "/v1/planner", s.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewerTokenIsReadOnly(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)

	rec := call(t, e, http.MethodPost, "/v1/planner/share", s.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	viewer := decode[struct {
		Token string `json:"token"`
	}](t, rec).Token

	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/v1/planner", viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/planner/tables", viewer, map[string]any{}).Code)
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/planner/share", viewer, nil).Code)
}

func TestAssignSwapAndDropRaces(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)
	tb := addTable(t, e, s.Token, map[string]any{"name": "Family", "shape": "round", "capacity": 2})
	gs := addGuests(t, e, s.Token, "Cleo", "Dan", "Eve")

	assign := func(guest string, seat int) *httptest.ResponseRecorder {
		return call(t, e, http.MethodPut, "/v1/planner/assignments/"+guest, s.Token,
			map[string]any{"table_id": tb.Table.ID, "seat_index": seat})
	}
	require.Equal(t, http.StatusOK, assign(gs[0].ID, 0).Code)

	rec := assign(gs[1].ID, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Assignment model.Assignment `json:"assignment"`
	}](t, rec)
	assert.Equal(t, 1, got.Assignment.SeatIndex, "occupied seat moves the guest forward")

	rec = assign(gs[2].ID, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no free seat")

	rec = call(t, e, http.MethodPost, "/v1/planner/assignments/swap", s.Token, map[string]any{
		"guest_id": gs[0].ID, "to_table": tb.Table.ID, "to_seat": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodGet, "/v1/planner", s.Token, nil)
	st := decode[planner.State](t, rec)
	seats := map[string]int{}
	for _, a := range st.Assignments {
		seats[a.GuestID] = a.SeatIndex
	}
	assert.Equal(t, map[string]int{gs[0].ID: 1, gs[1].ID: 0}, seats)
	assert.Equal(t, []string{gs[2].ID}, st.Unseated)

	// a seat index the table no longer has is a stale drop, not a bad request
	rec = assign(gs[2].ID, 5)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":false,"reason":"seat no longer exists"}`, rec.Body.String())
	rec = call(t, e, http.MethodPost, "/v1/planner/assignments/swap", s.Token, map[string]any{
		"guest_id": gs[0].ID, "to_table": tb.Table.ID, "to_seat": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":false,"reason":"seat no longer exists"}`, rec.Body.String())

	rec = call(t, e, http.MethodDelete, "/v1/planner/tables/"+tb.Table.ID, s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{gs[0].ID, gs[1].ID}, decode[struct {
		Unseated []string `json:"unseated"`
	}](t, rec).Unseated)

	// a drop onto the table deleted meanwhile is ignored, not failed
	rec = assign(gs[0].ID, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":false,"reason":"table no longer exists"}`, rec.Body.String())

	rec = call(t, e, http.MethodPut, "/v1/planner/tables/"+tb.Table.ID+"/position", s.Token, map[string]any{"x": 10, "y": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
}

func TestTableEndpoints(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)
	tb := addTable(t, e, s.Token, map[string]any{"shape": "long", "capacity": 6, "x": 100, "y": 50})
	assert.Equal(t, "Table 2", tb.Table.Name)
	assert.Equal(t, model.TablePosition{TableID: tb.Table.ID, X: 100, Y: 50}, tb.Position)

	rec := call(t, e, http.MethodPost, "/v1/planner/tables", s.Token, map[string]any{"capacity": 41})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, e, http.MethodPut, "/v1/planner/tables/"+tb.Table.ID+"/rotation", s.Token, map[string]any{"steps": -1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 345, decode[model.TablePosition](t, rec).Rotation, 1e-9)

	rec = call(t, e, http.MethodPut, "/v1/planner/tables/"+tb.Table.ID+"/dimensions", s.Token, map[string]any{"width": 10, "height": 90})
	require.Equal(t, http.StatusOK, rec.Code)
	resized := decode[struct {
		Table model.Table `json:"table"`
	}](t, rec).Table
	require.NotNil(t, resized.Width)
	assert.Equal(t, canvas.MinTableWidth, *resized.Width)

	rec = call(t, e, http.MethodGet, "/v1/planner/tables/"+tb.Table.ID+"/seats", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Seats []map[string]float64 `json:"seats"`
	}](t, rec).Seats, 6)

	rec = call(t, e, http.MethodPatch, "/v1/planner/tables/"+tb.Table.ID, s.Token, map[string]any{"name": "Head Table", "capacity": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Head Table", decode[model.Table](t, rec).Name)

	rec = call(t, e, http.MethodPatch, "/v1/planner/tables/missing", s.Token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCanvasEndpoints(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)

	rec := call(t, e, http.MethodPost, "/v1/planner/canvas/pan", s.Token, map[string]any{"dx": 30, "dy": -10})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, e, http.MethodGet, "/v1/planner/canvas", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.CanvasTransform{X: 30, Y: -10, Scale: 1}, decode[model.CanvasTransform](t, rec))

	rec = call(t, e, http.MethodPost, "/v1/planner/canvas/zoom", s.Token, map[string]any{"factor": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, e, http.MethodPut, "/v1/planner/canvas", s.Token, map[string]any{"x": 0, "y": 0, "scale": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, canvas.DefaultViewportConfig().MaxScale, decode[model.CanvasTransform](t, rec).Scale)

	rec = call(t, e, http.MethodPost, "/v1/planner/canvas/reset", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.CanvasTransform{Scale: canvas.DefaultViewportConfig().DefaultScale}, decode[model.CanvasTransform](t, rec))

	rec = call(t, e, http.MethodGet, "/v1/planner/render?width=640&height=480", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = call(t, e, http.MethodGet, "/v1/planner/render?selected=nope", s.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportGuestsUsesColumnSetup(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)

	rec := call(t, e, http.MethodPut, "/v1/planner/columns", s.Token, map[string]any{"columns": []map[string]any{
		{"label": "Name", "field": "full_name", "visible": true},
		{"label": "Dietary", "field": "meal_preference", "visible": true},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/v1/planner/guests/import",
		strings.NewReader("Name,Dietary,Table Wish\nAna,vegan,near dance floor\n,fish,\nBen,,\n"))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Guests        []model.Guest `json:"guests"`
		Errors        []any         `json:"errors"`
		TotalRows     int           `json:"total_rows"`
		ProcessedRows int           `json:"processed_rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 2, res.ProcessedRows)
	assert.Len(t, res.Errors, 1)
	require.Len(t, res.Guests, 2)
	assert.NotEmpty(t, res.Guests[0].ID)
	assert.Equal(t, "vegan", res.Guests[0].MealPreference)
	assert.Equal(t, "near dance floor", res.Guests[0].CustomFields["Table Wish"])

	rec = call(t, e, http.MethodGet, "/v1/planner/guests?unseated=true", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Guests []model.Guest `json:"guests"`
	}](t, rec).Guests, 2)
}

func TestDraftEndpoints(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)

	assert.Equal(t, http.StatusNotFound, call(t, e, http.MethodGet, "/v1/planner/draft", s.Token, nil).Code)

	rec := call(t, e, http.MethodPut, "/v1/planner/draft", s.Token, map[string]any{"step": 2, "data": map[string]any{"venue": "Barn"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, e, http.MethodGet, "/v1/planner/draft", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[localstore.Draft](t, rec)
	assert.Equal(t, 2, d.Step)
	assert.JSONEq(t, `{"venue":"Barn"}`, string(d.Data))

	rec = call(t, e, http.MethodGet, "/v1/planner/columns", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, localstore.DefaultColumns(), decode[localstore.ColumnConfig](t, rec))
}

func TestTemplateEndpoints(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)
	addTable(t, e, s.Token, map[string]any{"name": "Round 1", "capacity": 8})

	rec := call(t, e, http.MethodPost, "/v1/planner/templates", s.Token, map[string]any{"name": "Barn layout"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tpl := decode[model.Template](t, rec)
	assert.Len(t, tpl.Tables, 2)

	rec = call(t, e, http.MethodPost, "/v1/templates/"+tpl.ID+"/clone", s.Token, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Barn layout (copy)", decode[model.Template](t, rec).Name)

	rec = call(t, e, http.MethodGet, "/v1/templates", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Templates []model.Template `json:"templates"`
	}](t, rec).Templates, 2)

	rec = call(t, e, http.MethodPost, "/v1/templates", s.Token, map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := openSession(t, e)
	rec = call(t, e, http.MethodPost, "/v1/planner/templates/"+tpl.ID+"/apply", other.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[planner.State](t, rec).Tables, 2)

	rec = call(t, e, http.MethodDelete, "/v1/templates/"+tpl.ID, s.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, e, http.MethodGet, "/v1/templates/"+tpl.ID, s.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type wsMessage struct {
	Type    string         `json:"type"`
	Frame   *planner.Frame `json:"frame"`
	TableID string         `json:"table_id"`
	Error   string         `json:"error"`
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var m wsMessage
		require.NoError(t, conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func TestCanvasStreamDragCommitsOnRelease(t *testing.T) {
	e := newServer(t)
	s := openSession(t, e)
	tb := addTable(t, e, s.Token, map[string]any{"capacity": 8, "x": 400, "y": 300})

	srv := httptest.NewServer(e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/planner/canvas/ws?token=" + s.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ready" })

	send := func(v map[string]any) { require.NoError(t, conn.WriteJSON(v)) }
	send(map[string]any{"type": "down", "x": 410, "y": 300, "target": map[string]any{"kind": "table", "table_id": tb.Table.ID}})
	down := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "frame" })
	assert.Equal(t, "dragging_table", down.Frame.Mode)

	send(map[string]any{"type": "wheel", "x": 0, "y": 0, "delta_y": -100})
	refused := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Contains(t, refused.Error, "in progress")

	send(map[string]any{"type": "move", "x": 510, "y": 400})
	moved := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "table_moved" })
	assert.Equal(t, tb.Table.ID, moved.TableID)

	send(map[string]any{"type": "up"})
	up := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "frame" && m.Frame.Effect.Committed })
	assert.Equal(t, "idle", up.Frame.Mode)
	assert.Empty(t, up.Frame.Ignored)

	rec := call(t, e, http.MethodGet, "/v1/planner", s.Token, nil)
	st := decode[planner.State](t, rec)
	for _, p := range st.Positions {
		if p.TableID == tb.Table.ID {
			assert.Equal(t, 500.0, p.X)
			assert.Equal(t, 400.0, p.Y)
			return
		}
	}
	t.Fatal("moved table has no position")
}
