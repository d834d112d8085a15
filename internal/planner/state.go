package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/render"
	"github.com/iliyamo/wedding-seating/internal/seating"
	"github.com/iliyamo/wedding-seating/internal/session"
)

// State is the full picture of a chart as a client needs it to draw the
// canvas and the guest sidebar.
type State struct {
	Chart       model.Chart           `json:"chart"`
	Tables      []model.Table         `json:"tables"`
	Positions   []model.TablePosition `json:"positions"`
	Guests      []model.Guest         `json:"guests"`
	Groups      []model.GuestGroup    `json:"groups"`
	Assignments []model.Assignment    `json:"assignments"`
	Unseated    []string              `json:"unseated"`
	Transform   model.CanvasTransform `json:"transform"`
}

// chartState is a loaded chart.  It lives for one operation only; the
// stores are the source of truth between operations.
type chartState struct {
	chart     model.Chart
	tables    []model.Table
	positions []model.TablePosition
	guests    []model.Guest
	groups    []model.GuestGroup
	dir       *seating.StaticDirectory
	seats     *seating.Map
	vp        *canvas.Viewport
}

func (st *chartState) tableIndex(id string) int {
	for i := range st.tables {
		if st.tables[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *chartState) positionIndex(id string) int {
	for i := range st.positions {
		if st.positions[i].TableID == id {
			return i
		}
	}
	return -1
}

func (st *chartState) snapshot() *State {
	unseated := st.seats.Unseated(st.guests)
	ids := make([]string, 0, len(unseated))
	for _, g := range unseated {
		ids = append(ids, g.ID)
	}
	return &State{
		Chart:       st.chart,
		Tables:      nonNil(st.tables),
		Positions:   nonNil(st.positions),
		Guests:      nonNil(st.guests),
		Groups:      nonNil(st.groups),
		Assignments: nonNil(st.seats.Snapshot()),
		Unseated:    ids,
		Transform:   st.vp.Transform(),
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func (st *chartState) layout() *canvas.Layout {
	return canvas.NewLayout(st.tables, st.positions)
}

// load reads a chart.  Positions and assignments come from the session
// cache when present there and from MySQL otherwise, in which case the
// cache is refilled.  Assignments are repaired on the way in so stale or
// colliding entries never reach a caller.
func (s *Service) load(ctx context.Context, chartID string) (*chartState, error) {
	chart, err := s.d.Charts.GetByID(ctx, chartID)
	if err != nil {
		return nil, err
	}
	st := &chartState{chart: *chart}

	tables, err := s.d.Tables.ListByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	dims := s.cachedDimensions(ctx, chartID)
	for _, t := range tables {
		if d, ok := dims[t.ID]; ok {
			w, h := d.Width, d.Height
			t.Width, t.Height = &w, &h
		}
		st.tables = append(st.tables, *t)
	}

	if st.positions, err = s.loadPositions(ctx, chartID, st.tables); err != nil {
		return nil, err
	}

	guests, err := s.d.Guests.ListByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	for _, g := range guests {
		st.guests = append(st.guests, *g)
	}

	groups, err := s.d.Groups.ListByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	for _, g := range groups {
		g.Color = render.GroupColor(g.ID)
		st.groups = append(st.groups, *g)
	}

	raw, err := s.d.Cache.LoadTransform(ctx, chartID)
	if err != nil {
		logging.Log.Debug("planner: transform not restored", zap.String("chart", chartID), zap.Error(err))
		raw = nil
	}
	st.vp = canvas.RestoreViewport(s.cfg.Viewport, raw)

	entries, err := s.loadAssignments(ctx, chartID)
	if err != nil {
		return nil, err
	}
	st.dir = seating.NewStaticDirectory(st.guests, st.tables)
	st.seats = seating.NewMap(st.dir)
	st.seats.Load(entries)
	if changed := st.seats.Repair(); len(changed) > 0 {
		logging.Log.Info("planner: repaired assignments on load",
			zap.String("chart", chartID), zap.Strings("guests", changed))
		if err := s.saveAssignments(ctx, st, "repair", changed); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Service) cachedDimensions(ctx context.Context, chartID string) map[string]model.TableDimensions {
	dims, ok, err := s.d.Cache.LoadDimensions(ctx, chartID)
	if err != nil {
		logging.Log.Debug("planner: dimensions cache read failed", zap.String("chart", chartID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return dims
}

// loadPositions returns exactly one position per table in table order.  A
// cached list that misses a table is treated as a cache miss.
func (s *Service) loadPositions(ctx context.Context, chartID string, tables []model.Table) ([]model.TablePosition, error) {
	cached, ok, err := s.d.Cache.LoadPositions(ctx, chartID)
	if err != nil {
		logging.Log.Debug("planner: positions cache read failed", zap.String("chart", chartID), zap.Error(err))
		ok = false
	}
	if ok {
		if out, complete := alignPositions(tables, cached); complete {
			return out, nil
		}
	}
	stored, err := s.d.Positions.ListByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	out, _ := alignPositions(tables, stored)
	cacheWarn(s.d.Cache.SavePositions(ctx, chartID, out), chartID, session.KeyTablePositions)
	return out, nil
}

// alignPositions orders ps like tables, drops positions of unknown tables
// and puts tables without a position at the origin.  The second result
// reports whether every table had a position.
func alignPositions(tables []model.Table, ps []model.TablePosition) ([]model.TablePosition, bool) {
	byID := make(map[string]model.TablePosition, len(ps))
	for _, p := range ps {
		byID[p.TableID] = p
	}
	out := make([]model.TablePosition, 0, len(tables))
	complete := true
	for _, t := range tables {
		p, ok := byID[t.ID]
		if !ok {
			complete = false
			p = model.TablePosition{TableID: t.ID, Rotation: t.Rotation}
		}
		out = append(out, p)
	}
	return out, complete
}

func (s *Service) loadAssignments(ctx context.Context, chartID string) ([]model.Assignment, error) {
	cached, ok, err := s.d.Cache.LoadAssignments(ctx, chartID)
	if err != nil {
		logging.Log.Debug("planner: assignments cache read failed", zap.String("chart", chartID), zap.Error(err))
		ok = false
	}
	if ok {
		return cached, nil
	}
	stored, err := s.d.Assignments.ListByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	cacheWarn(s.d.Cache.SaveAssignments(ctx, chartID, stored), chartID, session.KeyGuestAssignments)
	return stored, nil
}

// saveAssignments writes the assignment map through to MySQL and the
// session cache, then announces the change.
func (s *Service) saveAssignments(ctx context.Context, st *chartState, reason string, changed []string) error {
	id := st.chart.ID
	snap := st.seats.Snapshot()
	if err := s.d.Assignments.ReplaceAll(ctx, id, snap); err != nil {
		return fmt.Errorf("persist assignments: %w", err)
	}
	cacheWarn(s.d.Cache.SaveAssignments(ctx, id, snap), id, session.KeyGuestAssignments)
	if err := s.d.Charts.Touch(ctx, id); err != nil {
		logging.Log.Warn("planner: touch chart failed", zap.String("chart", id), zap.Error(err))
	}
	s.publish(ctx, id, reason, changed, snap)
	return nil
}

func (s *Service) cachePositions(ctx context.Context, st *chartState) {
	cacheWarn(s.d.Cache.SavePositions(ctx, st.chart.ID, st.positions), st.chart.ID, session.KeyTablePositions)
}

func (s *Service) cacheDimensions(ctx context.Context, st *chartState) {
	dims := make(map[string]model.TableDimensions)
	for _, t := range st.tables {
		if t.Width != nil && t.Height != nil {
			dims[t.ID] = model.TableDimensions{Width: *t.Width, Height: *t.Height}
		}
	}
	cacheWarn(s.d.Cache.SaveDimensions(ctx, st.chart.ID, dims), st.chart.ID, session.KeyTableDimensions)
}

func (s *Service) cacheTransform(ctx context.Context, chartID string, t model.CanvasTransform) {
	cacheWarn(s.d.Cache.SaveTransform(ctx, chartID, t), chartID, session.KeyCanvasTransform)
}

// State returns the current chart state.
func (s *Service) State(ctx context.Context, chartID string) (*State, error) {
	defer s.lock(chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	return st.snapshot(), nil
}
