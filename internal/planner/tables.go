package planner

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/repository"
)

const (
	// MaxCapacity bounds the chairs of one table.
	MaxCapacity = 40

	gridColumns = 4
	gridSpacing = 260.0
)

// TableInput describes a new table.  X and Y are optional; without them
// the table is put on the next free slot of a four-column grid.
type TableInput struct {
	Name        string
	Shape       string
	Capacity    int
	Width       *float64
	Height      *float64
	Rotation    float64
	Description string
	IsVenueItem bool
	X           *float64
	Y           *float64
}

// TablePatch changes table attributes; nil fields are left alone.
// ClearDimensions drops the custom size in favour of the shape default.
type TablePatch struct {
	Name            *string
	Shape           *string
	Capacity        *int
	Description     *string
	IsVenueItem     *bool
	Width           *float64
	Height          *float64
	ClearDimensions bool
}

func validCapacity(capacity int, venue bool) error {
	if venue && capacity == 0 {
		return nil
	}
	if capacity < 1 || capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity must be between 1 and %d", ErrInvalidInput, MaxCapacity)
	}
	return nil
}

func finite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// clampDimension applies the resize floor to a custom dimension.
func clampDimension(v *float64, floor float64) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if !finite(*v) {
		return nil, fmt.Errorf("%w: dimension is not a number", ErrInvalidInput)
	}
	c := math.Max(*v, floor)
	return &c, nil
}

// nextGridSlot returns the centre of the first grid slot no table centre
// occupies.
func nextGridSlot(ps []model.TablePosition) (float64, float64) {
	taken := make(map[[2]int]bool, len(ps))
	for _, p := range ps {
		col := int(math.Round(p.X / gridSpacing))
		row := int(math.Round(p.Y / gridSpacing))
		taken[[2]int{col, row}] = true
	}
	for i := 0; ; i++ {
		col, row := i%gridColumns, i/gridColumns
		if !taken[[2]int{col, row}] {
			return float64(col) * gridSpacing, float64(row) * gridSpacing
		}
	}
}

// AddTable creates a table with its position.
func (s *Service) AddTable(ctx context.Context, chartID string, in TableInput) (*model.Table, model.TablePosition, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, model.TablePosition{}, err
	}
	if err := validCapacity(in.Capacity, in.IsVenueItem); err != nil {
		return nil, model.TablePosition{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("Table %d", len(st.tables)+1)
	}
	w, err := clampDimension(in.Width, canvas.MinTableWidth)
	if err != nil {
		return nil, model.TablePosition{}, err
	}
	h, err := clampDimension(in.Height, canvas.MinTableHeight)
	if err != nil {
		return nil, model.TablePosition{}, err
	}
	if !finite(in.Rotation) {
		return nil, model.TablePosition{}, fmt.Errorf("%w: rotation is not a number", ErrInvalidInput)
	}
	t := model.Table{
		ID:          uuid.NewString(),
		ChartID:     chartID,
		Name:        name,
		Shape:       model.ParseShape(in.Shape),
		Capacity:    in.Capacity,
		Width:       w,
		Height:      h,
		Rotation:    geometry.NormalizeDegrees(in.Rotation),
		Description: strings.TrimSpace(in.Description),
		IsVenueItem: in.IsVenueItem,
	}
	pos := model.TablePosition{TableID: t.ID, Rotation: t.Rotation}
	if in.X != nil && in.Y != nil {
		if !finite(*in.X, *in.Y) {
			return nil, model.TablePosition{}, fmt.Errorf("%w: position is not a number", ErrInvalidInput)
		}
		pos.X, pos.Y = *in.X, *in.Y
	} else {
		pos.X, pos.Y = nextGridSlot(st.positions)
	}
	if err := s.d.Tables.Create(ctx, &t, pos); err != nil {
		return nil, model.TablePosition{}, fmt.Errorf("create table: %w", err)
	}
	st.tables = append(st.tables, t)
	st.positions = append(st.positions, pos)
	s.cachePositions(ctx, st)
	s.cacheDimensions(ctx, st)
	logging.Log.Debug("planner: table added", zap.String("chart", chartID), zap.String("table", t.ID))
	return &t, pos, nil
}

// UpdateTable applies a patch.  A capacity change that strands seated
// guests is followed by a repair.
func (s *Service) UpdateTable(ctx context.Context, chartID, id string, p TablePatch) (*model.Table, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	i := st.tableIndex(id)
	if i < 0 {
		return nil, repository.ErrTableNotFound
	}
	t := st.tables[i]
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		t.Name = name
	}
	if p.Shape != nil {
		t.Shape = model.ParseShape(*p.Shape)
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.IsVenueItem != nil {
		t.IsVenueItem = *p.IsVenueItem
	}
	if err := validCapacity(t.Capacity, t.IsVenueItem); err != nil {
		return nil, err
	}
	if p.ClearDimensions {
		t.Width, t.Height = nil, nil
	}
	if p.Width != nil {
		if t.Width, err = clampDimension(p.Width, canvas.MinTableWidth); err != nil {
			return nil, err
		}
	}
	if p.Height != nil {
		if t.Height, err = clampDimension(p.Height, canvas.MinTableHeight); err != nil {
			return nil, err
		}
	}
	if err := s.d.Tables.Update(ctx, &t); err != nil {
		return nil, err
	}
	st.tables[i] = t
	st.dir.PutTable(t)
	s.cacheDimensions(ctx, st)
	if changed := st.seats.Repair(); len(changed) > 0 {
		if err := s.saveAssignments(ctx, st, "repair", changed); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// DeleteTable removes a table, its position and every assignment to it.
// It returns the guests that lost their seat.
func (s *Service) DeleteTable(ctx context.Context, chartID, id string) ([]string, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	i := st.tableIndex(id)
	if i < 0 {
		return nil, repository.ErrTableNotFound
	}
	if err := s.d.Tables.Delete(ctx, chartID, id); err != nil {
		return nil, err
	}
	st.tables = append(st.tables[:i], st.tables[i+1:]...)
	if j := st.positionIndex(id); j >= 0 {
		st.positions = append(st.positions[:j], st.positions[j+1:]...)
	}
	st.dir.RemoveTable(id)
	removed := st.seats.RemoveTable(id)
	s.cachePositions(ctx, st)
	s.cacheDimensions(ctx, st)
	if len(removed) > 0 {
		if err := s.saveAssignments(ctx, st, "table_removed", removed); err != nil {
			return nil, err
		}
	}
	return nonNil(removed), nil
}

// MoveTable sets the centre of a table.
func (s *Service) MoveTable(ctx context.Context, chartID, id string, x, y float64) (model.TablePosition, error) {
	ps, err := s.CommitPositions(ctx, chartID, []model.TablePosition{{TableID: id, X: x, Y: y}})
	if err != nil {
		return model.TablePosition{}, err
	}
	if len(ps) == 0 {
		return model.TablePosition{}, repository.ErrTableNotFound
	}
	return ps[0], nil
}

// CommitPositions stores table centres at the end of a drag.  Entries for
// tables that no longer exist are skipped; rotation is not changed.
func (s *Service) CommitPositions(ctx context.Context, chartID string, ps []model.TablePosition) ([]model.TablePosition, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	return s.commitPositions(ctx, st, ps)
}

func (s *Service) commitPositions(ctx context.Context, st *chartState, ps []model.TablePosition) ([]model.TablePosition, error) {
	applied := make([]model.TablePosition, 0, len(ps))
	for _, p := range ps {
		j := st.positionIndex(p.TableID)
		if j < 0 {
			logging.Log.Debug("planner: position for missing table ignored",
				zap.String("chart", st.chart.ID), zap.String("table", p.TableID))
			continue
		}
		if !finite(p.X, p.Y) {
			return nil, fmt.Errorf("%w: position is not a number", ErrInvalidInput)
		}
		cur := st.positions[j]
		cur.X, cur.Y = p.X, p.Y
		applied = append(applied, cur)
	}
	if len(applied) == 0 {
		return applied, nil
	}
	if err := s.d.Positions.UpsertMany(ctx, st.chart.ID, applied); err != nil {
		return nil, fmt.Errorf("persist positions: %w", err)
	}
	for _, p := range applied {
		st.positions[st.positionIndex(p.TableID)] = p
	}
	s.cachePositions(ctx, st)
	return applied, nil
}

// ResizeTable commits custom dimensions, floored at the resize minimum.
func (s *Service) ResizeTable(ctx context.Context, chartID, id string, width, height float64) (*model.Table, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	return s.resize(ctx, st, id, width, height)
}

func (s *Service) resize(ctx context.Context, st *chartState, id string, width, height float64) (*model.Table, error) {
	i := st.tableIndex(id)
	if i < 0 {
		return nil, repository.ErrTableNotFound
	}
	if !finite(width, height) {
		return nil, fmt.Errorf("%w: dimension is not a number", ErrInvalidInput)
	}
	d := model.TableDimensions{
		Width:  math.Max(width, canvas.MinTableWidth),
		Height: math.Max(height, canvas.MinTableHeight),
	}
	if err := s.d.Tables.UpdateDimensions(ctx, st.chart.ID, id, d); err != nil {
		return nil, err
	}
	t := st.tables[i]
	t.Width, t.Height = &d.Width, &d.Height
	st.tables[i] = t
	s.cacheDimensions(ctx, st)
	return &t, nil
}

// RotateTable sets the rotation in degrees, normalised into [0,360).
func (s *Service) RotateTable(ctx context.Context, chartID, id string, deg float64) (model.TablePosition, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return model.TablePosition{}, err
	}
	return s.rotate(ctx, st, id, deg)
}

// RotateTableBy turns a table by whole rotate-knob steps; negative steps
// turn counter-clockwise.
func (s *Service) RotateTableBy(ctx context.Context, chartID, id string, steps int) (model.TablePosition, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return model.TablePosition{}, err
	}
	i := st.tableIndex(id)
	if i < 0 {
		return model.TablePosition{}, repository.ErrTableNotFound
	}
	return s.rotate(ctx, st, id, st.tables[i].Rotation+float64(steps)*s.cfg.RotateStep)
}

func (s *Service) rotate(ctx context.Context, st *chartState, id string, deg float64) (model.TablePosition, error) {
	i, j := st.tableIndex(id), st.positionIndex(id)
	if i < 0 || j < 0 {
		return model.TablePosition{}, repository.ErrTableNotFound
	}
	if !finite(deg) {
		return model.TablePosition{}, fmt.Errorf("%w: rotation is not a number", ErrInvalidInput)
	}
	deg = geometry.NormalizeDegrees(deg)
	if err := s.d.Tables.UpdateRotation(ctx, st.chart.ID, id, deg); err != nil {
		return model.TablePosition{}, err
	}
	st.tables[i].Rotation = deg
	st.positions[j].Rotation = deg
	s.cachePositions(ctx, st)
	return st.positions[j], nil
}

// SeatPositions returns the chair offsets of a table relative to its
// centre, in seat index order.
func (s *Service) SeatPositions(ctx context.Context, chartID, id string) ([]geometry.Point, error) {
	defer s.lock(chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	i := st.tableIndex(id)
	if i < 0 {
		return nil, repository.ErrTableNotFound
	}
	if st.tables[i].IsVenueItem {
		return []geometry.Point{}, nil
	}
	return geometry.TableSeats(st.tables[i]), nil
}
