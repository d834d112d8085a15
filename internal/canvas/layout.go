package canvas

import (
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

// TableState is the editable geometry of one table on the canvas.
type TableState struct {
	ID       string         `json:"id"`
	Center   geometry.Point `json:"center"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Rotation float64        `json:"rotation"`
}

// Layout is the set of tables a Controller manipulates.
type Layout struct {
	tables map[string]*TableState
}

// NewLayout builds a layout from stored tables and their positions.  A
// table without a position is placed at the origin.
func NewLayout(tables []model.Table, positions []model.TablePosition) *Layout {
	pos := make(map[string]model.TablePosition, len(positions))
	for _, p := range positions {
		pos[p.TableID] = p
	}
	l := &Layout{tables: make(map[string]*TableState, len(tables))}
	for _, t := range tables {
		w, h := geometry.EffectiveDimensions(t)
		p := pos[t.ID]
		l.tables[t.ID] = &TableState{
			ID:       t.ID,
			Center:   geometry.Point{X: p.X, Y: p.Y},
			Width:    w,
			Height:   h,
			Rotation: geometry.NormalizeDegrees(t.Rotation),
		}
	}
	return l
}

// Table returns a copy of the state of id.
func (l *Layout) Table(id string) (TableState, bool) {
	t, ok := l.tables[id]
	if !ok {
		return TableState{}, false
	}
	return *t, true
}

// Put inserts or replaces a table.
func (l *Layout) Put(t TableState) {
	t.Rotation = geometry.NormalizeDegrees(t.Rotation)
	l.tables[t.ID] = &t
}

// Remove drops a table from the layout.
func (l *Layout) Remove(id string) { delete(l.tables, id) }

// Position returns the stored position record for id.
func (l *Layout) Position(id string) (model.TablePosition, bool) {
	t, ok := l.tables[id]
	if !ok {
		return model.TablePosition{}, false
	}
	return model.TablePosition{TableID: id, X: t.Center.X, Y: t.Center.Y, Rotation: t.Rotation}, true
}

func (l *Layout) move(id string, to geometry.Point) (geometry.Point, bool) {
	t, ok := l.tables[id]
	if !ok {
		return geometry.Point{}, false
	}
	delta := to.Sub(t.Center)
	t.Center = to
	return delta, true
}

func (l *Layout) resize(id string, w, h float64) bool {
	t, ok := l.tables[id]
	if !ok {
		return false
	}
	t.Width, t.Height = w, h
	return true
}

// Rotate sets the rotation of id, normalised into [0,360).
func (l *Layout) Rotate(id string, deg float64) bool {
	t, ok := l.tables[id]
	if !ok {
		return false
	}
	t.Rotation = geometry.NormalizeDegrees(deg)
	return true
}
