// Package seating keeps the guest → seat assignment map of a chart.  The
// map is plain in-memory bookkeeping; persistence and event publishing are
// the caller's business.
package seating

import (
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

// Directory answers the existence questions the map needs before it
// accepts an assignment.
type Directory interface {
	HasGuest(guestID string) bool
	// SeatCount returns the number of seats of a table and whether the
	// table exists.
	SeatCount(tableID string) (int, bool)
}

// StaticDirectory is a Directory over fixed guest and table lists.
type StaticDirectory struct {
	guests map[string]struct{}
	seats  map[string]int
}

// NewStaticDirectory indexes guests and tables.  Venue items have no seats.
func NewStaticDirectory(guests []model.Guest, tables []model.Table) *StaticDirectory {
	d := &StaticDirectory{
		guests: make(map[string]struct{}, len(guests)),
		seats:  make(map[string]int, len(tables)),
	}
	for _, g := range guests {
		d.guests[g.ID] = struct{}{}
	}
	for _, t := range tables {
		d.PutTable(t)
	}
	return d
}

// HasGuest implements Directory.
func (d *StaticDirectory) HasGuest(id string) bool {
	_, ok := d.guests[id]
	return ok
}

// SeatCount implements Directory.
func (d *StaticDirectory) SeatCount(id string) (int, bool) {
	n, ok := d.seats[id]
	return n, ok
}

// PutGuest registers a guest.
func (d *StaticDirectory) PutGuest(id string) { d.guests[id] = struct{}{} }

// RemoveGuest forgets a guest.
func (d *StaticDirectory) RemoveGuest(id string) { delete(d.guests, id) }

// PutTable registers or updates a table.
func (d *StaticDirectory) PutTable(t model.Table) {
	if t.IsVenueItem {
		d.seats[t.ID] = 0
		return
	}
	d.seats[t.ID] = geometry.SeatCount(t.Shape, t.Capacity)
}

// RemoveTable forgets a table.
func (d *StaticDirectory) RemoveTable(id string) { delete(d.seats, id) }
