package seating

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/wedding-seating/internal/model"
)

var (
	ErrUnknownGuest   = errors.New("unknown guest")
	ErrUnknownTable   = errors.New("unknown table")
	ErrSeatOutOfRange = errors.New("seat index out of range")
	ErrTableFull      = errors.New("table has no free seat")
)

// Map binds guests to seats.  A guest holds at most one seat.  Two guests
// may transiently share a seat (for instance after a merge); Repair
// spreads them out again.  Map is not safe for concurrent use.
type Map struct {
	dir     Directory
	entries map[string]model.Assignment
	seq     int64
}

// NewMap returns an empty map validated against dir.
func NewMap(dir Directory) *Map {
	return &Map{dir: dir, entries: make(map[string]model.Assignment)}
}

// Load replaces the content of the map with a stored snapshot.  Entries
// are kept as stored, including collisions; call Repair to resolve them.
func (m *Map) Load(entries []model.Assignment) {
	m.entries = make(map[string]model.Assignment, len(entries))
	m.seq = 0
	for _, a := range entries {
		if a.Seq > m.seq {
			m.seq = a.Seq
		}
	}
	for _, a := range sortBySeq(entries) {
		if a.Seq == 0 {
			m.seq++
			a.Seq = m.seq
		}
		m.entries[a.GuestID] = a
	}
}

// Len is the number of seated guests.
func (m *Map) Len() int { return len(m.entries) }

// Get returns the assignment of a guest.
func (m *Map) Get(guestID string) (model.Assignment, bool) {
	a, ok := m.entries[guestID]
	return a, ok
}

// Snapshot returns every assignment ordered by Seq.
func (m *Map) Snapshot() []model.Assignment {
	out := make([]model.Assignment, 0, len(m.entries))
	for _, a := range m.entries {
		out = append(out, a)
	}
	return sortBySeq(out)
}

// Occupant returns the guest holding a seat.  With a collision the
// earliest assignment wins.
func (m *Map) Occupant(tableID string, seat int) (string, bool) {
	var best model.Assignment
	found := false
	for _, a := range m.entries {
		if a.TableID == tableID && a.SeatIndex == seat && (!found || a.Seq < best.Seq) {
			best, found = a, true
		}
	}
	return best.GuestID, found
}

// SeatedAt returns the assignments at a table ordered by seat index.
func (m *Map) SeatedAt(tableID string) []model.Assignment {
	var out []model.Assignment
	for _, a := range m.entries {
		if a.TableID == tableID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatIndex != out[j].SeatIndex {
			return out[i].SeatIndex < out[j].SeatIndex
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Unseated filters guests that hold no seat, keeping their order.
func (m *Map) Unseated(guests []model.Guest) []model.Guest {
	var out []model.Guest
	for _, g := range guests {
		if _, ok := m.entries[g.ID]; !ok {
			out = append(out, g)
		}
	}
	return out
}

// Assign seats a guest.  seat == model.Unassigned removes the guest
// instead.  If the seat is taken by someone else the guest lands on the
// next free seat of the same table, scanning forward and wrapping; a full
// table is rejected.  The returned assignment is where the guest ended up.
func (m *Map) Assign(guestID, tableID string, seat int) (model.Assignment, error) {
	if seat == model.Unassigned {
		if !m.dir.HasGuest(guestID) {
			return model.Assignment{}, fmt.Errorf("assign %s: %w", guestID, ErrUnknownGuest)
		}
		m.Unassign(guestID)
		return model.Assignment{GuestID: guestID, SeatIndex: model.Unassigned}, nil
	}
	n, err := m.validate(guestID, tableID, seat)
	if err != nil {
		return model.Assignment{}, err
	}
	if cur, ok := m.entries[guestID]; ok && cur.TableID == tableID && cur.SeatIndex == seat {
		return cur, nil
	}
	target := seat
	if occ, ok := m.Occupant(tableID, seat); ok && occ != guestID {
		free, ok := m.nextFree(tableID, seat, n, guestID)
		if !ok {
			return model.Assignment{}, fmt.Errorf("assign %s to %s: %w", guestID, tableID, ErrTableFull)
		}
		target = free
	}
	return m.put(guestID, tableID, target), nil
}

// Swap moves guest A onto the destination seat.  The source is A's
// current seat in the map, not whatever the dragging client last saw.
// When the destination is held by B, B takes A's source seat; if A was
// unseated B becomes unseated.  Returns the guests whose seats changed.
func (m *Map) Swap(guestA, toTable string, toSeat int) ([]string, error) {
	if _, err := m.validate(guestA, toTable, toSeat); err != nil {
		return nil, err
	}
	from, seated := m.entries[guestA]
	if seated && from.TableID == toTable && from.SeatIndex == toSeat {
		return nil, nil
	}

	changed := []string{guestA}
	if occ, ok := m.Occupant(toTable, toSeat); ok && occ != guestA {
		if seated {
			m.put(occ, from.TableID, from.SeatIndex)
		} else {
			delete(m.entries, occ)
		}
		changed = append(changed, occ)
	}
	m.put(guestA, toTable, toSeat)
	return changed, nil
}

// Unassign frees the seat of a guest.  It reports whether the guest held one.
func (m *Map) Unassign(guestID string) bool {
	if _, ok := m.entries[guestID]; !ok {
		return false
	}
	delete(m.entries, guestID)
	return true
}

// RemoveGuest drops a deleted guest from the map.
func (m *Map) RemoveGuest(guestID string) bool { return m.Unassign(guestID) }

// RemoveTable deletes every assignment that references tableID and returns
// the guests that lost their seat.
func (m *Map) RemoveTable(tableID string) []string {
	var removed []string
	for _, a := range m.Snapshot() {
		if a.TableID == tableID {
			delete(m.entries, a.GuestID)
			removed = append(removed, a.GuestID)
		}
	}
	return removed
}

// Repair resolves seat collisions and seats that no longer exist.  For
// every table the earliest assignment keeps a contested seat; later ones,
// in assignment order, move to the next free seat.  Guests that cannot be
// placed, or whose table or guest record is gone, are unseated.  Returns
// the guests whose assignment changed.
func (m *Map) Repair() []string {
	var changed []string
	taken := make(map[model.SeatRef]bool)
	var displaced []model.Assignment

	for _, a := range m.Snapshot() {
		n, ok := m.dir.SeatCount(a.TableID)
		if !ok || !m.dir.HasGuest(a.GuestID) {
			delete(m.entries, a.GuestID)
			changed = append(changed, a.GuestID)
			continue
		}
		ref := a.Seat()
		if a.SeatIndex < 0 || a.SeatIndex >= n || taken[ref] {
			displaced = append(displaced, a)
			continue
		}
		taken[ref] = true
	}

	for _, a := range displaced {
		n, _ := m.dir.SeatCount(a.TableID)
		start := a.SeatIndex
		if start < 0 || start >= n {
			start = n - 1
		}
		placed := false
		for i := 1; i <= n; i++ {
			ref := model.SeatRef{TableID: a.TableID, SeatIndex: (start + i) % n}
			if !taken[ref] {
				taken[ref] = true
				a.SeatIndex = ref.SeatIndex
				m.entries[a.GuestID] = a
				placed = true
				break
			}
		}
		if !placed {
			delete(m.entries, a.GuestID)
		}
		changed = append(changed, a.GuestID)
	}
	return changed
}

// Merge applies assignments pushed by an external store on top of the
// current map.  Valid entries replace the guest's current seat; entries
// naming unknown guests, tables or seats are skipped.  Collisions created
// by the merge are resolved with Repair.  Returns the number of entries
// applied.
func (m *Map) Merge(entries []model.Assignment) int {
	applied := 0
	for _, a := range sortBySeq(entries) {
		if a.SeatIndex == model.Unassigned {
			if m.dir.HasGuest(a.GuestID) {
				m.Unassign(a.GuestID)
				applied++
			}
			continue
		}
		if _, err := m.validate(a.GuestID, a.TableID, a.SeatIndex); err != nil {
			continue
		}
		m.put(a.GuestID, a.TableID, a.SeatIndex)
		applied++
	}
	m.Repair()
	return applied
}

func (m *Map) validate(guestID, tableID string, seat int) (int, error) {
	if !m.dir.HasGuest(guestID) {
		return 0, fmt.Errorf("assign %s: %w", guestID, ErrUnknownGuest)
	}
	n, ok := m.dir.SeatCount(tableID)
	if !ok {
		return 0, fmt.Errorf("assign %s to %s: %w", guestID, tableID, ErrUnknownTable)
	}
	if seat < 0 || seat >= n {
		return 0, fmt.Errorf("assign %s to %s seat %d: %w", guestID, tableID, seat, ErrSeatOutOfRange)
	}
	return n, nil
}

// nextFree scans seats after start (wrapping) for one that nobody but
// self occupies.
func (m *Map) nextFree(tableID string, start, n int, self string) (int, bool) {
	held := make(map[int]bool, n)
	for _, a := range m.entries {
		if a.TableID == tableID && a.GuestID != self {
			held[a.SeatIndex] = true
		}
	}
	for i := 1; i < n; i++ {
		s := (start + i) % n
		if !held[s] {
			return s, true
		}
	}
	return 0, false
}

func (m *Map) put(guestID, tableID string, seat int) model.Assignment {
	m.seq++
	a := model.Assignment{GuestID: guestID, TableID: tableID, SeatIndex: seat, Seq: m.seq}
	m.entries[guestID] = a
	return a
}

func sortBySeq(in []model.Assignment) []model.Assignment {
	out := append([]model.Assignment(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
