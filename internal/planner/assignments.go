package planner

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/queue"
)

// SwapInput is a drop of an avatar onto a seat.  The source seat is
// whatever the guest holds when the drop is applied.
type SwapInput struct {
	GuestID string
	ToTable string
	ToSeat  int
}

// Assign seats a guest.  Seat -1 unseats them.  An occupied seat moves the
// guest forward to the next free chair at the same table.
func (s *Service) Assign(ctx context.Context, chartID, guestID, tableID string, seat int) (model.Assignment, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return model.Assignment{}, err
	}
	before, had := st.seats.Get(guestID)
	a, err := st.seats.Assign(guestID, tableID, seat)
	if err != nil {
		return model.Assignment{}, err
	}
	reason := "assign"
	if seat == model.Unassigned {
		reason = "unassign"
		if !had {
			return a, nil
		}
	} else if had && before.TableID == a.TableID && before.SeatIndex == a.SeatIndex {
		return a, nil
	}
	return a, s.saveAssignments(ctx, st, reason, []string{guestID})
}

// Unassign frees the seat of a guest.  It reports whether the guest had
// one.
func (s *Service) Unassign(ctx context.Context, chartID, guestID string) (bool, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return false, err
	}
	if !st.seats.Unassign(guestID) {
		return false, nil
	}
	return true, s.saveAssignments(ctx, st, "unassign", []string{guestID})
}

// Swap moves a guest onto a seat, trading places with its occupant.
func (s *Service) Swap(ctx context.Context, chartID string, in SwapInput) ([]string, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	changed, err := st.seats.Swap(in.GuestID, in.ToTable, in.ToSeat)
	if err != nil {
		return nil, err
	}
	return changed, s.saveAssignments(ctx, st, "swap", changed)
}

// Repair spreads guests sharing a seat, or sitting beyond a table's
// chairs, onto free seats.
func (s *Service) Repair(ctx context.Context, chartID string) ([]string, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	// load already repaired and persisted; a second pass only confirms it.
	changed := st.seats.Repair()
	if len(changed) > 0 {
		if err := s.saveAssignments(ctx, st, "repair", changed); err != nil {
			return nil, err
		}
	}
	return nonNil(changed), nil
}

// Merge applies assignments pushed by an external store on top of the
// stored map and repairs the result.  It returns how many entries were
// applied.
func (s *Service) Merge(ctx context.Context, chartID, source string, entries []model.Assignment) (int, error) {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return 0, err
	}
	before := st.seats.Snapshot()
	applied := st.seats.Merge(entries)
	changed := diffGuests(before, st.seats.Snapshot())
	logging.Log.Info("planner: merged external assignments",
		zap.String("chart", chartID), zap.String("source", source),
		zap.Int("received", len(entries)), zap.Int("applied", applied), zap.Int("changed", len(changed)))
	if len(changed) == 0 {
		return applied, nil
	}
	return applied, s.saveAssignments(ctx, st, "merge", changed)
}

// diffGuests lists guests whose seat differs between two snapshots.
func diffGuests(before, after []model.Assignment) []string {
	prev := make(map[string]model.SeatRef, len(before))
	for _, a := range before {
		prev[a.GuestID] = a.Seat()
	}
	var out []string
	for _, a := range after {
		if p, ok := prev[a.GuestID]; !ok || p != a.Seat() {
			out = append(out, a.GuestID)
		}
		delete(prev, a.GuestID)
	}
	gone := make([]string, 0, len(prev))
	for id := range prev {
		gone = append(gone, id)
	}
	sort.Strings(gone)
	return append(out, gone...)
}

// RestoreHandler adapts Merge to the restore queue consumer.
func (s *Service) RestoreHandler() queue.RestoreHandler {
	return func(ctx context.Context, msg queue.AssignmentsRestoreMessage) error {
		_, err := s.Merge(ctx, msg.ChartID, msg.Source, msg.Assignments)
		return err
	}
}
