package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/render"
	"github.com/iliyamo/wedding-seating/internal/repository"
)

// AddGuests stores guests in one batch.  Every guest needs a name; ids are
// generated.
func (s *Service) AddGuests(ctx context.Context, chartID string, guests []model.Guest) ([]model.Guest, error) {
	defer s.write(ctx, chartID)()
	if _, err := s.d.Charts.GetByID(ctx, chartID); err != nil {
		return nil, err
	}
	batch := make([]*model.Guest, 0, len(guests))
	for i := range guests {
		g := guests[i]
		g.FullName = strings.TrimSpace(g.FullName)
		if g.FullName == "" {
			return nil, fmt.Errorf("%w: guest %d has no name", ErrInvalidInput, i+1)
		}
		g.ID = uuid.NewString()
		g.ChartID = chartID
		g.GroupIDs = nil
		batch = append(batch, &g)
	}
	if err := s.d.Guests.CreateBulk(ctx, batch); err != nil {
		return nil, fmt.Errorf("create guests: %w", err)
	}
	out := make([]model.Guest, 0, len(batch))
	for _, g := range batch {
		out = append(out, *g)
	}
	return out, nil
}

// ListGuests returns the guests ordered by name.
func (s *Service) ListGuests(ctx context.Context, chartID string) ([]model.Guest, error) {
	if _, err := s.d.Charts.GetByID(ctx, chartID); err != nil {
		return nil, err
	}
	gs, err := s.d.Guests.ListByChart(ctx, chartID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Guest, 0, len(gs))
	for _, g := range gs {
		out = append(out, *g)
	}
	return out, nil
}

// UnseatedGuests lists guests without an assignment.
func (s *Service) UnseatedGuests(ctx context.Context, chartID string) ([]model.Guest, error) {
	defer s.lock(chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	return nonNil(st.seats.Unseated(st.guests)), nil
}

// UpdateGuest rewrites the descriptive fields of a guest.
func (s *Service) UpdateGuest(ctx context.Context, chartID string, g model.Guest) (*model.Guest, error) {
	g.FullName = strings.TrimSpace(g.FullName)
	if g.FullName == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	g.ChartID = chartID
	defer s.write(ctx, chartID)()
	if err := s.d.Guests.Update(ctx, &g); err != nil {
		return nil, err
	}
	return s.d.Guests.GetByID(ctx, chartID, g.ID)
}

// DeleteGuest removes a guest and frees their seat.
func (s *Service) DeleteGuest(ctx context.Context, chartID, id string) error {
	defer s.write(ctx, chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return err
	}
	if !st.dir.HasGuest(id) {
		return repository.ErrGuestNotFound
	}
	if err := s.d.Guests.Delete(ctx, chartID, id); err != nil {
		return err
	}
	st.dir.RemoveGuest(id)
	if st.seats.RemoveGuest(id) {
		return s.saveAssignments(ctx, st, "guest_removed", []string{id})
	}
	return nil
}

// GroupInput describes a group to create or replace.
type GroupInput struct {
	Name      string
	Type      string
	MemberIDs []string
}

func (in GroupInput) group(chartID, id string) (*model.GuestGroup, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrInvalidInput)
	}
	members := in.MemberIDs
	if members == nil {
		members = []string{}
	}
	return &model.GuestGroup{
		ID:        id,
		ChartID:   chartID,
		Name:      name,
		Type:      model.ParseGroupType(strings.ToLower(strings.TrimSpace(in.Type))),
		MemberIDs: members,
	}, nil
}

// CreateGroup stores a group.  Members that are not guests of the chart
// are dropped.
func (s *Service) CreateGroup(ctx context.Context, chartID string, in GroupInput) (*model.GuestGroup, error) {
	if _, err := s.d.Charts.GetByID(ctx, chartID); err != nil {
		return nil, err
	}
	g, err := in.group(chartID, uuid.NewString())
	if err != nil {
		return nil, err
	}
	defer s.write(ctx, chartID)()
	if err := s.d.Groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	g.Color = render.GroupColor(g.ID)
	return g, nil
}

func (s *Service) ListGroups(ctx context.Context, chartID string) ([]model.GuestGroup, error) {
	if _, err := s.d.Charts.GetByID(ctx, chartID); err != nil {
		return nil, err
	}
	gs, err := s.d.Groups.ListByChart(ctx, chartID)
	if err != nil {
		return nil, err
	}
	out := make([]model.GuestGroup, 0, len(gs))
	for _, g := range gs {
		g.Color = render.GroupColor(g.ID)
		out = append(out, *g)
	}
	return out, nil
}

// UpdateGroup replaces name, type and members.
func (s *Service) UpdateGroup(ctx context.Context, chartID, id string, in GroupInput) (*model.GuestGroup, error) {
	g, err := in.group(chartID, id)
	if err != nil {
		return nil, err
	}
	defer s.write(ctx, chartID)()
	if err := s.d.Groups.Update(ctx, g); err != nil {
		return nil, err
	}
	g.Color = render.GroupColor(g.ID)
	return g, nil
}

func (s *Service) DeleteGroup(ctx context.Context, chartID, id string) error {
	defer s.write(ctx, chartID)()
	return s.d.Groups.Delete(ctx, chartID, id)
}
