package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/session"
)

// ErrNoTemplateStore is returned by template operations when the service
// runs without a local store.
var ErrNoTemplateStore = errors.New("template store is not configured")

// SaveAsTemplate stores the table layout of a chart as a new template.
// Guests and assignments are not part of a template.
func (s *Service) SaveAsTemplate(ctx context.Context, chartID, name, description string) (model.Template, error) {
	if s.d.Templates == nil {
		return model.Template{}, ErrNoTemplateStore
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Template{}, fmt.Errorf("%w: template name must not be empty", ErrInvalidInput)
	}
	unlock := s.lock(chartID)
	st, err := s.load(ctx, chartID)
	unlock()
	if err != nil {
		return model.Template{}, err
	}
	t := model.Template{Name: name, Description: strings.TrimSpace(description), Tables: make([]model.TemplateTable, 0, len(st.tables))}
	for i, tb := range st.tables {
		p := st.positions[i]
		t.Tables = append(t.Tables, model.TemplateTable{
			Name:        tb.Name,
			Shape:       tb.Shape,
			Capacity:    tb.Capacity,
			Width:       tb.Width,
			Height:      tb.Height,
			Rotation:    tb.Rotation,
			X:           p.X,
			Y:           p.Y,
			IsVenueItem: tb.IsVenueItem,
		})
	}
	return s.d.Templates.CreateTemplate(ctx, t)
}

// ApplyTemplate replaces every table of a chart with the tables of a
// template.  All assignments are cleared; guests and groups stay.
func (s *Service) ApplyTemplate(ctx context.Context, chartID, templateID string) (*State, error) {
	if s.d.Templates == nil {
		return nil, ErrNoTemplateStore
	}
	tpl, err := s.d.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	defer s.write(ctx, chartID)()
	prev, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	unseated := make([]string, 0, prev.seats.Len())
	for _, a := range prev.seats.Snapshot() {
		unseated = append(unseated, a.GuestID)
	}

	tx, err := s.d.Tables.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.d.Tables.DeleteAllTx(ctx, tx, chartID); err != nil {
		return nil, fmt.Errorf("clear tables: %w", err)
	}
	for _, tt := range tpl.Tables {
		t := &model.Table{
			ID:          uuid.NewString(),
			ChartID:     chartID,
			Name:        tt.Name,
			Shape:       model.ParseShape(string(tt.Shape)),
			Capacity:    tt.Capacity,
			Width:       tt.Width,
			Height:      tt.Height,
			Rotation:    tt.Rotation,
			IsVenueItem: tt.IsVenueItem,
		}
		pos := model.TablePosition{TableID: t.ID, X: tt.X, Y: tt.Y, Rotation: tt.Rotation}
		if err := s.d.Tables.CreateTx(ctx, tx, t, pos); err != nil {
			return nil, fmt.Errorf("create table from template: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	cacheWarn(s.d.Cache.SaveAssignments(ctx, chartID, nil), chartID, session.KeyGuestAssignments)
	st, err := s.load(ctx, chartID)
	if err != nil {
		return nil, err
	}
	s.cacheDimensions(ctx, st)
	if len(unseated) > 0 {
		s.publish(ctx, chartID, "template_applied", unseated, st.seats.Snapshot())
	}
	logging.Log.Info("planner: template applied", zap.String("chart", chartID),
		zap.String("template", tpl.ID), zap.Int("tables", len(tpl.Tables)))
	return st.snapshot(), nil
}
