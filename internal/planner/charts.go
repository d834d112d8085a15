package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
)

const defaultChartName = "Untitled chart"

// ChartInput describes a new chart.  SeedSweetheart places the couple's
// sweetheart table at the canvas origin.
type ChartInput struct {
	Name           string
	EventDate      *time.Time
	SeedSweetheart bool
}

// ChartPatch changes chart metadata; nil fields are left alone.
type ChartPatch struct {
	Name           *string
	EventDate      *time.Time
	ClearEventDate bool
}

// CreateChart starts a new planner session.
func (s *Service) CreateChart(ctx context.Context, in ChartInput) (*State, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultChartName
	}
	c := &model.Chart{ID: uuid.NewString(), Name: name, EventDate: in.EventDate}
	if err := s.d.Charts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	if in.SeedSweetheart {
		t := &model.Table{
			ID:        uuid.NewString(),
			ChartID:   c.ID,
			Name:      "Sweetheart Table",
			Shape:     model.ShapeSweetheart,
			Capacity:  2,
			IsDefault: true,
		}
		if err := s.d.Tables.Create(ctx, t, model.TablePosition{TableID: t.ID}); err != nil {
			return nil, fmt.Errorf("seed sweetheart table: %w", err)
		}
	}
	logging.Log.Info("planner: chart created", zap.String("chart", c.ID), zap.Bool("seeded", in.SeedSweetheart))
	return s.State(ctx, c.ID)
}

func (s *Service) GetChart(ctx context.Context, id string) (*model.Chart, error) {
	return s.d.Charts.GetByID(ctx, id)
}

// UpdateChart renames a chart or changes its event date.
func (s *Service) UpdateChart(ctx context.Context, id string, p ChartPatch) (*model.Chart, error) {
	defer s.write(ctx, id)()
	c, err := s.d.Charts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		c.Name = name
	}
	if p.ClearEventDate {
		c.EventDate = nil
	} else if p.EventDate != nil {
		c.EventDate = p.EventDate
	}
	if err := s.d.Charts.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.d.Charts.GetByID(ctx, id)
}

// DeleteChart removes the chart from MySQL and drops its session keys.
func (s *Service) DeleteChart(ctx context.Context, id string) error {
	unlock := s.write(ctx, id)
	err := s.d.Charts.Delete(ctx, id)
	if err == nil {
		cacheWarn(s.d.Cache.Clear(ctx, id), id, "*")
	}
	unlock()
	if err != nil {
		return err
	}
	s.forget(id)
	logging.Log.Info("planner: chart deleted", zap.String("chart", id))
	return nil
}
