package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/render"
	"github.com/iliyamo/wedding-seating/internal/repository"
)

// viewport restores the stored pan/zoom of a chart.  Cache trouble yields
// the default view.
func (s *Service) viewport(ctx context.Context, chartID string) (*canvas.Viewport, error) {
	if _, err := s.d.Charts.GetByID(ctx, chartID); err != nil {
		return nil, err
	}
	raw, err := s.d.Cache.LoadTransform(ctx, chartID)
	if err != nil {
		logging.Log.Debug("planner: transform not restored", zap.String("chart", chartID), zap.Error(err))
		raw = nil
	}
	return canvas.RestoreViewport(s.cfg.Viewport, raw), nil
}

// updateViewport changes the stored view on behalf of a caller outside the
// gesture streams.  It is refused while a stream of the chart is mid
// gesture, since that gesture commits its own transform on release.
func (s *Service) updateViewport(ctx context.Context, chartID string, fn func(*canvas.Viewport)) (model.CanvasTransform, error) {
	defer s.write(ctx, chartID)()
	if s.gestureActive(chartID) {
		return model.CanvasTransform{}, canvas.ErrGestureInProgress
	}
	vp, err := s.viewport(ctx, chartID)
	if err != nil {
		return model.CanvasTransform{}, err
	}
	fn(vp)
	t := vp.Transform()
	s.cacheTransform(ctx, chartID, t)
	s.broadcast(chartID, nil, t)
	return t, nil
}

// storeTransform writes t through to the session cache.  The chart lock
// must be held.
func (s *Service) storeTransform(ctx context.Context, chartID string, t model.CanvasTransform) (model.CanvasTransform, error) {
	vp, err := s.viewport(ctx, chartID)
	if err != nil {
		return model.CanvasTransform{}, err
	}
	if !vp.Set(t) {
		vp.Reset()
	}
	t = vp.Transform()
	s.cacheTransform(ctx, chartID, t)
	return t, nil
}

// Transform returns the stored pan/zoom.
func (s *Service) Transform(ctx context.Context, chartID string) (model.CanvasTransform, error) {
	vp, err := s.viewport(ctx, chartID)
	if err != nil {
		return model.CanvasTransform{}, err
	}
	return vp.Transform(), nil
}

// Pan shifts the view by a screen-space delta.
func (s *Service) Pan(ctx context.Context, chartID string, dx, dy float64) (model.CanvasTransform, error) {
	return s.updateViewport(ctx, chartID, func(vp *canvas.Viewport) { vp.Pan(dx, dy) })
}

// Wheel applies one wheel tick anchored at screen point (x, y).
func (s *Service) Wheel(ctx context.Context, chartID string, x, y, deltaY float64) (model.CanvasTransform, error) {
	return s.updateViewport(ctx, chartID, func(vp *canvas.Viewport) {
		vp.Wheel(geometry.Point{X: x, Y: y}, deltaY)
	})
}

// ZoomBy zooms about the centre of a screen of the given size.
func (s *Service) ZoomBy(ctx context.Context, chartID string, factor, screenW, screenH float64) (model.CanvasTransform, error) {
	if !(factor > 0) || !finite(factor) {
		return model.CanvasTransform{}, fmt.Errorf("%w: zoom factor must be positive", ErrInvalidInput)
	}
	return s.updateViewport(ctx, chartID, func(vp *canvas.Viewport) { vp.ZoomBy(factor, screenW, screenH) })
}

// ResetView returns to {0, 0, default scale}.
func (s *Service) ResetView(ctx context.Context, chartID string) (model.CanvasTransform, error) {
	return s.updateViewport(ctx, chartID, func(vp *canvas.Viewport) { vp.Reset() })
}

// SaveTransform stores a transform computed by the client.  The scale is
// clamped; an unusable transform resets the view.
func (s *Service) SaveTransform(ctx context.Context, chartID string, t model.CanvasTransform) (model.CanvasTransform, error) {
	return s.updateViewport(ctx, chartID, func(vp *canvas.Viewport) {
		if !vp.Set(t) {
			vp.Reset()
		}
	})
}

// FitView frames every table in a screen of the given size.
func (s *Service) FitView(ctx context.Context, chartID string, screenW, screenH float64) (model.CanvasTransform, error) {
	defer s.write(ctx, chartID)()
	if s.gestureActive(chartID) {
		return model.CanvasTransform{}, canvas.ErrGestureInProgress
	}
	st, err := s.load(ctx, chartID)
	if err != nil {
		return model.CanvasTransform{}, err
	}
	st.vp.FitToBounds(st.bounds(), screenW, screenH, s.cfg.FitPadding)
	t := st.vp.Transform()
	s.cacheTransform(ctx, chartID, t)
	s.broadcast(chartID, nil, t)
	return t, nil
}

func (st *chartState) bounds() geometry.Box {
	b := geometry.EmptyBox()
	for _, t := range st.tables {
		j := st.positionIndex(t.ID)
		if j < 0 {
			continue
		}
		p := st.positions[j]
		b = b.Union(geometry.Bounds(t, geometry.Point{X: p.X, Y: p.Y}))
	}
	return b
}

// RenderOptions sizes the drawing and picks the table whose grips are
// shown.
type RenderOptions struct {
	Width    float64
	Height   float64
	Selected string
}

// Render draws the chart as SVG under the stored transform.
func (s *Service) Render(ctx context.Context, chartID string, opt RenderOptions) (string, error) {
	defer s.lock(chartID)()
	st, err := s.load(ctx, chartID)
	if err != nil {
		return "", err
	}
	if opt.Selected != "" && st.tableIndex(opt.Selected) < 0 {
		return "", repository.ErrTableNotFound
	}
	return s.renderer.Render(&render.Scene{
		Width:       opt.Width,
		Height:      opt.Height,
		Transform:   st.vp.Transform(),
		Tables:      st.tables,
		Positions:   st.positions,
		Guests:      st.guests,
		Groups:      st.groups,
		Assignments: st.seats.Snapshot(),
		Selected:    opt.Selected,
	})
}
