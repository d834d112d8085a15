// Package planner orchestrates one seating chart at a time: it loads the
// chart from MySQL (with the session cache in front), applies canvas and
// seating operations, writes every change through to both stores and
// announces assignment changes on the message queue.
package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/logging"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/queue"
	"github.com/iliyamo/wedding-seating/internal/render"
	"github.com/iliyamo/wedding-seating/internal/repository"
	"github.com/iliyamo/wedding-seating/internal/session"
)

// ErrInvalidInput wraps validation failures so handlers can answer 400.
var ErrInvalidInput = errors.New("invalid input")

// EventPublisher announces assignment changes.  *queue_publisher.Publisher
// satisfies it, including when nil.
type EventPublisher interface {
	PublishAssignmentsChanged(ctx context.Context, event queue.AssignmentsChangedEvent) error
}

// TemplateStore is the part of the local store templates are read from
// and written to.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (model.Template, error)
	CreateTemplate(ctx context.Context, t model.Template) (model.Template, error)
}

// Deps bundles the stores the service writes through to.
type Deps struct {
	Charts      *repository.ChartRepo
	Tables      *repository.TableRepo
	Positions   *repository.PositionRepo
	Guests      *repository.GuestRepo
	Groups      *repository.GroupRepo
	Assignments *repository.AssignmentRepo
	Cache       *session.Cache
	Publisher   EventPublisher // optional
	Templates   TemplateStore  // optional
}

// Config tunes canvas behaviour.
type Config struct {
	Viewport      canvas.ViewportConfig
	RotateStep    float64
	FitPadding    float64
	FrameInterval time.Duration
}

// ConfigFrom maps the environment canvas settings onto a planner Config.
func ConfigFrom(c config.CanvasConfig) Config {
	return Config{
		Viewport: canvas.ViewportConfig{
			DefaultScale: c.DefaultScale,
			MinScale:     c.MinScale,
			MaxScale:     c.MaxScale,
			ZoomStep:     c.ZoomStep,
		},
		RotateStep:    c.RotateStep,
		FitPadding:    c.FitPadding,
		FrameInterval: c.FrameInterval,
	}
}

// Service runs planner operations.  Operations on the same chart are
// serialised; different charts proceed in parallel.
type Service struct {
	d        Deps
	cfg      Config
	renderer *render.Renderer
	now      func() time.Time

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	streams map[string]map[*Gestures]struct{}
}

// New panics when a repository or the cache is missing.
func New(d Deps, cfg Config) *Service {
	if d.Charts == nil || d.Tables == nil || d.Positions == nil || d.Guests == nil ||
		d.Groups == nil || d.Assignments == nil || d.Cache == nil {
		panic("planner: nil dependency passed to New")
	}
	if cfg.RotateStep <= 0 {
		cfg.RotateStep = 15
	}
	if cfg.FitPadding < 0 {
		cfg.FitPadding = 0
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = canvas.DefaultFrameInterval
	}
	return &Service{
		d:        d,
		cfg:      cfg,
		renderer: render.NewRenderer(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		streams:  make(map[string]map[*Gestures]struct{}),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// lock serialises work on one chart and returns the unlock func.
func (s *Service) lock(chartID string) func() {
	s.mu.Lock()
	l, ok := s.locks[chartID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chartID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// write takes the chart lock for an operation that changes the chart.
// Releasing it bumps the session revision so responses cached against the
// old state stop matching.
func (s *Service) write(ctx context.Context, chartID string) func() {
	unlock := s.lock(chartID)
	return func() {
		_, err := s.d.Cache.BumpRevision(context.WithoutCancel(ctx), chartID)
		cacheWarn(err, chartID, session.KeyRevision)
		unlock()
	}
}

// Revision identifies the stored state of a chart.  It changes after every
// write.
func (s *Service) Revision(ctx context.Context, chartID string) (int64, error) {
	return s.d.Cache.Revision(ctx, chartID)
}

func (s *Service) forget(chartID string) {
	s.mu.Lock()
	delete(s.locks, chartID)
	s.mu.Unlock()
}

// cacheWarn logs a session cache failure.  MySQL already holds the change
// so the request itself succeeds.
func cacheWarn(err error, chartID, key string) {
	if err != nil {
		logging.Log.Warn("planner: session cache write failed",
			zap.String("chart", chartID), zap.String("key", key), zap.Error(err))
	}
}

// publish sends a change event.  Broker failures are logged only.
func (s *Service) publish(ctx context.Context, chartID, reason string, changed []string, snap []model.Assignment) {
	if s.d.Publisher == nil {
		return
	}
	if changed == nil {
		changed = []string{}
	}
	ev := queue.AssignmentsChangedEvent{
		ChartID:       chartID,
		Reason:        reason,
		ChangedGuests: changed,
		Assignments:   snap,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.d.Publisher.PublishAssignmentsChanged(ctx, ev); err != nil {
		logging.Log.Warn("planner: publish assignments change failed",
			zap.String("chart", chartID), zap.String("reason", reason), zap.Error(err))
	}
}
