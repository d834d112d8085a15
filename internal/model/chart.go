package model

import "time"

// Chart is one planner session: the wizard metadata plus everything that
// hangs off it (tables, guests, groups, assignments).  The chart ID is the
// session identifier carried by planner tokens and query strings.
type Chart struct {
	ID        string     `json:"id"`         // charts.id
	Name      string     `json:"name"`       // charts.name
	EventDate *time.Time `json:"event_date"` // charts.event_date (nullable)
	CreatedAt string     `json:"created_at"` // charts.created_at
	UpdatedAt string     `json:"updated_at"` // charts.updated_at
}

// CanvasTransform is the pan/zoom mapping from canvas to screen
// coordinates: screen = canvas*Scale + (X, Y).
type CanvasTransform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}
