package model

// TemplateTable is the geometry of one table inside a saved layout
// template.  Templates never carry guest assignments.
type TemplateTable struct {
	Name        string     `json:"name"`
	Shape       TableShape `json:"shape"`
	Capacity    int        `json:"capacity"`
	Width       *float64   `json:"width,omitempty"`
	Height      *float64   `json:"height,omitempty"`
	Rotation    float64    `json:"rotation"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	IsVenueItem bool       `json:"is_venue_item,omitempty"`
}

// Template is a reusable table layout.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tables      []TemplateTable `json:"tables"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}
