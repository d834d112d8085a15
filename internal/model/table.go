package model

import "strings"

// TableShape names the outline a table is drawn with.  The shape decides
// how seats are distributed around the table.
type TableShape string

const (
	ShapeRound      TableShape = "round"
	ShapeLong       TableShape = "long"
	ShapeSquare     TableShape = "square"
	ShapeSweetheart TableShape = "sweetheart"
)

// ParseShape maps a free-form shape name onto a known TableShape.  Unknown
// or empty names fall back to ShapeRound.
func ParseShape(s string) TableShape {
	switch TableShape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeLong:
		return ShapeLong
	case ShapeSquare:
		return ShapeSquare
	case ShapeSweetheart:
		return ShapeSweetheart
	default:
		return ShapeRound
	}
}

// Table is a table placed on the seating canvas.
//
// Fields:
//
//	ID          – uuid of the table.
//	ChartID     – planner session the table belongs to.
//	Name        – display name ("Table 1", "Head Table").
//	Shape       – outline used for seat distribution.
//	Capacity    – number of chairs requested for the table.
//	Width       – custom width override (nil uses the shape default).
//	Height      – custom height override (nil uses the shape default).
//	Rotation    – degrees in [0,360).
//	Description – optional free text.
//	IsDefault   – seeded by the planner rather than added by the user.
//	IsVenueItem – a venue fixture (dance floor, cake table) that seats nobody.
type Table struct {
	ID          string     `json:"id"`            // chart_tables.id
	ChartID     string     `json:"chart_id"`      // chart_tables.chart_id
	Name        string     `json:"name"`          // chart_tables.name
	Shape       TableShape `json:"shape"`         // chart_tables.shape
	Capacity    int        `json:"capacity"`      // chart_tables.capacity
	Width       *float64   `json:"width"`         // chart_tables.width (nullable)
	Height      *float64   `json:"height"`        // chart_tables.height (nullable)
	Rotation    float64    `json:"rotation"`      // chart_tables.rotation
	Description string     `json:"description"`   // chart_tables.description
	IsDefault   bool       `json:"is_default"`    // chart_tables.is_default
	IsVenueItem bool       `json:"is_venue_item"` // chart_tables.is_venue_item
}

// TablePosition is the canvas placement of a table centre.  There is
// exactly one position per table.
type TablePosition struct {
	TableID  string  `json:"table_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// TableDimensions is a committed width/height override for a table.
type TableDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
