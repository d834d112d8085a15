package geometry

import (
	"math"

	"github.com/iliyamo/wedding-seating/internal/model"
)

const (
	// SeatClearance is the gap between a table edge and the centre of a
	// chair placed along that edge.
	SeatClearance = 20.0
	// SeatRadius is the drawn radius of a chair.
	SeatRadius = 14.0
	// sweetheartSpread is the fraction of the half-width at which the two
	// sweetheart chairs sit left and right of centre.
	sweetheartSpread = 0.5
)

// DefaultDimensions returns the width and height a shape is drawn with
// when the table carries no custom override.
func DefaultDimensions(shape model.TableShape) (float64, float64) {
	switch shape {
	case model.ShapeLong:
		return 240, 80
	case model.ShapeSquare:
		return 120, 120
	case model.ShapeSweetheart:
		return 120, 60
	default:
		return 120, 120
	}
}

// EffectiveDimensions resolves the width and height of t, preferring the
// custom override and falling back to the shape default for any missing or
// non-positive value.
func EffectiveDimensions(t model.Table) (float64, float64) {
	w, h := DefaultDimensions(model.ParseShape(string(t.Shape)))
	if t.Width != nil && *t.Width > 0 {
		w = *t.Width
	}
	if t.Height != nil && *t.Height > 0 {
		h = *t.Height
	}
	return w, h
}

// SeatCount is the number of chairs SeatPositions returns for the inputs.
func SeatCount(shape model.TableShape, capacity int) int {
	if capacity <= 1 {
		return 1
	}
	if model.ParseShape(string(shape)) == model.ShapeSweetheart {
		return 2
	}
	return capacity
}

// SeatPositions returns chair offsets relative to the table centre, in
// seat index order.  Rotation is applied after the shape layout so the
// chairs follow the rotated outline.  Unknown shapes are laid out as round
// tables and non-positive dimensions use the shape default.
func SeatPositions(shape model.TableShape, capacity int, width, height, rotation float64) []Point {
	shape = model.ParseShape(string(shape))
	dw, dh := DefaultDimensions(shape)
	if width <= 0 || math.IsNaN(width) {
		width = dw
	}
	if height <= 0 || math.IsNaN(height) {
		height = dh
	}

	var seats []Point
	switch {
	case capacity <= 1:
		seats = []Point{{0, 0}}
	case shape == model.ShapeSweetheart:
		seats = sweetheartSeats(width)
	case shape == model.ShapeLong:
		seats = longSeats(capacity, width, height)
	case shape == model.ShapeSquare:
		seats = squareSeats(capacity, width, height)
	default:
		seats = roundSeats(capacity, width, height)
	}

	rotation = NormalizeDegrees(rotation)
	if rotation != 0 {
		for i := range seats {
			seats[i] = seats[i].Rotate(rotation)
		}
	}
	return seats
}

// TableSeats is SeatPositions for a stored table.
func TableSeats(t model.Table) []Point {
	w, h := EffectiveDimensions(t)
	return SeatPositions(t.Shape, t.Capacity, w, h, t.Rotation)
}

// roundSeats spaces chairs evenly on a circle starting at the top and
// running clockwise.
func roundSeats(n int, w, h float64) []Point {
	r := math.Min(w, h)/2 + SeatClearance
	step := 2 * math.Pi / float64(n)
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		a := -math.Pi/2 + float64(i)*step
		out[i] = Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return out
}

// longSeats puts ceil(n/2) chairs along the top edge, left to right, and
// the remainder along the bottom edge, right to left.
func longSeats(n int, w, h float64) []Point {
	top := (n + 1) / 2
	bottom := n - top
	out := make([]Point, 0, n)
	ty := -(h/2 + SeatClearance)
	by := h/2 + SeatClearance
	for i := 0; i < top; i++ {
		out = append(out, Point{X: -w/2 + (float64(i)+0.5)*w/float64(top), Y: ty})
	}
	for i := 0; i < bottom; i++ {
		out = append(out, Point{X: w/2 - (float64(i)+0.5)*w/float64(bottom), Y: by})
	}
	return out
}

// squareSeats walks the perimeter clockwise from the top-left corner and
// drops chair i at arc length (i+0.5)*P/n.  The edge a chair lands on is
// picked by cumulative arc length, so longer edges get more chairs.
func squareSeats(n int, w, h float64) []Point {
	perimeter := 2 * (w + h)
	step := perimeter / float64(n)
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		s := (float64(i) + 0.5) * step
		out[i] = perimeterPoint(s, w, h)
	}
	return out
}

func perimeterPoint(s, w, h float64) Point {
	hw, hh := w/2, h/2
	switch {
	case s < w: // top edge, left to right
		return Point{X: -hw + s, Y: -hh - SeatClearance}
	case s < w+h: // right edge, top to bottom
		return Point{X: hw + SeatClearance, Y: -hh + (s - w)}
	case s < 2*w+h: // bottom edge, right to left
		return Point{X: hw - (s - w - h), Y: hh + SeatClearance}
	default: // left edge, bottom to top
		return Point{X: -hw - SeatClearance, Y: hh - (s - 2*w - h)}
	}
}

func sweetheartSeats(w float64) []Point {
	dx := w / 2 * sweetheartSpread
	return []Point{{X: -dx, Y: 0}, {X: dx, Y: 0}}
}

// Outline returns the corners of the table rectangle relative to its
// centre after rotation, clockwise from top-left.
func Outline(width, height, rotation float64) []Point {
	hw, hh := width/2, height/2
	corners := []Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	for i := range corners {
		corners[i] = corners[i].Rotate(rotation)
	}
	return corners
}

// Bounds returns the canvas-space bounding box of a table at centre c,
// including its chairs.
func Bounds(t model.Table, c Point) Box {
	w, h := EffectiveDimensions(t)
	b := EmptyBox()
	for _, p := range Outline(w, h, t.Rotation) {
		b = b.Extend(c.Add(p))
	}
	for _, p := range TableSeats(t) {
		b = b.Extend(c.Add(p).Add(Point{SeatRadius, SeatRadius}))
		b = b.Extend(c.Add(p).Sub(Point{SeatRadius, SeatRadius}))
	}
	return b
}
