package canvas

import (
	"math"
	"strings"

	"github.com/iliyamo/wedding-seating/internal/geometry"
)

// Minimum table size accepted by a resize.
const (
	MinTableWidth  = 60.0
	MinTableHeight = 40.0
)

// Handle names a resize grip by compass direction.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Handles lists every grip in drawing order.
var Handles = []Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

// ResizeMode distinguishes corner grips, which change both dimensions,
// from side grips, which change one.
type ResizeMode string

const (
	ResizeCorner ResizeMode = "corner"
	ResizeSide   ResizeMode = "side"
)

// Valid reports whether h is one of the eight grips.
func (h Handle) Valid() bool {
	for _, k := range Handles {
		if h == k {
			return true
		}
	}
	return false
}

// Mode returns the resize mode of the grip.
func (h Handle) Mode() ResizeMode {
	if len(h) == 2 {
		return ResizeCorner
	}
	return ResizeSide
}

// Anchor returns the grip position relative to the unrotated table centre.
func (h Handle) Anchor(width, height float64) geometry.Point {
	var p geometry.Point
	s := string(h)
	if strings.Contains(s, "e") {
		p.X = width / 2
	} else if strings.Contains(s, "w") {
		p.X = -width / 2
	}
	if strings.Contains(s, "s") {
		p.Y = height / 2
	} else if strings.Contains(s, "n") {
		p.Y = -height / 2
	}
	return p
}

// ResizeDimensions computes the new table size for a grip dragged by delta
// (canvas units, screen axes).  The delta is first turned into the table's
// unrotated frame so a grip always moves along its own edge no matter how
// the table is rotated.  Results are floored at MinTableWidth and
// MinTableHeight.
func ResizeDimensions(h Handle, startW, startH, rotation float64, delta geometry.Point) (float64, float64) {
	local := delta.Rotate(-rotation)
	w, hgt := startW, startH
	s := string(h)
	switch {
	case strings.Contains(s, "e"):
		w = startW + local.X
	case strings.Contains(s, "w"):
		w = startW - local.X
	}
	switch {
	case strings.Contains(s, "s"):
		hgt = startH + local.Y
	case strings.Contains(s, "n"):
		hgt = startH - local.Y
	}
	return math.Max(w, MinTableWidth), math.Max(hgt, MinTableHeight)
}
