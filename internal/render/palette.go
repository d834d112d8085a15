package render

import "github.com/cespare/xxhash/v2"

// Palette is the fixed set of group colours.
var Palette = []string{
	"#e57373", "#f06292", "#ba68c8", "#9575cd",
	"#7986cb", "#64b5f6", "#4fc3f7", "#4dd0e1",
	"#4db6ac", "#81c784", "#aed581", "#dce775",
	"#ffd54f", "#ffb74d", "#ff8a65", "#a1887f",
}

// UngroupedColor fills avatars of guests without a group.
const UngroupedColor = "#b0bec5"

// GroupColor hashes a group id into the palette.  The same id always gets
// the same colour.
func GroupColor(groupID string) string {
	return Palette[xxhash.Sum64String(groupID)%uint64(len(Palette))]
}
