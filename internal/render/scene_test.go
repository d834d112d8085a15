package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/model"
)

func sampleScene() *Scene {
	return &Scene{
		Width: 800, Height: 600,
		Transform: model.CanvasTransform{X: 10, Y: 20, Scale: 2},
		Tables: []model.Table{
			{ID: "t1", Name: "Family <1>", Shape: model.ShapeRound, Capacity: 4},
			{ID: "t2", Name: "Head", Shape: model.ShapeLong, Capacity: 6, Rotation: 90},
			{ID: "floor", Name: "Dance floor", Shape: model.ShapeSquare, Capacity: 1, IsVenueItem: true},
		},
		Positions: []model.TablePosition{
			{TableID: "t1", X: 100, Y: 100},
			{TableID: "t2", X: 400, Y: 100, Rotation: 90},
		},
		Guests: []model.Guest{
			{ID: "g1", FullName: "ana maria lopez", GroupIDs: []string{"fam"}},
			{ID: "g2", FullName: "Ben"},
		},
		Groups:      []model.GuestGroup{{ID: "fam", MemberIDs: []string{"g1"}}},
		Assignments: []model.Assignment{{GuestID: "g1", TableID: "t1", SeatIndex: 0}, {GuestID: "g2", TableID: "t2", SeatIndex: 5}},
		Selected:    "t2",
	}
}

func TestRenderComposesScene(t *testing.T) {
	out, err := NewRenderer().Render(sampleScene())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<?xml`))
	assert.Contains(t, out, `viewBox="0 0 800 600"`)
	assert.Contains(t, out, `transform="translate(10 20) scale(2)"`)
	assert.Contains(t, out, `<ellipse class="table" data-id="t1"`)
	assert.Contains(t, out, `<polygon class="table" data-id="t2"`)
	assert.Contains(t, out, "Family &lt;1&gt;")

	assert.Equal(t, 10, strings.Count(out, `class="seat`), "4 + 6 chairs, none for the venue item")
	assert.Equal(t, 2, strings.Count(out, `class="seat occupied"`))
	assert.Contains(t, out, ">AL</text>")
	assert.Contains(t, out, ">B</text>")
	assert.Contains(t, out, `fill="`+GroupColor("fam")+`"`)
	assert.Contains(t, out, `fill="`+UngroupedColor+`"`)

	assert.Equal(t, 8, strings.Count(out, `class="handle"`))
	assert.Contains(t, out, `class="rotate-knob"`)
	assert.Contains(t, out, `class="delete" data-id="t2"`)
}

func TestRenderVenueItemsFirst(t *testing.T) {
	out, err := NewRenderer().Render(sampleScene())
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `data-id="floor"`), strings.Index(out, `data-id="t1"`))
}

func TestRenderNoSelectionNoHandles(t *testing.T) {
	s := sampleScene()
	s.Selected = ""
	out, err := NewRenderer().Render(s)
	require.NoError(t, err)
	assert.NotContains(t, out, `class="handle"`)
}

func TestRenderNilScene(t *testing.T) {
	_, err := NewRenderer().Render(nil)
	assert.Error(t, err)
}

func TestGroupColorIsStable(t *testing.T) {
	c := GroupColor("group-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, c, GroupColor("group-42"))
	}
	assert.Contains(t, Palette, c)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("ana maria lopez"))
	assert.Equal(t, "JD", Initials("Jean-Dupont"))
	assert.Equal(t, "É", Initials("élodie"))
	assert.Equal(t, "?", Initials("   "))
}
