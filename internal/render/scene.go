// Package render draws a seating chart as an SVG document: tables with their
// chairs, guest avatars, and the grips of the selected table, all under the
// current pan/zoom transform.
package render

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/iliyamo/wedding-seating/internal/canvas"
	"github.com/iliyamo/wedding-seating/internal/geometry"
	"github.com/iliyamo/wedding-seating/internal/model"
)

const (
	handleSize     = 10.0
	rotateKnobGap  = 28.0
	deleteButtonR  = 10.0
	defaultWidth   = 1200.0
	defaultHeight  = 800.0
	avatarFontSize = 11.0
)

// Scene is everything needed to draw one chart.
type Scene struct {
	Width, Height float64 // viewport size in screen pixels
	Transform     model.CanvasTransform
	Tables        []model.Table
	Positions     []model.TablePosition
	Guests        []model.Guest
	Groups        []model.GuestGroup
	Assignments   []model.Assignment
	Selected      string
}

// Renderer turns a Scene into SVG.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render builds the SVG document.
func (r *Renderer) Render(s *Scene) (string, error) {
	if s == nil {
		return "", errors.New("scene is nil")
	}
	w, h := s.Width, s.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	scale := s.Transform.Scale
	if scale <= 0 {
		scale = 1
	}

	positions := make(map[string]model.TablePosition, len(s.Positions))
	for _, p := range s.Positions {
		positions[p.TableID] = p
	}
	guests := make(map[string]model.Guest, len(s.Guests))
	for _, g := range s.Guests {
		guests[g.ID] = g
	}
	seated := make(map[model.SeatRef]string, len(s.Assignments))
	for _, a := range s.Assignments {
		if _, taken := seated[a.Seat()]; !taken {
			seated[a.Seat()] = a.GuestID
		}
	}

	tables := append([]model.Table(nil), s.Tables...)
	// venue items first so tables draw on top of dance floors
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].IsVenueItem && !tables[j].IsVenueItem
	})

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(w), formatFloat(h), formatFloat(w), formatFloat(h))
	b.WriteString("\n")
	fmt.Fprintf(&b, `  <g id="viewport" transform="translate(%s %s) scale(%s)">`,
		formatFloat(s.Transform.X), formatFloat(s.Transform.Y), formatFloat(scale))
	b.WriteString("\n")

	for _, t := range tables {
		p := positions[t.ID]
		center := geometry.Point{X: p.X, Y: p.Y}
		for _, elem := range r.renderTable(t, center, seated, guests, s.Groups) {
			b.WriteString("    ")
			b.WriteString(elem)
			b.WriteString("\n")
		}
		if t.ID == s.Selected {
			for _, elem := range r.renderAffordances(t, center, scale) {
				b.WriteString("    ")
				b.WriteString(elem)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("  </g>\n")
	b.WriteString(`</svg>`)
	return b.String(), nil
}

func (r *Renderer) renderTable(t model.Table, c geometry.Point, seated map[model.SeatRef]string,
	guests map[string]model.Guest, groups []model.GuestGroup) []string {
	w, h := geometry.EffectiveDimensions(t)
	var out []string

	stroke := `stroke="#37474f" stroke-width="2" fill="#ffffff"`
	if t.IsVenueItem {
		stroke = `stroke="#90a4ae" stroke-width="2" stroke-dasharray="6 4" fill="#eceff1"`
	}
	id := html.EscapeString(t.ID)
	if model.ParseShape(string(t.Shape)) == model.ShapeRound {
		out = append(out, fmt.Sprintf(`<ellipse class="table" data-id="%s" cx="%s" cy="%s" rx="%s" ry="%s" transform="rotate(%s %s %s)" %s />`,
			id, formatFloat(c.X), formatFloat(c.Y), formatFloat(w/2), formatFloat(h/2),
			formatFloat(t.Rotation), formatFloat(c.X), formatFloat(c.Y), stroke))
	} else {
		pts := make([]string, 0, 4)
		for _, p := range geometry.Outline(w, h, t.Rotation) {
			pts = append(pts, formatPoint(c.Add(p)))
		}
		out = append(out, fmt.Sprintf(`<polygon class="table" data-id="%s" points="%s" %s />`,
			id, strings.Join(pts, " "), stroke))
	}
	out = append(out, fmt.Sprintf(`<text class="table-label" x="%s" y="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`,
		formatFloat(c.X), formatFloat(c.Y), html.EscapeString(t.Name)))

	if t.IsVenueItem {
		return out
	}
	for i, sp := range geometry.TableSeats(t) {
		p := c.Add(sp)
		guestID, ok := seated[model.SeatRef{TableID: t.ID, SeatIndex: i}]
		if !ok {
			out = append(out, fmt.Sprintf(`<circle class="seat" data-table="%s" data-seat="%d" cx="%s" cy="%s" r="%s" fill="#ffffff" stroke="#90a4ae" />`,
				id, i, formatFloat(p.X), formatFloat(p.Y), formatFloat(geometry.SeatRadius)))
			continue
		}
		g := guests[guestID]
		out = append(out, fmt.Sprintf(`<circle class="seat occupied" data-table="%s" data-seat="%d" data-guest="%s" cx="%s" cy="%s" r="%s" fill="%s" stroke="#37474f" />`,
			id, i, html.EscapeString(guestID), formatFloat(p.X), formatFloat(p.Y), formatFloat(geometry.SeatRadius), avatarColor(g, groups)))
		out = append(out, fmt.Sprintf(`<text class="avatar" x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="central">%s</text>`,
			formatFloat(p.X), formatFloat(p.Y), formatFloat(avatarFontSize), html.EscapeString(Initials(g.FullName))))
	}
	return out
}

// renderAffordances draws the resize grips, the rotate knob and the delete
// button.  Grip sizes are divided by scale so they stay constant on screen.
func (r *Renderer) renderAffordances(t model.Table, c geometry.Point, scale float64) []string {
	w, h := geometry.EffectiveDimensions(t)
	size := handleSize / scale
	var out []string
	for _, hd := range canvas.Handles {
		p := c.Add(hd.Anchor(w, h).Rotate(t.Rotation))
		out = append(out, fmt.Sprintf(`<rect class="handle" data-handle="%s" x="%s" y="%s" width="%s" height="%s" fill="#1e88e5" />`,
			hd, formatFloat(p.X-size/2), formatFloat(p.Y-size/2), formatFloat(size), formatFloat(size)))
	}

	top := c.Add(geometry.Point{Y: -h / 2}.Rotate(t.Rotation))
	knob := c.Add(geometry.Point{Y: -h/2 - rotateKnobGap/scale}.Rotate(t.Rotation))
	out = append(out, fmt.Sprintf(`<line class="rotate-arm" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#1e88e5" />`,
		formatFloat(top.X), formatFloat(top.Y), formatFloat(knob.X), formatFloat(knob.Y)))
	out = append(out, fmt.Sprintf(`<circle class="rotate-knob" cx="%s" cy="%s" r="%s" fill="#1e88e5" />`,
		formatFloat(knob.X), formatFloat(knob.Y), formatFloat(size/2)))

	del := c.Add(geometry.Point{X: w/2 + deleteButtonR/scale, Y: -h/2 - deleteButtonR/scale}.Rotate(t.Rotation))
	out = append(out, fmt.Sprintf(`<circle class="delete" data-id="%s" cx="%s" cy="%s" r="%s" fill="#e53935" />`,
		html.EscapeString(t.ID), formatFloat(del.X), formatFloat(del.Y), formatFloat(deleteButtonR/scale)))
	return out
}

func avatarColor(g model.Guest, groups []model.GuestGroup) string {
	if len(g.GroupIDs) > 0 {
		return GroupColor(g.GroupIDs[0])
	}
	for _, grp := range groups {
		for _, m := range grp.MemberIDs {
			if m == g.ID {
				return GroupColor(grp.ID)
			}
		}
	}
	return UngroupedColor
}

// Initials returns up to two upper-case initials: first and last word.
func Initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '&'
	})
	if len(words) == 0 {
		return "?"
	}
	first := []rune(words[0])
	out := string(unicode.ToUpper(first[0]))
	if len(words) > 1 {
		last := []rune(words[len(words)-1])
		out += string(unicode.ToUpper(last[0]))
	}
	return out
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p geometry.Point) string {
	return formatFloat(p.X) + "," + formatFloat(p.Y)
}
