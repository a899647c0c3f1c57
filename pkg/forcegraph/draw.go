package forcegraph

import (
	"image/color"
	"math"
)

// =============================================================================
// Styling
// =============================================================================

const (
	// NodeSize is the node circle diameter at scale 1.
	NodeSize = 10.0
	// NodeFontSize is the node name font size, in pixels.
	NodeFontSize = 8.0
	// NodeRelSize is the radius the default link rendering reserves around
	// each endpoint, so arrows stop at the node rim.
	NodeRelSize = 15.0

	// LinkWidth is the default link stroke width.
	LinkWidth = 2.0
	// ArrowLength is the default link arrow length.
	ArrowLength = 10.0

	arrowWHRatio   = 1.6
	arrowVLenRatio = 0.2

	// LabelOffset is the perpendicular distance of a label from its link.
	LabelOffset = 5.0
	// LabelMaxFontSize caps the label font size.
	LabelMaxFontSize = 4.0
	// LabelPadding is the label background padding, relative to font size.
	LabelPadding = 0.2
	// MinLabelLength is the shortest link that still gets a label.
	MinLabelLength = 1e-6
)

var (
	NodeFill        = color.NRGBA{R: 0xec, G: 0xe0, B: 0xe6, A: 0xff}
	NodeTextColor   = color.Black
	LinkColor       = color.Black
	LabelBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 204}
	LabelColor      = color.NRGBA{R: 169, G: 169, B: 169, A: 255} // darkgrey
)

// =============================================================================
// Callbacks
// =============================================================================

// DrawNode paints n in place of the default node rendering: a circle of
// diameter NodeSize*scale, the icon centered at half that size, and the
// node name NodeSize*scale below the center. Unplaced nodes are skipped.
func DrawNode(n *Node, c Canvas, scale float64) {
	if !n.Placed() {
		return
	}
	size := NodeSize * scale

	c.SetFillColor(NodeFill)
	c.FillCircle(n.X, n.Y, size/2)

	if n.Image != nil {
		c.DrawImage(n.Image, n.X-size/4, n.Y-size/4, size/2, size/2)
	}

	c.SetFontSize(NodeFontSize)
	c.SetFillColor(NodeTextColor)
	c.FillText(n.Name, n.X, n.Y+size)
}

// DrawDefaultLink paints the link line and an arrow whose tip touches the
// target node rim. Unresolved links are skipped. Link geometry is in graph
// units, so scale is unused; it keeps the callback signatures uniform.
func DrawDefaultLink(l *Link, c Canvas, scale float64) {
	if !l.Resolved() {
		return
	}
	s, t := l.Source, l.Target

	c.SetStrokeColor(LinkColor)
	c.SetLineWidth(LinkWidth)
	c.StrokeLine(s.X, s.Y, t.X, t.Y)

	if arrow, ok := arrowHead(s.Pos(), t.Pos()); ok {
		c.SetFillColor(LinkColor)
		c.FillPolygon(arrow[:])
	}
}

// DrawLink paints the link label on top of the default link rendering. The
// label sits at the link midpoint pushed LabelOffset pixels perpendicular to
// the line, rotated to follow the line while staying upright. Its font size
// shrinks to fit the link length, capped at LabelMaxFontSize. Unresolved
// links, unlabeled links and zero-length links draw nothing.
func DrawLink(l *Link, c Canvas, scale float64) {
	if !l.Resolved() || l.Label == "" {
		return
	}
	p, ok := PlaceLabel(l.Source.Pos(), l.Target.Pos(), LabelOffset)
	if !ok {
		return
	}

	// Measure at 1px to derive the fitting size, then at the final size.
	c.SetFontSize(1)
	fontSize := LabelFontSize(p.Length, c.MeasureText(l.Label))
	if fontSize <= 0 {
		return
	}
	c.SetFontSize(fontSize)
	textW := c.MeasureText(l.Label)
	pad := fontSize * LabelPadding
	bgW, bgH := textW+pad, fontSize+pad

	c.Save()
	c.Translate(p.X, p.Y)
	c.Rotate(p.Angle)

	c.SetFillColor(LabelBackground)
	c.FillRect(-bgW/2, -bgH/2, bgW, bgH)

	c.SetFillColor(LabelColor)
	c.FillText(l.Label, 0, 0)
	c.Restore()
}

// =============================================================================
// Geometry
// =============================================================================

// LabelPlacement is where and how a link label is drawn.
type LabelPlacement struct {
	X, Y   float64 // anchor
	Angle  float64 // rotation in radians, within [-π/2, π/2]
	Length float64 // link length
}

// PlaceLabel computes the label placement for a link from s to t. The
// anchor is the midpoint shifted offset pixels along the perpendicular
// (dy, -dx)/len. It returns false for links shorter than MinLabelLength.
func PlaceLabel(s, t Point, offset float64) (LabelPlacement, bool) {
	dx, dy := t.X-s.X, t.Y-s.Y
	length := math.Hypot(dx, dy)
	if !(length >= MinLabelLength) {
		return LabelPlacement{}, false
	}
	k := offset / length
	return LabelPlacement{
		X:      s.X + dx/2 + k*dy,
		Y:      s.Y + dy/2 - k*dx,
		Angle:  UprightAngle(dx, dy),
		Length: length,
	}, true
}

// UprightAngle returns the direction of (dx, dy) folded into [-π/2, π/2] so
// text drawn along it is never upside down.
func UprightAngle(dx, dy float64) float64 {
	a := math.Atan2(dy, dx)
	if a > math.Pi/2 {
		a -= math.Pi
	} else if a < -math.Pi/2 {
		a += math.Pi
	}
	return a
}

// LabelFontSize returns the font size that fits a label of unitWidth (its
// width at 1px) into length, capped at LabelMaxFontSize.
func LabelFontSize(length, unitWidth float64) float64 {
	if !(unitWidth > 0) {
		return LabelMaxFontSize
	}
	return math.Min(LabelMaxFontSize, length/unitWidth)
}

// arrowHead returns the arrow polygon for a link from s to t: tip, right
// wing, inner vertex, left wing. It returns false when the endpoints overlap.
func arrowHead(s, t Point) ([4]Point, bool) {
	dx, dy := t.X-s.X, t.Y-s.Y
	length := math.Hypot(dx, dy)
	if !(length > MinLabelLength) {
		return [4]Point{}, false
	}

	at := func(d float64) Point {
		r := d / length
		return Point{X: s.X + dx*r, Y: s.Y + dy*r}
	}
	pos := NodeRelSize + ArrowLength + (length-2*NodeRelSize-ArrowLength)
	head := at(pos)
	tail := at(pos - ArrowLength)
	inner := at(pos - ArrowLength*(1-arrowVLenRatio))

	half := ArrowLength / arrowWHRatio / 2
	a := math.Atan2(head.Y-tail.Y, head.X-tail.X) - math.Pi/2
	wx, wy := half*math.Cos(a), half*math.Sin(a)

	return [4]Point{
		head,
		{X: tail.X + wx, Y: tail.Y + wy},
		inner,
		{X: tail.X - wx, Y: tail.Y - wy},
	}, true
}
