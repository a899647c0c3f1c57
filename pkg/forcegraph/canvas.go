package forcegraph

import (
	"image"
	"image/color"
)

// Point is a position in graph coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Canvas is the 2D drawing surface the callbacks paint on. It mirrors the
// subset of an HTML canvas context the callbacks need. Coordinates are
// affected by the current transform; Save and Restore push and pop it
// together with the fill, stroke and font state.
type Canvas interface {
	Save()
	Restore()
	Translate(x, y float64)
	Rotate(angle float64)
	Scale(s float64)

	SetFillColor(c color.Color)
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)
	// SetFontSize selects the sans-serif label font at px pixels.
	SetFontSize(px float64)
	// MeasureText returns the advance width of s in the current font.
	MeasureText(s string) float64

	// FillText draws s centered horizontally and vertically on (x, y).
	FillText(s string, x, y float64)
	FillCircle(x, y, r float64)
	FillRect(x, y, w, h float64)
	FillPolygon(pts []Point)
	StrokeLine(x1, y1, x2, y2 float64)
	// DrawImage draws icon scaled into the box at (x, y) of size w×h.
	// Canvases that cannot use the icon's representation skip it.
	DrawImage(icon *Icon, x, y, w, h float64)
}

// Icon is a resolved icon asset. Data holds the encoded source (for
// vector surfaces) and Image the decoded raster form, either of which may
// be missing.
type Icon struct {
	Ref   string
	MIME  string
	Data  []byte
	Image image.Image
}

// IconSource resolves icon references to assets. Load returns nil when the
// reference cannot be resolved; nodes are then drawn without an icon.
type IconSource interface {
	Load(ref string) *Icon
}
