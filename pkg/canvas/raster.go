package canvas

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"github.com/matzehuels/flowmap/pkg/fonts"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

// Raster is a [forcegraph.Canvas] over an RGBA image.
type Raster struct {
	dc    *gg.Context
	state rasterState
	stack []rasterState
}

type rasterState struct {
	fill     color.Color
	stroke   color.Color
	width    float64
	fontSize float64
}

var _ forcegraph.Canvas = (*Raster)(nil)

// NewRaster returns a width×height canvas filled with bg. A nil bg leaves
// the image transparent.
func NewRaster(width, height int, bg color.Color) *Raster {
	dc := gg.NewContext(width, height)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	r := &Raster{
		dc:    dc,
		state: rasterState{fill: color.Black, stroke: color.Black, width: 1},
	}
	r.SetFontSize(10)
	return r
}

// Image returns the painted image.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

// PNG returns the image encoded as PNG.
func (r *Raster) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Raster) Save() {
	r.stack = append(r.stack, r.state)
	r.dc.Push()
}

// Restore pops the state pushed by the matching Save. Unbalanced calls are
// ignored.
func (r *Raster) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.dc.Pop()
	r.applyFont()
}

func (r *Raster) Translate(x, y float64) { r.dc.Translate(x, y) }
func (r *Raster) Rotate(angle float64)   { r.dc.Rotate(angle) }
func (r *Raster) Scale(s float64)        { r.dc.Scale(s, s) }

func (r *Raster) SetFillColor(c color.Color)   { r.state.fill = c }
func (r *Raster) SetStrokeColor(c color.Color) { r.state.stroke = c }
func (r *Raster) SetLineWidth(w float64)       { r.state.width = w }

func (r *Raster) SetFontSize(px float64) {
	r.state.fontSize = px
	r.applyFont()
}

func (r *Raster) applyFont() {
	if face, err := fonts.Face(r.state.fontSize); err == nil {
		r.dc.SetFontFace(face)
	}
}

func (r *Raster) MeasureText(s string) float64 {
	w, _ := r.dc.MeasureString(s)
	return w
}

func (r *Raster) FillText(s string, x, y float64) {
	r.dc.SetColor(r.state.fill)
	r.dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

func (r *Raster) FillCircle(x, y, radius float64) {
	r.dc.DrawCircle(x, y, radius)
	r.fill()
}

func (r *Raster) FillRect(x, y, w, h float64) {
	r.dc.DrawRectangle(x, y, w, h)
	r.fill()
}

func (r *Raster) FillPolygon(pts []forcegraph.Point) {
	if len(pts) < 3 {
		return
	}
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.ClosePath()
	r.fill()
}

func (r *Raster) StrokeLine(x1, y1, x2, y2 float64) {
	r.dc.SetColor(r.state.stroke)
	r.dc.SetLineWidth(r.state.width)
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.Stroke()
}

// DrawImage draws the icon's decoded image scaled into the box. Icons
// without a decoded image are skipped.
func (r *Raster) DrawImage(icon *forcegraph.Icon, x, y, w, h float64) {
	if icon == nil || icon.Image == nil {
		return
	}
	b := icon.Image.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	r.dc.Push()
	r.dc.Translate(x, y)
	r.dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	r.dc.DrawImage(icon.Image, -b.Min.X, -b.Min.Y)
	r.dc.Pop()
}

func (r *Raster) fill() {
	r.dc.SetColor(r.state.fill)
	r.dc.Fill()
}
