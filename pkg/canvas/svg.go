package canvas

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/flowmap/pkg/fonts"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

// fontCharWidth approximates the advance of one character relative to the
// font size, for when the embedded font cannot be loaded.
const fontCharWidth = 0.55

// SVG is a [forcegraph.Canvas] that writes an SVG document.
type SVG struct {
	width, height float64
	background    color.Color
	embedFont     bool

	body  bytes.Buffer
	state svgState
	stack []svgState
	uris  map[*forcegraph.Icon]string
}

type svgState struct {
	m        gg.Matrix
	fill     color.Color
	stroke   color.Color
	width    float64
	fontSize float64
}

var _ forcegraph.Canvas = (*SVG)(nil)

// SVGOption configures an SVG canvas.
type SVGOption func(*SVG)

// WithBackground fills the document with c. Nil means transparent.
func WithBackground(c color.Color) SVGOption {
	return func(s *SVG) { s.background = c }
}

// WithEmbeddedFont embeds the label font as a data URI so the document
// renders the same without the font installed.
func WithEmbeddedFont() SVGOption {
	return func(s *SVG) { s.embedFont = true }
}

// NewSVG returns an empty width×height document.
func NewSVG(width, height float64, opts ...SVGOption) *SVG {
	s := &SVG{
		width:      width,
		height:     height,
		background: Background,
		state: svgState{
			m:        gg.Identity(),
			fill:     color.Black,
			stroke:   color.Black,
			width:    1,
			fontSize: 10,
		},
		uris: make(map[*forcegraph.Icon]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bytes returns the complete document.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	buf.WriteString("<style>\n")
	if s.embedFont {
		fmt.Fprintf(&buf, "  @font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }\n",
			fonts.FontFamily, fonts.RegularTTFBase64())
	}
	fmt.Fprintf(&buf, "  text { font-family: %s; }\n", fonts.FallbackFontFamily)
	buf.WriteString("</style>\n")
	if s.background != nil {
		hex, op := hexColor(s.background)
		fmt.Fprintf(&buf, `<rect width="100%%" height="100%%" fill="%s"%s/>`+"\n", hex, opacity("fill-opacity", op))
	}
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (s *SVG) Save() { s.stack = append(s.stack, s.state) }

// Restore pops the state pushed by the matching Save. Unbalanced calls are
// ignored.
func (s *SVG) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.state = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *SVG) Translate(x, y float64) { s.state.m = s.state.m.Translate(x, y) }
func (s *SVG) Rotate(angle float64)   { s.state.m = s.state.m.Rotate(angle) }
func (s *SVG) Scale(f float64)        { s.state.m = s.state.m.Scale(f, f) }

func (s *SVG) SetFillColor(c color.Color)   { s.state.fill = c }
func (s *SVG) SetStrokeColor(c color.Color) { s.state.stroke = c }
func (s *SVG) SetLineWidth(w float64)       { s.state.width = w }
func (s *SVG) SetFontSize(px float64)       { s.state.fontSize = px }

// MeasureText measures s with the metrics of the embedded font.
func (s *SVG) MeasureText(text string) float64 {
	face, err := fonts.Face(s.state.fontSize)
	if err != nil {
		return float64(len([]rune(text))) * s.state.fontSize * fontCharWidth
	}
	return float64(font.MeasureString(face, text)) / 64
}

func (s *SVG) FillText(text string, x, y float64) {
	var esc bytes.Buffer
	xml.EscapeText(&esc, []byte(text))
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="central"%s%s>%s</text>`+"\n",
		num(x), num(y), num(s.state.fontSize), s.fillAttr(), s.transformAttr(), esc.String())
}

func (s *SVG) FillCircle(x, y, r float64) {
	fmt.Fprintf(&s.body, `<circle cx="%s" cy="%s" r="%s"%s%s/>`+"\n",
		num(x), num(y), num(r), s.fillAttr(), s.transformAttr())
}

func (s *SVG) FillRect(x, y, w, h float64) {
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s"%s%s/>`+"\n",
		num(x), num(y), num(w), num(h), s.fillAttr(), s.transformAttr())
}

func (s *SVG) FillPolygon(pts []forcegraph.Point) {
	if len(pts) < 3 {
		return
	}
	var b bytes.Buffer
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(num(p.X))
		b.WriteByte(',')
		b.WriteString(num(p.Y))
	}
	fmt.Fprintf(&s.body, `<polygon points="%s"%s%s/>`+"\n", b.String(), s.fillAttr(), s.transformAttr())
}

func (s *SVG) StrokeLine(x1, y1, x2, y2 float64) {
	hex, op := hexColor(s.state.stroke)
	fmt.Fprintf(&s.body, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"%s stroke-width="%s"%s/>`+"\n",
		num(x1), num(y1), num(x2), num(y2), hex, opacity("stroke-opacity", op), num(s.state.width), s.transformAttr())
}

// DrawImage embeds the icon as a data URI: its source bytes when present,
// otherwise its decoded image re-encoded as PNG.
func (s *SVG) DrawImage(icon *forcegraph.Icon, x, y, w, h float64) {
	uri := s.dataURI(icon)
	if uri == "" {
		return
	}
	fmt.Fprintf(&s.body, `<image href="%s" x="%s" y="%s" width="%s" height="%s"%s/>`+"\n",
		uri, num(x), num(y), num(w), num(h), s.transformAttr())
}

func (s *SVG) dataURI(icon *forcegraph.Icon) string {
	if icon == nil {
		return ""
	}
	if uri, ok := s.uris[icon]; ok {
		return uri
	}
	mime, data := icon.MIME, icon.Data
	if len(data) == 0 && icon.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, icon.Image); err == nil {
			mime, data = "image/png", buf.Bytes()
		}
	}
	var uri string
	if len(data) > 0 {
		if mime == "" {
			mime = "image/svg+xml"
		}
		uri = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	s.uris[icon] = uri
	return uri
}

func (s *SVG) fillAttr() string {
	hex, op := hexColor(s.state.fill)
	return ` fill="` + hex + `"` + opacity("fill-opacity", op)
}

func (s *SVG) transformAttr() string {
	m := s.state.m
	if m == gg.Identity() {
		return ""
	}
	return fmt.Sprintf(` transform="matrix(%s %s %s %s %s %s)"`,
		fine(m.XX), fine(m.YX), fine(m.XY), fine(m.YY), num(m.X0), num(m.Y0))
}

func opacity(attr string, op float64) string {
	if op >= 1 {
		return ""
	}
	return " " + attr + `="` + num(op) + `"`
}
