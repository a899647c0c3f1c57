package canvas

import (
	"bytes"
	"context"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	d := func(x, y uint32) bool { return math.Abs(float64(x)-float64(y)) <= 0x200 }
	return d(ar, br) && d(ag, bg) && d(ab, bb) && d(aa, ba)
}

// =============================================================================
// Raster
// =============================================================================

func TestRasterFillCircle(t *testing.T) {
	r := NewRaster(40, 40, color.White)
	r.SetFillColor(forcegraph.NodeFill)
	r.FillCircle(20, 20, 10)

	img := r.Image()
	if got := img.At(20, 20); !sameColor(got, forcegraph.NodeFill) {
		t.Errorf("center = %v, want %v", got, forcegraph.NodeFill)
	}
	if got := img.At(2, 2); !sameColor(got, color.White) {
		t.Errorf("corner = %v, want white", got)
	}
}

func TestRasterSaveRestore(t *testing.T) {
	r := NewRaster(40, 40, nil)
	r.SetFillColor(color.Black)
	r.Save()
	r.SetFillColor(color.White)
	r.Translate(100, 100)
	r.Restore()
	r.Restore() // unbalanced, ignored

	r.FillRect(0, 0, 10, 10)
	if got := r.Image().At(5, 5); !sameColor(got, color.Black) {
		t.Errorf("pixel = %v, want black after restore", got)
	}
}

func TestRasterMeasureText(t *testing.T) {
	r := NewRaster(10, 10, nil)
	r.SetFontSize(1)
	unit := r.MeasureText("appa => appb")
	r.SetFontSize(8)
	full := r.MeasureText("appa => appb")

	if unit <= 0 {
		t.Fatalf("MeasureText at 1px = %v, want > 0", unit)
	}
	if full < 6*unit {
		t.Errorf("MeasureText at 8px = %v, want about 8x %v", full, unit)
	}
	if r.MeasureText("") != 0 {
		t.Error("MeasureText(\"\") != 0")
	}
}

func TestRasterDrawImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			src.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	r := NewRaster(20, 20, color.White)
	r.DrawImage(&forcegraph.Icon{Ref: "red", Image: src}, 5, 5, 10, 10)
	r.DrawImage(&forcegraph.Icon{Ref: "bytes only", Data: []byte("<svg/>")}, 0, 0, 4, 4)
	r.DrawImage(nil, 0, 0, 4, 4)

	if got := r.Image().At(10, 10); !sameColor(got, color.NRGBA{R: 255, A: 255}) {
		t.Errorf("icon pixel = %v, want red", got)
	}
	if got := r.Image().At(1, 1); !sameColor(got, color.White) {
		t.Errorf("pixel = %v, want untouched", got)
	}
}

func TestRasterPNG(t *testing.T) {
	r := NewRaster(30, 20, color.White)
	data, err := r.PNG()
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("size = %dx%d, want 30x20", b.Dx(), b.Dy())
	}
}

// =============================================================================
// SVG
// =============================================================================

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	d := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := d.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("malformed SVG: %v\n%s", err, doc)
		}
	}
}

func TestSVGElements(t *testing.T) {
	s := NewSVG(100, 50)
	s.SetFillColor(forcegraph.NodeFill)
	s.FillCircle(10, 10, 5)
	s.SetFillColor(forcegraph.LabelBackground)
	s.FillRect(0, 0, 4, 2)
	s.SetStrokeColor(color.Black)
	s.SetLineWidth(2)
	s.StrokeLine(0, 0, 10, 0)
	s.SetFillColor(color.Black)
	s.FillText("a < b & c", 5, 5)

	doc := s.Bytes()
	wellFormed(t, doc)
	out := string(doc)
	for _, want := range []string{
		`viewBox="0 0 100 50"`,
		`<circle cx="10" cy="10" r="5" fill="#ece0e6"/>`,
		`fill="#ffffff" fill-opacity="0.8"`,
		`stroke="#000000" stroke-width="2"`,
		`a &lt; b &amp; c`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		in      color.Color
		want    string
		opacity float64
	}{
		{color.Black, "#000000", 1},
		{color.White, "#ffffff", 1},
		{color.NRGBA{R: 0xec, G: 0xe0, B: 0xe6, A: 0xff}, "#ece0e6", 1},
		{color.NRGBA{R: 255, G: 255, B: 255, A: 204}, "#ffffff", 0.8},
		{color.Transparent, "#000000", 0},
	}
	for _, tt := range tests {
		hex, op := hexColor(tt.in)
		if hex != tt.want || math.Abs(op-tt.opacity) > 1e-9 {
			t.Errorf("hexColor(%v) = %s, %v, want %s, %v", tt.in, hex, op, tt.want, tt.opacity)
		}
	}
}

func TestSVGTransform(t *testing.T) {
	s := NewSVG(10, 10, WithBackground(nil))
	s.Save()
	s.Translate(5, 7)
	s.Rotate(math.Pi / 2)
	s.FillRect(0, 0, 1, 1)
	s.Restore()
	s.FillRect(0, 0, 1, 1)

	out := string(s.Bytes())
	if !strings.Contains(out, `transform="matrix(0 1 -1 0 5 7)"`) {
		t.Errorf("rotated rect transform missing:\n%s", out)
	}
	if strings.Count(out, "transform=") != 1 {
		t.Errorf("transform count = %d, want 1 (restored)", strings.Count(out, "transform="))
	}
	if strings.Contains(out, `height="100%"`) {
		t.Error("background drawn with nil background")
	}
}

func TestSVGImage(t *testing.T) {
	s := NewSVG(10, 10)
	icon := &forcegraph.Icon{Ref: "Stack.svg", MIME: "image/svg+xml", Data: []byte("<svg/>")}
	s.DrawImage(icon, 1, 2, 3, 4)
	s.DrawImage(icon, 1, 2, 3, 4)
	s.DrawImage(&forcegraph.Icon{Ref: "missing"}, 0, 0, 1, 1)

	out := string(s.Bytes())
	if got := strings.Count(out, `href="data:image/svg+xml;base64,PHN2Zy8+"`); got != 2 {
		t.Errorf("data URI images = %d, want 2", got)
	}
	if strings.Count(out, "<image") != 2 {
		t.Error("icon without data was drawn")
	}
}

func TestSVGEmbeddedFont(t *testing.T) {
	plain := NewSVG(10, 10).Bytes()
	embedded := NewSVG(10, 10, WithEmbeddedFont()).Bytes()
	if bytes.Contains(plain, []byte("@font-face")) {
		t.Error("font embedded without WithEmbeddedFont")
	}
	if !bytes.Contains(embedded, []byte("data:font/ttf;base64,")) {
		t.Error("font not embedded")
	}
}

func TestSVGMeasureTextMatchesRaster(t *testing.T) {
	s, r := NewSVG(10, 10), NewRaster(10, 10, nil)
	s.SetFontSize(4)
	r.SetFontSize(4)
	a, b := s.MeasureText("appa => appb"), r.MeasureText("appa => appb")
	if math.Abs(a-b) > 0.5 {
		t.Errorf("SVG width %v, raster width %v", a, b)
	}
}

// =============================================================================
// Paint
// =============================================================================

type gridEngine struct{ nodes []*forcegraph.Node }

func (e *gridEngine) SetLinkDistance(float64)   {}
func (e *gridEngine) SetChargeStrength(float64) {}
func (e *gridEngine) Start(_ context.Context, nodes []*forcegraph.Node, links []*forcegraph.Link) error {
	e.nodes = nodes
	forcegraph.ResolveLinks(nodes, links)
	return nil
}
func (e *gridEngine) Tick() bool {
	for i, n := range e.nodes {
		n.Place(float64(160*i), 0)
	}
	return false
}

func TestPaint(t *testing.T) {
	g := apps.Process(
		[]apps.ApplicationRecord{{Name: "App A", Version: "1.0"}, {Name: "App B", Version: "2.0"}},
		[]apps.FlowRecord{{SourceApplication: "App A", TargetApplication: "App B"}},
		apps.BuildOptions{},
	)
	v, err := forcegraph.Activate(context.Background(), g, &gridEngine{}, forcegraph.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	v.Tick()

	s := NewSVG(400, 200)
	tr := Paint(v, s, 400, 200)
	if tr.Zoom != 2 {
		t.Errorf("Zoom = %v, want 2", tr.Zoom)
	}
	out := string(s.Bytes())
	wellFormed(t, []byte(out))
	if strings.Count(out, "<circle") != 2 {
		t.Errorf("circles = %d, want 2", strings.Count(out, "<circle"))
	}
	if !strings.Contains(out, "appa =&gt; appb") {
		t.Error("link label missing")
	}

	r := NewRaster(400, 200, color.White)
	Paint(v, r, 400, 200)
	// Node A sits at the left edge of the padded area.
	if got := r.Image().At(40, 100); sameColor(got, color.White) {
		t.Errorf("pixel at node A = %v, want painted", got)
	}
}
