package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/cache"
)

// solidPNG returns a w×h PNG filled with c.
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// countingRasterizer returns solid PNGs and counts calls.
type countingRasterizer struct {
	t     *testing.T
	calls int
	err   error
}

func (r *countingRasterizer) rasterize(svg []byte, w, h int) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return solidPNG(r.t, w, h, color.Black), nil
}

func TestNamesCoverIconTable(t *testing.T) {
	names := map[string]bool{}
	for _, n := range Names() {
		names[n] = true
	}
	for _, ref := range apps.IconRefs() {
		if !names[ref] {
			t.Errorf("icon %s is not embedded", ref)
		}
	}
}

func TestLoadSVG(t *testing.T) {
	r := &countingRasterizer{t: t}
	l := New(WithRasterizer(r.rasterize), WithSize(32))

	icon := l.Load("Stack.svg")
	if icon == nil {
		t.Fatal("Load(Stack.svg) = nil")
	}
	if icon.MIME != "image/svg+xml" || len(icon.Data) == 0 {
		t.Errorf("icon = %s %d bytes, want svg source", icon.MIME, len(icon.Data))
	}
	if icon.Image == nil || icon.Image.Bounds().Dx() != 32 {
		t.Errorf("Image = %v, want 32px raster", icon.Image)
	}

	if again := l.Load("Stack.svg"); again != icon {
		t.Error("Load() not cached per reference")
	}
	if r.calls != 1 {
		t.Errorf("rasterizer calls = %d, want 1", r.calls)
	}
}

func TestLoadRasterFailureKeepsSource(t *testing.T) {
	r := &countingRasterizer{t: t, err: errors.New("rsvg-convert not found")}
	icon := New(WithRasterizer(r.rasterize)).Load("vite.svg")
	if icon == nil {
		t.Fatal("Load() = nil, want icon without raster")
	}
	if icon.Image != nil {
		t.Error("Image set after rasterizer failure")
	}
	if len(icon.Data) == 0 {
		t.Error("source bytes dropped")
	}
}

func TestLoadMissing(t *testing.T) {
	l := New(WithRasterizer((&countingRasterizer{t: t}).rasterize))
	for _, ref := range []string{"", "Nope.svg", "../assets.go", "icons/Stack.svg", ".hidden"} {
		if icon := l.Load(ref); icon != nil {
			t.Errorf("Load(%q) = %v, want nil", ref, icon)
		}
	}
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Stack.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), solidPNG(t, 16, 8, color.White), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(WithDir(dir), WithRasterizer((&countingRasterizer{t: t}).rasterize))
	if icon := l.Load("Stack.svg"); string(icon.Data) != "<svg/>" {
		t.Errorf("Stack.svg = %q, want override", icon.Data)
	}
	if icon := l.Load("Wrench.svg"); icon == nil || len(icon.Data) < 10 {
		t.Error("Wrench.svg did not fall back to embedded")
	}

	logo := l.Load("logo.png")
	if logo == nil || logo.MIME != "image/png" {
		t.Fatalf("logo.png = %v", logo)
	}
	if b := logo.Image.Bounds(); b.Dx() != DefaultSize || b.Dy() != DefaultSize {
		t.Errorf("logo size = %v, want scaled to %d", b, DefaultSize)
	}
}

func TestLoadUsesCache(t *testing.T) {
	store := cache.NewMemoryCache()
	first := &countingRasterizer{t: t}
	New(WithRasterizer(first.rasterize), WithCache(store, cache.NewDefaultKeyer())).Load("Buildings.svg")
	if store.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", store.Len())
	}

	second := &countingRasterizer{t: t}
	icon := New(WithRasterizer(second.rasterize), WithCache(store, cache.NewDefaultKeyer())).Load("Buildings.svg")
	if second.calls != 0 {
		t.Errorf("rasterizer calls = %d, want 0 (cached)", second.calls)
	}
	if icon.Image == nil {
		t.Error("cached raster not decoded")
	}
}
