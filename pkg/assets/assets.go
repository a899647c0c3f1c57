// Package assets resolves node icon references to drawable icons.
//
// The icons named by the architecture table in package apps are embedded in
// the binary. A [Loader] reads an icon from an override directory when one
// is configured and falls back to the embedded set, then decodes it once:
//
//   - SVG sources are rasterized with rsvg-convert ([render.ToPNGSize])
//   - PNG and JPEG sources are decoded directly
//
// Raster forms are scaled to the loader's pixel size. A failed decode is not
// an error: the icon keeps its source bytes, which the SVG canvas can still
// embed, and has no raster image, so the raster canvas skips it.
package assets

import (
	"bytes"
	"context"
	"embed"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/render"
)

//go:embed icons/*.svg
var embedded embed.FS

// DefaultSize is the raster icon size in pixels.
const DefaultSize = 64

// Names returns the embedded icon references, sorted.
func Names() []string {
	entries, _ := fs.ReadDir(embedded, "icons")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Rasterizer converts an SVG document to a width×height PNG.
type Rasterizer func(svg []byte, width, height int) ([]byte, error)

// Loader resolves and caches icons. It is safe for concurrent use.
type Loader struct {
	dir       string
	size      int
	rasterize Rasterizer
	store     cache.Cache
	keyer     cache.Keyer
	logger    *log.Logger

	mu    sync.Mutex
	icons map[string]*forcegraph.Icon
}

var _ forcegraph.IconSource = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithDir reads icons from dir before the embedded set.
func WithDir(dir string) Option { return func(l *Loader) { l.dir = dir } }

// WithSize sets the raster icon size in pixels.
func WithSize(px int) Option {
	return func(l *Loader) {
		if px > 0 {
			l.size = px
		}
	}
}

// WithRasterizer replaces the SVG rasterizer.
func WithRasterizer(r Rasterizer) Option { return func(l *Loader) { l.rasterize = r } }

// WithCache keeps rasterized SVG icons in c so rsvg-convert runs once per
// icon and size across processes.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(l *Loader) { l.store, l.keyer = c, k }
}

// WithLogger sets the logger for decode failures.
func WithLogger(logger *log.Logger) Option { return func(l *Loader) { l.logger = logger } }

// New returns a loader over the embedded icons.
func New(opts ...Option) *Loader {
	l := &Loader{
		size:      DefaultSize,
		rasterize: render.ToPNGSize,
		store:     cache.NewNullCache(),
		keyer:     cache.NewDefaultKeyer(),
		logger:    log.New(io.Discard),
		icons:     make(map[string]*forcegraph.Icon),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the icon for ref, or nil when no source exists. Results,
// including misses, are cached per reference.
func (l *Loader) Load(ref string) *forcegraph.Icon {
	l.mu.Lock()
	defer l.mu.Unlock()

	if icon, ok := l.icons[ref]; ok {
		return icon
	}
	icon := l.load(ref)
	l.icons[ref] = icon
	return icon
}

func (l *Loader) load(ref string) *forcegraph.Icon {
	data, err := l.Source(ref)
	if err != nil {
		l.logger.Debug("icon source missing", "icon", ref, "err", err)
		return nil
	}
	icon := &forcegraph.Icon{Ref: ref, MIME: mimeOf(ref), Data: data}

	img, err := l.decode(icon)
	if err != nil {
		l.logger.Debug("icon not rasterized", "icon", ref, "err", err)
		return icon
	}
	icon.Image = l.fit(img)
	return icon
}

// Source returns the raw bytes of ref from the override directory or the
// embedded set.
func (l *Loader) Source(ref string) ([]byte, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, fs.ErrNotExist
	}
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, ref))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return embedded.ReadFile("icons/" + ref)
}

func (l *Loader) decode(icon *forcegraph.Icon) (image.Image, error) {
	if icon.MIME != "image/svg+xml" {
		img, _, err := image.Decode(bytes.NewReader(icon.Data))
		return img, err
	}

	ctx := context.Background()
	key := l.keyer.IconKey(icon.Ref+":"+cache.Hash(icon.Data)[:12], l.size)
	if data, ok, _ := l.store.Get(ctx, key); ok {
		if img, err := png.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}

	data, err := l.rasterize(icon.Data, l.size, l.size)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := l.store.Set(ctx, key, data, cache.IconTTL); err != nil {
		l.logger.Debug("icon cache write failed", "icon", icon.Ref, "err", err)
	}
	return img, nil
}

// fit scales img to the loader size unless it already matches.
func (l *Loader) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == l.size && b.Dy() == l.size {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, l.size, l.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func mimeOf(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
