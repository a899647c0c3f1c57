// Package fonts provides the label font shared by the raster and SVG
// canvases.
//
// Go Regular (golang.org/x/image/font/gofont) is compiled into the binary,
// so text measured on the raster canvas matches text drawn in SVG output
// that embeds the same font.
package fonts

import (
	"encoding/base64"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family name of the embedded font.
const FontFamily = "Go Regular"

// FallbackFontFamily lists fallbacks for viewers that ignore embedded fonts.
const FallbackFontFamily = `'Go Regular', 'Helvetica Neue', Arial, sans-serif`

// RegularTTF returns the TTF font data.
func RegularTTF() []byte {
	return goregular.TTF
}

var (
	ttfBase64     string
	ttfBase64Once sync.Once
)

// RegularTTFBase64 returns the TTF font data as a base64 string.
// The result is cached after first computation.
func RegularTTFBase64() string {
	ttfBase64Once.Do(func() {
		ttfBase64 = base64.StdEncoding.EncodeToString(goregular.TTF)
	})
	return ttfBase64
}

var (
	regular     *truetype.Font
	regularErr  error
	regularOnce sync.Once

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// Regular returns the parsed font. It is parsed once.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Face returns a face of the regular font at px pixels (72 DPI, so points
// equal pixels). Faces are cached per size and shared; callers must not
// close them.
func Face(px float64) (font.Face, error) {
	facesMu.Lock()
	defer facesMu.Unlock()

	if f, ok := faces[px]; ok {
		return f, nil
	}
	ft, err := Regular()
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(ft, &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingNone})
	faces[px] = f
	return f, nil
}
