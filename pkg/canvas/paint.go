package canvas

import (
	"image/color"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

// Padding is the margin Paint keeps around the node bounds, in pixels.
const Padding = 40.0

// Background is the default canvas background.
var Background color.Color = color.White

// Paint draws the current frame of v onto c, fitted into a width×height
// surface. It returns the transform it applied.
func Paint(v *forcegraph.View, c forcegraph.Canvas, width, height float64) forcegraph.Transform {
	t := forcegraph.Fit(v.Bounds(), width, height, Padding)
	c.Save()
	t.Apply(c)
	v.DrawFrame(c, t.Zoom)
	c.Restore()
	return t
}

// num formats v with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// fine formats v with at most four decimals, for matrix coefficients.
func fine(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

// hexColor returns c as #rrggbb and its opacity in [0, 1]. A fully
// transparent color is black.
func hexColor(c color.Color) (string, float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000", 0
	}
	return cf.Hex(), float64(n.A) / 255
}
