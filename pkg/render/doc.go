// Package render turns application graphs into viewable artifacts.
//
// # Overview
//
// This package holds the format conversion shared by every renderer. The
// renderers themselves live in subpackages:
//
//   - [nodelink]: the simple directed-graph view, laid out by Graphviz
//   - [github.com/matzehuels/flowmap/pkg/canvas]: the force-directed full
//     view, drawn frame by frame
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// When rsvg-convert is missing, both return [ErrConverterMissing].
//
// [nodelink]: github.com/matzehuels/flowmap/pkg/render/nodelink
package render
