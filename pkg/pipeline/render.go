package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/canvas"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/render"
	"github.com/matzehuels/flowmap/pkg/render/nodelink"
)

// =============================================================================
// Full View
// =============================================================================

// RenderFull generates full-view outputs from a settled view.
func RenderFull(v *forcegraph.View, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)
	var svg []byte

	for _, format := range opts.Render.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG, FormatPDF:
			if svg == nil {
				svg = fullSVG(v, opts)
			}
			data = svg
			if format == FormatPDF {
				data, err = render.ToPDF(svg)
			}
		case FormatPNG:
			data, err = fullPNG(v, opts)
		case FormatJSON:
			data, err = MarshalView(v)
		default:
			return nil, fmt.Errorf("unsupported full view format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func fullSVG(v *forcegraph.View, opts Options) []byte {
	w, h := float64(opts.Render.Width), float64(opts.Render.Height)
	svgOpts := []canvas.SVGOption{}
	if opts.Render.EmbedFont {
		svgOpts = append(svgOpts, canvas.WithEmbeddedFont())
	}
	c := canvas.NewSVG(w, h, svgOpts...)
	canvas.Paint(v, c, w, h)
	return c.Bytes()
}

func fullPNG(v *forcegraph.View, opts Options) ([]byte, error) {
	w, h, s := float64(opts.Render.Width), float64(opts.Render.Height), opts.Render.Scale
	c := canvas.NewRaster(int(math.Round(w*s)), int(math.Round(h*s)), canvas.Background)
	c.Scale(s)
	canvas.Paint(v, c, w, h)
	return c.PNG()
}

// PositionedNode is a node with its settled position.
type PositionedNode struct {
	apps.Node
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewData is the JSON export of a settled full view: the force-graph data
// shape with coordinates filled in.
type ViewData struct {
	ID     string           `json:"view"`
	Frames int              `json:"frames"`
	Nodes  []PositionedNode `json:"nodes"`
	Links  []apps.Edge      `json:"links"`
}

// MarshalView encodes the settled view as indented JSON.
func MarshalView(v *forcegraph.View) ([]byte, error) {
	d := ViewData{
		ID:     v.ID,
		Frames: v.Frames(),
		Nodes:  make([]PositionedNode, 0, len(v.Nodes)),
		Links:  make([]apps.Edge, 0, len(v.Links)),
	}
	for _, n := range v.Nodes {
		d.Nodes = append(d.Nodes, PositionedNode{Node: n.Node, X: n.X, Y: n.Y})
	}
	for _, l := range v.Links {
		d.Links = append(d.Links, apps.Edge{Source: l.SourceID, Target: l.TargetID, Label: l.Label})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Simple View
// =============================================================================

// RenderSimple generates simple-view outputs directly from the graph.
func RenderSimple(g apps.FilteredGraph, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(g, nodelink.Options{EdgeLabels: opts.Render.EdgeLabels})
	artifacts := make(map[string][]byte)

	for _, format := range opts.Render.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, opts.Render.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(dot)
		case FormatDOT:
			data = []byte(dot)
		default:
			return nil, fmt.Errorf("unsupported simple view format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
