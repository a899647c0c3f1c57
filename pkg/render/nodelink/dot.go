package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/render"
)

// AnchorPrefix prefixes the fragment each node links to.
const AnchorPrefix = "#node-"

type Options struct {
	// Detailed adds the node ID and group under each name.
	Detailed bool
	// EdgeLabels draws flow labels on the arrows.
	EdgeLabels bool
	// RankDir is the Graphviz rank direction. Empty means left to right.
	RankDir string
}

// groupFills colors nodes by group, cycling for larger group numbers.
var groupFills = []string{"#ece0e6", "#dbe8f4", "#e2f0d9", "#fdf0d5", "#e8e0f4", "#f4e0e0"}

// graph-wide settings written before any node.
var dotPreamble = []string{
	`bgcolor="transparent"`,
	`node [shape=box, style="rounded,filled", fontname="Helvetica", fontsize=14, margin="0.2,0.1"]`,
	`edge [fontname="Helvetica", fontsize=10, fontcolor=darkgrey]`,
	`ranksep=0.6`,
	`nodesep=0.3`,
}

// ToDOT writes g as a Graphviz digraph for the simple view. Every node
// links to AnchorPrefix plus its ID, so the rendered SVG is clickable.
func ToDOT(g apps.FilteredGraph, opts Options) string {
	var w dotWriter
	w.line("digraph G {")
	w.stmt("rankdir=" + cmp.Or(opts.RankDir, "LR"))
	for _, s := range dotPreamble {
		w.stmt(s)
	}

	w.blank()
	for _, n := range g.Nodes {
		anchor := AnchorPrefix + string(n.ID)
		w.stmt(quote(string(n.ID)) + attrList(
			"label", fmtLabel(n, opts.Detailed),
			"URL", anchor,
			"id", strings.TrimPrefix(anchor, "#"),
			"tooltip", n.Name,
			"fillcolor", groupFill(n.Group),
		))
	}

	w.blank()
	for _, e := range g.Edges {
		edge := quote(string(e.Source)) + " -> " + quote(string(e.Target))
		if opts.EdgeLabels && e.Label != "" {
			edge += attrList("label", e.Label)
		}
		w.stmt(edge)
	}
	w.line("}")
	return w.String()
}

type dotWriter struct{ strings.Builder }

func (w *dotWriter) line(s string) { w.WriteString(s + "\n") }
func (w *dotWriter) stmt(s string) { w.line("  " + s + ";") }
func (w *dotWriter) blank()        { w.line("") }

func quote(s string) string { return strconv.Quote(s) }

// attrList formats key/value pairs as ` [k="v", ...]`.
func attrList(kv ...string) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, kv[i]+"="+quote(kv[i+1]))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func fmtLabel(n apps.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	return fmt.Sprintf("%s\n%s\ngroup: %d", n.Name, n.ID, n.Group)
}

func groupFill(group int) string {
	return groupFills[(max(group, 1)-1)%len(groupFills)]
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG lays out dot with Graphviz and returns SVG sized in pixels.
func RenderSVG(dot string) ([]byte, error) {
	out, err := layoutDOT(context.Background(), dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPDF converts the SVG of dot to PDF. Needs rsvg-convert on PATH.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG converts the SVG of dot to PNG at scale (2 for high-DPI).
// Needs rsvg-convert on PATH.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

func layoutDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("graphviz %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox swaps Graphviz's point-sized root element for one sized
// in pixels, keeping the xlink namespace that node URLs need.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
