// Package nodelink renders the simple view of an application graph as a
// node-link diagram.
//
// # Overview
//
// Nodes appear as rounded boxes named after their application, filled by
// group, and connected by flow arrows. It is the lightweight counterpart of
// the force-directed full view: laid out by Graphviz dot in one pass, with no
// icons or label fitting.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{EdgeLabels: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// # Clickable Nodes
//
// Each node is emitted with URL="#node-<id>" and id="node-<id>". Graphviz
// wraps the node in an anchor, so clicking a node in a browser jumps to that
// fragment; the preview page uses it to highlight the application's flows.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
