package forcegraph

import (
	"github.com/matzehuels/flowmap/pkg/apps"
)

// Node is a graph node as seen by the engine and the draw callbacks.
// The engine owns X and Y; callbacks only read them.
type Node struct {
	apps.Node

	// Image is the preloaded icon, or nil when unavailable.
	Image *Icon

	X, Y   float64
	placed bool
}

// Placed reports whether the engine has assigned the node a position.
func (n *Node) Placed() bool { return n != nil && n.placed }

// Place sets the node position. Engines call it on every tick.
func (n *Node) Place(x, y float64) {
	n.X, n.Y = x, y
	n.placed = true
}

// Pos returns the current position.
func (n *Node) Pos() Point { return Point{X: n.X, Y: n.Y} }

// Link is a directed edge as seen by the engine and the draw callbacks.
// Source and Target are nil until the engine resolves them on Start.
type Link struct {
	SourceID apps.NodeID
	TargetID apps.NodeID
	Label    string

	Source *Node
	Target *Node
}

// Resolved reports whether both endpoints are resolved and placed.
func (l *Link) Resolved() bool {
	return l.Source.Placed() && l.Target.Placed()
}

// ResolveLinks points every link at its endpoint nodes by ID. Links whose
// endpoints are unknown stay unresolved. Engines typically call this on Start.
func ResolveLinks(nodes []*Node, links []*Link) {
	byID := make(map[apps.NodeID]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, l := range links {
		l.Source = byID[l.SourceID]
		l.Target = byID[l.TargetID]
	}
}

// Elements creates fresh simulation elements for g. Nodes are unplaced and
// links unresolved.
func Elements(g apps.FilteredGraph) ([]*Node, []*Link) {
	nodes := make([]*Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = &Node{Node: n}
	}
	links := make([]*Link, len(g.Edges))
	for i, e := range g.Edges {
		links[i] = &Link{SourceID: e.Source, TargetID: e.Target, Label: e.Label}
	}
	return nodes, links
}
