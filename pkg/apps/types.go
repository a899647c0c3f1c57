package apps

// =============================================================================
// Input Records
// =============================================================================

// ApplicationRecord is one entry of the application dataset.
// JSON keys follow the spreadsheet export the dataset originates from.
type ApplicationRecord struct {
	Name             string `json:"Name"`
	Version          string `json:"Version"`
	ArchitectureType string `json:"Architecture Type"`
	Group            int    `json:"Group,omitempty"` // Optional; BuildOptions.Group applies when zero
}

// FlowRecord is one entry of the flow dataset: a directed data or
// communication flow between two applications, referenced by name.
type FlowRecord struct {
	SourceApplication string `json:"Source Application"`
	TargetApplication string `json:"Target Application"`
	Label             string `json:"Label,omitempty"` // Optional; see BuildOptions.EdgeLabel
}

// =============================================================================
// Graph Elements
// =============================================================================

// NodeID is the canonical identifier of an application node.
// It is the sole join key between nodes and edges. See [Normalize].
type NodeID string

// Node is an application node ready for rendering.
type Node struct {
	ID    NodeID `json:"id"`
	Name  string `json:"name"`  // Raw display name from the record
	Group int    `json:"group"` // Grouping tag
	Icon  string `json:"icon"`  // Icon asset reference
}

// Edge is a directed flow between two nodes.
type Edge struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
	Label  string `json:"label"`
}

// Candidates holds the unvalidated output of [Build].
// Edges may reference identifiers that no node carries.
type Candidates struct {
	Nodes []Node
	Edges []Edge
}

// FilteredGraph is a consistent graph: every edge endpoint is present in
// Nodes and every node is referenced by at least one edge. It is the only
// state handed to rendering and must be treated as immutable.
type FilteredGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"links"`
}

// NodeCount returns the number of nodes.
func (g FilteredGraph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g FilteredGraph) EdgeCount() int { return len(g.Edges) }

// Node returns the node with the given identifier.
func (g FilteredGraph) Node(id NodeID) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Outgoing returns the edges leaving id, in graph order.
func (g FilteredGraph) Outgoing(id NodeID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id, in graph order.
func (g FilteredGraph) Incoming(id NodeID) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}
