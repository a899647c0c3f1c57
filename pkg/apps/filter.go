package apps

// Filter removes edges whose endpoints do not resolve to a candidate node,
// then removes nodes that no surviving edge references.
//
// An endpoint resolves when it equals a node's ID. Because flows carry no
// version, an endpoint that misses also resolves through the node's
// name-only identifier, Normalize(name, ""), provided exactly one node
// answers to it; the kept edge is rewritten to that node's ID. Ambiguous
// names (several versions of one application) do not resolve.
//
// The result satisfies two guarantees:
//   - every edge's Source and Target is the ID of a node in the result
//   - every node in the result is an endpoint of at least one edge
//
// Repeated node identifiers keep their first occurrence. Input order is
// preserved. Filter is idempotent: filtering its own output changes nothing.
// Dropping is the defined policy for inconsistent data, so Filter never
// fails; each drop is reported to diag, which may be nil.
func Filter(nodes []Node, edges []Edge, diag Diagnostics) FilteredGraph {
	diag = orNop(diag)
	idx := newLookup(nodes)

	keptEdges := make([]Edge, 0, len(edges))
	referenced := make(map[NodeID]struct{}, len(nodes))
	for _, e := range edges {
		src, srcOK := idx.resolve(e.Source)
		dst, dstOK := idx.resolve(e.Target)
		if !srcOK || !dstOK {
			diag.EdgeDropped(e, invalidEndpoint(srcOK, dstOK))
			continue
		}
		e.Source, e.Target = src, dst
		keptEdges = append(keptEdges, e)
		referenced[src] = struct{}{}
		referenced[dst] = struct{}{}
	}

	keptNodes := make([]Node, 0, len(referenced))
	seen := make(map[NodeID]struct{}, len(referenced))
	for _, n := range nodes {
		if _, ok := referenced[n.ID]; !ok {
			diag.NodeDropped(n, DropOrphaned)
			continue
		}
		if _, dup := seen[n.ID]; dup {
			diag.NodeDropped(n, DropDuplicate)
			continue
		}
		seen[n.ID] = struct{}{}
		keptNodes = append(keptNodes, n)
	}

	return FilteredGraph{Nodes: keptNodes, Edges: keptEdges}
}

// lookup resolves edge endpoints to node IDs.
type lookup struct {
	ids     map[NodeID]struct{}
	aliases map[NodeID]NodeID // name-only id -> node id; "" marks ambiguity
}

func newLookup(nodes []Node) lookup {
	l := lookup{
		ids:     make(map[NodeID]struct{}, len(nodes)),
		aliases: make(map[NodeID]NodeID, len(nodes)),
	}
	for _, n := range nodes {
		l.ids[n.ID] = struct{}{}
	}
	for _, n := range nodes {
		alias := Normalize(n.Name, "")
		if prev, ok := l.aliases[alias]; ok && prev != n.ID {
			l.aliases[alias] = ""
			continue
		}
		l.aliases[alias] = n.ID
	}
	return l
}

func (l lookup) resolve(id NodeID) (NodeID, bool) {
	if _, ok := l.ids[id]; ok {
		return id, true
	}
	if target, ok := l.aliases[id]; ok && target != "" {
		return target, true
	}
	return "", false
}

func invalidEndpoint(srcOK, dstOK bool) Endpoint {
	switch {
	case !srcOK && !dstOK:
		return EndpointBoth
	case !srcOK:
		return EndpointSource
	default:
		return EndpointTarget
	}
}

// Process runs [Build] followed by [Filter], sending all diagnostics to
// opts.Diagnostics.
func Process(records []ApplicationRecord, flows []FlowRecord, opts BuildOptions) FilteredGraph {
	cand := Build(records, flows, opts)
	return Filter(cand.Nodes, cand.Edges, opts.Diagnostics)
}
