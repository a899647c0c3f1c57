package apps

// DefaultGroup is the group tag for applications that do not carry one.
const DefaultGroup = 1

// LabelSeparator joins source and target identifiers in generated edge labels.
const LabelSeparator = " => "

// BuildOptions configures [Build]. The zero value is ready to use.
type BuildOptions struct {
	// Group is assigned to nodes whose record has no group. Zero means DefaultGroup.
	Group int
	// EdgeLabel is assigned to edges whose record has no label. When empty,
	// the label is "<source> => <target>".
	EdgeLabel string
	// Diagnostics receives identifier traces. Nil discards them.
	Diagnostics Diagnostics
}

// Build maps raw records into candidate nodes and edges in the [Normalize]
// identifier space. It performs no validation: every record produces exactly
// one element, in input order, whether or not its references will resolve.
func Build(records []ApplicationRecord, flows []FlowRecord, opts BuildOptions) Candidates {
	diag := orNop(opts.Diagnostics)
	group := opts.Group
	if group == 0 {
		group = DefaultGroup
	}

	out := Candidates{
		Nodes: make([]Node, 0, len(records)),
		Edges: make([]Edge, 0, len(flows)),
	}

	for _, r := range records {
		id := Normalize(r.Name, r.Version)
		diag.NodeIdentified(id, r.Name, r.Version)

		g := r.Group
		if g == 0 {
			g = group
		}
		out.Nodes = append(out.Nodes, Node{
			ID:    id,
			Name:  r.Name,
			Group: g,
			Icon:  IconFor(r.ArchitectureType),
		})
	}

	for _, f := range flows {
		src := Normalize(f.SourceApplication, "")
		dst := Normalize(f.TargetApplication, "")
		diag.EdgeIdentified(src, dst)

		out.Edges = append(out.Edges, Edge{
			Source: src,
			Target: dst,
			Label:  edgeLabel(f.Label, opts.EdgeLabel, src, dst),
		})
	}

	return out
}

func edgeLabel(record, fallback string, src, dst NodeID) string {
	if record != "" {
		return record
	}
	if fallback != "" {
		return fallback
	}
	return string(src) + LabelSeparator + string(dst)
}
