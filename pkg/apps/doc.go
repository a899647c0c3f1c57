// Package apps turns raw application and flow records into a consistent
// application-dependency graph.
//
// # Overview
//
// The input is two flat record collections: applications (name, version,
// architecture type) and flows (source application name, target application
// name). The package derives a canonical [NodeID] for every record, builds
// candidate nodes and edges, and then filters them into a [FilteredGraph] in
// which every edge endpoint resolves to a node and every node has at least
// one edge.
//
//	cand := apps.Build(records, flows, apps.BuildOptions{})
//	g := apps.Filter(cand.Nodes, cand.Edges, diag)
//
// # Identity
//
// [Normalize] trims and lowercases the name and version independently,
// concatenates them and strips all remaining whitespace. Flows carry no
// version, so edges are identified with Normalize(name, ""). [Filter]
// resolves such name-only endpoints to the versioned node when the name is
// unambiguous and rewrites the edge to the node's ID.
//
// # Diagnostics
//
// Building and filtering never fail. Anomalies (dangling references,
// duplicate identifiers, orphaned nodes) are reported through the
// [Diagnostics] interface and the offending element is dropped. Use
// [LogDiagnostics] to forward them to a structured logger, or [Recorder] to
// collect them for assertions and summaries.
package apps
