// Package io reads application datasets and writes filtered graphs as JSON.
//
// # Dataset Format
//
// A dataset is two JSON files. application.json lists applications:
//
//	[
//	  {"Name": "App A", "Version": "1.0", "Architecture Type": "Distributed"},
//	  {"Name": "App B", "Version": "2.0", "Architecture Type": "Mainframe"}
//	]
//
// flow.json lists the flows between them, referenced by name only:
//
//	[
//	  {"Source Application": "App A", "Target Application": "App B"}
//	]
//
// Both files may also be objects keyed by a reference column, which is the
// shape the spreadsheet converter in [github.com/matzehuels/flowmap/pkg/sheet]
// produces. Records are then read in document order. Scalar values are
// accepted for every text field, so a Version exported from a spreadsheet as
// the number 1.5 reads as "1.5".
//
// # Import
//
// Use [LoadDir] to read both files from a directory, [ImportDataset] for
// explicit paths, or [ReadApplications] and [ReadFlows] for any io.Reader:
//
//	ds, err := io.LoadDir("testdata")
//	g := apps.Process(ds.Applications, ds.Flows, apps.BuildOptions{})
//
// # Export
//
// [WriteGraph] encodes a filtered graph in the force-graph JSON shape:
//
//	{
//	  "nodes": [{"id": "appa1.0", "name": "App A", "group": 1, "icon": "Stack.svg"}],
//	  "links": [{"source": "appa1.0", "target": "appb2.0", "label": "appa => appb"}]
//	}
package io
