package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowmap/pkg/apps"
)

// WriteGraph encodes g as indented force-graph JSON.
func WriteGraph(w io.Writer, g apps.FilteredGraph) error {
	if g.Nodes == nil {
		g.Nodes = []apps.Node{}
	}
	if g.Edges == nil {
		g.Edges = []apps.Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportGraph writes g to a JSON file at path.
func ExportGraph(g apps.FilteredGraph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(f, g)
}

// ReadGraph decodes a graph previously written by [WriteGraph].
func ReadGraph(r io.Reader) (apps.FilteredGraph, error) {
	var g apps.FilteredGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return apps.FilteredGraph{}, fmt.Errorf("decode: %w", err)
	}
	return g, nil
}
