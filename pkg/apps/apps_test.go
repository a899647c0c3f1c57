package apps

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		appName string
		version string
		want    NodeID
	}{
		{"plain", "foo", "1.0", "foo1.0"},
		{"trims and lowercases", " Foo ", " 1.0 ", "foo1.0"},
		{"internal whitespace removed", "App A", "2.0", "appa2.0"},
		{"tabs and newlines", "My\tBig\nApp", " V 3 ", "mybigappv3"},
		{"empty version", "App A", "", "appa"},
		{"empty name", "", "1.0", "1.0"},
		{"both empty", "", "", ""},
		{"unicode space", "App\u00a0B", "", "appb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.appName, tt.version); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.appName, tt.version, got, tt.want)
			}
		})
	}
}

func TestNormalizeCaseAndWhitespaceInsensitive(t *testing.T) {
	pairs := [][4]string{
		{" Foo ", " 1.0 ", "foo", "1.0"},
		{"ORDER Service", "V2", "order service", "v2"},
		{"  billing", "", "BILLING  ", ""},
	}
	for _, p := range pairs {
		a := Normalize(p[0], p[1])
		b := Normalize(p[2], p[3])
		if a != b {
			t.Errorf("Normalize(%q,%q) = %q, Normalize(%q,%q) = %q, want equal", p[0], p[1], a, p[2], p[3], b)
		}
		if again := Normalize(p[0], p[1]); again != a {
			t.Errorf("Normalize not deterministic: %q vs %q", again, a)
		}
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		arch string
		want string
	}{
		{"Mainframe", "Buildings.svg"},
		{"Distributed", "Stack.svg"},
		{"Cloud-Based", "Wrench.svg"},
		{"Client-Server", "UsersThree.svg"},
		{"Stand-Alone", "ListMagnifyingGlass.svg"},
		{"Unknown", DefaultIcon},
		{"", DefaultIcon},
		{"mainframe", DefaultIcon},
	}
	for _, tt := range tests {
		if got := IconFor(tt.arch); got != tt.want {
			t.Errorf("IconFor(%q) = %q, want %q", tt.arch, got, tt.want)
		}
	}
	if refs := IconRefs(); len(refs) != 6 || refs[len(refs)-1] != DefaultIcon {
		t.Errorf("IconRefs() = %v, want 6 refs ending in default", refs)
	}
}

func TestBuild(t *testing.T) {
	records := []ApplicationRecord{
		{Name: "App A", Version: "1.0", ArchitectureType: "Mainframe"},
		{Name: "App B", Version: "2.0", ArchitectureType: "Unknown", Group: 7},
	}
	flows := []FlowRecord{
		{SourceApplication: "App A", TargetApplication: "App B"},
		{SourceApplication: " app a ", TargetApplication: "Ghost App", Label: "nightly batch"},
	}

	var rec Recorder
	cand := Build(records, flows, BuildOptions{Diagnostics: &rec})

	if len(cand.Nodes) != 2 || len(cand.Edges) != 2 {
		t.Fatalf("Build() = %d nodes, %d edges, want 2, 2", len(cand.Nodes), len(cand.Edges))
	}

	a := cand.Nodes[0]
	if a.ID != "appa1.0" || a.Name != "App A" || a.Group != DefaultGroup || a.Icon != "Buildings.svg" {
		t.Errorf("node A = %+v", a)
	}
	if b := cand.Nodes[1]; b.Group != 7 || b.Icon != DefaultIcon {
		t.Errorf("node B = %+v, want group 7 and default icon", b)
	}

	for i, f := range flows {
		e := cand.Edges[i]
		if e.Source != Normalize(f.SourceApplication, "") || e.Target != Normalize(f.TargetApplication, "") {
			t.Errorf("edge %d = %s -> %s, want normalized names", i, e.Source, e.Target)
		}
	}
	if got := cand.Edges[0].Label; got != "appa => appb" {
		t.Errorf("default label = %q, want %q", got, "appa => appb")
	}
	if got := cand.Edges[1].Label; got != "nightly batch" {
		t.Errorf("record label = %q, want %q", got, "nightly batch")
	}

	if n := len(rec.Of(EventNodeIdentified)); n != 2 {
		t.Errorf("node traces = %d, want 2", n)
	}
	if n := len(rec.Of(EventEdgeIdentified)); n != 2 {
		t.Errorf("edge traces = %d, want 2", n)
	}
}

func TestBuildOptions(t *testing.T) {
	cand := Build(
		[]ApplicationRecord{{Name: "x"}},
		[]FlowRecord{{SourceApplication: "x", TargetApplication: "x"}},
		BuildOptions{Group: 3, EdgeLabel: "Sample Text"},
	)
	if cand.Nodes[0].Group != 3 {
		t.Errorf("group = %d, want 3", cand.Nodes[0].Group)
	}
	if cand.Edges[0].Label != "Sample Text" {
		t.Errorf("label = %q, want Sample Text", cand.Edges[0].Label)
	}
}

func TestBuildEmpty(t *testing.T) {
	cand := Build(nil, nil, BuildOptions{})
	if len(cand.Nodes) != 0 || len(cand.Edges) != 0 {
		t.Errorf("Build(nil, nil) = %+v, want empty", cand)
	}
}

func TestFilterScenarioTwoApps(t *testing.T) {
	records := []ApplicationRecord{
		{Name: "App A", Version: "1.0", ArchitectureType: "Mainframe"},
		{Name: "App B", Version: "2.0", ArchitectureType: "Unknown"},
	}
	flows := []FlowRecord{{SourceApplication: "App A", TargetApplication: "App B"}}

	g := Process(records, flows, BuildOptions{})

	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("got %d nodes, %d edges, want 2, 1", g.NodeCount(), g.EdgeCount())
	}
	b, ok := g.Node("appb2.0")
	if !ok {
		t.Fatal("node appb2.0 missing")
	}
	if b.Icon != DefaultIcon {
		t.Errorf("node B icon = %q, want %q", b.Icon, DefaultIcon)
	}
	e := g.Edges[0]
	if e.Source != "appa1.0" || e.Target != "appb2.0" {
		t.Errorf("edge = %s -> %s, want appa1.0 -> appb2.0", e.Source, e.Target)
	}
	assertConsistent(t, g)
}

func TestFilterScenarioGhostApp(t *testing.T) {
	records := []ApplicationRecord{
		{Name: "App A", ArchitectureType: "Mainframe"},
		{Name: "App B", ArchitectureType: "Distributed"},
		{Name: "App C", ArchitectureType: "Cloud-Based"},
	}
	flows := []FlowRecord{
		{SourceApplication: "App A", TargetApplication: "App B"},
		{SourceApplication: "App C", TargetApplication: "Ghost App"},
	}

	var rec Recorder
	g := Process(records, flows, BuildOptions{Diagnostics: &rec})

	if g.EdgeCount() != 1 {
		t.Fatalf("edges = %d, want 1", g.EdgeCount())
	}
	if _, ok := g.Node("appc"); ok {
		t.Error("App C should be dropped: its only edge pointed at Ghost App")
	}
	dropped := rec.Of(EventEdgeDropped)
	if len(dropped) != 1 {
		t.Fatalf("edge drop diagnostics = %d, want 1", len(dropped))
	}
	if dropped[0].Endpoint != EndpointTarget || dropped[0].Edge.Target != "ghostapp" {
		t.Errorf("drop diagnostic = %+v, want invalid target ghostapp", dropped[0])
	}
	orphans := rec.Of(EventNodeDropped)
	if len(orphans) != 1 || orphans[0].ID != "appc" || orphans[0].Reason != DropOrphaned {
		t.Errorf("node drop diagnostics = %+v, want appc orphaned", orphans)
	}
	assertConsistent(t, g)
}

func TestFilterInvalidEndpoints(t *testing.T) {
	nodes := []Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}}
	edges := []Edge{
		{Source: "x", Target: "b"},
		{Source: "a", Target: "y"},
		{Source: "x", Target: "y"},
		{Source: "a", Target: "b"},
	}
	var rec Recorder
	g := Filter(nodes, edges, &rec)

	want := []Endpoint{EndpointSource, EndpointTarget, EndpointBoth}
	got := rec.Of(EventEdgeDropped)
	if len(got) != len(want) {
		t.Fatalf("dropped = %d, want %d", len(got), len(want))
	}
	for i, ev := range got {
		if ev.Endpoint != want[i] {
			t.Errorf("drop %d endpoint = %v, want %v", i, ev.Endpoint, want[i])
		}
	}
	if g.EdgeCount() != 1 || g.NodeCount() != 2 {
		t.Errorf("got %d nodes, %d edges, want 2, 1", g.NodeCount(), g.EdgeCount())
	}
}

func TestFilterDuplicatesAndAliases(t *testing.T) {
	nodes := []Node{
		{ID: "svc1", Name: "Svc", Icon: "first"},
		{ID: "svc1", Name: "Svc", Icon: "second"},
		{ID: "db1", Name: "DB"},
		{ID: "db2", Name: "DB"},
		{ID: "queue", Name: "Queue"},
	}
	edges := []Edge{
		{Source: "svc", Target: "queue"}, // alias resolves to svc1
		{Source: "svc", Target: "db"},    // db is ambiguous
	}
	var rec Recorder
	g := Filter(nodes, edges, &rec)

	if g.EdgeCount() != 1 {
		t.Fatalf("edges = %d, want 1", g.EdgeCount())
	}
	if e := g.Edges[0]; e.Source != "svc1" || e.Target != "queue" {
		t.Errorf("edge = %s -> %s, want svc1 -> queue", e.Source, e.Target)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("nodes = %d, want 2", g.NodeCount())
	}
	if g.Nodes[0].Icon != "first" {
		t.Errorf("duplicate resolution kept %q, want first", g.Nodes[0].Icon)
	}

	var dups int
	for _, ev := range rec.Of(EventNodeDropped) {
		if ev.Reason == DropDuplicate {
			dups++
		}
	}
	if dups != 1 {
		t.Errorf("duplicate diagnostics = %d, want 1", dups)
	}
	if ev := rec.Of(EventEdgeDropped); len(ev) != 1 || ev[0].Endpoint != EndpointTarget {
		t.Errorf("ambiguous drop = %+v, want one target drop", ev)
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := []ApplicationRecord{
		{Name: "A", Version: "1"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "A", Version: "1"},
	}
	flows := []FlowRecord{
		{SourceApplication: "A", TargetApplication: "B"},
		{SourceApplication: "B", TargetApplication: "B"},
		{SourceApplication: "C", TargetApplication: "nope"},
		{SourceApplication: "D", TargetApplication: "A"},
	}
	once := Process(records, flows, BuildOptions{})
	twice := Filter(once.Nodes, once.Edges, nil)

	if len(once.Nodes) != len(twice.Nodes) || len(once.Edges) != len(twice.Edges) {
		t.Fatalf("second pass changed sizes: %d/%d -> %d/%d",
			len(once.Nodes), len(once.Edges), len(twice.Nodes), len(twice.Edges))
	}
	for i := range once.Nodes {
		if once.Nodes[i] != twice.Nodes[i] {
			t.Errorf("node %d changed: %+v -> %+v", i, once.Nodes[i], twice.Nodes[i])
		}
	}
	for i := range once.Edges {
		if once.Edges[i] != twice.Edges[i] {
			t.Errorf("edge %d changed: %+v -> %+v", i, once.Edges[i], twice.Edges[i])
		}
	}
	assertConsistent(t, twice)
}

func TestFilterEmpty(t *testing.T) {
	g := Filter(nil, nil, nil)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Filter(nil, nil) = %+v, want empty", g)
	}
	g = Filter([]Node{{ID: "lonely"}}, nil, nil)
	if g.NodeCount() != 0 {
		t.Error("isolated node should be dropped")
	}
}

func TestFilteredGraphNeighbours(t *testing.T) {
	g := FilteredGraph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{{Source: "a", Target: "b"}, {Source: "c", Target: "b"}, {Source: "b", Target: "a"}},
	}
	if n := len(g.Incoming("b")); n != 2 {
		t.Errorf("Incoming(b) = %d, want 2", n)
	}
	if n := len(g.Outgoing("b")); n != 1 {
		t.Errorf("Outgoing(b) = %d, want 1", n)
	}
}

func TestLogDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	d := NewLogDiagnostics(l)

	Process(
		[]ApplicationRecord{{Name: "A"}},
		[]FlowRecord{{SourceApplication: "A", TargetApplication: "Ghost"}},
		BuildOptions{Diagnostics: d},
	)

	out := buf.String()
	for _, want := range []string{"generated node id", "generated link", "invalid link", "endpoint=target", "dropped node without links"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestTee(t *testing.T) {
	var a, b Recorder
	d := Tee(&a, nil, &b)
	Filter([]Node{{ID: "x"}}, []Edge{{Source: "x", Target: "y"}}, d)
	if a.DroppedEdges() != 1 || b.DroppedEdges() != 1 {
		t.Errorf("tee delivered %d and %d edge drops, want 1 each", a.DroppedEdges(), b.DroppedEdges())
	}
	if a.DroppedNodes() != 1 {
		t.Errorf("dropped nodes = %d, want 1", a.DroppedNodes())
	}
	a.Reset()
	if len(a.Events) != 0 {
		t.Error("Reset should clear events")
	}
}

// assertConsistent checks the closure and no-isolated-node guarantees.
func assertConsistent(t *testing.T, g FilteredGraph) {
	t.Helper()
	ids := make(map[NodeID]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	degree := make(map[NodeID]int)
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			t.Errorf("edge %s -> %s has an endpoint outside the node set", e.Source, e.Target)
		}
		degree[e.Source]++
		degree[e.Target]++
	}
	for _, n := range g.Nodes {
		if degree[n.ID] == 0 {
			t.Errorf("node %s is isolated", n.ID)
		}
	}
}
