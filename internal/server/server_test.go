package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/layout"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

type noIcons struct{}

func (noIcons) Load(string) *forcegraph.Icon { return nil }

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"application.json": `[
			{"Name": "App A", "Version": "1.0", "Architecture Type": "Distributed"},
			{"Name": "App B", "Version": "2.0", "Architecture Type": "Unknown"},
			{"Name": "Lonely", "Version": "1", "Architecture Type": "Mainframe"}
		]`,
		"flow.json": `[
			{"Source Application": "App A", "Target Application": "App B"},
			{"Source Application": "App A", "Target Application": "Ghost App"}
		]`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestServer(t *testing.T, options ...Option) *httptest.Server {
	t.Helper()
	t.Cleanup(observability.Reset)

	var opts pipeline.Options
	opts.Dataset.Dir = writeDataset(t)
	opts.Render.Width, opts.Render.Height = 300, 200
	opts.Simulation.Ticks = 10
	opts.Icons = noIcons{}
	opts.Solver = layout.Static{
		"appa1.0": {X: -50, Y: 0},
		"appb2.0": {X: 50, Y: 0},
	}

	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, log.New(io.Discard))
	s, err := New(runner, opts, log.New(io.Discard), options...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

// =============================================================================
// Pages and API
// =============================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &got); err != nil || !got.OK {
		t.Errorf("body = %s, want ok", body)
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	for _, want := range []string{"full.svg", "simple.svg", `id="toggle"`} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestGraph(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/api/graph")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var g struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Links []struct {
			Label string `json:"label"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("graph = %d nodes, %d links; want 2, 1", len(g.Nodes), len(g.Links))
	}
	if g.Links[0].Label != "appa => appb" {
		t.Errorf("label = %q, want %q", g.Links[0].Label, "appa => appb")
	}
}

func TestDiagnostics(t *testing.T) {
	ts := newTestServer(t)
	_, body := get(t, ts.URL+"/api/diagnostics")
	var d diagnosticsResponse
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	if d.Nodes != 2 || d.Edges != 1 || d.DroppedEdges != 1 || d.DroppedNodes != 1 {
		t.Errorf("diagnostics = %+v", d)
	}
	if len(d.Events) != 2 {
		t.Errorf("events = %d, want 2", len(d.Events))
	}
}

// =============================================================================
// Views
// =============================================================================

func TestViewFullActivatesPerRequest(t *testing.T) {
	ts := newTestServer(t)

	first, body := get(t, ts.URL+"/views/full.svg")
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", first.StatusCode, body)
	}
	if ct := first.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Contains(body, []byte("<svg")) {
		t.Error("body is not an SVG")
	}
	if first.Header.Get("X-Flowmap-Cache") != "miss" {
		t.Errorf("first X-Flowmap-Cache = %q, want miss", first.Header.Get("X-Flowmap-Cache"))
	}

	second, _ := get(t, ts.URL+"/views/full.svg")
	a, b := first.Header.Get("X-Flowmap-Activation"), second.Header.Get("X-Flowmap-Activation")
	if a == "" || a == b {
		t.Errorf("activations = %q, %q; want distinct", a, b)
	}
	if second.Header.Get("X-Flowmap-Cache") != "hit" {
		t.Errorf("second X-Flowmap-Cache = %q, want hit", second.Header.Get("X-Flowmap-Cache"))
	}
}

func TestViewSimpleDOT(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/views/simple.dot")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Flowmap-Activation") != "" {
		t.Error("simple view should not report an activation")
	}
	if !bytes.Contains(body, []byte("appa => appb")) {
		t.Errorf("DOT missing edge label:\n%s", body)
	}
}

func TestViewRejects(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		path string
		want int
	}{
		{"/views/full", http.StatusBadRequest},
		{"/views/full.dot", http.StatusBadRequest},
		{"/views/bogus.svg", http.StatusBadRequest},
		{"/views/full.svg?width=wide", http.StatusBadRequest},
		{"/views/full.svg?height=10", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := get(t, ts.URL+tt.path)
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
			continue
		}
		var e errorResponse
		if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
			t.Errorf("GET %s body = %s, want coded error", tt.path, body)
		}
	}
}

// =============================================================================
// Convert
// =============================================================================

func upload(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestConvert(t *testing.T) {
	ts := newTestServer(t)
	resp := upload(t, ts.URL+"/api/convert", "apps.csv", "Reference,Name\nR1,App A\n,Blank\nR2,App B\n")
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Upload-ID") == "" {
		t.Error("missing X-Upload-ID")
	}
	if got := resp.Header.Get("X-Skipped-Rows"); got != "1" {
		t.Errorf("X-Skipped-Rows = %q, want 1", got)
	}
	var out map[string]map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["R2"]["Name"] != "App B" || len(out) != 2 {
		t.Errorf("converted = %v", out)
	}
}

func TestConvertRejects(t *testing.T) {
	ts := newTestServer(t)
	if resp := upload(t, ts.URL+"/api/convert", "apps.xls", "x"); resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("xls upload = %d, want 415", resp.StatusCode)
	}
	if resp := upload(t, ts.URL+"/api/convert", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// Metrics
// =============================================================================

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, WithMetrics(NewMetrics()))

	get(t, ts.URL+"/views/simple.svg")
	get(t, ts.URL+"/views/full.svg")
	get(t, ts.URL+"/views/bogus.svg")
	_, body := get(t, ts.URL+"/metrics")

	for _, want := range []string{
		`flowmap_http_requests_total{method="GET",route="/views/{file}",status="200"} 1`,
		`flowmap_http_errors_total{method="GET",route="/views/{file}"} 1`,
		`flowmap_graph_nodes 2`,
		`flowmap_dropped_total{kind="edge"} 1`,
		`flowmap_render_duration_seconds_count{view="simple"} 1`,
		`flowmap_activations_total{layout_cached="false"} 1`,
		`flowmap_cache_events_total{event="miss",key_type="layout"} 1`,
	} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts := newTestServer(t)
	if resp, _ := get(t, ts.URL+"/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404", resp.StatusCode)
	}
}
