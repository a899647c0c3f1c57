package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatCompletions(t *testing.T) {
	tests := []struct {
		view, in string
		want     []string
	}{
		{"full", "", []string{"svg", "png", "pdf", "json"}},
		{"full", "p", []string{"png", "pdf"}},
		{"simple", "svg,", []string{"svg,png", "svg,pdf", "svg,dot"}},
		{"simple", "svg,d", []string{"svg,dot"}},
		{"simple", "json", nil},
		{"radial", "", nil},
	}
	for _, tt := range tests {
		got := formatCompletions(tt.view, tt.in)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("formatCompletions(%q, %q) = %v, want %v", tt.view, tt.in, got, tt.want)
		}
	}
}

func TestRenderFormatFlagCompletion(t *testing.T) {
	root := newTestCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"__complete", "simple", "--format", ""})
	if err := root.Execute(); err != nil {
		t.Fatalf("__complete error: %v", err)
	}
	if !strings.Contains(out.String(), "dot") || strings.Contains(out.String(), "json") {
		t.Errorf("simple --format completions = %q, want dot without json", out.String())
	}
}
