package apps

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Diagnostics Interface
// =============================================================================

// Endpoint identifies which side of an edge failed to resolve.
type Endpoint int

const (
	EndpointSource Endpoint = iota + 1
	EndpointTarget
	EndpointBoth
)

// String returns "source", "target" or "both".
func (e Endpoint) String() string {
	switch e {
	case EndpointSource:
		return "source"
	case EndpointTarget:
		return "target"
	case EndpointBoth:
		return "both"
	default:
		return fmt.Sprintf("Endpoint(%d)", int(e))
	}
}

// DropReason explains why a node was removed by [Filter].
type DropReason int

const (
	// DropOrphaned marks a node that no surviving edge references.
	DropOrphaned DropReason = iota + 1
	// DropDuplicate marks a repeated identifier; the first node wins.
	DropDuplicate
)

// String returns "orphaned" or "duplicate".
func (r DropReason) String() string {
	switch r {
	case DropOrphaned:
		return "orphaned"
	case DropDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("DropReason(%d)", int(r))
	}
}

// Diagnostics receives trace events from [Build] and [Filter].
// Implementations must not block; they are called synchronously.
type Diagnostics interface {
	NodeIdentified(id NodeID, name, version string)
	EdgeIdentified(source, target NodeID)
	EdgeDropped(e Edge, invalid Endpoint)
	NodeDropped(n Node, reason DropReason)
}

// NopDiagnostics discards every event.
type NopDiagnostics struct{}

func (NopDiagnostics) NodeIdentified(NodeID, string, string) {}
func (NopDiagnostics) EdgeIdentified(NodeID, NodeID)         {}
func (NopDiagnostics) EdgeDropped(Edge, Endpoint)            {}
func (NopDiagnostics) NodeDropped(Node, DropReason)          {}

func orNop(d Diagnostics) Diagnostics {
	if d == nil {
		return NopDiagnostics{}
	}
	return d
}

// =============================================================================
// Log-backed Diagnostics
// =============================================================================

// LogDiagnostics forwards events to a structured logger. Identifier traces
// and orphaned nodes are logged at debug level, dropped edges and duplicate
// identifiers at warn level.
type LogDiagnostics struct {
	Logger *log.Logger
}

// NewLogDiagnostics returns diagnostics writing to l, or to log.Default()
// when l is nil.
func NewLogDiagnostics(l *log.Logger) *LogDiagnostics {
	if l == nil {
		l = log.Default()
	}
	return &LogDiagnostics{Logger: l}
}

func (d *LogDiagnostics) NodeIdentified(id NodeID, name, version string) {
	d.Logger.Debug("generated node id", "id", id, "name", name, "version", version)
}

func (d *LogDiagnostics) EdgeIdentified(source, target NodeID) {
	d.Logger.Debug("generated link", "source", source, "target", target)
}

func (d *LogDiagnostics) EdgeDropped(e Edge, invalid Endpoint) {
	d.Logger.Warn("invalid link", "source", e.Source, "target", e.Target, "endpoint", invalid)
}

func (d *LogDiagnostics) NodeDropped(n Node, reason DropReason) {
	if reason == DropDuplicate {
		d.Logger.Warn("duplicate node id", "id", n.ID, "name", n.Name)
		return
	}
	d.Logger.Debug("dropped node without links", "id", n.ID, "name", n.Name)
}

// =============================================================================
// Recorder
// =============================================================================

// EventKind classifies a recorded diagnostic.
type EventKind string

const (
	EventNodeIdentified EventKind = "node_identified"
	EventEdgeIdentified EventKind = "edge_identified"
	EventEdgeDropped    EventKind = "edge_dropped"
	EventNodeDropped    EventKind = "node_dropped"
)

// Event is one recorded diagnostic. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Node     *Node      `json:"node,omitempty"`
	Edge     *Edge      `json:"edge,omitempty"`
	ID       NodeID     `json:"id,omitempty"`
	Endpoint Endpoint   `json:"-"`
	Reason   DropReason `json:"-"`
	Detail   string     `json:"detail,omitempty"` // Endpoint or reason in text form
}

// Recorder collects events in order. It is not safe for concurrent use.
type Recorder struct {
	Events []Event
}

func (r *Recorder) NodeIdentified(id NodeID, name, version string) {
	r.Events = append(r.Events, Event{Kind: EventNodeIdentified, ID: id, Detail: name})
}

func (r *Recorder) EdgeIdentified(source, target NodeID) {
	e := Edge{Source: source, Target: target}
	r.Events = append(r.Events, Event{Kind: EventEdgeIdentified, Edge: &e})
}

func (r *Recorder) EdgeDropped(e Edge, invalid Endpoint) {
	r.Events = append(r.Events, Event{Kind: EventEdgeDropped, Edge: &e, Endpoint: invalid, Detail: invalid.String()})
}

func (r *Recorder) NodeDropped(n Node, reason DropReason) {
	r.Events = append(r.Events, Event{Kind: EventNodeDropped, Node: &n, ID: n.ID, Reason: reason, Detail: reason.String()})
}

// Of returns the recorded events of the given kind.
func (r *Recorder) Of(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// DroppedEdges returns the number of edges removed by filtering.
func (r *Recorder) DroppedEdges() int { return len(r.Of(EventEdgeDropped)) }

// DroppedNodes returns the number of nodes removed by filtering.
func (r *Recorder) DroppedNodes() int { return len(r.Of(EventNodeDropped)) }

// Reset clears all recorded events.
func (r *Recorder) Reset() { r.Events = r.Events[:0] }

// =============================================================================
// Fan-out
// =============================================================================

type tee []Diagnostics

// Tee returns diagnostics that forward every event to each of ds in order.
// Nil entries are skipped.
func Tee(ds ...Diagnostics) Diagnostics {
	var t tee
	for _, d := range ds {
		if d != nil {
			t = append(t, d)
		}
	}
	return t
}

func (t tee) NodeIdentified(id NodeID, name, version string) {
	for _, d := range t {
		d.NodeIdentified(id, name, version)
	}
}

func (t tee) EdgeIdentified(source, target NodeID) {
	for _, d := range t {
		d.EdgeIdentified(source, target)
	}
}

func (t tee) EdgeDropped(e Edge, invalid Endpoint) {
	for _, d := range t {
		d.EdgeDropped(e, invalid)
	}
}

func (t tee) NodeDropped(n Node, reason DropReason) {
	for _, d := range t {
		d.NodeDropped(n, reason)
	}
}

var (
	_ Diagnostics = NopDiagnostics{}
	_ Diagnostics = (*LogDiagnostics)(nil)
	_ Diagnostics = (*Recorder)(nil)
	_ Diagnostics = tee(nil)
)
