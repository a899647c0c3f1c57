// Package observability lets a host process watch the graph pipeline without
// the pipeline depending on any metrics backend.
//
// Libraries report events through the accessors:
//
//	observability.Pipeline().OnViewSettled(ctx, act, err)
//	observability.Cache().OnCache(ctx, observability.CacheEvent{Kind: "layout", Op: observability.CacheHit})
//
// and a host installs receivers once at startup:
//
//	observability.Install(observability.Hooks{Pipeline: m, Cache: m, HTTP: m})
//
// Until then every event goes to a no-op receiver.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Events
// =============================================================================

// GraphStats summarizes one normalize-and-filter run.
type GraphStats struct {
	Nodes        int
	Edges        int
	DroppedNodes int
	DroppedEdges int
}

// Activation describes one settled full view.
type Activation struct {
	ID           string
	Nodes        int
	Links        int
	Frames       int
	LayoutCached bool
	Duration     time.Duration
}

// Render describes one artifact generation for a view.
type Render struct {
	View     string
	Formats  []string
	Cached   bool
	Duration time.Duration
}

// CacheOp is what happened to a cache key.
type CacheOp string

const (
	CacheHit  CacheOp = "hit"
	CacheMiss CacheOp = "miss"
	CacheSet  CacheOp = "set"
)

// CacheEvent is one cache lookup or write. Kind names the key family
// ("layout", "artifact"); Size is set for writes only.
type CacheEvent struct {
	Kind string
	Op   CacheOp
	Size int
}

// =============================================================================
// Receivers
// =============================================================================

// PipelineHooks receives graph, activation and render events.
type PipelineHooks interface {
	OnGraphBuilt(ctx context.Context, stats GraphStats, took time.Duration)
	// OnViewSettled is called once per activation, after the simulation
	// cooled down or failed. act is partially filled on failure.
	OnViewSettled(ctx context.Context, act Activation, err error)
	OnRendered(ctx context.Context, r Render, err error)
}

type CacheHooks interface {
	OnCache(ctx context.Context, ev CacheEvent)
}

// HTTPHooks receives events from the preview server. Route is the matched
// route pattern, not the raw path.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, route string, status int, took time.Duration)
	OnError(ctx context.Context, method, route string, err error)
}

type (
	NoopPipelineHooks struct{}
	NoopCacheHooks    struct{}
	NoopHTTPHooks     struct{}
)

func (NoopPipelineHooks) OnGraphBuilt(context.Context, GraphStats, time.Duration)    {}
func (NoopPipelineHooks) OnViewSettled(context.Context, Activation, error)           {}
func (NoopPipelineHooks) OnRendered(context.Context, Render, error)                  {}
func (NoopCacheHooks) OnCache(context.Context, CacheEvent)                           {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

// Hooks is a set of receivers. Nil fields leave the installed receiver
// for that category unchanged.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

var installed atomic.Pointer[Hooks]

func init() { Reset() }

// Install replaces the receivers set in h. Safe to call concurrently with
// event delivery; events already in flight go to the previous receiver.
func Install(h Hooks) {
	for {
		cur := installed.Load()
		next := *cur
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if installed.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Reset installs the no-op receivers.
func Reset() {
	installed.Store(&Hooks{
		Pipeline: NoopPipelineHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
	})
}

func Pipeline() PipelineHooks { return installed.Load().Pipeline }
func Cache() CacheHooks       { return installed.Load().Cache }
func HTTP() HTTPHooks         { return installed.Load().HTTP }
