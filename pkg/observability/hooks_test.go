package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingHooks struct {
	NoopPipelineHooks
	mu     sync.Mutex
	events []CacheEvent
}

func (r *recordingHooks) OnCache(_ context.Context, ev CacheEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Pipeline().OnGraphBuilt(ctx, GraphStats{Nodes: 3, DroppedEdges: 1}, time.Millisecond)
	Pipeline().OnViewSettled(ctx, Activation{ID: "v1", Frames: 20}, nil)
	Pipeline().OnRendered(ctx, Render{View: "simple", Formats: []string{"dot"}}, nil)
	Cache().OnCache(ctx, CacheEvent{Kind: "layout", Op: CacheMiss})
	HTTP().OnResponse(ctx, "GET", "/views/{file}", 200, time.Second)
	HTTP().OnError(ctx, "POST", "/api/convert", nil)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
}

func TestInstallKeepsUnsetCategories(t *testing.T) {
	t.Cleanup(Reset)
	rec := &recordingHooks{}

	Install(Hooks{Pipeline: rec})
	Install(Hooks{Cache: rec})

	if Pipeline() != PipelineHooks(rec) {
		t.Errorf("Pipeline() = %T, want the recorder", Pipeline())
	}
	if Cache() != CacheHooks(rec) {
		t.Errorf("Cache() = %T, want the recorder", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	Reset()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("after Reset Cache() = %T, want NoopCacheHooks", Cache())
	}
}

func TestInstallConcurrentWithDelivery(t *testing.T) {
	t.Cleanup(Reset)
	rec := &recordingHooks{}
	Install(Hooks{Cache: rec})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Cache().OnCache(context.Background(), CacheEvent{Kind: "artifact", Op: CacheSet, Size: 10})
		}()
		go func() {
			defer wg.Done()
			Install(Hooks{Pipeline: rec})
		}()
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 8 {
		t.Errorf("delivered %d events, want 8", len(rec.events))
	}
}
