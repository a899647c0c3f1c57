package layout

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// Cached memoizes an inner solver. Cache failures degrade to a direct solve.
type Cached struct {
	Solver Solver
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCached wraps solver with c. A nil keyer uses [cache.NewDefaultKeyer].
func NewCached(solver Solver, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cached{Solver: solver, Cache: c, Keyer: keyer, TTL: cache.LayoutTTL, Logger: logger}
}

// Solve returns cached positions when available, solving and storing otherwise.
func (c *Cached) Solve(ctx context.Context, g apps.FilteredGraph, p Params) (Positions, error) {
	pos, _, err := c.SolveWithCacheInfo(ctx, g, p)
	return pos, err
}

// SolveWithCacheInfo is Solve that also reports whether the positions came
// from the cache.
func (c *Cached) SolveWithCacheInfo(ctx context.Context, g apps.FilteredGraph, p Params) (Positions, bool, error) {
	p = p.WithDefaults()
	key := c.Keyer.LayoutKey(GraphHash(g), cache.LayoutKeyOpts{
		LinkDistance:   p.LinkDistance,
		ChargeStrength: p.ChargeStrength,
		Seed:           p.Seed,
		MaxIter:        p.MaxIter,
	})
	hooks := observability.Cache()

	if data, hit, err := c.Cache.Get(ctx, key); err != nil {
		c.Logger.Warn("layout cache read failed", "err", err)
	} else if hit {
		var pos Positions
		if err := json.Unmarshal(data, &pos); err == nil {
			hooks.OnCache(ctx, observability.CacheEvent{Kind: "layout", Op: observability.CacheHit})
			c.Logger.Debug("layout cache hit", "key", key)
			return pos, true, nil
		}
		_ = c.Cache.Delete(ctx, key)
	}
	hooks.OnCache(ctx, observability.CacheEvent{Kind: "layout", Op: observability.CacheMiss})

	pos, err := c.Solver.Solve(ctx, g, p)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(pos); err == nil {
		if err := c.Cache.Set(ctx, key, data, c.TTL); err != nil {
			c.Logger.Warn("layout cache write failed", "err", err)
		} else {
			hooks.OnCache(ctx, observability.CacheEvent{Kind: "layout", Op: observability.CacheSet, Size: len(data)})
		}
	}
	return pos, false, nil
}

// Static is a solver that returns fixed positions, for animating a layout
// that was solved ahead of time. Nodes it has no position for are omitted.
type Static Positions

func (s Static) Solve(_ context.Context, g apps.FilteredGraph, _ Params) (Positions, error) {
	out := make(Positions, len(g.Nodes))
	for _, n := range g.Nodes {
		if p, ok := s[n.ID]; ok {
			out[n.ID] = p
		}
	}
	return out, nil
}

// GraphHash returns a content hash of g.
func GraphHash(g apps.FilteredGraph) string {
	data, _ := json.Marshal(g)
	return cache.Hash(data)
}
