package semantic

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// AnalysisPhase orders how much of a file infer_expr is allowed to assume
// is settled when it memoizes a result (§4.3): a result computed while
// dependencies were still being discovered (PhaseUnordered) must not
// satisfy a later, stricter request (PhaseForce, used by the retries the
// ResolveQueue's Drain runs) — it has to be re-derived instead.
type AnalysisPhase uint8

const (
	PhaseUnordered AnalysisPhase = iota
	PhaseOrdered
	PhaseForce
)

type cacheEntry struct {
	typ   types.Type
	fail  InferFailReason
	phase AnalysisPhase
}

// inferCacheSize bounds the per-file LRU so a pathologically large
// generated file can't grow the cache unbounded; real files have at most
// a few thousand distinct expression sites.
const inferCacheSize = 4096

// LuaInferCache memoizes infer_expr by the syntax position of the
// expression it was called on. It is built fresh per file per analysis
// request (never shared across files or persisted across requests) —
// unlike the index tables in internal/dbindex, a narrowed or reassigned
// result at one request's snapshot of the world must not leak into the
// next.
//
// Backed by hashicorp/golang-lru/v2, the pack's ready-made bounded cache;
// reimplementing the same eviction policy over a plain map would just be
// a worse version of what's already a dependency of the broader module.
// CacheObserver receives hit/miss counts for external instrumentation
// (internal/metrics' InferCacheHits/InferCacheMisses); nil is the common
// case (tests, one-off tooling) and every call below is a no-op then.
type CacheObserver interface {
	Hit()
	Miss()
}

type LuaInferCache struct {
	byPos    *lru.Cache[ids.TextSize, cacheEntry]
	Observer CacheObserver
}

func NewLuaInferCache() *LuaInferCache {
	c, err := lru.New[ids.TextSize, cacheEntry](inferCacheSize)
	if err != nil {
		panic("semantic: invalid infer cache size")
	}
	return &LuaInferCache{byPos: c}
}

// Get returns a memoized result for pos if one was recorded at phase or a
// stricter one; a looser-phase entry is treated as a miss so the caller
// re-derives it under the current, more settled view of the world.
func (c *LuaInferCache) Get(pos ids.TextSize, phase AnalysisPhase) (types.Type, InferFailReason, bool) {
	e, ok := c.byPos.Get(pos)
	if !ok || e.phase < phase {
		if c.Observer != nil {
			c.Observer.Miss()
		}
		return nil, InferFailReason{}, false
	}
	if c.Observer != nil {
		c.Observer.Hit()
	}
	return e.typ, e.fail, true
}

func (c *LuaInferCache) Put(pos ids.TextSize, phase AnalysisPhase, t types.Type, fail InferFailReason) {
	c.byPos.Add(pos, cacheEntry{typ: t, fail: fail, phase: phase})
}
