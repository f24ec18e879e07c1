// Package analyzer implements the per-file compilation pipeline of
// SPEC_FULL.md §5 MODULES / spec.md §4.2: DeclAnalyzer, DocAnalyzer,
// BindAnalyzer, FlowAnalyzer, and the ResolveQueue fixed-point worklist
// that ties them together, run single-threaded and cooperatively per
// spec.md §5 (no internal worker pool, unlike the teacher's goroutine
// fan-out in analyzer/ast/analyzer.go — see DESIGN.md).
package analyzer

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// UnresolveKind is the reason a fact could not be produced immediately.
type UnresolveKind uint8

const (
	UnresolveDecl UnresolveKind = iota
	UnresolveMember
	UnresolveSignatureReturn
	UnresolveClosureParams
	UnresolveModuleExport
)

// DependencyKey identifies the one fact a parked item is waiting on. It is
// comparable so the pending set can dedup by it directly.
type DependencyKey struct {
	Kind      UnresolveKind
	Decl      ids.DeclId
	Member    ids.MemberId
	Signature ids.SignatureId
	Module    string
}

// Retry is re-invoked every time ResolveQueue drains; it returns true once
// the dependency resolved and the parked fact was produced.
type Retry func(db *dbindex.DbIndex) bool

type pendingItem struct {
	key   DependencyKey
	retry Retry
}

// ResolveQueue is the fixed-point worklist of spec.md §4.2 step 5: facts
// that could not be produced because a dependency was not yet analyzed
// are parked here and re-driven until convergence or exhaustion.
//
// The pending-key dedup set is backed by go-set/v3, grounded the same way
// internal/dbindex grounds its own visited-set usage: a small set of
// comparable keys with Insert/Remove/Contains, the exact shape
// `hashicorp-nomad`'s go.mod declares the dependency for.
type ResolveQueue struct {
	items []pendingItem
	seen  *set.Set[DependencyKey]
}

// NewResolveQueue returns an empty queue.
func NewResolveQueue() *ResolveQueue {
	return &ResolveQueue{seen: set.New[DependencyKey](0)}
}

// Park records that retry is waiting on key. Parking the same key twice
// (e.g. two expressions both waiting on the same UnresolveDecl) is fine —
// both retries are kept, only the seen-set dedups for Depends.
func (q *ResolveQueue) Park(key DependencyKey, retry Retry) {
	q.items = append(q.items, pendingItem{key: key, retry: retry})
	q.seen.Insert(key)
}

// Depends reports whether anything in the queue is currently waiting on
// key. Park does not consult it, so parking an already-pending key still
// queues the new retry.
func (q *ResolveQueue) Depends(key DependencyKey) bool {
	return q.seen.Contains(key)
}

// Len reports the number of still-parked items.
func (q *ResolveQueue) Len() int {
	return len(q.items)
}

// Drain re-invokes every parked retry against db, repeating passes until a
// full pass makes no progress (fixed point) or maxPasses is hit. It
// returns the keys of the items still unresolved after the final pass and
// empties the queue, so a later Drain never re-runs them — the caller
// assigns them the bottom of their kind and emits a LuaAnalyzeError
// diagnostic, per spec.md §4.2 step 5's exhaustion rule.
func (q *ResolveQueue) Drain(db *dbindex.DbIndex, maxPasses int) []DependencyKey {
	for pass := 0; pass < maxPasses; pass++ {
		if len(q.items) == 0 {
			break
		}
		remaining := q.items[:0]
		progressed := false
		for _, it := range q.items {
			if it.retry(db) {
				progressed = true
				continue
			}
			remaining = append(remaining, it)
		}
		q.items = remaining
		if !progressed {
			break
		}
	}
	q.seen = set.New[DependencyKey](0)
	exhausted := make([]DependencyKey, 0, len(q.items))
	for _, it := range q.items {
		exhausted = append(exhausted, it.key)
	}
	q.items = nil
	return exhausted
}
