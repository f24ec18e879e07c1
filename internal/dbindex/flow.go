package dbindex

import (
	"sort"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// AssertionKind distinguishes the five ways a control-flow construct can
// narrow a variable's type over a text range (spec.md §4.8).
type AssertionKind int

const (
	// AssertExist strips Nil/false from the variable's type — the
	// truthiness-guard case (`if x then`, `assert(x)`).
	AssertExist AssertionKind = iota
	// AssertNotExist intersects the variable's type with Nil|false — the
	// else-branch of a truthiness guard.
	AssertNotExist
	// AssertNarrow replaces the variable's type outright with Narrow, the
	// `type(x) == "k"` / `x == nil` discrimination.
	AssertNarrow
	// AssertRemove removes the structurally-equal Narrow variant from a
	// union, the else-branch of a `type(x) == "k"` discrimination.
	AssertRemove
	// AssertReassign marks that the variable was reassigned at Reassign;
	// folding it re-infers the right-hand side rather than narrowing the
	// previous type.
	AssertReassign
)

// TypeAssertion is one fact a FlowChain records: a narrowing operation
// that holds over Range, in the order FlowAnalyzer discovered it.
type TypeAssertion struct {
	Kind  AssertionKind
	Range ids.TextRange

	// Narrow is the operand for AssertNarrow and AssertRemove.
	Narrow types.Type

	// Reassign is the operand for AssertReassign: the syntax id of the
	// assignment's right-hand side expression and which of its (possibly
	// multi-return) components this variable took.
	Reassign    ids.SyntaxId
	ReassignIdx int
}

// FlowChain is every TypeAssertion recorded for one variable reference
// under one flow-analysis pass, in discovery order.
type FlowChain struct {
	File    ids.FileId
	VarRef  ids.VarRefId
	Flow    ids.FlowId
	Asserts []TypeAssertion
}

type flowChainKey struct {
	VarRef ids.VarRefId
	Flow   ids.FlowId
}

// FlowIndex is the `(FileId, VarRefId, FlowId) → FlowChain` table, built
// by FlowAnalyzer's pass over `if`/`while`/`repeat`/`assert` conditions and
// `type(x)`/`x == nil` discriminations, and queried by infer_expr through
// GetTypeAsserts when a name reference falls inside a previously analyzed
// narrowing region.
//
// Replaces the single pre-resolved FlowFact.Narrow this index used to
// store: a variable can be exist-guarded, then re-narrowed by a nested
// `type(x) == "k"` check, then reassigned, all within overlapping ranges,
// and a consumer asking for its type at a given position needs every one
// of those facts, not just the last one written.
type FlowIndex struct {
	chains map[ids.FileId]map[flowChainKey]*FlowChain
	byFile map[ids.FileId][]flowChainKey
}

func NewFlowIndex() *FlowIndex {
	return &FlowIndex{
		chains: make(map[ids.FileId]map[flowChainKey]*FlowChain),
		byFile: make(map[ids.FileId][]flowChainKey),
	}
}

// Insert appends assertion to the chain for (file, varRef, flow), creating
// it if this is the first fact recorded for that triple.
func (idx *FlowIndex) Insert(file ids.FileId, varRef ids.VarRefId, flow ids.FlowId, assertion TypeAssertion) {
	byKey, ok := idx.chains[file]
	if !ok {
		byKey = make(map[flowChainKey]*FlowChain)
		idx.chains[file] = byKey
	}
	key := flowChainKey{VarRef: varRef, Flow: flow}
	chain, ok := byKey[key]
	if !ok {
		chain = &FlowChain{File: file, VarRef: varRef, Flow: flow}
		byKey[key] = chain
		idx.byFile[file] = append(idx.byFile[file], key)
	}
	chain.Asserts = append(chain.Asserts, assertion)
}

// GetTypeAsserts returns every TypeAssertion recorded anywhere in file for
// varRef whose Range contains at, across every flow that touched it,
// ordered outermost-range-first so that folding them in order applies
// later (more deeply nested) narrowing last — matching spec.md §4.8's
// "assertions compose left-to-right in position order ... intersecting
// across nested ranges" rule.
func (idx *FlowIndex) GetTypeAsserts(file ids.FileId, varRef ids.VarRefId, at ids.TextSize) []TypeAssertion {
	byKey, ok := idx.chains[file]
	if !ok {
		return nil
	}
	var active []TypeAssertion
	for key, chain := range byKey {
		if key.VarRef != varRef {
			continue
		}
		for _, a := range chain.Asserts {
			if a.Range.Contains(at) {
				active = append(active, a)
			}
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Range.Start != active[j].Range.Start {
			return active[i].Range.Start < active[j].Range.Start
		}
		// Wider range (outer scope) first when two assertions start at
		// the same position, so a narrower nested one folds in last.
		return active[i].Range.End > active[j].Range.End
	})
	return active
}

// Remove evicts every chain recorded for file, the eviction FlowAnalyzer's
// re-run triggers via DbIndex.Remove.
func (idx *FlowIndex) Remove(file ids.FileId) {
	for _, key := range idx.byFile[file] {
		delete(idx.chains[file], key)
	}
	delete(idx.chains, file)
	delete(idx.byFile, file)
}
