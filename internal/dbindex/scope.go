package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// scope is one lexical block: a byte range plus the names it introduces,
// parented to its lexically enclosing block (-1 for the file's root block).
type scope struct {
	Range  ids.TextRange
	Parent int
	Names  map[string]ids.DeclId
}

// ScopeTree is a file's lexical nesting of blocks, built incrementally by
// DeclAnalyzer as it walks the syntax tree (§4.1's "scope tree" data
// structure). Containment is a bounded linear scan rather than an interval
// tree: a Lua file's block nesting runs to dozens, not millions, of
// scopes, so the asymptotic win of a balanced structure isn't worth the
// bookkeeping — see DESIGN.md for why this sub-index skips go-immutable-radix.
type ScopeTree struct {
	scopes []scope
}

// NewScopeTree returns a tree with a single root scope spanning the whole
// file (conservatively, (0, MaxUint32)); OpenScope narrows as blocks nest.
func NewScopeTree() *ScopeTree {
	return &ScopeTree{scopes: []scope{{
		Range:  ids.TextRange{Start: 0, End: ^ids.TextSize(0)},
		Parent: -1,
		Names:  make(map[string]ids.DeclId),
	}}}
}

// OpenScope registers a new block nested under parent (by index, 0 is the
// file root) and returns its index, to be passed to Bind and to nested
// OpenScope calls.
func (t *ScopeTree) OpenScope(parent int, r ids.TextRange) int {
	t.scopes = append(t.scopes, scope{Range: r, Parent: parent, Names: make(map[string]ids.DeclId)})
	return len(t.scopes) - 1
}

// Bind records that name resolves to decl within scope index idx.
func (t *ScopeTree) Bind(idx int, name string, decl ids.DeclId) {
	t.scopes[idx].Names[name] = decl
}

// Resolve finds the Decl visible for name at pos: the innermost scope
// containing pos that binds name, walking outward through parents.
func (t *ScopeTree) Resolve(pos ids.TextSize, name string) (ids.DeclId, bool) {
	idx := t.innermost(pos)
	for idx != -1 {
		if d, ok := t.scopes[idx].Names[name]; ok {
			return d, true
		}
		idx = t.scopes[idx].Parent
	}
	return ids.DeclId{}, false
}

// innermost returns the index of the smallest scope containing pos, or -1
// if the tree is empty.
func (t *ScopeTree) innermost(pos ids.TextSize) int {
	best := -1
	var bestLen ids.TextSize
	for i, s := range t.scopes {
		if !s.Range.Contains(pos) {
			continue
		}
		length := s.Range.End - s.Range.Start
		if best == -1 || length < bestLen {
			best, bestLen = i, length
		}
	}
	return best
}
