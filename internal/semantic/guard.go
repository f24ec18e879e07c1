package semantic

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// InferGuard bounds the recursive walks member lookup and type_check run
// over a class's supertype graph (§4.5, §9's "recursive self-referential
// types use a visited-ids set, bailing to Unknown on re-entry" rule): a
// class that (directly or through a cycle of doc annotations) lists
// itself as a supertype must not recurse forever.
//
// Grounded the same way ResolveQueue grounds its pending-key dedup set —
// go-set/v3 over a small comparable key, rather than a second hand-rolled
// map[T]bool.
type InferGuard struct {
	visited *set.Set[ids.TypeDeclId]
}

func NewInferGuard() *InferGuard {
	return &InferGuard{visited: set.New[ids.TypeDeclId](0)}
}

// Enter reports whether id has not yet been visited in this walk, and
// marks it visited if so. Callers must pair a successful Enter with Exit
// once the recursive branch returns, so sibling branches (a diamond
// inheritance graph) aren't spuriously cut off.
func (g *InferGuard) Enter(id ids.TypeDeclId) bool {
	if g.visited.Contains(id) {
		return false
	}
	g.visited.Insert(id)
	return true
}

func (g *InferGuard) Exit(id ids.TypeDeclId) {
	g.visited.Remove(id)
}
