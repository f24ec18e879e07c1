package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/analyzer"
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
)

// exprNodeKinds are every node type inferExprUncached's switch dispatches
// on in its own right (excluding statement/declaration nodes, which are
// never themselves passed to InferExpr) — the set Walk visits so every
// expression in a file gets an inference result recorded, not just the
// ones a parent expression happens to recurse into.
var exprNodeKinds = map[string]bool{
	syntax.NodeNil: true, syntax.NodeTrue: true, syntax.NodeFalse: true,
	syntax.NodeNumber: true, syntax.NodeString: true, syntax.NodeIdentifier: true,
	syntax.NodeDotIndex: true, syntax.NodeMethodIndex: true, syntax.NodeBracketIndex: true,
	syntax.NodeBinaryExpr: true, syntax.NodeUnaryExpr: true, syntax.NodeParenExpr: true,
	syntax.NodeFunctionCall: true, syntax.NodeTableCtor: true, syntax.NodeFunctionDef: true,
	syntax.NodeVarargExpr: true,
}

// Walk runs InferExpr over every expression node in tree and reports the
// ones whose result was recoverable — the per-file driver a caller (e.g.
// a Pipeline-level semantic pass) uses to populate both the position
// cache and the set of dependencies still worth parking on the
// ResolveQueue.
func Walk(inf *Inferer, tree *syntax.Tree) []ExprFailure {
	var failures []ExprFailure
	tree.Root().Walk(func(n *syntax.Node) bool {
		if exprNodeKinds[n.Type()] {
			if _, fail := inf.InferExpr(n); fail.Recoverable() {
				failures = append(failures, ExprFailure{Pos: n.Pos(), Reason: fail})
			}
		}
		return true
	})
	return failures
}

// ExprFailure pairs a recoverable InferFailReason with the position of
// the expression node that produced it, so a caller can re-run InferExpr
// on exactly that node once the dependency resolves.
type ExprFailure struct {
	Pos    ids.TextSize
	Reason InferFailReason
}

// ParkAll re-infers tree with a fresh, PhaseOrdered Inferer and parks
// every still-recoverable expression on queue, keyed by the
// DependencyKey its InferFailReason converts to. Each retry rebuilds the
// Inferer so a dependency that resolved between passes isn't shadowed by
// a stale cache entry from an earlier, looser phase.
func ParkAll(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree, queue *analyzer.Pipeline, obs CacheObserver) []ExprFailure {
	inf := NewInferer(db, interner, tree, PhaseOrdered)
	inf.cache.Observer = obs
	failures := Walk(inf, tree)
	for _, f := range failures {
		f := f
		queue.Park(f.Reason.DependencyKey(), func(db *dbindex.DbIndex) bool {
			retryInf := NewInferer(db, interner, tree, PhaseForce)
			retryInf.cache.Observer = obs
			node := findNodeAt(retryInf.tree.Root(), f.Pos)
			if node == nil || node.IsNil() {
				return true
			}
			_, fail := retryInf.InferExpr(node)
			return !fail.Recoverable()
		})
	}
	return failures
}
