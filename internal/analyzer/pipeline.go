package analyzer

import (
	"context"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
)

// maxResolvePasses bounds the ResolveQueue fixed-point loop per spec.md
// §4.2 step 5 — a handful of passes is enough for any real dependency
// chain (class → alias → class) to settle; anything left after that is a
// genuine cross-file cycle or a missing declaration, not a slow
// convergence.
const maxResolvePasses = 8

// Pipeline runs the five-phase compilation spec.md §4.2 describes over one
// workspace's files, single-threaded and cooperatively per §5 (ctx is
// checked between files and between resolve passes, never mid-statement —
// matching the reentrancy granularity the parser itself offers).
//
// Grounded on the teacher's analyzer/ast/analyzer.go top-level Analyze
// entrypoint, which sequences template discovery → parse → validate →
// render over a worker pool; Pipeline keeps the same "sequence of named
// phases over every file" shape but drops the pool, since spec.md §5
// requires the phases to observe a consistent, file-complete DbIndex
// between steps (parallel files would race on cross-file Decl/TypeIndex
// lookups BindAnalyzer and the ResolveQueue depend on).
type Pipeline struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	queue    *ResolveQueue
}

// NewPipeline constructs a Pipeline sharing one DbIndex and Interner
// across every file it compiles.
func NewPipeline(db *dbindex.DbIndex, interner *ids.Interner) *Pipeline {
	return &Pipeline{db: db, interner: interner, queue: NewResolveQueue()}
}

// CompileFile runs DeclAnalyzer, DocAnalyzer, BindAnalyzer and
// FlowAnalyzer over one already-parsed file, in that order, and returns
// the bare global references DeclAnalyzer could not resolve locally (for
// the caller to park on the ResolveQueue once every file in the batch has
// had its own Decl phase run — a name global in file B may only become
// visible after file A's DeclAnalyzer runs).
func (p *Pipeline) CompileFile(ctx context.Context, tree *syntax.Tree) ([]GlobalRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.db.Remove(tree.File) // re-index: evict this file's prior facts first

	decl := NewDeclAnalyzer(p.db, p.interner, tree)
	globals := decl.Run()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	NewDocAnalyzer(p.db, p.interner, tree).Run()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	NewBindAnalyzer(p.db, p.interner, tree).Run()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	NewFlowAnalyzer(p.db, p.interner, tree).Run()

	return globals, nil
}

// Settle drains the ResolveQueue to a fixed point, per spec.md §4.2 step
// 5, and returns the dependency keys still unresolved after exhausting
// maxResolvePasses — whoever parked them (semantic.ParkAll, whose
// expressions keep the Unknown result their first inference produced)
// already has that fallback in place; this is informational for
// diagnostics, not a second-chance resolution path.
func (p *Pipeline) Settle() []DependencyKey {
	return p.queue.Drain(p.db, maxResolvePasses)
}

// Park exposes the shared ResolveQueue outside the package: the semantic
// pass (semantic.ParkAll) parks its expression retries through it onto
// the one queue the whole batch shares.
func (p *Pipeline) Park(key DependencyKey, retry Retry) {
	p.queue.Park(key, retry)
}
