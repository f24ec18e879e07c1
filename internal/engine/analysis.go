// Package engine implements spec.md §5's concurrency and resource model:
// a single `Analysis` object guarding one workspace's DbIndex/Interner
// behind a read-many/write-one discipline, exposing the synchronous
// request-response API an embedding LSP layer drives from its own
// single-threaded dispatcher. Grounded on the teacher's `fieldCache`
// (analyzer/ast/cache.go), which protects a shared map behind exactly
// this sync.RWMutex shape for exactly this reason — many concurrent
// readers, one writer at a time per file update.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abiiranathan/lua-analyzer/internal/analyzer"
	"github.com/abiiranathan/lua-analyzer/internal/config"
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/lualog"
	"github.com/abiiranathan/lua-analyzer/internal/metrics"
	"github.com/abiiranathan/lua-analyzer/internal/semantic"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
)

// Analysis is the root object spec.md §5's "Locking discipline" section
// describes: the core itself (Pipeline, ResolveQueue, the semantic
// package) takes no locks, and Analysis is the one place that adds them,
// so everything below stays testable single-threaded while still being
// safe to drive from a concurrent request dispatcher above it.
type Analysis struct {
	mu       sync.RWMutex
	db       *dbindex.DbIndex
	interner *ids.Interner
	pipeline *analyzer.Pipeline
	parser   *syntax.Parser
	trees    map[ids.FileId]*syntax.Tree

	cfg *config.Configuration
	log hclogLogger
	m   *metrics.Metrics
}

// hclogLogger is the subset of hclog.Logger Analysis itself calls,
// kept narrow so this package doesn't force a concrete logger shape on
// callers that already have their own Named() child logger to pass in.
type hclogLogger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// New builds an empty Analysis for one workspace. cfg/log/m may be nil;
// a nil logger silently discards, a nil Metrics skips instrumentation —
// both are optional so tests can build an Analysis without dragging in
// the ambient stack.
func New(cfg *config.Configuration, log hclogLogger, m *metrics.Metrics) *Analysis {
	if cfg == nil {
		cfg = config.Default()
	}
	db := dbindex.New()
	interner := ids.NewInterner()
	return &Analysis{
		db:       db,
		interner: interner,
		pipeline: analyzer.NewPipeline(db, interner),
		parser:   syntax.NewParser(),
		trees:    make(map[ids.FileId]*syntax.Tree),
		cfg:      cfg,
		log:      noopLogIfNil(log),
		m:        m,
	}
}

type noopLog struct{}

func (noopLog) Info(string, ...interface{})  {}
func (noopLog) Warn(string, ...interface{})  {}
func (noopLog) Debug(string, ...interface{}) {}

func noopLogIfNil(l hclogLogger) hclogLogger {
	if l == nil {
		return noopLog{}
	}
	return l
}

// UpdateFile implements spec.md §5's write path: remove(FileId) then
// update(FileId) atomically per file, under the exclusive write lock.
// Cancellation is checked before the file is touched (reentrancy point
// (a) of §5's "Suspension points"); once started, the file's own Decl→
// Doc→Bind→Flow ordering is never interrupted mid-phase.
func (a *Analysis) UpdateFile(ctx context.Context, file ids.FileId, source []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	tree, err := a.parser.Parse(ctx, file, source)
	if err != nil {
		return fmt.Errorf("engine: parse %v: %w", file, err)
	}
	if old := a.trees[file]; old != nil {
		old.Close()
	}
	a.trees[file] = tree

	if _, err := a.pipeline.CompileFile(ctx, tree); err != nil {
		return fmt.Errorf("engine: compile %v: %w", file, err)
	}

	var obs semantic.CacheObserver
	if a.m != nil {
		obs = a.m
	}
	failures := semantic.ParkAll(a.db, a.interner, tree, a.pipeline, obs)
	stuck := a.pipeline.Settle()

	if a.m != nil {
		a.m.FilesAnalyzed.Inc()
		a.m.AnalysisDuration.Observe(time.Since(start).Seconds())
		a.m.ResolveQueueStuck.Set(float64(len(stuck)))
	}
	if len(stuck) > 0 {
		a.log.Warn("resolve queue did not converge", "file", file, "stuck", len(stuck))
	}
	if len(failures) > 0 {
		a.log.Debug("expressions parked for retry", "file", file, "count", len(failures))
	}
	return nil
}

// RemoveFile evicts a file's facts entirely (the workspace closed it, or
// it was deleted on disk), under the same exclusive write lock
// UpdateFile uses.
func (a *Analysis) RemoveFile(file ids.FileId) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tree := a.trees[file]; tree != nil {
		tree.Close()
		delete(a.trees, file)
	}
	return a.db.Remove(file)
}

// View runs fn with a shared read lock held, for any read-only query
// against the DbIndex/Interner (hover, completion, references) — spec.md
// §5's "read-many, write-one" discipline, with every reader seeing one
// consistent snapshot since fn can't run concurrently with UpdateFile.
func (a *Analysis) View(fn func(db *dbindex.DbIndex, interner *ids.Interner) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return fn(a.db, a.interner)
}

// Tree returns the last-parsed tree for file, or nil if it was never
// updated or has since been removed. Callers must hold (or be inside)
// a View to dereference it safely against concurrent UpdateFile/RemoveFile.
func (a *Analysis) Tree(file ids.FileId) *syntax.Tree {
	return a.trees[file]
}

// Config returns the workspace configuration this Analysis was built
// with.
func (a *Analysis) Config() *config.Configuration { return a.cfg }
