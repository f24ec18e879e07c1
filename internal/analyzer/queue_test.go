package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

func TestResolveQueueDrainsOnceDependencyIsSatisfied(t *testing.T) {
	db := dbindex.New()
	q := NewResolveQueue()

	key := DependencyKey{Kind: UnresolveDecl, Decl: ids.DeclId{File: 1, Pos: 10}}
	attempts := 0
	q.Park(key, func(db *dbindex.DbIndex) bool {
		attempts++
		_, ok := db.Decl.Get(key.Decl)
		return ok
	})

	assert.True(t, q.Depends(key), "expected queue to report depending on key")

	exhausted := q.Drain(db, 4)
	require.Len(t, exhausted, 1, "expected the key to be reported as exhausted")
	assert.Equal(t, 1, attempts, "expected Drain to stop after the first no-progress pass")

	require.NoError(t, db.Decl.Insert(&dbindex.Decl{ID: key.Decl, Name: "x", Kind: dbindex.DeclGlobal}))

	attempts = 0
	q.Park(key, func(db *dbindex.DbIndex) bool {
		attempts++
		_, ok := db.Decl.Get(key.Decl)
		return ok
	})
	exhausted = q.Drain(db, 4)
	assert.Empty(t, exhausted, "expected the key to resolve")
	assert.Equal(t, 1, attempts, "expected a single retry once resolved")
	assert.Zero(t, q.Len(), "expected empty queue after drain")
}

func TestResolveQueueStopsPassesOnNoProgress(t *testing.T) {
	db := dbindex.New()
	q := NewResolveQueue()

	passes := 0
	q.Park(DependencyKey{Kind: UnresolveModuleExport, Module: "a.b"}, func(db *dbindex.DbIndex) bool {
		passes++
		return false
	})
	q.Drain(db, 100)
	assert.Equal(t, 1, passes, "expected Drain to stop after the first no-progress pass")
}
