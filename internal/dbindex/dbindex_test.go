package dbindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

func TestDeclIndexVisibleAtResolvesInnermostScope(t *testing.T) {
	db := New()
	file := ids.FileId(1)

	outer := db.Decl.Scope(file)
	inner := outer.OpenScope(0, ids.TextRange{Start: 10, End: 50})

	xOuter := ids.DeclId{File: file, Pos: 5}
	xInner := ids.DeclId{File: file, Pos: 20}
	outer.Bind(0, "x", xOuter)
	outer.Bind(inner, "x", xInner)

	require.NoError(t, db.Decl.Insert(&Decl{ID: xOuter, Name: "x", Kind: DeclLocal, Range: ids.TextRange{Start: 5, End: 6}}))
	require.NoError(t, db.Decl.Insert(&Decl{ID: xInner, Name: "x", Kind: DeclLocal, Range: ids.TextRange{Start: 20, End: 21}}))

	got, ok := db.Decl.VisibleAt(file, 25, "x")
	require.True(t, ok, "expected a visible decl at pos 25")
	assert.Equal(t, xInner, got.ID, "expected innermost decl")

	got, ok = db.Decl.VisibleAt(file, 7, "x")
	require.True(t, ok, "expected a visible decl at pos 7")
	assert.Equal(t, xOuter, got.ID, "expected outer decl outside the inner scope")
}

func TestDeclIndexRemoveEvictsFileAndScope(t *testing.T) {
	db := New()
	file := ids.FileId(7)
	other := ids.FileId(8)

	d1 := ids.DeclId{File: file, Pos: 1}
	d2 := ids.DeclId{File: other, Pos: 1}
	require.NoError(t, db.Decl.Insert(&Decl{ID: d1, Name: "a", Kind: DeclGlobal}))
	require.NoError(t, db.Decl.Insert(&Decl{ID: d2, Name: "b", Kind: DeclGlobal}))

	require.NoError(t, db.Remove(file))

	_, ok := db.Decl.Get(d1)
	assert.False(t, ok, "expected decl from removed file to be gone")

	_, ok = db.Decl.Get(d2)
	assert.True(t, ok, "decl from a different file should survive Remove")
}

func TestTypeIndexResolveAlias(t *testing.T) {
	db := New()
	file := ids.FileId(1)
	aliasID := ids.TypeDeclId(1)

	db.Type.Insert(&TypeDecl{
		ID:     aliasID,
		Name:   "UserId",
		Kind:   TypeDeclAlias,
		File:   file,
		Origin: types.Integer,
	})

	origin, ok := db.Type.ResolveAlias(types.Ref{Decl: aliasID})
	require.True(t, ok, "expected alias to resolve")
	assert.True(t, types.Equal(db.Type, origin, types.Integer), "expected alias origin to be integer, got %s", origin)

	ref := types.Ref{Decl: aliasID}
	assert.True(t, types.Equal(db.Type, ref, types.Integer), "Equal should see through the alias chain: %s vs integer", ref)
}

func TestMemberIndexByOwnerAndField(t *testing.T) {
	db := New()
	file := ids.FileId(2)
	owner := ids.TypeOwner(ids.TypeDeclId(9))

	nameKey := ids.NameKey(ids.Name(1))
	m := &Member{
		ID:    ids.MemberId{File: file, Node: 40},
		Owner: owner,
		Key:   nameKey,
		Type:  types.String,
	}
	require.NoError(t, db.Member.Insert(m))

	got, ok := db.Member.Field(owner, nameKey)
	require.True(t, ok, "expected to find member by key")
	assert.Equal(t, m.ID, got.ID)

	all := db.Member.ByOwner(owner)
	assert.Len(t, all, 1, "expected 1 member for owner")
}

func TestModuleIndexNamespacePrefix(t *testing.T) {
	db := New()
	db.Module.Insert(&ModuleInfo{Path: "app.services.user", File: ids.FileId(1), Exports: types.Table})
	db.Module.Insert(&ModuleInfo{Path: "app.services.order", File: ids.FileId(2), Exports: types.Table})
	db.Module.Insert(&ModuleInfo{Path: "app.models.user", File: ids.FileId(3), Exports: types.Table})

	services := db.Module.Namespace("app.services")
	assert.Len(t, services, 2, "expected 2 modules under app.services")

	_, ok := db.Module.Get("app.models.user")
	assert.True(t, ok, "expected exact path lookup to find app.models.user")
}

func TestReferenceIndexOfDecl(t *testing.T) {
	db := New()
	file := ids.FileId(3)
	decl := ids.DeclId{File: file, Pos: 1}

	r1 := &Reference{ID: ids.VarRefId{File: file, Pos: 10}, Decl: decl}
	r2 := &Reference{ID: ids.VarRefId{File: file, Pos: 20}, Decl: decl}
	require.NoError(t, db.Reference.Insert(r1))
	require.NoError(t, db.Reference.Insert(r2))

	refs := db.Reference.Of(decl)
	assert.Len(t, refs, 2)

	require.NoError(t, db.Reference.Remove(file))
	assert.Empty(t, db.Reference.Of(decl), "expected references to be gone after Remove")
}
