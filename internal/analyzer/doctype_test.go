package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

func namerFor(interner *ids.Interner) TypeNamer {
	return typeNamerFunc(func(name string) ids.TypeDeclId {
		return ids.TypeDeclId(interner.Intern(name))
	})
}

func TestParseDocTypePrimitive(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType("string", namerFor(in))
	require.True(t, ok)
	assert.Equal(t, types.String, got)
}

func TestParseDocTypeUnion(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType("string|integer|nil", namerFor(in))
	require.True(t, ok)
	u, ok := got.(types.Union)
	require.True(t, ok, "expected Union, got %T", got)
	assert.Len(t, u.Types, 3)
}

func TestParseDocTypeArrayAndNullable(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType("string[]?", namerFor(in))
	require.True(t, ok)
	nullable, ok := got.(types.Nullable)
	require.True(t, ok, "expected Nullable, got %T", got)
	arr, ok := nullable.Elem.(types.Array)
	require.True(t, ok, "expected Array inside Nullable, got %T", nullable.Elem)
	assert.Equal(t, types.String, arr.Elem)
}

func TestParseDocTypeTable(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType("table<string, integer>", namerFor(in))
	require.True(t, ok)
	obj, ok := got.(types.Object)
	require.True(t, ok, "expected Object, got %T", got)
	require.Len(t, obj.IndexAccess, 1)
	assert.Equal(t, types.String, obj.IndexAccess[0].Key)
	assert.Equal(t, types.Integer, obj.IndexAccess[0].Value)
}

func TestParseDocTypeFunction(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType(`fun(a: integer, b?: string): boolean`, namerFor(in))
	require.True(t, ok)
	fn, ok := got.(types.DocFunction)
	require.True(t, ok, "expected DocFunction, got %T", got)
	require.Len(t, fn.Func.Params, 2)
	assert.True(t, fn.Func.Params[1].Optional, "expected second param optional")
	require.Len(t, fn.Func.Returns, 1)
	assert.Equal(t, types.Boolean, fn.Func.Returns[0])
}

func TestParseDocTypeGeneric(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType("Promise<string>", namerFor(in))
	require.True(t, ok)
	gen, ok := got.(types.Generic)
	require.True(t, ok, "expected Generic, got %T", got)
	require.Len(t, gen.Params, 1)
	assert.Equal(t, types.String, gen.Params[0])
	assert.Equal(t, "Promise", in.String(ids.Name(gen.Base)))
}

func TestParseDocTypeStringLiteral(t *testing.T) {
	in := ids.NewInterner()
	got, ok := parseDocType(`"GET"|"POST"`, namerFor(in))
	require.True(t, ok)
	u, ok := got.(types.Union)
	require.True(t, ok, "expected Union, got %T", got)
	first, ok := u.Types[0].(types.DocStringConst)
	require.True(t, ok, "unexpected first arm type %T", u.Types[0])
	assert.Equal(t, "GET", first.Value)
}
