package semantic

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// assertTypeStringEqual renders both sides through Type.String() and, on
// mismatch, reports a unified diff instead of two opaque strings — most
// useful once a Union grows enough arms that eyeballing "a|b|c" against
// "a|c|b" stops being obvious.
func assertTypeStringEqual(t *testing.T, want, got types.Type) {
	t.Helper()
	ws, gs := want.String(), got.String()
	if ws == gs {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ws),
		B:        difflib.SplitLines(gs),
		FromFile: "want",
		ToFile:   "got",
		Context:  1,
	})
	require.NoError(t, err)
	t.Fatalf("type string mismatch:\n%s", diff)
}

func TestFoldArithIntegerConstants(t *testing.T) {
	v, ok := foldArith("+", types.IntegerConst{Value: 2}, types.IntegerConst{Value: 3})
	require.True(t, ok)
	assertTypeStringEqual(t, types.IntegerConst{Value: 5}, v)

	v, ok = foldArith("-", types.IntegerConst{Value: 2}, types.IntegerConst{Value: 3})
	require.True(t, ok)
	assertTypeStringEqual(t, types.IntegerConst{Value: -1}, v)

	v, ok = foldArith("*", types.IntegerConst{Value: 4}, types.IntegerConst{Value: 5})
	require.True(t, ok)
	assertTypeStringEqual(t, types.IntegerConst{Value: 20}, v)
}

func TestFoldArithFloatConstants(t *testing.T) {
	v, ok := foldArith("+", types.FloatConst{Value: 1.5}, types.FloatConst{Value: 2.5})
	require.True(t, ok)
	assertTypeStringEqual(t, types.FloatConst{Value: 4}, v)

	v, ok = foldArith("/", types.FloatConst{Value: 1}, types.FloatConst{Value: 2})
	require.True(t, ok)
	assertTypeStringEqual(t, types.Number, v)
}

func TestFoldArithMixedWidensToNumber(t *testing.T) {
	v, ok := foldArith("+", types.Integer, types.Number)
	require.True(t, ok)
	assertTypeStringEqual(t, types.Number, v)

	v, ok = foldArith("+", types.Integer, types.Integer)
	require.True(t, ok)
	assertTypeStringEqual(t, types.Integer, v)
}

func TestFoldArithNonNumericFails(t *testing.T) {
	_, ok := foldArith("+", types.String, types.Integer)
	assert.False(t, ok)
}

func TestIsNumericType(t *testing.T) {
	assert.True(t, isNumericType(types.Integer))
	assert.True(t, isNumericType(types.Number))
	assert.True(t, isNumericType(types.IntegerConst{Value: 1}))
	assert.True(t, isNumericType(types.FloatConst{Value: 1}))
	assert.False(t, isNumericType(types.String))
	assert.False(t, isNumericType(types.Boolean))
}

func TestIsFalsyType(t *testing.T) {
	assert.True(t, isFalsyType(types.Nil))
	assert.True(t, isFalsyType(types.BooleanConst{Value: false}))
	assert.False(t, isFalsyType(types.BooleanConst{Value: true}))
	assert.False(t, isFalsyType(types.Integer))
}

func TestStripNilArmsRemovesOnlyNil(t *testing.T) {
	u := types.NewUnion(types.String, types.Nil, types.Integer)
	arms := stripNilArms(u)
	assertTypeStringEqual(t, types.NewUnion(types.String, types.Integer), types.NewUnion(arms...))
}

func TestStripNilArmsOnNonUnion(t *testing.T) {
	arms := stripNilArms(types.String)
	require.Len(t, arms, 1)
	assertTypeStringEqual(t, types.String, arms[0])
}

func TestInferNumberDistinguishesIntAndFloat(t *testing.T) {
	assertTypeStringEqual(t, types.IntegerConst{Value: 42}, inferNumber("42"))
	assertTypeStringEqual(t, types.FloatConst{Value: 3.5}, inferNumber("3.5"))
}

func TestIsConcatableAcceptsStringAndNumeric(t *testing.T) {
	assert.True(t, isConcatable(types.String))
	assert.True(t, isConcatable(types.StringConst{Value: "x"}))
	assert.True(t, isConcatable(types.Integer))
	assert.True(t, isConcatable(types.IntegerConst{Value: 1}))
	assert.True(t, isConcatable(types.Number))
	assert.False(t, isConcatable(types.Boolean))
	assert.False(t, isConcatable(types.Table))
}

func TestUnquoteLuaString(t *testing.T) {
	assert.Equal(t, "hello", unquoteLuaString(`"hello"`))
	assert.Equal(t, "hello", unquoteLuaString(`'hello'`))
}
