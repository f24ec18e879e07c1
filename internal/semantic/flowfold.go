package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// ReassignResolver re-infers the expression a flow-recorded reassignment
// points at, returning the idx'th component of its (possibly multi-
// valued) result — infer_expr itself, threaded in rather than imported
// directly so internal/dbindex's FlowIndex stays free of a dependency on
// this package.
type ReassignResolver func(exprPos ids.SyntaxId, idx int) types.Type

// NarrowedType implements spec.md §4.8's get_type_asserts + fold: every
// TypeAssertion recorded for varRef that is active at pos is applied to
// base in order (outermost range first), and the final type is returned.
// base is the type infer_expr would otherwise report for the name
// (usually its declaration's recorded type) — NarrowedType never invents
// a type FlowIndex knows nothing about, it only narrows one.
func NarrowedType(db *dbindex.DbIndex, file ids.FileId, varRef ids.VarRefId, pos ids.TextSize, base types.Type, reassign ReassignResolver) types.Type {
	asserts := db.Flow.GetTypeAsserts(file, varRef, pos)
	t := base
	for _, a := range asserts {
		t = foldAssertion(t, a, reassign)
	}
	return t
}

func foldAssertion(t types.Type, a dbindex.TypeAssertion, reassign ReassignResolver) types.Type {
	switch a.Kind {
	case dbindex.AssertExist:
		return stripFalsy(t)
	case dbindex.AssertNotExist:
		return intersectFalsy(t)
	case dbindex.AssertNarrow:
		if a.Narrow == nil {
			return t
		}
		if !typesDisjoint(t, a.Narrow) {
			return a.Narrow
		}
		return types.Unknown
	case dbindex.AssertRemove:
		return removeVariant(t, a.Narrow)
	case dbindex.AssertReassign:
		if reassign == nil {
			return t
		}
		return reassign(a.Reassign, a.ReassignIdx)
	default:
		return t
	}
}

// stripFalsy removes Nil and the `false` constant from t's union arms or
// unwraps a Nullable — the truthiness-guard narrow (`if x then`,
// `assert(x)`).
func stripFalsy(t types.Type) types.Type {
	if n, ok := t.(types.Nullable); ok {
		return n.Elem
	}
	arms := types.FlattenUnion(t)
	var kept []types.Type
	for _, arm := range arms {
		if arm != types.Nil && arm != (types.BooleanConst{Value: false}) {
			kept = append(kept, arm)
		}
	}
	if len(kept) == 0 {
		return types.Unknown
	}
	return types.NewUnion(kept...)
}

// intersectFalsy is stripFalsy's else-branch counterpart: the variable is
// known to be nil or false, so the result is Nil, or nil|false when t
// admits false.
func intersectFalsy(t types.Type) types.Type {
	if n, ok := t.(types.Nullable); ok {
		t = n.Elem
	}
	for _, arm := range types.FlattenUnion(t) {
		if arm == types.Boolean || arm == (types.BooleanConst{Value: false}) {
			return types.NewUnion(types.Nil, types.BooleanConst{Value: false})
		}
	}
	return types.Nil
}

func removeVariant(t, variant types.Type) types.Type {
	if variant == nil {
		return t
	}
	arms := types.FlattenUnion(t)
	var kept []types.Type
	for _, arm := range arms {
		if arm != variant {
			kept = append(kept, arm)
		}
	}
	if len(kept) == 0 {
		return types.Unknown
	}
	if len(kept) == len(arms) {
		return t // variant wasn't present, leave t untouched
	}
	return types.NewUnion(kept...)
}

// typesDisjoint is a conservative check used only to decide whether an
// AssertNarrow's target is even reachable from t (e.g. narrowing a
// `string` to `table` via a confused `type()` guard is nonsensical) —
// primitives that differ outright are disjoint, everything else is
// assumed compatible rather than risking a false Unknown.
func typesDisjoint(t, narrow types.Type) bool {
	if t == types.Any || t == types.Unknown {
		return false
	}
	_, ok1 := t.(types.Primitive)
	_, ok2 := narrow.(types.Primitive)
	if !ok1 || !ok2 {
		return false
	}
	return t != narrow
}
