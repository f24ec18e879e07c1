package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// maxCheckDepth bounds type_check's recursion the same way
// types.Equal bounds its own alias/structural walk — a self-referential
// `---@alias` or class hierarchy must raise CheckTypeRecursion rather
// than stack-overflow.
const maxCheckDepth = 200

// TypeCheck implements spec.md §4.7's type_check(source, candidate): is a
// value of type candidate acceptable wherever source is declared? Returns
// checkOK on success or a structured TypeCheckFailReason.
func TypeCheck(db *dbindex.DbIndex, source, candidate types.Type) TypeCheckFailReason {
	return checkDepth(db, source, candidate, 0)
}

func checkDepth(db *dbindex.DbIndex, source, candidate types.Type, depth int) TypeCheckFailReason {
	if depth > maxCheckDepth {
		return TypeCheckFailReason{Kind: CheckTypeRecursion}
	}
	depth++

	if source == types.Any || source == types.Unknown {
		return checkOK
	}
	if candidate == types.Any || candidate == types.Unknown {
		return checkOK
	}
	if _, ok := candidate.(types.TplRef); ok {
		return checkOK
	}

	if source == types.Nil {
		if candidate == types.Nil {
			return checkOK
		}
		return checkFail("nil accepts only nil")
	}

	switch s := source.(type) {
	case types.Nullable:
		if candidate == types.Nil {
			return checkOK
		}
		return checkDepth(db, s.Elem, candidate, depth)
	case types.Union:
		var lastErr TypeCheckFailReason
		for _, arm := range s.Types {
			if r := checkDepth(db, arm, candidate, depth); r.OK() {
				return checkOK
			} else {
				lastErr = r
			}
		}
		if lastErr.Kind == CheckTypeRecursion {
			return lastErr
		}
		return TypeCheckFailReason{Kind: CheckDoNotMatchAnyUnion}
	case types.Intersection:
		for _, arm := range s.Types {
			if r := checkDepth(db, arm, candidate, depth); !r.OK() {
				return r
			}
		}
		return checkOK
	case types.Def:
		if d, ok := candidate.(types.Def); ok && d.Decl == s.Decl {
			return checkOK
		}
		return checkOK // Def accepts any candidate per §4.7
	case types.Ref:
		return checkRef(db, s, candidate, depth)
	case types.Array:
		return checkArray(db, s, candidate, depth)
	case types.Tuple:
		return checkTuple(db, s, candidate, depth)
	case types.Object:
		return checkObject(db, s, candidate, depth)
	case types.DocFunction:
		return checkFunction(db, s, candidate, depth)
	case types.StrTplRef:
		if isStringLike(candidate) {
			return checkOK
		}
		return checkFail("expected a string-like value")
	}

	if candidate == types.Nil {
		return checkFail("value may be nil")
	}
	if equalOrWiden(db, source, candidate) {
		return checkOK
	}
	return TypeCheckFailReason{Kind: CheckTypeNotMatch}
}

// equalOrWiden covers primitive identity plus the widening chains §4.7
// names: IntegerConst→Integer→Number, StringConst→String, BooleanConst→
// Boolean.
func equalOrWiden(db *dbindex.DbIndex, source, candidate types.Type) bool {
	if types.Equal(db.Type, source, candidate) {
		return true
	}
	widened := types.Widen(candidate)
	if types.Equal(db.Type, source, widened) {
		return true
	}
	if source == types.Number && (widened == types.Integer || widened == types.Number) {
		return true
	}
	return false
}

func isStringLike(t types.Type) bool {
	switch t.(type) {
	case types.StringConst, types.DocStringConst:
		return true
	}
	return t == types.String
}

func checkRef(db *dbindex.DbIndex, s types.Ref, candidate types.Type, depth int) TypeCheckFailReason {
	if origin, ok := db.Type.ResolveAlias(s); ok {
		return checkDepth(db, origin, candidate, depth)
	}
	switch c := candidate.(type) {
	case types.Ref:
		if c.Decl == s.Decl || isSubtype(db, c.Decl, s.Decl, depth) {
			return checkOK
		}
		return TypeCheckFailReason{Kind: CheckTypeNotMatch}
	case types.Instance:
		return checkRef(db, s, c.Base, depth)
	case types.TableConst:
		return checkClassAgainstTableConst(db, s.Decl, c, depth)
	default:
		if types.Equal(db.Type, s, candidate) {
			return checkOK
		}
		return TypeCheckFailReason{Kind: CheckTypeNotMatch}
	}
}

func isSubtype(db *dbindex.DbIndex, candidate, want ids.TypeDeclId, depth int) bool {
	if depth > maxCheckDepth {
		return false
	}
	for _, super := range db.Type.Supers(candidate) {
		if r, ok := super.(types.Ref); ok {
			if r.Decl == want || isSubtype(db, r.Decl, want, depth+1) {
				return true
			}
		}
	}
	return false
}

// checkClassAgainstTableConst accepts a table literal as satisfying a
// class declaration when every member the class declares (inherited
// included) is present on the literal's own member set and compatible.
func checkClassAgainstTableConst(db *dbindex.DbIndex, decl ids.TypeDeclId, lit types.TableConst, depth int) TypeCheckFailReason {
	owner := ids.TypeOwner(decl)
	for _, want := range db.Member.ByOwner(owner) {
		got, ok := db.Member.Field(ids.ElementOwner(lit.Range), want.Key)
		if !ok {
			return checkFail("missing field on table literal")
		}
		if r := checkDepth(db, want.Type, got.Type, depth+1); !r.OK() {
			return r
		}
	}
	for _, super := range db.Type.Supers(decl) {
		if r, ok := super.(types.Ref); ok {
			if res := checkClassAgainstTableConst(db, r.Decl, lit, depth+1); !res.OK() {
				return res
			}
		}
	}
	return checkOK
}

func checkArray(db *dbindex.DbIndex, s types.Array, candidate types.Type, depth int) TypeCheckFailReason {
	switch c := candidate.(type) {
	case types.Array:
		return checkDepth(db, s.Elem, c.Elem, depth)
	case types.Tuple:
		for _, e := range c.Elems {
			if r := checkDepth(db, s.Elem, e, depth); !r.OK() {
				return r
			}
		}
		return checkOK
	default:
		return TypeCheckFailReason{Kind: CheckTypeNotMatch}
	}
}

func checkTuple(db *dbindex.DbIndex, s types.Tuple, candidate types.Type, depth int) TypeCheckFailReason {
	c, ok := candidate.(types.Tuple)
	if !ok || len(s.Elems) > len(c.Elems) {
		return TypeCheckFailReason{Kind: CheckTypeNotMatch}
	}
	for i, e := range s.Elems {
		if r := checkDepth(db, e, c.Elems[i], depth); !r.OK() {
			return r
		}
	}
	return checkOK
}

func checkObject(db *dbindex.DbIndex, s types.Object, candidate types.Type, depth int) TypeCheckFailReason {
	fields := func(key ids.MemberKey) (types.Type, bool) {
		switch c := candidate.(type) {
		case types.Object:
			v, ok := c.Fields[key]
			return v, ok
		case types.TableConst:
			m, ok := db.Member.Field(ids.ElementOwner(c.Range), key)
			if !ok {
				return nil, false
			}
			return m.Type, true
		default:
			return nil, false
		}
	}
	for key, want := range s.Fields {
		got, ok := fields(key)
		if !ok {
			return checkFail("missing declared field")
		}
		if r := checkDepth(db, want, got, depth); !r.OK() {
			return r
		}
	}
	for _, rule := range s.IndexAccess {
		if tc, ok := candidate.(types.TableConst); ok {
			for _, m := range db.Member.ByOwner(ids.ElementOwner(tc.Range)) {
				if !indexKeyCompatible(rule.Key, m.Key) {
					continue
				}
				if r := checkDepth(db, rule.Value, m.Type, depth); !r.OK() {
					return r
				}
			}
		}
	}
	return checkOK
}

func checkFunction(db *dbindex.DbIndex, s types.DocFunction, candidate types.Type, depth int) TypeCheckFailReason {
	c, ok := candidate.(types.DocFunction)
	if !ok {
		return TypeCheckFailReason{Kind: CheckTypeNotMatch}
	}
	// Params are contravariant: the candidate must accept everything the
	// declared source's params accept.
	for i, p := range s.Func.Params {
		if i >= len(c.Func.Params) {
			if !p.Optional {
				return checkFail("candidate function takes fewer parameters")
			}
			continue
		}
		if r := checkDepth(db, c.Func.Params[i].Type, p.Type, depth); !r.OK() {
			return r
		}
	}
	// Returns are covariant.
	for i, r := range s.Func.Returns {
		if i >= len(c.Func.Returns) {
			return checkFail("candidate function returns fewer values")
		}
		if res := checkDepth(db, r, c.Func.Returns[i], depth); !res.OK() {
			return res
		}
	}
	return checkOK
}
