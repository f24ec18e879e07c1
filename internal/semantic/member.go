package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/analyzer"
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// docTypeNamer adapts an Interner to analyzer.TypeNamer so operator doc
// type text (stored as strings in OperatorIndex) can be parsed with the
// same grammar DocAnalyzer uses for `---@` tag bodies.
type docTypeNamer struct{ interner *ids.Interner }

func (n docTypeNamer) InternTypeName(name string) ids.TypeDeclId {
	return ids.TypeDeclId(n.interner.Intern(name))
}

func parseOperatorType(text string, interner *ids.Interner) (types.Type, bool) {
	if text == "" {
		return nil, false
	}
	return analyzer.ParseDocType(text, docTypeNamer{interner: interner})
}

// LookupMember resolves `obj.key` / `obj[key]` per spec.md §4.5: a by-key
// layer over MemberIndex (recursing through class supertypes behind
// guard, joining union arms, requiring an identical result across
// intersection arms, descending into namespaces/tuples/arrays), then a
// by-operator fallback consulting the owner's `__index` metamethod.
// types.Nil with FailNone means "no such member, nothing to wait on" —
// distinct from a non-FailNone reason, which asks the caller to park
// until the dependency resolves.
func LookupMember(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, obj types.Type, key ids.MemberKey) (types.Type, InferFailReason) {
	switch t := obj.(type) {
	case types.Union:
		return lookupUnionMember(db, interner, guard, t, key)
	case types.Intersection:
		return lookupIntersectionMember(db, interner, guard, t, key)
	case types.Tuple:
		if key.Kind == ids.MemberKeyInteger && key.Int >= 1 && int(key.Int) <= len(t.Elems) {
			return t.Elems[key.Int-1], InferFailReason{}
		}
		return types.Nil, InferFailReason{}
	case types.Array:
		if key.Kind == ids.MemberKeyInteger {
			return t.Elem, InferFailReason{}
		}
		return types.Nil, InferFailReason{}
	case types.VariadicType:
		return LookupMember(db, interner, guard, t.Elem, key)
	case types.Namespace:
		return lookupNamespaceMember(db, t, key, interner)
	case types.Instance:
		return LookupMember(db, interner, guard, t.Base, key)
	case types.Nullable:
		return LookupMember(db, interner, guard, t.Elem, key)
	case types.Ref:
		return lookupOwnerMember(db, interner, guard, ids.TypeOwner(t.Decl), key)
	case types.Def:
		return lookupOwnerMember(db, interner, guard, ids.TypeOwner(t.Decl), key)
	case types.Generic:
		return lookupOwnerMember(db, interner, guard, ids.TypeOwner(t.Base), key)
	case types.TableConst:
		return lookupOwnerMember(db, interner, guard, ids.ElementOwner(t.Range), key)
	case types.Object:
		if v, ok := t.Fields[key]; ok {
			return v, InferFailReason{}
		}
		for _, rule := range t.IndexAccess {
			if indexKeyCompatible(rule.Key, key) {
				return rule.Value, InferFailReason{}
			}
		}
		return types.Nil, InferFailReason{}
	default:
		return types.Nil, InferFailReason{}
	}
}

// lookupOwnerMember is the by-key layer's core: a direct MemberIndex hit,
// else recurse through the owner's declared supertypes (class inheritance
// only applies to OwnerTypeDecl owners), else fall back to the
// `__index` operator.
func lookupOwnerMember(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, owner ids.MemberOwner, key ids.MemberKey) (types.Type, InferFailReason) {
	if m, ok := db.Member.Field(owner, key); ok {
		return m.Type, InferFailReason{}
	}
	if owner.Kind == ids.OwnerTypeDecl {
		if !guard.Enter(owner.Type) {
			return types.Unknown, InferFailReason{}
		}
		defer guard.Exit(owner.Type)
		for _, super := range db.Type.Supers(owner.Type) {
			superOwner, ok := ownerOfType(super)
			if !ok {
				continue
			}
			if v, fail := lookupOwnerMember(db, interner, guard, superOwner, key); fail.Recoverable() {
				return v, fail
			} else if v != types.Nil {
				return v, InferFailReason{}
			}
		}
	}
	return lookupOperatorMember(db, interner, owner, key)
}

// ownerOfType maps a member-bearing type back to the MemberOwner its
// fields/operators are registered under — used both for supertype
// recursion (Ref/Def/Generic) and by expr.go's unary/binary metamethod
// lookup (which also needs TableConst's own metatable and an Instance's
// wrapped base).
func ownerOfType(t types.Type) (ids.MemberOwner, bool) {
	switch t := t.(type) {
	case types.Ref:
		return ids.TypeOwner(t.Decl), true
	case types.Def:
		return ids.TypeOwner(t.Decl), true
	case types.Generic:
		return ids.TypeOwner(t.Base), true
	case types.TableConst:
		return ids.ElementOwner(t.Range), true
	case types.Instance:
		return ownerOfType(t.Base)
	default:
		return ids.MemberOwner{}, false
	}
}

func lookupOperatorMember(db *dbindex.DbIndex, interner *ids.Interner, owner ids.MemberOwner, key ids.MemberKey) (types.Type, InferFailReason) {
	opOwner, ok := operatorOwnerFor(owner)
	if !ok {
		return types.Nil, InferFailReason{}
	}
	for _, op := range db.Operator.Lookup(opOwner, ids.MetaIndex) {
		if op.Lhs != "" {
			keyType, ok := parseOperatorType(op.Lhs, interner)
			if ok && !indexKeyTypeCompatible(keyType, key) {
				continue
			}
		}
		if t, ok := parseOperatorType(op.Result, interner); ok {
			return t, InferFailReason{}
		}
	}
	return types.Nil, InferFailReason{}
}

func operatorOwnerFor(owner ids.MemberOwner) (ids.OperatorOwner, bool) {
	switch owner.Kind {
	case ids.OwnerTypeDecl:
		return ids.OperatorOwner{Kind: ids.OperatorOwnerType, Type: owner.Type}, true
	case ids.OwnerElement:
		return ids.OperatorOwner{Kind: ids.OperatorOwnerTable, Table: owner.Element}, true
	default:
		return ids.OperatorOwner{}, false
	}
}

func lookupUnionMember(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, u types.Union, key ids.MemberKey) (types.Type, InferFailReason) {
	var arms []types.Type
	for _, arm := range u.Types {
		v, fail := LookupMember(db, interner, guard, arm, key)
		if fail.Recoverable() {
			return v, fail
		}
		if v != types.Nil {
			arms = append(arms, v)
		}
	}
	if len(arms) == 0 {
		return types.Nil, InferFailReason{}
	}
	return types.NewUnion(arms...), InferFailReason{}
}

func lookupIntersectionMember(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, in types.Intersection, key ids.MemberKey) (types.Type, InferFailReason) {
	var first types.Type
	for i, arm := range in.Types {
		v, fail := LookupMember(db, interner, guard, arm, key)
		if fail.Recoverable() {
			return v, fail
		}
		if i == 0 {
			first = v
			continue
		}
		if !types.Equal(db.Type, first, v) {
			return types.Nil, InferFailReason{}
		}
	}
	return first, InferFailReason{}
}

func lookupNamespaceMember(db *dbindex.DbIndex, ns types.Namespace, key ids.MemberKey, interner *ids.Interner) (types.Type, InferFailReason) {
	if key.Kind != ids.MemberKeyName {
		return types.Nil, InferFailReason{}
	}
	full := ns.Path + "." + interner.String(key.Name)
	if mod, ok := db.Module.Get(full); ok {
		return mod.Exports, InferFailReason{}
	}
	if len(db.Module.Namespace(full)) > 0 {
		return types.Namespace{Path: full}, InferFailReason{}
	}
	if id, ok := interner.Lookup(full); ok {
		if _, ok := db.Type.Get(ids.TypeDeclId(id)); ok {
			return types.Def{Decl: ids.TypeDeclId(id)}, InferFailReason{}
		}
	}
	return types.Namespace{Path: full}, InferFailReason{}
}

// indexKeyCompatible reports whether an Object's IndexRule key type
// accepts the given member key (string rules accept name keys, numeric
// rules accept integer keys, everything else accepts both — a
// conservative default safer than silently refusing a valid lookup).
func indexKeyCompatible(ruleKey types.Type, key ids.MemberKey) bool {
	switch ruleKey {
	case types.String:
		return key.Kind == ids.MemberKeyName
	case types.Integer, types.Number:
		return key.Kind == ids.MemberKeyInteger
	default:
		return true
	}
}

func indexKeyTypeCompatible(t types.Type, key ids.MemberKey) bool {
	return indexKeyCompatible(t, key)
}
