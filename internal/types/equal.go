package types

// AliasResolver resolves an alias Ref to its origin type. DbIndex's
// TypeIndex implements this; package types never imports dbindex, so the
// dependency runs through this small interface instead.
type AliasResolver interface {
	ResolveAlias(Ref) (Type, bool)
}

// Equal reports whether a and b are structurally equal, per §3: "two
// Object/Union/Intersection/Generic values are equal iff structurally
// equal; identity-based equality is permissible only as an optimization."
// A Ref naming an alias is first resolved to its origin, recursively,
// before comparison (§3 invariant: alias transparency).
func Equal(resolver AliasResolver, a, b Type) bool {
	return equalDepth(resolver, a, b, 0)
}

const maxEqualDepth = 200

// isShallowKind reports whether t's underlying struct holds only plain
// comparable fields (no nested Type, slice or map), so `==` on the
// interface value is safe at runtime rather than merely legal at compile
// time. Composite kinds (Array, Tuple, Object, Union, …) embed a Type
// interface or slice/map field: Go happily compiles `==` on them, but it
// panics at runtime the moment the nested value turns out to hold an
// uncomparable dynamic type (e.g. an Array wrapping a Tuple). Restricting
// the identity shortcut to this set keeps the "permissible optimization"
// the design notes describe without that risk.
func isShallowKind(k Kind) bool {
	switch k {
	case KindUnknown, KindAny, KindNil, KindTable, KindUserdata, KindFunction,
		KindThread, KindBoolean, KindString, KindInteger, KindNumber, KindIo,
		KindGlobal, KindSelfInfer,
		KindBooleanConst, KindIntegerConst, KindFloatConst, KindStringConst,
		KindDocBooleanConst, KindDocIntegerConst, KindDocStringConst,
		KindTableConst, KindRef, KindDef, KindSignature,
		KindTplRef, KindStrTplRef, KindFuncTplRef,
		KindNamespace, KindModule:
		return true
	default:
		return false
	}
}

func equalDepth(resolver AliasResolver, a, b Type, depth int) bool {
	if depth > maxEqualDepth {
		// Pathological self-referential structural type; treat as unequal
		// rather than hang. type_check has its own, spec-mandated
		// TypeRecursion error for this situation; Equal is best-effort.
		return false
	}

	a = resolveAliasChain(resolver, a)
	b = resolveAliasChain(resolver, b)

	if a.Kind() != b.Kind() {
		return false
	}
	if isShallowKind(a.Kind()) && a == b {
		return true // identity-eq optimization permitted by §3
	}

	switch x := a.(type) {
	case Primitive:
		return true // same Kind already established
	case BooleanConst:
		return x.Value == b.(BooleanConst).Value
	case IntegerConst:
		return x.Value == b.(IntegerConst).Value
	case FloatConst:
		return x.Value == b.(FloatConst).Value
	case StringConst:
		return x.Value == b.(StringConst).Value
	case DocBooleanConst:
		return x.Value == b.(DocBooleanConst).Value
	case DocIntegerConst:
		return x.Value == b.(DocIntegerConst).Value
	case DocStringConst:
		return x.Value == b.(DocStringConst).Value
	case TableConst:
		return x.Range == b.(TableConst).Range
	case Array:
		return equalDepth(resolver, x.Elem, b.(Array).Elem, depth+1)
	case Tuple:
		y := b.(Tuple)
		if len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !equalDepth(resolver, x.Elems[i], y.Elems[i], depth+1) {
				return false
			}
		}
		return true
	case Object:
		y := b.(Object)
		if len(x.Fields) != len(y.Fields) || len(x.IndexAccess) != len(y.IndexAccess) {
			return false
		}
		for k, v := range x.Fields {
			ov, ok := y.Fields[k]
			if !ok || !equalDepth(resolver, v, ov, depth+1) {
				return false
			}
		}
		for i := range x.IndexAccess {
			if !equalDepth(resolver, x.IndexAccess[i].Key, y.IndexAccess[i].Key, depth+1) {
				return false
			}
			if !equalDepth(resolver, x.IndexAccess[i].Value, y.IndexAccess[i].Value, depth+1) {
				return false
			}
		}
		return true
	case TableGeneric:
		return equalTypeSlices(resolver, x.Params, b.(TableGeneric).Params, depth)
	case Ref:
		return x.Decl == b.(Ref).Decl
	case Def:
		return x.Decl == b.(Def).Decl
	case Generic:
		y := b.(Generic)
		return x.Base == y.Base && equalTypeSlices(resolver, x.Params, y.Params, depth)
	case DocFunction:
		return equalFunc(resolver, x.Func, b.(DocFunction).Func, depth)
	case SignatureRef:
		return x.ID == b.(SignatureRef).ID
	case Union:
		return equalTypeSetwise(resolver, x.Types, b.(Union).Types, depth)
	case Intersection:
		return equalTypeSetwise(resolver, x.Types, b.(Intersection).Types, depth)
	case Extends:
		y := b.(Extends)
		return equalDepth(resolver, x.Base, y.Base, depth+1) && equalDepth(resolver, x.Ext, y.Ext, depth+1)
	case Nullable:
		return equalDepth(resolver, x.Elem, b.(Nullable).Elem, depth+1)
	case KeyOf:
		return equalDepth(resolver, x.Elem, b.(KeyOf).Elem, depth+1)
	case MultiReturn:
		y := b.(MultiReturn)
		if (x.Base == nil) != (y.Base == nil) {
			return false
		}
		if x.Base != nil {
			return equalDepth(resolver, x.Base, y.Base, depth+1)
		}
		return equalTypeSlices(resolver, x.Types, y.Types, depth)
	case VariadicType:
		return equalDepth(resolver, x.Elem, b.(VariadicType).Elem, depth+1)
	case TplRef:
		return x.Index == b.(TplRef).Index
	case StrTplRef:
		y := b.(StrTplRef)
		return x.Prefix == y.Prefix && x.Index == y.Index
	case FuncTplRef:
		return x.Index == b.(FuncTplRef).Index
	case Instance:
		return equalDepth(resolver, x.Base, b.(Instance).Base, depth+1)
	case Namespace:
		return x.Path == b.(Namespace).Path
	case ExistField:
		y := b.(ExistField)
		return x.Key == y.Key && equalDepth(resolver, x.Origin, y.Origin, depth+1)
	case Module:
		return x.Path == b.(Module).Path
	case MultiLineUnion:
		return equalDepth(resolver, x.Flatten(), b.(MultiLineUnion).Flatten(), depth+1)
	default:
		return false
	}
}

func equalTypeSlices(resolver AliasResolver, a, b []Type, depth int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalDepth(resolver, a[i], b[i], depth+1) {
			return false
		}
	}
	return true
}

// equalTypeSetwise compares two Union/Intersection arm lists ignoring
// order and duplicates, since "a|b" and "b|a|b" denote the same type.
func equalTypeSetwise(resolver AliasResolver, a, b []Type, depth int) bool {
	if len(a) != len(b) {
		return len(dedupBy(resolver, a, depth)) == len(dedupBy(resolver, b, depth)) &&
			subsetOf(resolver, a, b, depth) && subsetOf(resolver, b, a, depth)
	}
	return subsetOf(resolver, a, b, depth) && subsetOf(resolver, b, a, depth)
}

func subsetOf(resolver AliasResolver, a, b []Type, depth int) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if equalDepth(resolver, x, y, depth+1) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func dedupBy(resolver AliasResolver, a []Type, depth int) []Type {
	out := make([]Type, 0, len(a))
	for _, x := range a {
		dup := false
		for _, y := range out {
			if equalDepth(resolver, x, y, depth+1) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}

func equalFunc(resolver AliasResolver, a, b FunctionType, depth int) bool {
	if len(a.Params) != len(b.Params) || len(a.Returns) != len(b.Returns) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Optional != b.Params[i].Optional {
			return false
		}
		if !equalDepth(resolver, a.Params[i].Type, b.Params[i].Type, depth+1) {
			return false
		}
	}
	for i := range a.Returns {
		if !equalDepth(resolver, a.Returns[i], b.Returns[i], depth+1) {
			return false
		}
	}
	if (a.Variadic == nil) != (b.Variadic == nil) {
		return false
	}
	if a.Variadic != nil && !equalDepth(resolver, a.Variadic, b.Variadic, depth+1) {
		return false
	}
	return true
}

// resolveAliasChain follows Ref→alias-origin edges until a non-alias type
// or an unresolvable Ref is reached. Guards against alias cycles with a
// bounded iteration count rather than a visited set, since alias chains in
// practice are shallow and a set allocation per call would be wasteful.
func resolveAliasChain(resolver AliasResolver, t Type) Type {
	if resolver == nil {
		return t
	}
	for i := 0; i < 64; i++ {
		ref, ok := t.(Ref)
		if !ok {
			return t
		}
		origin, ok := resolver.ResolveAlias(ref)
		if !ok {
			return t
		}
		t = origin
	}
	return t
}
