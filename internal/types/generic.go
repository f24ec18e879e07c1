package types

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// Substitutor maps template parameters to the concrete types bound to
// them for one call/instantiation. It is built by Match (pattern-matching
// declared parameter types against argument types, §4.6 "Construction")
// and consumed by Instantiate (§4.6 "Application").
type Substitutor struct {
	tpl     map[int]Type
	strTpl  map[int]Type
	funcTpl map[int]Type
	self    Type
}

// NewSubstitutor returns an empty substitutor.
func NewSubstitutor() *Substitutor {
	return &Substitutor{
		tpl:     make(map[int]Type),
		strTpl:  make(map[int]Type),
		funcTpl: make(map[int]Type),
	}
}

// BindSelf records the receiver type resolved for a method call;
// Instantiate substitutes it for every SelfInfer occurrence.
func (s *Substitutor) BindSelf(t Type) { s.self = t }

func (s *Substitutor) bindTpl(i int, t Type) {
	if existing, ok := s.tpl[i]; ok {
		s.tpl[i] = NewUnion(dedupUnion(existing, t)...)
		return
	}
	s.tpl[i] = t
}

func dedupUnion(a, b Type) []Type {
	as := FlattenUnion(a)
	bs := FlattenUnion(b)
	out := append([]Type{}, as...)
	for _, x := range bs {
		dup := false
		for _, y := range out {
			// String-based identity check: some variants (Tuple, Object,
			// Union, …) embed slices/maps and are not comparable with ==,
			// so a full Equal (which needs an AliasResolver we don't have
			// here) would be overkill — this is best-effort LUB dedup,
			// not a correctness-critical compatibility check.
			if x.Kind() == y.Kind() && x.String() == y.String() {
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

// Match pattern-matches decl (a declared parameter type, possibly
// containing TplRef/FuncTplRef/StrTplRef) against arg (an inferred
// argument type), recording bindings into sub. It walks both types in
// parallel per the rules of §4.6; unmatched shapes are simply skipped
// (a partial match is still useful — unbound TplRefs instantiate to Any).
func Match(sub *Substitutor, decl, arg Type) {
	switch d := decl.(type) {
	case TplRef:
		sub.bindTpl(d.Index, arg)
	case FuncTplRef:
		sub.funcTpl[d.Index] = arg
	case StrTplRef:
		if sc, ok := arg.(StringConst); ok && strings.HasPrefix(sc.Value, d.Prefix) {
			sub.strTpl[d.Index] = StringConst{Value: sc.Value[len(d.Prefix):]}
		}
	case Array:
		switch a := arg.(type) {
		case Array:
			Match(sub, d.Elem, a.Elem)
		case Tuple:
			for _, e := range a.Elems {
				Match(sub, d.Elem, e)
			}
		case TableConst:
			// Element type of a table literal is not statically known
			// from the Type alone; nothing further to match here. The
			// caller (infer_call) resolves TableConst fields via
			// MemberIndex before calling Match when it needs that.
		}
	case Tuple:
		if a, ok := arg.(Tuple); ok {
			n := len(d.Elems)
			if len(a.Elems) < n {
				n = len(a.Elems)
			}
			for i := 0; i < n; i++ {
				Match(sub, d.Elems[i], a.Elems[i])
			}
		}
	case Object:
		if a, ok := arg.(Object); ok {
			for k, dv := range d.Fields {
				if av, ok := a.Fields[k]; ok {
					Match(sub, dv, av)
				}
			}
		}
	case DocFunction:
		if a, ok := arg.(DocFunction); ok {
			n := len(d.Func.Params)
			if len(a.Func.Params) < n {
				n = len(a.Func.Params)
			}
			for i := 0; i < n; i++ {
				Match(sub, d.Func.Params[i].Type, a.Func.Params[i].Type)
			}
			m := len(d.Func.Returns)
			if len(a.Func.Returns) < m {
				m = len(a.Func.Returns)
			}
			for i := 0; i < m; i++ {
				Match(sub, d.Func.Returns[i], a.Func.Returns[i])
			}
		}
	case Generic:
		if a, ok := arg.(Generic); ok && a.Base == d.Base {
			n := len(d.Params)
			if len(a.Params) < n {
				n = len(a.Params)
			}
			for i := 0; i < n; i++ {
				Match(sub, d.Params[i], a.Params[i])
			}
		}
	case Nullable:
		Match(sub, d.Elem, arg)
	case Union:
		for _, dt := range d.Types {
			Match(sub, dt, arg)
		}
	}
}

// Instantiate substitutes every TplRef/FuncTplRef/StrTplRef/SelfInfer
// occurrence in t by its binding in sub, preserving variant shape. Types
// with no template occurrences are returned unchanged (no defensive copy).
func Instantiate(sub *Substitutor, t Type) Type {
	switch x := t.(type) {
	case TplRef:
		if v, ok := sub.tpl[x.Index]; ok {
			return v
		}
		return Any
	case FuncTplRef:
		if v, ok := sub.funcTpl[x.Index]; ok {
			return v
		}
		return Any
	case StrTplRef:
		if v, ok := sub.strTpl[x.Index]; ok {
			return v
		}
		return String
	case Primitive:
		if x.K == KindSelfInfer && sub.self != nil {
			return sub.self
		}
		return t
	case Array:
		return Array{Elem: Instantiate(sub, x.Elem)}
	case Tuple:
		return Tuple{Elems: instantiateSlice(sub, x.Elems)}
	case Object:
		return instantiateObject(sub, x)
	case TableGeneric:
		return TableGeneric{Params: instantiateSlice(sub, x.Params)}
	case Generic:
		return Generic{Base: x.Base, Params: instantiateSlice(sub, x.Params)}
	case DocFunction:
		return DocFunction{Func: instantiateFunc(sub, x.Func)}
	case Union:
		return Union{Types: instantiateSlice(sub, x.Types)}
	case Intersection:
		return Intersection{Types: instantiateSlice(sub, x.Types)}
	case Extends:
		return Extends{Base: Instantiate(sub, x.Base), Ext: Instantiate(sub, x.Ext)}
	case Nullable:
		return Nullable{Elem: Instantiate(sub, x.Elem)}
	case KeyOf:
		return KeyOf{Elem: Instantiate(sub, x.Elem)}
	case MultiReturn:
		if x.Base != nil {
			return MultiReturn{Base: Instantiate(sub, x.Base)}
		}
		return MultiReturn{Types: instantiateSlice(sub, x.Types)}
	case VariadicType:
		return VariadicType{Elem: Instantiate(sub, x.Elem)}
	case Instance:
		return Instance{Base: Instantiate(sub, x.Base), CreationSite: x.CreationSite}
	default:
		return t
	}
}

func instantiateSlice(sub *Substitutor, ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Instantiate(sub, t)
	}
	return out
}

// instantiateObject substitutes every field value of o. Field keys are
// ids.MemberKey, a plain comparable struct rather than a Type, so no key
// substitution is ever needed — only values.
func instantiateObject(sub *Substitutor, o Object) Type {
	fields := make(map[ids.MemberKey]Type, len(o.Fields))
	for k, v := range o.Fields {
		fields[k] = Instantiate(sub, v)
	}
	rules := make([]IndexRule, len(o.IndexAccess))
	for i, r := range o.IndexAccess {
		rules[i] = IndexRule{Key: Instantiate(sub, r.Key), Value: Instantiate(sub, r.Value)}
	}
	return Object{Fields: fields, IndexAccess: rules}
}

func instantiateFunc(sub *Substitutor, f FunctionType) FunctionType {
	params := make([]Param, len(f.Params))
	for i, p := range f.Params {
		params[i] = Param{Name: p.Name, Type: Instantiate(sub, p.Type), Optional: p.Optional}
	}
	var variadic Type
	if f.Variadic != nil {
		variadic = Instantiate(sub, f.Variadic)
	}
	return FunctionType{
		Generics:    f.Generics,
		Params:      params,
		Returns:     instantiateSlice(sub, f.Returns),
		Variadic:    variadic,
		Async:       f.Async,
		ColonDefine: f.ColonDefine,
	}
}
