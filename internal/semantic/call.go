package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// CallArg is one already-inferred call argument: its type, and — when the
// argument is itself a closure literal — the Signature it was assigned,
// so infer_call's step-3 guard (spec.md §4.4) can check whether that
// closure's own return type has settled yet.
type CallArg struct {
	Type      types.Type
	Signature *ids.SignatureId
}

// CallSite is everything infer_call needs about one `f(...)` expression,
// gathered by the expr.go walker so this file stays free of any
// dependency on internal/syntax.
type CallSite struct {
	Callee     types.Type
	CalleeName string // bare-identifier callee text, for require/setmetatable
	ColonCall  bool
	Args       []CallArg
	Range      ids.SyntaxRange
}

// requireLikeNames is the default `runtime.requireLikeFunction` set
// (spec.md §6); a real deployment supplies its own list via
// internal/config and infer_call callers should prefer that over this
// fallback once Configuration is wired through.
var requireLikeNames = map[string]bool{"require": true, "import": true}

// InferCall implements spec.md §4.4: require/setmetatable special cases,
// candidate collection across every shape a callee type can take,
// generic instantiation (§4.6), overload resolution by cost, self/colon
// normalization (§4.9), and post-processing the chosen return type.
func InferCall(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, site CallSite) (types.Type, InferFailReason) {
	if requireLikeNames[site.CalleeName] {
		return inferRequire(db, site), InferFailReason{}
	}
	if site.CalleeName == "setmetatable" {
		return inferSetmetatable(site), InferFailReason{}
	}

	for _, a := range site.Args {
		if a.Signature == nil {
			continue
		}
		sig, ok := db.Signature.Get(*a.Signature)
		if !ok {
			return types.Unknown, InferFailReason{Kind: FailUnresolveSignatureReturn, Signature: *a.Signature}
		}
		if sig.ReturnsPending {
			return types.Unknown, InferFailReason{Kind: FailUnresolveSignatureReturn, Signature: *a.Signature}
		}
	}

	candidates, fail := collectCandidates(db, interner, guard, site.Callee)
	if fail.Recoverable() {
		return types.Unknown, fail
	}
	if len(candidates) == 0 {
		return types.Nil, InferFailReason{}
	}

	receiver := callReceiver(site.Callee)
	instantiated := make([]types.FunctionType, len(candidates))
	for i, c := range candidates {
		c = normalizeSelfCall(c, receiver, c.ColonDefine, site.ColonCall)
		instantiated[i] = instantiateCandidate(c, site.Args, receiver)
	}

	chosen, ok := resolveOverload(db, instantiated, site.Args)
	if !ok {
		return types.Unknown, InferFailReason{}
	}

	return finishCallResult(chosen, receiver, site.Range), InferFailReason{}
}

func inferRequire(db *dbindex.DbIndex, site CallSite) types.Type {
	if len(site.Args) == 0 {
		return types.Nil
	}
	path, ok := stringConstValue(site.Args[0].Type)
	if !ok {
		return types.Unknown
	}
	mod, ok := db.Module.Get(path)
	if !ok {
		return types.Nil
	}
	return mod.Exports
}

func stringConstValue(t types.Type) (string, bool) {
	switch s := t.(type) {
	case types.StringConst:
		return s.Value, true
	case types.DocStringConst:
		return s.Value, true
	default:
		return "", false
	}
}

func inferSetmetatable(site CallSite) types.Type {
	var base types.Type = types.Table
	if len(site.Args) > 0 && site.Args[0].Type != nil {
		base = site.Args[0].Type
	}
	return types.Instance{Base: base, CreationSite: site.Range}
}

// collectCandidates gathers every FunctionType the callee type could
// invoke, per spec.md §4.4 step 4.
func collectCandidates(db *dbindex.DbIndex, interner *ids.Interner, guard *InferGuard, callee types.Type) ([]types.FunctionType, InferFailReason) {
	switch t := callee.(type) {
	case types.DocFunction:
		return []types.FunctionType{t.Func}, InferFailReason{}
	case types.SignatureRef:
		sig, ok := db.Signature.Get(t.ID)
		if !ok {
			return nil, InferFailReason{Kind: FailUnresolveSignatureReturn, Signature: t.ID}
		}
		if sig.ReturnsPending {
			return nil, InferFailReason{Kind: FailUnresolveSignatureReturn, Signature: t.ID}
		}
		return sig.Overloads, InferFailReason{}
	case types.Ref:
		return callOperatorCandidates(db, interner, ids.TypeOwner(t.Decl)), InferFailReason{}
	case types.Def:
		return callOperatorCandidates(db, interner, ids.TypeOwner(t.Decl)), InferFailReason{}
	case types.Generic:
		return callOperatorCandidates(db, interner, ids.TypeOwner(t.Base)), InferFailReason{}
	case types.TableConst:
		if meta, ok := db.Metatable.MetatableOf(t.Range); ok {
			return callOperatorCandidates(db, interner, ids.OperatorOwner{Kind: ids.OperatorOwnerTable, Table: meta}), InferFailReason{}
		}
		return nil, InferFailReason{}
	case types.Instance:
		return collectCandidates(db, interner, guard, t.Base)
	case types.Union:
		var all []types.FunctionType
		for _, arm := range t.Types {
			cs, fail := collectCandidates(db, interner, guard, arm)
			if fail.Recoverable() {
				return nil, fail
			}
			all = append(all, cs...)
		}
		return all, InferFailReason{}
	default:
		return nil, InferFailReason{}
	}
}

func callOperatorCandidates(db *dbindex.DbIndex, interner *ids.Interner, owner ids.OperatorOwner) []types.FunctionType {
	var out []types.FunctionType
	for _, op := range db.Operator.Lookup(owner, ids.MetaCall) {
		if t, ok := parseOperatorType(op.Result, interner); ok {
			if fn, ok := t.(types.DocFunction); ok {
				out = append(out, fn.Func)
			}
		}
	}
	return out
}

// callReceiver is the type a method call's `self`/colon normalization
// resolves against — the callee's owning instance, when one applies.
func callReceiver(callee types.Type) types.Type {
	switch t := callee.(type) {
	case types.Instance:
		return t.Base
	default:
		return t
	}
}

func instantiateCandidate(fn types.FunctionType, args []CallArg, receiver types.Type) types.FunctionType {
	if len(fn.Generics) == 0 && receiver == nil {
		return fn
	}
	sub := types.NewSubstitutor()
	if receiver != nil {
		sub.BindSelf(receiver)
	}
	for i, p := range fn.Params {
		if i < len(args) && args[i].Type != nil {
			types.Match(sub, p.Type, args[i].Type)
		}
	}
	params := make([]types.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = types.Param{Name: p.Name, Type: types.Instantiate(sub, p.Type), Optional: p.Optional}
	}
	returns := make([]types.Type, len(fn.Returns))
	for i, r := range fn.Returns {
		returns[i] = types.Instantiate(sub, r)
	}
	var variadic types.Type
	if fn.Variadic != nil {
		variadic = types.Instantiate(sub, fn.Variadic)
	}
	return types.FunctionType{
		Generics: fn.Generics, Params: params, Returns: returns,
		Variadic: variadic, Async: fn.Async, ColonDefine: fn.ColonDefine,
	}
}

// scoreCandidate returns the overload cost (0 exact, 1 per widening
// conversion, one unit per variadic-tail argument matched) and whether
// the candidate accepts args at all.
func scoreCandidate(db *dbindex.DbIndex, fn types.FunctionType, args []CallArg) (int, bool) {
	cost := 0
	n := len(fn.Params)
	for i := 0; i < n; i++ {
		p := fn.Params[i]
		if i >= len(args) {
			if p.Optional {
				continue
			}
			return 0, false
		}
		arg := args[i].Type
		if types.Equal(db.Type, p.Type, arg) {
			continue
		}
		if r := TypeCheck(db, p.Type, arg); r.OK() {
			cost++
			continue
		}
		if p.Optional {
			continue
		}
		return 0, false
	}
	if fn.Variadic != nil {
		for i := n; i < len(args); i++ {
			if r := TypeCheck(db, fn.Variadic, args[i].Type); r.OK() {
				cost++
			} else {
				return 0, false
			}
		}
	} else if len(args) > n {
		return 0, false
	}
	return cost, true
}

// resolveOverload picks the lowest-cost candidate, ties broken toward the
// earlier declaration (spec.md §9's open question, decided here:
// candidates are walked in their declared base+@overload order, and a
// strict `<` comparison keeps the first one found on a tie).
func resolveOverload(db *dbindex.DbIndex, candidates []types.FunctionType, args []CallArg) (types.FunctionType, bool) {
	best := -1
	bestCost := 0
	for i, c := range candidates {
		cost, ok := scoreCandidate(db, c, args)
		if !ok {
			continue
		}
		if best == -1 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	if best == -1 {
		return types.FunctionType{}, false
	}
	return candidates[best], true
}

// finishCallResult implements spec.md §4.4's return-type post-processing:
// collapse to Nil/single/MultiReturn, resolve SelfInfer, and wrap a
// sufficiently-dynamic result in a fresh Instance keyed by the call site
// — unless the call's own range already contains that creation site
// (the recursive-wrap guard).
func finishCallResult(fn types.FunctionType, receiver types.Type, callRange ids.SyntaxRange) types.Type {
	var result types.Type
	switch len(fn.Returns) {
	case 0:
		result = types.Nil
	case 1:
		result = resolveSelfInfer(fn.Returns[0], receiver)
	default:
		rs := make([]types.Type, len(fn.Returns))
		for i, r := range fn.Returns {
			rs[i] = resolveSelfInfer(r, receiver)
		}
		result = types.MultiReturn{Types: rs}
	}
	if shouldWrapInstance(result, callRange) {
		return types.Instance{Base: result, CreationSite: callRange}
	}
	return result
}

func shouldWrapInstance(t types.Type, callRange ids.SyntaxRange) bool {
	switch v := t.(type) {
	case types.Instance:
		return !callRange.Range.Contains(v.CreationSite.Range.Start)
	case types.TableConst:
		return true
	default:
		return t == types.Any || t == types.Unknown || t == types.Table
	}
}
