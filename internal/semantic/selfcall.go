package semantic

import "github.com/abiiranathan/lua-analyzer/internal/types"

// normalizeSelfCall implements spec.md §4.9's define/call parity table: a
// function declared with `:` implicitly takes `self` as its first
// parameter: calling it with `.` must supply that argument explicitly;
// calling a `.`-declared function with `:` implicitly supplies the
// receiver and must drop it from the candidate's parameter list before
// matching the call's argument list.
func normalizeSelfCall(fn types.FunctionType, receiver types.Type, colonDefine, colonCall bool) types.FunctionType {
	switch {
	case colonDefine == colonCall:
		return fn // identity: both colon or both dot
	case colonDefine && !colonCall:
		// dot-call on a colon-defined method: prepend the declared
		// receiver type as an explicit first parameter.
		params := make([]types.Param, 0, len(fn.Params)+1)
		params = append(params, types.Param{Name: "self", Type: receiverOrSelf(receiver)})
		params = append(params, fn.Params...)
		fn.Params = params
		return fn
	default:
		// colon-call on a dot-defined function: drop the first parameter,
		// the caller's receiver fills the slot argument matching skips.
		if len(fn.Params) > 0 {
			fn.Params = fn.Params[1:]
		}
		return fn
	}
}

func receiverOrSelf(receiver types.Type) types.Type {
	if receiver == nil {
		return types.SelfInfer
	}
	return receiver
}

// resolveSelfInfer substitutes types.SelfInfer, wherever it appears in t,
// with the call's actual receiver type — the return-type half of §4.9's
// self resolution (a method declared `---@return self` resolves to the
// concrete receiver at each call site, not a generic "self" marker).
func resolveSelfInfer(t types.Type, receiver types.Type) types.Type {
	if t == types.SelfInfer {
		return receiver
	}
	switch v := t.(type) {
	case types.Nullable:
		return types.Nullable{Elem: resolveSelfInfer(v.Elem, receiver)}
	case types.Array:
		return types.Array{Elem: resolveSelfInfer(v.Elem, receiver)}
	case types.Union:
		arms := make([]types.Type, len(v.Types))
		for i, a := range v.Types {
			arms[i] = resolveSelfInfer(a, receiver)
		}
		return types.NewUnion(arms...)
	default:
		return t
	}
}
