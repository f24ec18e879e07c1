// Package semantic implements spec.md §4.3-§4.9: expression and call
// inference, member lookup, generic instantiation, type compatibility,
// flow-sensitive narrowing, and self/colon-call normalization, over the
// facts internal/dbindex's per-file analyzers already collected.
//
// Grounded on the teacher's validator/ package, which sits the same way
// on top of its own fact-gathering pass (scope_tracker.go) to answer the
// higher-level question ("is this call valid against this route's
// struct") the earlier pass only collected the raw material for.
package semantic

import (
	"github.com/abiiranathan/lua-analyzer/internal/analyzer"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// InferFailKind is the reason infer_expr (§4.3) could not produce a type
// outright.
type InferFailKind uint8

const (
	// FailNone means inference succeeded (or legitimately has nothing to
	// say, e.g. an unresolved member access) — the zero value.
	FailNone InferFailKind = iota
	// FailFieldNotFound means a member lookup depends on an owner whose
	// members have not stabilized yet; distinct from "no such member"
	// (which returns types.Nil with FailNone).
	FailFieldNotFound
	FailUnresolveDeclType
	FailUnresolveSignatureReturn
	FailUnresolveMember
)

// InferFailReason carries the payload for whichever InferFailKind applies.
// Recoverable kinds (everything but FailNone) are parked on the
// ResolveQueue by the caller rather than treated as a terminal error.
type InferFailReason struct {
	Kind      InferFailKind
	Owner     ids.MemberOwner
	Key       ids.MemberKey
	Decl      ids.DeclId
	Signature ids.SignatureId
	Member    ids.MemberId
}

// Recoverable reports whether the caller should park and retry once the
// named dependency resolves, rather than giving up.
func (r InferFailReason) Recoverable() bool { return r.Kind != FailNone }

// DependencyKey converts a recoverable InferFailReason into the
// analyzer.ResolveQueue key the expression's retry should park under —
// the bridge the review asked for between §4.3's recoverable fail
// reasons and §4.2 step 5's fixed-point worklist, so a parked expression
// retries through the exact same queue a parked declaration does instead
// of a second, expression-only mechanism.
func (r InferFailReason) DependencyKey() analyzer.DependencyKey {
	switch r.Kind {
	case FailUnresolveDeclType:
		return analyzer.DependencyKey{Kind: analyzer.UnresolveDecl, Decl: r.Decl}
	case FailUnresolveSignatureReturn:
		return analyzer.DependencyKey{Kind: analyzer.UnresolveSignatureReturn, Signature: r.Signature}
	case FailFieldNotFound, FailUnresolveMember:
		return analyzer.DependencyKey{Kind: analyzer.UnresolveMember, Member: r.Member}
	default:
		return analyzer.DependencyKey{}
	}
}

// TypeCheckFailKind is the reason type_check (§4.7) rejected a candidate.
type TypeCheckFailKind uint8

const (
	CheckOK TypeCheckFailKind = iota
	CheckTypeNotMatch
	CheckTypeNotMatchWithReason
	CheckTypeRecursion
	CheckDoNotMatchAnyUnion
)

// TypeCheckFailReason is type_check's result: CheckOK on success, or one
// of the structured failure kinds with an optional human-readable reason
// for CheckTypeNotMatchWithReason.
type TypeCheckFailReason struct {
	Kind   TypeCheckFailKind
	Reason string
}

func (r TypeCheckFailReason) OK() bool { return r.Kind == CheckOK }

var checkOK = TypeCheckFailReason{Kind: CheckOK}

func checkFail(reason string) TypeCheckFailReason {
	return TypeCheckFailReason{Kind: CheckTypeNotMatchWithReason, Reason: reason}
}
