package types

import "strings"

// Union is a sum of alternatives; compatibility treats it covariantly on
// the source side (any arm suffices) and conjunctively on the candidate
// side (every arm must be accepted).
type Union struct{ Types []Type }

func (Union) Kind() Kind { return KindUnion }
func (u Union) String() string {
	parts := make([]string, len(u.Types))
	for i, t := range u.Types {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}

// Intersection requires every arm to accept. The doc-type parser has no
// `A & B` syntax and does not construct one.
type Intersection struct{ Types []Type }

func (Intersection) Kind() Kind { return KindIntersection }
func (i Intersection) String() string {
	parts := make([]string, len(i.Types))
	for idx, t := range i.Types {
		parts[idx] = t.String()
	}
	return strings.Join(parts, "&")
}

// NewUnion builds a Union, collapsing a single-element list to that
// element so callers never have to special-case len(types)==1.
func NewUnion(ts ...Type) Type {
	if len(ts) == 1 {
		return ts[0]
	}
	return Union{Types: ts}
}

// FlattenUnion returns t's arms if it is a Union, or a single-element
// slice of t otherwise. Useful for code that wants to iterate "the arms of
// t" regardless of whether t is actually a union.
func FlattenUnion(t Type) []Type {
	if u, ok := t.(Union); ok {
		return u.Types
	}
	return []Type{t}
}

// MultiLineUnionVariant is one arm of a `---@alias` written across several
// `---| "value" -- description` lines.
type MultiLineUnionVariant struct {
	Value       Type
	Description string
}

// MultiLineUnion is a Union whose arms each carry a human-readable
// description. Per the open question in §9 of the specification, whether
// these participate in flow-narrowing as distinct variants or are
// flattened for compatibility purposes is not consistent in the source;
// this implementation flattens to a plain Union for both compatibility and
// narrowing (see DESIGN.md) and only preserves the per-variant
// descriptions for completion/hover rendering.
type MultiLineUnion struct{ Variants []MultiLineUnionVariant }

func (MultiLineUnion) Kind() Kind { return KindMultiLineUnion }
func (m MultiLineUnion) String() string {
	parts := make([]string, len(m.Variants))
	for i, v := range m.Variants {
		parts[i] = v.Value.String()
	}
	return strings.Join(parts, "|")
}

// Flatten converts a MultiLineUnion to the plain Union used by
// compatibility checking and flow narrowing.
func (m MultiLineUnion) Flatten() Type {
	ts := make([]Type, len(m.Variants))
	for i, v := range m.Variants {
		ts[i] = v.Value
	}
	return NewUnion(ts...)
}
