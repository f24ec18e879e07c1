package types

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// Param is one declared parameter of a function type: a name (possibly
// empty for the `...` slot), its type, and whether it is optional
// (accepts being omitted on call, distinct from accepting Nil).
type Param struct {
	Name     string
	Type     Type
	Optional bool
}

// GenericParam is one `---@generic` type parameter, with an optional bound
// (`---@generic T : Base`).
type GenericParam struct {
	Name  string
	Bound Type // nil if unbounded
}

// FunctionType is the shape shared by every callable: doc-written function
// types, closure signatures once resolved, and operator bindings.
type FunctionType struct {
	Generics    []GenericParam
	Params      []Param
	Returns     []Type
	Variadic    Type // nil if the function has no trailing `...`
	Async       bool
	ColonDefine bool
}

func (f FunctionType) String() string {
	var b strings.Builder
	b.WriteString("fun(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	if f.Variadic != nil {
		if len(f.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...: ")
		b.WriteString(f.Variadic.String())
	}
	b.WriteString(")")
	if len(f.Returns) > 0 {
		b.WriteString(":")
		for i, r := range f.Returns {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" " + r.String())
		}
	}
	return b.String()
}

// DocFunction is a function type written directly in a doc-comment
// (`---@type fun(x: integer): string` or an `---@overload`).
type DocFunction struct{ Func FunctionType }

func (DocFunction) Kind() Kind       { return KindDocFunction }
func (d DocFunction) String() string { return d.Func.String() }

// SignatureRef points at a closure's Signature record in SignatureIndex;
// it is the Type produced by inferring a ClosureExpr before the
// signature's own return types have necessarily been resolved.
type SignatureRef struct{ ID ids.SignatureId }

func (SignatureRef) Kind() Kind       { return KindSignature }
func (s SignatureRef) String() string { return "function" }
