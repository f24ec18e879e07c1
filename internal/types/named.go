package types

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// Ref is a nominal reference to a declared type by id. Two Refs are equal
// iff their ids are equal; resolving what the id actually names (class,
// enum, or alias-with-substitution) is DbIndex's job, not this package's.
type Ref struct{ Decl ids.TypeDeclId }

func (Ref) Kind() Kind       { return KindRef }
func (r Ref) String() string { return "#" + itoa(int64(r.Decl)) }

// Def is the definition-site token of a type: "this type's constructor",
// used where doc-comments need to refer to the type itself rather than an
// instance of it (e.g. a factory function's declared return).
type Def struct{ Decl ids.TypeDeclId }

func (Def) Kind() Kind       { return KindDef }
func (d Def) String() string { return "typeof(#" + itoa(int64(d.Decl)) + ")" }

// Generic is a named type applied to concrete type parameters, e.g.
// `Container<T>` instantiated as `Container<string>`.
type Generic struct {
	Base   ids.TypeDeclId
	Params []Type
}

func (Generic) Kind() Kind { return KindGeneric }
func (g Generic) String() string {
	s := "#" + itoa(int64(g.Base)) + "<"
	for i, p := range g.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ">"
}

// Namespace is a dotted prefix that does not (yet, or ever) name a known
// type; resolved via per-file @namespace/@using declarations.
type Namespace struct{ Path string }

func (Namespace) Kind() Kind       { return KindNamespace }
func (n Namespace) String() string { return n.Path }

// Module is the export type of a `require`d file, addressed by its
// resolved module path rather than by TypeDeclId (a module may export an
// anonymous table, which has no type declaration of its own).
type Module struct{ Path string }

func (Module) Kind() Kind       { return KindModule }
func (m Module) String() string { return "module(" + m.Path + ")" }

// Instance is a concrete value known to inhabit Base, tagged with the call
// site that produced it so member lookups can recover the exact literal
// shape (e.g. the table returned by a `require` whose module body is
// itself a TableConst).
type Instance struct {
	Base         Type
	CreationSite ids.SyntaxRange
}

func (Instance) Kind() Kind       { return KindInstance }
func (i Instance) String() string { return i.Base.String() }

// ExistField is a refinement asserting that a field exists on Origin,
// produced by flow facts like `if t.field then ... end`.
type ExistField struct {
	Key    ids.MemberKey
	Origin Type
}

func (ExistField) Kind() Kind       { return KindExistField }
func (e ExistField) String() string { return e.Origin.String() }

// KeyOf is the union of an Object's declared field keys, the result type
// of Lua's conceptual `keyof T`.
type KeyOf struct{ Elem Type }

func (KeyOf) Kind() Kind       { return KindKeyOf }
func (k KeyOf) String() string { return "keyof " + k.Elem.String() }

// Extends narrows Base by requiring it additionally satisfy Ext; used by
// `---@param t T : Base` generic bound annotations.
type Extends struct {
	Base Type
	Ext  Type
}

func (Extends) Kind() Kind       { return KindExtends }
func (e Extends) String() string { return e.Base.String() + " : " + e.Ext.String() }

// Nullable wraps a type to additionally admit Nil, without widening the
// inner type itself (so a Nullable(IntegerConst(1)) still rejects other
// integers on assignment, only permitting nil alongside the literal).
type Nullable struct{ Elem Type }

func (Nullable) Kind() Kind       { return KindNullable }
func (n Nullable) String() string { return n.Elem.String() + "?" }
