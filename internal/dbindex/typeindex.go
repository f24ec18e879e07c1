package dbindex

import (
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// TypeDeclKind discriminates the three things a `---@...` annotation can
// introduce a named type as.
type TypeDeclKind uint8

const (
	TypeDeclClass TypeDeclKind = iota
	TypeDeclAlias
	TypeDeclEnum
)

// TypeDecl is a named type's definition: a class (with supertypes and its
// own member owner), a type alias (with an origin type to expand to), or an
// enum (a closed set of doc-consts), per §4.3.
type TypeDecl struct {
	ID       ids.TypeDeclId
	Name     string
	Kind     TypeDeclKind
	File     ids.FileId
	Range    ids.TextRange
	Generics []types.GenericParam
	Supers   []types.Type // TypeDeclClass: `---@class Name: Super1, Super2`
	Origin   types.Type   // TypeDeclAlias: the right-hand side of `---@alias`
	Partial  bool         // `---@class (partial) Name` legalizes a re-declaration merge
}

// TypeIndex is the `TypeDeclId → TypeDecl` fact table. It is keyed by a
// single interned name, so unlike DeclIndex/MemberIndex it needs no
// secondary-attribute queries beyond "everything from file X" — a plain map
// plus a file→ids bucket already gives O(1) eviction, and reaching for
// go-memdb's multi-index machinery here would buy nothing a second map
// doesn't already give for free (see DESIGN.md).
//
// TypeIndex implements types.AliasResolver so that package types can
// resolve `---@alias` chains during Equal without importing dbindex.
type TypeIndex struct {
	decls  map[ids.TypeDeclId]*TypeDecl
	byFile map[ids.FileId][]ids.TypeDeclId
}

func NewTypeIndex() *TypeIndex {
	return &TypeIndex{
		decls:  make(map[ids.TypeDeclId]*TypeDecl),
		byFile: make(map[ids.FileId][]ids.TypeDeclId),
	}
}

// Insert adds or replaces a TypeDecl. Re-declaring a (partial) class is the
// caller's (BindAnalyzer's) responsibility to merge; TypeIndex only stores.
func (idx *TypeIndex) Insert(d *TypeDecl) {
	if _, exists := idx.decls[d.ID]; !exists {
		idx.byFile[d.File] = append(idx.byFile[d.File], d.ID)
	}
	idx.decls[d.ID] = d
}

func (idx *TypeIndex) Get(id ids.TypeDeclId) (*TypeDecl, bool) {
	d, ok := idx.decls[id]
	return d, ok
}

func (idx *TypeIndex) ForFile(file ids.FileId) []*TypeDecl {
	ids_ := idx.byFile[file]
	out := make([]*TypeDecl, 0, len(ids_))
	for _, id := range ids_ {
		if d, ok := idx.decls[id]; ok {
			out = append(out, d)
		}
	}
	return out
}

// ResolveAlias implements types.AliasResolver.
func (idx *TypeIndex) ResolveAlias(ref types.Ref) (types.Type, bool) {
	d, ok := idx.decls[ref.Decl]
	if !ok || d.Kind != TypeDeclAlias {
		return nil, false
	}
	return d.Origin, true
}

// Supers returns the immediate supertypes of a class declaration, or nil
// for an alias/enum or an unknown id.
func (idx *TypeIndex) Supers(id ids.TypeDeclId) []types.Type {
	d, ok := idx.decls[id]
	if !ok || d.Kind != TypeDeclClass {
		return nil
	}
	return d.Supers
}

func (idx *TypeIndex) Remove(file ids.FileId) {
	for _, id := range idx.byFile[file] {
		delete(idx.decls, id)
	}
	delete(idx.byFile, file)
}
