package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// Visibility is a class member's `---@public`/`---@private`/`---@protected`/
// `---@package` annotation; Public is the default when unannotated.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
	Package
)

// Property holds the doc-tag facts attached to a Decl, Member, TypeDecl or
// Signature that aren't themselves types: visibility, `---@deprecated`,
// `---@nodiscard`, `---@async`, and a version guard range (§4.2, §4.3).
type Property struct {
	Owner         ids.PropertyOwnerId
	Visibility    Visibility
	Deprecated    bool
	DeprecatedMsg string
	NoDiscard     bool
	Async         bool
	VersionMin    string
	VersionMax    string
}

// PropertyIndex is the `PropertyOwnerId → Property` fact table. Every
// access pattern this engine needs (hover, diagnostics) is "the properties
// of exactly this owner," so a plain map is sufficient; file eviction is
// driven by DbIndex.Remove, which calls PropertyIndex.Remove for each
// owner declared in the evicted file.
type PropertyIndex struct {
	props map[ids.PropertyOwnerId]*Property
}

func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{props: make(map[ids.PropertyOwnerId]*Property)}
}

func (idx *PropertyIndex) Insert(p *Property) {
	idx.props[p.Owner] = p
}

func (idx *PropertyIndex) Get(owner ids.PropertyOwnerId) (*Property, bool) {
	p, ok := idx.props[owner]
	return p, ok
}

// Remove deletes the property attached to owner, if any. Called by
// DbIndex.Remove during file eviction.
func (idx *PropertyIndex) Remove(owner ids.PropertyOwnerId) {
	delete(idx.props, owner)
}

// RemoveDecls drops every property owned by one of decls.
func (idx *PropertyIndex) RemoveDecls(decls []ids.DeclId) {
	for _, d := range decls {
		delete(idx.props, ids.DeclPropertyOwner(d))
	}
}
