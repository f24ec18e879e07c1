// Package dbindex is the semantic database: the twelve fact tables the
// compilation pipeline in internal/analyzer writes into and internal/semantic
// reads from, plus the single entry point — Remove — that makes a file's
// facts disappear as a unit when it is edited or closed (§4's "Contract":
// every sub-index supports remove(FileId) and nothing outlives its file).
package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// DbIndex aggregates the twelve sub-indices into the single object the
// pipeline threads through a compilation run. Each sub-index owns its own
// storage and its own remove(FileId); DbIndex.Remove just sequences them in
// dependency order (facts that reference an owner removed before the
// owner itself would dangle otherwise).
type DbIndex struct {
	Decl       *DeclIndex
	Type       *TypeIndex
	Member     *MemberIndex
	Signature  *SignatureIndex
	Reference  *ReferenceIndex
	Property   *PropertyIndex
	Operator   *OperatorIndex
	Module     *ModuleIndex
	Flow       *FlowIndex
	Metatable  *MetatableIndex
	Diagnostic *DiagnosticIndex
	MetaFile   *MetaFileIndex
}

// New constructs an empty DbIndex.
func New() *DbIndex {
	return &DbIndex{
		Decl:       NewDeclIndex(),
		Type:       NewTypeIndex(),
		Member:     NewMemberIndex(),
		Signature:  NewSignatureIndex(),
		Reference:  NewReferenceIndex(),
		Property:   NewPropertyIndex(),
		Operator:   NewOperatorIndex(),
		Module:     NewModuleIndex(),
		Flow:       NewFlowIndex(),
		Metatable:  NewMetatableIndex(),
		Diagnostic: NewDiagnosticIndex(),
		MetaFile:   NewMetaFileIndex(),
	}
}

// Remove evicts every fact belonging to file from every sub-index. Called
// at the start of re-compiling an edited file and when a file is removed
// from the workspace outright.
//
// Leaf facts (references, flow, diagnostics, signatures) go first, then
// members and their properties, then type declarations and their
// operators, then the file's own declarations and scope tree, then the
// module/meta bookkeeping — each step only ever deletes keys it owns, so
// the order only matters for the PropertyIndex.Remove /
// OperatorIndex.RemoveOwner calls below, which need the owner set before
// the owning sub-index deletes it.
func (db *DbIndex) Remove(file ids.FileId) error {
	db.Reference.Remove(file)
	db.Flow.Remove(file)
	db.Diagnostic.Remove(file)
	db.Signature.Remove(file)

	for _, m := range db.Member.ByOwner(ids.GlobalOwner) {
		if m.ID.File == file {
			db.Property.Remove(ids.MemberPropertyOwner(m.ID))
		}
	}
	for _, td := range db.Type.ForFile(file) {
		for _, m := range db.Member.ByOwner(ids.TypeOwner(td.ID)) {
			db.Property.Remove(ids.MemberPropertyOwner(m.ID))
		}
		db.Property.Remove(ids.TypeDeclPropertyOwner(td.ID))
		db.Operator.RemoveOwner(ids.OperatorOwner{Kind: ids.OperatorOwnerType, Type: td.ID})
	}
	if err := db.Member.Remove(file); err != nil {
		return err
	}

	db.Metatable.Remove(file)
	db.Type.Remove(file)

	for _, d := range db.Decl.ForFile(file) {
		db.Property.Remove(ids.DeclPropertyOwner(d.ID))
	}
	if err := db.Decl.Remove(file); err != nil {
		return err
	}

	db.Module.Remove(file)
	db.MetaFile.Remove(file)
	return nil
}
