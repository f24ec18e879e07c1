package dbindex

import (
	"encoding/binary"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// DeclKind discriminates a local from a global declaration.
type DeclKind uint8

const (
	DeclLocal DeclKind = iota
	DeclGlobal
)

// LocalAttribute is a Lua 5.4 local variable attribute.
type LocalAttribute uint8

const (
	AttrNone LocalAttribute = iota
	AttrConst
	AttrClose
	AttrIterConst
)

// Decl is the introduction of a name at a source position.
type Decl struct {
	ID        ids.DeclId
	Name      string
	Kind      DeclKind
	Range     ids.TextRange
	Attribute LocalAttribute
	Type      types.Type // nil until the declaring expression is inferred
	ScopeID   ids.TextSize
}

const (
	tableDecl       = "decl"
	idxDeclID       = "id"
	idxDeclFile     = "file"
	idxDeclFileName = "file_name"
	idxDeclGlobal   = "global_name"
)

// declIDIndexer indexes a *Decl by its (FileId, Pos) identity.
type declIDIndexer struct{}

func (declIDIndexer) FromObject(raw any) (bool, []byte, error) {
	d, ok := raw.(*Decl)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Decl, got %T", raw)
	}
	return true, encodeDeclID(d.ID), nil
}

func (declIDIndexer) FromArgs(args ...any) ([]byte, error) {
	id, ok := args[0].(ids.DeclId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.DeclId arg")
	}
	return encodeDeclID(id), nil
}

// declFileIndexer indexes by FileId alone, used for the per-file delete.
type declFileIndexer struct{}

func (declFileIndexer) FromObject(raw any) (bool, []byte, error) {
	d, ok := raw.(*Decl)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Decl, got %T", raw)
	}
	return true, encodeFileID(d.ID.File), nil
}

func (declFileIndexer) FromArgs(args ...any) ([]byte, error) {
	f, ok := args[0].(ids.FileId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.FileId arg")
	}
	return encodeFileID(f), nil
}

// declGlobalNameIndexer indexes global declarations by name, across files,
// so DeclIndex can answer "every Decl named N" for cross-file resolution.
type declGlobalNameIndexer struct{}

func (declGlobalNameIndexer) FromObject(raw any) (bool, []byte, error) {
	d, ok := raw.(*Decl)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Decl, got %T", raw)
	}
	if d.Kind != DeclGlobal {
		return false, nil, nil
	}
	return true, []byte(d.Name), nil
}

func (declGlobalNameIndexer) FromArgs(args ...any) ([]byte, error) {
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected string arg")
	}
	return []byte(name), nil
}

func declSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableDecl,
		Indexes: map[string]*memdb.IndexSchema{
			idxDeclID:     {Name: idxDeclID, Unique: true, Indexer: declIDIndexer{}},
			idxDeclFile:   {Name: idxDeclFile, Unique: false, Indexer: declFileIndexer{}},
			idxDeclGlobal: {Name: idxDeclGlobal, Unique: false, AllowMissing: true, Indexer: declGlobalNameIndexer{}},
		},
	}
}

func encodeFileID(f ids.FileId) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(f))
	return b
}

func encodeDeclID(id ids.DeclId) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(id.File))
	binary.BigEndian.PutUint32(b[4:8], uint32(id.Pos))
	return b
}

// DeclIndex is the `DeclId → Decl` fact table, plus the per-file scope
// tree and the `Name → {DeclId}` global table. Backed by a go-memdb table
// so that evicting a file is a single indexed delete rather than a scan
// of every declaration in the workspace (§4.1 "Contract").
type DeclIndex struct {
	db     *memdb.MemDB
	scopes map[ids.FileId]*ScopeTree
}

// NewDeclIndex constructs an empty DeclIndex.
func NewDeclIndex() *DeclIndex {
	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{tableDecl: declSchema()}}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		// The schema above is static and known-good; a failure here would
		// mean a programming error in this file, not a runtime condition.
		panic(fmt.Sprintf("dbindex: invalid decl schema: %v", err))
	}
	return &DeclIndex{db: db, scopes: make(map[ids.FileId]*ScopeTree)}
}

// Insert adds or replaces a Decl.
func (idx *DeclIndex) Insert(d *Decl) error {
	txn := idx.db.Txn(true)
	if err := txn.Insert(tableDecl, d); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// Get looks up a Decl by id.
func (idx *DeclIndex) Get(id ids.DeclId) (*Decl, bool) {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableDecl, idxDeclID, id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*Decl), true
}

// Globals returns every global Decl named name, across all files.
func (idx *DeclIndex) Globals(name string) []*Decl {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableDecl, idxDeclGlobal, name)
	if err != nil {
		return nil
	}
	var out []*Decl
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Decl))
	}
	return out
}

// ForFile returns every Decl (local and global) introduced in file.
func (idx *DeclIndex) ForFile(file ids.FileId) []*Decl {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableDecl, idxDeclFile, file)
	if err != nil {
		return nil
	}
	var out []*Decl
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Decl))
	}
	return out
}

// Scope returns the scope tree for file, creating an empty one if absent.
func (idx *DeclIndex) Scope(file ids.FileId) *ScopeTree {
	st, ok := idx.scopes[file]
	if !ok {
		st = NewScopeTree()
		idx.scopes[file] = st
	}
	return st
}

// Remove evicts every Decl belonging to file and its scope tree, per the
// §3 lifecycle contract.
func (idx *DeclIndex) Remove(file ids.FileId) error {
	txn := idx.db.Txn(true)
	if _, err := txn.DeleteAll(tableDecl, idxDeclFile, file); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	delete(idx.scopes, file)
	return nil
}

// VisibleAt returns the Decl visible for name at offset pos, walking the
// scope tree's enclosing blocks innermost-first, falling back to the
// global table.
func (idx *DeclIndex) VisibleAt(file ids.FileId, pos ids.TextSize, name string) (*Decl, bool) {
	if st, ok := idx.scopes[file]; ok {
		if declID, ok := st.Resolve(pos, name); ok {
			return idx.Get(declID)
		}
	}
	if g := idx.Globals(name); len(g) > 0 {
		return g[0], true
	}
	return nil, false
}
