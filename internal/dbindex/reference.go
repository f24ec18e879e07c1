package dbindex

import (
	"encoding/binary"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// Reference is one occurrence of a name being read or written, resolved
// back to the Decl it refers to. ReferenceIndex is the data "find
// references" and "rename" are built on (§4.5).
type Reference struct {
	ID    ids.VarRefId
	Decl  ids.DeclId
	Range ids.TextRange
	Write bool // assignment target vs. read
}

const (
	tableRef   = "reference"
	idxRefID   = "id"
	idxRefFile = "file"
	idxRefDecl = "decl"
)

type refIDIndexer struct{}

func (refIDIndexer) FromObject(raw any) (bool, []byte, error) {
	r, ok := raw.(*Reference)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Reference, got %T", raw)
	}
	return true, encodeVarRefID(r.ID), nil
}

func (refIDIndexer) FromArgs(args ...any) ([]byte, error) {
	id, ok := args[0].(ids.VarRefId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.VarRefId arg")
	}
	return encodeVarRefID(id), nil
}

type refFileIndexer struct{}

func (refFileIndexer) FromObject(raw any) (bool, []byte, error) {
	r, ok := raw.(*Reference)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Reference, got %T", raw)
	}
	return true, encodeFileID(r.ID.File), nil
}

func (refFileIndexer) FromArgs(args ...any) ([]byte, error) {
	f, ok := args[0].(ids.FileId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.FileId arg")
	}
	return encodeFileID(f), nil
}

type refDeclIndexer struct{}

func (refDeclIndexer) FromObject(raw any) (bool, []byte, error) {
	r, ok := raw.(*Reference)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Reference, got %T", raw)
	}
	return true, encodeDeclID(r.Decl), nil
}

func (refDeclIndexer) FromArgs(args ...any) ([]byte, error) {
	d, ok := args[0].(ids.DeclId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.DeclId arg")
	}
	return encodeDeclID(d), nil
}

func encodeVarRefID(id ids.VarRefId) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(id.File))
	binary.BigEndian.PutUint32(b[4:8], uint32(id.Pos))
	return b
}

func referenceSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableRef,
		Indexes: map[string]*memdb.IndexSchema{
			idxRefID:   {Name: idxRefID, Unique: true, Indexer: refIDIndexer{}},
			idxRefFile: {Name: idxRefFile, Unique: false, Indexer: refFileIndexer{}},
			idxRefDecl: {Name: idxRefDecl, Unique: false, Indexer: refDeclIndexer{}},
		},
	}
}

// ReferenceIndex is the `VarRefId → Reference` fact table, queryable by the
// Decl every reference resolved to — the reverse-lookup rename and
// find-references need, backed the same way as DeclIndex for a uniform
// indexed-delete eviction story.
type ReferenceIndex struct {
	db *memdb.MemDB
}

func NewReferenceIndex() *ReferenceIndex {
	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{tableRef: referenceSchema()}}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(fmt.Sprintf("dbindex: invalid reference schema: %v", err))
	}
	return &ReferenceIndex{db: db}
}

func (idx *ReferenceIndex) Insert(r *Reference) error {
	txn := idx.db.Txn(true)
	if err := txn.Insert(tableRef, r); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// Of returns every reference that resolved to decl, across the workspace.
func (idx *ReferenceIndex) Of(decl ids.DeclId) []*Reference {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableRef, idxRefDecl, decl)
	if err != nil {
		return nil
	}
	var out []*Reference
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Reference))
	}
	return out
}

func (idx *ReferenceIndex) Remove(file ids.FileId) error {
	txn := idx.db.Txn(true)
	if _, err := txn.DeleteAll(tableRef, idxRefFile, file); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}
