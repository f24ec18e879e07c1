package dbindex

import (
	"encoding/binary"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// Member is a field or method declared on an owner (a named type, an
// anonymous table literal, or the global namespace), per §4.2.
type Member struct {
	ID     ids.MemberId
	Owner  ids.MemberOwner
	Key    ids.MemberKey
	Type   types.Type
	Range  ids.TextRange
	IsMeta bool // declared via @meta rather than a concrete table field
}

const (
	tableMember    = "member"
	idxMemberID    = "id"
	idxMemberFile  = "file"
	idxMemberOwner = "owner"
)

type memberIDIndexer struct{}

func (memberIDIndexer) FromObject(raw any) (bool, []byte, error) {
	m, ok := raw.(*Member)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Member, got %T", raw)
	}
	return true, encodeMemberID(m.ID), nil
}

func (memberIDIndexer) FromArgs(args ...any) ([]byte, error) {
	id, ok := args[0].(ids.MemberId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.MemberId arg")
	}
	return encodeMemberID(id), nil
}

type memberFileIndexer struct{}

func (memberFileIndexer) FromObject(raw any) (bool, []byte, error) {
	m, ok := raw.(*Member)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Member, got %T", raw)
	}
	return true, encodeFileID(m.ID.File), nil
}

func (memberFileIndexer) FromArgs(args ...any) ([]byte, error) {
	f, ok := args[0].(ids.FileId)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.FileId arg")
	}
	return encodeFileID(f), nil
}

type memberOwnerIndexer struct{}

func (memberOwnerIndexer) FromObject(raw any) (bool, []byte, error) {
	m, ok := raw.(*Member)
	if !ok {
		return false, nil, fmt.Errorf("dbindex: expected *Member, got %T", raw)
	}
	return true, encodeOwner(m.Owner), nil
}

func (memberOwnerIndexer) FromArgs(args ...any) ([]byte, error) {
	o, ok := args[0].(ids.MemberOwner)
	if !ok {
		return nil, fmt.Errorf("dbindex: expected ids.MemberOwner arg")
	}
	return encodeOwner(o), nil
}

func encodeMemberID(id ids.MemberId) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(id.File))
	binary.BigEndian.PutUint32(b[4:8], uint32(id.Node))
	return b
}

// encodeOwner packs a MemberOwner into a byte key stable enough for
// exact-match lookup; it is never decoded back.
func encodeOwner(o ids.MemberOwner) []byte {
	b := make([]byte, 13)
	b[0] = byte(o.Kind)
	binary.BigEndian.PutUint32(b[1:5], uint32(o.Type))
	binary.BigEndian.PutUint32(b[5:9], uint32(o.Element.File))
	binary.BigEndian.PutUint32(b[9:13], uint32(o.Element.Range.Start))
	return b
}

func memberSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableMember,
		Indexes: map[string]*memdb.IndexSchema{
			idxMemberID:    {Name: idxMemberID, Unique: true, Indexer: memberIDIndexer{}},
			idxMemberFile:  {Name: idxMemberFile, Unique: false, Indexer: memberFileIndexer{}},
			idxMemberOwner: {Name: idxMemberOwner, Unique: false, Indexer: memberOwnerIndexer{}},
		},
	}
}

// MemberIndex is the `MemberId → Member` fact table, queryable by owner
// (every field of a type) as well as by id, per §4.2's "look up by owner,
// look up by id" access pattern.
type MemberIndex struct {
	db *memdb.MemDB
}

func NewMemberIndex() *MemberIndex {
	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{tableMember: memberSchema()}}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(fmt.Sprintf("dbindex: invalid member schema: %v", err))
	}
	return &MemberIndex{db: db}
}

func (idx *MemberIndex) Insert(m *Member) error {
	txn := idx.db.Txn(true)
	if err := txn.Insert(tableMember, m); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (idx *MemberIndex) Get(id ids.MemberId) (*Member, bool) {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableMember, idxMemberID, id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*Member), true
}

// ByOwner returns every Member declared on owner, in no particular order;
// a caller that needs a single field by ids.MemberKey uses Field, which
// does the keyed lookup over this result.
func (idx *MemberIndex) ByOwner(owner ids.MemberOwner) []*Member {
	txn := idx.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableMember, idxMemberOwner, owner)
	if err != nil {
		return nil
	}
	var out []*Member
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Member))
	}
	return out
}

// Field resolves a single named/positional field of owner, the by-key
// lookup internal/semantic's member resolution uses.
func (idx *MemberIndex) Field(owner ids.MemberOwner, key ids.MemberKey) (*Member, bool) {
	for _, m := range idx.ByOwner(owner) {
		if m.Key == key {
			return m, true
		}
	}
	return nil, false
}

func (idx *MemberIndex) Remove(file ids.FileId) error {
	txn := idx.db.Txn(true)
	if _, err := txn.DeleteAll(tableMember, idxMemberFile, file); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}
