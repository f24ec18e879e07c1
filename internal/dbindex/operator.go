package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// Operator is one `---@operator` binding (or a `__index`-style table
// literal metamethod) registered on a type or an anonymous metatable
// (§4.2's operator-overload surface).
type Operator struct {
	ID     ids.OperatorId
	Lhs    string // doc type text of the operand, "" for unary
	Result string // doc type text of the result
}

// OperatorIndex is the `OperatorId → Operator` fact table, keyed by owner
// and method. Lookup is always "every operator matching this owner and
// method," so a bucket map keyed on the (Owner, Method) pair is enough.
type OperatorIndex struct {
	byOwnerMethod map[ids.OperatorOwner]map[ids.MetaMethod][]*Operator
	owners        map[ids.OperatorOwner]bool
}

func NewOperatorIndex() *OperatorIndex {
	return &OperatorIndex{
		byOwnerMethod: make(map[ids.OperatorOwner]map[ids.MetaMethod][]*Operator),
		owners:        make(map[ids.OperatorOwner]bool),
	}
}

func (idx *OperatorIndex) Insert(op *Operator) {
	byMethod, ok := idx.byOwnerMethod[op.ID.Owner]
	if !ok {
		byMethod = make(map[ids.MetaMethod][]*Operator)
		idx.byOwnerMethod[op.ID.Owner] = byMethod
	}
	byMethod[op.ID.Method] = append(byMethod[op.ID.Method], op)
	idx.owners[op.ID.Owner] = true
}

// Lookup returns every binding of method on owner, usually length 0 or 1
// but allowing overloaded operators (e.g. `__add` for two different RHS
// types) to coexist.
func (idx *OperatorIndex) Lookup(owner ids.OperatorOwner, method ids.MetaMethod) []*Operator {
	byMethod, ok := idx.byOwnerMethod[owner]
	if !ok {
		return nil
	}
	return byMethod[method]
}

func (idx *OperatorIndex) RemoveOwner(owner ids.OperatorOwner) {
	delete(idx.byOwnerMethod, owner)
	delete(idx.owners, owner)
}

// RemoveOwners removes every binding attached to one of owners.
func (idx *OperatorIndex) RemoveOwners(owners []ids.OperatorOwner) {
	for _, o := range owners {
		idx.RemoveOwner(o)
	}
}
