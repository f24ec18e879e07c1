package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// MetatableIndex records `setmetatable(t, mt)` bindings: which table
// literal's source range owns which metatable's source range. This is how
// OperatorIndex/MemberIndex resolve a plain table's `__index`/operator
// metamethods when the project doesn't use `---@class` at all (§4.2's
// "metatable fallback" path).
type MetatableIndex struct {
	tableToMeta map[ids.SyntaxRange]ids.SyntaxRange
	byFile      map[ids.FileId][]ids.SyntaxRange
}

func NewMetatableIndex() *MetatableIndex {
	return &MetatableIndex{
		tableToMeta: make(map[ids.SyntaxRange]ids.SyntaxRange),
		byFile:      make(map[ids.FileId][]ids.SyntaxRange),
	}
}

func (idx *MetatableIndex) Bind(table, meta ids.SyntaxRange) {
	if _, exists := idx.tableToMeta[table]; !exists {
		idx.byFile[table.File] = append(idx.byFile[table.File], table)
	}
	idx.tableToMeta[table] = meta
}

func (idx *MetatableIndex) MetatableOf(table ids.SyntaxRange) (ids.SyntaxRange, bool) {
	m, ok := idx.tableToMeta[table]
	return m, ok
}

func (idx *MetatableIndex) Remove(file ids.FileId) {
	for _, t := range idx.byFile[file] {
		delete(idx.tableToMeta, t)
	}
	delete(idx.byFile, file)
}
