package dbindex

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// ModuleInfo is the resolved shape of one `require("a.b.c")` target: the
// file that provides it and the type its `return` statement exposes
// (§4.7).
type ModuleInfo struct {
	Path    string
	File    ids.FileId
	Exports types.Type
}

// ModuleIndex is the `require path → ModuleInfo` table. Paths share long
// dotted prefixes in any real Lua project ("app.services.*", "app.models.*"),
// which is exactly the shape go-immutable-radix compresses well, and its
// prefix iterator also gives ModuleIndex.Namespace ("every module under
// app.services") for free — a plain map would need a second sorted
// structure to answer that query at all.
type ModuleIndex struct {
	tree   *iradix.Tree[*ModuleInfo]
	byFile map[ids.FileId][]string
}

func NewModuleIndex() *ModuleIndex {
	return &ModuleIndex{
		tree:   iradix.New[*ModuleInfo](),
		byFile: make(map[ids.FileId][]string),
	}
}

func (idx *ModuleIndex) Insert(info *ModuleInfo) {
	idx.tree, _, _ = idx.tree.Insert([]byte(info.Path), info)
	idx.byFile[info.File] = append(idx.byFile[info.File], info.Path)
}

func (idx *ModuleIndex) Get(path string) (*ModuleInfo, bool) {
	v, ok := idx.tree.Get([]byte(path))
	return v, ok
}

// Namespace returns every module whose path starts with prefix (e.g. the
// modules under "app.services").
func (idx *ModuleIndex) Namespace(prefix string) []*ModuleInfo {
	var out []*ModuleInfo
	it := idx.tree.Root().Iterator()
	it.SeekPrefix([]byte(prefix))
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func (idx *ModuleIndex) Remove(file ids.FileId) {
	for _, path := range idx.byFile[file] {
		idx.tree, _, _ = idx.tree.Delete([]byte(path))
	}
	delete(idx.byFile, file)
}
