package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// MetaFileIndex tracks which files are meta/stub definitions (the
// `---@meta` marker at the top of a file) rather than ordinary workspace
// source: standard-library stubs and third-party annotation packs loaded
// globally, excluded from "unresolved global" and "missing return"
// diagnostics (§4.10).
type MetaFileIndex struct {
	meta map[ids.FileId]bool
}

func NewMetaFileIndex() *MetaFileIndex {
	return &MetaFileIndex{meta: make(map[ids.FileId]bool)}
}

func (idx *MetaFileIndex) Mark(file ids.FileId, isMeta bool) {
	if isMeta {
		idx.meta[file] = true
	} else {
		delete(idx.meta, file)
	}
}

func (idx *MetaFileIndex) IsMeta(file ids.FileId) bool {
	return idx.meta[file]
}

func (idx *MetaFileIndex) Remove(file ids.FileId) {
	delete(idx.meta, file)
}
