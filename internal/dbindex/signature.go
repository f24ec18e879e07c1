package dbindex

import (
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// Signature is a function literal's doc-declared overload set: one
// `---@overload` per extra arity/shape, with the closure's own parameter
// list as the base overload (§4.4).
type Signature struct {
	ID        ids.SignatureId
	File      ids.FileId
	Range     ids.TextRange
	Overloads []types.FunctionType

	// ReturnsPending is true while a return type this signature depends on
	// (an alias or class still being resolved elsewhere in the batch) has
	// not settled — infer_call's guard (spec.md §4.4 step 3) parks a call
	// passing this signature as a closure argument until it clears. No
	// current DocAnalyzer path produces a pending signature (doc-type
	// parsing is synchronous and self-contained), so this is always false
	// today; the field exists so the ResolveQueue has somewhere real to
	// flip once a future cross-file return-type dependency needs it.
	ReturnsPending bool
}

// SignatureIndex is the `SignatureId → Signature` fact table. Like
// TypeIndex, every access is by its single key or by file, so a plain map
// plus a file bucket is enough — see DESIGN.md.
type SignatureIndex struct {
	sigs   map[ids.SignatureId]*Signature
	byFile map[ids.FileId][]ids.SignatureId
}

func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{
		sigs:   make(map[ids.SignatureId]*Signature),
		byFile: make(map[ids.FileId][]ids.SignatureId),
	}
}

func (idx *SignatureIndex) Insert(s *Signature) {
	if _, exists := idx.sigs[s.ID]; !exists {
		idx.byFile[s.File] = append(idx.byFile[s.File], s.ID)
	}
	idx.sigs[s.ID] = s
}

func (idx *SignatureIndex) Get(id ids.SignatureId) (*Signature, bool) {
	s, ok := idx.sigs[id]
	return s, ok
}

func (idx *SignatureIndex) Remove(file ids.FileId) {
	for _, id := range idx.byFile[file] {
		delete(idx.sigs, id)
	}
	delete(idx.byFile, file)
}
