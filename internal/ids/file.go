// Package ids defines the stable, comparable identities every sub-index of
// the semantic database is keyed by: file handles, declaration sites,
// member sites, type names, signatures, flow regions and property owners.
//
// Nothing here depends on the syntax tree or the type algebra; both of
// those are built on top of these ids, never the other way around.
package ids

import "fmt"

// FileId is the opaque numeric handle the VFS assigns to a workspace file.
// The core never interprets it beyond equality and use as a map/table key.
type FileId uint32

// TextSize is an absolute UTF-8 byte offset into a file's source text.
type TextSize uint32

// TextRange is a half-open [Start, End) byte range within one file.
type TextRange struct {
	Start TextSize
	End   TextSize
}

// Contains reports whether pos falls within the range.
func (r TextRange) Contains(pos TextSize) bool {
	return pos >= r.Start && pos < r.End
}

// SyntaxRange pairs a file with a text range, used wherever a fact must be
// addressed back to the exact source it came from (e.g. TableConst, the
// creation site retained by Instance).
type SyntaxRange struct {
	File  FileId
	Range TextRange
}

func (s SyntaxRange) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Range.Start, s.Range.End)
}

// SyntaxId identifies a single syntax node within a file by its start
// offset; combined with a FileId it is stable across re-parses as long as
// the node's text does not move.
type SyntaxId = TextSize

// DeclId identifies the introduction of a name at a source position:
// (FileId, TextSize). Locals and globals share this id shape; their
// resolution differs only in how DeclIndex looks them up (scope-tree walk
// vs name-keyed global table).
type DeclId struct {
	File FileId
	Pos  TextSize
}

func (d DeclId) String() string { return fmt.Sprintf("decl#%d:%d", d.File, d.Pos) }

// MemberId identifies a field/method declaration site: (FileId, SyntaxId).
type MemberId struct {
	File FileId
	Node SyntaxId
}

func (m MemberId) String() string { return fmt.Sprintf("member#%d:%d", m.File, m.Node) }

// SignatureId identifies a function literal by the position of its
// enclosing closure expression.
type SignatureId struct {
	File FileId
	Pos  TextSize
}

func (s SignatureId) String() string { return fmt.Sprintf("sig#%d:%d", s.File, s.Pos) }

// FlowId identifies one lexical control-flow region: a function body, a
// loop body, or a branch arm.
type FlowId struct {
	File FileId
	Pos  TextSize
}

func (f FlowId) String() string { return fmt.Sprintf("flow#%d:%d", f.File, f.Pos) }

// VarRefId identifies one occurrence of a variable name being referenced,
// used as the second leg of a FlowChain key: (FileId, VarRefId, FlowId).
type VarRefId struct {
	File FileId
	Pos  TextSize
}
