// Package syntax is the concrete implementation behind the "syntax
// surface" the specification treats as external: a lossless tree with
// absolute text ranges, a typed node-walk over it, and doc-comment tokens
// attached to their owning statement.
//
// It is a thin facade over github.com/smacker/go-tree-sitter's Lua
// grammar. The parser's internals (grammar rules, incremental reparse)
// are genuinely out of scope for the semantic engine; this package exists
// only so the compilation pipeline in internal/analyzer has a real tree
// to walk, in tests and at the CLI, without the core depending on
// tree-sitter details beyond Node/Tree/Point.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// Tree is a parsed file: its source text, the underlying tree-sitter
// concrete syntax tree, and the file id it belongs to.
type Tree struct {
	File   ids.FileId
	Source []byte
	root   *sitter.Tree
}

// Close releases the underlying tree-sitter tree. Safe to call on a nil
// *Tree.
func (t *Tree) Close() {
	if t != nil && t.root != nil {
		t.root.Close()
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	if t == nil || t.root == nil {
		return nil
	}
	return &Node{n: t.root.RootNode(), tree: t}
}

// Text returns the exact source text covered by a range.
func (t *Tree) Text(r ids.TextRange) string {
	if int(r.End) > len(t.Source) || r.Start > r.End {
		return ""
	}
	return string(t.Source[r.Start:r.End])
}

// Parser parses Lua source into Tree values. Parsers are not safe for
// concurrent use; callers running the cooperative single-threaded pipeline
// of §5 only ever touch one Parser from the request loop, so no locking is
// needed here.
type Parser struct {
	p *sitter.Parser
}

// NewParser constructs a Parser configured with the Lua grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(lua.GetLanguage())
	return &Parser{p: p}
}

// Parse parses source as file id into a Tree. ctx is checked cooperatively
// by the underlying tree-sitter parser between grammar steps, matching the
// reentrancy points described in §5.
func (p *Parser) Parse(ctx context.Context, file ids.FileId, source []byte) (*Tree, error) {
	t, err := p.p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %d: %w", file, err)
	}
	return &Tree{File: file, Source: source, root: t}, nil
}

// Node is a single syntax tree node, addressed in absolute byte offsets.
type Node struct {
	n    *sitter.Node
	tree *Tree
}

// IsNil reports whether the node handle is empty (e.g. a ChildByFieldName
// lookup that found nothing).
func (n *Node) IsNil() bool { return n == nil || n.n == nil }

// Type is the tree-sitter grammar node type, e.g. "function_declaration",
// "local_variable_declaration", "comment".
func (n *Node) Type() string {
	if n.IsNil() {
		return ""
	}
	return n.n.Type()
}

// Range is the node's absolute byte range within its file.
func (n *Node) Range() ids.TextRange {
	if n.IsNil() {
		return ids.TextRange{}
	}
	return ids.TextRange{Start: ids.TextSize(n.n.StartByte()), End: ids.TextSize(n.n.EndByte())}
}

// SyntaxRange is the node's file-qualified range, the id used by
// TableConst and other source-range-addressed facts.
func (n *Node) SyntaxRange() ids.SyntaxRange {
	return ids.SyntaxRange{File: n.tree.File, Range: n.Range()}
}

// Pos is the node's start offset, used as the id component for
// declarations, members and signatures.
func (n *Node) Pos() ids.TextSize { return n.Range().Start }

// Text returns the node's exact source text.
func (n *Node) Text() string {
	if n.IsNil() {
		return ""
	}
	return n.tree.Text(n.Range())
}

// ChildCount is the number of direct children, named and anonymous.
func (n *Node) ChildCount() int {
	if n.IsNil() {
		return 0
	}
	return int(n.n.ChildCount())
}

// Child returns the i'th direct child, or a nil Node if out of range.
func (n *Node) Child(i int) *Node {
	if n.IsNil() {
		return nil
	}
	c := n.n.Child(i)
	if c == nil {
		return nil
	}
	return &Node{n: c, tree: n.tree}
}

// NamedChildCount is the number of named (non-punctuation) children.
func (n *Node) NamedChildCount() int {
	if n.IsNil() {
		return 0
	}
	return int(n.n.NamedChildCount())
}

// NamedChild returns the i'th named child.
func (n *Node) NamedChild(i int) *Node {
	if n.IsNil() {
		return nil
	}
	c := n.n.NamedChild(i)
	if c == nil {
		return nil
	}
	return &Node{n: c, tree: n.tree}
}

// ChildByFieldName returns the child bound to the given grammar field, e.g.
// "name" on a local_variable_declaration, or nil if absent.
func (n *Node) ChildByFieldName(field string) *Node {
	if n.IsNil() {
		return nil
	}
	c := n.n.ChildByFieldName(field)
	if c == nil {
		return nil
	}
	return &Node{n: c, tree: n.tree}
}

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node {
	if n.IsNil() {
		return nil
	}
	p := n.n.Parent()
	if p == nil {
		return nil
	}
	return &Node{n: p, tree: n.tree}
}

// NextSibling returns the next sibling, named or not, or nil.
func (n *Node) NextSibling() *Node {
	if n.IsNil() {
		return nil
	}
	s := n.n.NextSibling()
	if s == nil {
		return nil
	}
	return &Node{n: s, tree: n.tree}
}

// NextNamedSibling returns the next named sibling, skipping punctuation.
func (n *Node) NextNamedSibling() *Node {
	if n.IsNil() {
		return nil
	}
	s := n.n.NextNamedSibling()
	if s == nil {
		return nil
	}
	return &Node{n: s, tree: n.tree}
}

// Walk calls visit for n and every descendant in source order. visit
// returning false skips the subtree rooted at the current node.
func (n *Node) Walk(visit func(*Node) bool) {
	if n.IsNil() {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		n.Child(i).Walk(visit)
	}
}
