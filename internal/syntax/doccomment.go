package syntax

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// docCommentPrefix is the line-comment marker the Lua grammar emits for
// doc-comments, as opposed to plain `--` comments (which this engine
// ignores — only `---` lines are doc-comments per §6).
const docCommentPrefix = "---"

// LeadingDoc collects every contiguous `---` comment line directly above
// stmt (no blank line in between) and returns their text with the marker
// stripped, oldest first. It returns ok=false if stmt has no doc-comment.
//
// The grammar exposes comments as ordinary siblings of the statement they
// precede, so "attached to the owning statement" is this package's
// responsibility, not the grammar's: DocAnalyzer calls this once per
// statement rather than re-deriving the attachment rule itself.
func LeadingDoc(stmt *Node) (lines []string, ok bool) {
	if stmt.IsNil() {
		return nil, false
	}
	var gathered []string
	cur := stmt
	for {
		prev := cur.prevSibling()
		if prev == nil || prev.Type() != "comment" {
			break
		}
		text := prev.Text()
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, docCommentPrefix) {
			break
		}
		if linesBetween(prev, cur) > 1 {
			break
		}
		gathered = append(gathered, strings.TrimSpace(strings.TrimPrefix(trimmed, docCommentPrefix)))
		cur = prev
	}
	if len(gathered) == 0 {
		return nil, false
	}
	// gathered was collected nearest-first; reverse to source order.
	for i, j := 0, len(gathered)-1; i < j; i, j = i+1, j-1 {
		gathered[i], gathered[j] = gathered[j], gathered[i]
	}
	return gathered, true
}

// prevSibling returns the node immediately before n among its parent's
// children (named or not), or nil if n is first or has no parent.
func (n *Node) prevSibling() *Node {
	p := n.Parent()
	if p.IsNil() {
		return nil
	}
	for i := 0; i < p.ChildCount(); i++ {
		if c := p.Child(i); c != nil && c.Range() == n.Range() {
			if i == 0 {
				return nil
			}
			return p.Child(i - 1)
		}
	}
	return nil
}

// linesBetween is a cheap newline-count heuristic used to decide whether
// two adjacent comment lines are "contiguous" (no blank line separating
// them) without needing the grammar's row/column points.
func linesBetween(a, b *Node) int {
	if a.tree != b.tree {
		return 2
	}
	gap := a.tree.Text(ids.TextRange{Start: a.Range().End, End: b.Range().Start})
	return strings.Count(gap, "\n")
}
