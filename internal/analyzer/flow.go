package analyzer

import (
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// FlowAnalyzer is phase 4 of the pipeline (spec.md §4.2 step 4): it walks
// conditions and assertions, narrowing a variable's type within the
// region the condition governs.
//
// This is a deliberately narrowed re-implementation of
// original_source's compilation/analyzer/flow/var_analyze.rs, which
// performs a full broadcast_up/broadcast_down walk from every reference
// occurrence outward to resolve reassignment and type-assertion flow
// simultaneously. Here narrowing runs the other direction — inward, from
// a condition down to the references inside the block it guards — which
// covers the common `if x then`/`if not x then`/`if type(x) == "k"
// then`/`assert(x)` idioms (spec.md §4.8's discrimination list) without
// the full occurrence-driven graph. Reassignment-driven re-narrowing
// (tracking that `x = f()` invalidates an earlier narrow) is left to
// infer_expr re-deriving the declared type at each reference instead of
// being modeled as a flow fact.
type FlowAnalyzer struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	file     ids.FileId
	tree     *syntax.Tree
}

// NewFlowAnalyzer constructs a FlowAnalyzer for one file's tree.
func NewFlowAnalyzer(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree) *FlowAnalyzer {
	return &FlowAnalyzer{db: db, interner: interner, file: tree.File, tree: tree}
}

// Run walks the file for if/while/repeat conditions and assert() calls.
func (a *FlowAnalyzer) Run() {
	root := a.tree.Root()
	root.Walk(func(n *syntax.Node) bool {
		switch n.Type() {
		case syntax.NodeIfStatement:
			a.analyzeIf(n)
		case syntax.NodeWhileStatement:
			a.analyzeWhile(n)
		case syntax.NodeRepeatStatement:
			a.analyzeRepeat(n)
		case syntax.NodeFunctionCall:
			a.analyzeAssert(n)
		}
		return true
	})
}

// condition is the narrowing implied by one boolean expression: the
// variable it discriminates on, and the TypeAssertion to record inside
// the then-branch versus the else-branch.
type condition struct {
	target   *syntax.Node // the identifier being narrowed
	thenKind dbindex.AssertionKind
	thenType types.Type
	elseKind dbindex.AssertionKind
	elseType types.Type
	thenOK, elseOK bool
}

func (a *FlowAnalyzer) analyzeCondition(cond *syntax.Node) (condition, bool) {
	if cond.IsNil() {
		return condition{}, false
	}
	switch cond.Type() {
	case syntax.NodeParenExpr:
		return a.analyzeCondition(cond.Child(1))
	case syntax.NodeUnaryExpr:
		if cond.ChildByFieldName(syntax.FieldOperator).Text() != "not" {
			return condition{}, false
		}
		inner, ok := a.analyzeCondition(firstChildOfType(cond, syntax.NodeIdentifier))
		if !ok {
			return condition{}, false
		}
		inner.thenKind, inner.elseKind = inner.elseKind, inner.thenKind
		inner.thenType, inner.elseType = inner.elseType, inner.thenType
		inner.thenOK, inner.elseOK = inner.elseOK, inner.thenOK
		return inner, true
	case syntax.NodeIdentifier:
		return condition{
			target:   cond,
			thenKind: dbindex.AssertExist, thenOK: true,
			elseKind: dbindex.AssertNarrow, elseType: types.Nil, elseOK: true,
		}, true
	case syntax.NodeBinaryExpr:
		return a.analyzeBinaryCondition(cond)
	default:
		return condition{}, false
	}
}

// analyzeBinaryCondition handles `x == nil`, `x ~= nil`, and
// `type(x) == "kind"`.
func (a *FlowAnalyzer) analyzeBinaryCondition(cond *syntax.Node) (condition, bool) {
	op := cond.ChildByFieldName(syntax.FieldOperator).Text()
	left := cond.ChildByFieldName(syntax.FieldLeft)
	right := cond.ChildByFieldName(syntax.FieldRight)
	if op != "==" && op != "~=" {
		return condition{}, false
	}

	if left.Type() == syntax.NodeFunctionCall && isTypeCall(left) && right.Type() == syntax.NodeString {
		target := typeCallArg(left)
		if target.IsNil() {
			return condition{}, false
		}
		kind, ok := kindFromTypeLiteral(stringLiteralValue(right))
		if !ok {
			return condition{}, false
		}
		c := condition{target: target}
		if op == "==" {
			c.thenKind, c.thenType, c.thenOK = dbindex.AssertNarrow, kind, true
			c.elseKind, c.elseType, c.elseOK = dbindex.AssertRemove, kind, true
		} else {
			c.thenKind, c.thenType, c.thenOK = dbindex.AssertRemove, kind, true
			c.elseKind, c.elseType, c.elseOK = dbindex.AssertNarrow, kind, true
		}
		return c, true
	}

	var target *syntax.Node
	if left.Type() == syntax.NodeIdentifier && right.Type() == syntax.NodeNil {
		target = left
	} else if right.Type() == syntax.NodeIdentifier && left.Type() == syntax.NodeNil {
		target = right
	} else {
		return condition{}, false
	}
	c := condition{target: target}
	if op == "==" {
		c.thenKind, c.thenType, c.thenOK = dbindex.AssertNarrow, types.Nil, true
		c.elseKind, c.elseOK = dbindex.AssertExist, true
	} else {
		c.thenKind, c.thenOK = dbindex.AssertExist, true
		c.elseKind, c.elseType, c.elseOK = dbindex.AssertNarrow, types.Nil, true
	}
	return c, true
}

func isTypeCall(call *syntax.Node) bool {
	callee := call.ChildByFieldName(syntax.FieldName)
	if callee.IsNil() {
		callee = firstChildOfType(call, syntax.NodeIdentifier)
	}
	return !callee.IsNil() && callee.Text() == "type"
}

func typeCallArg(call *syntax.Node) *syntax.Node {
	args := firstChildOfType(call, syntax.NodeArguments)
	if args.IsNil() || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

func stringLiteralValue(n *syntax.Node) string {
	text := n.Text()
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func kindFromTypeLiteral(lit string) (types.Type, bool) {
	switch lit {
	case "nil":
		return types.Nil, true
	case "boolean":
		return types.Boolean, true
	case "string":
		return types.String, true
	case "number":
		return types.Number, true
	case "table":
		return types.Table, true
	case "function":
		return types.Function, true
	case "thread":
		return types.Thread, true
	case "userdata":
		return types.Userdata, true
	default:
		return nil, false
	}
}

func (a *FlowAnalyzer) analyzeIf(stmt *syntax.Node) {
	cond := stmt.ChildByFieldName(syntax.FieldCondition)
	if cond.IsNil() {
		cond = stmt.NamedChild(0)
	}
	c, ok := a.analyzeCondition(cond)

	blocks := childrenOfType(stmt, syntax.NodeBlock)
	if ok && c.thenOK && len(blocks) > 0 {
		a.applyNarrow(blocks[0], c.target, c.thenKind, c.thenType)
	}
	if ok && c.elseOK && len(blocks) > 1 {
		a.applyNarrow(blocks[len(blocks)-1], c.target, c.elseKind, c.elseType)
	}

	for i := 0; i < stmt.ChildCount(); i++ {
		ch := stmt.Child(i)
		if ch.IsNil() || ch.Type() != syntax.NodeElseifClause {
			continue
		}
		ec := ch.ChildByFieldName(syntax.FieldCondition)
		if ec.IsNil() {
			ec = ch.NamedChild(0)
		}
		if c2, ok2 := a.analyzeCondition(ec); ok2 && c2.thenOK {
			if b := firstChildOfType(ch, syntax.NodeBlock); !b.IsNil() {
				a.applyNarrow(b, c2.target, c2.thenKind, c2.thenType)
			}
		}
	}
}

func (a *FlowAnalyzer) analyzeWhile(stmt *syntax.Node) {
	cond := stmt.ChildByFieldName(syntax.FieldCondition)
	if cond.IsNil() {
		cond = stmt.NamedChild(0)
	}
	c, ok := a.analyzeCondition(cond)
	if !ok || !c.thenOK {
		return
	}
	if b := firstChildOfType(stmt, syntax.NodeBlock); !b.IsNil() {
		a.applyNarrow(b, c.target, c.thenKind, c.thenType)
	}
}

// analyzeRepeat narrows the `until` condition's scope to include the loop
// body's locals (a repeat/until's condition can see names declared inside
// the body, unlike every other Lua loop): it records the condition's
// else-branch fact over the body and condition together; `break`
// statements inside the body are not examined.
// Supplemented from original_source's treatment of LuaRepeatStat inside
// broadcast_outside, which explicitly special-cases it alongside
// LuaWhileStat rather than treating the until-condition as outside the
// loop's scope the way a for-loop's condition is.
func (a *FlowAnalyzer) analyzeRepeat(stmt *syntax.Node) {
	body := firstChildOfType(stmt, syntax.NodeBlock)
	cond := stmt.ChildByFieldName(syntax.FieldCondition)
	if cond.IsNil() {
		for i := stmt.ChildCount() - 1; i >= 0; i-- {
			ch := stmt.Child(i)
			if !ch.IsNil() && ch.Type() != syntax.NodeBlock {
				cond = ch
				break
			}
		}
	}
	if body.IsNil() || cond.IsNil() {
		return
	}
	// The until-condition's free identifiers resolve against the body's
	// own scope tree (already opened with the body's range by
	// DeclAnalyzer.walkNestedBlocks), so no extra scope wiring is needed
	// here — narrowing only needs to cover the combined body+condition
	// range for any fact the condition establishes about a body-local.
	c, ok := a.analyzeCondition(cond)
	if !ok || !c.elseOK {
		return
	}
	combined := ids.TextRange{Start: body.Range().Start, End: cond.Range().End}
	a.narrowRange(combined, c.target, c.elseKind, c.elseType)
}

func (a *FlowAnalyzer) analyzeAssert(call *syntax.Node) {
	callee := call.ChildByFieldName(syntax.FieldName)
	if callee.IsNil() {
		callee = firstChildOfType(call, syntax.NodeIdentifier)
	}
	if callee.IsNil() || callee.Text() != "assert" {
		return
	}
	args := firstChildOfType(call, syntax.NodeArguments)
	if args.IsNil() || args.NamedChildCount() == 0 {
		return
	}
	target := args.NamedChild(0)
	if target.Type() != syntax.NodeIdentifier {
		return
	}
	// The assertion holds for the remainder of the statement's own block,
	// from just after this call onward.
	stmt := call
	for !stmt.IsNil() && stmt.Type() != "" {
		p := stmt.Parent()
		if p.IsNil() || p.Type() == syntax.NodeBlock {
			break
		}
		stmt = p
	}
	block := stmt.Parent()
	if block.IsNil() || block.Type() != syntax.NodeBlock {
		return
	}
	remainder := ids.TextRange{Start: stmt.Range().End, End: block.Range().End}
	a.narrowRange(remainder, target, dbindex.AssertExist, nil)
}

// applyNarrow narrows every occurrence of target's name within block.
func (a *FlowAnalyzer) applyNarrow(block *syntax.Node, target *syntax.Node, kind dbindex.AssertionKind, payload types.Type) {
	if block.IsNil() || target.IsNil() {
		return
	}
	a.narrowRange(block.Range(), target, kind, payload)
}

// narrowRange records a TypeAssertion for every occurrence of target's
// name within r that resolves to the same declaration as target itself.
// The fact itself — AssertExist/AssertNotExist/AssertNarrow/AssertRemove —
// is recorded verbatim; folding it onto a base type happens later, in
// internal/semantic, once the consumer knows the type being narrowed
// (spec.md §4.8).
func (a *FlowAnalyzer) narrowRange(r ids.TextRange, target *syntax.Node, kind dbindex.AssertionKind, payload types.Type) {
	decl, ok := a.db.Decl.VisibleAt(a.file, target.Pos(), target.Text())
	if !ok {
		return
	}
	root := a.tree.Root()
	flow := ids.FlowId{File: a.file, Pos: r.Start}
	name := target.Text()
	root.Walk(func(n *syntax.Node) bool {
		nr := n.Range()
		if nr.Start >= r.End || nr.End <= r.Start {
			return false // subtree entirely outside r, don't descend
		}
		if n.Type() != syntax.NodeIdentifier || !r.Contains(n.Pos()) || n.Text() != name {
			return true
		}
		d, ok := a.db.Decl.VisibleAt(a.file, n.Pos(), name)
		if !ok || d != decl {
			return true
		}
		a.db.Flow.Insert(a.file, ids.VarRefId{File: a.file, Pos: n.Pos()}, flow, dbindex.TypeAssertion{
			Kind:   kind,
			Range:  r,
			Narrow: payload,
		})
		return true
	})
}

func childrenOfType(n *syntax.Node, t string) []*syntax.Node {
	if n.IsNil() {
		return nil
	}
	var out []*syntax.Node
	for i := 0; i < n.ChildCount(); i++ {
		if c := n.Child(i); !c.IsNil() && c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}
