package analyzer

import (
	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
)

// GlobalRef is a bare-name reference encountered outside of any
// assignment — recorded for DeclAnalyzer's "global reference keys for
// later cross-file resolution" duty (spec.md §4.2 step 1).
type GlobalRef struct {
	Name  string
	Range ids.TextRange
}

// DeclAnalyzer is phase 1 of the pipeline: it walks statements, emits a
// Decl for every `local name`, parameter, for-loop variable and global
// assignment, and builds the file's scope tree.
//
// Grounded on the teacher's analyzer/validator/scope_tracker.go, which
// pushes/pops a scope stack while walking template nodes; DeclAnalyzer
// generalizes that single flat stack into dbindex.ScopeTree's parented
// blocks, since Lua's nested function/if/for/while/repeat/do bodies need
// more than one open scope alive at a time (a closure captures its
// defining scope after the walker has moved past it).
type DeclAnalyzer struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	file     ids.FileId
	tree     *syntax.Tree
	scope    *dbindex.ScopeTree
	globals  []GlobalRef
}

// NewDeclAnalyzer constructs a DeclAnalyzer for one file's tree.
func NewDeclAnalyzer(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree) *DeclAnalyzer {
	return &DeclAnalyzer{
		db:       db,
		interner: interner,
		file:     tree.File,
		tree:     tree,
		scope:    db.Decl.Scope(tree.File),
	}
}

// Run walks the file's chunk and returns every bare global name reference
// seen, for BindAnalyzer/ResolveQueue to resolve once every file's
// declarations are known.
func (a *DeclAnalyzer) Run() []GlobalRef {
	root := a.tree.Root()
	a.walkBlock(root, 0)
	return a.globals
}

func (a *DeclAnalyzer) walkBlock(block *syntax.Node, scopeIdx int) {
	if block.IsNil() {
		return
	}
	for i := 0; i < block.NamedChildCount(); i++ {
		a.walkStatement(block.NamedChild(i), scopeIdx)
	}
}

func (a *DeclAnalyzer) walkStatement(stmt *syntax.Node, scopeIdx int) {
	if stmt.IsNil() {
		return
	}
	switch stmt.Type() {
	case syntax.NodeLocalVarDecl:
		a.declareLocalVarDecl(stmt, scopeIdx)
	case syntax.NodeLocalFunction:
		a.declareLocalFunction(stmt, scopeIdx)
	case syntax.NodeFunctionDecl:
		a.declareFunction(stmt, scopeIdx)
	case syntax.NodeAssignment:
		a.walkAssignment(stmt, scopeIdx)
	case syntax.NodeForNumeric:
		a.walkForNumeric(stmt, scopeIdx)
	case syntax.NodeForGeneric:
		a.walkForGeneric(stmt, scopeIdx)
	case syntax.NodeIfStatement, syntax.NodeWhileStatement, syntax.NodeRepeatStatement:
		a.walkNestedBlocks(stmt, scopeIdx)
	case syntax.NodeFunctionCall:
		a.walkExprForGlobals(stmt, scopeIdx)
	default:
		// Expression statements and anything else that can carry a nested
		// function_definition: scan for globals/closures conservatively.
		a.walkExprForGlobals(stmt, scopeIdx)
	}
}

// declareLocalVarDecl handles `local a, b <const> = e1, e2`.
func (a *DeclAnalyzer) declareLocalVarDecl(stmt *syntax.Node, scopeIdx int) {
	list := stmt.ChildByFieldName(syntax.FieldName)
	if list.IsNil() {
		list = firstChildOfType(stmt, syntax.NodeVariableList)
	}
	names := identifierChildren(list)
	for _, n := range names {
		attr := AttrNoneFor(n)
		decl := &dbindex.Decl{
			ID:        ids.DeclId{File: a.file, Pos: n.Pos()},
			Name:      n.Text(),
			Kind:      dbindex.DeclLocal,
			Range:     n.Range(),
			Attribute: attr,
			ScopeID:   ids.TextSize(scopeIdx),
		}
		a.db.Decl.Insert(decl)
		a.scope.Bind(scopeIdx, n.Text(), decl.ID)
	}
	a.walkExprForGlobals(stmt, scopeIdx)
}

// AttrNoneFor inspects the sibling `attribute` node tree-sitter attaches
// to a name in `local x <const>` and maps it to a LocalAttribute.
func AttrNoneFor(n *syntax.Node) dbindex.LocalAttribute {
	sib := n.NextNamedSibling()
	if sib.IsNil() || sib.Type() != syntax.NodeAttribute {
		return dbindex.AttrNone
	}
	switch sib.Text() {
	case "<const>":
		return dbindex.AttrConst
	case "<close>":
		return dbindex.AttrClose
	default:
		return dbindex.AttrNone
	}
}

func (a *DeclAnalyzer) declareLocalFunction(stmt *syntax.Node, scopeIdx int) {
	nameNode := stmt.ChildByFieldName(syntax.FieldName)
	if nameNode.IsNil() {
		nameNode = firstChildOfType(stmt, syntax.NodeIdentifier)
	}
	if !nameNode.IsNil() {
		decl := &dbindex.Decl{
			ID:      ids.DeclId{File: a.file, Pos: nameNode.Pos()},
			Name:    nameNode.Text(),
			Kind:    dbindex.DeclLocal,
			Range:   nameNode.Range(),
			ScopeID: ids.TextSize(scopeIdx),
		}
		a.db.Decl.Insert(decl)
		a.scope.Bind(scopeIdx, nameNode.Text(), decl.ID)
	}
	a.walkFunctionBody(stmt, scopeIdx)
}

// declareFunction handles `function name(...) end` and `function a.b:c(...)
// end`. A bare single identifier is a Decl (global unless already locally
// bound); a dotted/colon path is a Member, owned by the prefix's type —
// BindAnalyzer resolves the owner once the prefix's type is inferable, so
// DeclAnalyzer only records the bare-name case directly.
func (a *DeclAnalyzer) declareFunction(stmt *syntax.Node, scopeIdx int) {
	nameNode := stmt.ChildByFieldName(syntax.FieldName)
	if nameNode.IsNil() {
		nameNode = firstChildOfType(stmt, syntax.NodeFunctionName)
	}
	if !nameNode.IsNil() && nameNode.NamedChildCount() == 1 {
		id := nameNode.NamedChild(0)
		if id.Type() == syntax.NodeIdentifier {
			if _, ok := a.scope.Resolve(id.Pos(), id.Text()); !ok {
				decl := &dbindex.Decl{
					ID:      ids.DeclId{File: a.file, Pos: id.Pos()},
					Name:    id.Text(),
					Kind:    dbindex.DeclGlobal,
					Range:   id.Range(),
					ScopeID: ids.TextSize(scopeIdx),
				}
				a.db.Decl.Insert(decl)
			}
		}
	}
	a.walkFunctionBody(stmt, scopeIdx)
}

// walkFunctionBody opens a new scope for the closure's parameter list and
// body and binds each named parameter in it, an explicit `self` included.
// The implicit `self` of a colon-form definition is not bound.
func (a *DeclAnalyzer) walkFunctionBody(fn *syntax.Node, parentScope int) {
	bodyRange := fn.Range()
	inner := a.scope.OpenScope(parentScope, bodyRange)

	params := fn.ChildByFieldName(syntax.FieldParameters)
	if params.IsNil() {
		params = firstChildOfType(fn, syntax.NodeParameters)
	}
	for i := 0; i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p.Type() != syntax.NodeIdentifier && p.Type() != syntax.NodeSelf {
			continue
		}
		decl := &dbindex.Decl{
			ID:      ids.DeclId{File: a.file, Pos: p.Pos()},
			Name:    p.Text(),
			Kind:    dbindex.DeclLocal,
			Range:   p.Range(),
			ScopeID: ids.TextSize(inner),
		}
		a.db.Decl.Insert(decl)
		a.scope.Bind(inner, p.Text(), decl.ID)
	}

	body := fn.ChildByFieldName(syntax.FieldBody)
	if body.IsNil() {
		body = firstChildOfType(fn, syntax.NodeBlock)
	}
	a.walkBlock(body, inner)
}

func (a *DeclAnalyzer) walkAssignment(stmt *syntax.Node, scopeIdx int) {
	lhs := stmt.ChildByFieldName(syntax.FieldLeft)
	if lhs.IsNil() {
		lhs = firstChildOfType(stmt, syntax.NodeVariableList)
	}
	for _, n := range identifierChildren(lhs) {
		if _, ok := a.scope.Resolve(n.Pos(), n.Text()); ok {
			continue // already a known local; this is a reassignment, not a Decl
		}
		if existing := a.db.Decl.Globals(n.Text()); len(existing) > 0 {
			continue // global already declared elsewhere
		}
		decl := &dbindex.Decl{
			ID:      ids.DeclId{File: a.file, Pos: n.Pos()},
			Name:    n.Text(),
			Kind:    dbindex.DeclGlobal,
			Range:   n.Range(),
			ScopeID: ids.TextSize(scopeIdx),
		}
		a.db.Decl.Insert(decl)
	}
	a.walkExprForGlobals(stmt, scopeIdx)
}

func (a *DeclAnalyzer) walkForNumeric(stmt *syntax.Node, scopeIdx int) {
	inner := a.scope.OpenScope(scopeIdx, stmt.Range())
	nameNode := stmt.ChildByFieldName(syntax.FieldName)
	if nameNode.IsNil() {
		nameNode = firstChildOfType(stmt, syntax.NodeIdentifier)
	}
	if !nameNode.IsNil() {
		decl := &dbindex.Decl{
			ID:      ids.DeclId{File: a.file, Pos: nameNode.Pos()},
			Name:    nameNode.Text(),
			Kind:    dbindex.DeclLocal,
			Range:   nameNode.Range(),
			ScopeID: ids.TextSize(inner),
		}
		a.db.Decl.Insert(decl)
		a.scope.Bind(inner, nameNode.Text(), decl.ID)
	}
	body := stmt.ChildByFieldName(syntax.FieldBody)
	if body.IsNil() {
		body = firstChildOfType(stmt, syntax.NodeBlock)
	}
	a.walkBlock(body, inner)
}

func (a *DeclAnalyzer) walkForGeneric(stmt *syntax.Node, scopeIdx int) {
	inner := a.scope.OpenScope(scopeIdx, stmt.Range())
	list := firstChildOfType(stmt, syntax.NodeLoopVars)
	if list.IsNil() {
		list = firstChildOfType(stmt, syntax.NodeNameList)
	}
	for _, n := range identifierChildren(list) {
		decl := &dbindex.Decl{
			ID:      ids.DeclId{File: a.file, Pos: n.Pos()},
			Name:    n.Text(),
			Kind:    dbindex.DeclLocal,
			Range:   n.Range(),
			Attribute: dbindex.AttrIterConst,
			ScopeID: ids.TextSize(inner),
		}
		a.db.Decl.Insert(decl)
		a.scope.Bind(inner, n.Text(), decl.ID)
	}
	body := stmt.ChildByFieldName(syntax.FieldBody)
	if body.IsNil() {
		body = firstChildOfType(stmt, syntax.NodeBlock)
	}
	a.walkBlock(body, inner)
}

// walkNestedBlocks handles if/while/repeat, each of which owns one or more
// nested `block` children needing their own child scope.
func (a *DeclAnalyzer) walkNestedBlocks(stmt *syntax.Node, scopeIdx int) {
	for i := 0; i < stmt.ChildCount(); i++ {
		c := stmt.Child(i)
		if c.IsNil() || c.Type() != syntax.NodeBlock {
			continue
		}
		inner := a.scope.OpenScope(scopeIdx, c.Range())
		a.walkBlock(c, inner)
	}
}

// walkExprForGlobals does a shallow scan for bare-identifier reads (not
// already a known local), recording them as GlobalRefs, and recurses into
// any nested function_definition to pick up closures' own declarations.
func (a *DeclAnalyzer) walkExprForGlobals(n *syntax.Node, scopeIdx int) {
	if n.IsNil() {
		return
	}
	if n.Type() == syntax.NodeFunctionDef {
		a.walkFunctionBody(n, scopeIdx)
		return
	}
	if n.Type() == syntax.NodeIdentifier {
		if _, ok := a.scope.Resolve(n.Pos(), n.Text()); !ok {
			a.globals = append(a.globals, GlobalRef{Name: n.Text(), Range: n.Range()})
		}
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		a.walkExprForGlobals(n.Child(i), scopeIdx)
	}
}

func firstChildOfType(n *syntax.Node, t string) *syntax.Node {
	if n.IsNil() {
		return n
	}
	for i := 0; i < n.ChildCount(); i++ {
		if c := n.Child(i); !c.IsNil() && c.Type() == t {
			return c
		}
	}
	return nil
}

func identifierChildren(n *syntax.Node) []*syntax.Node {
	if n.IsNil() {
		return nil
	}
	var out []*syntax.Node
	for i := 0; i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c.Type() == syntax.NodeIdentifier || c.Type() == syntax.NodeSelf {
			out = append(out, c)
		}
	}
	return out
}
