package analyzer

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// BindAnalyzer is phase 3 of the pipeline (spec.md §4.2 step 3): it links
// declaration sites to the expressions that define them, resolving the two
// things DeclAnalyzer deliberately left for later because they need a
// TypeIndex that is only complete after DocAnalyzer has run:
//
//   - `function A.b:method(...)` / `function A.b.c(...)` — a dotted or
//     colon-qualified function name, owned by whatever TypeDecl the
//     dotted prefix names (falling back to the global namespace, keyed by
//     the full dotted path, when no such class was declared);
//   - `self.field = value` assignments inside a method whose owner is
//     known, the common way Lua OOP code grows a class's field set
//     without an explicit `---@field` tag.
//
// It also records `setmetatable(t, mt)` calls into MetatableIndex, the
// fallback member-resolution path for code that skips `---@class`
// entirely (§4.2's "metatable fallback").
//
// Grounded on the teacher's analyzer/ast/analyzer.go, which resolves a Go
// identifier to the package-level symbol it names only after the whole
// file's declarations are collected — BindAnalyzer plays the same
// "second pass once names are known" role, generalized to Lua's dotted
// function names and self-field idiom.
type BindAnalyzer struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	file     ids.FileId
	tree     *syntax.Tree
}

// NewBindAnalyzer constructs a BindAnalyzer for one file's tree.
func NewBindAnalyzer(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree) *BindAnalyzer {
	return &BindAnalyzer{db: db, interner: interner, file: tree.File, tree: tree}
}

// Run walks the file looking for dotted function declarations,
// setmetatable bindings, and self-field assignments.
func (a *BindAnalyzer) Run() {
	root := a.tree.Root()
	root.Walk(func(n *syntax.Node) bool {
		switch n.Type() {
		case syntax.NodeFunctionDecl:
			a.bindDottedFunction(n)
		case syntax.NodeFunctionCall:
			a.bindSetmetatable(n)
		}
		return true
	})
}

// bindDottedFunction handles `function A.b:method(...) end` / `function
// A.b.c(...) end`; DeclAnalyzer already created a Decl for the bare-name
// case and skipped this one.
func (a *BindAnalyzer) bindDottedFunction(fn *syntax.Node) {
	nameNode := fn.ChildByFieldName(syntax.FieldName)
	if nameNode.IsNil() {
		nameNode = firstChildOfType(fn, syntax.NodeFunctionName)
	}
	if nameNode.IsNil() || nameNode.NamedChildCount() < 2 {
		return // bare identifier, already a Decl
	}

	segments := make([]string, 0, nameNode.NamedChildCount())
	colonMethod := false
	for i := 0; i < nameNode.NamedChildCount(); i++ {
		c := nameNode.NamedChild(i)
		segments = append(segments, c.Text())
		if c.Type() == syntax.NodeMethodIndex {
			colonMethod = true
		}
	}
	if len(segments) < 2 {
		return
	}
	methodName := segments[len(segments)-1]
	prefix := strings.Join(segments[:len(segments)-1], ".")

	sigID := ids.SignatureId{File: a.file, Pos: fn.Pos()}
	fnType := types.SignatureRef{ID: sigID}

	owner := a.resolveOwner(prefix)
	keyName := methodName
	if owner == ids.GlobalOwner {
		keyName = prefix + "." + methodName
	}
	member := &dbindex.Member{
		ID:    ids.MemberId{File: a.file, Node: nameNode.Pos()},
		Owner: owner,
		Key:   ids.NameKey(a.interner.Intern(keyName)),
		Type:  fnType,
		Range: nameNode.Range(),
	}
	a.db.Member.Insert(member)

	if colonMethod {
		a.bindSelfFields(fn, owner)
	}
}

// resolveOwner maps a dotted prefix to the TypeDecl it names, falling back
// to the global namespace keyed by the full dotted path when no
// `---@class` declares it — functions attached to plain tables (the
// overwhelmingly common case for library-style Lua modules) still need an
// owner to be looked up by.
func (a *BindAnalyzer) resolveOwner(prefix string) ids.MemberOwner {
	if id, ok := a.interner.Lookup(prefix); ok {
		if _, ok := a.db.Type.Get(ids.TypeDeclId(id)); ok {
			return ids.TypeOwner(ids.TypeDeclId(id))
		}
	}
	return ids.GlobalOwner
}

// bindSelfFields scans a colon-defined method's body for `self.field =
// value` assignments and records each distinct field as a Member of the
// method's owner, the idiomatic way Lua classes grow a field set without
// a `---@field` tag.
func (a *BindAnalyzer) bindSelfFields(fn *syntax.Node, owner ids.MemberOwner) {
	if owner == ids.GlobalOwner {
		return // no class to attach inferred fields to
	}
	body := fn.ChildByFieldName(syntax.FieldBody)
	if body.IsNil() {
		body = firstChildOfType(fn, syntax.NodeBlock)
	}
	if body.IsNil() {
		return
	}
	seen := make(map[string]bool)
	body.Walk(func(n *syntax.Node) bool {
		if n.Type() != syntax.NodeAssignment {
			return true
		}
		lhs := n.ChildByFieldName(syntax.FieldLeft)
		if lhs.IsNil() {
			lhs = firstChildOfType(n, syntax.NodeVariableList)
		}
		for i := 0; i < lhs.NamedChildCount(); i++ {
			target := lhs.NamedChild(i)
			if target.Type() != syntax.NodeDotIndex {
				continue
			}
			base := target.ChildByFieldName(syntax.FieldLeft)
			if base.IsNil() || base.Text() != "self" {
				continue
			}
			field := target.ChildByFieldName(syntax.FieldRight)
			if field.IsNil() {
				continue
			}
			name := field.Text()
			if seen[name] {
				continue
			}
			seen[name] = true
			a.db.Member.Insert(&dbindex.Member{
				ID:    ids.MemberId{File: a.file, Node: field.Pos()},
				Owner: owner,
				Key:   ids.NameKey(a.interner.Intern(name)),
				Type:  types.Unknown,
				Range: field.Range(),
			})
		}
		return true
	})
}

// bindSetmetatable recognizes `setmetatable(table_expr, meta_expr)` calls
// and records the binding by the two arguments' own source ranges — the
// exact addressing MetatableIndex and OperatorIndex key off for the
// metatable-fallback member/operator resolution path.
func (a *BindAnalyzer) bindSetmetatable(call *syntax.Node) {
	callee := call.ChildByFieldName(syntax.FieldName)
	if callee.IsNil() {
		callee = firstChildOfType(call, syntax.NodeIdentifier)
	}
	if callee.IsNil() || callee.Text() != "setmetatable" {
		return
	}
	args := firstChildOfType(call, syntax.NodeArguments)
	if args.IsNil() || args.NamedChildCount() < 2 {
		return
	}
	table := args.NamedChild(0)
	meta := args.NamedChild(1)
	a.db.Metatable.Bind(table.SyntaxRange(), meta.SyntaxRange())
}
