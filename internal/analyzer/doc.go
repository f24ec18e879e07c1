package analyzer

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// DocAnalyzer is phase 2 of the pipeline (spec.md §4.2 step 2): it walks
// the leading `---` comment block attached to each statement and
// dispatches per tag into TypeIndex, MemberIndex, PropertyIndex,
// SignatureIndex and ModuleIndex.
//
// Grounded on the teacher's analyzer/ast/analyzer.go, which reads Go doc
// comments off AST nodes but has no directive vocabulary of its own; the
// per-tag dispatch over the doc-comment surface's ~20 tags (spec.md §6
// table) is DocAnalyzer's own.
type DocAnalyzer struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	file     ids.FileId
	tree     *syntax.Tree

	namespace string          // active `---@namespace` for this file
	using     []string        // `---@using` aliases, tried in order
	activeGen []types.GenericParam // `---@generic` pending for the next definition
	isMeta    bool
}

// NewDocAnalyzer constructs a DocAnalyzer for one file.
func NewDocAnalyzer(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree) *DocAnalyzer {
	return &DocAnalyzer{db: db, interner: interner, file: tree.File, tree: tree}
}

func (a *DocAnalyzer) namer() TypeNamer {
	return typeNamerFunc(func(name string) ids.TypeDeclId {
		return ids.TypeDeclId(a.interner.Intern(a.qualify(name)))
	})
}

// qualify resolves a bare name against the active namespace/using list;
// dotted names are assumed already-qualified.
func (a *DocAnalyzer) qualify(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if a.namespace != "" {
		return a.namespace + "." + name
	}
	return name
}

// Run walks every statement in the file looking for a leading doc-comment
// block and dispatches its tags.
func (a *DocAnalyzer) Run() {
	root := a.tree.Root()
	root.Walk(func(n *syntax.Node) bool {
		if n.Type() == syntax.NodeComment {
			return false
		}
		if lines, ok := syntax.LeadingDoc(n); ok {
			a.dispatch(n, lines)
		}
		return true
	})
}

func (a *DocAnalyzer) dispatch(owner *syntax.Node, lines []string) {
	for _, line := range lines {
		tag, rest := splitTag(line)
		switch tag {
		case "@class":
			a.handleClass(owner, rest)
		case "@enum":
			a.handleEnum(owner, rest)
		case "@alias":
			a.handleAlias(owner, rest)
		case "@field":
			a.handleField(owner, rest)
		case "@type":
			a.handleType(owner, rest)
		case "@param":
			a.handleParam(owner, rest)
		case "@return":
			a.handleReturn(owner, rest)
		case "@overload":
			a.handleOverload(owner, rest)
		case "@generic":
			a.handleGeneric(rest)
		case "@module":
			a.handleModule(owner, rest)
		case "@namespace":
			a.namespace = strings.TrimSpace(rest)
		case "@using":
			a.using = append(a.using, strings.TrimSpace(rest))
		case "@meta":
			a.isMeta = true
			a.db.MetaFile.Mark(a.file, true)
		case "@deprecated":
			a.setProperty(owner, func(p *dbindex.Property) { p.Deprecated = true; p.DeprecatedMsg = strings.TrimSpace(rest) })
		case "@nodiscard":
			a.setProperty(owner, func(p *dbindex.Property) { p.NoDiscard = true })
		case "@async":
			a.setProperty(owner, func(p *dbindex.Property) { p.Async = true })
		case "@private":
			a.setProperty(owner, func(p *dbindex.Property) { p.Visibility = dbindex.Private })
		case "@protected":
			a.setProperty(owner, func(p *dbindex.Property) { p.Visibility = dbindex.Protected })
		case "@package":
			a.setProperty(owner, func(p *dbindex.Property) { p.Visibility = dbindex.Package })
		case "@public":
			a.setProperty(owner, func(p *dbindex.Property) { p.Visibility = dbindex.Public })
		case "@version":
			a.setProperty(owner, func(p *dbindex.Property) { p.VersionMin = strings.TrimSpace(rest) })
		}
	}
}

func splitTag(line string) (tag, rest string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@") {
		return "", line
	}
	sp := strings.IndexAny(line, " \t")
	if sp < 0 {
		return line, ""
	}
	return line[:sp], strings.TrimSpace(line[sp:])
}

// handleClass parses `@class Name [(attribs)] [: S1, S2]`.
func (a *DocAnalyzer) handleClass(owner *syntax.Node, rest string) {
	partial := false
	if strings.HasPrefix(rest, "(") {
		if end := strings.IndexByte(rest, ')'); end > 0 {
			attribs := rest[1:end]
			partial = strings.Contains(attribs, "partial")
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	name, superList, _ := strings.Cut(rest, ":")
	name = strings.TrimSpace(name)
	id := ids.TypeDeclId(a.interner.Intern(a.qualify(name)))

	var supers []types.Type
	for _, s := range strings.Split(superList, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if t, ok := parseDocType(s, a.namer()); ok {
			supers = append(supers, t)
		}
	}

	if existing, ok := a.db.Type.Get(id); ok && existing.Kind == dbindex.TypeDeclClass {
		existing.Supers = append(existing.Supers, supers...)
		existing.Partial = existing.Partial || partial
		return
	}
	a.db.Type.Insert(&dbindex.TypeDecl{
		ID:      id,
		Name:    name,
		Kind:    dbindex.TypeDeclClass,
		File:    a.file,
		Range:   owner.Range(),
		Supers:  supers,
		Partial: partial,
		Generics: a.takeGenerics(),
	})
}

func (a *DocAnalyzer) handleEnum(owner *syntax.Node, rest string) {
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "(key)"))
	name := strings.TrimSpace(rest)
	id := ids.TypeDeclId(a.interner.Intern(a.qualify(name)))
	a.db.Type.Insert(&dbindex.TypeDecl{ID: id, Name: name, Kind: dbindex.TypeDeclEnum, File: a.file, Range: owner.Range()})
}

func (a *DocAnalyzer) handleAlias(owner *syntax.Node, rest string) {
	name, originStr, ok := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	id := ids.TypeDeclId(a.interner.Intern(a.qualify(name)))
	var origin types.Type = types.Unknown
	if ok {
		if t, ok := parseDocType(originStr, a.namer()); ok {
			origin = t
		}
	}
	a.db.Type.Insert(&dbindex.TypeDecl{ID: id, Name: name, Kind: dbindex.TypeDeclAlias, File: a.file, Range: owner.Range(), Origin: origin})
}

// handleField parses `@field [visibility] name T [desc]`, attaching the
// member to the class currently being declared at owner (the `@class`
// line earlier in the same doc block, already processed since tags are
// dispatched in source order).
func (a *DocAnalyzer) handleField(owner *syntax.Node, rest string) {
	fields := strings.Fields(rest)
	vis := dbindex.Public
	idx := 0
	switch fields[0] {
	case "private":
		vis, idx = dbindex.Private, 1
	case "protected":
		vis, idx = dbindex.Protected, 1
	case "public":
		vis, idx = dbindex.Public, 1
	case "package":
		vis, idx = dbindex.Package, 1
	}
	if idx >= len(fields) {
		return
	}
	name := fields[idx]
	typeText := strings.Join(fields[idx+1:], " ")
	t, _ := parseDocType(typeText, a.namer())
	if t == nil {
		t = types.Unknown
	}

	ownerID := a.classOwnerOf(owner)
	m := &dbindex.Member{
		ID:    ids.MemberId{File: a.file, Node: owner.Pos()},
		Owner: ownerID,
		Key:   ids.NameKey(a.interner.Intern(name)),
		Type:  t,
		Range: owner.Range(),
	}
	a.db.Member.Insert(m)
	if vis != dbindex.Public {
		a.db.Property.Insert(&dbindex.Property{Owner: ids.MemberPropertyOwner(m.ID), Visibility: vis})
	}
}

// classOwnerOf finds the TypeDecl this doc block is declaring (the most
// recently inserted class/enum TypeDecl at this file+range), falling back
// to the GlobalOwner for stray `@field` tags outside a class block.
func (a *DocAnalyzer) classOwnerOf(owner *syntax.Node) ids.MemberOwner {
	for _, td := range a.db.Type.ForFile(a.file) {
		if td.Range == owner.Range() {
			return ids.TypeOwner(td.ID)
		}
	}
	return ids.GlobalOwner
}

// handleType binds `@type T` to the next declaration (the statement this
// doc block is attached to).
func (a *DocAnalyzer) handleType(owner *syntax.Node, rest string) {
	t, ok := parseDocType(rest, a.namer())
	if !ok {
		return
	}
	target := firstChildOfType(owner, syntax.NodeVariableList)
	if target.IsNil() {
		target = owner
	}
	for _, n := range identifierChildren(target) {
		if d, ok := a.db.Decl.Get(ids.DeclId{File: a.file, Pos: n.Pos()}); ok {
			d.Type = t
		}
	}
}

func (a *DocAnalyzer) handleParam(owner *syntax.Node, rest string) {
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) == 0 {
		return
	}
	name := strings.TrimSuffix(fields[0], "?")
	optional := strings.HasSuffix(fields[0], "?")
	var typeText string
	if len(fields) > 1 {
		typeText = fields[1]
	}
	t, _ := parseDocType(typeText, a.namer())
	if t == nil {
		t = types.Any
	}
	sig := a.signatureOf(owner)
	if sig == nil {
		return
	}
	if len(sig.Overloads) == 0 {
		sig.Overloads = append(sig.Overloads, types.FunctionType{})
	}
	base := &sig.Overloads[0]
	base.Params = append(base.Params, types.Param{Name: name, Type: t, Optional: optional})
}

func (a *DocAnalyzer) handleReturn(owner *syntax.Node, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	t, _ := parseDocType(fields[0], a.namer())
	if t == nil {
		t = types.Any
	}
	sig := a.signatureOf(owner)
	if sig == nil {
		return
	}
	if len(sig.Overloads) == 0 {
		sig.Overloads = append(sig.Overloads, types.FunctionType{})
	}
	base := &sig.Overloads[0]
	base.Returns = append(base.Returns, t)
}

func (a *DocAnalyzer) handleOverload(owner *syntax.Node, rest string) {
	t, ok := parseDocType(rest, a.namer())
	if !ok {
		return
	}
	fn, ok := t.(types.DocFunction)
	if !ok {
		return
	}
	sig := a.signatureOf(owner)
	if sig == nil {
		return
	}
	sig.Overloads = append(sig.Overloads, fn.Func)
}

// signatureOf finds or creates the Signature for the function literal
// owner's doc block is attached to.
func (a *DocAnalyzer) signatureOf(owner *syntax.Node) *dbindex.Signature {
	pos := owner.Pos()
	id := ids.SignatureId{File: a.file, Pos: pos}
	if sig, ok := a.db.Signature.Get(id); ok {
		return sig
	}
	sig := &dbindex.Signature{ID: id, File: a.file, Range: owner.Range()}
	a.db.Signature.Insert(sig)
	return sig
}

func (a *DocAnalyzer) handleGeneric(rest string) {
	var params []types.GenericParam
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, bound, hasBound := strings.Cut(part, ":")
		gp := types.GenericParam{Name: strings.TrimSpace(name)}
		if hasBound {
			if t, ok := parseDocType(bound, a.namer()); ok {
				gp.Bound = t
			}
		}
		params = append(params, gp)
	}
	a.activeGen = params
}

func (a *DocAnalyzer) takeGenerics() []types.GenericParam {
	g := a.activeGen
	a.activeGen = nil
	return g
}

func (a *DocAnalyzer) handleModule(owner *syntax.Node, rest string) {
	if strings.TrimSpace(rest) == "no-require" {
		a.db.Module.Insert(&dbindex.ModuleInfo{Path: "", File: a.file})
		return
	}
	path := strings.Trim(strings.TrimSpace(rest), `"'`)
	a.db.Module.Insert(&dbindex.ModuleInfo{Path: path, File: a.file, Exports: types.Unknown})
}

func (a *DocAnalyzer) setProperty(owner *syntax.Node, mutate func(*dbindex.Property)) {
	var propOwner ids.PropertyOwnerId
	if td := a.classOwnerOfOrNone(owner); td != (ids.TypeDeclId)(0) {
		propOwner = ids.TypeDeclPropertyOwner(td)
	} else if decl, ok := a.db.Decl.Get(ids.DeclId{File: a.file, Pos: owner.Pos()}); ok {
		propOwner = ids.DeclPropertyOwner(decl.ID)
	} else {
		propOwner = ids.DeclPropertyOwner(ids.DeclId{File: a.file, Pos: owner.Pos()})
	}
	p, ok := a.db.Property.Get(propOwner)
	if !ok {
		p = &dbindex.Property{Owner: propOwner}
	}
	mutate(p)
	a.db.Property.Insert(p)
}

func (a *DocAnalyzer) classOwnerOfOrNone(owner *syntax.Node) ids.TypeDeclId {
	for _, td := range a.db.Type.ForFile(a.file) {
		if td.Range == owner.Range() {
			return td.ID
		}
	}
	return 0
}
