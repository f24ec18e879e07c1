package analyzer

import (
	"strconv"
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// TypeNamer resolves a dotted type name to a TypeDeclId, interning it if
// this is the first time the name is seen (a forward reference to a class
// declared later in this file, or in a file not yet analyzed — the
// ResolveQueue reconciles the latter case once the owning file lands).
type TypeNamer interface {
	InternTypeName(name string) ids.TypeDeclId
}

// typeNamerFunc adapts an Interner to TypeNamer without analyzer needing
// to import ids.Interner's concrete type directly in call sites.
type typeNamerFunc func(string) ids.TypeDeclId

func (f typeNamerFunc) InternTypeName(name string) ids.TypeDeclId { return f(name) }

// docTypeParser is a small recursive-descent parser for the doc-comment
// type grammar: `T`, `T[]`, `T?`, `T|U`, `table<K,V>`, `fun(a:T,
// ...):R1,R2`, `"literal"`, generic application `T<A,B>`. Intersection
// syntax (`T&U`) is not parsed. It is not the
// external "syntax surface" the spec treats as a given (that is the Lua
// grammar itself); doc-comment type text is a second, much smaller
// grammar this engine must still parse itself, since no tree-sitter
// grammar in the pack covers it.
//
// Grounded on original_source/'s doc-type parser structure (a Pratt-style
// parser over a flat token stream) translated into ordinary recursive
// descent over a string cursor, the way the teacher parses its own
// small embedded grammar (Go template actions) with hand-written
// recursive functions rather than a parser-generator.
type docTypeParser struct {
	src   string
	pos   int
	namer TypeNamer
}

// ParseDocType parses a doc-comment type expression against namer, the
// one grammar both DocAnalyzer (tag bodies) and internal/semantic
// (operator-index result text, §4.5's by-operator lookup) need to read.
func ParseDocType(src string, namer TypeNamer) (types.Type, bool) {
	p := &docTypeParser{src: strings.TrimSpace(src), namer: namer}
	t := p.parseUnion()
	if t == nil {
		return nil, false
	}
	return t, true
}

func parseDocType(src string, namer TypeNamer) (types.Type, bool) {
	return ParseDocType(src, namer)
}

func (p *docTypeParser) parseUnion() types.Type {
	first := p.parsePostfix()
	if first == nil {
		return nil
	}
	arms := []types.Type{first}
	for p.skipByte('|') {
		next := p.parsePostfix()
		if next == nil {
			break
		}
		arms = append(arms, next)
	}
	if len(arms) == 1 {
		return arms[0]
	}
	return types.NewUnion(arms...)
}

func (p *docTypeParser) parsePostfix() types.Type {
	base := p.parsePrimary()
	if base == nil {
		return nil
	}
	for {
		p.skipSpace()
		switch {
		case p.peekBytes("[]"):
			p.pos += 2
			base = types.Array{Elem: base}
		case p.peekByte('?'):
			p.pos++
			base = types.Nullable{Elem: base}
		default:
			return base
		}
	}
}

func (p *docTypeParser) parsePrimary() types.Type {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil
	}
	switch {
	case p.src[p.pos] == '"' || p.src[p.pos] == '\'':
		return p.parseStringLiteral()
	case strings.HasPrefix(p.src[p.pos:], "fun("):
		return p.parseFunctionType()
	case strings.HasPrefix(p.src[p.pos:], "table<") || strings.HasPrefix(p.src[p.pos:], "table"):
		return p.parseTableType()
	case isIdentStart(p.src[p.pos]):
		return p.parseNamedOrPrimitive()
	default:
		return nil
	}
}

func (p *docTypeParser) parseStringLiteral() types.Type {
	quote := p.src[p.pos]
	start := p.pos + 1
	i := start
	for i < len(p.src) && p.src[i] != quote {
		i++
	}
	lit := p.src[start:i]
	p.pos = i + 1
	return types.DocStringConst{Value: lit}
}

func (p *docTypeParser) parseFunctionType() types.Type {
	p.pos += len("fun")
	p.skipByte('(')
	var params []types.Param
	for {
		p.skipSpace()
		if p.peekByte(')') {
			p.pos++
			break
		}
		name := p.parseIdent()
		optional := p.skipByte('?')
		p.skipSpace()
		var pt types.Type = types.Any
		if p.skipByte(':') {
			if t := p.parsePostfix(); t != nil {
				pt = t
			}
		}
		params = append(params, types.Param{Name: name, Type: pt, Optional: optional})
		p.skipSpace()
		if !p.skipByte(',') {
			p.skipByte(')')
			break
		}
	}
	var returns []types.Type
	p.skipSpace()
	if p.skipByte(':') {
		for {
			t := p.parseUnion()
			if t == nil {
				break
			}
			returns = append(returns, t)
			if !p.skipByte(',') {
				break
			}
		}
	}
	return types.DocFunction{Func: types.FunctionType{Params: params, Returns: returns}}
}

func (p *docTypeParser) parseTableType() types.Type {
	p.pos += len("table")
	p.skipSpace()
	if !p.skipByte('<') {
		return types.Table
	}
	key := p.parseUnion()
	p.skipSpace()
	p.skipByte(',')
	val := p.parseUnion()
	p.skipSpace()
	p.skipByte('>')
	if key == nil {
		key = types.Any
	}
	if val == nil {
		val = types.Any
	}
	return types.Object{IndexAccess: []types.IndexRule{{Key: key, Value: val}}}
}

func (p *docTypeParser) parseNamedOrPrimitive() types.Type {
	name := p.parseIdent()
	for p.skipByte('.') {
		name += "." + p.parseIdent()
	}
	if prim, ok := primitiveByName(name); ok {
		return prim
	}
	p.skipSpace()
	if p.skipByte('<') {
		var args []types.Type
		for {
			t := p.parseUnion()
			if t == nil {
				break
			}
			args = append(args, t)
			if !p.skipByte(',') {
				break
			}
		}
		p.skipByte('>')
		return types.Generic{Base: p.namer.InternTypeName(name), Params: args}
	}
	if n, err := strconv.ParseInt(name, 10, 64); err == nil {
		return types.IntegerConst{Value: n}
	}
	return types.Ref{Decl: p.namer.InternTypeName(name)}
}

func primitiveByName(name string) (types.Type, bool) {
	switch name {
	case "nil":
		return types.Nil, true
	case "any":
		return types.Any, true
	case "unknown":
		return types.Unknown, true
	case "boolean", "bool":
		return types.Boolean, true
	case "string":
		return types.String, true
	case "integer":
		return types.Integer, true
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
	case "io":
		return types.Io, true
	default:
		return nil, false
	}
}

func (p *docTypeParser) parseIdent() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *docTypeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *docTypeParser) skipByte(b byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *docTypeParser) peekByte(b byte) bool {
	return p.pos < len(p.src) && p.src[p.pos] == b
}

func (p *docTypeParser) peekBytes(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
