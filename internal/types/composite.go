package types

import (
	"strings"

	"github.com/abiiranathan/lua-analyzer/internal/ids"
)

// TableConst identifies an anonymous table literal by its allocation site.
// It is the join point with MemberIndex: fields of the literal are
// registered under ids.ElementOwner(Range).
type TableConst struct{ Range ids.SyntaxRange }

func (TableConst) Kind() Kind       { return KindTableConst }
func (t TableConst) String() string { return "table@" + t.Range.String() }

// Array is a homogeneous sequence type.
type Array struct{ Elem Type }

func (Array) Kind() Kind       { return KindArray }
func (a Array) String() string { return a.Elem.String() + "[]" }

// Tuple is a fixed-length heterogeneous sequence, used for small array
// table literals (length at or below the analyzer's tuple threshold).
type Tuple struct{ Elems []Type }

func (Tuple) Kind() Kind { return KindTuple }
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IndexRule is one `table<K, V>`-shaped entry of an Object's index_access
// list: any key compatible with K maps to a value compatible with V.
type IndexRule struct {
	Key   Type
	Value Type
}

// Object is a record type: declared fields plus zero or more index-access
// rules for keys not explicitly declared.
type Object struct {
	Fields      map[ids.MemberKey]Type
	IndexAccess []IndexRule
}

func (Object) Kind() Kind { return KindObject }
func (o Object) String() string {
	if len(o.Fields) == 0 && len(o.IndexAccess) == 1 {
		r := o.IndexAccess[0]
		return "table<" + r.Key.String() + ", " + r.Value.String() + ">"
	}
	var b strings.Builder
	b.WriteString("{ ")
	first := true
	for k, v := range o.Fields {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(memberKeyLabel(k))
		b.WriteString(": ")
		b.WriteString(v.String())
	}
	b.WriteString(" }")
	return b.String()
}

func memberKeyLabel(k ids.MemberKey) string {
	switch k.Kind {
	case ids.MemberKeyInteger:
		return "[" + itoa(k.Int) + "]"
	case ids.MemberKeyName:
		return "<name>"
	default:
		return "?"
	}
}

func itoa(v int64) string {
	// avoid importing strconv twice across files; tiny local helper.
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TableGeneric is a generic table type not yet bound to concrete
// parameters, e.g. the declared shape of `table<K, V>` before substitution.
type TableGeneric struct{ Params []Type }

func (TableGeneric) Kind() Kind { return KindTableGeneric }
func (t TableGeneric) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "table<" + strings.Join(parts, ", ") + ">"
}
