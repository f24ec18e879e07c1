package types

import "strconv"

// Literal constants widen to their primitive under assignment (an
// IntegerConst(1) local may be reassigned any Integer); doc-constants do
// not (a ---@type "red" local is frozen to that exact literal). See §3 of
// the specification.

type BooleanConst struct{ Value bool }

func (BooleanConst) Kind() Kind { return KindBooleanConst }
func (b BooleanConst) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type IntegerConst struct{ Value int64 }

func (IntegerConst) Kind() Kind       { return KindIntegerConst }
func (i IntegerConst) String() string { return strconv.FormatInt(i.Value, 10) }

type FloatConst struct{ Value float64 }

func (FloatConst) Kind() Kind       { return KindFloatConst }
func (f FloatConst) String() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type StringConst struct{ Value string }

func (StringConst) Kind() Kind       { return KindStringConst }
func (s StringConst) String() string { return strconv.Quote(s.Value) }

// DocBooleanConst, DocIntegerConst, DocStringConst are the doc-annotation
// equivalents of the three constants above (written e.g. ---@type "red" or
// as an ---@alias union arm). They never widen under assignment.

type DocBooleanConst struct{ Value bool }

func (DocBooleanConst) Kind() Kind { return KindDocBooleanConst }
func (b DocBooleanConst) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type DocIntegerConst struct{ Value int64 }

func (DocIntegerConst) Kind() Kind       { return KindDocIntegerConst }
func (i DocIntegerConst) String() string { return strconv.FormatInt(i.Value, 10) }

type DocStringConst struct{ Value string }

func (DocStringConst) Kind() Kind       { return KindDocStringConst }
func (s DocStringConst) String() string { return strconv.Quote(s.Value) }

// IsDocConst reports whether t is one of the three doc-constant variants.
func IsDocConst(t Type) bool {
	switch t.(type) {
	case DocBooleanConst, DocIntegerConst, DocStringConst:
		return true
	}
	return false
}

// Widen maps a literal constant to its assignment-widened primitive. Other
// types (including doc-constants) are returned unchanged.
func Widen(t Type) Type {
	switch t.(type) {
	case BooleanConst:
		return Boolean
	case IntegerConst:
		return Integer
	case FloatConst:
		return Number
	case StringConst:
		return String
	default:
		return t
	}
}
