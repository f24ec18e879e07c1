package types

// TplRef is a positional generic parameter, bound by pattern-matching an
// argument type against a declared parameter type at a call site (§4.6).
type TplRef struct{ Index int }

func (TplRef) Kind() Kind       { return KindTplRef }
func (t TplRef) String() string { return "T" + itoa(int64(t.Index)) }

// StrTplRef is a string-template parameter: it binds to the suffix of a
// StringConst argument that follows a fixed Prefix, enabling type-level
// string synthesis (e.g. an `---@generic T` parameter used as
// `"on_" .. T` in a returned event-name type).
type StrTplRef struct {
	Prefix string
	Index  int
}

func (StrTplRef) Kind() Kind       { return KindStrTplRef }
func (s StrTplRef) String() string { return s.Prefix + "${T" + itoa(int64(s.Index)) + "}" }

// FuncTplRef is a generic parameter scoped to a single function type
// (distinct from a class-level TplRef), used by `---@generic` on
// `---@field` method declarations.
type FuncTplRef struct{ Index int }

func (FuncTplRef) Kind() Kind       { return KindFuncTplRef }
func (f FuncTplRef) String() string { return "F" + itoa(int64(f.Index)) }
