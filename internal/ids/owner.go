package ids

// MemberOwnerKind discriminates what a Member belongs to.
type MemberOwnerKind uint8

const (
	OwnerTypeDecl MemberOwnerKind = iota
	OwnerElement                 // anonymous table literal, identified by source range
	OwnerGlobal
)

// MemberOwner identifies the owner of a member: a named type, an anonymous
// table literal's source range, or the global namespace.
type MemberOwner struct {
	Kind    MemberOwnerKind
	Type    TypeDeclId
	Element SyntaxRange
}

func TypeOwner(t TypeDeclId) MemberOwner { return MemberOwner{Kind: OwnerTypeDecl, Type: t} }
func ElementOwner(r SyntaxRange) MemberOwner {
	return MemberOwner{Kind: OwnerElement, Element: r}
}

var GlobalOwner = MemberOwner{Kind: OwnerGlobal}

// PropertyOwnerKind discriminates what a Property is attached to.
type PropertyOwnerKind uint8

const (
	PropOwnerTypeDecl PropertyOwnerKind = iota
	PropOwnerMember
	PropOwnerDecl
	PropOwnerSignature
)

// PropertyOwnerId identifies the entity a Property (visibility, @deprecated,
// @nodiscard, @async, version guards, …) is attached to.
type PropertyOwnerId struct {
	Kind      PropertyOwnerKind
	TypeDecl  TypeDeclId
	Member    MemberId
	Decl      DeclId
	Signature SignatureId
}

func DeclPropertyOwner(d DeclId) PropertyOwnerId {
	return PropertyOwnerId{Kind: PropOwnerDecl, Decl: d}
}
func MemberPropertyOwner(m MemberId) PropertyOwnerId {
	return PropertyOwnerId{Kind: PropOwnerMember, Member: m}
}
func TypeDeclPropertyOwner(t TypeDeclId) PropertyOwnerId {
	return PropertyOwnerId{Kind: PropOwnerTypeDecl, TypeDecl: t}
}
func SignaturePropertyOwner(s SignatureId) PropertyOwnerId {
	return PropertyOwnerId{Kind: PropOwnerSignature, Signature: s}
}

// OperatorOwnerKind discriminates what a meta-method operator is bound on.
type OperatorOwnerKind uint8

const (
	OperatorOwnerType OperatorOwnerKind = iota
	OperatorOwnerTable                 // metatable source range
)

// OperatorOwner identifies the owner of a meta-method binding: a type id or
// a metatable table literal's source range.
type OperatorOwner struct {
	Kind  OperatorOwnerKind
	Type  TypeDeclId
	Table SyntaxRange
}

// MetaMethod enumerates the well-known Lua metamethod keys the
// OperatorIndex tracks.
type MetaMethod string

const (
	MetaIndex    MetaMethod = "__index"
	MetaNewIndex MetaMethod = "__newindex"
	MetaCall     MetaMethod = "__call"
	MetaAdd      MetaMethod = "__add"
	MetaSub      MetaMethod = "__sub"
	MetaMul      MetaMethod = "__mul"
	MetaDiv      MetaMethod = "__div"
	MetaMod      MetaMethod = "__mod"
	MetaPow      MetaMethod = "__pow"
	MetaIDiv     MetaMethod = "__idiv"
	MetaBAnd     MetaMethod = "__band"
	MetaBOr      MetaMethod = "__bor"
	MetaBXor     MetaMethod = "__bxor"
	MetaShl      MetaMethod = "__shl"
	MetaShr      MetaMethod = "__shr"
	MetaConcat   MetaMethod = "__concat"
	MetaEq       MetaMethod = "__eq"
	MetaLt       MetaMethod = "__lt"
	MetaLe       MetaMethod = "__le"
	MetaUnm      MetaMethod = "__unm"
	MetaLen      MetaMethod = "__len"
)

// OperatorId identifies one registered operator/meta-method binding.
type OperatorId struct {
	Owner  OperatorOwner
	Method MetaMethod
	Index  int // disambiguates multiple bindings of the same method on the same owner
}
