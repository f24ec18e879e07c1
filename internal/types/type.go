// Package types implements the closed type algebra that is the lingua
// franca of every later phase of the semantic engine: the set of Type
// variants, their structural equality, the generic substitutor, and
// humanized rendering for hover/diagnostics text.
//
// Inference (expression → Type), compatibility checking (source ⇐
// candidate) and overload resolution live in package semantic; this
// package only defines what a Type *is*.
package types

// Kind discriminates the closed set of Type variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAny
	KindNil
	KindTable
	KindUserdata
	KindFunction
	KindThread
	KindBoolean
	KindString
	KindInteger
	KindNumber
	KindIo
	KindGlobal
	KindSelfInfer

	KindBooleanConst
	KindIntegerConst
	KindFloatConst
	KindStringConst
	KindDocBooleanConst
	KindDocIntegerConst
	KindDocStringConst

	KindTableConst
	KindArray
	KindTuple
	KindObject
	KindTableGeneric

	KindRef
	KindDef
	KindGeneric

	KindDocFunction
	KindSignature

	KindUnion
	KindIntersection
	KindExtends
	KindNullable
	KindKeyOf

	KindMultiReturn
	KindVariadic

	KindTplRef
	KindStrTplRef
	KindFuncTplRef

	KindInstance
	KindNamespace
	KindExistField
	KindModule
	KindMultiLineUnion
)

// Type is implemented by every variant of the algebra. Every composite
// variant (Object, Union, Intersection, Generic, DocFunction, MultiReturn,
// Extends, Tuple) stores its children as plain Go slices/maps built once at
// construction time and never mutated in place, which gives the same O(1)
// clone behaviour as the reference-counted handles of the source design:
// a Go slice/map header is copied, not deep-copied, by an assignment or a
// function argument pass.
type Type interface {
	Kind() Kind
	// String renders a short, human-readable form used by hover and
	// diagnostics. It never resolves aliases or queries a database.
	String() string
}

// Primitive is every Kind with no payload: Unknown, Any, Nil, Table,
// Userdata, Function, Thread, Boolean, String, Integer, Number, Io,
// Global, SelfInfer.
type Primitive struct{ K Kind }

func (p Primitive) Kind() Kind { return p.K }

var primitiveNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindAny:       "any",
	KindNil:       "nil",
	KindTable:     "table",
	KindUserdata:  "userdata",
	KindFunction:  "function",
	KindThread:    "thread",
	KindBoolean:   "boolean",
	KindString:    "string",
	KindInteger:   "integer",
	KindNumber:    "number",
	KindIo:        "io",
	KindGlobal:    "global",
	KindSelfInfer: "self",
}

func (p Primitive) String() string { return primitiveNames[p.K] }

// Singletons for the zero-payload primitives; callers should prefer these
// over constructing a new Primitive{} so that identity-eq can short-circuit
// Equal as the optimization the design notes permit.
var (
	Unknown   Type = Primitive{KindUnknown}
	Any       Type = Primitive{KindAny}
	Nil       Type = Primitive{KindNil}
	Table     Type = Primitive{KindTable}
	Userdata  Type = Primitive{KindUserdata}
	Function  Type = Primitive{KindFunction}
	Thread    Type = Primitive{KindThread}
	Boolean   Type = Primitive{KindBoolean}
	String    Type = Primitive{KindString}
	Integer   Type = Primitive{KindInteger}
	Number    Type = Primitive{KindNumber}
	Io        Type = Primitive{KindIo}
	Global    Type = Primitive{KindGlobal}
	SelfInfer Type = Primitive{KindSelfInfer}
)

// IsPrimitive reports whether t is one of the zero-payload primitives.
func IsPrimitive(t Type) bool {
	_, ok := t.(Primitive)
	return ok
}
