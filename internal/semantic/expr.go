package semantic

import (
	"strconv"

	"github.com/abiiranathan/lua-analyzer/internal/dbindex"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/syntax"
	"github.com/abiiranathan/lua-analyzer/internal/types"
)

// metaByBinaryOp maps a binary_expression's operator text to the
// metamethod OperatorIndex falls back to once constant folding and the
// built-in arithmetic/comparison rules don't apply (spec.md §4.3's
// "binary expr" case).
var metaByBinaryOp = map[string]ids.MetaMethod{
	"+": ids.MetaAdd, "-": ids.MetaSub, "*": ids.MetaMul, "/": ids.MetaDiv,
	"%": ids.MetaMod, "^": ids.MetaPow, "//": ids.MetaIDiv,
	"&": ids.MetaBAnd, "|": ids.MetaBOr, "~": ids.MetaBXor,
	"<<": ids.MetaShl, ">>": ids.MetaShr, "..": ids.MetaConcat,
	"==": ids.MetaEq, "<": ids.MetaLt, "<=": ids.MetaLe,
}

// Inferer carries the per-file state infer_expr needs across one
// expression tree walk: the shared indices, the interner, the guard
// against recursive member lookups, and a position-scoped cache. One
// Inferer is built per file per analysis pass (see cache.go's
// phase-aware LuaInferCache for why results aren't shared across passes).
type Inferer struct {
	db       *dbindex.DbIndex
	interner *ids.Interner
	guard    *InferGuard
	cache    *LuaInferCache
	tree     *syntax.Tree
	file     ids.FileId
	phase    AnalysisPhase
}

// NewInferer constructs an Inferer for one file's tree.
func NewInferer(db *dbindex.DbIndex, interner *ids.Interner, tree *syntax.Tree, phase AnalysisPhase) *Inferer {
	return &Inferer{
		db: db, interner: interner, tree: tree, file: tree.File, phase: phase,
		guard: NewInferGuard(), cache: NewLuaInferCache(),
	}
}

// InferExpr implements spec.md §4.3: dispatches on the expression node's
// grammar shape, memoizing by source position so repeat visits (a name
// referenced inside both a binary and a call expression on the same
// line) don't re-walk the same subtree.
func (inf *Inferer) InferExpr(n *syntax.Node) (types.Type, InferFailReason) {
	if n.IsNil() {
		return types.Nil, InferFailReason{}
	}
	if t, fail, ok := inf.cache.Get(n.Pos(), inf.phase); ok {
		return t, fail
	}
	t, fail := inf.inferExprUncached(n)
	inf.cache.Put(n.Pos(), inf.phase, t, fail)
	return t, fail
}

func (inf *Inferer) inferExprUncached(n *syntax.Node) (types.Type, InferFailReason) {
	switch n.Type() {
	case syntax.NodeNil:
		return types.Nil, InferFailReason{}
	case syntax.NodeTrue:
		return types.BooleanConst{Value: true}, InferFailReason{}
	case syntax.NodeFalse:
		return types.BooleanConst{Value: false}, InferFailReason{}
	case syntax.NodeNumber:
		return inferNumber(n.Text()), InferFailReason{}
	case syntax.NodeString:
		return types.StringConst{Value: unquoteLuaString(n.Text())}, InferFailReason{}
	case syntax.NodeIdentifier:
		return inf.inferIdentifier(n)
	case syntax.NodeDotIndex, syntax.NodeMethodIndex, syntax.NodeBracketIndex:
		return inf.inferIndex(n)
	case syntax.NodeBinaryExpr:
		return inf.inferBinary(n)
	case syntax.NodeUnaryExpr:
		return inf.inferUnary(n)
	case syntax.NodeParenExpr:
		if n.NamedChildCount() == 0 {
			return types.Nil, InferFailReason{}
		}
		t, fail := inf.InferExpr(n.NamedChild(0))
		return types.First(t), fail
	case syntax.NodeFunctionCall:
		return inf.inferCallExpr(n)
	case syntax.NodeTableCtor:
		return inf.inferTable(n)
	case syntax.NodeFunctionDef:
		return types.SignatureRef{ID: ids.SignatureId{File: inf.file, Pos: n.Pos()}}, InferFailReason{}
	case syntax.NodeVarargExpr:
		return types.MultiReturn{Base: types.Unknown}, InferFailReason{}
	default:
		return types.Unknown, InferFailReason{}
	}
}

func inferNumber(text string) types.Type {
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return types.IntegerConst{Value: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return types.FloatConst{Value: f}
	}
	return types.Number
}

func unquoteLuaString(text string) string {
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// reassignResolver re-infers the right-hand side of the assignment at
// pos, returning its idx'th component — wired as flowfold.go's
// ReassignResolver so AssertReassign facts fold against a real re-
// inferred type rather than the stale declaration type.
func (inf *Inferer) reassignResolver() ReassignResolver {
	return func(exprPos ids.SyntaxId, idx int) types.Type {
		node := findNodeAt(inf.tree.Root(), exprPos)
		if node == nil || node.IsNil() {
			return types.Unknown
		}
		t, _ := inf.InferExpr(node)
		return types.MultiReturn{Types: []types.Type{t}}.Get(idx)
	}
}

// findNodeAt returns the narrowest node starting exactly at pos, the
// addressing AssertReassign facts use (a reassignment expression is
// identified by its own start offset as ids.SyntaxId).
func findNodeAt(root *syntax.Node, pos ids.TextSize) *syntax.Node {
	var found *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		r := n.Range()
		if pos < r.Start || pos >= r.End {
			return false
		}
		if r.Start == pos {
			found = n
		}
		return true
	})
	return found
}

func (inf *Inferer) inferIdentifier(n *syntax.Node) (types.Type, InferFailReason) {
	name := n.Text()
	decl, ok := inf.db.Decl.VisibleAt(inf.file, n.Pos(), name)
	if !ok {
		return types.Unknown, InferFailReason{}
	}
	base := decl.Type
	if base == nil {
		return types.Unknown, InferFailReason{Kind: FailUnresolveDeclType, Decl: decl.ID}
	}
	varRef := ids.VarRefId{File: inf.file, Pos: n.Pos()}
	narrowed := NarrowedType(inf.db, inf.file, varRef, n.Pos(), base, inf.reassignResolver())
	return narrowed, InferFailReason{}
}

func (inf *Inferer) memberKeyOf(n *syntax.Node) (ids.MemberKey, bool) {
	switch n.Type() {
	case syntax.NodeDotIndex, syntax.NodeMethodIndex:
		field := n.ChildByFieldName(syntax.FieldRight)
		if field.IsNil() {
			return ids.NoKey, false
		}
		return ids.NameKey(inf.interner.Intern(field.Text())), true
	case syntax.NodeBracketIndex:
		field := n.ChildByFieldName(syntax.FieldRight)
		if field.IsNil() || field.Type() != syntax.NodeString {
			if field.Type() == syntax.NodeNumber {
				if i, err := strconv.ParseInt(field.Text(), 0, 64); err == nil {
					return ids.IntKey(i), true
				}
			}
			return ids.NoKey, false
		}
		return ids.NameKey(inf.interner.Intern(unquoteLuaString(field.Text()))), true
	default:
		return ids.NoKey, false
	}
}

func (inf *Inferer) inferIndex(n *syntax.Node) (types.Type, InferFailReason) {
	base := n.ChildByFieldName(syntax.FieldLeft)
	if base.IsNil() {
		return types.Unknown, InferFailReason{}
	}
	objType, fail := inf.InferExpr(base)
	if fail.Recoverable() {
		return types.Unknown, fail
	}
	key, ok := inf.memberKeyOf(n)
	if !ok {
		return types.Unknown, InferFailReason{}
	}
	return LookupMember(inf.db, inf.interner, inf.guard, types.First(objType), key)
}

func (inf *Inferer) inferUnary(n *syntax.Node) (types.Type, InferFailReason) {
	opText := n.ChildByFieldName(syntax.FieldOperator).Text()
	operand := n.ChildByFieldName(syntax.FieldValue)
	if operand.IsNil() && n.NamedChildCount() > 0 {
		operand = n.NamedChild(n.NamedChildCount() - 1)
	}
	operandType, fail := inf.InferExpr(operand)
	if fail.Recoverable() {
		return types.Unknown, fail
	}
	operandType = types.First(operandType)

	switch opText {
	case "not":
		return types.Boolean, InferFailReason{}
	case "-":
		if c, ok := operandType.(types.IntegerConst); ok {
			return types.IntegerConst{Value: -c.Value}, InferFailReason{}
		}
		if c, ok := operandType.(types.FloatConst); ok {
			return types.FloatConst{Value: -c.Value}, InferFailReason{}
		}
		if w := types.Widen(operandType); w == types.Integer || w == types.Number {
			return w, InferFailReason{}
		}
		return inf.lookupUnaryMeta(operandType, ids.MetaUnm)
	case "#":
		return types.Integer, InferFailReason{}
	case "~":
		return types.Integer, InferFailReason{}
	default:
		return types.Unknown, InferFailReason{}
	}
}

func (inf *Inferer) lookupUnaryMeta(operand types.Type, method ids.MetaMethod) (types.Type, InferFailReason) {
	owner, ok := ownerOfType(operand)
	if !ok {
		return types.Unknown, InferFailReason{}
	}
	opOwner, ok := operatorOwnerFor(owner)
	if !ok {
		return types.Unknown, InferFailReason{}
	}
	for _, op := range inf.db.Operator.Lookup(opOwner, method) {
		if t, ok := parseOperatorType(op.Result, inf.interner); ok {
			return t, InferFailReason{}
		}
	}
	return types.Unknown, InferFailReason{}
}

func (inf *Inferer) inferBinary(n *syntax.Node) (types.Type, InferFailReason) {
	left := n.ChildByFieldName(syntax.FieldLeft)
	right := n.ChildByFieldName(syntax.FieldRight)
	opText := n.ChildByFieldName(syntax.FieldOperator).Text()

	lt, fail := inf.InferExpr(left)
	if fail.Recoverable() {
		return types.Unknown, fail
	}
	rt, fail := inf.InferExpr(right)
	if fail.Recoverable() {
		return types.Unknown, fail
	}
	lt, rt = types.First(lt), types.First(rt)

	switch opText {
	case "and":
		if isFalsyType(lt) {
			return lt, InferFailReason{}
		}
		return types.NewUnion(stripNilArms(lt)...), InferFailReason{}
	case "or":
		return types.NewUnion(append(stripNilArms(lt), rt)...), InferFailReason{}
	case "==", "~=":
		return types.Boolean, InferFailReason{}
	case "<", "<=", ">", ">=":
		return inf.inferComparison(lt, rt, opText)
	case "..":
		return inf.inferConcat(lt, rt)
	}

	if v, ok := foldArith(opText, lt, rt); ok {
		return v, InferFailReason{}
	}
	method, ok := metaByBinaryOp[opText]
	if !ok {
		return types.Unknown, InferFailReason{}
	}
	if t, fail := inf.lookupBinaryMeta(lt, rt, method); t != types.Unknown || fail.Recoverable() {
		return t, fail
	}
	return types.Number, InferFailReason{}
}

func isFalsyType(t types.Type) bool {
	return t == types.Nil || t == types.BooleanConst{Value: false}
}

func stripNilArms(t types.Type) []types.Type {
	arms := types.FlattenUnion(t)
	out := make([]types.Type, 0, len(arms))
	for _, a := range arms {
		if a != types.Nil {
			out = append(out, a)
		}
	}
	return out
}

func (inf *Inferer) inferComparison(lt, rt types.Type, op string) (types.Type, InferFailReason) {
	if equalOrWiden(inf.db, lt, rt) || equalOrWiden(inf.db, rt, lt) {
		return types.Boolean, InferFailReason{}
	}
	method := ids.MetaLt
	if op == "<=" || op == ">=" {
		method = ids.MetaLe
	}
	if _, fail := inf.lookupBinaryMeta(lt, rt, method); fail.Recoverable() {
		return types.Unknown, fail
	}
	return types.Boolean, InferFailReason{}
}

func (inf *Inferer) inferConcat(lt, rt types.Type) (types.Type, InferFailReason) {
	if isConcatable(lt) && isConcatable(rt) {
		return types.String, InferFailReason{}
	}
	if t, fail := inf.lookupBinaryMeta(lt, rt, ids.MetaConcat); t != types.Unknown || fail.Recoverable() {
		return t, fail
	}
	return types.String, InferFailReason{}
}

// isConcatable widens isStringLike with Lua's `..` number coercion: any
// numeric operand is implicitly tostring'd, so `1 .. "x"` and `1 .. 2`
// both type as string rather than falling through to the __concat
// metamethod lookup.
func isConcatable(t types.Type) bool {
	return isStringLike(t) || isNumericType(t)
}

// foldArith constant-folds +, - and * when both operands are numeric
// constants (an IntegerConst when both are integers, else a FloatConst);
// for any other pair of numeric operands it
// returns Integer (+, -, * on two plain Integers) or Number (everything
// else, `/` and `^` included). Only a non-numeric operand returns
// ok=false so the caller falls back to the metamethod/default-Number path.
func foldArith(op string, lt, rt types.Type) (types.Type, bool) {
	li, lok := constInt(lt)
	ri, rok := constInt(rt)
	if lok && rok {
		switch op {
		case "+":
			return types.IntegerConst{Value: li + ri}, true
		case "-":
			return types.IntegerConst{Value: li - ri}, true
		case "*":
			return types.IntegerConst{Value: li * ri}, true
		}
	}
	lf, lfok := constFloat(lt)
	rf, rfok := constFloat(rt)
	if lfok && rfok {
		switch op {
		case "+":
			return types.FloatConst{Value: lf + rf}, true
		case "-":
			return types.FloatConst{Value: lf - rf}, true
		case "*":
			return types.FloatConst{Value: lf * rf}, true
		case "/", "^":
			return types.Number, true
		}
	}
	if op == "/" || op == "^" {
		if isNumericType(lt) && isNumericType(rt) {
			return types.Number, true
		}
	}
	if isNumericType(lt) && isNumericType(rt) {
		if lt == types.Integer && rt == types.Integer && (op == "+" || op == "-" || op == "*") {
			return types.Integer, true
		}
		return types.Number, true
	}
	return nil, false
}

func constInt(t types.Type) (int64, bool) {
	if c, ok := t.(types.IntegerConst); ok {
		return c.Value, true
	}
	return 0, false
}

func constFloat(t types.Type) (float64, bool) {
	switch c := t.(type) {
	case types.FloatConst:
		return c.Value, true
	case types.IntegerConst:
		return float64(c.Value), true
	}
	return 0, false
}

func isNumericType(t types.Type) bool {
	switch t.(type) {
	case types.IntegerConst, types.FloatConst:
		return true
	}
	return t == types.Integer || t == types.Number
}

func (inf *Inferer) lookupBinaryMeta(lt, rt types.Type, method ids.MetaMethod) (types.Type, InferFailReason) {
	for _, side := range [2]types.Type{lt, rt} {
		owner, ok := ownerOfType(side)
		if !ok {
			continue
		}
		opOwner, ok := operatorOwnerFor(owner)
		if !ok {
			continue
		}
		for _, op := range inf.db.Operator.Lookup(opOwner, method) {
			if t, ok := parseOperatorType(op.Result, inf.interner); ok {
				return t, InferFailReason{}
			}
		}
	}
	return types.Unknown, InferFailReason{}
}

func (inf *Inferer) inferCallExpr(n *syntax.Node) (types.Type, InferFailReason) {
	calleeNode := n.ChildByFieldName(syntax.FieldName)
	var argsNode *syntax.Node
	for i := 0; i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c.Type() == syntax.NodeArguments {
			argsNode = c
			continue
		}
		if calleeNode.IsNil() {
			calleeNode = c
		}
	}
	if calleeNode.IsNil() {
		return types.Unknown, InferFailReason{}
	}

	colonCall := calleeNode.Type() == syntax.NodeMethodIndex
	calleeType, fail := inf.InferExpr(calleeNode)
	if fail.Recoverable() {
		return types.Unknown, fail
	}

	calleeName := ""
	if calleeNode.Type() == syntax.NodeIdentifier {
		calleeName = calleeNode.Text()
	}

	var args []CallArg
	if argsNode != nil && !argsNode.IsNil() {
		for i := 0; i < argsNode.NamedChildCount(); i++ {
			argNode := argsNode.NamedChild(i)
			at, afail := inf.InferExpr(argNode)
			if afail.Recoverable() {
				return types.Unknown, afail
			}
			arg := CallArg{Type: types.First(at)}
			if argNode.Type() == syntax.NodeFunctionDef {
				sig := ids.SignatureId{File: inf.file, Pos: argNode.Pos()}
				arg.Signature = &sig
			}
			args = append(args, arg)
		}
	}

	site := CallSite{
		Callee: types.First(calleeType), CalleeName: calleeName,
		ColonCall: colonCall, Args: args, Range: n.SyntaxRange(),
	}
	return InferCall(inf.db, inf.interner, inf.guard, site)
}

func (inf *Inferer) inferTable(n *syntax.Node) (types.Type, InferFailReason) {
	ref := n.SyntaxRange()
	arrayIdx := int64(1)
	for i := 0; i < n.NamedChildCount(); i++ {
		field := n.NamedChild(i)
		if field.Type() != syntax.NodeField {
			continue
		}
		name := field.ChildByFieldName(syntax.FieldName)
		value := field.ChildByFieldName(syntax.FieldValue)
		if value.IsNil() && field.NamedChildCount() > 0 {
			value = field.NamedChild(field.NamedChildCount() - 1)
		}
		valueType, fail := inf.InferExpr(value)
		if fail.Recoverable() {
			valueType = types.Unknown
		}
		valueType = types.First(valueType)

		var key ids.MemberKey
		switch {
		case !name.IsNil() && name.Type() == syntax.NodeIdentifier:
			key = ids.NameKey(inf.interner.Intern(name.Text()))
		case !name.IsNil() && name.Type() == syntax.NodeString:
			key = ids.NameKey(inf.interner.Intern(unquoteLuaString(name.Text())))
		default:
			key = ids.IntKey(arrayIdx)
			arrayIdx++
		}
		inf.db.Member.Insert(&dbindex.Member{
			ID:    ids.MemberId{File: inf.file, Node: field.Pos()},
			Owner: ids.ElementOwner(ref),
			Key:   key,
			Type:  valueType,
			Range: field.Range(),
		})
	}
	return types.TableConst{Range: ref}, InferFailReason{}
}

// ownerOfType and operatorOwnerFor are shared with member.go's by-key
// lookup layer (same owner-resolution rules apply to the by-operator
// unary/binary metamethod lookups above).
