package syntax

// Node type constants for the tree-sitter Lua grammar bundled with
// github.com/smacker/go-tree-sitter/lua. Centralizing them here means a
// grammar version bump only touches one file; every caller in
// internal/analyzer refers to these constants rather than string literals.
const (
	NodeChunk       = "chunk"
	NodeBlock       = "block"
	NodeComment     = "comment"
	NodeIdentifier  = "identifier"
	NodeVarargExpr  = "vararg_expression"

	NodeLocalVarDecl = "local_variable_declaration"
	NodeVariableList = "variable_list"
	NodeAttribute    = "attribute" // <const>, <close>

	NodeAssignment     = "assignment_statement"
	NodeFunctionDecl   = "function_declaration"
	NodeLocalFunction  = "local_function"
	NodeFunctionName   = "function_name"
	NodeMethodIndex    = "method_index_expression"
	NodeDotIndex       = "dot_index_expression"
	NodeBracketIndex   = "bracket_index_expression"
	NodeParameters     = "parameters"
	NodeSelf           = "self"

	NodeForNumeric = "for_numeric_statement"
	NodeForGeneric = "for_generic_statement"
	NodeExprList   = "expression_list"
	NodeNameList   = "name_list"
	NodeLoopVars   = "loop_variables"

	NodeIfStatement   = "if_statement"
	NodeElseifClause  = "elseif"
	NodeElseClause    = "else"
	NodeWhileStatement = "while_statement"
	NodeRepeatStatement = "repeat_statement"

	NodeFunctionCall = "function_call"
	NodeArguments    = "arguments"
	NodeBinaryExpr   = "binary_expression"
	NodeUnaryExpr    = "unary_expression"
	NodeParenExpr    = "parenthesized_expression"
	NodeTableCtor    = "table_constructor"
	NodeField        = "field"
	NodeFunctionDef  = "function_definition" // anonymous closure literal

	NodeReturnStatement = "return_statement"

	NodeString  = "string"
	NodeNumber  = "number"
	NodeTrue    = "true"
	NodeFalse   = "false"
	NodeNil     = "nil"
)

// FieldName is the list of `ChildByFieldName` keys this grammar exposes on
// the node kinds above.
const (
	FieldName       = "name"
	FieldValue      = "value"
	FieldLeft       = "left"
	FieldRight      = "right"
	FieldOperator   = "operator"
	FieldCondition  = "condition"
	FieldParameters = "parameters"
	FieldBody       = "body"
)
