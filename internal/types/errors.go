package types

import (
	"fmt"

	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
)

// CheckError is a type-checking failure with the offending node attached,
// per spec.md §4.2: "All are raised with the offending AST node attached."
type CheckError struct {
	Code *diag.Code
	Node *expr.Expr
	Msg  string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Code.Name, e.Msg, e.Node)
}

func badType(node *expr.Expr, format string, args ...interface{}) error {
	return &CheckError{Code: diag.CodeTypBadType, Node: node, Msg: fmt.Sprintf(format, args...)}
}

func typeMismatch(node *expr.Expr, want, got *Type) error {
	return &CheckError{Code: diag.CodeTypMismatch, Node: node, Msg: fmt.Sprintf("expected %s, got %s", want, got)}
}

func identifierExpected(node *expr.Expr) error {
	return &CheckError{Code: diag.CodeTypIdentExpect, Node: node, Msg: "identifier expected"}
}
