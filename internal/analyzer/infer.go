// Package analyzer implements the semantic validation and type
// inference pass that runs over an Expr in a given module context
// before compilation, per spec.md §4.2 and §4.3.
package analyzer

import (
	"fmt"

	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

// Analyzer ties together the type registry and the symbol resolver to
// type-check expressions in a module context.
type Analyzer struct {
	Types    *types.Mgr
	Resolver *symtab.ResolverProxy
}

func New(tm *types.Mgr, r *symtab.ResolverProxy) *Analyzer {
	return &Analyzer{Types: tm, Resolver: r}
}

// CheckError pairs a diag.Code with the offending node, per spec.md
// §4.2: "All are raised with the offending AST node attached."
type CheckError struct {
	Code *diag.Code
	Node *expr.Expr
	Msg  string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Code.Name, e.Msg, e.Node)
}

func errAt(code *diag.Code, node *expr.Expr, format string, args ...interface{}) error {
	return &CheckError{Code: code, Node: node, Msg: fmt.Sprintf(format, args...)}
}

// Infer computes the type of e in module context ctx, applying the
// inference rules of spec.md §4.2. NEXT is transparent to typing (it
// only matters to the compiler's time bookkeeping).
func (a *Analyzer) Infer(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	switch e.Tag() {
	case expr.TagConst:
		c := e.Const()
		if c.Radix == expr.RadixBoolean {
			return a.Types.Boolean(), nil
		}
		if c.Width > 0 {
			return a.Types.FindUnsigned(uint(c.Width)), nil
		}
		return a.Types.IntConst(), nil

	case expr.TagUndef:
		return a.Types.IntConst(), nil

	case expr.TagIdent:
		sym, _, err := a.Resolver.Resolve(ctx, e.Atom())
		if err != nil {
			return nil, err
		}
		return a.symbolType(ctx, sym)

	case expr.TagDot:
		sym, _, err := a.Resolver.ResolveDot(ctx, e)
		if err != nil {
			return nil, err
		}
		return a.symbolType(ctx, sym)

	case expr.TagNext:
		return a.Infer(ctx, e.LHS())

	case expr.TagNeg:
		t, err := a.Infer(ctx, e.LHS())
		if err != nil {
			return nil, err
		}
		if !t.IsAlgebraic() {
			return nil, errAt(diag.CodeTypBadType, e, "NEG requires an algebraic operand, got %s", t)
		}
		return t, nil

	case expr.TagPlus, expr.TagSub, expr.TagMul, expr.TagDiv, expr.TagMod:
		return a.inferArith(ctx, e)

	case expr.TagBWNot:
		t, err := a.Infer(ctx, e.LHS())
		if err != nil {
			return nil, err
		}
		if !t.IsAlgebraic() {
			return nil, errAt(diag.CodeTypBadType, e, "bitwise NOT requires an algebraic operand, got %s", t)
		}
		return t, nil

	case expr.TagBWAnd, expr.TagBWOr, expr.TagBWXor, expr.TagBWXnor,
		expr.TagLShift, expr.TagRShift:
		return a.inferBitwiseOrShift(ctx, e)

	case expr.TagNot:
		return a.expectBoolean(ctx, e.LHS(), e)

	case expr.TagAnd, expr.TagOr, expr.TagImplies, expr.TagIff:
		if _, err := a.expectBoolean(ctx, e.LHS(), e); err != nil {
			return nil, err
		}
		if _, err := a.expectBoolean(ctx, e.RHS(), e); err != nil {
			return nil, err
		}
		return a.Types.Boolean(), nil

	case expr.TagEQ, expr.TagNE:
		return a.inferEquality(ctx, e)

	case expr.TagGT, expr.TagGE, expr.TagLT, expr.TagLE:
		if err := a.requireEqualAlgebraic(ctx, e); err != nil {
			return nil, err
		}
		return a.Types.Boolean(), nil

	case expr.TagITE:
		return a.inferITE(ctx, e)

	case expr.TagSubscr:
		return a.inferSubscript(ctx, e)

	case expr.TagCast:
		return a.inferCast(ctx, e)

	case expr.TagF, expr.TagG, expr.TagX:
		_, err := a.expectBoolean(ctx, e.LHS(), e)
		return a.Types.Boolean(), err

	case expr.TagU, expr.TagR:
		if _, err := a.expectBoolean(ctx, e.LHS(), e); err != nil {
			return nil, err
		}
		if _, err := a.expectBoolean(ctx, e.RHS(), e); err != nil {
			return nil, err
		}
		return a.Types.Boolean(), nil

	case expr.TagSet, expr.TagComma:
		// Non-deterministic set: both branches must agree in type; the
		// compiler resolves the choice with a fresh determinization bit.
		lt, err := a.Infer(ctx, e.LHS())
		if err != nil {
			return nil, err
		}
		rt, err := a.Infer(ctx, e.RHS())
		if err != nil {
			return nil, err
		}
		if lt != rt {
			if lt == a.Types.IntConst() && rt.IsAlgebraic() {
				return rt, nil
			}
			if rt == a.Types.IntConst() && lt.IsAlgebraic() {
				return lt, nil
			}
			return nil, errAt(diag.CodeTypMismatch, e, "set members must have the same type, got %s and %s", lt, rt)
		}
		return lt, nil

	default:
		return nil, errAt(diag.CodeTypBadType, e, "unsupported expression tag in analyzer")
	}
}

func (a *Analyzer) symbolType(ctx *symtab.Context, sym *symtab.Symbol) (*types.Type, error) {
	if sym.Kind == symtab.KindParameter {
		outerCtx, actual, err := a.Resolver.RewriteParameter(sym)
		if err != nil {
			return nil, err
		}
		return a.Infer(outerCtx, actual)
	}
	if sym.Kind == symtab.KindDefine {
		return a.Infer(ctx, sym.Body)
	}
	return sym.Type, nil
}

func (a *Analyzer) expectBoolean(ctx *symtab.Context, operand, reportNode *expr.Expr) (*types.Type, error) {
	t, err := a.Infer(ctx, operand)
	if err != nil {
		return nil, err
	}
	if t != a.Types.Boolean() {
		return nil, errAt(diag.CodeTypMismatch, reportNode, "expected boolean, got %s", t)
	}
	return t, nil
}

// inferArith implements spec.md §4.2 "Arithmetic +,-,·,/,%": both
// sides algebraic of equal type; IntConst promotes to the other
// side's width.
func (a *Analyzer) inferArith(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	lt, err := a.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	rt, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	return a.unifyAlgebraic(e, lt, rt)
}

func (a *Analyzer) inferBitwiseOrShift(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	lt, err := a.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	rt, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	if !lt.IsAlgebraic() || !rt.IsAlgebraic() {
		return nil, errAt(diag.CodeTypBadType, e, "bitwise/shift operators require algebraic operands, got %s and %s", lt, rt)
	}
	// Shift result type = lhs type (spec.md §4.2); bitwise requires equal width.
	if e.Tag() == expr.TagLShift || e.Tag() == expr.TagRShift {
		return lt, nil
	}
	resolved, err := a.unifyAlgebraic(e, lt, rt)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// unifyAlgebraic applies IntConst promotion and otherwise requires an
// exact type match.
func (a *Analyzer) unifyAlgebraic(e *expr.Expr, lt, rt *types.Type) (*types.Type, error) {
	intConst := a.Types.IntConst()
	switch {
	case lt == intConst && rt.IsAlgebraic():
		return rt, nil
	case rt == intConst && lt.IsAlgebraic():
		return lt, nil
	case lt.IsAlgebraic() && rt.IsAlgebraic() && lt == rt:
		return lt, nil
	default:
		return nil, errAt(diag.CodeTypMismatch, e, "operands must be algebraic of the same type, got %s and %s", lt, rt)
	}
}

// inferEquality implements spec.md §4.2 "Equality =,≠": both boolean,
// or both enum of the same type, or both algebraic of equal width.
func (a *Analyzer) inferEquality(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	lt, err := a.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	rt, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	boolean := a.Types.Boolean()
	switch {
	case lt == boolean && rt == boolean:
		return boolean, nil
	case lt.Kind() == types.KindEnum && rt.Kind() == types.KindEnum && lt == rt:
		return boolean, nil
	default:
		if _, err := a.unifyAlgebraic(e, lt, rt); err != nil {
			return nil, errAt(diag.CodeTypMismatch, e, "equality operands must be both boolean, both the same enum, or both algebraic of equal width (got %s and %s)", lt, rt)
		}
		return boolean, nil
	}
}

func (a *Analyzer) requireEqualAlgebraic(ctx *symtab.Context, e *expr.Expr) error {
	lt, err := a.Infer(ctx, e.LHS())
	if err != nil {
		return err
	}
	rt, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return err
	}
	_, err = a.unifyAlgebraic(e, lt, rt)
	return err
}

// inferITE implements spec.md §4.2 "ITE — condition boolean; branches
// same type; result that type."
func (a *Analyzer) inferITE(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	cond, then, els := expr.ITEBranches(e)
	if _, err := a.expectBoolean(ctx, cond, e); err != nil {
		return nil, err
	}
	tt, err := a.Infer(ctx, then)
	if err != nil {
		return nil, err
	}
	et, err := a.Infer(ctx, els)
	if err != nil {
		return nil, err
	}
	if tt == a.Types.IntConst() && et.IsAlgebraic() {
		return et, nil
	}
	if et == a.Types.IntConst() && tt.IsAlgebraic() {
		return tt, nil
	}
	if tt != et {
		return nil, errAt(diag.CodeTypMismatch, e, "ITE branches must have the same type, got %s and %s", tt, et)
	}
	return tt, nil
}

// inferSubscript implements spec.md §4.2 "Subscript — left is array,
// index is algebraic; result is the element type."
func (a *Analyzer) inferSubscript(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	lt, err := a.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	if lt.Kind() != types.KindArray {
		return nil, errAt(diag.CodeTypBadType, e, "subscript target must be an array, got %s", lt)
	}
	it, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	if !it.IsAlgebraic() && it != a.Types.IntConst() {
		return nil, errAt(diag.CodeTypBadType, e, "array index must be algebraic, got %s", it)
	}
	return lt.Elem(), nil
}

// inferCast implements spec.md §4.2 "Cast — only boolean↔algebraic
// and algebraic↔algebraic (width resize)." The target type is
// packed as e.LHS() (a TagTypeTag-carrying marker resolved by the
// caller into a concrete *types.Type via ResolveTypeTag).
func (a *Analyzer) inferCast(ctx *symtab.Context, e *expr.Expr) (*types.Type, error) {
	target, err := a.ResolveTypeTag(e.LHS())
	if err != nil {
		return nil, err
	}
	srcType, err := a.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	boolean := a.Types.Boolean()
	ok := (srcType == boolean && target.IsAlgebraic()) ||
		(srcType.IsAlgebraic() && target == boolean) ||
		(srcType.IsAlgebraic() && target.IsAlgebraic())
	if !ok {
		return nil, errAt(diag.CodeTypBadType, e, "unsupported cast from %s to %s", srcType, target)
	}
	return target, nil
}

// ResolveTypeTag turns a TagTypeTag leaf into a concrete *types.Type.
// Type tags are written as atoms of a small fixed vocabulary:
// "boolean", "unsigned[N]", "signed[N]".
func (a *Analyzer) ResolveTypeTag(e *expr.Expr) (*types.Type, error) {
	if e.Tag() != expr.TagTypeTag {
		return nil, errAt(diag.CodeTypBadType, e, "expected a type tag")
	}
	name := e.Atom().String()
	return ParseTypeTag(a.Types, name)
}

// ParseTypeTag parses the fixed type-tag vocabulary into a canonical Type.
func ParseTypeTag(tm *types.Mgr, name string) (*types.Type, error) {
	if name == "boolean" {
		return tm.Boolean(), nil
	}
	var width uint
	var signed bool
	if n, err := fmt.Sscanf(name, "unsigned[%d]", &width); err == nil && n == 1 {
		signed = false
	} else if n, err := fmt.Sscanf(name, "signed[%d]", &width); err == nil && n == 1 {
		signed = true
	} else {
		return nil, fmt.Errorf("analyzer: unrecognized type tag %q", name)
	}
	if signed {
		return tm.FindSigned(width), nil
	}
	return tm.FindUnsigned(width), nil
}
