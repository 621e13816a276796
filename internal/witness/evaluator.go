package witness

import (
	"errors"
	"fmt"

	"github.com/sunholo/ailang/internal/analyzer"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

// errUndef signals that evaluation reached a variable with no
// recorded value at the queried step (spec.md §4.9's failure policy).
var errUndef = errors.New("witness: value is undefined at this step")

// Evaluator recursively evaluates an arbitrary expression — a
// property, a define's body, a dump-trace query — against a built
// Witness, inlining defines and following NEXT by stepping time
// forward. Grounded on original_source/src/witness/evaluator.cc's
// expression walker (preorder/inorder/postorder per operator).
type Evaluator struct {
	Witness  *Witness
	Resolver *symtab.ResolverProxy
	Analyzer *analyzer.Analyzer
	Pool     *expr.Pool
}

// NewEvaluator builds an Evaluator bound to w.
func NewEvaluator(w *Witness, r *symtab.ResolverProxy, an *analyzer.Analyzer, ep *expr.Pool) *Evaluator {
	return &Evaluator{Witness: w, Resolver: r, Analyzer: an, Pool: ep}
}

// Eval evaluates body in ctx at step, returning the distinguished
// TagUndef expression if evaluation reaches a variable with no
// recorded value rather than failing outright — only a genuine
// resolution or type error is returned as err.
func (ev *Evaluator) Eval(ctx *symtab.Context, body *expr.Expr, step int) (*expr.Expr, error) {
	typ, err := ev.Analyzer.Infer(ctx, body)
	if err != nil {
		return nil, err
	}
	v, err := ev.evalNode(ctx, body, step)
	if err != nil {
		if errors.Is(err, errUndef) {
			return ev.Pool.MakeLeaf(expr.TagUndef), nil
		}
		return nil, err
	}
	return fromValue(ev.Pool, typ, v), nil
}

func (ev *Evaluator) evalNode(ctx *symtab.Context, e *expr.Expr, step int) (int64, error) {
	switch e.Tag() {
	case expr.TagConst:
		return e.Const().Value, nil

	case expr.TagUndef:
		return 0, errUndef

	case expr.TagNext:
		return ev.evalNode(ctx, e.LHS(), step+1)

	case expr.TagIdent, expr.TagDot:
		return ev.evalSymbol(ctx, e, step)

	case expr.TagNeg:
		v, err := ev.evalNode(ctx, e.LHS(), step)
		return -v, err

	case expr.TagNot:
		v, err := ev.evalNode(ctx, e.LHS(), step)
		if err != nil {
			return 0, err
		}
		return boolToInt(v == 0), nil

	case expr.TagBWNot:
		v, err := ev.evalNode(ctx, e.LHS(), step)
		return ^v, err

	case expr.TagITE:
		cond, err := ev.evalNode(ctx, e.LHS(), step)
		if err != nil {
			return 0, err
		}
		branches := e.RHS()
		if cond != 0 {
			return ev.evalNode(ctx, branches.LHS(), step)
		}
		return ev.evalNode(ctx, branches.RHS(), step)

	case expr.TagPlus, expr.TagSub, expr.TagMul, expr.TagDiv, expr.TagMod,
		expr.TagBWAnd, expr.TagBWOr, expr.TagBWXor, expr.TagBWXnor,
		expr.TagAnd, expr.TagOr, expr.TagImplies, expr.TagIff,
		expr.TagLShift, expr.TagRShift,
		expr.TagEQ, expr.TagNE, expr.TagGT, expr.TagGE, expr.TagLT, expr.TagLE:

		lhs, err := ev.evalNode(ctx, e.LHS(), step)
		if err != nil {
			return 0, err
		}
		rhs, err := ev.evalNode(ctx, e.RHS(), step)
		if err != nil {
			return 0, err
		}
		return evalBinary(e.Tag(), lhs, rhs), nil

	default:
		return 0, fmt.Errorf("witness: evaluator does not support %v nodes", e.Tag())
	}
}

func (ev *Evaluator) evalSymbol(ctx *symtab.Context, e *expr.Expr, step int) (int64, error) {
	var (
		sym *symtab.Symbol
		err error
	)
	if e.Tag() == expr.TagDot {
		sym, _, err = ev.Resolver.ResolveDot(ctx, e)
	} else {
		sym, _, err = ev.Resolver.Resolve(ctx, e.Atom())
	}
	if err != nil {
		return 0, err
	}

	switch sym.Kind {
	case symtab.KindVariable:
		val := ev.Witness.ValueAt(ev.Pool, sym.QualifiedName(), step)
		if val.Tag() == expr.TagUndef {
			return 0, errUndef
		}
		return valueFromExpr(val, sym.Type)

	case symtab.KindDefine:
		if len(sym.Formals) > 0 {
			return 0, fmt.Errorf("witness: parameterized define %q is not supported", sym.Name)
		}
		return ev.evalNode(ctx, sym.Body, step)

	case symtab.KindConstant:
		return ev.evalNode(ctx, sym.Value, step)

	case symtab.KindLiteral:
		code, ok := sym.Type.LiteralCode(sym.Name)
		if !ok {
			return 0, fmt.Errorf("witness: %q is not a literal of its own enum type", sym.Name)
		}
		return int64(code), nil

	case symtab.KindParameter:
		outerCtx, actual, err := ev.Resolver.RewriteParameter(sym)
		if err != nil {
			return 0, err
		}
		return ev.evalNode(outerCtx, actual, step)

	default:
		return 0, fmt.Errorf("witness: unsupported symbol kind for %q", sym.Name)
	}
}

func evalBinary(tag expr.Tag, l, r int64) int64 {
	switch tag {
	case expr.TagPlus:
		return l + r
	case expr.TagSub:
		return l - r
	case expr.TagMul:
		return l * r
	case expr.TagDiv:
		if r == 0 {
			return 0
		}
		return l / r
	case expr.TagMod:
		if r == 0 {
			return 0
		}
		return l % r
	case expr.TagBWAnd:
		return l & r
	case expr.TagBWOr:
		return l | r
	case expr.TagBWXor:
		return l ^ r
	case expr.TagBWXnor:
		return ^(l ^ r)
	case expr.TagAnd:
		return boolToInt(l != 0 && r != 0)
	case expr.TagOr:
		return boolToInt(l != 0 || r != 0)
	case expr.TagImplies:
		return boolToInt(l == 0 || r != 0)
	case expr.TagIff:
		return boolToInt((l != 0) == (r != 0))
	case expr.TagLShift:
		return l << uint(r)
	case expr.TagRShift:
		return l >> uint(r)
	case expr.TagEQ:
		return boolToInt(l == r)
	case expr.TagNE:
		return boolToInt(l != r)
	case expr.TagGT:
		return boolToInt(l > r)
	case expr.TagGE:
		return boolToInt(l >= r)
	case expr.TagLT:
		return boolToInt(l < r)
	case expr.TagLE:
		return boolToInt(l <= r)
	default:
		return 0
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// valueFromExpr extracts a raw evaluator value out of a witness-stored
// Expr (always either a TagConst or, for enums, a TagIdent literal).
func valueFromExpr(v *expr.Expr, t *types.Type) (int64, error) {
	switch v.Tag() {
	case expr.TagConst:
		return v.Const().Value, nil
	case expr.TagIdent:
		if t.Kind() == types.KindEnum {
			if code, ok := t.LiteralCode(v.Atom()); ok {
				return int64(code), nil
			}
		}
	}
	return 0, fmt.Errorf("witness: cannot use %v as an evaluator value", v.Tag())
}

// fromValue wraps a raw evaluator result back into a typed Expr, the
// same promotion original_source's Evaluator::process does at its
// single exit point (boolean/enum/algebraic).
func fromValue(ep *expr.Pool, t *types.Type, v int64) *expr.Expr {
	switch t.Kind() {
	case types.KindBoolean:
		b := int64(0)
		if v != 0 {
			b = 1
		}
		return ep.MakeConst(expr.Const{Value: b, Width: 1})

	case types.KindEnum:
		lits := t.Literals()
		idx := int(v)
		if idx >= 0 && idx < len(lits) {
			return ep.MakeIdent(lits[idx])
		}
		return ep.MakeLeaf(expr.TagUndef)

	default:
		return ep.MakeConst(expr.Const{Value: v, Width: uint8(t.Width())})
	}
}
