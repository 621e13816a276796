package compiler

import (
	"fmt"

	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

func bitsFromInt64(ddm *dd.Mgr, value int64, width int) []*dd.Node {
	if width <= 0 {
		width = 1
	}
	bits := make([]*dd.Node, width)
	for i := 0; i < width; i++ {
		if (value>>uint(i))&1 != 0 {
			bits[i] = ddm.One()
		} else {
			bits[i] = ddm.Zero()
		}
	}
	return bits
}

func zeroBits(ddm *dd.Mgr, width int) []*dd.Node {
	bits := make([]*dd.Node, width)
	for i := range bits {
		bits[i] = ddm.Zero()
	}
	return bits
}

func (c *Compiler) compileConst(e *expr.Expr, typ *types.Type) []*dd.Node {
	v := e.Const()
	if typ == c.Types.Boolean() {
		if v.Value != 0 {
			return []*dd.Node{c.DD.One()}
		}
		return []*dd.Node{c.DD.Zero()}
	}
	width := int(typ.Width())
	if width == 0 {
		width = 64
	}
	return bitsFromInt64(c.DD, v.Value, width)
}

// errorBits is the distinguished UNDEF bit pattern for typ: the
// all-zero encoding, since spec.md leaves the bit pattern of an
// undefined value unspecified and only its propagation through
// cone-of-influence analysis (internal/witness) observable.
func (c *Compiler) errorBits(typ *types.Type, time int) []*dd.Node {
	width := int(typ.Width())
	if width == 0 {
		width = 1
	}
	return zeroBits(c.DD, width)
}

func (c *Compiler) iteVec(cond *dd.Node, then, els []*dd.Node) []*dd.Node {
	out := make([]*dd.Node, len(then))
	for i := range then {
		out[i] = c.DD.Ite(cond, then[i], els[i])
	}
	return out
}

// boolOperand compiles e and requires a single-bit boolean result.
func (c *Compiler) boolOperand(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) (*dd.Node, error) {
	typ, err := c.Analyzer.Infer(ctx, e)
	if err != nil {
		return nil, err
	}
	bits, err := c.walk(ctx, time, e, typ, ws, false)
	if err != nil {
		return nil, err
	}
	return bits[0], nil
}

// algOperand compiles e, returning its bit vector and inferred type.
func (c *Compiler) algOperand(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	typ, err := c.Analyzer.Infer(ctx, e)
	if err != nil {
		return nil, err
	}
	return c.walk(ctx, time, e, typ, ws, false)
}

func (c *Compiler) compileLogical(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	a, err := c.boolOperand(ctx, time, e.LHS(), ws)
	if err != nil {
		return nil, err
	}
	b, err := c.boolOperand(ctx, time, e.RHS(), ws)
	if err != nil {
		return nil, err
	}
	switch e.Tag() {
	case expr.TagAnd:
		return []*dd.Node{c.DD.And(a, b)}, nil
	case expr.TagOr:
		return []*dd.Node{c.DD.Or(a, b)}, nil
	case expr.TagImplies:
		return []*dd.Node{c.DD.Implies(a, b)}, nil
	case expr.TagIff:
		return []*dd.Node{c.DD.Xnor(a, b)}, nil
	default:
		return nil, fmt.Errorf("compiler: unreachable logical tag %s", e)
	}
}

func (c *Compiler) compileAddSub(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	a, err := c.walk(ctx, time, e.LHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	b, err := c.walk(ctx, time, e.RHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	if e.Tag() == expr.TagPlus {
		return c.DD.Plus(a, b), nil
	}
	return c.DD.Minus(a, b), nil
}

func (c *Compiler) compileRelational(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	lt, err := c.Analyzer.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	a, err := c.walk(ctx, time, e.LHS(), lt, ws, false)
	if err != nil {
		return nil, err
	}
	b, err := c.walk(ctx, time, e.RHS(), lt, ws, false)
	if err != nil {
		return nil, err
	}
	signed := lt.IsAlgebraic() && lt.Signed()

	switch e.Tag() {
	case expr.TagEQ:
		return []*dd.Node{c.DD.Equals(a, b)}, nil
	case expr.TagNE:
		return []*dd.Node{c.DD.Not(c.DD.Equals(a, b))}, nil
	case expr.TagLT:
		if signed {
			return []*dd.Node{c.DD.SignedLT(a, b)}, nil
		}
		return []*dd.Node{c.DD.LT(a, b)}, nil
	case expr.TagLE:
		if signed {
			return []*dd.Node{c.DD.SignedLEQ(a, b)}, nil
		}
		return []*dd.Node{c.DD.LEQ(a, b)}, nil
	case expr.TagGT:
		if signed {
			return []*dd.Node{c.DD.Not(c.DD.SignedLEQ(a, b))}, nil
		}
		return []*dd.Node{c.DD.Not(c.DD.LEQ(a, b))}, nil
	case expr.TagGE:
		if signed {
			return []*dd.Node{c.DD.Not(c.DD.SignedLT(a, b))}, nil
		}
		return []*dd.Node{c.DD.Not(c.DD.LT(a, b))}, nil
	default:
		return nil, fmt.Errorf("compiler: unreachable relational tag %s", e)
	}
}

func (c *Compiler) compileInlinedArith(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	a, err := c.walk(ctx, time, e.LHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	b, err := c.walk(ctx, time, e.RHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	width := int(typ.Width())
	signed := typ.Signed()

	if e.Tag() == expr.TagMul {
		sig := microcode.Signature{Op: "mul", Width: width, Signed: signed}
		res := c.freshAnon("#mul", time, width)
		ws.inlined = append(ws.inlined, &InlinedOperatorDescriptor{Sig: sig, A: a, B: b, ResultBits: res})
		return res, nil
	}

	wantRemainder := e.Tag() == expr.TagMod
	opName := "div"
	if wantRemainder {
		opName = "mod"
	}
	if !signed {
		sig := microcode.Signature{Op: opName, Width: width, Signed: false}
		res := c.freshAnon("#"+opName, time, width)
		ws.inlined = append(ws.inlined, &InlinedOperatorDescriptor{Sig: sig, A: a, B: b, ResultBits: res})
		return res, nil
	}

	signA, signB := a[width-1], b[width-1]
	absA := c.iteVec(signA, c.DD.Negate(a), a)
	absB := c.iteVec(signB, c.DD.Negate(b), b)
	sig := microcode.Signature{Op: opName, Width: width, Signed: false}
	mag := c.freshAnon("#"+opName, time, width)
	ws.inlined = append(ws.inlined, &InlinedOperatorDescriptor{Sig: sig, A: absA, B: absB, ResultBits: mag})

	if wantRemainder {
		return c.iteVec(signA, c.DD.Negate(mag), mag), nil
	}
	quotientSign := c.DD.Xor(signA, signB)
	return c.iteVec(quotientSign, c.DD.Negate(mag), mag), nil
}

func (c *Compiler) compileBitwise(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	a, err := c.walk(ctx, time, e.LHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	b, err := c.walk(ctx, time, e.RHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	width := int(typ.Width())

	var op string
	switch e.Tag() {
	case expr.TagBWAnd:
		op = "bwand"
	case expr.TagBWOr:
		op = "bwor"
	case expr.TagBWXor:
		op = "bwxor"
	case expr.TagBWXnor:
		op = "bwxnor"
	default:
		return nil, fmt.Errorf("compiler: unreachable bitwise tag %s", e)
	}
	sig := microcode.Signature{Op: op, Width: width}
	res := c.freshAnon("#"+op, time, width)
	ws.inlined = append(ws.inlined, &InlinedOperatorDescriptor{Sig: sig, A: a, B: b, ResultBits: res})
	return res, nil
}

func (c *Compiler) compileShift(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	x, err := c.walk(ctx, time, e.LHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	width := int(typ.Width())
	signed := typ.Signed()
	left := e.Tag() == expr.TagLShift

	if e.RHS().Tag() == expr.TagConst {
		amount := int(e.RHS().Const().Value)
		if left {
			return c.DD.LShift(x, amount), nil
		}
		return c.DD.RShift(x, amount, signed), nil
	}

	amtTyp, err := c.Analyzer.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	amt, err := c.walk(ctx, time, e.RHS(), amtTyp, ws, false)
	if err != nil {
		return nil, err
	}

	op := "rshift"
	if left {
		op = "lshift"
	}
	sig := microcode.Signature{Op: op, Width: width, Signed: signed}
	res := c.freshAnon("#"+op, time, width)
	ws.inlined = append(ws.inlined, &InlinedOperatorDescriptor{Sig: sig, A: x, B: amt, ResultBits: res})
	return res, nil
}

func (c *Compiler) compileITE(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	cond, then, els := expr.ITEBranches(e)
	condBit, err := c.boolOperand(ctx, time, cond, ws)
	if err != nil {
		return nil, err
	}
	thenBits, err := c.walk(ctx, time, then, typ, ws, false)
	if err != nil {
		return nil, err
	}
	elsBits, err := c.walk(ctx, time, els, typ, ws, false)
	if err != nil {
		return nil, err
	}

	if typ == c.Types.Boolean() || typ.Kind() == types.KindEnum {
		return c.iteVec(condBit, thenBits, elsBits), nil
	}

	width := int(typ.Width())
	res := c.freshAnon("#ite", time, width)
	ws.binSel = append(ws.binSel, &BinarySelectionDescriptor{Cond: condBit, ThenBits: thenBits, ElseBits: elsBits, ResultBits: res})
	return res, nil
}

func (c *Compiler) compileSubscript(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	arrType, err := c.Analyzer.Infer(ctx, e.LHS())
	if err != nil {
		return nil, err
	}
	arrBits, err := c.walk(ctx, time, e.LHS(), arrType, ws, false)
	if err != nil {
		return nil, err
	}
	elemWidth := int(arrType.Elem().Width())
	nelems := int(arrType.Length())

	if e.RHS().Tag() == expr.TagConst {
		idx := int(e.RHS().Const().Value)
		if idx < 0 || idx >= nelems {
			return c.errorBits(typ, time), nil
		}
		start := idx * elemWidth
		return arrBits[start : start+elemWidth], nil
	}

	idxTyp, err := c.Analyzer.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	idxBits, err := c.walk(ctx, time, e.RHS(), idxTyp, ws, false)
	if err != nil {
		return nil, err
	}
	res := c.freshAnon("#subscr", time, elemWidth)
	ws.multiSel = append(ws.multiSel, &MultiwaySelectionDescriptor{
		IndexBits: idxBits, ElemWidth: elemWidth, Nelems: nelems, ArrayBits: arrBits, ResultBits: res,
	})
	return res, nil
}

func (c *Compiler) compileCast(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	srcTyp, err := c.Analyzer.Infer(ctx, e.RHS())
	if err != nil {
		return nil, err
	}
	src, err := c.walk(ctx, time, e.RHS(), srcTyp, ws, false)
	if err != nil {
		return nil, err
	}

	boolean := c.Types.Boolean()
	switch {
	case srcTyp == boolean && typ.IsAlgebraic():
		width := int(typ.Width())
		out := make([]*dd.Node, width)
		out[0] = src[0]
		for i := 1; i < width; i++ {
			out[i] = c.DD.Zero()
		}
		return out, nil

	case srcTyp.IsAlgebraic() && typ == boolean:
		zero := zeroBits(c.DD, len(src))
		return []*dd.Node{c.DD.Not(c.DD.Equals(src, zero))}, nil

	case srcTyp.IsAlgebraic() && typ.IsAlgebraic():
		newWidth := int(typ.Width())
		if newWidth <= len(src) {
			return append([]*dd.Node(nil), src[:newWidth]...), nil
		}
		out := make([]*dd.Node, newWidth)
		copy(out, src)
		fill := c.DD.Zero()
		if srcTyp.Signed() {
			fill = src[len(src)-1]
		}
		for i := len(src); i < newWidth; i++ {
			out[i] = fill
		}
		return out, nil

	default:
		return nil, fmt.Errorf("compiler: unsupported cast from %s to %s", srcTyp, typ)
	}
}

func (c *Compiler) compileNonDet(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	a, err := c.walk(ctx, time, e.LHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	b, err := c.walk(ctx, time, e.RHS(), typ, ws, false)
	if err != nil {
		return nil, err
	}
	det := c.freshAnon("#det", time, 1)
	return c.iteVec(det[0], a, b), nil
}

func (c *Compiler) compileIdent(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	sym, _, err := c.Resolver.Resolve(ctx, e.Atom())
	if err != nil {
		return nil, err
	}
	return c.compileSymbol(ctx, time, sym, e, ws)
}

func (c *Compiler) compileDot(ctx *symtab.Context, time int, e *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	sym, innerCtx, err := c.Resolver.ResolveDot(ctx, e)
	if err != nil {
		return nil, err
	}
	return c.compileSymbol(innerCtx, time, sym, e, ws)
}

// varEncodingKey identifies one variable's bit vector at one absolute
// time: qname carries the full qualified name so distinct module
// instances (each its own *symtab.Module per spec.md's single-
// instantiation restriction) never collide.
type varEncodingKey struct {
	qname string
	time  int
}

func (c *Compiler) compileSymbol(ctx *symtab.Context, time int, sym *symtab.Symbol, reportNode *expr.Expr, ws *walkState) ([]*dd.Node, error) {
	switch sym.Kind {
	case symtab.KindParameter:
		outerCtx, actual, err := c.Resolver.RewriteParameter(sym)
		if err != nil {
			return nil, err
		}
		actualTyp, err := c.Analyzer.Infer(outerCtx, actual)
		if err != nil {
			return nil, err
		}
		return c.walk(outerCtx, time, actual, actualTyp, ws, false)

	case symtab.KindDefine:
		if len(sym.Formals) > 0 {
			return nil, fmt.Errorf("compiler: parameterized define %q is not supported", sym.Name)
		}
		bodyTyp, err := c.Analyzer.Infer(ctx, sym.Body)
		if err != nil {
			return nil, err
		}
		return c.walk(ctx, time, sym.Body, bodyTyp, ws, false)

	case symtab.KindConstant:
		cTyp, err := c.Analyzer.Infer(ctx, sym.Value)
		if err != nil {
			return nil, err
		}
		return c.walk(ctx, time, sym.Value, cTyp, ws, false)

	case symtab.KindLiteral:
		code, ok := sym.Type.LiteralCode(sym.Name)
		if !ok {
			return nil, fmt.Errorf("compiler: %q is not a literal of its own enum type", sym.Name)
		}
		return bitsFromInt64(c.DD, int64(code), int(sym.Type.Width())), nil

	case symtab.KindVariable:
		return c.compileVariable(ctx, time, sym)

	default:
		return nil, fmt.Errorf("compiler: unsupported symbol kind for %q", sym.Name)
	}
}

func (c *Compiler) compileVariable(ctx *symtab.Context, time int, sym *symtab.Symbol) ([]*dd.Node, error) {
	effectiveTime := time
	if sym.Flags.Has(symtab.FlagFrozen) {
		effectiveTime = 0
	}
	key := varEncodingKey{qname: sym.QualifiedName(), time: effectiveTime}

	c.mu.Lock()
	if enc, ok := c.varEnc[key]; ok {
		c.mu.Unlock()
		return enc, nil
	}
	c.mu.Unlock()

	enc, err := c.Enc.MakeEncoding(c.DD, sym.Type, sym.QualifiedName(), effectiveTime)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.varEnc[key] = enc.Bits
	c.mu.Unlock()
	return enc.Bits, nil
}
