// Package compiler implements the expression-tree walker of spec.md
// §4.5: it turns a typed Expr, evaluated at a given module context and
// logical time, into a CompilationUnit — a vector of decision-diagram
// results plus the side-band microcode/selection descriptors for
// operators too expensive to expand directly into decision diagrams.
package compiler

import (
	"fmt"
	"sync"

	"github.com/sunholo/ailang/internal/analyzer"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

// InlinedOperatorDescriptor records an operator whose DD form would
// explode (mul/div/mod/wide-bitwise/non-constant shift): the compiler
// emits fresh anonymous result bits and leaves the actual clause
// generation to the CNFiser's microcode loader at injection time
// (spec.md §4.5/§4.6).
type InlinedOperatorDescriptor struct {
	Sig        microcode.Signature
	A, B       []*dd.Node
	ResultBits []*dd.Node
}

// BinarySelectionDescriptor records an ITE over algebraic branches
// (spec.md §4.5): the compiler pushes fresh result bits and leaves the
// cond?then:else clauses to the CNFiser.
type BinarySelectionDescriptor struct {
	Cond             *dd.Node
	ThenBits, ElseBits, ResultBits []*dd.Node
}

// MultiwaySelectionDescriptor records an array subscript by a
// non-constant index (spec.md §4.5).
type MultiwaySelectionDescriptor struct {
	IndexBits  []*dd.Node
	ElemWidth  int
	Nelems     int
	ArrayBits  []*dd.Node
	ResultBits []*dd.Node
}

// CompilationUnit is the compiler's output (spec.md §3).
type CompilationUnit struct {
	Result             []*dd.Node
	Type               *types.Type
	InlinedOps         []*InlinedOperatorDescriptor
	BinarySelections   []*BinarySelectionDescriptor
	MultiwaySelections []*MultiwaySelectionDescriptor
}

// Compiler walks expressions into CompilationUnits.
type Compiler struct {
	DD       *dd.Mgr
	Enc      *encoding.Mgr
	Types    *types.Mgr
	Resolver *symtab.ResolverProxy
	Analyzer *analyzer.Analyzer

	mu       sync.Mutex
	cache    map[encoding.TimedExpr]*CompilationUnit
	varEnc   map[varEncodingKey][]*dd.Node
	freshCtr int
}

func New(ddm *dd.Mgr, enc *encoding.Mgr, tm *types.Mgr, r *symtab.ResolverProxy, an *analyzer.Analyzer) *Compiler {
	return &Compiler{
		DD: ddm, Enc: enc, Types: tm, Resolver: r, Analyzer: an,
		cache:  make(map[encoding.TimedExpr]*CompilationUnit),
		varEnc: make(map[varEncodingKey][]*dd.Node),
	}
}

// walkState accumulates the side-band descriptors produced while
// walking one top-level Process call (spec.md §4.5's three sidecar
// descriptor collections).
type walkState struct {
	inlined   []*InlinedOperatorDescriptor
	binSel    []*BinarySelectionDescriptor
	multiSel  []*MultiwaySelectionDescriptor
}

// Process implements `process(ctx, body) → CompilationUnit` (spec.md
// §4.5). time is the logical step this expression is compiled at
// (NEXT pushes time+1 for its operand, per spec.md §4.5).
func (c *Compiler) Process(ctx *symtab.Context, time int, body *expr.Expr) (*CompilationUnit, error) {
	typ, err := c.Analyzer.Infer(ctx, body)
	if err != nil {
		return nil, err
	}
	ws := &walkState{}
	bits, err := c.walk(ctx, time, body, typ, ws, true)
	if err != nil {
		return nil, err
	}
	return &CompilationUnit{
		Result: bits, Type: typ,
		InlinedOps: ws.inlined, BinarySelections: ws.binSel, MultiwaySelections: ws.multiSel,
	}, nil
}

// cacheEligible implements spec.md §4.5's caching rule: non-
// deterministic nodes, identifiers with side effects (inputs,
// defines), and the top-level node never cache.
func (c *Compiler) cacheEligible(e *expr.Expr, isTop bool) bool {
	if isTop {
		return false
	}
	switch e.Tag() {
	case expr.TagSet, expr.TagComma, expr.TagIdent, expr.TagDot:
		return false
	default:
		return true
	}
}

func (c *Compiler) freshAnon(prefix string, time, width int) []*dd.Node {
	c.mu.Lock()
	id := c.freshCtr
	c.freshCtr++
	c.mu.Unlock()

	bits := make([]*dd.Node, width)
	name := fmt.Sprintf("%s#%d", prefix, id)
	for i := 0; i < width; i++ {
		n, _ := c.Enc.FreshBit(c.DD, name, time, i)
		bits[i] = n
	}
	return bits
}

// walk is the recursive structural-recursion form of spec.md §4.5's
// pre/in/postorder walker: each call both descends (preorder: time
// shift, cache-miss test) and synthesizes its result on return
// (postorder).
func (c *Compiler) walk(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState, isTop bool) ([]*dd.Node, error) {
	te := encoding.TimedExpr{Expr: e, Step: time}
	eligible := c.cacheEligible(e, isTop)
	if eligible {
		c.mu.Lock()
		if cu, ok := c.cache[te]; ok {
			c.mu.Unlock()
			ws.inlined = append(ws.inlined, cu.InlinedOps...)
			ws.binSel = append(ws.binSel, cu.BinarySelections...)
			ws.multiSel = append(ws.multiSel, cu.MultiwaySelections...)
			return cu.Result, nil
		}
		c.mu.Unlock()
	}

	i0, b0, m0 := len(ws.inlined), len(ws.binSel), len(ws.multiSel)
	bits, err := c.walkUncached(ctx, time, e, typ, ws)
	if err != nil {
		return nil, err
	}

	if eligible {
		// Snapshot exactly the descriptors this subtree contributed
		// (including ones bubbled up from its own cached children), so a
		// future cache hit on a different top-level Process call replays
		// them instead of silently dropping the subtree's microcode and
		// selection clauses.
		cu := &CompilationUnit{
			Result:             bits,
			Type:               typ,
			InlinedOps:         append([]*InlinedOperatorDescriptor(nil), ws.inlined[i0:]...),
			BinarySelections:   append([]*BinarySelectionDescriptor(nil), ws.binSel[b0:]...),
			MultiwaySelections: append([]*MultiwaySelectionDescriptor(nil), ws.multiSel[m0:]...),
		}
		c.mu.Lock()
		c.cache[te] = cu
		c.mu.Unlock()
	}
	return bits, nil
}

func (c *Compiler) walkUncached(ctx *symtab.Context, time int, e *expr.Expr, typ *types.Type, ws *walkState) ([]*dd.Node, error) {
	switch e.Tag() {
	case expr.TagConst:
		return c.compileConst(e, typ), nil

	case expr.TagUndef:
		return c.errorBits(typ, time), nil

	case expr.TagIdent:
		return c.compileIdent(ctx, time, e, ws)

	case expr.TagDot:
		return c.compileDot(ctx, time, e, ws)

	case expr.TagNext:
		innerTyp, err := c.Analyzer.Infer(ctx, e.LHS())
		if err != nil {
			return nil, err
		}
		return c.walk(ctx, time+1, e.LHS(), innerTyp, ws, false)

	case expr.TagNot:
		a, err := c.boolOperand(ctx, time, e.LHS(), ws)
		if err != nil {
			return nil, err
		}
		return []*dd.Node{c.DD.Not(a)}, nil

	case expr.TagAnd, expr.TagOr, expr.TagImplies, expr.TagIff:
		return c.compileLogical(ctx, time, e, ws)

	case expr.TagNeg:
		x, err := c.algOperand(ctx, time, e.LHS(), ws)
		if err != nil {
			return nil, err
		}
		return c.DD.Negate(x), nil

	case expr.TagBWNot:
		x, err := c.algOperand(ctx, time, e.LHS(), ws)
		if err != nil {
			return nil, err
		}
		return c.DD.BWCmpl(x), nil

	case expr.TagPlus, expr.TagSub:
		return c.compileAddSub(ctx, time, e, typ, ws)

	case expr.TagMul, expr.TagDiv, expr.TagMod:
		return c.compileInlinedArith(ctx, time, e, typ, ws)

	case expr.TagBWAnd, expr.TagBWOr, expr.TagBWXor, expr.TagBWXnor:
		return c.compileBitwise(ctx, time, e, typ, ws)

	case expr.TagLShift, expr.TagRShift:
		return c.compileShift(ctx, time, e, typ, ws)

	case expr.TagEQ, expr.TagNE, expr.TagGT, expr.TagGE, expr.TagLT, expr.TagLE:
		return c.compileRelational(ctx, time, e, ws)

	case expr.TagITE:
		return c.compileITE(ctx, time, e, typ, ws)

	case expr.TagSubscr:
		return c.compileSubscript(ctx, time, e, typ, ws)

	case expr.TagCast:
		return c.compileCast(ctx, time, e, typ, ws)

	case expr.TagSet, expr.TagComma:
		return c.compileNonDet(ctx, time, e, typ, ws)

	default:
		return nil, fmt.Errorf("compiler: unsupported node tag for compilation: %s", e)
	}
}
