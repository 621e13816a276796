package tmap

import (
	"testing"

	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/types"
)

func newTestEngine() (*Engine, *dd.Mgr, *encoding.Mgr) {
	ddm := dd.NewMgr()
	enc := encoding.NewMgr()
	k := satkernel.NewKernel()
	tm := NewTimeMapper(k)
	mc := microcode.NewCache("")
	return NewEngine(k, tm, mc, ddm, enc), ddm, enc
}

func TestEncodeDDSimpleVariable(t *testing.T) {
	e, ddm, enc := newTestEngine()
	x, _ := enc.FreshBit(ddm, "x", 0, 0)

	lit := e.encodeDD(x, 0)
	e.Kernel.AddClause([]satkernel.Lit{lit})
	if got := e.Kernel.Solve(nil); got != satkernel.SAT {
		t.Fatalf("Solve() = %s, want SAT", got)
	}
}

func TestEncodeDDContradictionUnsat(t *testing.T) {
	e, ddm, enc := newTestEngine()
	x, _ := enc.FreshBit(ddm, "x", 0, 0)
	contradiction := ddm.And(x, ddm.Not(x))

	lit := e.encodeDD(contradiction, 0)
	e.Kernel.AddClause([]satkernel.Lit{lit})
	if got := e.Kernel.Solve(nil); got != satkernel.UNSAT {
		t.Fatalf("Solve() = %s, want UNSAT", got)
	}
}

func TestEncodeDDMemoizesPerNodeAndBase(t *testing.T) {
	e, ddm, enc := newTestEngine()
	x, _ := enc.FreshBit(ddm, "x", 0, 0)

	l1 := e.encodeDD(x, 0)
	l2 := e.encodeDD(x, 0)
	if l1 != l2 {
		t.Fatalf("encodeDD not memoised: %v != %v", l1, l2)
	}
	l3 := e.encodeDD(x, 1)
	if l1 == l3 {
		t.Fatal("encodeDD must not share literals across different base steps")
	}
}

func assertEquals(t *testing.T, e *Engine, bits []*dd.Node, base int, want int) {
	t.Helper()
	for i, b := range bits {
		lit := e.encodeDD(b, base)
		if (want>>uint(i))&1 != 0 {
			e.Kernel.AddClause([]satkernel.Lit{lit})
		} else {
			e.Kernel.AddClause([]satkernel.Lit{-lit})
		}
	}
}

func decodeBits(t *testing.T, e *Engine, bits []*dd.Node, base int) int {
	t.Helper()
	v := 0
	for i, b := range bits {
		lit := e.encodeDD(b, base)
		isTrue := e.Kernel.Value(lit.Var()) == satkernel.TriTrue
		satisfied := isTrue == lit.Sign()
		if satisfied {
			v |= 1 << uint(i)
		}
	}
	return v
}

func TestPushInlinedOperatorBitwiseAnd(t *testing.T) {
	e, ddm, enc := newTestEngine()
	tm := types.NewMgr()
	width := 2

	aEnc, _ := enc.MakeEncoding(ddm, tm.FindUnsigned(uint(width)), "a", 0)
	bEnc, _ := enc.MakeEncoding(ddm, tm.FindUnsigned(uint(width)), "b", 0)
	resBits := make([]*dd.Node, width)
	for i := 0; i < width; i++ {
		n, _ := enc.FreshBit(ddm, "#res", 0, i)
		resBits[i] = n
	}

	unit := &compiler.CompilationUnit{
		InlinedOps: []*compiler.InlinedOperatorDescriptor{{
			Sig: microcode.Signature{Op: "bwand", Width: width},
			A:   aEnc.Bits, B: bEnc.Bits, ResultBits: resBits,
		}},
	}
	if err := e.Push(unit, 0, MainGroup); err != nil {
		t.Fatal(err)
	}

	assertEquals(t, e, aEnc.Bits, 0, 0b11)
	assertEquals(t, e, bEnc.Bits, 0, 0b01)
	if got := e.Kernel.Solve(nil); got != satkernel.SAT {
		t.Fatalf("Solve() = %s, want SAT", got)
	}
	if got := decodeBits(t, e, resBits, 0); got != 0b01 {
		t.Fatalf("0b11 and 0b01 = %02b, want 01", got)
	}
}

func TestPushBinarySelection(t *testing.T) {
	e, ddm, enc := newTestEngine()
	tm := types.NewMgr()
	width := 3

	condVar, _ := enc.FreshBit(ddm, "#cond", 0, 0)
	thenEnc, _ := enc.MakeEncoding(ddm, tm.FindUnsigned(uint(width)), "then", 0)
	elseEnc, _ := enc.MakeEncoding(ddm, tm.FindUnsigned(uint(width)), "else", 0)
	resBits := make([]*dd.Node, width)
	for i := 0; i < width; i++ {
		n, _ := enc.FreshBit(ddm, "#res", 0, i)
		resBits[i] = n
	}

	unit := &compiler.CompilationUnit{
		BinarySelections: []*compiler.BinarySelectionDescriptor{{
			Cond: condVar, ThenBits: thenEnc.Bits, ElseBits: elseEnc.Bits, ResultBits: resBits,
		}},
	}
	if err := e.Push(unit, 0, MainGroup); err != nil {
		t.Fatal(err)
	}

	assertEquals(t, e, thenEnc.Bits, 0, 5)
	assertEquals(t, e, elseEnc.Bits, 0, 2)
	condLit := e.encodeDD(condVar, 0)
	e.Kernel.AddClause([]satkernel.Lit{condLit}) // cond = true -> pick then

	if got := e.Kernel.Solve(nil); got != satkernel.SAT {
		t.Fatalf("Solve() = %s, want SAT", got)
	}
	if got := decodeBits(t, e, resBits, 0); got != 5 {
		t.Fatalf("selected result = %d, want 5 (then branch)", got)
	}
}

func TestPushMultiwaySelection(t *testing.T) {
	e, ddm, enc := newTestEngine()
	tm := types.NewMgr()
	elemWidth := 2
	nelems := 4

	arrEnc, _ := enc.MakeEncoding(ddm, tm.FindArray(tm.FindUnsigned(uint(elemWidth)), uint(nelems)), "arr", 0)
	idxEnc, _ := enc.MakeEncoding(ddm, tm.FindUnsigned(2), "idx", 0)
	resBits := make([]*dd.Node, elemWidth)
	for i := 0; i < elemWidth; i++ {
		n, _ := enc.FreshBit(ddm, "#res", 0, i)
		resBits[i] = n
	}

	unit := &compiler.CompilationUnit{
		MultiwaySelections: []*compiler.MultiwaySelectionDescriptor{{
			IndexBits: idxEnc.Bits, ElemWidth: elemWidth, Nelems: nelems,
			ArrayBits: arrEnc.Bits, ResultBits: resBits,
		}},
	}
	if err := e.Push(unit, 0, MainGroup); err != nil {
		t.Fatal(err)
	}

	// arr = [0, 1, 2, 3] (element i has value i); pick index 2.
	for i := 0; i < nelems; i++ {
		bits, _ := arrEnc.Slice(elemWidth, i)
		assertEquals(t, e, bits, 0, i)
	}
	assertEquals(t, e, idxEnc.Bits, 0, 2)

	if got := e.Kernel.Solve(nil); got != satkernel.SAT {
		t.Fatalf("Solve() = %s, want SAT", got)
	}
	if got := decodeBits(t, e, resBits, 0); got != 2 {
		t.Fatalf("arr[2] = %d, want 2", got)
	}
}
