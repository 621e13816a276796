// Package tmap implements the time mapper and CNFiser engine of
// spec.md §4.7: it lifts untimed canonical bit ids (UCBI) to timed
// ones (TCBI), maps each TCBI 1-to-1 to a SAT solver variable, and
// turns a compiled unit's decision diagrams and microcode descriptors
// into CNF clauses pushed into the kernel.
package tmap

import (
	"fmt"
	"sync"

	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/satkernel"
)

// TCBI is the timed canonical bit identifier of spec.md §3: a UCBI
// anchored to an absolute base step.
type TCBI struct {
	UCBI     encoding.UCBI
	BaseStep int
}

// TimeMapper lifts UCBIs to TCBIs and maps each TCBI 1-to-1 to a
// solver variable, bidirectionally.
type TimeMapper struct {
	mu     sync.Mutex
	toVar  map[TCBI]satkernel.Var
	toTCBI map[satkernel.Var]TCBI
	kernel *satkernel.Kernel
}

func NewTimeMapper(k *satkernel.Kernel) *TimeMapper {
	return &TimeMapper{
		toVar:  make(map[TCBI]satkernel.Var),
		toTCBI: make(map[satkernel.Var]TCBI),
		kernel: k,
	}
}

// Var returns the solver variable for tcbi, allocating one on first use.
func (tm *TimeMapper) Var(tcbi TCBI) satkernel.Var {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if v, ok := tm.toVar[tcbi]; ok {
		return v
	}
	v := tm.kernel.NewVar()
	tm.toVar[tcbi] = v
	tm.toTCBI[v] = tcbi
	return v
}

// TCBIOf is the inverse of Var.
func (tm *TimeMapper) TCBIOf(v satkernel.Var) (TCBI, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	t, ok := tm.toTCBI[v]
	return t, ok
}

// At returns the TCBI of ucbi anchored at base, per spec.md §3's
// "TCBI = (UCBI, base-step)". A frozen bit (UCBI.TimeOffset carries no
// meaning for it) is always anchored at base 0 by convention: callers
// pass base=0 for any UCBI belonging to a frozen variable.
func At(u encoding.UCBI, base int) TCBI { return TCBI{UCBI: u, BaseStep: base} }

// MainGroup is the permanent clause group (spec.md §4.7).
const MainGroup = 0

type ddMemoKey struct {
	node *dd.Node
	base int
}

// Engine pushes compiled units into the SAT kernel, per spec.md §4.7.
type Engine struct {
	Kernel    *satkernel.Kernel
	Mapper    *TimeMapper
	Microcode *microcode.Cache
	DD        *dd.Mgr
	Enc       *encoding.Mgr

	nextGroup   int
	trueVar     satkernel.Var
	ddMemo      map[ddMemoKey]satkernel.Lit
	groupGuards map[int]satkernel.Var
}

func NewEngine(k *satkernel.Kernel, tm *TimeMapper, mc *microcode.Cache, ddm *dd.Mgr, enc *encoding.Mgr) *Engine {
	e := &Engine{
		Kernel: k, Mapper: tm, Microcode: mc, DD: ddm, Enc: enc,
		nextGroup:   1,
		ddMemo:      make(map[ddMemoKey]satkernel.Lit),
		groupGuards: make(map[int]satkernel.Var),
	}
	e.trueVar = k.NewVar()
	k.AddClause([]satkernel.Lit{satkernel.Lit(e.trueVar)})
	return e
}

// NewGroup allocates a fresh retractable clause-group id. Each group's
// membership is enforced by OR-ing a single group-guard literal into
// every clause from that group (spec.md §4.7); the guard is asserted
// as an assumption when the group should be active and negated to
// retract it.
func (e *Engine) NewGroup() int {
	g := e.nextGroup
	e.nextGroup++
	return g
}

// GroupLiteral returns the guard literal for group, allocating it on
// first use. Callers pass it (or its negation) as a Solve assumption
// to activate or retract the group's clauses; MainGroup has no guard
// (its clauses are permanent) so GroupLiteral(MainGroup) panics.
func (e *Engine) GroupLiteral(group int) satkernel.Lit {
	if group == MainGroup {
		panic("tmap: MainGroup has no guard literal — its clauses are permanent")
	}
	v, ok := e.groupGuards[group]
	if !ok {
		v = e.Kernel.NewVar()
		e.groupGuards[group] = v
	}
	return satkernel.Lit(v)
}

// addGrouped adds lits as a clause, OR-ing in the negated group guard
// for any group but MainGroup so the clause can later be retracted by
// assuming the guard false (spec.md §4.7).
func (e *Engine) addGrouped(group int, lits []satkernel.Lit) {
	if group == MainGroup {
		e.Kernel.AddClause(lits)
		return
	}
	guarded := append(append([]satkernel.Lit(nil), lits...), -e.GroupLiteral(group))
	e.Kernel.AddClause(guarded)
}

// Push emits the clauses for unit at the given base step and group,
// per spec.md §4.7: "for each DD in the unit's result vector and each
// microcode/selection descriptor, emit the corresponding clauses."
// The DD Tseitin-definition clauses from encodeDD stay permanent
// (MainGroup) regardless of group: they only define what a shared
// node's literal means, independent of which unit introduced it.
func (e *Engine) Push(unit *compiler.CompilationUnit, base, group int) error {
	for _, n := range unit.Result {
		e.encodeDD(n, base)
	}
	for _, d := range unit.InlinedOps {
		if err := e.pushInlinedOperator(d, base, group); err != nil {
			return err
		}
	}
	for _, d := range unit.BinarySelections {
		e.pushBinarySelection(d, base, group)
	}
	for _, d := range unit.MultiwaySelections {
		e.pushMultiwaySelection(d, base, group)
	}
	return nil
}

// AssertUnit pushes unit and asserts its result bits true (for a
// single-bit boolean result, the usual property/constraint shape).
func (e *Engine) AssertUnit(unit *compiler.CompilationUnit, base, group int) error {
	if err := e.Push(unit, base, group); err != nil {
		return err
	}
	for _, n := range unit.Result {
		lit := e.encodeDD(n, base)
		e.Kernel.AddClause([]satkernel.Lit{lit})
	}
	return nil
}

// encodeDD Tseitin-encodes the boolean function rooted at n, at time
// base, into CNF clauses binding a fresh (or memoised) solver literal
// to n's meaning, recursively. Memoised per (node, base) so sharing in
// the DAG never duplicates clauses within one Engine's lifetime.
func (e *Engine) encodeDD(n *dd.Node, base int) satkernel.Lit {
	if n == e.DD.Zero() {
		return -satkernel.Lit(e.trueVar)
	}
	if n == e.DD.One() {
		return satkernel.Lit(e.trueVar)
	}

	key := ddMemoKey{node: n, base: base}
	if lit, ok := e.ddMemo[key]; ok {
		return lit
	}

	u, ok := e.Enc.VarToUCBI(n.Var)
	if !ok {
		panic(fmt.Sprintf("tmap: dd variable %d has no UCBI — it was created without going through encoding.Mgr.FreshBit", n.Var))
	}
	cVar := e.Mapper.Var(At(u, base))
	cLit := satkernel.Lit(cVar)

	hiLit := e.encodeDD(n.Hi, base)
	loLit := e.encodeDD(n.Lo, base)

	v := e.Kernel.NewVar()
	vLit := satkernel.Lit(v)
	e.Kernel.AddClause([]satkernel.Lit{-vLit, -cLit, hiLit})
	e.Kernel.AddClause([]satkernel.Lit{-vLit, cLit, loLit})
	e.Kernel.AddClause([]satkernel.Lit{vLit, -cLit, -hiLit})
	e.Kernel.AddClause([]satkernel.Lit{vLit, cLit, -loLit})

	e.ddMemo[key] = vLit
	return vLit
}

// Literal Tseitin-encodes n at base and returns its solver literal.
// Exported for callers (internal/algorithms) that need to drive Solve
// with an explicit assumption instead of asserting a fact permanently.
func (e *Engine) Literal(n *dd.Node, base int) satkernel.Lit {
	return e.encodeDD(n, base)
}

// bitsLit Tseitin-encodes each bit of a DD vector at base and returns
// the resulting literals in the same order (LSB first).
func (e *Engine) bitsLit(bits []*dd.Node, base int) []satkernel.Lit {
	out := make([]satkernel.Lit, len(bits))
	for i, n := range bits {
		out[i] = e.encodeDD(n, base)
	}
	return out
}

// pushInlinedOperator injects the clause template for d's signature,
// per spec.md §4.6: load (or synthesize) the template once, then
// rename its abstract bit positions onto d's actual operand/result
// literals and auxiliary Tseitin variables for this one occurrence.
func (e *Engine) pushInlinedOperator(d *compiler.InlinedOperatorDescriptor, base, group int) error {
	t, err := e.Microcode.Load(d.Sig)
	if err != nil {
		return err
	}
	if len(d.A) != t.AWidth || len(d.B) != t.BWidth || len(d.ResultBits) != t.RWidth {
		return fmt.Errorf("tmap: microcode signature %s width mismatch: template a=%d b=%d r=%d, descriptor a=%d b=%d r=%d",
			d.Sig, t.AWidth, t.BWidth, t.RWidth, len(d.A), len(d.B), len(d.ResultBits))
	}

	aLits := e.bitsLit(d.A, base)
	bLits := e.bitsLit(d.B, base)
	rLits := e.bitsLit(d.ResultBits, base)

	rename := make(map[int]satkernel.Lit, t.AWidth+t.BWidth+t.RWidth+t.NumAux)
	for i := 0; i < t.AWidth; i++ {
		rename[i+1] = aLits[i]
	}
	for i := 0; i < t.BWidth; i++ {
		rename[t.AWidth+i+1] = bLits[i]
	}
	for i := 0; i < t.RWidth; i++ {
		rename[t.AWidth+t.BWidth+i+1] = rLits[i]
	}
	auxBase := t.AWidth + t.BWidth + t.RWidth
	auxVars := make([]satkernel.Var, t.NumAux)
	for i := 0; i < t.NumAux; i++ {
		v := e.Kernel.NewVar()
		auxVars[i] = v
		rename[auxBase+i+1] = satkernel.Lit(v)
	}

	for _, cl := range t.Clauses {
		out := make([]satkernel.Lit, len(cl))
		for i, pos := range cl {
			lit, ok := rename[abs(pos)]
			if !ok {
				return fmt.Errorf("tmap: microcode template %s referenced unmapped position %d", d.Sig, pos)
			}
			if pos < 0 {
				lit = -lit
			}
			out[i] = lit
		}
		e.addGrouped(group, out)
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// pushBinarySelection injects the four standard Tseitin mux clauses
// per result bit: cond ? then : else (spec.md §4.5's binary selection
// descriptor, for an ITE whose branches are algebraic).
func (e *Engine) pushBinarySelection(d *compiler.BinarySelectionDescriptor, base, group int) {
	condLit := e.encodeDD(d.Cond, base)
	thenLits := e.bitsLit(d.ThenBits, base)
	elseLits := e.bitsLit(d.ElseBits, base)
	resLits := e.bitsLit(d.ResultBits, base)

	for i := range resLits {
		r, t, s := resLits[i], thenLits[i], elseLits[i]
		e.addGrouped(group, []satkernel.Lit{-condLit, -t, r})
		e.addGrouped(group, []satkernel.Lit{-condLit, t, -r})
		e.addGrouped(group, []satkernel.Lit{condLit, -s, r})
		e.addGrouped(group, []satkernel.Lit{condLit, s, -r})
	}
}

// pushMultiwaySelection injects, for each array index value v, the
// implication pair (index ≠ v) ∨ (result_i ↔ array[v]_i) for every
// result bit i, per spec.md §4.5's multiway selection descriptor.
func (e *Engine) pushMultiwaySelection(d *compiler.MultiwaySelectionDescriptor, base, group int) {
	idxLits := e.bitsLit(d.IndexBits, base)
	arrLits := e.bitsLit(d.ArrayBits, base)
	resLits := e.bitsLit(d.ResultBits, base)

	for v := 0; v < d.Nelems; v++ {
		notIndexV := e.indexNotEqual(idxLits, v)
		start := v * d.ElemWidth
		for i := 0; i < d.ElemWidth; i++ {
			elemLit := arrLits[start+i]
			r := resLits[i]
			e.addGrouped(group, []satkernel.Lit{notIndexV, -elemLit, r})
			e.addGrouped(group, []satkernel.Lit{notIndexV, elemLit, -r})
		}
	}
}

// AssertStatesDistinct implements spec.md §4.7's uniqueness constraint
// for loop detection: jBits (compiled at step j) and kBits (compiled
// at step k, same variable, same bit order) introduce one helper
// literal u_i per bit with "u_i -> jvar_i != kvar_i" (only the
// direction the closing disjunction needs, per the spec's own two
// clauses), then asserts group -> ⋁u_i — "some state bit differs
// between frame j and frame k" — within group so a caller can probe
// distinctness without polluting the permanent clause set.
func (e *Engine) AssertStatesDistinct(jBits []*dd.Node, j int, kBits []*dd.Node, k, group int) error {
	if len(jBits) != len(kBits) {
		return fmt.Errorf("tmap: AssertStatesDistinct bit count mismatch: %d vs %d", len(jBits), len(kBits))
	}
	uLits := make([]satkernel.Lit, len(jBits))
	for i := range jBits {
		jLit := e.encodeDD(jBits[i], j)
		kLit := e.encodeDD(kBits[i], k)
		u := e.Kernel.NewVar()
		uLit := satkernel.Lit(u)
		e.Kernel.AddClause([]satkernel.Lit{-uLit, -jLit, -kLit})
		e.Kernel.AddClause([]satkernel.Lit{-uLit, jLit, kLit})
		uLits[i] = uLit
	}
	e.addGrouped(group, uLits)
	return nil
}

// indexNotEqual returns a literal true whenever idxLits != v, built as
// the disjunction of the bits where idxLits disagrees with v's binary
// expansion (so the clause list above reads "index != v OR ...").
func (e *Engine) indexNotEqual(idxLits []satkernel.Lit, v int) satkernel.Lit {
	diffVar := e.Kernel.NewVar()
	diffLit := satkernel.Lit(diffVar)

	// diffLit <- OR_i (idxLits[i] xor bit_i(v)); encoded as a single
	// auxiliary clause per bit plus the defining implication, since the
	// kernel has no native n-ary OR-definition helper.
	var disagreeLits []satkernel.Lit
	for i, lit := range idxLits {
		bit := (v >> uint(i)) & 1
		var disagree satkernel.Lit
		if bit == 1 {
			disagree = -lit // disagree iff this index bit is 0 while v's bit is 1
		} else {
			disagree = lit // disagree iff this index bit is 1 while v's bit is 0
		}
		disagreeLits = append(disagreeLits, disagree)
		e.Kernel.AddClause([]satkernel.Lit{-disagree, diffLit})
	}
	clause := append([]satkernel.Lit{-diffLit}, disagreeLits...)
	e.Kernel.AddClause(clause)
	return diffLit
}
