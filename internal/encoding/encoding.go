// Package encoding implements the bit-level encoder of spec.md §4.4:
// it maps a canonical Type to a vector of fresh decision-diagram bit
// variables, and maintains the bit-index → UCBI inverse map the time
// mapper needs to time-stamp those bits later.
package encoding

import (
	"fmt"
	"sync"

	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/types"
)

// InfiniteStep is the sentinel step used for frozen variables
// (spec.md §3: "frozen variables use step = ∞").
const InfiniteStep = -1

// TimedExpr is (expr, step), the cache key used both for encoding
// reuse and for the compiler's CompilationUnit cache (spec.md §3).
// Both fields are comparable, so TimedExpr is usable as a map key
// directly without a separate key-struct indirection.
type TimedExpr struct {
	Expr *expr.Expr
	Step int
}

// UCBI is the untimed canonical bit identifier of spec.md §3:
// (qualified-name, time-offset, bit-index). QName identifies the
// variable (or sub-expression) the bit belongs to; TimeOffset is the
// NEXT-depth the bit was encoded at relative to the compile call's
// starting time; BitIndex is the position within that value's bit
// vector (0 = LSB).
type UCBI struct {
	QName      string
	TimeOffset int
	BitIndex   int
}

func (u UCBI) String() string {
	return fmt.Sprintf("%s@%d#%d", u.QName, u.TimeOffset, u.BitIndex)
}

// Encoding is the bit-vector representation of one typed value:
// spec.md §4.4's BooleanEncoding / IntEncoding / EnumEncoding /
// ArrayEncoding, unified into one struct since they differ only in
// how many bits they carry and how a decoded value is reconstructed
// (that logic lives in internal/witness, which already has the Type).
type Encoding struct {
	Type  *types.Type
	Bits  []*dd.Node // index 0 = LSB
	UCBIs []UCBI     // UCBIs[i] describes Bits[i]
}

// Mgr is the encoding registry: the untimed analogue of
// internal/tmap's TimeMapper. One Mgr is shared for a whole run.
type Mgr struct {
	mu           sync.Mutex
	byTimedExpr map[TimedExpr]*Encoding
	varUCBI     map[int]UCBI // dd.Node.Var index -> UCBI, for every bit this Mgr ever freshened
}

func NewMgr() *Mgr {
	return &Mgr{
		byTimedExpr: make(map[TimedExpr]*Encoding),
		varUCBI:     make(map[int]UCBI),
	}
}

// RegisterEncoding stores enc under te. Spec.md §4.4's invariant ("at
// most one encoding exists per TimedExpr for the model's lifetime") is
// the caller's responsibility: Register overwrites silently so callers
// should always FindEncoding first.
func (m *Mgr) RegisterEncoding(te TimedExpr, enc *Encoding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byTimedExpr[te] = enc
}

// FindEncoding returns the cached encoding for te, if any.
func (m *Mgr) FindEncoding(te TimedExpr) (*Encoding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byTimedExpr[te]
	return e, ok
}

// VarToUCBI is the inverse map the time mapper consults: given the
// dd.Node.Var index of a control variable, return the UCBI it was
// freshened under. Every dd variable that should ever reach the
// CNFiser — whether a named model variable's bit or an anonymous
// determinization/error bit — must be allocated via FreshBit so this
// map always has an entry for it.
func (m *Mgr) VarToUCBI(varIndex int) (UCBI, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.varUCBI[varIndex]
	return u, ok
}

// FreshBit allocates one new boolean DD variable and records its
// UCBI in one atomic step, so dd variable index and UCBI bit index
// always agree. This is the only sanctioned way to create a dd
// variable anywhere in this codebase (including the compiler's
// anonymous determinization and error bits) — calling dd.Mgr.Var()
// directly would leave the CNFiser unable to time-stamp the bit.
func (m *Mgr) FreshBit(ddm *dd.Mgr, qname string, timeOffset, bitIndex int) (*dd.Node, UCBI) {
	n := ddm.Var()
	u := UCBI{QName: qname, TimeOffset: timeOffset, BitIndex: bitIndex}
	m.mu.Lock()
	m.varUCBI[n.Var] = u
	m.mu.Unlock()
	return n, u
}

// MakeEncoding builds a fresh Encoding for t, per spec.md §4.4: one DD
// for boolean, w DDs for an algebraic type of width w, ⌈log2|lits|⌉
// DDs for an enum, and the concatenation of element encodings for an
// array. qname/timeOffset label the bits for the UCBI inverse map.
func (m *Mgr) MakeEncoding(ddm *dd.Mgr, t *types.Type, qname string, timeOffset int) (*Encoding, error) {
	switch t.Kind() {
	case types.KindBoolean:
		return m.makeFlatEncoding(ddm, t, 1, qname, timeOffset)
	case types.KindSignedAlgebraic, types.KindUnsignedAlgebraic:
		return m.makeFlatEncoding(ddm, t, int(t.Width()), qname, timeOffset)
	case types.KindEnum:
		return m.makeFlatEncoding(ddm, t, int(t.Width()), qname, timeOffset)
	case types.KindArray:
		return m.makeArrayEncoding(ddm, t, qname, timeOffset)
	default:
		return nil, fmt.Errorf("encoding: type %s is not bit-encodable", t)
	}
}

func (m *Mgr) makeFlatEncoding(ddm *dd.Mgr, t *types.Type, width int, qname string, timeOffset int) (*Encoding, error) {
	bits := make([]*dd.Node, width)
	ucbis := make([]UCBI, width)
	for i := 0; i < width; i++ {
		n, u := m.FreshBit(ddm, qname, timeOffset, i)
		bits[i] = n
		ucbis[i] = u
	}
	return &Encoding{Type: t, Bits: bits, UCBIs: ucbis}, nil
}

func (m *Mgr) makeArrayEncoding(ddm *dd.Mgr, t *types.Type, qname string, timeOffset int) (*Encoding, error) {
	elemWidth := int(t.Elem().Width())
	nelems := int(t.Length())
	total := elemWidth * nelems

	bits := make([]*dd.Node, 0, total)
	ucbis := make([]UCBI, 0, total)
	for i := 0; i < nelems; i++ {
		elemName := fmt.Sprintf("%s[%d]", qname, i)
		elemEnc, err := m.MakeEncoding(ddm, t.Elem(), elemName, timeOffset)
		if err != nil {
			return nil, err
		}
		if len(elemEnc.Bits) != elemWidth {
			return nil, fmt.Errorf("encoding: array element width mismatch for %s: got %d want %d", elemName, len(elemEnc.Bits), elemWidth)
		}
		bits = append(bits, elemEnc.Bits...)
		ucbis = append(ucbis, elemEnc.UCBIs...)
	}
	return &Encoding{Type: t, Bits: bits, UCBIs: ucbis}, nil
}

// Slice returns the bits (and matching UCBIs) of array element i.
func (e *Encoding) Slice(elemWidth, i int) ([]*dd.Node, []UCBI) {
	start := i * elemWidth
	return e.Bits[start : start+elemWidth], e.UCBIs[start : start+elemWidth]
}
