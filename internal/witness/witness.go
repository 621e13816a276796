// Package witness implements spec.md §4.9's counterexample/trace
// extraction: given a solved SAT model and a bound, it reconstructs
// one typed value per (variable, step) and exposes a small recursive
// evaluator for defines and arbitrary expressions against the result.
// Grounded on original_source/src/algorithms/sim/witness.cc's
// SimulationWitness constructor (the vars pass) and
// original_source/src/witness/evaluator.cc (the recursive evaluator).
package witness

import (
	"fmt"
	"sort"

	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/tmap"
	"github.com/sunholo/ailang/internal/types"
)

// TimeFrame holds every variable's reconstructed value at one step,
// keyed by qualified name (symtab.Symbol.QualifiedName()).
type TimeFrame struct {
	Step   int
	values map[string]*expr.Expr
}

func newTimeFrame(step int) *TimeFrame {
	return &TimeFrame{Step: step, values: make(map[string]*expr.Expr)}
}

// SetValue records qname's value at this frame.
func (tf *TimeFrame) SetValue(qname string, v *expr.Expr) { tf.values[qname] = v }

// Value returns qname's recorded value at this frame, if any.
func (tf *TimeFrame) Value(qname string) (*expr.Expr, bool) {
	v, ok := tf.values[qname]
	return v, ok
}

// Names returns every qualified name recorded in this frame, in
// sorted order, so dumpers get a deterministic variable ordering.
func (tf *TimeFrame) Names() []string {
	names := make([]string, 0, len(tf.values))
	for n := range tf.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Witness is a named, bounded sequence of TimeFrames: the trace
// produced by BMCReachability's counterexample or by Simulate.
type Witness struct {
	Name   string
	Frames []*TimeFrame
}

// New creates an empty, named witness.
func New(name string) *Witness {
	return &Witness{Name: name}
}

// NewFrame appends and returns a fresh frame for step.
func (w *Witness) NewFrame(step int) *TimeFrame {
	tf := newTimeFrame(step)
	w.Frames = append(w.Frames, tf)
	return tf
}

// Frame returns the frame recorded for step, if any.
func (w *Witness) Frame(step int) (*TimeFrame, bool) {
	for _, tf := range w.Frames {
		if tf.Step == step {
			return tf, true
		}
	}
	return nil, false
}

// HasValue reports whether qname has a recorded value at step.
func (w *Witness) HasValue(qname string, step int) bool {
	tf, ok := w.Frame(step)
	if !ok {
		return false
	}
	_, ok = tf.Value(qname)
	return ok
}

// ValueAt returns qname's value at step, or the distinguished
// TagUndef expression (spec.md §4.9's failure policy: "if a frame has
// no value for a queried symbol, the result is a distinguished UNDEF
// expression") built from ep when no value was ever recorded.
func (w *Witness) ValueAt(ep *expr.Pool, qname string, step int) *expr.Expr {
	if tf, ok := w.Frame(step); ok {
		if v, ok := tf.Value(qname); ok {
			return v
		}
	}
	return ep.MakeLeaf(expr.TagUndef)
}

// Build reconstructs a Witness over steps 0..k (inclusive) for every
// variable symbol of ctx's module, reading solved bit values out of
// engine and reconstructing typed values through comp. Variables with
// no recorded solver value (never referenced by a pushed formula) read
// back as zero-valued, per original_source's "don't care is assigned
// to 0" convention — this implementation always reconstructs a value
// for every declared variable rather than omitting untouched ones, a
// simplification over the original's cone-of-influence skip (recorded
// in DESIGN.md).
func Build(name string, ctx *symtab.Context, comp *compiler.Compiler, engine *tmap.Engine, enc *encoding.Mgr, ep *expr.Pool, k int) (*Witness, error) {
	w := New(name)

	for step := 0; step <= k; step++ {
		tf := w.NewFrame(step)

		for _, sym := range ctx.Current().Variables() {
			qname := sym.QualifiedName()

			ident := ep.MakeIdent(sym.Name)
			unit, err := comp.Process(ctx, step, ident)
			if err != nil {
				return nil, fmt.Errorf("witness: compiling %q at step %d: %w", qname, step, err)
			}
			if len(unit.Result) == 0 {
				// instance-typed variables carry no bits of their own.
				continue
			}

			inputs := make([]int, len(unit.Result))
			for i, bit := range unit.Result {
				ucbi, ok := enc.VarToUCBI(bit.Var)
				if !ok {
					continue
				}
				tcbi := tmap.At(ucbi, step)
				v := engine.Mapper.Var(tcbi)
				inputs[i] = triToBit(engine.Kernel.Value(v))
			}

			val, err := decode(ep, unit.Type, inputs)
			if err != nil {
				return nil, fmt.Errorf("witness: decoding %q at step %d: %w", qname, step, err)
			}
			tf.SetValue(qname, val)
		}
	}

	return w, nil
}

func triToBit(t satkernel.Tri) int {
	if t == satkernel.TriTrue {
		return 1
	}
	return 0
}

// decode reconstructs a typed Expr value from a little-endian
// (bits[0] = LSB) bit vector, per spec.md §4.4's encoding scheme.
func decode(ep *expr.Pool, t *types.Type, bits []int) (*expr.Expr, error) {
	switch t.Kind() {
	case types.KindBoolean:
		return ep.MakeConst(expr.Const{Value: int64(bits[0]), Width: 1}), nil

	case types.KindSignedAlgebraic, types.KindUnsignedAlgebraic:
		v := bitsToInt64(bits, t.Signed())
		return ep.MakeConst(expr.Const{Value: v, Width: uint8(t.Width())}), nil

	case types.KindEnum:
		code := int(bitsToUint64(bits))
		lits := t.Literals()
		if code < 0 || code >= len(lits) {
			return nil, fmt.Errorf("enum code %d out of range for %s", code, t)
		}
		return ep.MakeIdent(lits[code]), nil

	case types.KindArray:
		elemWidth := int(t.Elem().Width())
		n := int(t.Length())
		var result *expr.Expr
		for i := 0; i < n; i++ {
			elemBits := bits[i*elemWidth : (i+1)*elemWidth]
			elemVal, err := decode(ep, t.Elem(), elemBits)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = elemVal
			} else {
				result = ep.MakeBinary(expr.TagComma, result, elemVal)
			}
		}
		return result, nil

	default:
		return nil, fmt.Errorf("type %s is not decodable", t)
	}
}

func bitsToUint64(bits []int) uint64 {
	var v uint64
	for i, b := range bits {
		if b != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}

func bitsToInt64(bits []int, signed bool) int64 {
	v := bitsToUint64(bits)
	if signed && len(bits) > 0 && bits[len(bits)-1] != 0 {
		v -= uint64(1) << uint(len(bits))
	}
	return int64(v)
}
