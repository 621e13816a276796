package algorithms

import (
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/tmap"
)

// BMCStatus is the outcome of one BMCReachability run.
type BMCStatus int

const (
	BMCUnknown BMCStatus = iota
	// BMCCounterexample means the negated property was satisfiable at
	// some step <= the run's bound: a trace violating it exists.
	BMCCounterexample
	// BMCInconclusive means no counterexample was found up to the
	// user-supplied cap. Per spec.md's Non-goals this is never
	// promoted to a proof of safety beyond the cap.
	BMCInconclusive
	// BMCInterrupted means the caller's cancellation poll fired before
	// a counterexample was found.
	BMCInterrupted
)

func (s BMCStatus) String() string {
	switch s {
	case BMCCounterexample:
		return "counterexample"
	case BMCInconclusive:
		return "inconclusive"
	case BMCInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// BMCResult is the result of a BMCReachability run: the status plus
// the step it was determined at (the violating step for a
// counterexample, the cap for an inconclusive run, or the step
// reached so far for an interruption).
type BMCResult struct {
	Status BMCStatus
	Step   int
}

// BMCReachability implements spec.md §4.8's bounded reachability
// check for invariant property: at each step k from 0 upward, push
// INIT@0 (once), INVAR@0..k, TRANS@0..k-1, then the negated property
// in a retractable group, assumed true. SAT means property is
// violated at k; UNSAT means property holds at k, so it is asserted
// as a permanent invariant and the bound is advanced. Stops at cap.
// Grounded on original_source/src/algorithms/mc.cc's
// f_violation_add/f_invariant_add split.
func (d *Driver) BMCReachability(property *expr.Expr, cap int) (*BMCResult, error) {
	if err := d.pushInit(); err != nil {
		return nil, err
	}

	negated := d.Pool.MakeUnary(expr.TagNot, property)

	for k := 0; k <= cap; k++ {
		if d.cancelled() {
			return &BMCResult{Status: BMCInterrupted, Step: k}, nil
		}

		d.logf("bmc: pushing INVAR@%d", k)
		if err := d.pushInvar(k); err != nil {
			return nil, err
		}
		if k > 0 {
			d.logf("bmc: pushing TRANS@%d", k-1)
			if err := d.pushTrans(k - 1); err != nil {
				return nil, err
			}
		}

		group := d.Engine.NewGroup()
		violUnit, err := d.Compiler.Process(d.Ctx, k, negated)
		if err != nil {
			return nil, err
		}
		if err := d.Engine.Push(violUnit, k, group); err != nil {
			return nil, err
		}
		violLit := d.Engine.Literal(violUnit.Result[0], k)

		d.logf("bmc: solving violation @%d", k)
		if d.solve([]satkernel.Lit{d.Engine.GroupLiteral(group), violLit}) == satkernel.SAT {
			return &BMCResult{Status: BMCCounterexample, Step: k}, nil
		}

		if err := d.pushAssert(k, property, tmap.MainGroup); err != nil {
			return nil, err
		}
	}

	return &BMCResult{Status: BMCInconclusive, Step: cap}, nil
}
