package algorithms

import (
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/tmap"
)

// SimStatus is the outcome of a Simulate run, matching
// original_source/src/algorithms/sim/simulation.hh's
// simulation_status_t one-for-one.
type SimStatus int

const (
	SimUnknown SimStatus = iota
	// SimInitialized means PickState found a consistent initial state.
	SimInitialized
	// SimDeadlocked means INVAR (plus any user constraints) became
	// unsatisfiable at some step: no further state exists.
	SimDeadlocked
	// SimInterrupted means the caller's cancellation poll fired.
	SimInterrupted
	// SimHalted means the supplied halting condition became
	// satisfiable at some step.
	SimHalted
	// SimDone means the simulation ran its full requested length
	// without deadlocking or halting.
	SimDone
)

func (s SimStatus) String() string {
	switch s {
	case SimInitialized:
		return "initialized"
	case SimDeadlocked:
		return "deadlocked"
	case SimInterrupted:
		return "interrupted"
	case SimHalted:
		return "halted"
	case SimDone:
		return "done"
	default:
		return "unknown"
	}
}

// SimResult is the result of a Simulate (or PickState) run.
type SimResult struct {
	Status SimStatus
	Step   int
}

// PickState implements original_source/src/algorithms/sim/simulation.hh's
// pick_state: push INIT@0 plus any extra constraints, and check that
// an initial state consistent with them exists. allsat enumeration
// (returning every satisfying assignment rather than one model) is
// not implemented — a known simplification over the original, noted
// in DESIGN.md — PickState always returns a single witness state.
func (d *Driver) PickState(constraints []*expr.Expr) (*SimResult, error) {
	if d.cancelled() {
		return &SimResult{Status: SimInterrupted, Step: 0}, nil
	}
	if err := d.pushInit(); err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if err := d.pushAssert(0, c, tmap.MainGroup); err != nil {
			return nil, err
		}
	}
	if d.solve(nil) != satkernel.SAT {
		return &SimResult{Status: SimDeadlocked, Step: 0}, nil
	}
	return &SimResult{Status: SimInitialized, Step: 0}, nil
}

// Simulate implements spec.md §4.8's simulation algorithm: push FSM
// and user constraints for up to k steps, stopping early if INVAR
// becomes unsatisfiable (SimDeadlocked), if an optional halting
// condition is satisfiable at the current step (SimHalted), or if
// cancelled (SimInterrupted); otherwise SimDone after k steps.
//
// At each step, loop-closure probes whether the current frame is
// forced identical to every earlier frame (spec.md §4.7's uniqueness
// constraints): if asserting "some state bit differs" from an earlier
// frame is itself unsatisfiable, the run has entered a cycle with no
// further distinguishable state and is reported as SimDeadlocked,
// per SPEC_FULL's simulation DEADLOCK/loop-closure path.
func (d *Driver) Simulate(haltCond *expr.Expr, constraints []*expr.Expr, k int) (*SimResult, error) {
	if err := d.pushInit(); err != nil {
		return nil, err
	}

	type frameState struct {
		step int
		bits []*dd.Node
	}
	var seen []frameState

	for step := 0; step <= k; step++ {
		if d.cancelled() {
			return &SimResult{Status: SimInterrupted, Step: step}, nil
		}

		d.logf("simulate: pushing INVAR@%d", step)
		if err := d.pushInvar(step); err != nil {
			return nil, err
		}
		for _, c := range constraints {
			if err := d.pushAssert(step, c, tmap.MainGroup); err != nil {
				return nil, err
			}
		}
		if d.solve(nil) != satkernel.SAT {
			return &SimResult{Status: SimDeadlocked, Step: step}, nil
		}

		if haltCond != nil {
			haltUnit, err := d.Compiler.Process(d.Ctx, step, haltCond)
			if err != nil {
				return nil, err
			}
			if err := d.Engine.Push(haltUnit, step, tmap.MainGroup); err != nil {
				return nil, err
			}
			haltLit := d.Engine.Literal(haltUnit.Result[0], step)
			if d.solve([]satkernel.Lit{haltLit}) == satkernel.SAT {
				return &SimResult{Status: SimHalted, Step: step}, nil
			}
		}

		bits, err := d.stateBits(step)
		if err != nil {
			return nil, err
		}
		for _, prior := range seen {
			group := d.Engine.NewGroup()
			if err := d.Engine.AssertStatesDistinct(prior.bits, prior.step, bits, step, group); err != nil {
				return nil, err
			}
			if d.solve([]satkernel.Lit{d.Engine.GroupLiteral(group)}) != satkernel.SAT {
				d.logf("simulate: frame %d forced identical to frame %d, no further distinguishable state", step, prior.step)
				return &SimResult{Status: SimDeadlocked, Step: step}, nil
			}
		}
		seen = append(seen, frameState{step: step, bits: bits})

		if step < k {
			d.logf("simulate: pushing TRANS@%d", step)
			if err := d.pushTrans(step); err != nil {
				return nil, err
			}
		}
	}

	return &SimResult{Status: SimDone, Step: k}, nil
}
