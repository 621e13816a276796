// Package algorithms implements the BMC reachability, simulation, and
// FSM consistency drivers of spec.md §4.8: sequential assemblers that
// walk a module's INIT/INVAR/TRANS sections through the compiler and
// into the time mapper/CNFiser engine, one absolute step at a time,
// and interpret the SAT kernel's answer. Grounded on
// original_source/src/algorithms/base.cc's setup walk and
// original_source/src/algorithms/mc.cc's per-section push helpers.
package algorithms

import (
	"fmt"

	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/tmap"
)

// Driver bundles everything an algorithm needs to compile and push
// one module's FSM fragments: the module context, the shared
// compiler, the CNFiser engine it pushes into, the expression pool it
// builds negated/derived formulas from, an optional cancellation poll
// (spec.md §5 "an external cancellation check polled between two
// consecutive CNF injections"), and a logger for per-step diagnostics.
type Driver struct {
	Ctx      *symtab.Context
	Compiler *compiler.Compiler
	Engine   *tmap.Engine
	Pool     *expr.Pool
	Cancel   func() bool
	Log      *diag.Logger
}

func (d *Driver) cancelled() bool {
	return d.Cancel != nil && d.Cancel()
}

func (d *Driver) logf(format string, args ...interface{}) {
	if d.Log != nil {
		d.Log.Trace(format, args...)
	}
}

// pushAssert compiles body at ctx/time, pushes its clauses into group,
// and asserts its (boolean) result true permanently. Used for
// INIT/INVAR/TRANS fragments and proven invariants, which are always
// unconditional facts once accepted.
func (d *Driver) pushAssert(time int, body *expr.Expr, group int) error {
	unit, err := d.Compiler.Process(d.Ctx, time, body)
	if err != nil {
		return err
	}
	return d.Engine.AssertUnit(unit, time, group)
}

// pushInit pushes every INIT fragment of the driver's module at step 0.
func (d *Driver) pushInit() error {
	for _, e := range d.Ctx.Current().Init {
		if err := d.pushAssert(0, e, tmap.MainGroup); err != nil {
			return err
		}
	}
	return nil
}

// pushInvar pushes every INVAR fragment at the given step.
func (d *Driver) pushInvar(step int) error {
	for _, e := range d.Ctx.Current().Invar {
		if err := d.pushAssert(step, e, tmap.MainGroup); err != nil {
			return err
		}
	}
	return nil
}

// pushTrans pushes every TRANS fragment anchored at step (TRANS bodies
// reach into step+1 themselves via NEXT, compiled through the
// time-shift case in internal/compiler).
func (d *Driver) pushTrans(step int) error {
	for _, e := range d.Ctx.Current().Trans {
		if err := d.pushAssert(step, e, tmap.MainGroup); err != nil {
			return err
		}
	}
	return nil
}

// stateBits compiles every non-input, non-temp variable of the
// driver's module at the given absolute step and concatenates their
// result bits, in declaration order. Used by loop-closure's
// uniqueness constraints (spec.md §4.7), which only ever reason about
// proper state (not inputs or scratch temporaries).
func (d *Driver) stateBits(step int) ([]*dd.Node, error) {
	var out []*dd.Node
	for _, sym := range d.Ctx.Current().Variables() {
		if sym.Flags.Has(symtab.FlagInput) || sym.Flags.Has(symtab.FlagTemp) {
			continue
		}
		ident := d.Pool.MakeIdent(sym.Name)
		unit, err := d.Compiler.Process(d.Ctx, step, ident)
		if err != nil {
			return nil, fmt.Errorf("algorithms: compiling state variable %q at step %d: %w", sym.Name, step, err)
		}
		out = append(out, unit.Result...)
	}
	return out, nil
}

// solve is a thin wrapper so every algorithm logs and checks
// cancellation the same way around a kernel Solve call.
func (d *Driver) solve(assumptions []satkernel.Lit) satkernel.Result {
	return d.Engine.Kernel.Solve(assumptions)
}
