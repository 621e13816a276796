package analyzer

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/symtab"
)

// Section discriminates the three FSM sections plus DEFINE bodies, for
// the placement rules of spec.md §4.3.
type Section int

const (
	SectionInit Section = iota
	SectionInvar
	SectionTrans
	SectionDefine
)

// CheckVariableFlags enforces spec.md §3/§4.3: input, frozen and
// inertial are pairwise exclusive on a single variable.
func CheckVariableFlags(sym *symtab.Symbol) error {
	f := sym.Flags
	conflicts := 0
	if f.Has(symtab.FlagInput) {
		conflicts++
	}
	if f.Has(symtab.FlagFrozen) {
		conflicts++
	}
	if f.Has(symtab.FlagInertial) {
		conflicts++
	}
	if conflicts > 1 {
		return &CheckError{Code: diag.CodeSemFlagConflict, Msg: "variable " + sym.QualifiedName() + " combines input, frozen and/or inertial flags"}
	}
	return nil
}

// isAssignment reports whether e has the shape EQ(NEXT(lvalue), rhs),
// the model's only notion of a state-update constraint.
func isAssignment(e *expr.Expr) (lvalue *expr.Expr, ok bool) {
	if e.Tag() != expr.TagEQ {
		return nil, false
	}
	lhs := e.LHS()
	if lhs.Tag() != expr.TagNext {
		return nil, false
	}
	return lhs.LHS(), true
}

// isGuardedAction reports whether e has the shape
// IMPLIES(guard, assignment-or-conjunction-of-assignments).
func isGuardedAction(e *expr.Expr) bool {
	if e.Tag() != expr.TagImplies {
		return false
	}
	return containsAssignment(e.RHS())
}

func containsAssignment(e *expr.Expr) bool {
	if e == nil {
		return false
	}
	if _, ok := isAssignment(e); ok {
		return true
	}
	if e.Tag() == expr.TagAnd {
		return containsAssignment(e.LHS()) || containsAssignment(e.RHS())
	}
	return false
}

// CheckSectionBody validates the top-level shape of a section body's
// conjuncts against spec.md §4.3's placement rules: assignments and
// guarded actions are TRANS-only; INIT/INVAR/DEFINE reject them
// anywhere in the expression, not just at top level.
func (a *Analyzer) CheckSectionBody(ctx *symtab.Context, section Section, e *expr.Expr) error {
	switch section {
	case SectionTrans:
		return a.checkTransConjunct(ctx, e)
	default:
		if containsAssignmentDeep(e) {
			return &CheckError{Code: diag.CodeSemBadSection, Node: e, Msg: "assignment or guarded action is only permitted in TRANS"}
		}
		_, err := a.Infer(ctx, e)
		return err
	}
}

func containsAssignmentDeep(e *expr.Expr) bool {
	if e == nil {
		return false
	}
	if _, ok := isAssignment(e); ok {
		return true
	}
	if isGuardedAction(e) {
		return true
	}
	return containsAssignmentDeep(e.LHS()) || containsAssignmentDeep(e.RHS())
}

// checkTransConjunct recurses through top-level AND-conjunctions of a
// TRANS body, validating each conjunct as either a plain boolean
// constraint, an assignment, or a guarded action.
func (a *Analyzer) checkTransConjunct(ctx *symtab.Context, e *expr.Expr) error {
	switch {
	case e.Tag() == expr.TagAnd:
		if err := a.checkTransConjunct(ctx, e.LHS()); err != nil {
			return err
		}
		return a.checkTransConjunct(ctx, e.RHS())

	case e.Tag() == expr.TagImplies && containsAssignment(e.RHS()):
		if _, err := a.expectBoolean(ctx, e.LHS(), e); err != nil {
			return err
		}
		return a.checkTransConjunct(ctx, e.RHS())

	default:
		if lvalue, ok := isAssignment(e); ok {
			if err := a.checkLvalue(ctx, lvalue, e); err != nil {
				return err
			}
			rt, err := a.Infer(ctx, e.RHS())
			if err != nil {
				return err
			}
			lt, err := a.Infer(ctx, lvalue)
			if err != nil {
				return err
			}
			if lt != rt && rt != a.Types.IntConst() {
				return &CheckError{Code: diag.CodeTypMismatch, Node: e, Msg: "assignment type mismatch"}
			}
			return nil
		}
		_, err := a.Infer(ctx, e)
		return err
	}
}

// checkLvalue implements spec.md §4.3: the assigned variable must be
// inertial, and must be neither an input nor a frozen variable.
func (a *Analyzer) checkLvalue(ctx *symtab.Context, lvalue, reportNode *expr.Expr) error {
	sym, _, err := a.Resolver.ResolveDot(ctx, lvalue)
	if err != nil {
		return err
	}
	if sym.Kind != symtab.KindVariable {
		return &CheckError{Code: diag.CodeSemNotLvalue, Node: reportNode, Msg: "assignment target " + sym.QualifiedName() + " is not a variable"}
	}
	if sym.Flags.Has(symtab.FlagInput) || sym.Flags.Has(symtab.FlagFrozen) {
		return &CheckError{Code: diag.CodeSemBadAssignment, Node: reportNode, Msg: "cannot assign to input or frozen variable " + sym.QualifiedName()}
	}
	if !sym.Flags.Has(symtab.FlagInertial) {
		return &CheckError{Code: diag.CodeSemNotLvalue, Node: reportNode, Msg: "assignment target " + sym.QualifiedName() + " must be inertial"}
	}
	return nil
}

// CheckModule validates every section of mod in turn.
func (a *Analyzer) CheckModule(ctx *symtab.Context, mod *symtab.Module) error {
	for _, sym := range mod.Variables() {
		if err := CheckVariableFlags(sym); err != nil {
			return err
		}
	}
	for _, e := range mod.Init {
		if err := a.CheckSectionBody(ctx, SectionInit, e); err != nil {
			return err
		}
	}
	for _, e := range mod.Invar {
		if err := a.CheckSectionBody(ctx, SectionInvar, e); err != nil {
			return err
		}
	}
	for _, e := range mod.Trans {
		if err := a.CheckSectionBody(ctx, SectionTrans, e); err != nil {
			return err
		}
	}
	return nil
}
