package analyzer

import (
	"testing"

	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/symtab"
)

func TestCheckVariableFlagsRejectsConflict(t *testing.T) {
	sym := &symtab.Symbol{Flags: symtab.FlagInput | symtab.FlagInertial}
	if err := CheckVariableFlags(sym); err == nil {
		t.Fatal("expected input+inertial to be rejected")
	}
}

func TestCheckVariableFlagsAllowsSingle(t *testing.T) {
	sym := &symtab.Symbol{Flags: symtab.FlagInertial}
	if err := CheckVariableFlags(sym); err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}
}

func TestCheckSectionBodyRejectsAssignmentInInit(t *testing.T) {
	f := newFixture(t)
	x := f.declareVar(t, "x", f.tm.FindUnsigned(4), symtab.FlagInertial)
	_ = x

	assign := f.ep.MakeBinary(expr.TagEQ,
		f.ep.MakeUnary(expr.TagNext, f.ep.MakeIdent(f.ap.Intern("x"))),
		f.ep.MakeConst(expr.Const{Value: 1}))

	if err := f.an.CheckSectionBody(f.ctx, SectionInit, assign); err == nil {
		t.Fatal("expected assignment in INIT to be rejected")
	}
}

func TestCheckSectionBodyAcceptsAssignmentInTrans(t *testing.T) {
	f := newFixture(t)
	f.declareVar(t, "x", f.tm.FindUnsigned(4), symtab.FlagInertial)

	assign := f.ep.MakeBinary(expr.TagEQ,
		f.ep.MakeUnary(expr.TagNext, f.ep.MakeIdent(f.ap.Intern("x"))),
		f.ep.MakeConst(expr.Const{Value: 1}))

	if err := f.an.CheckSectionBody(f.ctx, SectionTrans, assign); err != nil {
		t.Fatalf("expected assignment in TRANS to be accepted, got %v", err)
	}
}

func TestCheckSectionBodyRejectsAssignmentToInputVariable(t *testing.T) {
	f := newFixture(t)
	f.declareVar(t, "x", f.tm.FindUnsigned(4), symtab.FlagInput)

	assign := f.ep.MakeBinary(expr.TagEQ,
		f.ep.MakeUnary(expr.TagNext, f.ep.MakeIdent(f.ap.Intern("x"))),
		f.ep.MakeConst(expr.Const{Value: 1}))

	if err := f.an.CheckSectionBody(f.ctx, SectionTrans, assign); err == nil {
		t.Fatal("expected assignment to an input variable to be rejected")
	}
}

func TestCheckSectionBodyAcceptsGuardedAction(t *testing.T) {
	f := newFixture(t)
	f.declareVar(t, "go", f.tm.Boolean(), 0)
	f.declareVar(t, "x", f.tm.FindUnsigned(4), symtab.FlagInertial)

	assign := f.ep.MakeBinary(expr.TagEQ,
		f.ep.MakeUnary(expr.TagNext, f.ep.MakeIdent(f.ap.Intern("x"))),
		f.ep.MakeConst(expr.Const{Value: 1}))
	guarded := f.ep.MakeBinary(expr.TagImplies, f.ep.MakeIdent(f.ap.Intern("go")), assign)

	if err := f.an.CheckSectionBody(f.ctx, SectionTrans, guarded); err != nil {
		t.Fatalf("expected guarded action in TRANS to be accepted, got %v", err)
	}
}

func TestCheckModuleCatchesFlagConflictAcrossWholeModule(t *testing.T) {
	f := newFixture(t)
	f.declareVar(t, "x", f.tm.FindUnsigned(4), symtab.FlagInput|symtab.FlagFrozen)

	if err := f.an.CheckModule(f.ctx, f.mod.Main()); err == nil {
		t.Fatal("expected CheckModule to surface the flag conflict")
	}
}
