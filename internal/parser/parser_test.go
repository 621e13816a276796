package parser

import (
	"testing"

	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/types"
)

func newParser(t *testing.T, src string) (*Parser, *atom.Pool, *expr.Pool, *types.Mgr) {
	t.Helper()
	ap := atom.NewPool()
	ep := expr.NewPool()
	tm := types.NewMgr()
	return New(src, "test.model", ap, ep, tm), ap, ep, tm
}

func TestParseCounterModule(t *testing.T) {
	src := `
MODULE main {
	VAR x : unsigned[4];
	INIT x = 0;
	TRANS next(x) = (x + 1) % 16;
}
`
	p, _, _, _ := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}

	main := model.Main()
	if main == nil {
		t.Fatal("expected main module")
	}
	vars := main.Variables()
	if len(vars) != 1 || vars[0].Name.String() != "x" {
		t.Fatalf("expected single variable x, got %v", vars)
	}
	if vars[0].Type.Kind() != types.KindUnsignedAlgebraic || vars[0].Type.Width() != 4 {
		t.Fatalf("x has wrong type: %s", vars[0].Type)
	}

	if len(main.Init) != 1 {
		t.Fatalf("expected 1 INIT statement, got %d", len(main.Init))
	}
	if main.Init[0].Tag() != expr.TagEQ {
		t.Fatalf("expected INIT to be an equality, got %s", main.Init[0])
	}

	if len(main.Trans) != 1 {
		t.Fatalf("expected 1 TRANS statement, got %d", len(main.Trans))
	}
	if main.Trans[0].Tag() != expr.TagEQ {
		t.Fatalf("expected TRANS to be an equality, got %s", main.Trans[0])
	}
	if main.Trans[0].LHS().Tag() != expr.TagNext {
		t.Fatalf("expected TRANS lhs to be next(x), got %s", main.Trans[0].LHS())
	}
}

func TestParseEnumAndArray(t *testing.T) {
	src := `
MODULE main {
	VAR color : enum { RED, GREEN, BLUE };
	VAR mem : array[4] of unsigned[8];
	INIT color = RED;
	INVAR mem[0] = 0;
}
`
	p, _, _, tm := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}

	main := model.Main()
	colorSym, ok := main.Lookup(lookupAtom(t, p, "color"))
	if !ok {
		t.Fatal("expected color variable")
	}
	if colorSym.Type.Kind() != types.KindEnum {
		t.Fatalf("color has wrong kind: %s", colorSym.Type)
	}
	if len(colorSym.Type.Literals()) != 3 {
		t.Fatalf("expected 3 enum literals, got %d", len(colorSym.Type.Literals()))
	}

	memSym, ok := main.Lookup(lookupAtom(t, p, "mem"))
	if !ok {
		t.Fatal("expected mem variable")
	}
	if memSym.Type.Kind() != types.KindArray {
		t.Fatalf("mem has wrong kind: %s", memSym.Type)
	}
	if memSym.Type.Length() != 4 {
		t.Fatalf("expected array length 4, got %d", memSym.Type.Length())
	}
	if memSym.Type.Elem() != tm.FindUnsigned(8) {
		t.Fatalf("expected array element unsigned[8], got %s", memSym.Type.Elem())
	}

	if len(main.Invar) != 1 || main.Invar[0].LHS().Tag() != expr.TagSubscr {
		t.Fatalf("expected INVAR mem[0] = 0 with subscript lhs, got %v", main.Invar)
	}
}

func TestParseLTLProperty(t *testing.T) {
	src := `
MODULE main {
	VAR go : boolean;
	VAR done : boolean;
	INVAR G(go -> F(done));
}
`
	p, _, _, _ := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	main := model.Main()
	if len(main.Invar) != 1 {
		t.Fatalf("expected 1 INVAR statement, got %d", len(main.Invar))
	}
	top := main.Invar[0]
	if top.Tag() != expr.TagG {
		t.Fatalf("expected outer G, got %s", top)
	}
	inner := top.LHS()
	if inner.Tag() != expr.TagImplies {
		t.Fatalf("expected implies inside G, got %s", inner)
	}
	if inner.RHS().Tag() != expr.TagF {
		t.Fatalf("expected F on the right of implies, got %s", inner.RHS())
	}
}

func TestParseUntilOperator(t *testing.T) {
	src := `
MODULE main {
	VAR waiting : boolean;
	VAR served : boolean;
	INVAR waiting U served;
}
`
	p, _, _, _ := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	top := model.Main().Invar[0]
	if top.Tag() != expr.TagU {
		t.Fatalf("expected TagU, got %s", top)
	}
}

func TestParseSetLiteralNonDeterminism(t *testing.T) {
	src := `
MODULE main {
	VAR x : unsigned[4];
	TRANS next(x) = { 0, 1, 2 };
}
`
	p, _, _, _ := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	rhs := model.Main().Trans[0].RHS()
	if rhs.Tag() != expr.TagSet {
		t.Fatalf("expected outer TagSet, got %s", rhs)
	}
	if rhs.RHS().Tag() != expr.TagSet {
		t.Fatalf("expected right-folded nested TagSet, got %s", rhs.RHS())
	}
}

// TestParseParameterizedModuleInstance covers the worked example of a
// parameterised module M(p) with body p + 1, instantiated as m1 = M(x):
// referring to m1.val in main's TRANS should rewrite through the
// resolver back to x + 1.
func TestParseParameterizedModuleInstance(t *testing.T) {
	src := `
MODULE M(p) {
	DEFINE val := p + 1;
}

MODULE main {
	VAR x : unsigned[4];
	VAR m1 : M(x);
	TRANS next(x) = m1.val;
}
`
	p, ap, _, _ := newParser(t, src)
	model, err := p.ParseModel()
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}

	mMod, ok := model.Module(ap.Intern("M"))
	if !ok {
		t.Fatal("expected module M")
	}
	formals := mMod.Formals()
	if len(formals) != 1 || formals[0].String() != "p" {
		t.Fatalf("expected M to have formal p, got %v", formals)
	}

	main := model.Main()
	m1, ok := main.Lookup(ap.Intern("m1"))
	if !ok {
		t.Fatal("expected m1 variable")
	}
	if m1.Type.Kind() != types.KindInstance || m1.Type.InstanceModule() != ap.Intern("M") {
		t.Fatalf("m1 has wrong type: %s", m1.Type)
	}

	pSym, ok := mMod.Lookup(ap.Intern("p"))
	if !ok {
		t.Fatal("expected parameter symbol p")
	}
	resolver := symtab.NewResolverProxy(model)
	outerCtx, actual, err := resolver.RewriteParameter(pSym)
	if err != nil {
		t.Fatalf("RewriteParameter failed: %v", err)
	}
	if outerCtx.Current() != main {
		t.Fatalf("expected outer context to be main, got %s", outerCtx.Current().Name)
	}
	if actual.Tag() != expr.TagIdent || actual.Atom().String() != "x" {
		t.Fatalf("expected actual to be ident x, got %s", actual)
	}
}

func lookupAtom(t *testing.T, p *Parser, name string) *atom.Atom {
	t.Helper()
	return p.atoms.Intern(name)
}
