package symtab

import (
	"testing"

	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/types"
)

func TestResolveLocalAndClimb(t *testing.T) {
	ap := atom.NewPool()
	tm := types.NewMgr()

	model := NewModel()
	main := NewModule(ap.Intern("main"))
	x := &Symbol{Kind: KindVariable, Name: ap.Intern("x"), Type: tm.FindUnsigned(4)}
	if err := main.Declare(x); err != nil {
		t.Fatal(err)
	}
	if err := model.AddModule(main); err != nil {
		t.Fatal(err)
	}

	sub := NewModule(ap.Intern("Sub"))
	if err := model.AddModule(sub); err != nil {
		t.Fatal(err)
	}

	inst := &Symbol{Kind: KindVariable, Name: ap.Intern("s1"), Type: tm.FindInstance(ap.Intern("Sub"))}
	if err := main.Declare(inst); err != nil {
		t.Fatal(err)
	}

	r := NewResolverProxy(model)
	rootCtx := RootContext(main)
	subCtx := rootCtx.Descend(sub)

	// x is not local to Sub, but resolves by climbing to main.
	sym, _, err := r.Resolve(subCtx, ap.Intern("x"))
	if err != nil {
		t.Fatalf("expected climb to find x: %v", err)
	}
	if sym != x {
		t.Fatalf("expected to resolve to the same Symbol by climbing")
	}

	// Unknown identifier fails even after exhausting the stack.
	_, _, err = r.Resolve(subCtx, ap.Intern("nope"))
	if err == nil {
		t.Fatalf("expected ErrUnresolvedSymbol")
	}
}

func TestResolveDotIntoInstance(t *testing.T) {
	ap := atom.NewPool()
	ep := expr.NewPool()
	tm := types.NewMgr()

	model := NewModel()
	main := NewModule(ap.Intern("main"))
	sub := NewModule(ap.Intern("Sub"))
	model.AddModule(main)
	model.AddModule(sub)

	y := &Symbol{Kind: KindVariable, Name: ap.Intern("y"), Type: tm.FindUnsigned(2)}
	if err := sub.Declare(y); err != nil {
		t.Fatal(err)
	}
	inst := &Symbol{Kind: KindVariable, Name: ap.Intern("s1"), Type: tm.FindInstance(ap.Intern("Sub"))}
	if err := main.Declare(inst); err != nil {
		t.Fatal(err)
	}

	r := NewResolverProxy(model)
	rootCtx := RootContext(main)

	qname := ep.MakeBinary(expr.TagDot, ep.MakeIdent(ap.Intern("s1")), ep.MakeIdent(ap.Intern("y")))
	sym, ctx, err := r.ResolveDot(rootCtx, qname)
	if err != nil {
		t.Fatalf("ResolveDot failed: %v", err)
	}
	if sym != y {
		t.Fatalf("expected to resolve s1.y to Sub's y symbol")
	}
	if ctx.Current() != sub {
		t.Fatalf("expected descended context to be Sub")
	}
}

func TestRewriteParameter(t *testing.T) {
	ap := atom.NewPool()
	ep := expr.NewPool()
	tm := types.NewMgr()

	model := NewModel()
	main := NewModule(ap.Intern("main"))
	mMod := NewModule(ap.Intern("M"))
	model.AddModule(main)
	model.AddModule(mMod)

	p := &Symbol{Kind: KindParameter, Name: ap.Intern("p"), Type: tm.IntConst()}
	if err := mMod.Declare(p); err != nil {
		t.Fatal(err)
	}

	x := &Symbol{Kind: KindVariable, Name: ap.Intern("x"), Type: tm.FindUnsigned(4)}
	main.Declare(x)

	inst := &Symbol{Kind: KindVariable, Name: ap.Intern("m1"), Type: tm.FindInstance(ap.Intern("M"))}
	main.Declare(inst)

	actual := ep.MakeIdent(ap.Intern("x"))
	rootCtx := RootContext(main)
	BindInstance(mMod, inst, rootCtx, []*expr.Expr{actual})

	r := NewResolverProxy(model)
	outerCtx, rewritten, err := r.RewriteParameter(p)
	if err != nil {
		t.Fatalf("RewriteParameter failed: %v", err)
	}
	if rewritten != actual {
		t.Fatalf("expected rewritten expr to be the actual argument")
	}
	if outerCtx.Current() != main {
		t.Fatalf("expected outer context to be main")
	}
}
