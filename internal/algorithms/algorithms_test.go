package algorithms

import (
	"testing"

	"github.com/sunholo/ailang/internal/analyzer"
	"github.com/sunholo/ailang/internal/atom"
	"github.com/sunholo/ailang/internal/compiler"
	"github.com/sunholo/ailang/internal/dd"
	"github.com/sunholo/ailang/internal/encoding"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/microcode"
	"github.com/sunholo/ailang/internal/satkernel"
	"github.com/sunholo/ailang/internal/symtab"
	"github.com/sunholo/ailang/internal/tmap"
	"github.com/sunholo/ailang/internal/types"
)

// counterFixture builds the worked-example model: module main with one
// unsigned[2] variable x, INIT x = 0, TRANS next(x) = x + 1.
func counterFixture(t *testing.T) (*Driver, *expr.Pool, *atom.Pool, *types.Mgr) {
	t.Helper()
	ap := atom.NewPool()
	ep := expr.NewPool()
	tm := types.NewMgr()
	model := symtab.NewModel()
	main := symtab.NewModule(ap.Intern("main"))
	if err := model.AddModule(main); err != nil {
		t.Fatal(err)
	}

	xName := ap.Intern("x")
	xType := tm.FindUnsigned(2)
	if err := main.Declare(&symtab.Symbol{Kind: symtab.KindVariable, Name: xName, Type: xType}); err != nil {
		t.Fatal(err)
	}
	xIdent := ep.MakeIdent(xName)

	main.Init = append(main.Init, ep.MakeBinary(expr.TagEQ, xIdent, ep.MakeConst(expr.Const{Value: 0})))
	main.Trans = append(main.Trans, ep.MakeBinary(expr.TagEQ,
		ep.MakeUnary(expr.TagNext, xIdent),
		ep.MakeBinary(expr.TagPlus, xIdent, ep.MakeConst(expr.Const{Value: 1}))))

	r := symtab.NewResolverProxy(model)
	an := analyzer.New(tm, r)
	ddm := dd.NewMgr()
	enc := encoding.NewMgr()
	comp := compiler.New(ddm, enc, tm, r, an)

	k := satkernel.NewKernel()
	tmr := tmap.NewTimeMapper(k)
	mc := microcode.NewCache("")
	engine := tmap.NewEngine(k, tmr, mc, ddm, enc)

	d := &Driver{
		Ctx:      symtab.RootContext(main),
		Compiler: comp,
		Engine:   engine,
		Pool:     ep,
	}
	return d, ep, ap, tm
}

func TestBMCReachabilityFindsCounterexampleAtWraparound(t *testing.T) {
	d, ep, ap, _ := counterFixture(t)

	property := ep.MakeBinary(expr.TagNE, ep.MakeIdent(ap.Intern("x")), ep.MakeConst(expr.Const{Value: 3}))
	result, err := d.BMCReachability(property, 3)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != BMCCounterexample {
		t.Fatalf("status = %s, want counterexample", result.Status)
	}
	if result.Step != 3 {
		t.Fatalf("violating step = %d, want 3 (x wraps to 3 after three increments from 0)", result.Step)
	}
}

func TestBMCReachabilityInconclusiveWhenPropertyHolds(t *testing.T) {
	d, ep, ap, _ := counterFixture(t)

	// x is never equal to 7 within an unsigned[2] (0..3) range.
	property := ep.MakeBinary(expr.TagNE, ep.MakeIdent(ap.Intern("x")), ep.MakeConst(expr.Const{Value: 7}))
	result, err := d.BMCReachability(property, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != BMCInconclusive {
		t.Fatalf("status = %s, want inconclusive", result.Status)
	}
	if result.Step != 2 {
		t.Fatalf("step = %d, want cap 2", result.Step)
	}
}

func TestCheckInitOK(t *testing.T) {
	d, _, _, _ := counterFixture(t)
	status, err := d.CheckInit()
	if err != nil {
		t.Fatal(err)
	}
	if status != ConsistencyOK {
		t.Fatalf("CheckInit() = %s, want OK", status)
	}
}

func TestCheckTransOK(t *testing.T) {
	d, _, _, _ := counterFixture(t)
	status, err := d.CheckTrans()
	if err != nil {
		t.Fatal(err)
	}
	if status != ConsistencyOK {
		t.Fatalf("CheckTrans() = %s, want OK", status)
	}
}

func TestSimulateDoneWithoutHaltCondition(t *testing.T) {
	d, _, _, _ := counterFixture(t)
	result, err := d.Simulate(nil, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != SimDone {
		t.Fatalf("Simulate() = %s, want done", result.Status)
	}
	if result.Step != 2 {
		t.Fatalf("Simulate() step = %d, want 2", result.Step)
	}
}

func TestSimulateDeadlocksOnLoopClosure(t *testing.T) {
	d, _, _, _ := counterFixture(t)
	// x cycles with period 4 (0,1,2,3,0,1,...); by step 4 the state
	// repeats step 0 exactly, so loop-closure must report a deadlock
	// before step 5 is reached.
	result, err := d.Simulate(nil, nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != SimDeadlocked {
		t.Fatalf("Simulate() = %s, want deadlocked (loop closure)", result.Status)
	}
	if result.Step != 4 {
		t.Fatalf("Simulate() loop-closure step = %d, want 4", result.Step)
	}
}

func TestCheckLTLReturnsStub(t *testing.T) {
	d, _, _, _ := counterFixture(t)
	if err := d.CheckLTL(); err == nil {
		t.Fatal("expected CheckLTL to report the unimplemented-LTL stub error")
	}
}
