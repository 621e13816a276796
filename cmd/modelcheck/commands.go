package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/sunholo/ailang/internal/algorithms"
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/dump"
	"github.com/sunholo/ailang/internal/expr"
	"github.com/sunholo/ailang/internal/manifest"
	"github.com/sunholo/ailang/internal/parser"
	"github.com/sunholo/ailang/internal/witness"
)

// commandSet is everything HandleCommand needs: the mutable session
// pointer (read-model replaces it wholesale on reload) and the shared
// logger. Grounded on internal/repl.REPL's bundling of mutable
// interpreter state behind one receiver every command method uses.
type commandSet struct {
	sess         *Session
	microcodeDir string
	log          *diag.Logger
}

func (cs *commandSet) requireSession() (*Session, error) {
	if cs.sess == nil {
		return nil, diag.New(diag.CodeCmdNoModel, nil, "no model loaded; use read-model <file> first", nil)
	}
	return cs.sess, nil
}

// readProperty parses text as a standalone expression by embedding it
// in a throwaway module's INVAR statement and pulling the expression
// back out. internal/parser has no entry point for parsing a bare
// expression outside a module section, and manufacturing one here
// would duplicate parseExpr's precedence table for no benefit — this
// reuses it as-is, against the session's own atom/expr/type pools so
// identifiers resolve against the already-loaded model.
func readProperty(sess *Session, text string) (*expr.Expr, error) {
	src := fmt.Sprintf("MODULE __query__ { INVAR %s; }", text)
	p := parser.New(src, "<command>", sess.Atoms, sess.Exprs, sess.Types)
	if _, err := p.ParseModel(); err != nil {
		return nil, err
	}
	q, ok := sess.Model.Module(sess.Atoms.Intern("__query__"))
	if !ok || len(q.Invar) == 0 {
		return nil, diag.New(diag.CodeCmdIllFormed, nil, "expected an expression", nil)
	}
	return q.Invar[len(q.Invar)-1], nil
}

func cmdReadModel(cs *commandSet, path string, out io.Writer) error {
	sess, err := LoadSessionFile(path, cs.microcodeDir, cs.log)
	if err != nil {
		return err
	}
	cs.sess = sess
	fmt.Fprintf(out, "%s %s (%d module(s))\n", green("loaded"), path, len(sess.Model.Modules()))
	return nil
}

func cmdDumpModel(cs *commandSet, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	DumpModel(out, sess.Model)
	return nil
}

func cmdWriteModel(cs *commandSet, path string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	if path == "" {
		WriteModel(out, sess.Model)
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write-model: %w", err)
	}
	defer f.Close()
	WriteModel(f, sess.Model)
	fmt.Fprintf(out, "%s %s\n", green("wrote"), path)
	return nil
}

func cmdCheckInit(cs *commandSet, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	status, err := sess.Driver(nil).CheckInit()
	if err != nil {
		return err
	}
	printConsistency(out, "check-init", status)
	return nil
}

func cmdCheckInvar(cs *commandSet, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	status, err := sess.Driver(nil).CheckInvar()
	if err != nil {
		return err
	}
	printConsistency(out, "check-invar", status)
	return nil
}

func cmdCheckTrans(cs *commandSet, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	status, err := sess.Driver(nil).CheckTrans()
	if err != nil {
		return err
	}
	printConsistency(out, "check-trans", status)
	return nil
}

func printConsistency(out io.Writer, name string, status algorithms.ConsistencyStatus) {
	switch status {
	case algorithms.ConsistencyOK:
		fmt.Fprintf(out, "%s: %s\n", name, green(status.String()))
	case algorithms.ConsistencyKO:
		fmt.Fprintf(out, "%s: %s\n", name, red(status.String()))
	default:
		fmt.Fprintf(out, "%s: %s\n", name, yellow(status.String()))
	}
}

// cmdVerify implements `verify <property> [bound]`: bounded
// reachability of the negated property, per spec.md §4.8. A trailing
// argument that parses as an integer is taken as the bound; everything
// before it is the property text.
func cmdVerify(cs *commandSet, args []string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return diag.New(diag.CodeCmdIllFormed, nil, "usage: verify <property> [bound]", nil)
	}
	cap := 16
	propText := strings.Join(args, " ")
	if n := len(args); n > 1 {
		if b, convErr := strconv.Atoi(args[n-1]); convErr == nil {
			cap = b
			propText = strings.Join(args[:n-1], " ")
		}
	}
	prop, err := readProperty(sess, propText)
	if err != nil {
		return err
	}
	result, err := sess.Driver(nil).BMCReachability(prop, cap)
	if err != nil {
		return err
	}
	switch result.Status {
	case algorithms.BMCCounterexample:
		fmt.Fprintf(out, "verify: %s at step %d\n", red(result.Status.String()), result.Step)
	case algorithms.BMCInconclusive:
		fmt.Fprintf(out, "verify: %s (no counterexample within bound %d)\n", yellow(result.Status.String()), cap)
	default:
		fmt.Fprintf(out, "verify: %s\n", yellow(result.Status.String()))
	}
	return nil
}

func cmdSimulate(cs *commandSet, args []string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	k := 10
	if len(args) > 0 {
		if b, convErr := strconv.Atoi(args[0]); convErr == nil {
			k = b
		}
	}
	result, err := sess.Driver(nil).Simulate(nil, nil, k)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "simulate: %s at step %d\n", simColor(result.Status), result.Step)
	return dumpTraceTo(sess, out, dump.FormatPlain, result.Step)
}

func cmdPickState(cs *commandSet, args []string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	var constraints []*expr.Expr
	if len(args) > 0 {
		e, err := readProperty(sess, strings.Join(args, " "))
		if err != nil {
			return err
		}
		constraints = append(constraints, e)
	}
	result, err := sess.Driver(nil).PickState(constraints)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pick-state: %s\n", simColor(result.Status))
	if result.Status == algorithms.SimInitialized {
		return dumpTraceTo(sess, out, dump.FormatPlain, 0)
	}
	return nil
}

func simColor(s algorithms.SimStatus) string {
	switch s {
	case algorithms.SimDeadlocked, algorithms.SimInterrupted:
		return red(s.String())
	case algorithms.SimDone, algorithms.SimHalted, algorithms.SimInitialized:
		return green(s.String())
	default:
		return yellow(s.String())
	}
}

func cmdDumpTrace(cs *commandSet, args []string, out io.Writer) error {
	sess, err := cs.requireSession()
	if err != nil {
		return err
	}
	format := dump.FormatPlain
	k := 0
	for _, a := range args {
		if f, ferr := dump.ParseFormat(a); ferr == nil {
			format = f
			continue
		}
		if b, convErr := strconv.Atoi(a); convErr == nil {
			k = b
		}
	}
	return dumpTraceTo(sess, out, format, k)
}

func dumpTraceTo(sess *Session, out io.Writer, format dump.Format, k int) error {
	w, err := witness.Build(sess.ModelPath, sess.Ctx, sess.Compiler, sess.Engine, sess.Encoding, sess.Exprs, k)
	if err != nil {
		return err
	}
	return dump.Dump(out, w, format, dump.NewRunID())
}

// cmdRunManifest implements a batch regression mode over a
// manifest.Manifest: every Run's algorithm is invoked against its own
// model and the outcome compared to Run.Expected, the same shape as a
// CI-driven example-suite run.
func cmdRunManifest(cs *commandSet, path string, out io.Writer) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	pass, fail := 0, 0
	for _, run := range m.Runs {
		sess, err := LoadSessionFile(run.ModelPath, cs.microcodeDir, cs.log)
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", red("ERROR"), run.ModelPath, err)
			fail++
			continue
		}
		outcome, detail, err := runOne(sess, run)
		if err != nil {
			fmt.Fprintf(out, "%s %s/%s: %v\n", red("ERROR"), run.ModelPath, run.Algorithm, err)
			fail++
			continue
		}
		want := manifest.OutcomeUnknown
		if run.Expected != nil {
			want = run.Expected.Outcome
		}
		if outcome == want {
			fmt.Fprintf(out, "%s %s/%s: %s\n", green("PASS"), run.ModelPath, run.Algorithm, detail)
			pass++
		} else {
			fmt.Fprintf(out, "%s %s/%s: got %s want %s (%s)\n", red("FAIL"), run.ModelPath, run.Algorithm, outcome, want, detail)
			fail++
		}
	}
	fmt.Fprintf(out, "%d passed, %d failed\n", pass, fail)
	return nil
}

func runOne(sess *Session, run manifest.Run) (manifest.Outcome, string, error) {
	d := sess.Driver(nil)
	switch run.Algorithm {
	case manifest.AlgoCheckInit:
		s, err := d.CheckInit()
		return consistencyOutcome(s), s.String(), err
	case manifest.AlgoCheckInvar:
		s, err := d.CheckInvar()
		return consistencyOutcome(s), s.String(), err
	case manifest.AlgoCheckTrans:
		s, err := d.CheckTrans()
		return consistencyOutcome(s), s.String(), err
	case manifest.AlgoSimulate:
		r, err := d.Simulate(nil, nil, run.Bound)
		if err != nil {
			return manifest.OutcomeError, "", err
		}
		return simOutcome(r.Status), r.Status.String(), nil
	case manifest.AlgoBMC, manifest.AlgoVerify:
		prop, err := readProperty(sess, run.Property)
		if err != nil {
			return manifest.OutcomeError, "", err
		}
		r, err := d.BMCReachability(prop, run.Bound)
		if err != nil {
			return manifest.OutcomeError, "", err
		}
		return bmcOutcome(r.Status), r.Status.String(), nil
	default:
		return manifest.OutcomeError, "", fmt.Errorf("unknown algorithm %q", run.Algorithm)
	}
}

func consistencyOutcome(s algorithms.ConsistencyStatus) manifest.Outcome {
	switch s {
	case algorithms.ConsistencyOK:
		return manifest.OutcomeVerified
	case algorithms.ConsistencyKO:
		return manifest.OutcomeFalsified
	default:
		return manifest.OutcomeUnknown
	}
}

func simOutcome(s algorithms.SimStatus) manifest.Outcome {
	switch s {
	case algorithms.SimDone, algorithms.SimHalted, algorithms.SimInitialized:
		return manifest.OutcomeVerified
	case algorithms.SimDeadlocked:
		return manifest.OutcomeFalsified
	default:
		return manifest.OutcomeUnknown
	}
}

func bmcOutcome(s algorithms.BMCStatus) manifest.Outcome {
	switch s {
	case algorithms.BMCCounterexample:
		return manifest.OutcomeFalsified
	case algorithms.BMCInconclusive:
		return manifest.OutcomeVerified
	default:
		return manifest.OutcomeUnknown
	}
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)
