package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sunholo/ailang/internal/diag"
)

const counterSrc = `
MODULE main {
	VAR x : unsigned[4];
	INIT x = 0;
	TRANS next(x) = (x + 1) % 16;
}
`

func newTestSession(t *testing.T, src string) *Session {
	t.Helper()
	log := diag.NewLogger(nil, diag.LevelSilent)
	sess, err := NewSession(src, "<test>", "", log)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestCheckInitOK(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	if err := dispatch(cs, "check-init", &buf); err != nil {
		t.Fatalf("check-init: %v", err)
	}
	if !strings.Contains(buf.String(), "check-init") {
		t.Errorf("output missing command name: %q", buf.String())
	}
}

func TestCheckTransOK(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	if err := dispatch(cs, "check-trans", &buf); err != nil {
		t.Fatalf("check-trans: %v", err)
	}
}

func TestVerifyBoundedCounterexample(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	if err := dispatch(cs, "verify x = 3 8", &buf); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(buf.String(), "verify:") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestDumpModelListsVariable(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	if err := dispatch(cs, "dump-model", &buf); err != nil {
		t.Fatalf("dump-model: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "main") || !strings.Contains(out, "x") {
		t.Errorf("dump-model output missing expected content: %q", out)
	}
}

func TestWriteModelRoundTripsThroughParser(t *testing.T) {
	sess := newTestSession(t, counterSrc)
	var buf bytes.Buffer
	WriteModel(&buf, sess.Model)

	reparsed, err := NewSession(buf.String(), "<roundtrip>", "", nil)
	if err != nil {
		t.Fatalf("re-parsing written model: %v\n---\n%s", err, buf.String())
	}
	if reparsed.Main.Name.String() != "main" {
		t.Errorf("expected main module, got %s", reparsed.Main.Name)
	}
}

func TestRequireSessionWithoutModel(t *testing.T) {
	cs := &commandSet{}
	var buf bytes.Buffer
	err := dispatch(cs, "check-init", &buf)
	if err == nil {
		t.Fatal("expected error with no model loaded")
	}
	if !strings.Contains(err.Error(), "no model loaded") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	err := dispatch(cs, "frobnicate", &buf)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestOnCommandDispatchesThenBranch(t *testing.T) {
	cs := &commandSet{sess: newTestSession(t, counterSrc)}
	var buf bytes.Buffer
	if err := dispatch(cs, "on x = 0 then dump-model else check-init", &buf); err != nil {
		t.Fatalf("on: %v", err)
	}
	if !strings.Contains(buf.String(), "module main") {
		t.Errorf("expected then-branch (dump-model) output, got %q", buf.String())
	}
}
