package algorithms

import "github.com/sunholo/ailang/internal/diag"

// CheckLTL is the unbounded LTL model-checking algorithm slot.
// original_source/src/algorithms/ltl/ltl.cc's entire body is
// `assert(false)` — the original never implemented it either. Per
// spec.md's Non-goals ("supporting unbounded temporal verification")
// and the recorded Open Question decision in DESIGN.md, this stays an
// explicit stub reporting CodeSemLTLStub rather than silently doing
// nothing or panicking.
func (d *Driver) CheckLTL() error {
	return diag.New(diag.CodeSemLTLStub, nil,
		"unbounded LTL model checking is not implemented", nil)
}
