package algorithms

import "github.com/sunholo/ailang/internal/satkernel"

// ConsistencyStatus is the outcome of an FSM consistency check,
// matching original_source/src/cmd/commands/check_init.cc's
// FSM_CONSISTENCY_OK/KO/UNDECIDED three-way result.
type ConsistencyStatus int

const (
	ConsistencyUndecided ConsistencyStatus = iota
	ConsistencyOK
	ConsistencyKO
)

func (s ConsistencyStatus) String() string {
	switch s {
	case ConsistencyOK:
		return "OK"
	case ConsistencyKO:
		return "KO"
	default:
		return "??"
	}
}

// CheckInit implements `check-init` (spec.md §4.8): INIT is consistent
// iff the conjunction of its fragments is satisfiable on its own.
func (d *Driver) CheckInit() (ConsistencyStatus, error) {
	if d.cancelled() {
		return ConsistencyUndecided, nil
	}
	if err := d.pushInit(); err != nil {
		return ConsistencyUndecided, err
	}
	if d.solve(nil) == satkernel.SAT {
		return ConsistencyOK, nil
	}
	return ConsistencyKO, nil
}

// CheckInvar implements `check-invar`: INVAR is consistent iff it is
// jointly satisfiable together with INIT at step 0 (an INVAR that
// contradicts every initial state can never hold).
func (d *Driver) CheckInvar() (ConsistencyStatus, error) {
	if d.cancelled() {
		return ConsistencyUndecided, nil
	}
	if err := d.pushInit(); err != nil {
		return ConsistencyUndecided, err
	}
	if err := d.pushInvar(0); err != nil {
		return ConsistencyUndecided, err
	}
	if d.solve(nil) == satkernel.SAT {
		return ConsistencyOK, nil
	}
	return ConsistencyKO, nil
}

// CheckTrans implements `check-trans`: TRANS is consistent iff some
// step-0-to-step-1 transition exists that also respects INVAR at both
// ends, starting from a consistent initial state.
func (d *Driver) CheckTrans() (ConsistencyStatus, error) {
	if d.cancelled() {
		return ConsistencyUndecided, nil
	}
	if err := d.pushInit(); err != nil {
		return ConsistencyUndecided, err
	}
	if err := d.pushInvar(0); err != nil {
		return ConsistencyUndecided, err
	}
	if err := d.pushTrans(0); err != nil {
		return ConsistencyUndecided, err
	}
	if err := d.pushInvar(1); err != nil {
		return ConsistencyUndecided, err
	}
	if d.solve(nil) == satkernel.SAT {
		return ConsistencyOK, nil
	}
	return ConsistencyKO, nil
}
