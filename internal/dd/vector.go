package dd

// This file implements the word-level operators of the decision-
// diagram manager interface (spec.md §6: Plus, Minus, Negate, LT, LEQ,
// Equals, LShift, RShift, and the bitwise BW* variants) over
// little-endian bit vectors (index 0 = LSB), using only Ite/And/Or/Xor
// from dd.go. spec.md §4.5 calls these "direct DD expansion" for
// add/sub/compare; the compiler deliberately does NOT call Times,
// Divide, Modulus, LShift or RShift here for anything but
// constant-width-preserving cases — wide multiply/divide/modulo/shift
// go through internal/microcode instead, per spec.md §4.5's explicit
// split between the two strategies.

// Plus is ripple-carry addition: result bit i = x[i] xor y[i] xor c;
// carry_{i+1} = majority(x[i], y[i], c). Returns width(x) result bits
// (the final carry-out is dropped, matching fixed-width wraparound
// arithmetic).
func (m *Mgr) Plus(x, y []*Node) []*Node {
	w := len(x)
	res := make([]*Node, w)
	carry := m.zero
	for i := 0; i < w; i++ {
		xi, yi := x[i], y[i]
		xiXyi := m.Xor(xi, yi)
		res[i] = m.Xor(xiXyi, carry)
		carry = m.Or(m.And(xi, yi), m.And(xiXyi, carry))
	}
	return res
}

// BWCmpl is bitwise complement.
func (m *Mgr) BWCmpl(x []*Node) []*Node {
	out := make([]*Node, len(x))
	for i, b := range x {
		out[i] = m.Not(b)
	}
	return out
}

// Negate is two's complement negation: ~x + 1, per spec.md §4.5.
func (m *Mgr) Negate(x []*Node) []*Node {
	one := make([]*Node, len(x))
	one[0] = m.one
	for i := 1; i < len(one); i++ {
		one[i] = m.zero
	}
	return m.Plus(m.BWCmpl(x), one)
}

// Minus is x - y, rewritten as x + (-y) per spec.md §4.5.
func (m *Mgr) Minus(x, y []*Node) []*Node {
	return m.Plus(x, m.Negate(y))
}

// bwZip applies op bitwise across x and y (equal width).
func (m *Mgr) bwZip(x, y []*Node, op func(a, b *Node) *Node) []*Node {
	out := make([]*Node, len(x))
	for i := range x {
		out[i] = op(x[i], y[i])
	}
	return out
}

func (m *Mgr) BWTimes(x, y []*Node) []*Node { return m.bwZip(x, y, m.And) }
func (m *Mgr) BWOr(x, y []*Node) []*Node    { return m.bwZip(x, y, m.Or) }
func (m *Mgr) BWXor(x, y []*Node) []*Node   { return m.bwZip(x, y, m.Xor) }
func (m *Mgr) BWXnor(x, y []*Node) []*Node  { return m.bwZip(x, y, m.Xnor) }

// Equals builds a single boolean DD that is 1 iff x == y bitwise.
func (m *Mgr) Equals(x, y []*Node) *Node {
	acc := m.one
	for i := range x {
		acc = m.And(acc, m.Xnor(x[i], y[i]))
	}
	return acc
}

// LT builds the MSB-first prefix-equality comparison chain of
// spec.md §4.5: unsigned "<" . Both vectors must be unsigned or both
// signed-with-MSB-reweighted by the caller (see SignedLT).
func (m *Mgr) LT(x, y []*Node) *Node {
	return m.lt(x, y, len(x)-1)
}

func (m *Mgr) lt(x, y []*Node, bit int) *Node {
	if bit < 0 {
		return m.zero
	}
	xi, yi := x[bit], y[bit]
	thisBitLT := m.And(m.Not(xi), yi)
	eq := m.Xnor(xi, yi)
	return m.Or(thisBitLT, m.And(eq, m.lt(x, y, bit-1)))
}

// LEQ is LT(x,y) or Equals(x,y).
func (m *Mgr) LEQ(x, y []*Node) *Node {
	return m.Or(m.LT(x, y), m.Equals(x, y))
}

// SignedLT compares two's-complement vectors by flipping the MSB of
// each operand before the unsigned comparison chain — the standard
// trick for reusing an unsigned comparator on signed values (the MSB's
// weight is -2^(w-1) instead of +2^(w-1), so flipping it maps the
// signed order onto the unsigned one).
func (m *Mgr) SignedLT(x, y []*Node) *Node {
	fx := append([]*Node(nil), x...)
	fy := append([]*Node(nil), y...)
	top := len(x) - 1
	fx[top] = m.Not(x[top])
	fy[top] = m.Not(y[top])
	return m.LT(fx, fy)
}

// SignedLEQ is the signed counterpart of LEQ.
func (m *Mgr) SignedLEQ(x, y []*Node) *Node {
	return m.Or(m.SignedLT(x, y), m.Equals(x, y))
}

// LShift and RShift by a compile-time-constant amount (the compiler
// uses microcode for a non-constant shift amount, per spec.md §4.5).
func (m *Mgr) LShift(x []*Node, amount int) []*Node {
	w := len(x)
	out := make([]*Node, w)
	for i := 0; i < w; i++ {
		if i < amount {
			out[i] = m.zero
		} else {
			out[i] = x[i-amount]
		}
	}
	return out
}

func (m *Mgr) RShift(x []*Node, amount int, signed bool) []*Node {
	w := len(x)
	out := make([]*Node, w)
	fill := m.zero
	if signed {
		fill = x[w-1]
	}
	for i := 0; i < w; i++ {
		src := i + amount
		if src >= w {
			out[i] = fill
		} else {
			out[i] = x[src]
		}
	}
	return out
}
