// Package microcode implements the operator microcode of spec.md
// §4.6: pre-generated CNF clause templates for the operators whose
// direct decision-diagram expansion would blow up (multiply, divide,
// modulo, and non-constant shifts). A template's clauses reference
// abstract bit positions for operands a, b and result (plus auxiliary
// Tseitin variables); the CNFiser substitutes real solver variables
// for those positions at injection time.
package microcode

// builder accumulates Tseitin-encoded CNF clauses over abstract bit
// positions, allocating fresh auxiliary positions above a fixed base.
type builder struct {
	nextPos int
	clauses [][]int
}

func newBuilder(base int) *builder {
	return &builder{nextPos: base}
}

func (b *builder) aux() int {
	p := b.nextPos
	b.nextPos++
	return p
}

func (b *builder) clause(lits ...int) {
	cl := append([]int(nil), lits...)
	b.clauses = append(b.clauses, cl)
}

// constFalse returns a position forced to false by a unit clause.
func (b *builder) constFalse() int {
	z := b.aux()
	b.clause(-z)
	return z
}

// equal constrains x and y to the same boolean value.
func (b *builder) equal(x, y int) {
	b.clause(-x, y)
	b.clause(x, -y)
}

// gateAnd returns a fresh position Tseitin-equivalent to x∧y.
func (b *builder) gateAnd(x, y int) int {
	z := b.aux()
	b.clause(-z, x)
	b.clause(-z, y)
	b.clause(z, -x, -y)
	return z
}

// gateOr returns a fresh position Tseitin-equivalent to x∨y.
func (b *builder) gateOr(x, y int) int {
	z := b.aux()
	b.clause(z, -x)
	b.clause(z, -y)
	b.clause(-z, x, y)
	return z
}

// gateXor returns a fresh position Tseitin-equivalent to x⊕y.
func (b *builder) gateXor(x, y int) int {
	z := b.aux()
	b.clause(-z, x, y)
	b.clause(-z, -x, -y)
	b.clause(z, -x, y)
	b.clause(z, x, -y)
	return z
}

func (b *builder) gateNot(x int) int { return -x }

// gateMux returns a fresh position equal to cond ? t : e.
func (b *builder) gateMux(cond, t, e int) int {
	onT := b.gateAnd(cond, t)
	onE := b.gateAnd(b.gateNot(cond), e)
	return b.gateOr(onT, onE)
}

// fullAdder returns (sum, carryOut) for x+y+cin.
func (b *builder) fullAdder(x, y, cin int) (sum, carryOut int) {
	xorXY := b.gateXor(x, y)
	sum = b.gateXor(xorXY, cin)
	andXY := b.gateAnd(x, y)
	andXorCin := b.gateAnd(xorXY, cin)
	carryOut = b.gateOr(andXY, andXorCin)
	return
}

// rippleAdd adds two equal-width bit vectors (LSB first), returning
// the width-preserving sum (carry-out dropped, fixed-width wraparound)
// and the final carry-out.
func (b *builder) rippleAdd(x, y []int) (sum []int, carryOut int) {
	w := len(x)
	sum = make([]int, w)
	carry := b.constFalse()
	for i := 0; i < w; i++ {
		sum[i], carry = b.fullAdder(x[i], y[i], carry)
	}
	return sum, carry
}

// twosComplement negates a bit vector: ~x + 1.
func (b *builder) twosComplement(x []int) []int {
	not := make([]int, len(x))
	for i, v := range x {
		not[i] = b.gateNot(v)
	}
	one := make([]int, len(x))
	one[0] = func() int { t := b.aux(); b.clause(t); return t }()
	for i := 1; i < len(one); i++ {
		one[i] = b.constFalse()
	}
	sum, _ := b.rippleAdd(not, one)
	return sum
}

// rippleSub computes x - y at equal width, plus whether the true
// (unbounded) subtraction borrowed (x < y treating both as unsigned).
func (b *builder) rippleSub(x, y []int) (diff []int, borrowed int) {
	negY := b.twosComplement(y)
	sum, carryOut := b.rippleAdd(x, negY)
	// In two's-complement subtraction, carryOut == 1 means no borrow
	// (x >= y, unsigned); carryOut == 0 means borrow occurred.
	return sum, b.gateNot(carryOut)
}
