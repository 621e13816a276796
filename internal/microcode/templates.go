package microcode

import "fmt"

// Signature names one distinct operator shape, per spec.md §4.6:
// "each distinct (op, width, signedness) has a CNF template."
type Signature struct {
	Op     string
	Width  int
	Signed bool
}

func (s Signature) String() string {
	sign := "u"
	if s.Signed {
		sign = "s"
	}
	return fmt.Sprintf("%s_%d_%s", s.Op, s.Width, sign)
}

// Template is a loaded (or freshly synthesized) clause set over
// abstract bit positions: a occupies [1, AWidth], b occupies
// [AWidth+1, AWidth+BWidth], the result occupies the next RWidth
// positions, and everything after that is an auxiliary Tseitin
// variable private to this template instance.
type Template struct {
	Sig     Signature
	AWidth  int
	BWidth  int
	RWidth  int
	NumAux  int
	Clauses [][]int
}

func (t *Template) aPos(i int) int { return i + 1 }
func (t *Template) bPos(i int) int { return t.AWidth + i + 1 }
func (t *Template) rPos(i int) int { return t.AWidth + t.BWidth + i + 1 }

func bitVec(start, n int) []int {
	v := make([]int, n)
	for i := 0; i < n; i++ {
		v[i] = start + i
	}
	return v
}

// BuildMul synthesizes a width-preserving unsigned shift-add multiplier:
// O(width^2) AND/full-adder gates, result truncated to width bits
// (fixed-width wraparound, matching normal two's-complement hardware
// multiply semantics for both signed and unsigned operands).
func BuildMul(width int, signed bool) *Template {
	base := 3*width + 1
	b := newBuilder(base)

	a := bitVec(1, width)
	bb := bitVec(width+1, width)

	acc := make([]int, width)
	zero := b.constFalse()
	for i := range acc {
		acc[i] = zero
	}

	for i := 0; i < width; i++ {
		bi := bb[i]
		row := make([]int, width)
		for j := 0; j < width; j++ {
			k := j - i
			if k >= 0 && k < width {
				row[j] = b.gateAnd(a[k], bi)
			} else {
				row[j] = zero
			}
		}
		sum, _ := b.rippleAdd(acc, row)
		acc = sum
	}

	r := bitVec(2*width+1, width)
	for i := range acc {
		b.equal(acc[i], r[i])
	}

	return &Template{
		Sig:     Signature{Op: "mul", Width: width, Signed: signed},
		AWidth:  width, BWidth: width, RWidth: width,
		NumAux: b.nextPos - base, Clauses: b.clauses,
	}
}

// BuildDivMod synthesizes an unsigned restoring divider producing both
// quotient and remainder; signed operands are handled by the caller
// (internal/compiler) negating operands around the unsigned circuit
// and fixing up signs, per this repository's chosen convention:
// truncated division (quotient truncates toward zero; the remainder
// takes the sign of the dividend) — spec.md §9 leaves this convention
// as an open implementation choice.
func BuildDivMod(width int, wantRemainder bool) *Template {
	base := 3*width + 1
	b := newBuilder(base)

	a := bitVec(1, width)
	bb := bitVec(width+1, width)

	ext := width + 1
	rem := make([]int, ext)
	zero := b.constFalse()
	for i := range rem {
		rem[i] = zero
	}
	bExt := append(append([]int(nil), bb...), zero)

	quotient := make([]int, width)
	for i := width - 1; i >= 0; i-- {
		shifted := make([]int, ext)
		shifted[0] = a[i]
		copy(shifted[1:], rem[:width])

		diff, borrowed := b.rippleSub(shifted, bExt)
		noBorrow := b.gateNot(borrowed)
		quotient[i] = noBorrow

		next := make([]int, ext)
		for j := 0; j < ext; j++ {
			next[j] = b.gateMux(noBorrow, diff[j], shifted[j])
		}
		rem = next
	}

	r := bitVec(2*width+1, width)
	if wantRemainder {
		for i := 0; i < width; i++ {
			b.equal(rem[i], r[i])
		}
	} else {
		for i := 0; i < width; i++ {
			b.equal(quotient[i], r[i])
		}
	}

	op := "div"
	if wantRemainder {
		op = "mod"
	}
	return &Template{
		Sig:     Signature{Op: op, Width: width, Signed: false},
		AWidth:  width, BWidth: width, RWidth: width,
		NumAux: b.nextPos - base, Clauses: b.clauses,
	}
}

// bitwiseOp is one of "and", "or", "xor", "xnor".
func BuildBitwise(op string, width int) *Template {
	base := 3*width + 1
	b := newBuilder(base)
	a := bitVec(1, width)
	bb := bitVec(width+1, width)
	r := bitVec(2*width+1, width)

	for i := 0; i < width; i++ {
		var z int
		switch op {
		case "and":
			z = b.gateAnd(a[i], bb[i])
		case "or":
			z = b.gateOr(a[i], bb[i])
		case "xor":
			z = b.gateXor(a[i], bb[i])
		case "xnor":
			z = b.gateNot(b.gateXor(a[i], bb[i]))
		default:
			panic("microcode: unknown bitwise op " + op)
		}
		b.equal(z, r[i])
	}
	return &Template{
		Sig:     Signature{Op: "bw" + op, Width: width},
		AWidth:  width, BWidth: width, RWidth: width,
		NumAux: b.nextPos - base, Clauses: b.clauses,
	}
}

// log2Ceil returns the smallest n with 2^n >= v.
func log2Ceil(v int) int {
	n := 0
	for (1 << uint(n)) < v {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// BuildShift synthesizes a barrel shifter for a non-constant shift
// amount (spec.md §4.5: only constant-amount shifts are expanded
// directly by the compiler; a variable amount goes through
// microcode). dir is "l" or "r"; for "r" with signed==true the
// vacated high bits are filled with the sign bit rather than zero.
func BuildShift(dir string, width int, signed bool) *Template {
	amountWidth := log2Ceil(width)
	base := width + amountWidth + width + 1
	b := newBuilder(base)

	x := bitVec(1, width)
	amt := bitVec(width+1, amountWidth)

	cur := append([]int(nil), x...)
	zero := b.constFalse()
	fill := zero
	if dir == "r" && signed {
		fill = x[width-1]
	}

	for stage := 0; stage < amountWidth; stage++ {
		shiftBy := 1 << uint(stage)
		ctl := amt[stage]
		next := make([]int, width)
		for i := 0; i < width; i++ {
			var shiftedVal int
			if dir == "l" {
				src := i - shiftBy
				if src < 0 {
					shiftedVal = zero
				} else {
					shiftedVal = cur[src]
				}
			} else {
				src := i + shiftBy
				if src >= width {
					shiftedVal = fill
				} else {
					shiftedVal = cur[src]
				}
			}
			next[i] = b.gateMux(ctl, shiftedVal, cur[i])
		}
		cur = next
	}

	r := bitVec(width+amountWidth+1, width)
	for i := 0; i < width; i++ {
		b.equal(cur[i], r[i])
	}

	op := "lshift"
	if dir == "r" {
		op = "rshift"
	}
	return &Template{
		Sig:     Signature{Op: op, Width: width, Signed: signed},
		AWidth:  width, BWidth: amountWidth, RWidth: width,
		NumAux: b.nextPos - base, Clauses: b.clauses,
	}
}
