package expr

import "math"

// RoundFixed converts a decimal real value into its closest w-bit
// fixed-point representation at the given fractional precision, using
// a binary search over the candidate integer range [0, 2^precision-1]
// that brackets real*2^precision, then rounds to whichever of the
// three candidates (low, low+1, midpoint tie) is numerically closest.
func RoundFixed(real float64, precision uint) int64 {
	if precision == 0 {
		return int64(math.Round(real))
	}

	scale := math.Pow(2, float64(precision))
	target := real * scale

	lo, hi := int64(0), int64(1)<<precision-1
	if target <= float64(lo) {
		return lo
	}
	if target >= float64(hi) {
		return hi
	}

	// Binary search for the integer bracket [lo, lo+1] containing target.
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if float64(mid) <= target {
			lo = mid
		} else {
			hi = mid
		}
	}

	// lo and hi now bracket target; pick whichever is closer.
	dlo := target - float64(lo)
	dhi := float64(hi) - target
	if dlo <= dhi {
		return lo
	}
	return hi
}
