package mathutil

import "math"

// RationalApprox returns the fraction p/q closest to x with 1 ≤ q ≤ maxDen,
// found by walking the continued fraction expansion of x and checking the
// last semiconvergent. x must be finite and non-negative.
func RationalApprox(x float64, maxDen int64) (p, q int64) {
	if maxDen < 1 {
		maxDen = 1
	}
	if x == math.Trunc(x) {
		return int64(x), 1
	}

	// Convergents h/k, previous convergent h0/k0.
	var h0, k0, h, k int64 = 0, 1, 1, 0
	r := x
	for {
		a := int64(math.Floor(r))
		k2 := k0 + a*k
		if k2 > maxDen {
			break
		}
		h0, k0, h, k = h, k, h0+a*h, k2
		frac := r - float64(a)
		if frac < 1e-15 {
			return h, k
		}
		r = 1 / frac
	}

	// Largest semiconvergent that still fits the denominator bound.
	n := (maxDen - k0) / k
	sp, sq := h0+n*h, k0+n*k
	if math.Abs(float64(sp)/float64(sq)-x) < math.Abs(float64(h)/float64(k)-x) {
		return sp, sq
	}
	return h, k
}
