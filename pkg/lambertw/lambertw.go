// Package lambertw provides the principal branch of the Lambert W function,
// the inverse of w*exp(w), with double-precision accuracy over its full domain
// [-1/e, +Inf). Arguments too large to represent as exp(x) can be evaluated
// in the log domain with OfExp.
package lambertw

import (
	"fmt"
	"math"
)

// branchPoint is -1/e, the left edge of the principal branch domain.
const branchPoint = -0.36787944117144233

const (
	maxIterations = 48
	// relTol is the relative step tolerance for Halley/Newton iteration.
	relTol = 2.220446049250313e-16 // one ulp at 1.0
)

// W0 computes the principal branch W0(x), satisfying W0(x)*exp(W0(x)) == x
// for x >= -1/e. It returns an error for arguments left of the branch point.
func W0(x float64) (float64, error) {
	switch {
	case math.IsNaN(x):
		return 0, fmt.Errorf("lambertw: W0 of NaN")
	case x < branchPoint:
		// Allow a hair of rounding slop at the branch point itself.
		if x > branchPoint-1e-15 {
			return -1, nil
		}
		return 0, fmt.Errorf("lambertw: argument %g left of branch point -1/e", x)
	case x == 0:
		return 0, nil
	case math.IsInf(x, 1):
		return math.Inf(1), nil
	}

	w := initialGuess(x)
	for i := 0; i < maxIterations; i++ {
		ew := math.Exp(w)
		f := w*ew - x

		// Halley's method; fall back to Newton when the Halley
		// denominator degenerates near the branch point.
		wp1 := w + 1
		denom := ew*wp1 - (w+2)*f/(2*wp1)
		var step float64
		if denom != 0 && !math.IsNaN(denom) && !math.IsInf(denom, 0) {
			step = f / denom
		} else if d := ew * wp1; d != 0 {
			step = f / d
		} else {
			break
		}

		w -= step
		if math.Abs(step) <= relTol*(1+math.Abs(w)) {
			break
		}
	}
	return w, nil
}

// OfExp computes W0(exp(y)) without forming exp(y), by solving
// w + log(w) = y. It is the overflow-safe form used when the raw Lambert
// argument exceeds the double-precision exponential range.
func OfExp(y float64) (float64, error) {
	if math.IsNaN(y) {
		return 0, fmt.Errorf("lambertw: OfExp of NaN")
	}
	if math.IsInf(y, 1) {
		return math.Inf(1), nil
	}

	// W0(exp(y)) is positive for all finite y, so Newton on the strictly
	// increasing w + log(w) is safe given a positive start.
	var w float64
	if y > 1 {
		w = y - math.Log(y)
	} else {
		// w is small here and w + log(w) ~ log(w).
		w = math.Exp(y)
	}

	for i := 0; i < maxIterations; i++ {
		f := w + math.Log(w) - y
		step := f / (1 + 1/w)
		w -= step
		if w <= 0 {
			// Overshot below the domain of log; bisect back toward zero.
			w = (w + step) / 2
			continue
		}
		if math.Abs(step) <= relTol*(1+math.Abs(w)) {
			break
		}
	}
	return w, nil
}

// initialGuess picks a starting point close enough for Halley convergence
// in a handful of iterations anywhere on the principal branch.
func initialGuess(x float64) float64 {
	if x < -0.25 {
		// Series about the branch point (Corless et al. 1996, eq. 4.22).
		p := math.Sqrt(2 * (math.E*x + 1))
		return -1 + p - p*p/3 + 11.0/72.0*p*p*p
	}
	if x < 2 {
		// Crude rational start; the iteration does the rest.
		return x / (1 + x)
	}
	l1 := math.Log(x)
	l2 := math.Log(l1)
	return l1 - l2 + l2/l1
}
