// Package rootfind provides bracketed scalar root finding using Brent's
// method (inverse quadratic interpolation with a bisection safeguard).
// Termination is deterministic: convergence within a fixed iteration budget
// or an error.
package rootfind

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoBracket is returned when f(a) and f(b) do not have opposite signs.
var ErrNoBracket = errors.New("rootfind: interval does not bracket a root")

// ErrMaxIterations is returned when the iteration budget is exhausted before
// the interval shrinks below tolerance.
var ErrMaxIterations = errors.New("rootfind: iteration budget exhausted")

// Options controls the Brent search.
type Options struct {
	// MaxIterations caps the number of function evaluations after the
	// initial endpoint evaluations. Zero means the default of 100.
	MaxIterations int
	// RelTol is the relative tolerance on the root location. Zero means
	// the default of 1e-12.
	RelTol float64
}

const (
	defaultMaxIterations = 100
	defaultRelTol        = 1e-12
)

// Brent finds x in [a, b] with f(x) == 0, given f(a) and f(b) of opposite
// sign. The function may report an error, which aborts the search.
func Brent(f func(float64) (float64, error), a, b float64, opt Options) (float64, error) {
	maxIter := opt.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	relTol := opt.RelTol
	if relTol <= 0 {
		relTol = defaultRelTol
	}

	fa, err := f(a)
	if err != nil {
		return 0, fmt.Errorf("evaluating lower endpoint %g: %w", a, err)
	}
	fb, err := f(b)
	if err != nil {
		return 0, fmt.Errorf("evaluating upper endpoint %g: %w", b, err)
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return 0, ErrNoBracket
	}

	// c is the previous iterate; (b, fb) tracks the best root estimate.
	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < maxIter; i++ {
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*machEps*math.Abs(b) + relTol*math.Max(math.Abs(a), math.Abs(b))
		m := (c - b) / 2
		if math.Abs(m) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) && isFinite(fa) && isFinite(fb) && isFinite(fc) {
			// Attempt interpolation: secant, or inverse quadratic when
			// three distinct points are available.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * m * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*m*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = m
			}
		} else {
			// Bisection; also the safeguard when an endpoint value is
			// non-finite (the sign of Inf still brackets).
			d = m
			e = m
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else if m > 0 {
			b += tol
		} else {
			b -= tol
		}

		fb, err = f(b)
		if err != nil {
			return 0, fmt.Errorf("evaluating %g: %w", b, err)
		}
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
	}
	return 0, ErrMaxIterations
}

const machEps = 2.220446049250313e-16

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
