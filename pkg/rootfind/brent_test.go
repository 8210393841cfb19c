package rootfind

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestBrent(t *testing.T) {
	tests := []struct {
		name    string
		f       func(float64) (float64, error)
		a, b    float64
		root    float64
		epsilon float64
	}{
		{
			name:    "linear",
			f:       func(x float64) (float64, error) { return 2*x - 3, nil },
			a:       0,
			b:       10,
			root:    1.5,
			epsilon: 1e-12,
		},
		{
			name:    "cosine",
			f:       func(x float64) (float64, error) { return math.Cos(x), nil },
			a:       0,
			b:       3,
			root:    math.Pi / 2,
			epsilon: 1e-12,
		},
		{
			name:    "cubic with flat region",
			f:       func(x float64) (float64, error) { return (x - 2) * (x*x + 1), nil },
			a:       -5,
			b:       5,
			root:    2,
			epsilon: 1e-12,
		},
		{
			name: "exponential knee",
			f: func(x float64) (float64, error) {
				return 5 - math.Expm1(x/0.4), nil
			},
			a:       0,
			b:       10,
			root:    0.4 * math.Log(6),
			epsilon: 1e-12,
		},
		{
			name:    "root at lower endpoint",
			f:       func(x float64) (float64, error) { return x, nil },
			a:       0,
			b:       1,
			root:    0,
			epsilon: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Brent(tt.f, tt.a, tt.b, Options{})
			if err != nil {
				t.Fatalf("Brent returned error: %v", err)
			}
			if math.Abs(x-tt.root) > tt.epsilon*(1+math.Abs(tt.root)) {
				t.Errorf("Brent = %.17g, want %.17g", x, tt.root)
			}
		})
	}
}

func TestBrentNoBracket(t *testing.T) {
	f := func(x float64) (float64, error) { return x*x + 1, nil }
	if _, err := Brent(f, -1, 1, Options{}); !errors.Is(err, ErrNoBracket) {
		t.Errorf("expected ErrNoBracket, got %v", err)
	}
}

func TestBrentInfiniteEndpoint(t *testing.T) {
	// A pole at the upper endpoint still brackets by sign; the bisection
	// safeguard must take over from interpolation.
	f := func(x float64) (float64, error) {
		if x >= 1 {
			return math.Inf(-1), nil
		}
		return 0.5 - x, nil
	}
	x, err := Brent(f, 0, 1, Options{})
	if err != nil {
		t.Fatalf("Brent returned error: %v", err)
	}
	if math.Abs(x-0.5) > 1e-9 {
		t.Errorf("Brent = %g, want 0.5", x)
	}
}

func TestBrentPropagatesEvalError(t *testing.T) {
	wantErr := fmt.Errorf("bad point")
	f := func(x float64) (float64, error) {
		if x > 0.9 {
			return 0, wantErr
		}
		return x - 0.95, nil
	}
	if _, err := Brent(f, 0, 1, Options{}); !errors.Is(err, wantErr) {
		t.Errorf("expected evaluation error to propagate, got %v", err)
	}
}

func TestBrentIterationBudget(t *testing.T) {
	f := func(x float64) (float64, error) { return math.Cos(x), nil }
	if _, err := Brent(f, 0, 3, Options{MaxIterations: 2}); !errors.Is(err, ErrMaxIterations) {
		t.Errorf("expected ErrMaxIterations, got %v", err)
	}
}
