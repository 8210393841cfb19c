package sdm

import (
	"errors"
	"math"
	"testing"
)

// moduleDevice is a 20-cell-scale module used throughout the equation tests.
var moduleDevice = Device{
	PhotocurrentA: 8.0,
	SatCurrentA:   1e-9,
	SeriesOhm:     0.05,
	ShuntOhm:      500.0,
	ModifiedVthV:  0.5,
}

func almostEqual(a, b, relTol float64) bool {
	return math.Abs(a-b) <= relTol*(1+math.Max(math.Abs(a), math.Abs(b)))
}

func TestCurrentAtVoltageCircuitCases(t *testing.T) {
	// Expected values computed independently (Halley iteration on the
	// implicit equation, double precision).
	tests := []struct {
		name     string
		device   Device
		voltageV float64
		expected float64
		epsilon  float64
	}{
		{
			name:     "full circuit at short circuit",
			device:   moduleDevice,
			voltageV: 0,
			expected: 7.99920007876676,
			epsilon:  1e-12,
		},
		{
			name: "no shunt (R_sh infinite)",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: 0.05, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5,
			},
			voltageV: 0,
			expected: 7.99999999877446,
			epsilon:  1e-12,
		},
		{
			name: "no series (R_s = 0)",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: 0, ShuntOhm: 500.0, ModifiedVthV: 0.5,
			},
			voltageV: 0,
			expected: 8.0,
			epsilon:  0,
		},
		{
			name: "ideal (R_s = 0, R_sh infinite)",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: 0, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5,
			},
			voltageV: 0,
			expected: 8.0,
			epsilon:  0,
		},
		{
			name:     "reverse bias adds shunt current",
			device:   moduleDevice,
			voltageV: -1.0,
			expected: 8.0011998807107,
			epsilon:  1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := CurrentAtVoltage(tt.device, tt.voltageV)
			if err != nil {
				t.Fatalf("CurrentAtVoltage returned error: %v", err)
			}
			if !almostEqual(i, tt.expected, tt.epsilon+1e-15) {
				t.Errorf("CurrentAtVoltage(%g) = %.15g, want %.15g", tt.voltageV, i, tt.expected)
			}
		})
	}
}

func TestResidualAtSolutions(t *testing.T) {
	// Both inversions must satisfy the implicit equation to within a few
	// ulps of the current scale, across all four circuit cases.
	devices := []Device{
		moduleDevice,
		{PhotocurrentA: 8.0, SatCurrentA: 1e-9, SeriesOhm: 0.05, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5},
		{PhotocurrentA: 8.0, SatCurrentA: 1e-9, SeriesOhm: 0, ShuntOhm: 500.0, ModifiedVthV: 0.5},
		{PhotocurrentA: 8.0, SatCurrentA: 1e-9, SeriesOhm: 0, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5},
		{PhotocurrentA: 2.5, SatCurrentA: 1e-12, SeriesOhm: 0.3, ShuntOhm: 2000.0, ModifiedVthV: 1.2},
	}
	for _, d := range devices {
		voc, err := OpenCircuitVoltage(d)
		if err != nil {
			t.Fatalf("OpenCircuitVoltage: %v", err)
		}
		for frac := 0.0; frac <= 1.0; frac += 0.05 {
			v := frac * voc
			i, err := CurrentAtVoltage(d, v)
			if err != nil {
				t.Fatalf("CurrentAtVoltage(%g): %v", v, err)
			}
			if res := Residual(d, v, i); math.Abs(res) > 1e-10*(1+d.PhotocurrentA) {
				t.Errorf("device %+v: residual %g at V=%g", d, res, v)
			}
		}
	}
}

func TestRoundTripLaw(t *testing.T) {
	// current(voltage(current(V))) must reproduce current(V).
	d := moduleDevice
	voc, err := OpenCircuitVoltage(d)
	if err != nil {
		t.Fatalf("OpenCircuitVoltage: %v", err)
	}
	for frac := 0.0; frac <= 1.0; frac += 0.02 {
		v := frac * voc
		i1, err := CurrentAtVoltage(d, v)
		if err != nil {
			t.Fatalf("CurrentAtVoltage(%g): %v", v, err)
		}
		vBack, err := VoltageAtCurrent(d, i1)
		if err != nil {
			t.Fatalf("VoltageAtCurrent(%g): %v", i1, err)
		}
		i2, err := CurrentAtVoltage(d, vBack)
		if err != nil {
			t.Fatalf("CurrentAtVoltage(%g): %v", vBack, err)
		}
		if !almostEqual(i1, i2, 1e-9) {
			t.Errorf("round trip at V=%g: %.15g -> %.15g", v, i1, i2)
		}
	}
}

func TestCurrentMonotonicNonIncreasing(t *testing.T) {
	d := moduleDevice
	voc, err := OpenCircuitVoltage(d)
	if err != nil {
		t.Fatalf("OpenCircuitVoltage: %v", err)
	}
	prev := math.Inf(1)
	for frac := 0.0; frac <= 1.0; frac += 0.01 {
		i, err := CurrentAtVoltage(d, frac*voc)
		if err != nil {
			t.Fatalf("CurrentAtVoltage: %v", err)
		}
		if i > prev+1e-12 {
			t.Errorf("I(V) increased at V=%g: %g -> %g", frac*voc, prev, i)
		}
		prev = i
	}
}

func TestSeriesResistanceLimit(t *testing.T) {
	// As R_s -> 0 through positive values the Lambert form must converge
	// to the explicit R_s = 0 closed form.
	base := Device{PhotocurrentA: 8.0, SatCurrentA: 1e-9, ShuntOhm: 500.0, ModifiedVthV: 0.5}
	want, err := CurrentAtVoltage(base, 9.0)
	if err != nil {
		t.Fatalf("explicit form: %v", err)
	}
	prevGap := math.Inf(1)
	for _, rs := range []float64{1e-2, 1e-4, 1e-6, 1e-8} {
		d := base
		d.SeriesOhm = rs
		got, err := CurrentAtVoltage(d, 9.0)
		if err != nil {
			t.Fatalf("R_s=%g: %v", rs, err)
		}
		gap := math.Abs(got - want)
		if gap > prevGap+1e-12 {
			t.Errorf("R_s=%g: gap %g did not shrink from %g", rs, gap, prevGap)
		}
		prevGap = gap
	}
	if prevGap > 1e-7 {
		t.Errorf("R_s -> 0 limit gap %g too large", prevGap)
	}
}

func TestShuntResistanceLimit(t *testing.T) {
	// As R_sh -> Inf the result must converge to the zero-shunt-conductance
	// closed form.
	base := Device{PhotocurrentA: 8.0, SatCurrentA: 1e-9, SeriesOhm: 0.05, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5}
	want, err := CurrentAtVoltage(base, 9.0)
	if err != nil {
		t.Fatalf("zero-conductance form: %v", err)
	}
	prevGap := math.Inf(1)
	for _, rsh := range []float64{1e3, 1e5, 1e7, 1e9} {
		d := base
		d.ShuntOhm = rsh
		got, err := CurrentAtVoltage(d, 9.0)
		if err != nil {
			t.Fatalf("R_sh=%g: %v", rsh, err)
		}
		gap := math.Abs(got - want)
		if gap > prevGap+1e-15 {
			t.Errorf("R_sh=%g: gap %g did not shrink from %g", rsh, gap, prevGap)
		}
		prevGap = gap
	}
	if prevGap > 1e-8 {
		t.Errorf("R_sh -> Inf limit gap %g too large", prevGap)
	}
}

func TestVoltageAtCurrentNoShuntAsymptote(t *testing.T) {
	d := Device{PhotocurrentA: 8.0, SatCurrentA: 1e-9, SeriesOhm: 0.05, ShuntOhm: math.Inf(1), ModifiedVthV: 0.5}
	var domainErr *DomainError
	if _, err := VoltageAtCurrent(d, 9.0); !errors.As(err, &domainErr) {
		t.Errorf("current above I_L+I_0 with no shunt: expected DomainError, got %v", err)
	}
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name       string
		device     Device
		voltageV   float64
		wantDomain bool // else ValueError
	}{
		{
			name: "zero saturation current",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 0,
				SeriesOhm: 0.05, ShuntOhm: 500.0, ModifiedVthV: 0.5,
			},
			wantDomain: true,
		},
		{
			name: "negative thermal voltage",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: 0.05, ShuntOhm: 500.0, ModifiedVthV: -0.5,
			},
			wantDomain: true,
		},
		{
			name: "negative shunt resistance",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: 0.05, ShuntOhm: -500.0, ModifiedVthV: 0.5,
			},
			wantDomain: true,
		},
		{
			name: "negative photocurrent",
			device: Device{
				PhotocurrentA: -1.0, SatCurrentA: 1e-9,
				SeriesOhm: 0.05, ShuntOhm: 500.0, ModifiedVthV: 0.5,
			},
			wantDomain: true,
		},
		{
			name: "NaN photocurrent",
			device: Device{
				PhotocurrentA: math.NaN(), SatCurrentA: 1e-9,
				SeriesOhm: 0.05, ShuntOhm: 500.0, ModifiedVthV: 0.5,
			},
			wantDomain: false,
		},
		{
			name: "infinite series resistance",
			device: Device{
				PhotocurrentA: 8.0, SatCurrentA: 1e-9,
				SeriesOhm: math.Inf(1), ShuntOhm: 500.0, ModifiedVthV: 0.5,
			},
			wantDomain: false,
		},
		{
			name:       "NaN voltage",
			device:     moduleDevice,
			voltageV:   math.NaN(),
			wantDomain: false,
		},
		{
			name:       "infinite voltage",
			device:     moduleDevice,
			voltageV:   math.Inf(1),
			wantDomain: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CurrentAtVoltage(tt.device, tt.voltageV)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var domainErr *DomainError
			var valueErr *ValueError
			if tt.wantDomain {
				if !errors.As(err, &domainErr) {
					t.Errorf("expected DomainError, got %T: %v", err, err)
				}
			} else if !errors.As(err, &valueErr) {
				t.Errorf("expected ValueError, got %T: %v", err, err)
			}
		})
	}
}

func TestNoSilentNaN(t *testing.T) {
	// Extreme but valid parameters must produce finite results, never NaN.
	devices := []Device{
		{PhotocurrentA: 8.0, SatCurrentA: 1e-30, SeriesOhm: 1e-6, ShuntOhm: 1e9, ModifiedVthV: 0.01},
		{PhotocurrentA: 1e-6, SatCurrentA: 1e-9, SeriesOhm: 10, ShuntOhm: 0.1, ModifiedVthV: 5},
		{PhotocurrentA: 100, SatCurrentA: 1e-15, SeriesOhm: 0.001, ShuntOhm: 1e6, ModifiedVthV: 0.025},
	}
	for _, d := range devices {
		for _, v := range []float64{-1, 0, 0.1, 1} {
			i, err := CurrentAtVoltage(d, v)
			if err != nil {
				t.Fatalf("device %+v at V=%g: %v", d, v, err)
			}
			if math.IsNaN(i) {
				t.Errorf("device %+v at V=%g: silent NaN", d, v)
			}
		}
	}
}
