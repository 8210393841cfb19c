// Package sdm implements the five-parameter single-diode model of a
// photovoltaic device: closed-form (Lambert-W) solutions of the implicit
// circuit equation, translation of reference parameters to arbitrary
// irradiance/temperature operating conditions, and derived curve
// characteristics (Isc, Voc, maximum-power point, fill factor).
//
// All operations are pure and safe for concurrent use. Errors follow a fixed
// taxonomy: ValueError for malformed input, DomainError for physically
// invalid parameters, ConvergenceError for a failed maximum-power search.
package sdm

import "math"

// Device holds one fixed single-diode equivalent-circuit state: the five
// parameters of
//
//	I = I_L - I_0*(exp((V + I*R_s)/nVth) - 1) - (V + I*R_s)/R_sh
//
// A ShuntOhm of +Inf denotes zero shunt conductance (the shunt branch drops
// out of the equation).
type Device struct {
	// PhotocurrentA is the light-generated current I_L [A], >= 0.
	PhotocurrentA float64
	// SatCurrentA is the diode reverse saturation current I_0 [A], > 0.
	SatCurrentA float64
	// SeriesOhm is the series resistance R_s [Ohm], >= 0.
	SeriesOhm float64
	// ShuntOhm is the shunt resistance R_sh [Ohm], > 0 or +Inf.
	ShuntOhm float64
	// ModifiedVthV is the modified diode thermal voltage n*N_s*kT/q [V], > 0.
	ModifiedVthV float64
}

// Validate checks the device against the equation-layer domain. NaN or an
// unexpected infinity yields a ValueError; a finite but physically invalid
// value yields a DomainError.
func (d Device) Validate() error {
	const op = "Device.Validate"
	fields := []struct {
		name     string
		value    float64
		allowInf bool
	}{
		{"PhotocurrentA", d.PhotocurrentA, false},
		{"SatCurrentA", d.SatCurrentA, false},
		{"SeriesOhm", d.SeriesOhm, false},
		{"ShuntOhm", d.ShuntOhm, true},
		{"ModifiedVthV", d.ModifiedVthV, false},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) {
			return valueErrorf(op, "%s is NaN", f.name)
		}
		if math.IsInf(f.value, 0) && !(f.allowInf && f.value > 0) {
			return valueErrorf(op, "%s is %g, must be finite", f.name, f.value)
		}
	}
	if d.PhotocurrentA < 0 {
		return domainError(op, "PhotocurrentA", d.PhotocurrentA, "must be >= 0")
	}
	if d.SatCurrentA <= 0 {
		return domainError(op, "SatCurrentA", d.SatCurrentA, "must be > 0")
	}
	if d.SeriesOhm < 0 {
		return domainError(op, "SeriesOhm", d.SeriesOhm, "must be >= 0")
	}
	if d.ShuntOhm <= 0 {
		return domainError(op, "ShuntOhm", d.ShuntOhm, "must be > 0 (or +Inf for zero shunt conductance)")
	}
	if d.ModifiedVthV <= 0 {
		return domainError(op, "ModifiedVthV", d.ModifiedVthV, "must be > 0")
	}
	return nil
}

// shuntConductance returns 1/R_sh, exactly zero for the infinite-shunt case.
func (d Device) shuntConductance() float64 {
	if math.IsInf(d.ShuntOhm, 1) {
		return 0
	}
	return 1 / d.ShuntOhm
}

// circuitCase enumerates the four degenerate combinations of the circuit so
// each closed form is dispatched (and tested) independently instead of
// branching inside the arithmetic.
type circuitCase int

const (
	// caseFull: R_s > 0 and finite R_sh.
	caseFull circuitCase = iota
	// caseNoShunt: R_s > 0, R_sh infinite.
	caseNoShunt
	// caseNoSeries: R_s = 0, finite R_sh.
	caseNoSeries
	// caseIdeal: R_s = 0, R_sh infinite.
	caseIdeal
)

func (d Device) circuitClass() circuitCase {
	noShunt := math.IsInf(d.ShuntOhm, 1)
	noSeries := d.SeriesOhm == 0
	switch {
	case noSeries && noShunt:
		return caseIdeal
	case noSeries:
		return caseNoSeries
	case noShunt:
		return caseNoShunt
	default:
		return caseFull
	}
}

// IVPoint is one solution point of the circuit equation.
type IVPoint struct {
	VoltageV float64
	CurrentA float64
}
