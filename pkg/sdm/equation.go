package sdm

import (
	"math"

	"github.com/solarmetrics/pvmodel/pkg/lambertw"
)

// maxExpArg is the largest x for which exp(x) is representable in float64.
// Lambert arguments whose logarithm exceeds it are evaluated in the log
// domain instead of forming exp(x).
const maxExpArg = 709.0

// CurrentAtVoltage solves the single-diode equation for the terminal current
// at the given terminal voltage, using the explicit Lambert-W form (or the
// degenerate closed form when R_s = 0).
func CurrentAtVoltage(d Device, voltageV float64) (float64, error) {
	const op = "CurrentAtVoltage"
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if !isFinite(voltageV) {
		return 0, valueErrorf(op, "voltage %g is not finite", voltageV)
	}
	return currentAtVoltage(d, voltageV)
}

// currentAtVoltage is the validation-free core shared by the batch and curve
// layers, which validate once per device.
func currentAtVoltage(d Device, v float64) (float64, error) {
	il, i0, rs, nvth := d.PhotocurrentA, d.SatCurrentA, d.SeriesOhm, d.ModifiedVthV

	switch d.circuitClass() {
	case caseIdeal:
		// I = I_L - I_0*(exp(V/nVth) - 1)
		return il - i0*math.Expm1(v/nvth), nil

	case caseNoSeries:
		// Explicit with the shunt term; no Lambert W needed at R_s = 0.
		return il - i0*math.Expm1(v/nvth) - v*d.shuntConductance(), nil

	case caseNoShunt:
		// W argument: R_s*I_0/nVth * exp((R_s*(I_L+I_0) + V)/nVth)
		logArg := math.Log(rs*i0/nvth) + (rs*(il+i0)+v)/nvth
		w, err := wOfLog(logArg)
		if err != nil {
			return 0, valueErrorf("currentAtVoltage", "lambert argument: %v", err)
		}
		return il + i0 - nvth/rs*w, nil

	default: // caseFull
		gsh := d.shuntConductance()
		scale := nvth * (1 + gsh*rs)
		logArg := math.Log(rs*i0/scale) + (rs*(il+i0)+v)/scale
		w, err := wOfLog(logArg)
		if err != nil {
			return 0, valueErrorf("currentAtVoltage", "lambert argument: %v", err)
		}
		return (il+i0-v*gsh)/(1+gsh*rs) - nvth/rs*w, nil
	}
}

// VoltageAtCurrent solves the single-diode equation for the terminal voltage
// at the given terminal current, the symmetric Lambert-W inversion.
func VoltageAtCurrent(d Device, currentA float64) (float64, error) {
	const op = "VoltageAtCurrent"
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if !isFinite(currentA) {
		return 0, valueErrorf(op, "current %g is not finite", currentA)
	}
	return voltageAtCurrent(d, currentA)
}

func voltageAtCurrent(d Device, i float64) (float64, error) {
	il, i0, rs, rsh, nvth := d.PhotocurrentA, d.SatCurrentA, d.SeriesOhm, d.ShuntOhm, d.ModifiedVthV

	switch d.circuitClass() {
	case caseIdeal, caseNoShunt:
		// With no shunt path the diode carries I_L + I_0 - I exactly, so
		// V = nVth*log((I_L + I_0 - I)/I_0) - I*R_s. Currents at or above
		// the dark asymptote I_L + I_0 have no finite solution.
		if i >= il+i0 {
			return 0, domainError("voltageAtCurrent", "currentA", i,
				"must be below the zero-shunt asymptote I_L + I_0")
		}
		return nvth*math.Log1p((il-i)/i0) - i*rs, nil

	default: // caseFull, caseNoSeries
		// W argument: I_0*R_sh/nVth * exp(R_sh*(I_L + I_0 - I)/nVth)
		logArg := math.Log(i0*rsh/nvth) + rsh*(il+i0-i)/nvth
		w, err := wOfLog(logArg)
		if err != nil {
			return 0, valueErrorf("voltageAtCurrent", "lambert argument: %v", err)
		}
		return (il+i0-i)*rsh - i*rs - nvth*w, nil
	}
}

// Residual evaluates the KCL sum at the diode node for a candidate (V, I)
// pair. A solution of the implicit equation drives it to within a few ulps of
// the dominant current scale.
func Residual(d Device, voltageV, currentA float64) float64 {
	vd := voltageV + currentA*d.SeriesOhm
	return d.PhotocurrentA -
		d.SatCurrentA*math.Expm1(vd/d.ModifiedVthV) -
		vd*d.shuntConductance() -
		currentA
}

// conductanceAtVoltage computes dI/dV and I at the given voltage from the
// implicit-function derivative of the circuit equation. Used by the
// maximum-power search and the terminal-resistance characteristics.
func conductanceAtVoltage(d Device, v float64) (didv, i float64, err error) {
	i, err = currentAtVoltage(d, v)
	if err != nil {
		return 0, 0, err
	}

	nvth := d.ModifiedVthV
	arg := (v + i*d.SeriesOhm) / nvth
	gsh := d.shuntConductance()

	if arg > maxExpArg {
		// The diode conductance dwarfs everything else; the terminal
		// slope saturates at -1/R_s (or diverges when R_s = 0).
		if d.SeriesOhm > 0 {
			return -1 / d.SeriesOhm, i, nil
		}
		return math.Inf(-1), i, nil
	}

	gd := d.SatCurrentA/nvth*math.Exp(arg) + gsh
	return -gd / (1 + d.SeriesOhm*gd), i, nil
}

// wOfLog evaluates W0(exp(logArg)), switching to the log-domain solver when
// exp(logArg) would overflow.
func wOfLog(logArg float64) (float64, error) {
	if logArg > maxExpArg {
		return lambertw.OfExp(logArg)
	}
	return lambertw.W0(math.Exp(logArg))
}
