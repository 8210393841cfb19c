package sdm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/solarmetrics/pvmodel/pkg/rootfind"
)

// CurveSummary holds the derived characteristics of one I-V curve. It is
// recomputed on demand and never cached by this package.
type CurveSummary struct {
	IscA       float64 `json:"isc_a"`
	VocV       float64 `json:"voc_v"`
	VmpV       float64 `json:"vmp_v"`
	ImpA       float64 `json:"imp_a"`
	PmpW       float64 `json:"pmp_w"`
	FillFactor float64 `json:"fill_factor"`
}

// mppRelTol is the relative tolerance on Vmp for the maximum-power search.
const mppRelTol = 1e-12

// ShortCircuitCurrent computes Isc = I(V=0).
func ShortCircuitCurrent(d Device) (float64, error) {
	return CurrentAtVoltage(d, 0)
}

// OpenCircuitVoltage computes Voc = V(I=0).
func OpenCircuitVoltage(d Device) (float64, error) {
	return VoltageAtCurrent(d, 0)
}

// MaxPower locates the maximum-power point by a bracketed root search on
// dP/dV over [0, Voc]. P(V) is unimodal there for physically valid
// parameters, with dP/dV(0) > 0 and dP/dV(Voc) < 0; a degenerate curve that
// fails to bracket (e.g. I_L = 0) yields a ConvergenceError.
func MaxPower(d Device) (vmpV, impA, pmpW float64, err error) {
	const op = "MaxPower"
	if err := d.Validate(); err != nil {
		return 0, 0, 0, err
	}

	voc, err := voltageAtCurrent(d, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	if voc <= 0 {
		return 0, 0, 0, &ConvergenceError{Op: op,
			Err: fmt.Errorf("open-circuit voltage %g V leaves no search interval", voc)}
	}

	dPdV := func(v float64) (float64, error) {
		didv, i, err := conductanceAtVoltage(d, v)
		if err != nil {
			return 0, err
		}
		return i + v*didv, nil
	}

	// The bracket condition doubles as the degeneracy check.
	g0, err := dPdV(0)
	if err != nil {
		return 0, 0, 0, err
	}
	gVoc, err := dPdV(voc)
	if err != nil {
		return 0, 0, 0, err
	}
	if g0 <= 0 || gVoc >= 0 {
		return 0, 0, 0, &ConvergenceError{Op: op,
			Err: fmt.Errorf("dP/dV does not change sign on [0, %g] (%g at 0, %g at Voc)", voc, g0, gVoc)}
	}

	vmp, err := rootfind.Brent(dPdV, 0, voc, rootfind.Options{RelTol: mppRelTol})
	if err != nil {
		return 0, 0, 0, &ConvergenceError{Op: op, Err: err}
	}

	imp, err := currentAtVoltage(d, vmp)
	if err != nil {
		return 0, 0, 0, err
	}
	return vmp, imp, vmp * imp, nil
}

// FillFactor computes Pmp / (Voc * Isc). It fails with a DomainError when
// Voc*Isc is zero, where the ratio is undefined.
func FillFactor(d Device) (float64, error) {
	s, err := Summary(d)
	if err != nil {
		return 0, err
	}
	return s.FillFactor, nil
}

// Summary derives all curve characteristics from one device state.
func Summary(d Device) (CurveSummary, error) {
	const op = "Summary"
	if err := d.Validate(); err != nil {
		return CurveSummary{}, err
	}

	isc, err := currentAtVoltage(d, 0)
	if err != nil {
		return CurveSummary{}, err
	}
	vmp, imp, pmp, err := MaxPower(d)
	if err != nil {
		return CurveSummary{}, err
	}
	voc, err := voltageAtCurrent(d, 0)
	if err != nil {
		return CurveSummary{}, err
	}

	if isc*voc == 0 {
		return CurveSummary{}, domainError(op, "Voc*Isc", isc*voc,
			"is zero; fill factor undefined")
	}
	return CurveSummary{
		IscA:       isc,
		VocV:       voc,
		VmpV:       vmp,
		ImpA:       imp,
		PmpW:       pmp,
		FillFactor: pmp / (voc * isc),
	}, nil
}

// ResistanceAtShortCircuit computes the terminal resistance -dV/dI at V = 0.
func ResistanceAtShortCircuit(d Device) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	didv, _, err := conductanceAtVoltage(d, 0)
	if err != nil {
		return 0, err
	}
	return -1 / didv, nil
}

// ResistanceAtOpenCircuit computes the terminal resistance -dV/dI at Voc.
func ResistanceAtOpenCircuit(d Device) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	voc, err := voltageAtCurrent(d, 0)
	if err != nil {
		return 0, err
	}
	didv, _, err := conductanceAtVoltage(d, voc)
	if err != nil {
		return 0, err
	}
	return -1 / didv, nil
}

// CurvePoints samples n I-V points at evenly spaced voltages over [0, Voc].
func CurvePoints(d Device, n int) ([]IVPoint, error) {
	const op = "CurvePoints"
	if n < 2 {
		return nil, valueErrorf(op, "need at least 2 points, got %d", n)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	voc, err := voltageAtCurrent(d, 0)
	if err != nil {
		return nil, err
	}

	volts := floats.Span(make([]float64, n), 0, voc)
	points := make([]IVPoint, n)
	for i, v := range volts {
		cur, err := currentAtVoltage(d, v)
		if err != nil {
			return nil, err
		}
		points[i] = IVPoint{VoltageV: v, CurrentA: cur}
	}
	return points, nil
}
