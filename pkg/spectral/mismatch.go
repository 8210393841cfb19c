// Package spectral computes the spectral mismatch correction factor M used to
// normalize a measured short-circuit current to a reference spectral and
// irradiance condition, and the effective irradiance ratio F derived from it.
package spectral

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"
)

// Curve is a sampled spectral quantity: spectral responsivity [A/W] or
// spectral irradiance [W/m^2/nm] versus wavelength [nm]. Wavelengths must be
// strictly increasing.
type Curve struct {
	WavelengthNM []float64
	Values       []float64
}

func (c Curve) validate(name string) error {
	if len(c.WavelengthNM) != len(c.Values) {
		return fmt.Errorf("spectral: %s: wavelength and value lengths differ (%d vs %d)",
			name, len(c.WavelengthNM), len(c.Values))
	}
	if len(c.WavelengthNM) < 2 {
		return fmt.Errorf("spectral: %s: need at least 2 samples, got %d", name, len(c.WavelengthNM))
	}
	for i, w := range c.WavelengthNM {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("spectral: %s: non-finite wavelength at index %d", name, i)
		}
		if i > 0 && w <= c.WavelengthNM[i-1] {
			return fmt.Errorf("spectral: %s: wavelengths not strictly increasing at index %d", name, i)
		}
		if y := c.Values[i]; math.IsNaN(y) || math.IsInf(y, 0) {
			return fmt.Errorf("spectral: %s: non-finite value at index %d", name, i)
		}
	}
	return nil
}

// DeviceSpectra holds the responsivity and illuminating irradiance of one
// device at the operating condition (OC) and the reference condition (RC).
type DeviceSpectra struct {
	ResponsivityOC Curve
	IrradianceOC   Curve
	ResponsivityRC Curve
	IrradianceRC   Curve
}

// MismatchInputs carries the eight spectra of the test device and the
// reference device entering the four-integral mismatch formula.
type MismatchInputs struct {
	Test      DeviceSpectra
	Reference DeviceSpectra
}

// Mismatch computes the spectral mismatch correction factor
//
//	M = (∫S_TD_OC·E_TD_OC / ∫S_TD_RC·E_TD_RC) * (∫S_RD_RC·E_RD_RC / ∫S_RD_OC·E_RD_OC)
//
// where each integrand is the product of a responsivity and an irradiance
// resampled onto the overlap of their wavelength grids (piecewise-linear) and
// integrated by trapezoidal quadrature.
func Mismatch(in MismatchInputs) (float64, error) {
	tdOC, err := integrateProduct("test OC", in.Test.ResponsivityOC, in.Test.IrradianceOC)
	if err != nil {
		return 0, err
	}
	tdRC, err := integrateProduct("test RC", in.Test.ResponsivityRC, in.Test.IrradianceRC)
	if err != nil {
		return 0, err
	}
	rdOC, err := integrateProduct("reference OC", in.Reference.ResponsivityOC, in.Reference.IrradianceOC)
	if err != nil {
		return 0, err
	}
	rdRC, err := integrateProduct("reference RC", in.Reference.ResponsivityRC, in.Reference.IrradianceRC)
	if err != nil {
		return 0, err
	}

	if tdRC == 0 || rdOC == 0 {
		return 0, fmt.Errorf("spectral: zero denominator integral (test RC = %g, reference OC = %g)", tdRC, rdOC)
	}
	return (tdOC / tdRC) * (rdRC / rdOC), nil
}

// EffectiveIrradianceRatio converts a measured short-circuit current to the
// effective irradiance ratio F = Isc / (M * Isc_ref) consumed by the
// single-diode parameter translation.
func EffectiveIrradianceRatio(iscA, iscRefA, mismatch float64) (float64, error) {
	for name, v := range map[string]float64{"isc": iscA, "isc_ref": iscRefA, "mismatch": mismatch} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("spectral: %s = %g is not finite", name, v)
		}
	}
	if iscRefA <= 0 || mismatch <= 0 {
		return 0, fmt.Errorf("spectral: isc_ref (%g) and mismatch (%g) must be > 0", iscRefA, mismatch)
	}
	if iscA < 0 {
		return 0, fmt.Errorf("spectral: isc = %g must be >= 0", iscA)
	}
	return iscA / (mismatch * iscRefA), nil
}

// integrateProduct integrates s(λ)*e(λ) over the overlap of the two
// wavelength grids.
func integrateProduct(name string, s, e Curve) (float64, error) {
	if err := s.validate(name + " responsivity"); err != nil {
		return 0, err
	}
	if err := e.validate(name + " irradiance"); err != nil {
		return 0, err
	}

	lo := math.Max(s.WavelengthNM[0], e.WavelengthNM[0])
	hi := math.Min(s.WavelengthNM[len(s.WavelengthNM)-1], e.WavelengthNM[len(e.WavelengthNM)-1])
	if lo >= hi {
		return 0, fmt.Errorf("spectral: %s: wavelength grids do not overlap", name)
	}

	grid := mergeGrids(s.WavelengthNM, e.WavelengthNM, lo, hi)
	if len(grid) < 2 {
		return 0, fmt.Errorf("spectral: %s: overlap too narrow to integrate", name)
	}

	var ps, pe interp.PiecewiseLinear
	if err := ps.Fit(s.WavelengthNM, s.Values); err != nil {
		return 0, fmt.Errorf("spectral: %s responsivity: %w", name, err)
	}
	if err := pe.Fit(e.WavelengthNM, e.Values); err != nil {
		return 0, fmt.Errorf("spectral: %s irradiance: %w", name, err)
	}

	product := make([]float64, len(grid))
	for i, w := range grid {
		product[i] = ps.Predict(w) * pe.Predict(w)
	}
	return integrate.Trapezoidal(grid, product), nil
}

// mergeGrids unions two sorted wavelength grids clipped to [lo, hi], keeping
// each breakpoint once so the quadrature never steps over a grid knot.
func mergeGrids(a, b []float64, lo, hi float64) []float64 {
	merged := make([]float64, 0, len(a)+len(b)+2)
	merged = append(merged, lo)
	for _, w := range a {
		if w > lo && w < hi {
			merged = append(merged, w)
		}
	}
	for _, w := range b {
		if w > lo && w < hi {
			merged = append(merged, w)
		}
	}
	merged = append(merged, hi)
	sort.Float64s(merged)

	out := merged[:1]
	for _, w := range merged[1:] {
		if w != out[len(out)-1] {
			out = append(out, w)
		}
	}
	return out
}
