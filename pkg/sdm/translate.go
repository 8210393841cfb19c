package sdm

import "math"

// OperatingCondition drives the translation of reference parameters to an
// arbitrary operating point.
type OperatingCondition struct {
	// IrradianceRatio is the effective irradiance ratio F relative to the
	// reference condition, >= 0 (0 is the dark condition). It is typically
	// produced by a spectral mismatch correction upstream.
	IrradianceRatio float64
	// CellTempC is the cell (or module) temperature [degC].
	CellTempC float64
}

// ShuntPolicy selects how shunt resistance responds to irradiance.
type ShuntPolicy int

const (
	// ShuntConstant holds R_sh at its reference value.
	ShuntConstant ShuntPolicy = iota
	// ShuntInverseIrradiance scales R_sh as R_sh_ref / F, the common
	// empirical model; as F -> 0 the shunt resistance goes to +Inf (zero
	// shunt conductance).
	ShuntInverseIrradiance
)

// ReferenceDevice holds equivalent-circuit parameters measured at the
// reference condition (F = 1, T = TempC) together with the temperature
// coefficients that drive translation. The saturation-current dependence is
// data-driven: both the temperature exponent and the effective bandgap are
// fields, not constants, since several published parametrizations exist.
type ReferenceDevice struct {
	Device

	// TempC is the reference cell temperature [degC], normally STCTempC.
	TempC float64
	// AlphaIscAPerC is the short-circuit current temperature coefficient
	// [A/degC].
	AlphaIscAPerC float64
	// BandgapV is the effective bandgap expressed in volts on the same
	// lumped scale as ModifiedVthV (i.e. already scaled consistently with
	// the ideality factor and cell count folded into the thermal voltage).
	BandgapV float64
	// SatCurrentTempExp is the power-law temperature exponent of the
	// saturation current (3 in the classical diffusion model).
	SatCurrentTempExp float64
	// ShuntPolicy selects the irradiance dependence of ShuntOhm.
	ShuntPolicy ShuntPolicy
}

// Validate checks the reference parameter set.
func (r ReferenceDevice) Validate() error {
	const op = "ReferenceDevice.Validate"
	if err := r.Device.Validate(); err != nil {
		return err
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"TempC", r.TempC},
		{"AlphaIscAPerC", r.AlphaIscAPerC},
		{"BandgapV", r.BandgapV},
		{"SatCurrentTempExp", r.SatCurrentTempExp},
	} {
		if !isFinite(f.value) {
			return valueErrorf(op, "%s = %g, must be finite", f.name, f.value)
		}
	}
	if CelsiusToKelvin(r.TempC) <= 0 {
		return domainError(op, "TempC", r.TempC, "is at or below absolute zero")
	}
	if r.BandgapV < 0 {
		return domainError(op, "BandgapV", r.BandgapV, "must be >= 0")
	}
	return nil
}

// At translates the reference parameters to the given operating condition:
//
//	nVth(T)  = nVth_ref * T/T_ref
//	I_L(F,T) = F * (I_L_ref + alpha_Isc*(T - T_ref)), exactly 0 at F = 0
//	I_0(T)   = I_0_ref * (T/T_ref)^gamma * exp(Eg/nVth(T) * (1 - T_ref/T))
//	R_s      held constant
//	R_sh     per ShuntPolicy
//
// with T in kelvin. The translated parameters are revalidated against the
// equation-layer domain before being returned.
func (r ReferenceDevice) At(cond OperatingCondition) (Device, error) {
	const op = "ReferenceDevice.At"
	if err := r.Validate(); err != nil {
		return Device{}, err
	}
	if !isFinite(cond.IrradianceRatio) {
		return Device{}, valueErrorf(op, "IrradianceRatio %g is not finite", cond.IrradianceRatio)
	}
	if !isFinite(cond.CellTempC) {
		return Device{}, valueErrorf(op, "CellTempC %g is not finite", cond.CellTempC)
	}
	if cond.IrradianceRatio < 0 {
		return Device{}, domainError(op, "IrradianceRatio", cond.IrradianceRatio, "must be >= 0")
	}

	tK := CelsiusToKelvin(cond.CellTempC)
	tRefK := CelsiusToKelvin(r.TempC)
	if tK <= 0 {
		return Device{}, domainError(op, "CellTempC", cond.CellTempC, "is at or below absolute zero")
	}

	ratio := tK / tRefK
	nvth := r.ModifiedVthV * ratio

	var il float64
	if f := cond.IrradianceRatio; f > 0 {
		il = f * (r.PhotocurrentA + r.AlphaIscAPerC*(cond.CellTempC-r.TempC))
	}
	if il < 0 {
		return Device{}, domainError(op, "PhotocurrentA", il,
			"translated below zero; temperature coefficient overwhelms reference photocurrent")
	}

	i0 := r.SatCurrentA * math.Pow(ratio, r.SatCurrentTempExp) *
		math.Exp(r.BandgapV/nvth*(1-tRefK/tK))

	rsh := r.ShuntOhm
	if r.ShuntPolicy == ShuntInverseIrradiance && !math.IsInf(rsh, 1) {
		// F = 0 divides to +Inf, the explicit zero-conductance form.
		rsh = r.ShuntOhm / cond.IrradianceRatio
	}

	out := Device{
		PhotocurrentA: il,
		SatCurrentA:   i0,
		SeriesOhm:     r.SeriesOhm,
		ShuntOhm:      rsh,
		ModifiedVthV:  nvth,
	}
	if err := out.Validate(); err != nil {
		return Device{}, err
	}
	return out, nil
}

// AtEach translates the reference parameters to every operating condition in
// the slice. Any element error fails the whole batch, consistent with the
// package-wide batch error policy.
func (r ReferenceDevice) AtEach(conds []OperatingCondition) ([]Device, error) {
	out := make([]Device, len(conds))
	for i, c := range conds {
		d, err := r.At(c)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
