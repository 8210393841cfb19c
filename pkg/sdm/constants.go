package sdm

import "math"

// Physical constants (2019 SI exact values).
const (
	// BoltzmannJPerK is the Boltzmann constant [J/K].
	BoltzmannJPerK = 1.380649e-23
	// ElementaryChargeC is the elementary charge [C].
	ElementaryChargeC = 1.602176634e-19
	// BoltzmannEVPerK is the Boltzmann constant [eV/K].
	BoltzmannEVPerK = 8.617333262e-5
)

// Standard Test Condition reference values.
const (
	// STCTempC is the STC cell temperature [degC].
	STCTempC = 25.0
	// STCIrradianceWPerM2 is the STC hemispherical irradiance [W/m^2].
	STCIrradianceWPerM2 = 1000.0
)

const kelvinOffset = 273.15

// Material identifies a photovoltaic absorber material.
type Material string

const (
	MaterialCIGS    Material = "CIGS"
	MaterialCIS     Material = "CIS"
	MaterialCdTe    Material = "CdTe"
	MaterialGaAs    Material = "GaAs"
	MaterialMonoSi  Material = "mono-Si"
	MaterialMultiSi Material = "multi-Si"
	MaterialPolySi  Material = "poly-Si"
	MaterialXSi     Material = "x-Si"
)

// BandgapSTC returns the effective bandgap energy [eV] at STC for the given
// material, per De Soto et al. 2006 (GaAs per Kittel 1986). The second return
// is false for unrecognized materials.
func BandgapSTC(m Material) (float64, bool) {
	eg, ok := bandgapEV[m]
	return eg, ok
}

var bandgapEV = map[Material]float64{
	MaterialCIGS:    1.15,
	MaterialCIS:     1.010,
	MaterialCdTe:    1.475,
	MaterialGaAs:    1.43,
	MaterialMonoSi:  1.121,
	MaterialMultiSi: 1.121,
	MaterialPolySi:  1.121,
	MaterialXSi:     1.121,
}

// CelsiusToKelvin converts a cell temperature to absolute temperature.
func CelsiusToKelvin(tempC float64) float64 {
	return tempC + kelvinOffset
}

// ThermalVoltage computes kT/q [V] at the given cell temperature [degC].
func ThermalVoltage(tempC float64) float64 {
	return BoltzmannJPerK * CelsiusToKelvin(tempC) / ElementaryChargeC
}

// ModifiedThermalVoltage computes the modified diode thermal voltage
// n * N_s * kT/q [V] that appears in the single-diode equation: the diode
// ideality factor times the number of cells in series times the thermal
// voltage.
func ModifiedThermalVoltage(cellsInSeries int, ideality, tempC float64) float64 {
	return ideality * float64(cellsInSeries) * ThermalVoltage(tempC)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
