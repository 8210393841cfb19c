// Package config loads the reference device library used by the pvmodel
// tools: named single-diode parameter sets measured at a reference condition,
// together with the material and temperature coefficients that drive
// operating-condition translation.
package config

import (
	"fmt"
	"math"

	"github.com/solarmetrics/pvmodel/pkg/sdm"
)

// Provider defines the interface for device library data sources.
type Provider interface {
	// LoadLibrary loads the complete device library.
	LoadLibrary() (*Library, error)

	Close() error
}

// Library is a named collection of reference device definitions.
type Library struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// Get returns the device definition with the given name.
func (l *Library) Get(name string) (DeviceConfig, bool) {
	for _, d := range l.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}

// Names lists the device names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Devices))
	for i, d := range l.Devices {
		names[i] = d.Name
	}
	return names
}

// DeviceConfig holds one reference device definition as configured.
type DeviceConfig struct {
	Name          string  `yaml:"name"`
	Material      string  `yaml:"material,omitempty"`
	CellsInSeries int     `yaml:"cells_in_series"`
	Ideality      float64 `yaml:"ideality"`
	// TempC is the reference cell temperature; nil means STC (25 degC).
	TempC         *float64 `yaml:"temp_c,omitempty"`
	PhotocurrentA float64  `yaml:"photocurrent_a"`
	SatCurrentA   float64  `yaml:"sat_current_a"`
	SeriesOhm     float64  `yaml:"series_ohm"`
	// ShuntOhm of 0 (or omitted) means infinite: zero shunt conductance.
	ShuntOhm          float64 `yaml:"shunt_ohm,omitempty"`
	AlphaIscAPerC     float64 `yaml:"alpha_isc_a_per_c"`
	SatCurrentTempExp float64 `yaml:"sat_current_temp_exp"`
	// BandgapV is the per-cell effective bandgap [eV]; 0 (or omitted) means
	// look it up from the material table.
	BandgapV    float64 `yaml:"bandgap_v,omitempty"`
	ShuntPolicy string  `yaml:"shunt_policy,omitempty"` // "constant" (default) or "inverse-irradiance"
}

// ReferenceDevice converts the configured definition into the model-layer
// parameter record, applying defaults and validating the result.
func (dc DeviceConfig) ReferenceDevice() (sdm.ReferenceDevice, error) {
	if dc.Name == "" {
		return sdm.ReferenceDevice{}, fmt.Errorf("config: device has no name")
	}
	if dc.CellsInSeries <= 0 {
		return sdm.ReferenceDevice{}, fmt.Errorf("config: device %q: cells_in_series must be > 0, got %d",
			dc.Name, dc.CellsInSeries)
	}
	if dc.Ideality <= 0 {
		return sdm.ReferenceDevice{}, fmt.Errorf("config: device %q: ideality must be > 0, got %g",
			dc.Name, dc.Ideality)
	}

	tempC := sdm.STCTempC
	if dc.TempC != nil {
		tempC = *dc.TempC
	}

	bandgap := dc.BandgapV
	if bandgap == 0 {
		eg, ok := sdm.BandgapSTC(sdm.Material(dc.Material))
		if !ok {
			return sdm.ReferenceDevice{}, fmt.Errorf("config: device %q: unknown material %q and no bandgap_v given",
				dc.Name, dc.Material)
		}
		bandgap = eg
	}
	// The model layer works with the lumped thermal voltage n*N_s*kT/q, so
	// the per-cell bandgap is scaled by the cell count to keep the diode
	// exponent Eg/(n*kT/q) per cell.
	bandgap *= float64(dc.CellsInSeries)

	shunt := dc.ShuntOhm
	if shunt == 0 {
		shunt = math.Inf(1)
	}

	var policy sdm.ShuntPolicy
	switch dc.ShuntPolicy {
	case "", "constant":
		policy = sdm.ShuntConstant
	case "inverse-irradiance":
		policy = sdm.ShuntInverseIrradiance
	default:
		return sdm.ReferenceDevice{}, fmt.Errorf("config: device %q: unknown shunt_policy %q",
			dc.Name, dc.ShuntPolicy)
	}

	ref := sdm.ReferenceDevice{
		Device: sdm.Device{
			PhotocurrentA: dc.PhotocurrentA,
			SatCurrentA:   dc.SatCurrentA,
			SeriesOhm:     dc.SeriesOhm,
			ShuntOhm:      shunt,
			ModifiedVthV:  sdm.ModifiedThermalVoltage(dc.CellsInSeries, dc.Ideality, tempC),
		},
		TempC:             tempC,
		AlphaIscAPerC:     dc.AlphaIscAPerC,
		BandgapV:          bandgap,
		SatCurrentTempExp: dc.SatCurrentTempExp,
		ShuntPolicy:       policy,
	}
	if err := ref.Validate(); err != nil {
		return sdm.ReferenceDevice{}, fmt.Errorf("config: device %q: %w", dc.Name, err)
	}
	return ref, nil
}
