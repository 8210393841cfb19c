// pvcurve sweeps a single-diode I-V curve and prints its characteristics.
// The device comes either from a YAML device library (-config/-device, with
// an optional operating condition) or from raw equation parameters given on
// the command line. It can export the sampled curve as CSV and score the
// model against a measured V,I CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/solarmetrics/pvmodel/pkg/config"
	"github.com/solarmetrics/pvmodel/pkg/sdm"
)

func main() {
	var (
		cfgFile    = flag.String("config", "", "Path to a YAML device library")
		deviceName = flag.String("device", "", "Device name within the library")
		irradiance = flag.Float64("irradiance", 1.0, "Effective irradiance ratio F (library devices only)")
		cellTemp   = flag.Float64("temp", sdm.STCTempC, "Cell temperature in degC (library devices only)")

		photocurrent = flag.Float64("il", 0, "Photocurrent in A (raw parameters)")
		satCurrent   = flag.Float64("i0", 0, "Diode saturation current in A (raw parameters)")
		seriesOhm    = flag.Float64("rs", 0, "Series resistance in ohms (raw parameters)")
		shuntOhm     = flag.Float64("rsh", 0, "Shunt resistance in ohms, 0 means infinite (raw parameters)")
		modifiedVth  = flag.Float64("nvth", 0, "Modified thermal voltage n*Ns*kT/q in V (raw parameters)")

		points    = flag.Int("points", 200, "Number of curve samples for CSV output")
		csvOutput = flag.String("csv", "", "Optional CSV output file path for the sampled curve")
		measured  = flag.String("measured", "", "Optional measured V,I CSV to score the model against")
	)
	flag.Parse()

	dev, label, err := resolveDevice(*cfgFile, *deviceName, *irradiance, *cellTemp,
		*photocurrent, *satCurrent, *seriesOhm, *shuntOhm, *modifiedVth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	summary, err := sdm.Summary(dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing curve characteristics: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("I-V Curve Characteristics\n")
	fmt.Printf("=========================\n\n")
	fmt.Printf("Device: %s\n\n", label)
	fmt.Printf("Parameters:\n")
	fmt.Printf("  Photocurrent:       %.6g A\n", dev.PhotocurrentA)
	fmt.Printf("  Saturation current: %.6g A\n", dev.SatCurrentA)
	fmt.Printf("  Series resistance:  %.6g ohm\n", dev.SeriesOhm)
	fmt.Printf("  Shunt resistance:   %.6g ohm\n", dev.ShuntOhm)
	fmt.Printf("  Thermal voltage:    %.6g V\n\n", dev.ModifiedVthV)
	fmt.Printf("Characteristics:\n")
	fmt.Printf("  Isc: %.6f A\n", summary.IscA)
	fmt.Printf("  Voc: %.6f V\n", summary.VocV)
	fmt.Printf("  Vmp: %.6f V\n", summary.VmpV)
	fmt.Printf("  Imp: %.6f A\n", summary.ImpA)
	fmt.Printf("  Pmp: %.6f W\n", summary.PmpW)
	fmt.Printf("  FF:  %.4f\n", summary.FillFactor)

	if rsc, err := sdm.ResistanceAtShortCircuit(dev); err == nil {
		fmt.Printf("  R at Isc: %.4f ohm\n", rsc)
	}
	if roc, err := sdm.ResistanceAtOpenCircuit(dev); err == nil {
		fmt.Printf("  R at Voc: %.4f ohm\n", roc)
	}

	if *csvOutput != "" {
		if err := exportCurveCSV(*csvOutput, dev, *points); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nCurve exported to: %s\n", *csvOutput)
	}

	if *measured != "" {
		if err := scoreAgainstMeasured(*measured, dev); err != nil {
			fmt.Fprintf(os.Stderr, "Error scoring measured data: %v\n", err)
			os.Exit(1)
		}
	}
}

// resolveDevice builds the equation parameters from either the device library
// or the raw parameter flags.
func resolveDevice(cfgFile, deviceName string, irradiance, cellTemp,
	photocurrent, satCurrent, seriesOhm, shuntOhm, modifiedVth float64) (sdm.Device, string, error) {

	if deviceName != "" {
		if cfgFile == "" {
			return sdm.Device{}, "", fmt.Errorf("-device requires -config")
		}
		library, err := config.NewYAMLProvider(cfgFile).LoadLibrary()
		if err != nil {
			return sdm.Device{}, "", err
		}
		dc, ok := library.Get(deviceName)
		if !ok {
			return sdm.Device{}, "", fmt.Errorf("device %q not found in %s (have: %v)",
				deviceName, cfgFile, library.Names())
		}
		ref, err := dc.ReferenceDevice()
		if err != nil {
			return sdm.Device{}, "", err
		}
		dev, err := ref.At(sdm.OperatingCondition{IrradianceRatio: irradiance, CellTempC: cellTemp})
		if err != nil {
			return sdm.Device{}, "", err
		}
		label := fmt.Sprintf("%s (F=%.3g, T=%.4g degC)", deviceName, irradiance, cellTemp)
		return dev, label, nil
	}

	if shuntOhm == 0 {
		shuntOhm = math.Inf(1)
	}
	dev := sdm.Device{
		PhotocurrentA: photocurrent,
		SatCurrentA:   satCurrent,
		SeriesOhm:     seriesOhm,
		ShuntOhm:      shuntOhm,
		ModifiedVthV:  modifiedVth,
	}
	if err := dev.Validate(); err != nil {
		return sdm.Device{}, "", fmt.Errorf("raw parameters invalid (did you mean -config/-device?): %w", err)
	}
	return dev, "raw parameters", nil
}

func exportCurveCSV(filename string, dev sdm.Device, points int) error {
	curve, err := sdm.CurvePoints(dev, points)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Voltage_V", "Current_A", "Power_W"}); err != nil {
		return err
	}
	for _, p := range curve {
		record := []string{
			strconv.FormatFloat(p.VoltageV, 'g', -1, 64),
			strconv.FormatFloat(p.CurrentA, 'g', -1, 64),
			strconv.FormatFloat(p.VoltageV*p.CurrentA, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// scoreAgainstMeasured reads a V,I CSV and reports how well the model
// reproduces the measured currents.
func scoreAgainstMeasured(filename string, dev sdm.Device) error {
	volts, amps, err := readMeasuredCSV(filename)
	if err != nil {
		return err
	}
	if len(volts) < 2 {
		return fmt.Errorf("not enough measured points (%d), need at least 2", len(volts))
	}

	predicted := make([]float64, len(volts))
	for i, v := range volts {
		predicted[i], err = sdm.CurrentAtVoltage(dev, v)
		if err != nil {
			return fmt.Errorf("model evaluation at %g V: %w", v, err)
		}
	}

	var sumSq, sumAbs float64
	for i := range amps {
		r := amps[i] - predicted[i]
		sumSq += r * r
		sumAbs += math.Abs(r)
	}
	n := float64(len(amps))
	rmse := math.Sqrt(sumSq / n)
	mae := sumAbs / n
	r2 := stat.RSquaredFrom(predicted, amps, nil)

	fmt.Printf("\nMeasured Data Comparison\n")
	fmt.Printf("========================\n\n")
	fmt.Printf("  Points: %d\n", len(amps))
	fmt.Printf("  RMSE:   %.6g A\n", rmse)
	fmt.Printf("  MAE:    %.6g A\n", mae)
	fmt.Printf("  R2:     %.6f\n", r2)
	return nil
}

// readMeasuredCSV parses a two-column V,I CSV, tolerating a header row.
func readMeasuredCSV(filename string) (volts, amps []float64, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for i, record := range records {
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("row %d: expected two columns V,I", i+1)
		}
		v, errV := strconv.ParseFloat(record[0], 64)
		a, errA := strconv.ParseFloat(record[1], 64)
		if errV != nil || errA != nil {
			if i == 0 {
				continue // header row
			}
			return nil, nil, fmt.Errorf("row %d: could not parse %q,%q as numbers", i+1, record[0], record[1])
		}
		volts = append(volts, v)
		amps = append(amps, a)
	}
	return volts, amps, nil
}
