package sdm

// Batch holds element-wise device parameters for vectorized evaluation. Each
// field slice must have either length 1 (broadcast to every element) or the
// common batch length; anything else is a shape error (ValueError).
//
// Batched operations fail the whole batch on the first element error. No
// partial results or NaN markers are ever returned.
type Batch struct {
	PhotocurrentA []float64
	SatCurrentA   []float64
	SeriesOhm     []float64
	ShuntOhm      []float64
	ModifiedVthV  []float64
}

// FromDevices builds a Batch with one element per device.
func FromDevices(devices []Device) Batch {
	b := Batch{
		PhotocurrentA: make([]float64, len(devices)),
		SatCurrentA:   make([]float64, len(devices)),
		SeriesOhm:     make([]float64, len(devices)),
		ShuntOhm:      make([]float64, len(devices)),
		ModifiedVthV:  make([]float64, len(devices)),
	}
	for i, d := range devices {
		b.PhotocurrentA[i] = d.PhotocurrentA
		b.SatCurrentA[i] = d.SatCurrentA
		b.SeriesOhm[i] = d.SeriesOhm
		b.ShuntOhm[i] = d.ShuntOhm
		b.ModifiedVthV[i] = d.ModifiedVthV
	}
	return b
}

// Len returns the broadcast length of the batch fields.
func (b Batch) Len() (int, error) {
	return broadcastLen("Batch.Len",
		len(b.PhotocurrentA), len(b.SatCurrentA), len(b.SeriesOhm),
		len(b.ShuntOhm), len(b.ModifiedVthV))
}

// deviceAt assembles the broadcast device for element i.
func (b Batch) deviceAt(i int) Device {
	return Device{
		PhotocurrentA: at(b.PhotocurrentA, i),
		SatCurrentA:   at(b.SatCurrentA, i),
		SeriesOhm:     at(b.SeriesOhm, i),
		ShuntOhm:      at(b.ShuntOhm, i),
		ModifiedVthV:  at(b.ModifiedVthV, i),
	}
}

// CurrentAtVoltages solves for the terminal current element-wise. voltsV must
// broadcast against the batch: length 1 or the batch length.
func CurrentAtVoltages(b Batch, voltsV []float64) ([]float64, error) {
	const op = "CurrentAtVoltages"
	n, err := broadcastWith(op, b, len(voltsV))
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i], err = CurrentAtVoltage(b.deviceAt(i), at(voltsV, i))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// VoltageAtCurrents solves for the terminal voltage element-wise. ampsA must
// broadcast against the batch: length 1 or the batch length.
func VoltageAtCurrents(b Batch, ampsA []float64) ([]float64, error) {
	const op = "VoltageAtCurrents"
	n, err := broadcastWith(op, b, len(ampsA))
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i], err = VoltageAtCurrent(b.deviceAt(i), at(ampsA, i))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Summaries derives curve characteristics element-wise.
func Summaries(b Batch) ([]CurveSummary, error) {
	n, err := b.Len()
	if err != nil {
		return nil, err
	}
	out := make([]CurveSummary, n)
	for i := 0; i < n; i++ {
		out[i], err = Summary(b.deviceAt(i))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// broadcastWith extends the batch broadcast with one more input length.
func broadcastWith(op string, b Batch, inputLen int) (int, error) {
	return broadcastLen(op,
		len(b.PhotocurrentA), len(b.SatCurrentA), len(b.SeriesOhm),
		len(b.ShuntOhm), len(b.ModifiedVthV), inputLen)
}

// broadcastLen computes the common length of the given slice lengths under
// the rule: every length is 1 or equal to the (unique) maximum.
func broadcastLen(op string, lengths ...int) (int, error) {
	n := 1
	for _, l := range lengths {
		if l == 0 {
			return 0, valueErrorf(op, "empty input in broadcast")
		}
		if l > n {
			n = l
		}
	}
	for _, l := range lengths {
		if l != 1 && l != n {
			return 0, valueErrorf(op, "shape mismatch: length %d does not broadcast to %d", l, n)
		}
	}
	return n, nil
}

// at indexes a broadcastable slice.
func at(xs []float64, i int) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	return xs[i]
}
