package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/solarmetrics/pvmodel/pkg/sdm"
)

// Handlers contains all HTTP handlers for the API server.
type Handlers struct {
	server *Server
}

// NewHandlers creates a new handlers instance.
func NewHandlers(s *Server) *Handlers {
	return &Handlers{server: s}
}

// rawParams carries caller-supplied equation parameters. A shunt_ohm of 0 (or
// omitted) means infinite, matching the device library convention.
type rawParams struct {
	PhotocurrentA float64 `json:"photocurrent_a"`
	SatCurrentA   float64 `json:"sat_current_a"`
	SeriesOhm     float64 `json:"series_ohm"`
	ShuntOhm      float64 `json:"shunt_ohm"`
	ModifiedVthV  float64 `json:"modified_vth_v"`
}

// operatingCondition is the JSON form of an operating point. Omitted fields
// default to the device's reference condition.
type operatingCondition struct {
	IrradianceRatio *float64 `json:"irradiance_ratio"`
	CellTempC       *float64 `json:"cell_temp_c"`
}

// curveRequest selects a device, either by library name (optionally
// translated to an operating condition) or by raw parameters.
type curveRequest struct {
	Device    string              `json:"device,omitempty"`
	Params    *rawParams          `json:"params,omitempty"`
	Condition *operatingCondition `json:"condition,omitempty"`
}

type ivRequest struct {
	curveRequest
	Voltages []float64 `json:"voltages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth reports liveness.
func (h *Handlers) GetHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetDevices lists the names in the loaded device library.
func (h *Handlers) GetDevices(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{
		"devices": h.server.library.Names(),
	})
}

// PostCurve computes the curve summary for the requested device and
// operating condition.
func (h *Handlers) PostCurve(w http.ResponseWriter, r *http.Request) {
	var req curveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse request body: %w", err))
		return
	}

	dev, status, err := h.resolveDevice(req)
	if err != nil {
		h.writeError(w, status, err)
		return
	}

	summary, err := sdm.Summary(dev)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// PostIV evaluates currents at the requested voltages.
func (h *Handlers) PostIV(w http.ResponseWriter, r *http.Request) {
	var req ivRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse request body: %w", err))
		return
	}
	if len(req.Voltages) == 0 {
		h.writeError(w, http.StatusBadRequest, errors.New("voltages must be a non-empty array"))
		return
	}

	dev, status, err := h.resolveDevice(req.curveRequest)
	if err != nil {
		h.writeError(w, status, err)
		return
	}

	currents, err := sdm.CurrentAtVoltages(sdm.FromDevices([]sdm.Device{dev}), req.Voltages)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]float64{"currents": currents})
}

// resolveDevice turns a request into equation parameters. Library devices may
// carry an operating condition; raw parameters are already at their operating
// point, so a condition alongside them is rejected.
func (h *Handlers) resolveDevice(req curveRequest) (sdm.Device, int, error) {
	switch {
	case req.Device != "" && req.Params != nil:
		return sdm.Device{}, http.StatusBadRequest, errors.New("device and params are mutually exclusive")

	case req.Device != "":
		dc, ok := h.server.library.Get(req.Device)
		if !ok {
			return sdm.Device{}, http.StatusNotFound, fmt.Errorf("unknown device %q", req.Device)
		}
		ref, err := dc.ReferenceDevice()
		if err != nil {
			return sdm.Device{}, http.StatusInternalServerError, err
		}
		cond := sdm.OperatingCondition{IrradianceRatio: 1, CellTempC: ref.TempC}
		if req.Condition != nil {
			if req.Condition.IrradianceRatio != nil {
				cond.IrradianceRatio = *req.Condition.IrradianceRatio
			}
			if req.Condition.CellTempC != nil {
				cond.CellTempC = *req.Condition.CellTempC
			}
		}
		dev, err := ref.At(cond)
		if err != nil {
			return sdm.Device{}, statusForError(err), err
		}
		return dev, http.StatusOK, nil

	case req.Params != nil:
		if req.Condition != nil {
			return sdm.Device{}, http.StatusBadRequest,
				errors.New("condition requires a library device; raw params are already at their operating point")
		}
		shunt := req.Params.ShuntOhm
		if shunt == 0 {
			shunt = math.Inf(1)
		}
		dev := sdm.Device{
			PhotocurrentA: req.Params.PhotocurrentA,
			SatCurrentA:   req.Params.SatCurrentA,
			SeriesOhm:     req.Params.SeriesOhm,
			ShuntOhm:      shunt,
			ModifiedVthV:  req.Params.ModifiedVthV,
		}
		if err := dev.Validate(); err != nil {
			return sdm.Device{}, statusForError(err), err
		}
		return dev, http.StatusOK, nil

	default:
		return sdm.Device{}, http.StatusBadRequest, errors.New("request must name a device or supply params")
	}
}

// statusForError maps the model error taxonomy onto HTTP statuses: malformed
// values are the caller's fault (400), physically invalid or non-convergent
// inputs are well-formed but unprocessable (422).
func statusForError(err error) int {
	var (
		valueErr *sdm.ValueError
		domErr   *sdm.DomainError
		convErr  *sdm.ConvergenceError
	)
	switch {
	case errors.As(err, &valueErr):
		return http.StatusBadRequest
	case errors.As(err, &domErr), errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.server.logger.Errorf("failed to encode response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
