package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solarmetrics/pvmodel/pkg/config"
	"github.com/solarmetrics/pvmodel/pkg/sdm"
)

func testLibrary() *config.Library {
	return &config.Library{
		Devices: []config.DeviceConfig{
			{
				Name:              "demo-module",
				Material:          "mono-Si",
				CellsInSeries:     72,
				Ideality:          1.1,
				PhotocurrentA:     8.0,
				SatCurrentA:       1e-9,
				SeriesOhm:         0.25,
				ShuntOhm:          500,
				AlphaIscAPerC:     0.004,
				SatCurrentTempExp: 3,
			},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := New("127.0.0.1:0", testLibrary(), zap.NewNop().Sugar())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestGetHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestGetDevices(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/devices")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Devices []string `json:"devices"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, []string{"demo-module"}, body.Devices)
}

func TestPostCurveLibraryDevice(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/curve", `{"device": "demo-module"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary sdm.CurveSummary
	decodeJSON(t, resp, &summary)
	// At the reference condition Isc sits just below the photocurrent.
	assert.InDelta(t, 8.0, summary.IscA, 0.01)
	assert.Greater(t, summary.VocV, 40.0)
	assert.Less(t, summary.VocV, 50.0)
	assert.Greater(t, summary.FillFactor, 0.5)
	assert.Less(t, summary.FillFactor, 0.95)
	assert.InDelta(t, summary.PmpW, summary.VmpV*summary.ImpA, 1e-9)
}

func TestPostCurveWithCondition(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/curve",
		`{"device": "demo-module", "condition": {"irradiance_ratio": 0.5}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary sdm.CurveSummary
	decodeJSON(t, resp, &summary)
	// Halving irradiance halves the photocurrent and with it Isc.
	assert.InDelta(t, 4.0, summary.IscA, 0.01)
}

func TestPostCurveRawParams(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/curve", `{"params": {
		"photocurrent_a": 8.0,
		"sat_current_a": 1e-9,
		"series_ohm": 0.05,
		"shunt_ohm": 500,
		"modified_vth_v": 0.5
	}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary sdm.CurveSummary
	decodeJSON(t, resp, &summary)
	assert.InDelta(t, 7.99920007876676, summary.IscA, 1e-9)
}

func TestPostIV(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/iv",
		`{"device": "demo-module", "voltages": [0, 10, 20]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Currents []float64 `json:"currents"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Currents, 3)
	assert.InDelta(t, 8.0, body.Currents[0], 0.01)
	// I(V) is non-increasing in forward bias.
	assert.GreaterOrEqual(t, body.Currents[0], body.Currents[1])
	assert.GreaterOrEqual(t, body.Currents[1], body.Currents[2])
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "unknown device",
			path:       "/api/curve",
			body:       `{"device": "nope"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "neither device nor params",
			path:       "/api/curve",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "device and params together",
			path:       "/api/curve",
			body:       `{"device": "demo-module", "params": {"photocurrent_a": 1}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "condition with raw params",
			path:       "/api/curve",
			body:       `{"params": {"photocurrent_a": 1, "sat_current_a": 1e-9, "series_ohm": 0, "modified_vth_v": 0.5}, "condition": {"cell_temp_c": 50}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid params",
			path:       "/api/curve",
			body:       `{"params": {"photocurrent_a": 1, "sat_current_a": 0, "series_ohm": 0, "modified_vth_v": 0.5}}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "dark condition has no power point",
			path:       "/api/curve",
			body:       `{"device": "demo-module", "condition": {"irradiance_ratio": 0}}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed json",
			path:       "/api/curve",
			body:       `{"device": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty voltages",
			path:       "/api/iv",
			body:       `{"device": "demo-module", "voltages": []}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative irradiance",
			path:       "/api/curve",
			body:       `{"device": "demo-module", "condition": {"irradiance_ratio": -1}}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
			}
			decodeJSON(t, resp, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}
