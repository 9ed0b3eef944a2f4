package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optkit/simplexd/internal/config"
	"github.com/optkit/simplexd/internal/logging"
	"github.com/optkit/simplexd/internal/store"
	"github.com/optkit/simplexd/optimization"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Environment: "test"}
	cfg.HTTP.Port = 8080
	cfg.Optimizer.MaxIterations = 500
	cfg.Optimizer.InitialRadius = 1.0
	return cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	require.NoError(t, err)
	return logger
}

func testServer(t *testing.T) (*Server, *httptest.Server, *store.Store) {
	t.Helper()

	runs, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })

	srv := NewServer(testConfig(t), testLogger(t), runs, NewMetrics(prometheus.NewRegistry()))
	t.Cleanup(func() { srv.Close() })

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return srv, ts, runs
}

func postOptimize(t *testing.T, ts *httptest.Server, req OptimizeRequest) (*http.Response, map[string]string) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/optimize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	out := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getStatus(t *testing.T, ts *httptest.Server, id string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/v1/runs/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// runStatus polls without failing the test, for use inside Eventually.
func runStatus(ts *httptest.Server, id string) string {
	resp, err := http.Get(ts.URL + "/api/v1/runs/" + id)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ""
	}
	status, _ := out["status"].(string)
	return status
}

func TestOptimizeEndToEnd(t *testing.T) {
	_, ts, _ := testServer(t)

	resp, out := postOptimize(t, ts, OptimizeRequest{
		Objective:     "sphere",
		InitialPoint:  []float64{2, 2},
		InitialRadius: 0.5,
		MaxIterations: 500,
		Seed:          42,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, StatusPending, out["status"])
	id := out["run_id"]
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		return runStatus(ts, id) == StatusCompleted
	}, 10*time.Second, 10*time.Millisecond)

	code, status := getStatus(t, ts, id)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sphere", status["objective"])

	best, ok := status["best_solution"].(map[string]interface{})
	require.True(t, ok, "missing best_solution in %v", status)
	assert.InDelta(t, 0, best["value"].(float64), 1e-6)

	// The completed run lands in the archive.
	resp2, err := http.Get(ts.URL + "/api/v1/runs")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var list struct {
		Runs []map[string]interface{} `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, id, list.Runs[0]["run_id"])
}

func TestOptimizeMaximizeFlipsValueBack(t *testing.T) {
	_, ts, _ := testServer(t)

	// Maximizing -sphere+... is awkward with catalog functions, so use the
	// bounded sum objective: inside [0,1]^2 its maximum is 2 at (1,1).
	_, out := postOptimize(t, ts, OptimizeRequest{
		Objective:     "sum",
		InitialPoint:  []float64{0.5, 0.5},
		InitialRadius: 0.25,
		BoundsMin:     []float64{0, 0},
		BoundsMax:     []float64{1, 1},
		MaxIterations: 500,
		Maximize:      true,
		Seed:          7,
	})
	id := out["run_id"]
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		return runStatus(ts, id) == StatusCompleted
	}, 10*time.Second, 10*time.Millisecond)

	_, status := getStatus(t, ts, id)
	best := status["best_solution"].(map[string]interface{})
	assert.InDelta(t, 2, best["value"].(float64), 1e-6)
}

func TestOptimizeRejectsUnknownObjective(t *testing.T) {
	_, ts, _ := testServer(t)

	resp, out := postOptimize(t, ts, OptimizeRequest{
		Objective:    "no-such-function",
		InitialPoint: []float64{1, 1},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "unknown objective")
}

func TestOptimizeRejectsWrongDimension(t *testing.T) {
	_, ts, _ := testServer(t)

	resp, out := postOptimize(t, ts, OptimizeRequest{
		Objective:    "booth",
		InitialPoint: []float64{1, 2, 3},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "dimension")
}

func TestOptimizeRejectsInvalidConfig(t *testing.T) {
	_, ts, _ := testServer(t)

	resp, out := postOptimize(t, ts, OptimizeRequest{
		Objective:     "sphere",
		InitialPoint:  []float64{1, 1},
		InitialRadius: -2,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "radius")
}

func TestStatusNotFound(t *testing.T) {
	_, ts, _ := testServer(t)

	code, out := getStatus(t, ts, "missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, out["error"], "not found")
}

func TestStatusFallsBackToArchive(t *testing.T) {
	_, ts, runs := testServer(t)

	require.NoError(t, runs.Save(t.Context(), store.Run{
		ID:         "archived",
		Objective:  "sphere",
		Dimension:  2,
		Iterations: 100,
		Best:       optimization.Solution{Parameters: []float64{0, 0}, Value: 0},
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}))

	code, out := getStatus(t, ts, "archived")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusCompleted, out["status"])
}

func TestCancelUnknownRun(t *testing.T) {
	_, ts, _ := testServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/optimization/missing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestObjectivesEndpoint(t *testing.T) {
	_, ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/objectives")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Objectives []string `json:"objectives"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Objectives, "sphere")
	assert.Contains(t, out.Objectives, "rosenbrock")
}
