package simd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle/oracletest"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func seededStore(t *testing.T) journal.Store {
	t.Helper()
	ctx := context.Background()
	store := journal.NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.CreateStudy(ctx, models.Study{
		ID:        "study-1",
		Strategy:  "random",
		Status:    models.StudyStatusRunning,
		Seed:      1,
		StartTime: time.Now(),
	}))
	for i, x := range []float64{2, 7, 9} {
		raw := oracletest.Parabola([]float64{x})
		require.NoError(t, store.AddTrial(ctx, models.TrialRecord{
			StudyID:   "study-1",
			Number:    i + 1,
			Point:     map[string]float64{"x": x},
			Raw:       raw,
			Adjusted:  raw,
			CreatedAt: time.Now(),
		}))
	}
	return store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := NewHTTPServer(nil, nil, logger.Discard()).Handler()
	w := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStudyEndpoints(t *testing.T) {
	h := NewHTTPServer(seededStore(t), nil, logger.Discard()).Handler()

	w := get(t, h, "/v1/studies")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Studies []models.Study `json:"studies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Studies, 1)
	assert.Equal(t, "study-1", list.Studies[0].ID)

	w = get(t, h, "/v1/studies/study-1")
	require.Equal(t, http.StatusOK, w.Code)
	var one struct {
		Study models.Study `json:"study"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, models.StudyStatusRunning, one.Study.Status)

	w = get(t, h, "/v1/studies/study-1/trials")
	require.Equal(t, http.StatusOK, w.Code)
	var trials struct {
		StudyID string               `json:"study_id"`
		Trials  []models.TrialRecord `json:"trials"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trials))
	require.Len(t, trials.Trials, 3)
	assert.Equal(t, 1, trials.Trials[0].Number)
	assert.Equal(t, 10.0, trials.Trials[1].Raw)
	assert.Equal(t, 7.0, trials.Trials[1].Point["x"])
}

func TestStudyEndpointErrors(t *testing.T) {
	h := NewHTTPServer(seededStore(t), nil, logger.Discard()).Handler()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing study", "/v1/studies/nope", http.StatusNotFound},
		{"missing study trials", "/v1/studies/nope/trials", http.StatusNotFound},
		{"bad limit", "/v1/studies?limit=zero", http.StatusBadRequest},
		{"negative limit", "/v1/studies?limit=-1", http.StatusBadRequest},
		{"bad export format", "/v1/studies/study-1/export?format=pdf", http.StatusBadRequest},
		{"metrics disabled", "/metrics", http.StatusNotFound},
		{"unknown route", "/v2/things", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/studies", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	h := NewHTTPServer(seededStore(t), nil, logger.Discard()).Handler()

	w := get(t, h, "/v1/studies/study-1/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "study-1.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 4)

	w = get(t, h, "/v1/studies/study-1/export?format=xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestMetricsEndpoint(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordTrial(4.5, 3*time.Millisecond, metrics.StudyLabels("study-1", "random"))
	h := NewHTTPServer(nil, c, logger.Discard()).Handler()

	w := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "simopt_trials_total")
	assert.Contains(t, w.Body.String(), "simopt_best_objective")
}

func TestServe(t *testing.T) {
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stub := oracletest.New(1, oracletest.Parabola)
	srv := NewServer(
		NewOracleServer(stub, logger.Discard()),
		NewHTTPServer(seededStore(t), metrics.NewCollector(), logger.Discard()),
		logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, Listeners{GRPC: grpcLis, HTTP: httpLis}) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpLis.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	rt, err := oracle.NewRemoteRuntime(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.Arity())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	_, _, closes := stub.Counts()
	assert.Equal(t, 1, closes)
}
