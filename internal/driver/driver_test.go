package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle/oracletest"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func parabolaConfig(strategy string, trials int) *config.Config {
	return &config.Config{
		LogLevel:  "info",
		LogFormat: "text",
		Oracle:    config.Oracle{Kind: "func", Objective: oracletest.Field},
		Space:     []config.Bound{{Name: "x", Lower: 0, Upper: 10}},
		Strategy:  config.Strategy{Name: strategy, Seed: 1234, Trials: trials},
		Replay:    config.Replay{Tolerance: 1e-9},
		Journal:   config.Journal{Driver: "memory"},
	}
}

func newDriver(t *testing.T, cfg *config.Config, stub *oracletest.Stub, opts ...Option) *Driver {
	t.Helper()
	opts = append([]Option{WithFactory(stub.Factory()), WithLogger(logger.Discard())}, opts...)
	d, err := New(cfg, opts...)
	require.NoError(t, err)
	return d
}

func TestRunLifecycle(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	d := newDriver(t, parabolaConfig("random", 20), stub)
	assert.Equal(t, Uninitialized, d.State())

	rep, err := d.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, Closed, d.State())
	assert.Equal(t, []State{Uninitialized, OracleReady, SpaceDefined, Searching, BestFound, Inspecting, Closed}, d.Transitions())

	calls := stub.Calls()
	require.Len(t, calls, 21)
	for i, c := range calls[:20] {
		assert.True(t, c.Reset, "search call %d must reset", i+1)
	}
	last := calls[20]
	assert.False(t, last.Reset, "replay must not reset")
	assert.Equal(t, rep.Best.Point.Values(), last.Inputs)

	runs, resets, closes := stub.Counts()
	assert.Equal(t, 21, runs)
	assert.Equal(t, 20, resets)
	assert.Equal(t, 1, closes)

	assert.Equal(t, oracle.Counts{Resetting: 20, Inspecting: 1}, rep.Evaluations)
	assert.Equal(t, 20, rep.Trials)
	assert.True(t, rep.ReplayMatches)
	assert.Equal(t, rep.Best.Objective, rep.ReplayObjective)
	assert.Len(t, rep.Curve, 20)
	assert.Equal(t, rep.Best.Objective, rep.Curve[19])
	assert.Equal(t, 20, rep.Summary.Count)
	assert.Equal(t, rep.Best.Objective, rep.Summary.Max)
	assert.Equal(t, int64(1234), rep.Seed)
	assert.NotEmpty(t, rep.StudyID)
}

func TestReportString(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	rep, err := newDriver(t, parabolaConfig("hillclimb", 10), stub).Run(context.Background())
	require.NoError(t, err)

	x, _ := rep.Best.Point.Value("x")
	want := fmt.Sprintf("Solution is {x: %v} for a value of %v", x, rep.Best.Objective)
	assert.Equal(t, want, rep.String())
	assert.True(t, strings.HasPrefix(rep.String(), "Solution is {x: "))
}

func TestRunAbortsOnSimulationFault(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	stub.FailRunAt = 3
	store := journal.NewMemoryStore()
	d := newDriver(t, parabolaConfig("tpe", 20), stub, WithJournal(store))

	rep, err := d.Run(context.Background())
	assert.Nil(t, rep)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oracle.ErrSimulationRun))
	var runErr *oracle.RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, 3, runErr.Trial)
	assert.Equal(t, oracle.StageRun, runErr.Stage)

	runs, _, closes := stub.Counts()
	assert.Equal(t, 3, runs, "no evaluation after the fault")
	assert.Equal(t, 1, closes)
	assert.Equal(t, Closed, d.State())
	assert.NotContains(t, d.Transitions(), BestFound)
	assert.NotContains(t, d.Transitions(), Inspecting)

	studies, err := store.ListStudies(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, models.StudyStatusFailed, studies[0].Status)
	assert.Contains(t, studies[0].Error, "simulation run failed")
	assert.Nil(t, studies[0].BestObjective)
}

func TestRunInitFailure(t *testing.T) {
	d, err := New(parabolaConfig("random", 5),
		WithFactory(oracletest.FailingFactory(errors.New("model not found"))),
		WithLogger(logger.Discard()))
	require.NoError(t, err)

	rep, err := d.Run(context.Background())
	assert.Nil(t, rep)
	assert.True(t, errors.Is(err, oracle.ErrOracleInit), "got %v", err)
	var initErr *oracle.InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "func", initErr.Kind)
	assert.Equal(t, Closed, d.State())
	assert.Equal(t, []State{Uninitialized, Closed}, d.Transitions())
}

func TestRunArityMismatch(t *testing.T) {
	stub := oracletest.New(2, oracletest.Parabola)
	d := newDriver(t, parabolaConfig("random", 5), stub)

	rep, err := d.Run(context.Background())
	assert.Nil(t, rep)
	assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)

	runs, _, closes := stub.Counts()
	assert.Zero(t, runs)
	assert.Equal(t, 1, closes)
	assert.Equal(t, Closed, d.State())
}

func TestRunConfiguresStatic(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	cfg := parabolaConfig("random", 3)
	cfg.Static = map[string]float64{"gas_price": 30, "liquid_price": 10}

	_, err := newDriver(t, cfg, stub).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Static, stub.Static())
}

// drifting returns a different value on every run, like a model with hidden state
func drifting() (*oracletest.Stub, *atomic.Int64) {
	var n atomic.Int64
	return oracletest.New(1, func(x []float64) float64 {
		return float64(n.Add(1))
	}), &n
}

func TestReplayMismatch(t *testing.T) {
	stub, _ := drifting()
	rep, err := newDriver(t, parabolaConfig("random", 4), stub).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.ReplayMatches)
	assert.Equal(t, 4.0, rep.Best.Objective)
	assert.Equal(t, 5.0, rep.ReplayObjective)

	strictStub, _ := drifting()
	cfg := parabolaConfig("random", 4)
	cfg.Replay.Strict = true
	rep, err = newDriver(t, cfg, strictStub).Run(context.Background())
	assert.Nil(t, rep)
	assert.True(t, errors.Is(err, ErrReplayMismatch), "got %v", err)
	_, _, closes := strictStub.Counts()
	assert.Equal(t, 1, closes)
}

func TestRunOnlyOnce(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	d := newDriver(t, parabolaConfig("random", 2), stub)
	_, err := d.Run(context.Background())
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	assert.Error(t, err)
	_, _, closes := stub.Counts()
	assert.Equal(t, 1, closes)
}

func TestCancelledBeforeSearch(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := newDriver(t, parabolaConfig("random", 5), stub).Run(ctx)
	assert.Nil(t, rep)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	runs, _, closes := stub.Counts()
	assert.Zero(t, runs)
	assert.Equal(t, 1, closes)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown strategy", func(c *config.Config) { c.Strategy.Name = "gradient" }},
		{"empty space", func(c *config.Config) { c.Space = nil }},
		{"inverted bounds", func(c *config.Config) { c.Space[0].Lower = 20 }},
		{"no evaluations", func(c *config.Config) { c.Strategy.Trials = 0 }},
		{"startup exceeds total", func(c *config.Config) { c.Strategy.InitPoints = 50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parabolaConfig("random", 10)
			tt.mutate(cfg)
			_, err := New(cfg, WithFactory(oracletest.New(1, oracletest.Parabola).Factory()))
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}

	_, err := New(parabolaConfig("random", 10))
	assert.True(t, errors.Is(err, models.ErrConfiguration), "func kind needs a factory, got %v", err)
}

func TestRunRecordsJournalAndMetrics(t *testing.T) {
	stub := oracletest.New(1, oracletest.Parabola)
	store := journal.NewMemoryStore()
	collector := metrics.NewCollector()
	d := newDriver(t, parabolaConfig("anneal", 12), stub, WithJournal(store), WithMetrics(collector))

	rep, err := d.Run(context.Background())
	require.NoError(t, err)

	study, ok, err := store.GetStudy(context.Background(), rep.StudyID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StudyStatusCompleted, study.Status)
	assert.Equal(t, "anneal", study.Strategy)
	require.NotNil(t, study.BestObjective)
	assert.Equal(t, rep.Best.Objective, *study.BestObjective)

	trials, err := store.Trials(context.Background(), rep.StudyID)
	require.NoError(t, err)
	assert.Len(t, trials, 12)

	labels := metrics.StudyLabels(rep.StudyID, "anneal")
	assert.Equal(t, rep.Curve, collector.Values(metrics.MetricBestSoFar, labels))
	assert.Equal(t, []float64{rep.ReplayObjective}, collector.Values(metrics.MetricReplay, labels))
}

func TestPlantStudy(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = config.Strategy{Name: "tpe", Seed: 7, InitPoints: 5, Trials: 15}

	d, err := New(cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	rep, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 15, rep.Trials)
	assert.True(t, rep.ReplayMatches, "plant is deterministic after a reset")
	assert.Equal(t, []string{"dec1_flow_allocation", "dec1_temperature", "dec2_temperature"}, rep.Best.Point.Names())
	assert.True(t, d.Space().Contains(rep.Best.Point.Values()))
	assert.Greater(t, rep.Best.Objective, 0.0)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "best_found", BestFound.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", State(42).String())
}
