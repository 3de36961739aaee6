package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func bestOf(t *testing.T, x, y, obj float64) *models.BestSolution {
	t.Helper()
	space, err := models.NewSpaceBuilder().Add("x", 0, 10).Add("y", 0, 10).Build()
	require.NoError(t, err)
	p, err := space.ToNamed([]float64{x, y})
	require.NoError(t, err)
	return &models.BestSolution{Point: p, Objective: obj}
}

// stores returns every backend that runs without external services
func stores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewStore(ctx, config.Journal{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	memory, err := NewStore(ctx, config.Journal{Driver: "memory"})
	require.NoError(t, err)

	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func TestStudyLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.CreateStudy(ctx, models.Study{
				ID:        "study-1",
				Strategy:  "bayesian",
				Seed:      1234,
				StartTime: start,
			}))

			got, ok, err := store.GetStudy(ctx, "study-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, models.StudyStatusRunning, got.Status)
			assert.Equal(t, int64(1234), got.Seed)
			assert.True(t, got.StartTime.Equal(start))
			assert.Nil(t, got.EndTime)
			assert.Nil(t, got.BestObjective)

			require.NoError(t, store.FinishStudy(ctx, "study-1", models.StudyStatusCompleted, bestOf(t, 7, 1.5, 9.75), ""))
			got, ok, err = store.GetStudy(ctx, "study-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, models.StudyStatusCompleted, got.Status)
			require.NotNil(t, got.EndTime)
			require.NotNil(t, got.BestObjective)
			assert.Equal(t, 9.75, *got.BestObjective)
			assert.Equal(t, map[string]float64{"x": 7, "y": 1.5}, got.BestPoint)

			_, ok, err = store.GetStudy(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			err = store.FinishStudy(ctx, "missing", models.StudyStatusFailed, nil, "boom")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestTrialsOrderedByNumber(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateStudy(ctx, models.Study{ID: "s", Strategy: "tpe"}))
			for _, n := range []int{2, 1, 3} {
				require.NoError(t, store.AddTrial(ctx, models.TrialRecord{
					StudyID:  "s",
					Number:   n,
					Point:    map[string]float64{"x": float64(n)},
					Raw:      float64(10 * n),
					Adjusted: float64(-10 * n),
				}))
			}
			require.NoError(t, store.AddTrial(ctx, models.TrialRecord{StudyID: "s", Number: 4, Point: map[string]float64{"x": 0}, Error: "run failed"}))

			trials, err := store.Trials(ctx, "s")
			require.NoError(t, err)
			require.Len(t, trials, 4)
			for i, tr := range trials {
				assert.Equal(t, i+1, tr.Number)
			}
			assert.Equal(t, 20.0, trials[1].Raw)
			assert.Equal(t, -20.0, trials[1].Adjusted)
			assert.Equal(t, map[string]float64{"x": 2}, trials[1].Point)
			assert.Equal(t, "run failed", trials[3].Error)

			_, err = store.Trials(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestListStudiesNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, store.CreateStudy(ctx, models.Study{
					ID:        id,
					Strategy:  "random",
					StartTime: base.Add(time.Duration(i) * time.Hour),
				}))
			}
			list, err := store.ListStudies(ctx, 2)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "c", list[0].ID)
			assert.Equal(t, "b", list[1].ID)

			all, err := store.ListStudies(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestDuplicateStudy(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateStudy(ctx, models.Study{ID: "dup", Strategy: "anneal"}))
			assert.Error(t, store.CreateStudy(ctx, models.Study{ID: "dup", Strategy: "anneal"}))
			assert.Error(t, store.CreateStudy(ctx, models.Study{Strategy: "anneal"}))
		})
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	nop, err := NewStore(ctx, config.Journal{Driver: "none"})
	require.NoError(t, err)
	require.NoError(t, nop.CreateStudy(ctx, models.Study{ID: "x"}))
	_, ok, err := nop.GetStudy(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewStore(ctx, config.Journal{Driver: "mongo"})
	assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)

	_, err = NewStore(ctx, config.Journal{Driver: DriverSQLite})
	assert.Error(t, err, "sqlite without dsn")
}

func TestSQLStoreRequiresInit(t *testing.T) {
	s := NewSQLStore(DriverSQLite, "unused.db")
	err := s.AddTrial(context.Background(), models.TrialRecord{StudyID: "s", Number: 1})
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
