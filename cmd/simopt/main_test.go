package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func envLookup(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func execute(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr, envLookup(env))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func sqliteEnv(t *testing.T) map[string]string {
	return map[string]string{
		config.EnvJournalDriver: "sqlite",
		config.EnvJournalDSN:    filepath.Join(t.TempDir(), "journal.db"),
	}
}

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, nil, "strategies")
	require.NoError(t, err)
	for _, name := range []string{"bayesian", "tpe", "random", "anneal", "hillclimb"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "split")
	assert.Contains(t, out, "total")
}

func TestRunCommandPrintsSolution(t *testing.T) {
	out, err := execute(t, nil, "run", "--strategy", "random", "--trials", "12", "--plot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Solution is {dec1_flow_allocation: "), out)
	assert.Contains(t, out, "for a value of ")
	assert.Contains(t, out, "best objective by trial")
}

func TestRunCommandErrors(t *testing.T) {
	_, err := execute(t, nil, "run", "--strategy", "nope", "--trials", "5")
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = execute(t, map[string]string{config.EnvTrials: "many"}, "run")
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = execute(t, nil, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestHistoryRoundTrip(t *testing.T) {
	env := sqliteEnv(t)
	out, err := execute(t, env, "run", "--strategy", "tpe", "--trials", "8", "--json")
	require.NoError(t, err)

	var rep driver.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotEmpty(t, rep.StudyID)
	assert.Equal(t, 8, rep.Trials)
	assert.True(t, rep.ReplayMatches)

	out, err = execute(t, env, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, rep.StudyID)
	assert.Contains(t, out, string(models.StudyStatusCompleted))

	out, err = execute(t, env, "history", "export", rep.StudyID, "--format", "csv", "-o", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "number,"), lines[0])

	file := filepath.Join(t.TempDir(), "study.xlsx")
	_, err = execute(t, env, "history", "export", rep.StudyID, "-o", file)
	require.NoError(t, err)
	assert.FileExists(t, file)

	_, err = execute(t, env, "history", "export", "no-such-study", "-o", "-")
	assert.Error(t, err)
}

func TestHistoryNeedsPersistentJournal(t *testing.T) {
	_, err := execute(t, nil, "history", "list")
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestServeRejectsRemoteOracle(t *testing.T) {
	_, err := execute(t, map[string]string{config.EnvOracleAddress: "localhost:1"}, "serve", "--grpc-addr", "127.0.0.1:0")
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
