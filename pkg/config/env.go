package config

import (
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// Environment variables read by ApplyEnv
const (
	EnvLogLevel         = "SIMOPT_LOG_LEVEL"
	EnvRunExportedModel = "SIMOPT_RUN_EXPORTED_MODEL"
	EnvExportedModelLoc = "SIMOPT_EXPORTED_MODEL_LOC"
	EnvShowTerminals    = "SIMOPT_SHOW_TERMINALS"
	EnvVerbose          = "SIMOPT_VERBOSE"
	EnvOracleAddress    = "SIMOPT_ORACLE_ADDRESS"
	EnvStrategy         = "SIMOPT_STRATEGY"
	EnvSeed             = "SIMOPT_SEED"
	EnvTrials           = "SIMOPT_TRIALS"
	EnvInitPoints       = "SIMOPT_INIT_POINTS"
	EnvJournalDriver    = "SIMOPT_JOURNAL_DRIVER"
	EnvJournalDSN       = "SIMOPT_JOURNAL_DSN"
	EnvStatusAddr       = "SIMOPT_STATUS_ADDR"
)

// ApplyEnv overrides cfg fields from the environment and re-validates the result
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			if firstErr == nil {
				firstErr = models.ConfigErrorf(key, "invalid boolean %q", v)
			}
			return
		}
		*dst = b
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			if firstErr == nil {
				firstErr = models.ConfigErrorf(key, "invalid integer %q", v)
			}
			return
		}
		*dst = n
	}

	str(EnvLogLevel, &cfg.LogLevel)
	boolean(EnvRunExportedModel, &cfg.Oracle.Launch)
	str(EnvExportedModelLoc, &cfg.Oracle.ModelLocation)
	boolean(EnvShowTerminals, &cfg.Oracle.ShowTerminals)
	boolean(EnvVerbose, &cfg.Oracle.Verbose)
	if v, ok := lookup(EnvOracleAddress); ok && v != "" {
		cfg.Oracle.Kind = "remote"
		cfg.Oracle.Address = v
	}
	str(EnvStrategy, &cfg.Strategy.Name)
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil && firstErr == nil {
			firstErr = models.ConfigErrorf(EnvSeed, "invalid integer %q", v)
		}
		if err == nil {
			cfg.Strategy.Seed = seed
		}
	}
	integer(EnvTrials, &cfg.Strategy.Trials)
	integer(EnvInitPoints, &cfg.Strategy.InitPoints)
	str(EnvJournalDriver, &cfg.Journal.Driver)
	str(EnvJournalDSN, &cfg.Journal.DSN)
	str(EnvStatusAddr, &cfg.Status.Addr)

	if firstErr != nil {
		return fmt.Errorf("environment override: %w", firstErr)
	}
	return Validate(cfg)
}
