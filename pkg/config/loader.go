package config

import (
	"fmt"
	"math"
	"os"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a configuration built in code (Default, env overrides)
func Validate(cfg *Config) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// validateConfig performs validation on the configuration.
// Every failure is a *models.ConfigurationError.
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return models.ConfigErrorf("log_level", "%q must be debug, info, warn, or error", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return models.ConfigErrorf("log_format", "%q must be text or json", cfg.LogFormat)
	}

	if err := validateOracle(&cfg.Oracle); err != nil {
		return err
	}
	if err := validateSpace(cfg.Space); err != nil {
		return err
	}
	for name, v := range cfg.Static {
		if name == "" {
			return models.ConfigErrorf("static", "parameter name cannot be empty")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.ConfigErrorf("static."+name, "value must be finite")
		}
	}
	if err := validateStrategy(&cfg.Strategy); err != nil {
		return err
	}
	if cfg.Replay.Tolerance < 0 {
		return models.ConfigErrorf("replay.tolerance", "cannot be negative, got %g", cfg.Replay.Tolerance)
	}
	return validateJournal(&cfg.Journal)
}

// validateOracle validates the oracle section
func validateOracle(o *Oracle) error {
	switch o.Kind {
	case "plant", KindFunc:
	case "remote":
		if o.Address == "" {
			return models.ConfigErrorf("oracle.address", "required for remote oracle")
		}
	default:
		return models.ConfigErrorf("oracle.kind", "%q must be plant, remote, or func", o.Kind)
	}
	if o.Launch && o.ModelLocation == "" {
		return models.ConfigErrorf("oracle.exported_model_loc", "required when run_exported_model is set")
	}
	if o.Objective == "" {
		return models.ConfigErrorf("oracle.objective", "cannot be empty")
	}
	d, err := o.GetDialTimeout()
	if err != nil {
		return models.ConfigErrorf("oracle.dial_timeout", "invalid duration %q: %v", o.DialTimeout, err)
	}
	if d <= 0 {
		return models.ConfigErrorf("oracle.dial_timeout", "must be positive")
	}
	return nil
}

// validateSpace builds the search space once to reuse its checks
func validateSpace(bounds []Bound) error {
	_, err := BuildSpace(bounds)
	return err
}

// BuildSpace converts configured bounds into a search space in file order
func BuildSpace(bounds []Bound) (*models.SearchSpace, error) {
	b := models.NewSpaceBuilder()
	for _, bound := range bounds {
		b.Add(bound.Name, bound.Lower, bound.Upper)
	}
	return b.Build()
}

// validateStrategy validates the strategy section
func validateStrategy(s *Strategy) error {
	if s.Name == "" {
		return models.ConfigErrorf("strategy.name", "cannot be empty")
	}
	if s.InitPoints < 0 {
		return models.ConfigErrorf("strategy.init_points", "cannot be negative, got %d", s.InitPoints)
	}
	if s.Trials < 0 {
		return models.ConfigErrorf("strategy.trials", "cannot be negative, got %d", s.Trials)
	}
	if s.InitPoints+s.Trials == 0 {
		return models.ConfigErrorf("strategy.trials", "at least one evaluation is required")
	}
	switch s.Acquisition {
	case "", "ei", "ucb", "pi":
	default:
		return models.ConfigErrorf("strategy.acquisition", "%q must be ei, ucb, or pi", s.Acquisition)
	}
	if s.Xi < 0 {
		return models.ConfigErrorf("strategy.xi", "cannot be negative, got %g", s.Xi)
	}
	if s.Kappa < 0 {
		return models.ConfigErrorf("strategy.kappa", "cannot be negative, got %g", s.Kappa)
	}
	if s.Gamma < 0 || s.Gamma >= 1 {
		return models.ConfigErrorf("strategy.gamma", "must be in [0, 1), got %g", s.Gamma)
	}
	if s.Candidates < 0 {
		return models.ConfigErrorf("strategy.candidates", "cannot be negative, got %d", s.Candidates)
	}
	return nil
}

// validateJournal validates the journal section
func validateJournal(j *Journal) error {
	switch j.Driver {
	case "none", "memory":
	case "sqlite", "postgres":
		if j.DSN == "" {
			return models.ConfigErrorf("journal.dsn", "required for %s journal", j.Driver)
		}
	default:
		return models.ConfigErrorf("journal.driver", "%q must be none, memory, sqlite, or postgres", j.Driver)
	}
	return nil
}
