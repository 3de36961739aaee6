package config

const (
	// DefaultObjective is the plant output maximized when none is configured
	DefaultObjective = "total_revenue"

	DefaultStrategy  = "bayesian"
	DefaultSeed      = 1234
	DefaultTolerance = 1e-9

	// KindFunc names in-process oracles handed to the driver from code
	KindFunc = "func"
)

// Default returns the gas plant study: three bounded inputs, fixed product prices
// and a seeded Bayesian search of 5 random plus 100 guided evaluations.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Oracle: Oracle{
			Kind:      "plant",
			Objective: DefaultObjective,
		},
		Static: map[string]float64{
			"gas_price":    30,
			"liquid_price": 10,
		},
		Space: []Bound{
			{Name: "dec1_flow_allocation", Lower: 0.01, Upper: 0.99},
			{Name: "dec1_temperature", Lower: 20, Upper: 100},
			{Name: "dec2_temperature", Lower: 20, Upper: 100},
		},
		Strategy: Strategy{
			Name:        DefaultStrategy,
			Seed:        DefaultSeed,
			InitPoints:  5,
			Trials:      100,
			Acquisition: "ei",
		},
		Replay:  Replay{Tolerance: DefaultTolerance},
		Journal: Journal{Driver: "memory"},
	}
}

// applyDefaults fills zero scalar fields; Space and Static are never merged
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Oracle.Kind == "" {
		cfg.Oracle.Kind = "plant"
	}
	if cfg.Oracle.Objective == "" {
		cfg.Oracle.Objective = DefaultObjective
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy.Name = DefaultStrategy
	}
	if cfg.Replay.Tolerance == 0 {
		cfg.Replay.Tolerance = DefaultTolerance
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = "memory"
	}
}
