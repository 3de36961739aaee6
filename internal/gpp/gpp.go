// Package gpp holds the fixed gas processing plant studies run by the gpp-*
// commands: three bounded plant inputs, fixed product prices and one search
// backend per command.
package gpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/plant"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

const (
	GasPrice    = 30.0
	LiquidPrice = 10.0
	Seed        = 1234

	BayesianInitPoints = 5
	BayesianIterations = 100
	TPEEvaluations     = 500
	RandomTrials       = 500
)

// Bounds are the plant inputs in setup order
func Bounds() []config.Bound {
	return []config.Bound{
		{Name: "dec1_flow_allocation", Lower: 0.01, Upper: 0.99},
		{Name: "dec1_temperature", Lower: 20, Upper: 100},
		{Name: "dec2_temperature", Lower: 20, Upper: 100},
	}
}

// Config returns the study run by the gpp command of strategy
func Config(strategy string) (*config.Config, error) {
	var s config.Strategy
	switch strategy {
	case "bayesian":
		s = config.Strategy{Name: strategy, Seed: Seed, InitPoints: BayesianInitPoints, Trials: BayesianIterations, Acquisition: "ei"}
	case "tpe":
		s = config.Strategy{Name: strategy, Seed: Seed, Trials: TPEEvaluations}
	case "random":
		s = config.Strategy{Name: strategy, Seed: Seed, Trials: RandomTrials}
	default:
		return nil, models.ConfigErrorf("strategy", "no gas plant study for %q", strategy)
	}
	return &config.Config{
		LogLevel:  "info",
		LogFormat: "text",
		Oracle:    config.Oracle{Kind: plant.Kind, Objective: plant.FieldTotalRevenue},
		Static: map[string]float64{
			"gas_price":    GasPrice,
			"liquid_price": LiquidPrice,
		},
		Space:    Bounds(),
		Strategy: s,
		Replay:   config.Replay{Tolerance: config.DefaultTolerance},
		Journal:  config.Journal{Driver: "none"},
	}, nil
}

// Main runs the study of strategy and prints the best point to stdout.
// It returns the process exit code.
func Main(ctx context.Context, strategy string, stdout, stderr io.Writer, lookup config.LookupFunc) int {
	if err := run(ctx, strategy, stdout, stderr, lookup); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, strategy string, stdout, stderr io.Writer, lookup config.LookupFunc) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := Config(strategy)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, lookup); err != nil {
		return err
	}
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, stderr)
	logger.SetDefault(log)

	d, err := driver.New(cfg, driver.WithLogger(log))
	if err != nil {
		return err
	}
	rep, err := d.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, rep.String())
	return nil
}
