package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
)

// app holds what every subcommand shares
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    *config.Config
	log    *slog.Logger
	lookup config.LookupFunc
	stdout io.Writer
	stderr io.Writer
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr, os.LookupEnv)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer, lookup config.LookupFunc) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, lookup: lookup}

	rootCmd := &cobra.Command{
		Use:               "simopt",
		Short:             "black-box optimization of simulation models",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (yaml); the gas plant study when empty")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment overrides")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.runCmd(),
		a.serveCmd(),
		a.historyCmd(),
		a.strategiesCmd(),
	)
	return rootCmd
}

// load reads the dotenv file, the config file and the SIMOPT_* overrides, then sets up logging
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, a.lookup); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.log = logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, a.stderr)
	logger.SetDefault(a.log)
	return nil
}
