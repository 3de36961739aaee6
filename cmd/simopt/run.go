package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/simd"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

type runFlags struct {
	strategy   string
	trials     int
	initPoints int
	seed       int64
	plot       bool
	jsonOut    bool
}

func (a *app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one optimization study and print the best point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strategy") {
				a.cfg.Strategy.Name = f.strategy
			}
			if cmd.Flags().Changed("trials") {
				a.cfg.Strategy.Trials = f.trials
			}
			if cmd.Flags().Changed("init-points") {
				a.cfg.Strategy.InitPoints = f.initPoints
			}
			if cmd.Flags().Changed("seed") {
				a.cfg.Strategy.Seed = f.seed
			}
			if err := config.Validate(a.cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runStudy(ctx, f)
		},
	}
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "search strategy (see simopt strategies)")
	cmd.Flags().IntVar(&f.trials, "trials", 0, "number of trials")
	cmd.Flags().IntVar(&f.initPoints, "init-points", 0, "random startup points")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "strategy seed")
	cmd.Flags().BoolVar(&f.plot, "plot", false, "plot the best objective per trial")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the full report as JSON")
	return cmd
}

func (a *app) runStudy(ctx context.Context, f runFlags) error {
	store, err := journal.NewStore(ctx, a.cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			a.log.Warn("failed to close journal", "error", cerr)
		}
	}()
	collector := metrics.NewCollector()

	d, err := driver.New(a.cfg,
		driver.WithJournal(store),
		driver.WithMetrics(collector),
		driver.WithLogger(a.log))
	if err != nil {
		return err
	}

	// the status server lives exactly as long as the study
	g, gctx := errgroup.WithContext(ctx)
	statusCtx, stopStatus := context.WithCancel(gctx)
	defer stopStatus()
	if addr := a.cfg.Status.Addr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		srv := simd.NewServer(nil, simd.NewHTTPServer(store, collector, a.log), a.log)
		g.Go(func() error {
			return srv.Serve(statusCtx, simd.Listeners{HTTP: lis})
		})
	}

	var rep *driver.Report
	g.Go(func() error {
		defer stopStatus()
		var err error
		rep, err = d.Run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if f.jsonOut {
		return writeJSON(a.stdout, rep)
	}
	fmt.Fprintln(a.stdout, rep.String())
	if f.plot && len(rep.Curve) > 1 {
		fmt.Fprintln(a.stdout, asciigraph.Plot(rep.Curve,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("best objective by trial")))
	}
	a.log.Info("study finished",
		"study_id", rep.StudyID,
		"strategy", rep.Strategy,
		"trials", rep.Trials,
		"replay_matches", rep.ReplayMatches,
		"duration", utils.FormatDuration(rep.Duration),
		"summary", rep.Summary.String())
	return nil
}
