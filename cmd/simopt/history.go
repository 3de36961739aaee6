package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/improvement"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "inspect recorded studies",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list studies, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listStudies(cmd, limit)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", journal.DefaultListLimit, "maximum number of studies")

	var format, out string
	exportCmd := &cobra.Command{
		Use:   "export [study_id]",
		Short: "export the trials of a study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exportStudy(cmd, args[0], format, out)
		},
	}
	exportCmd.Flags().StringVar(&format, "format", journal.FormatXLSX, "export format (xlsx or csv)")
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file; <study_id>.<format> when empty, - for stdout")

	cmd.AddCommand(listCmd, exportCmd)
	return cmd
}

func (a *app) openJournal(cmd *cobra.Command) (journal.Store, error) {
	if a.cfg.Journal.Driver == "none" || a.cfg.Journal.Driver == "memory" {
		return nil, models.ConfigErrorf("journal.driver", "%s journal keeps no history between runs", a.cfg.Journal.Driver)
	}
	return journal.NewStore(cmd.Context(), a.cfg.Journal)
}

func (a *app) listStudies(cmd *cobra.Command, limit int) error {
	store, err := a.openJournal(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	studies, err := store.ListStudies(cmd.Context(), limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTRATEGY\tSTATUS\tSEED\tBEST\tSTARTED")
	for _, s := range studies {
		best := "-"
		if s.BestObjective != nil {
			best = strconv.FormatFloat(*s.BestObjective, 'g', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Strategy, s.Status, s.Seed, best, s.StartTime.Format(time.RFC3339))
	}
	return w.Flush()
}

func (a *app) exportStudy(cmd *cobra.Command, id, format, out string) error {
	if format != journal.FormatXLSX && format != journal.FormatCSV {
		return models.ConfigErrorf("format", "%q must be xlsx or csv", format)
	}
	store, err := a.openJournal(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	study, found, err := store.GetStudy(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", id, journal.ErrNotFound)
	}
	trials, err := store.Trials(cmd.Context(), id)
	if err != nil {
		return err
	}

	if out == "-" {
		return journal.Export(a.stdout, format, study, trials)
	}
	if out == "" {
		out = id + "." + format
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := journal.Export(f, format, study, trials); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Info("study exported", "study_id", id, "trials", len(trials), "file", out)
	return nil
}

func (a *app) strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "list the available search strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBUDGET")
			for _, name := range improvement.Names() {
				s, err := improvement.NewStrategy(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, s.BudgetKind())
			}
			return w.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
