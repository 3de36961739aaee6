package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const (
	trialsSheet = "trials"
	studySheet  = "study"
)

// Export writes the trials of study to w as xlsx or csv
func Export(w io.Writer, format string, study models.Study, trials []models.TrialRecord) error {
	switch format {
	case FormatXLSX, "":
		return exportXLSX(w, study, trials)
	case FormatCSV:
		return exportCSV(w, trials)
	default:
		return models.ConfigErrorf("format", "unsupported export format %q", format)
	}
}

// pointColumns returns the dimension names of trials, sorted
func pointColumns(trials []models.TrialRecord) []string {
	seen := make(map[string]struct{})
	for _, t := range trials {
		for name := range t.Point {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func header(dims []string) []string {
	h := []string{"number"}
	h = append(h, dims...)
	return append(h, "raw", "adjusted", "duration_ms", "error")
}

func exportCSV(w io.Writer, trials []models.TrialRecord) error {
	dims := pointColumns(trials)
	cw := csv.NewWriter(w)
	if err := cw.Write(header(dims)); err != nil {
		return err
	}
	for _, t := range trials {
		row := []string{strconv.Itoa(t.Number)}
		for _, d := range dims {
			row = append(row, strconv.FormatFloat(t.Point[d], 'g', -1, 64))
		}
		row = append(row,
			strconv.FormatFloat(t.Raw, 'g', -1, 64),
			strconv.FormatFloat(t.Adjusted, 'g', -1, 64),
			strconv.FormatFloat(t.DurationMS, 'f', 3, 64),
			t.Error)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportXLSX(w io.Writer, study models.Study, trials []models.TrialRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", trialsSheet); err != nil {
		return err
	}
	dims := pointColumns(trials)
	if err := f.SetSheetRow(trialsSheet, "A1", toRow(header(dims))); err != nil {
		return err
	}
	for i, t := range trials {
		row := []interface{}{t.Number}
		for _, d := range dims {
			row = append(row, t.Point[d])
		}
		row = append(row, t.Raw, t.Adjusted, t.DurationMS, t.Error)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(trialsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(studySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"id", study.ID},
		{"strategy", study.Strategy},
		{"status", string(study.Status)},
		{"seed", study.Seed},
		{"start_time", study.StartTime.Format("2006-01-02T15:04:05Z07:00")},
		{"trials", len(trials)},
	}
	if study.BestObjective != nil {
		summary = append(summary, []interface{}{"best_objective", *study.BestObjective})
	}
	for _, name := range sortedKeys(study.BestPoint) {
		summary = append(summary, []interface{}{"best." + name, study.BestPoint[name]})
	}
	if study.Error != "" {
		summary = append(summary, []interface{}{"error", study.Error})
	}
	for i, row := range summary {
		if err := f.SetSheetRow(studySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func toRow(values []string) *[]interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &row
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
