package metrics

import (
	"context"

	"github.com/montanaflynn/stats"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
)

// Series names
const (
	MetricTrialRaw    = "trial_raw"
	MetricBestSoFar   = "best_so_far"
	MetricEvaluateMs  = "evaluate_ms"
	MetricTrialErrors = "trial_errors"
	MetricReplay      = "replay_objective"
)

// Label names and values
const (
	LabelStrategy = "strategy"
	LabelStudy    = "study_id"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// StudyLabels creates the label set of one search
func StudyLabels(studyID, strategy string) map[string]string {
	return map[string]string{
		LabelStudy:    studyID,
		LabelStrategy: strategy,
	}
}

// Observer returns a trial observer feeding c under labels
func Observer(c *Collector, labels map[string]string) objective.Observer {
	labels = copyLabels(labels)
	return objective.ObserverFunc(func(ctx context.Context, t objective.Trial) {
		if t.Err != nil {
			c.RecordFailure(t.Duration, labels)
			return
		}
		c.RecordTrial(t.Result.Raw, t.Duration, labels)
	})
}

// Aggregation summarizes one series
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

func calculateAggregation(values []float64) *Aggregation {
	if len(values) == 0 {
		return nil
	}
	data := stats.Float64Data(values)
	agg := &Aggregation{Count: int64(len(values))}
	agg.Sum, _ = data.Sum()
	agg.Min, _ = data.Min()
	agg.Max, _ = data.Max()
	agg.Mean, _ = data.Mean()
	agg.P50 = percentile(data, 50)
	agg.P95 = percentile(data, 95)
	agg.P99 = percentile(data, 99)
	return agg
}

// percentile uses the nearest-rank method
func percentile(data stats.Float64Data, p float64) float64 {
	if len(data) == 1 {
		return data[0]
	}
	v, err := stats.PercentileNearestRank(data, p)
	if err != nil {
		return 0
	}
	return v
}
