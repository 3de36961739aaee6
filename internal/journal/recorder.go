package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/objective"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

// Recorder writes every trial of one study to a Store. A write failure never
// interrupts the search; the first one is kept and reported by Err.
type Recorder struct {
	store   Store
	studyID string
	log     *slog.Logger

	mu  sync.Mutex
	err error
}

// NewRecorder creates a trial observer for studyID
func NewRecorder(store Store, studyID string, log *slog.Logger) *Recorder {
	return &Recorder{store: store, studyID: studyID, log: logger.OrDefault(log)}
}

func (r *Recorder) ObserveTrial(ctx context.Context, t objective.Trial) {
	rec := models.TrialRecord{
		StudyID:    r.studyID,
		Number:     t.Number,
		Point:      t.Point.Map(),
		Raw:        t.Result.Raw,
		Adjusted:   t.Result.SignAdjusted,
		DurationMS: utils.TimeToMs(t.Duration),
		CreatedAt:  time.Now().UTC(),
	}
	if t.Err != nil {
		rec.Error = t.Err.Error()
	}
	if err := r.store.AddTrial(ctx, rec); err != nil {
		r.log.Warn("failed to journal trial", "study_id", r.studyID, "trial", t.Number, "error", err)
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}

// Err returns the first write failure
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

var _ objective.Observer = (*Recorder)(nil)
