package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// MemoryStore keeps studies in process memory. It is safe for concurrent use,
// so the status server can read while a search writes.
type MemoryStore struct {
	mu      sync.RWMutex
	studies map[string]*models.Study
	trials  map[string][]models.TrialRecord
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		studies: make(map[string]*models.Study),
		trials:  make(map[string][]models.TrialRecord),
	}
}

func (s *MemoryStore) Init(_ context.Context) error { return nil }

func (s *MemoryStore) CreateStudy(_ context.Context, study models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if study.ID == "" {
		return fmt.Errorf("study id is required")
	}
	if _, exists := s.studies[study.ID]; exists {
		return fmt.Errorf("study already exists: %s", study.ID)
	}
	if study.Status == "" {
		study.Status = models.StudyStatusRunning
	}
	if study.StartTime.IsZero() {
		study.StartTime = time.Now().UTC()
	}
	s.studies[study.ID] = &study
	return nil
}

func (s *MemoryStore) FinishStudy(_ context.Context, id string, status models.StudyStatus, best *models.BestSolution, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	study, ok := s.studies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	end := time.Now().UTC()
	study.Status = status
	study.EndTime = &end
	study.Error = errMsg
	if best != nil {
		obj := best.Objective
		study.BestObjective = &obj
		study.BestPoint = best.Point.Map()
	}
	return nil
}

func (s *MemoryStore) GetStudy(_ context.Context, id string) (models.Study, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	study, ok := s.studies[id]
	if !ok {
		return models.Study{}, false, nil
	}
	return copyStudy(study), true, nil
}

// ListStudies returns the newest studies first
func (s *MemoryStore) ListStudies(_ context.Context, limit int) ([]models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := make([]models.Study, 0, len(s.studies))
	for _, study := range s.studies {
		out = append(out, copyStudy(study))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) AddTrial(_ context.Context, trial models.TrialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.studies[trial.StudyID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, trial.StudyID)
	}
	if trial.CreatedAt.IsZero() {
		trial.CreatedAt = time.Now().UTC()
	}
	trial.Point = copyPoint(trial.Point)
	s.trials[trial.StudyID] = append(s.trials[trial.StudyID], trial)
	return nil
}

// Trials returns the trials of a study ordered by number
func (s *MemoryStore) Trials(_ context.Context, studyID string) ([]models.TrialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.studies[studyID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, studyID)
	}
	src := s.trials[studyID]
	out := make([]models.TrialRecord, len(src))
	for i, t := range src {
		t.Point = copyPoint(t.Point)
		out[i] = t
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyStudy(s *models.Study) models.Study {
	out := *s
	out.BestPoint = copyPoint(s.BestPoint)
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	if s.BestObjective != nil {
		obj := *s.BestObjective
		out.BestObjective = &obj
	}
	return out
}

func copyPoint(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
