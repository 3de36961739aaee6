// Package journal persists studies and their trials.
package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// ErrNotFound is returned when a study does not exist
var ErrNotFound = errors.New("study not found")

// Store persists studies and trials
type Store interface {
	Init(ctx context.Context) error
	CreateStudy(ctx context.Context, study models.Study) error
	FinishStudy(ctx context.Context, id string, status models.StudyStatus, best *models.BestSolution, errMsg string) error
	GetStudy(ctx context.Context, id string) (models.Study, bool, error)
	ListStudies(ctx context.Context, limit int) ([]models.Study, error)
	AddTrial(ctx context.Context, trial models.TrialRecord) error
	Trials(ctx context.Context, studyID string) ([]models.TrialRecord, error)
	Close() error
}

// DefaultListLimit caps ListStudies when no limit is given
const DefaultListLimit = 50

// NewStore opens the store configured by cfg. The store is initialized.
func NewStore(ctx context.Context, cfg config.Journal) (Store, error) {
	var s Store
	switch cfg.Driver {
	case "", "none":
		s = Nop()
	case "memory":
		s = NewMemoryStore()
	case DriverSQLite, DriverPostgres:
		s = NewSQLStore(cfg.Driver, cfg.DSN)
	default:
		return nil, models.ConfigErrorf("journal.driver", "unsupported journal driver %q", cfg.Driver)
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s journal: %w", cfg.Driver, err)
	}
	return s, nil
}

// Nop returns a store that discards everything
func Nop() Store { return nopStore{} }

// nopStore discards everything
type nopStore struct{}

func (nopStore) Init(context.Context) error { return nil }

func (nopStore) CreateStudy(context.Context, models.Study) error { return nil }

func (nopStore) FinishStudy(context.Context, string, models.StudyStatus, *models.BestSolution, string) error {
	return nil
}

func (nopStore) GetStudy(context.Context, string) (models.Study, bool, error) {
	return models.Study{}, false, nil
}

func (nopStore) ListStudies(context.Context, int) ([]models.Study, error) { return nil, nil }

func (nopStore) AddTrial(context.Context, models.TrialRecord) error { return nil }

func (nopStore) Trials(context.Context, string) ([]models.TrialRecord, error) { return nil, nil }

func (nopStore) Close() error { return nil }
