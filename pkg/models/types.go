package models

import (
	"time"
)

// Direction fixes the sign convention of a run
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Adjust converts a raw objective value into the direction's sense
func (d Direction) Adjust(raw float64) float64 {
	if d == Minimize {
		return -raw
	}
	return raw
}

// EvaluationResult is one oracle reading and its sign-adjusted view
type EvaluationResult struct {
	Raw          float64 `json:"raw"`
	SignAdjusted float64 `json:"sign_adjusted"`
}

// BestSolution is the best point a strategy found. Objective is always the raw
// (maximize-sense) value regardless of which shell the strategy used.
type BestSolution struct {
	Point     Point   `json:"-"`
	Objective float64 `json:"objective"`
}

// BudgetKind tells how a strategy family counts its evaluations
type BudgetKind int

const (
	// BudgetSplit runs InitPoints random evaluations followed by Trials guided ones
	BudgetSplit BudgetKind = iota
	// BudgetTotal runs Trials evaluations in total; InitPoints is the startup share inside it
	BudgetTotal
)

func (k BudgetKind) String() string {
	if k == BudgetTotal {
		return "total"
	}
	return "split"
}

// Budget bounds the number of oracle evaluations of a search
type Budget struct {
	InitPoints int `json:"init_points" yaml:"init_points"`
	Trials     int `json:"trials" yaml:"trials"`
}

// Validate checks the budget against kind
func (b Budget) Validate(kind BudgetKind) error {
	if b.InitPoints < 0 {
		return ConfigErrorf("budget.init_points", "must be non-negative, got %d", b.InitPoints)
	}
	if b.Trials < 0 {
		return ConfigErrorf("budget.trials", "must be non-negative, got %d", b.Trials)
	}
	if b.Evaluations(kind) == 0 {
		return ConfigErrorf("budget", "at least one evaluation is required")
	}
	if kind == BudgetTotal && b.InitPoints > b.Trials {
		return ConfigErrorf("budget.init_points", "startup share %d exceeds total %d", b.InitPoints, b.Trials)
	}
	return nil
}

// Evaluations returns the exact number of reset=true evaluations a strategy of kind performs
func (b Budget) Evaluations(kind BudgetKind) int {
	if kind == BudgetTotal {
		return b.Trials
	}
	return b.InitPoints + b.Trials
}

// Startup returns how many of the evaluations are random exploration.
// A zero InitPoints under BudgetSplit still starts with one random point.
func (b Budget) Startup(kind BudgetKind) int {
	n := b.InitPoints
	if n < 1 {
		n = 1
	}
	if total := b.Evaluations(kind); n > total {
		n = total
	}
	return n
}

// StudyStatus represents the status of an optimization study
type StudyStatus string

const (
	StudyStatusRunning   StudyStatus = "running"
	StudyStatusCompleted StudyStatus = "completed"
	StudyStatusFailed    StudyStatus = "failed"
)

// Study is the persisted record of one driver run
type Study struct {
	ID            string             `json:"id" db:"id"`
	Strategy      string             `json:"strategy" db:"strategy"`
	Status        StudyStatus        `json:"status" db:"status"`
	Seed          int64              `json:"seed" db:"seed"`
	StartTime     time.Time          `json:"start_time" db:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty" db:"end_time"`
	BestObjective *float64           `json:"best_objective,omitempty" db:"best_objective"`
	BestPoint     map[string]float64 `json:"best_point,omitempty" db:"-"`
	Error         string             `json:"error,omitempty" db:"error"`
}

// TrialRecord is the persisted record of one evaluation
type TrialRecord struct {
	StudyID    string             `json:"study_id" db:"study_id"`
	Number     int                `json:"number" db:"number"`
	Point      map[string]float64 `json:"point" db:"-"`
	Raw        float64            `json:"raw" db:"raw"`
	Adjusted   float64            `json:"adjusted" db:"adjusted"`
	DurationMS float64            `json:"duration_ms" db:"duration_ms"`
	Error      string             `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}
