package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrOracleInit marks a runtime that could not be started or reached. Never retried.
	ErrOracleInit = errors.New("oracle initialization failed")
	// ErrSimulationRun marks a failed setup, run, output read or reset. Fatal for the study.
	ErrSimulationRun = errors.New("simulation run failed")

	ErrClosed             = errors.New("oracle is closed")
	ErrConcurrentEvaluate = errors.New("evaluate already in flight on this oracle")
	ErrStaticConfigured   = errors.New("static parameters already configured")
	ErrStaticAfterTrial   = errors.New("static parameters must be configured before the first trial")
)

// Stages of one evaluation, reported by RunError
const (
	StageSetup  = "setup"
	StageRun    = "run"
	StageOutput = "output"
	StageReset  = "reset"
	StageStatic = "static"
)

// InitError reports a runtime that failed to start
type InitError struct {
	Kind string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("oracle initialization failed (%s): %v", e.Kind, e.Err)
}

func (e *InitError) Unwrap() []error {
	return []error{ErrOracleInit, e.Err}
}

// RunError reports a failure while evaluating trial Trial
type RunError struct {
	Trial int
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("simulation run failed at trial %d (%s): %v", e.Trial, e.Stage, e.Err)
}

func (e *RunError) Unwrap() []error {
	return []error{ErrSimulationRun, e.Err}
}
