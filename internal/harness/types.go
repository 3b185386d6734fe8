package harness

import (
	"github.com/roach88/mshdb/internal/mshdb"
)

// StepResult records what one step did.
type StepResult struct {
	Op string `json:"op"`

	// Code is the error code the step failed with, or "" on success.
	Code string `json:"code,omitempty"`

	// Summary is a one-line description of the step's effect.
	Summary string `json:"summary"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Steps has one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Database is the final database.
	Database *mshdb.Database `json:"-"`

	// Projection is the output of the last select step, or nil.
	Projection *mshdb.Projection `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Steps:  []StepResult{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
