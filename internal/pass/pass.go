package pass

import (
	"github.com/pkg/errors"

	"github.com/kingrea/nbtidy/internal/notebook"
)

// Info describes a pass's identity and intent.
type Info struct {
	ID          string
	Name        string
	Description string
	Version     string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return errors.Errorf("pass: id is required")
	}
	if i.Name == "" {
		return errors.Errorf("pass: name is required for %s", i.ID)
	}
	if i.Version == "" {
		return errors.Errorf("pass: version is required for %s", i.ID)
	}
	return nil
}

// Status enumerates pass run outcomes at the coarsest level.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusNoOp      Status = "no-op"
	StatusFailed    Status = "failed"
)

// Outcome names the branch a pass took. Each pass defines its own values.
type Outcome string

// Result captures the outcome of a pass run.
type Result struct {
	Status  Status
	Outcome Outcome
	Message string
	// Details carries discovered facts (step numbers, chosen defaults) for
	// the report, one line each.
	Details []string
	// Changed is true when the notebook was modified and must be saved.
	Changed bool
}

// NoOp builds a result for a run that leaves the notebook untouched.
func NoOp(outcome Outcome, message string, details ...string) Result {
	return Result{Status: StatusNoOp, Outcome: outcome, Message: message, Details: details}
}

// Completed builds a result for a run that modified the notebook.
func Completed(outcome Outcome, message string, details ...string) Result {
	return Result{Status: StatusCompleted, Outcome: outcome, Message: message, Details: details, Changed: true}
}

// Pass is implemented by every notebook transformation.
type Pass interface {
	Info() Info
	// Run analyses nb and rewrites it in place. The caller persists nb only
	// when the returned Result reports Changed.
	Run(ctx *Context, nb *notebook.Notebook) (Result, error)
}
