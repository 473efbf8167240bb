// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rigup/rigup/pkg/playbook"
)

const (
	// OutcomeApplied means the action ran and (if enabled) verification passed.
	OutcomeApplied Outcome = "applied"
	// OutcomeSatisfied means the probe found the effect already in place.
	OutcomeSatisfied Outcome = "satisfied"
	// OutcomeFailed means the step (or every one of its items) failed.
	OutcomeFailed Outcome = "failed"
	// OutcomePartial means some, but not all, items of a bulk step failed.
	OutcomePartial Outcome = "partial"
	// OutcomeSkipped means the step did not run on this host or was filtered out.
	OutcomeSkipped Outcome = "skipped"
	// OutcomePlanned means a dry run found work to do.
	OutcomePlanned Outcome = "planned"
)

// ErrInvalidOutcome is the sentinel error wrapped by InvalidOutcomeError.
var ErrInvalidOutcome = errors.New("invalid outcome")

type (
	// Outcome is the result of a step or of one item within a step.
	Outcome string

	// InvalidOutcomeError is returned when an Outcome value is not recognized.
	InvalidOutcomeError struct {
		Value Outcome
	}

	// ItemResult is the outcome of one item of a bulk step.
	ItemResult struct {
		Item    string
		Outcome Outcome
		Detail  string
		Err     error
	}

	// StepResult is the outcome of one step.
	StepResult struct {
		Name     playbook.StepName
		Kind     playbook.Kind
		Outcome  Outcome
		Detail   string
		Err      error
		Items    []ItemResult
		Duration time.Duration
	}

	// Report is the outcome of a whole run.
	Report struct {
		Playbook string
		Started  time.Time
		Finished time.Time
		DryRun   bool
		// Interrupted is set when the run was canceled before every step was recorded.
		Interrupted bool
		Steps       []StepResult
	}
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeApplied, OutcomeSatisfied, OutcomePlanned, OutcomeSkipped, OutcomePartial, OutcomeFailed}
}

// Error implements the error interface.
func (e *InvalidOutcomeError) Error() string {
	return fmt.Sprintf("invalid outcome %q", e.Value)
}

// Unwrap returns ErrInvalidOutcome so callers can use errors.Is for programmatic detection.
func (e *InvalidOutcomeError) Unwrap() error { return ErrInvalidOutcome }

// IsValid returns whether the Outcome is one of the defined outcomes.
func (o Outcome) IsValid() (bool, []error) {
	switch o {
	case OutcomeApplied, OutcomeSatisfied, OutcomeFailed, OutcomePartial, OutcomeSkipped, OutcomePlanned:
		return true, nil
	default:
		return false, []error{&InvalidOutcomeError{Value: o}}
	}
}

// String returns the string representation of the Outcome.
func (o Outcome) String() string { return string(o) }

// IsFailure reports whether the outcome counts against the run.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailed || o == OutcomePartial
}

// FailedItems returns the items that failed, in processing order.
func (r *StepResult) FailedItems() []string {
	var failed []string
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			failed = append(failed, it.Item)
		}
	}
	return failed
}

// Success reports whether no step failed and the run was not interrupted.
func (r *Report) Success() bool {
	if r.Interrupted {
		return false
	}
	for i := range r.Steps {
		if r.Steps[i].Outcome.IsFailure() {
			return false
		}
	}
	return true
}

// Counts returns the number of steps per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for i := range r.Steps {
		counts[r.Steps[i].Outcome]++
	}
	return counts
}

// Failures returns the failed and partial steps.
func (r *Report) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome.IsFailure() {
			out = append(out, s)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
