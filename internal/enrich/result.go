package enrich

import (
	"fmt"
)

// Outcome of a single enrichment step.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Status summarises both steps.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// StepResult records one step. Linked lists the ids of ideas an edge was
// newly written to.
type StepResult struct {
	Outcome Outcome
	Reason  string
	Linked  []string
	Err     error
}

func (s StepResult) String() string {
	switch s.Outcome {
	case OutcomeFailed:
		return fmt.Sprintf("failed: %v", s.Err)
	case OutcomeSkipped:
		return "skipped: " + s.Reason
	default:
		return fmt.Sprintf("applied: %d linked", len(s.Linked))
	}
}

// Result is returned by every enrichment run.
type Result struct {
	IdeaID  string
	Tags    StepResult
	Related StepResult
}

// Status is failed when no step succeeded, partial when one of them failed
// and success otherwise. Skipped steps count as successful.
func (r Result) Status() Status {
	tagsFailed := r.Tags.Outcome == OutcomeFailed
	relatedFailed := r.Related.Outcome == OutcomeFailed
	switch {
	case tagsFailed && relatedFailed:
		return StatusFailed
	case tagsFailed || relatedFailed:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

func skipped(reason string) StepResult {
	return StepResult{Outcome: OutcomeSkipped, Reason: reason}
}

func failed(prev StepResult, err error) StepResult {
	if prev.Outcome == OutcomeApplied || prev.Outcome == OutcomeSkipped {
		return prev
	}
	return StepResult{Outcome: OutcomeFailed, Err: err}
}
