package history

import "time"

// Outcome summarizes how a batch ended.
type Outcome string

const (
	// OutcomeSucceeded means every file was transcribed.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomePartial means the service answered but rejected some files.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means no file was transcribed, including request failures.
	OutcomeFailed Outcome = "failed"
)

// OutcomeFor classifies a batch from its per-file counts.
func OutcomeFor(succeeded, failed int) Outcome {
	switch {
	case failed == 0 && succeeded > 0:
		return OutcomeSucceeded
	case succeeded > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// Batch is one journaled upload.
type Batch struct {
	ID         string
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Error      string
	Files      []File
}

// Duration reports how long the request took.
func (b Batch) Duration() time.Duration {
	if b.FinishedAt.Before(b.StartedAt) {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// File is one file submitted in a batch.
type File struct {
	Name   string
	Size   int64
	Digest string
	Status string
	Reason string
}
