package workflow

import "fmt"

// Status is a document's position in the signing lifecycle.
//
//	waiting → processing → {auto-found | review} → (edited)* → signed | error
//
// Editing returns auto-found/review/signed documents to auto-found with a
// fresh placement and discards any previously signed artifact. Error is
// terminal; errored documents are excluded from batch operations.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusAutoFound  Status = "auto-found"
	StatusReview     Status = "review"
	StatusSigned     Status = "signed"
	StatusError      Status = "error"
)

// validTransitions is the full transition table. Anything absent is
// illegal, which keeps states like error → signed unrepresentable.
var validTransitions = map[Status][]Status{
	StatusWaiting:    {StatusProcessing, StatusError},
	StatusProcessing: {StatusAutoFound, StatusReview, StatusSigned, StatusError},
	StatusAutoFound:  {StatusProcessing, StatusAutoFound, StatusSigned, StatusError},
	StatusReview:     {StatusProcessing, StatusAutoFound, StatusSigned, StatusError},
	StatusSigned:     {StatusAutoFound},
	StatusError:      {},
}

// CanTransitionTo reports whether moving to next is a legal lifecycle step
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminalError reports whether the document is out of the workflow
func (s Status) IsTerminalError() bool {
	return s == StatusError
}

// transition moves the document to next or reports why it cannot
func (d *Document) transition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid transition %s → %s for document %s", d.Status, next, d.ID)
	}
	d.Status = next
	return nil
}
