package model

import "time"

// SubmissionKind discriminates payloads flowing through the ingestion queue.
type SubmissionKind string

// Submission kinds.
const (
	SubmissionGuess SubmissionKind = "guess"
	SubmissionSale  SubmissionKind = "sale"
)

// Submission is the payload type flowing through the ingestion queue:
// either a new price guess or a recorded sale event.
type Submission struct {
	ID         string         // unique id for idempotency
	Kind       SubmissionKind // guess or sale
	PropertyID string
	UserID     string // guesser, empty for sales
	Price      int64  // guessed price for guesses, realized price for sales
	TS         time.Time
}
