package model

import "time"

// Account is a configured GitHub login. The token lives in the credential
// store, keyed by Login, and is never part of this struct.
type Account struct {
	// ID is the internal unique identifier for this account row.
	ID string `json:"id" db:"id"`

	// Login is the GitHub username. Unique across accounts.
	Login string `json:"login" db:"login"`

	// Position is the display order (ascending).
	Position int `json:"position" db:"position"`

	// CreatedAt is when the account was added.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SyncOutcome is the terminal state of one fetch attempt.
type SyncOutcome string

const (
	SyncSucceeded SyncOutcome = "succeeded"
	SyncFailed    SyncOutcome = "failed"
	SyncDiscarded SyncOutcome = "discarded"
)

// SyncRun is the history row written after every fetch attempt.
type SyncRun struct {
	ID          string      `json:"id" db:"id"`
	Login       string      `json:"login" db:"login"`
	StartedAt   time.Time   `json:"started_at" db:"started_at"`
	FinishedAt  time.Time   `json:"finished_at" db:"finished_at"`
	Outcome     SyncOutcome `json:"outcome" db:"outcome"`
	ErrorKind   string      `json:"error_kind" db:"error_kind"`
	Error       string      `json:"error" db:"error"`
	RecordCount int         `json:"record_count" db:"record_count"`
}

// Duration returns how long the fetch took.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
