package domain

import "time"

// OutcomeStatus is the result of one dispatch attempt.
type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "SENT"
	OutcomeSkipped OutcomeStatus = "SKIPPED"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

func (s OutcomeStatus) String() string { return string(s) }

// Outcome is produced per recipient per run and never persisted.
type Outcome struct {
	EmployeeID    string
	RecipientName string
	Status        OutcomeStatus
	Reason        string
	// SubscriptionCleared is set when a permanent failure removed the
	// recipient's subscription.
	SubscriptionCleared bool
}

// Summary is the tally of one job run.
type Summary struct {
	RunID      string
	Job        string
	Kind       JobKind
	Sent       int
	Failed     int
	Skipped    int
	Failures   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

func (s Summary) Total() int {
	return s.Sent + s.Failed + s.Skipped
}
