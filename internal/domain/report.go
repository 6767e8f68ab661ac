package domain

import "time"

// SubmissionWindow is how far back a report counts as "submitted this week".
const SubmissionWindow = 7 * 24 * time.Hour

// WeeklyStatusReport is a submitted WSR. Only its owner and creation time
// matter to the notifier.
type WeeklyStatusReport struct {
	ID         string
	EmployeeID string
	Duration   string
	CreatedAt  time.Time
}

// SubmissionCutoff returns the inclusive lower bound of the trailing window.
func SubmissionCutoff(now time.Time) time.Time {
	return now.Add(-SubmissionWindow)
}
