package types

import "time"

// LoanEventType names a loan lifecycle transition.
type LoanEventType string

const (
	LoanBorrowed LoanEventType = "loan.borrowed"
	LoanReturned LoanEventType = "loan.returned"
)

// LoanEvent is published after a borrow or return commits.
type LoanEvent struct {
	Type       LoanEventType `json:"type"`
	RecordID   int           `json:"recordId"`
	UserID     int           `json:"userId"`
	BookID     int           `json:"bookId"`
	DueDate    time.Time     `json:"dueDate"`
	OccurredAt time.Time     `json:"occurredAt"`
}
