package types

import "time"

// LoanPeriod is the fixed time a borrower may keep a book.
const LoanPeriod = 14 * 24 * time.Hour

// BorrowRecord represents a single loan of a book to a user.
// A record is active while ReturnedDate is nil.
type BorrowRecord struct {
	// ID is the unique identifier of the record.
	ID int `json:"id" db:"id"`

	// UserID identifies the borrower.
	UserID int `json:"userId" db:"user_id"`

	// BookID identifies the borrowed book. It is zero when the book has
	// since been removed from the catalog.
	BookID int `json:"bookId" db:"book_id"`

	// Book is populated on history listings.
	Book *BookSummary `json:"book,omitempty" db:"-"`

	// BorrowedDate is when the loan started.
	BorrowedDate time.Time `json:"borrowedDate" db:"borrowed_at"`

	// DueDate is BorrowedDate plus LoanPeriod.
	DueDate time.Time `json:"dueDate" db:"due_at"`

	// ReturnedDate is set exactly once, when the book is returned.
	ReturnedDate *time.Time `json:"returnedDate" db:"returned_at"`

	// CreatedAt is the timestamp at which the record was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Active reports whether the loan is still open.
func (r BorrowRecord) Active() bool {
	return r.ReturnedDate == nil
}
