package store

import (
	"context"
	"time"

	"github.com/librarium/apiserver/types"
)

// LoanTx is the set of writes that must commit together when a book
// changes hands. Implementations lock the rows they read.
type LoanTx interface {
	LockBook(ctx context.Context, bookID int) (types.Book, error)
	SetBookAvailability(ctx context.Context, bookID int, available bool) error
	DeleteBook(ctx context.Context, bookID int) error
	HasActiveLoan(ctx context.Context, userID, bookID int) (bool, error)
	HasActiveLoanForBook(ctx context.Context, bookID int) (bool, error)
	CountActiveLoans(ctx context.Context, userID int) (int, error)
	CreateRecord(ctx context.Context, record types.BorrowRecord) (types.BorrowRecord, error)
	LockRecord(ctx context.Context, recordID int) (types.BorrowRecord, error)
	MarkReturned(ctx context.Context, recordID int, at time.Time) error
	AddBorrowedBook(ctx context.Context, userID, bookID int) error
	RemoveBorrowedBook(ctx context.Context, userID, bookID int) error
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx LoanTx) error
