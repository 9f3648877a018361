package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// BorrowRecordRepository defines read-side loan queries.
type BorrowRecordRepository interface {
	ListByUser(ctx context.Context, userID, offset, limit int) ([]types.BorrowRecord, int, error)
	CountActive(ctx context.Context, uploaderID int) (int, error)
}

// EventPublisher receives committed loan transitions.
type EventPublisher interface {
	PublishLoanEvent(ctx context.Context, event types.LoanEvent) error
}

// LoanService coordinates books, borrow records and borrowed sets.
type LoanService struct {
	records        BorrowRecordRepository
	tx             TxRunner
	events         EventPublisher
	maxActiveLoans int
	now            func() time.Time
}

func NewLoanService(records BorrowRecordRepository, tx TxRunner, events EventPublisher, maxActiveLoans int) *LoanService {
	return &LoanService{
		records:        records,
		tx:             tx,
		events:         events,
		maxActiveLoans: maxActiveLoans,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Borrow lends a book to the borrower for LoanPeriod.
func (s *LoanService) Borrow(ctx context.Context, borrower types.User, bookID int) (types.BorrowRecord, error) {
	var record types.BorrowRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.LoanTx) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("book not found")
			}
			return err
		}
		if !book.IsAvailable {
			return conflict("book is not available")
		}

		already, err := tx.HasActiveLoan(ctx, borrower.ID, bookID)
		if err != nil {
			return err
		}
		if already {
			return conflict("you have already borrowed this book")
		}

		if s.maxActiveLoans > 0 {
			active, err := tx.CountActiveLoans(ctx, borrower.ID)
			if err != nil {
				return err
			}
			if active >= s.maxActiveLoans {
				return conflict("you cannot borrow more than %d books at a time", s.maxActiveLoans)
			}
		}

		now := s.now()
		record, err = tx.CreateRecord(ctx, types.BorrowRecord{
			UserID:       borrower.ID,
			BookID:       bookID,
			BorrowedDate: now,
			DueDate:      now.Add(types.LoanPeriod),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return conflict("book is not available")
			}
			return err
		}
		if err := tx.SetBookAvailability(ctx, bookID, false); err != nil {
			return err
		}
		return tx.AddBorrowedBook(ctx, borrower.ID, bookID)
	})
	if err != nil {
		return types.BorrowRecord{}, err
	}

	slog.InfoContext(ctx, "book borrowed", "record_id", record.ID, "user_id", borrower.ID, "book_id", bookID)
	s.publish(ctx, types.LoanBorrowed, record)
	return record, nil
}

// Return closes a loan owned by the caller and makes the book available.
func (s *LoanService) Return(ctx context.Context, caller types.User, recordID int) (types.BorrowRecord, error) {
	var record types.BorrowRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.LoanTx) error {
		var err error
		record, err = tx.LockRecord(ctx, recordID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("borrow record not found")
			}
			return err
		}
		if record.UserID != caller.ID {
			return forbidden("you can only return your own books")
		}
		if !record.Active() {
			return conflict("book has already been returned")
		}

		now := s.now()
		if err := tx.MarkReturned(ctx, record.ID, now); err != nil {
			return err
		}
		record.ReturnedDate = &now
		record.UpdatedAt = now

		if record.BookID == 0 {
			return nil
		}
		if err := tx.SetBookAvailability(ctx, record.BookID, true); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.RemoveBorrowedBook(ctx, caller.ID, record.BookID)
	})
	if err != nil {
		return types.BorrowRecord{}, err
	}

	slog.InfoContext(ctx, "book returned", "record_id", record.ID, "user_id", caller.ID, "book_id", record.BookID)
	s.publish(ctx, types.LoanReturned, record)
	return record, nil
}

// History returns a page of the caller's loans, newest first, and the
// total number of loans.
func (s *LoanService) History(ctx context.Context, userID, offset, limit int) ([]types.BorrowRecord, int, error) {
	return s.records.ListByUser(ctx, userID, offset, limit)
}

func (s *LoanService) publish(ctx context.Context, kind types.LoanEventType, record types.BorrowRecord) {
	if s.events == nil {
		return
	}
	at := record.BorrowedDate
	if record.ReturnedDate != nil {
		at = *record.ReturnedDate
	}
	err := s.events.PublishLoanEvent(ctx, types.LoanEvent{
		Type:       kind,
		RecordID:   record.ID,
		UserID:     record.UserID,
		BookID:     record.BookID,
		DueDate:    record.DueDate,
		OccurredAt: at,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish loan event", "type", kind, "record_id", record.ID, "error", err)
	}
}
