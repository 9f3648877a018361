package memory

import (
	"context"
	"time"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// loanTx operates on the store state while WithinTx holds the write lock.
// Its methods must not take the lock themselves.
type loanTx struct {
	s *Store
}

func (t *loanTx) LockBook(_ context.Context, bookID int) (types.Book, error) {
	book, ok := t.s.state.books[bookID]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	return t.s.state.resolveBook(book), nil
}

func (t *loanTx) SetBookAvailability(_ context.Context, bookID int, available bool) error {
	book, ok := t.s.state.books[bookID]
	if !ok {
		return store.ErrNotFound
	}
	book.IsAvailable = available
	book.UpdatedAt = t.s.now()
	t.s.state.books[bookID] = book
	return nil
}

func (t *loanTx) DeleteBook(_ context.Context, bookID int) error {
	if _, ok := t.s.state.books[bookID]; !ok {
		return store.ErrNotFound
	}
	delete(t.s.state.books, bookID)
	for id, record := range t.s.state.records {
		if record.BookID == bookID {
			record.BookID = 0
			t.s.state.records[id] = record
		}
	}
	for _, set := range t.s.state.borrowed {
		delete(set, bookID)
	}
	return nil
}

func (t *loanTx) HasActiveLoan(_ context.Context, userID, bookID int) (bool, error) {
	for _, record := range t.s.state.records {
		if record.UserID == userID && record.BookID == bookID && record.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *loanTx) HasActiveLoanForBook(_ context.Context, bookID int) (bool, error) {
	_, ok := t.s.state.activeRecordForBook(bookID)
	return ok, nil
}

func (t *loanTx) CountActiveLoans(_ context.Context, userID int) (int, error) {
	total := 0
	for _, record := range t.s.state.records {
		if record.UserID == userID && record.Active() {
			total++
		}
	}
	return total, nil
}

func (t *loanTx) CreateRecord(_ context.Context, record types.BorrowRecord) (types.BorrowRecord, error) {
	if _, ok := t.s.state.activeRecordForBook(record.BookID); ok {
		return types.BorrowRecord{}, store.ErrDuplicate
	}
	t.s.state.nextRecordID++
	record.ID = t.s.state.nextRecordID
	record.ReturnedDate = nil
	record.CreatedAt = record.BorrowedDate
	record.UpdatedAt = record.BorrowedDate
	t.s.state.records[record.ID] = record
	return record, nil
}

func (t *loanTx) LockRecord(_ context.Context, recordID int) (types.BorrowRecord, error) {
	record, ok := t.s.state.records[recordID]
	if !ok {
		return types.BorrowRecord{}, store.ErrNotFound
	}
	if record.ReturnedDate != nil {
		at := *record.ReturnedDate
		record.ReturnedDate = &at
	}
	return record, nil
}

func (t *loanTx) MarkReturned(_ context.Context, recordID int, at time.Time) error {
	record, ok := t.s.state.records[recordID]
	if !ok || !record.Active() {
		return store.ErrNotFound
	}
	record.ReturnedDate = &at
	record.UpdatedAt = at
	t.s.state.records[recordID] = record
	return nil
}

func (t *loanTx) AddBorrowedBook(_ context.Context, userID, bookID int) error {
	set, ok := t.s.state.borrowed[userID]
	if !ok {
		set = make(map[int]struct{})
		t.s.state.borrowed[userID] = set
	}
	set[bookID] = struct{}{}
	return nil
}

func (t *loanTx) RemoveBorrowedBook(_ context.Context, userID, bookID int) error {
	delete(t.s.state.borrowed[userID], bookID)
	return nil
}
