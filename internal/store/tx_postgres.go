package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/librarium/apiserver/types"
)

// TxManager runs LoanTx callbacks inside postgres transactions.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &pgLoanTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapError(err))
	}
	return nil
}

type pgLoanTx struct {
	tx *sql.Tx
}

func (t *pgLoanTx) LockBook(ctx context.Context, bookID int) (types.Book, error) {
	const query = `
		SELECT id, title, author, cover_image_url, pdf_url, is_available, uploaded_by
		FROM books
		WHERE id = $1
		FOR UPDATE`
	var book types.Book
	err := t.tx.QueryRowContext(ctx, query, bookID).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.CoverImageURL,
		&book.PdfURL,
		&book.IsAvailable,
		&book.UploadedBy.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (t *pgLoanTx) SetBookAvailability(ctx context.Context, bookID int, available bool) error {
	const query = `UPDATE books SET is_available = $1, updated_at = $2 WHERE id = $3`
	result, err := t.tx.ExecContext(ctx, query, available, time.Now(), bookID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (t *pgLoanTx) DeleteBook(ctx context.Context, bookID int) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, bookID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func (t *pgLoanTx) HasActiveLoan(ctx context.Context, userID, bookID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE user_id = $1 AND book_id = $2 AND returned_at IS NULL
		)`
	var exists bool
	err := t.tx.QueryRowContext(ctx, query, userID, bookID).Scan(&exists)
	return exists, err
}

func (t *pgLoanTx) HasActiveLoanForBook(ctx context.Context, bookID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE book_id = $1 AND returned_at IS NULL
		)`
	var exists bool
	err := t.tx.QueryRowContext(ctx, query, bookID).Scan(&exists)
	return exists, err
}

func (t *pgLoanTx) CountActiveLoans(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(1) FROM borrow_records WHERE user_id = $1 AND returned_at IS NULL`
	var total int
	err := t.tx.QueryRowContext(ctx, query, userID).Scan(&total)
	return total, err
}

func (t *pgLoanTx) CreateRecord(ctx context.Context, record types.BorrowRecord) (types.BorrowRecord, error) {
	record.CreatedAt = record.BorrowedDate
	record.UpdatedAt = record.BorrowedDate

	const query = `
		INSERT INTO borrow_records (user_id, book_id, borrowed_at, due_at, returned_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
		RETURNING id`
	if err := t.tx.QueryRowContext(
		ctx,
		query,
		record.UserID,
		record.BookID,
		record.BorrowedDate,
		record.DueDate,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		return types.BorrowRecord{}, mapError(err)
	}
	return record, nil
}

func (t *pgLoanTx) LockRecord(ctx context.Context, recordID int) (types.BorrowRecord, error) {
	const query = `
		SELECT id, user_id, COALESCE(book_id, 0), borrowed_at, due_at, returned_at, created_at, updated_at
		FROM borrow_records
		WHERE id = $1
		FOR UPDATE`
	var record types.BorrowRecord
	var returnedAt sql.NullTime
	err := t.tx.QueryRowContext(ctx, query, recordID).Scan(
		&record.ID,
		&record.UserID,
		&record.BookID,
		&record.BorrowedDate,
		&record.DueDate,
		&returnedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.BorrowRecord{}, ErrNotFound
		}
		return types.BorrowRecord{}, err
	}
	if returnedAt.Valid {
		at := returnedAt.Time
		record.ReturnedDate = &at
	}
	return record, nil
}

func (t *pgLoanTx) MarkReturned(ctx context.Context, recordID int, at time.Time) error {
	const query = `
		UPDATE borrow_records
		SET returned_at = $1, updated_at = $1
		WHERE id = $2 AND returned_at IS NULL`
	result, err := t.tx.ExecContext(ctx, query, at, recordID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (t *pgLoanTx) AddBorrowedBook(ctx context.Context, userID, bookID int) error {
	const query = `
		INSERT INTO user_borrowed_books (user_id, book_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := t.tx.ExecContext(ctx, query, userID, bookID)
	return err
}

func (t *pgLoanTx) RemoveBorrowedBook(ctx context.Context, userID, bookID int) error {
	const query = `DELETE FROM user_borrowed_books WHERE user_id = $1 AND book_id = $2`
	_, err := t.tx.ExecContext(ctx, query, userID, bookID)
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
