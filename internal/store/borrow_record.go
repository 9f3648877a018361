package store

import (
	"context"
	"database/sql"

	"github.com/librarium/apiserver/types"
)

// BorrowRecordRepository serves read-side queries over loans. Writes go
// through TxManager so that book availability moves in the same transaction.
type BorrowRecordRepository struct {
	db *sql.DB
}

func NewBorrowRecordRepository(db *sql.DB) *BorrowRecordRepository {
	return &BorrowRecordRepository{db: db}
}

// ListByUser returns a page of the user's loans, newest first, with a
// summary of each book that still exists, and the user's total loan count.
func (r *BorrowRecordRepository) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.BorrowRecord, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM borrow_records WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT r.id, r.user_id, COALESCE(r.book_id, 0), r.borrowed_at, r.due_at, r.returned_at,
			r.created_at, r.updated_at, b.id, b.title, b.author, b.cover_image_url
		FROM borrow_records r
		LEFT JOIN books b ON b.id = r.book_id
		WHERE r.user_id = $1
		ORDER BY r.borrowed_at DESC, r.id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]types.BorrowRecord, 0)
	for rows.Next() {
		var record types.BorrowRecord
		var returnedAt sql.NullTime
		var bookID sql.NullInt64
		var title, author, cover sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.BookID,
			&record.BorrowedDate,
			&record.DueDate,
			&returnedAt,
			&record.CreatedAt,
			&record.UpdatedAt,
			&bookID,
			&title,
			&author,
			&cover,
		); err != nil {
			return nil, 0, err
		}
		if returnedAt.Valid {
			at := returnedAt.Time
			record.ReturnedDate = &at
		}
		if bookID.Valid {
			record.Book = &types.BookSummary{
				ID:            int(bookID.Int64),
				Title:         title.String,
				Author:        author.String,
				CoverImageURL: cover.String,
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// CountActive counts open loans. When uploaderID is positive only books
// uploaded by that user are counted.
func (r *BorrowRecordRepository) CountActive(ctx context.Context, uploaderID int) (int, error) {
	var total int
	if uploaderID > 0 {
		const query = `
			SELECT COUNT(1)
			FROM borrow_records r
			JOIN books b ON b.id = r.book_id
			WHERE r.returned_at IS NULL AND b.uploaded_by = $1`
		err := r.db.QueryRowContext(ctx, query, uploaderID).Scan(&total)
		return total, err
	}
	const query = `SELECT COUNT(1) FROM borrow_records WHERE returned_at IS NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&total)
	return total, err
}
