package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/librarium/apiserver/types"
)

// BookRepository handles persistence for books.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

const bookSelect = `
		SELECT b.id, b.title, b.author, b.description, c.id, c.name,
			b.cover_image_url, b.pdf_url, COALESCE(b.published_year, 0), COALESCE(b.pages, 0),
			b.isbn, b.is_available, u.id, u.name, b.created_at, b.updated_at
		FROM books b
		JOIN categories c ON c.id = b.category_id
		JOIN users u ON u.id = b.uploaded_by`

func scanBook(row rowScanner) (types.Book, error) {
	var book types.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Category.ID,
		&book.Category.Name,
		&book.CoverImageURL,
		&book.PdfURL,
		&book.PublishedYear,
		&book.Pages,
		&book.ISBN,
		&book.IsAvailable,
		&book.UploadedBy.ID,
		&book.UploadedBy.Name,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	return book, err
}

// List returns one page of books matching the filter, newest first, and
// the total number of matches.
func (r *BookRepository) List(ctx context.Context, filter types.BookFilter, offset, limit int) ([]types.Book, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	where, args := bookWhere(filter)

	countQuery := `SELECT COUNT(1) FROM books b JOIN categories c ON c.id = b.category_id` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := bookSelect + where + fmt.Sprintf(
		" ORDER BY b.created_at DESC, b.id DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books := make([]types.Book, 0, limit)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// Count returns the number of books matching the filter.
func (r *BookRepository) Count(ctx context.Context, filter types.BookFilter) (int, error) {
	where, args := bookWhere(filter)
	query := `SELECT COUNT(1) FROM books b JOIN categories c ON c.id = b.category_id` + where
	var total int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

func (r *BookRepository) Get(ctx context.Context, id int) (types.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Create(ctx context.Context, book types.Book) (types.Book, error) {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	book.IsAvailable = true

	const query = `
		INSERT INTO books (title, author, description, category_id, cover_image_url, pdf_url,
			published_year, pages, isbn, is_available, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		book.Title,
		book.Author,
		book.Description,
		book.Category.ID,
		book.CoverImageURL,
		book.PdfURL,
		nullInt(book.PublishedYear),
		nullInt(book.Pages),
		book.ISBN,
		book.IsAvailable,
		book.UploadedBy.ID,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.ID); err != nil {
		return types.Book{}, mapError(err)
	}
	return r.Get(ctx, book.ID)
}

// Update writes the editable metadata. Availability is left untouched.
func (r *BookRepository) Update(ctx context.Context, book types.Book) (types.Book, error) {
	const query = `
		UPDATE books
		SET title = $1,
			author = $2,
			description = $3,
			category_id = $4,
			published_year = $5,
			pages = $6,
			isbn = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		book.Title,
		book.Author,
		book.Description,
		book.Category.ID,
		nullInt(book.PublishedYear),
		nullInt(book.Pages),
		book.ISBN,
		time.Now(),
		book.ID,
	)
	if err != nil {
		return types.Book{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Book{}, err
	}
	if affected == 0 {
		return types.Book{}, ErrNotFound
	}
	return r.Get(ctx, book.ID)
}

func bookWhere(filter types.BookFilter) (string, []any) {
	var clauses []string
	var args []any
	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, likePattern(category))
		clauses = append(clauses, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, likePattern(search))
		clauses = append(clauses, fmt.Sprintf("(b.title ILIKE $%d OR b.author ILIKE $%d)", len(args), len(args)))
	}
	if filter.UploaderID > 0 {
		args = append(args, filter.UploaderID)
		clauses = append(clauses, fmt.Sprintf("b.uploaded_by = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a literal substring for ILIKE matching.
func likePattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

func nullInt(value int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(value), Valid: value != 0}
}
