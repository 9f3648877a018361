package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/librarium/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, role, is_approved, is_banned, profile_photo, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func userDest(user *types.User) []any {
	return []any{
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsApproved,
		&user.IsBanned,
		&user.ProfilePhoto,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	}
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(userDest(&user)...)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return r.withBorrowedBooks(ctx, user)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return r.withBorrowedBooks(ctx, user)
}

// List returns all users, newest first.
// List returns every user, newest first, each with its borrowed set.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `,
			ARRAY(SELECT ub.book_id FROM user_borrowed_books ub WHERE ub.user_id = users.id ORDER BY ub.book_id)
		FROM users
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		var (
			user     types.User
			borrowed pq.Int64Array
		)
		if err := rows.Scan(append(userDest(&user), &borrowed)...); err != nil {
			return nil, err
		}
		user.BorrowedBooks = make([]int, 0, len(borrowed))
		for _, id := range borrowed {
			user.BorrowedBooks = append(user.BorrowedBooks, int(id))
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&total)
	return total, err
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)
	user.BorrowedBooks = []int{}

	const query = `
		INSERT INTO users (name, email, role, is_approved, is_banned, profile_photo, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.IsApproved,
		user.IsBanned,
		user.ProfilePhoto,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()
	user.Email = strings.ToLower(user.Email)

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			role = $3,
			is_approved = $4,
			is_banned = $5,
			profile_photo = $6,
			password_hash = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.IsApproved,
		user.IsBanned,
		user.ProfilePhoto,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return r.withBorrowedBooks(ctx, user)
}

func (r *UserRepository) withBorrowedBooks(ctx context.Context, user types.User) (types.User, error) {
	const query = `SELECT book_id FROM user_borrowed_books WHERE user_id = $1 ORDER BY book_id`
	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return types.User{}, err
	}
	defer rows.Close()

	user.BorrowedBooks = make([]int, 0)
	for rows.Next() {
		var bookID int
		if err := rows.Scan(&bookID); err != nil {
			return types.User{}, err
		}
		user.BorrowedBooks = append(user.BorrowedBooks, bookID)
	}
	if err := rows.Err(); err != nil {
		return types.User{}, err
	}
	return user, nil
}
