package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/librarium/apiserver/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(row rowScanner) (types.Category, error) {
	var category types.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	return category, err
}

// List returns categories sorted by name.
func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY lower(name), id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int) (types.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

// GetByName matches the full name ignoring case.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (types.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE lower(name) = lower($1)`
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		category.Name,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	).Scan(&category.ID); err != nil {
		return types.Category{}, mapError(err)
	}
	return category, nil
}

// Upsert returns the category with the given name, creating it when absent.
func (r *CategoryRepository) Upsert(ctx context.Context, name string) (types.Category, error) {
	const query = `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES ($1, '', NOW(), NOW())
		ON CONFLICT ((lower(name))) DO UPDATE SET name = categories.name
		RETURNING ` + categoryColumns
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)))
	if err != nil {
		return types.Category{}, mapError(err)
	}
	return category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM categories WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountBooks returns how many books reference the category.
func (r *CategoryRepository) CountBooks(ctx context.Context, id int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM books WHERE category_id = $1`, id).Scan(&total)
	return total, err
}

func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM categories`).Scan(&total)
	return total, err
}
