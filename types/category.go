package types

import "time"

// Category groups books in the catalog. Names are unique ignoring case.
type Category struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryRef is the compact category view embedded in books.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
