package types

import "time"

// User represents an account in the system.
// It contains identity, role, access flags, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique and stored lower-cased.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the library.
	Role Role `json:"role" db:"role"`

	// IsApproved reports whether the account has been approved by an admin.
	// It only gates access for librarians.
	IsApproved bool `json:"isApproved" db:"is_approved"`

	// IsBanned reports whether an admin has banned the account.
	IsBanned bool `json:"isBanned" db:"is_banned"`

	// ProfilePhoto is the public URL of the user's profile photo, if any.
	ProfilePhoto string `json:"profilePhoto" db:"profile_photo"`

	// BorrowedBooks holds the IDs of books the user currently has on loan.
	BorrowedBooks []int `json:"borrowedBooks" db:"-"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserRef is the compact user view embedded in other resources.
type UserRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
