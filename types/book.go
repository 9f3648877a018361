package types

import "time"

// Book represents a catalog entry in the library.
// It carries descriptive metadata, references to the uploaded files,
// and the availability flag maintained by the borrow/return workflow.
type Book struct {
	// ID is the unique identifier of the book.
	ID int `json:"id" db:"id"`

	// Title is the book title.
	Title string `json:"title" db:"title"`

	// Author is the name of the book's author.
	Author string `json:"author" db:"author"`

	// Description is a free-form summary of the book.
	Description string `json:"description" db:"description"`

	// Category references the category the book belongs to.
	Category CategoryRef `json:"category" db:"category_id"`

	// CoverImageURL is the public URL of the cover image.
	CoverImageURL string `json:"coverImageUrl" db:"cover_image_url"`

	// PdfURL is the public URL of the book content.
	PdfURL string `json:"pdfUrl" db:"pdf_url"`

	// PublishedYear is the year of publication, zero when unknown.
	PublishedYear int `json:"publishedYear,omitempty" db:"published_year"`

	// Pages is the page count, zero when unknown.
	Pages int `json:"pages,omitempty" db:"pages"`

	// ISBN is the optional International Standard Book Number.
	ISBN string `json:"isbn,omitempty" db:"isbn"`

	// IsAvailable is false exactly while an active borrow record exists.
	IsAvailable bool `json:"isAvailable" db:"is_available"`

	// UploadedBy references the librarian or admin who uploaded the book.
	UploadedBy UserRef `json:"uploadedBy" db:"uploaded_by"`

	// CreatedAt is the timestamp at which the book was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the book.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// BookFilter narrows catalog listings. Zero values mean "no filter".
type BookFilter struct {
	// Category matches books whose category name contains the value, ignoring case.
	Category string

	// Search matches books whose title or author contains the value, ignoring case.
	Search string

	// UploaderID restricts results to books uploaded by this user.
	UploaderID int
}

// BookSummary is the compact book view embedded in borrow records.
type BookSummary struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverImageURL string `json:"coverImageUrl"`
}
