package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

const minPublishedYear = 1000

// BookRepository defines persistence operations for books.
type BookRepository interface {
	List(ctx context.Context, filter types.BookFilter, offset, limit int) ([]types.Book, int, error)
	Count(ctx context.Context, filter types.BookFilter) (int, error)
	Get(ctx context.Context, id int) (types.Book, error)
	Create(ctx context.Context, book types.Book) (types.Book, error)
	Update(ctx context.Context, book types.Book) (types.Book, error)
}

// TxRunner executes loan-affecting writes atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn store.TxFunc) error
}

// BookService encapsulates catalog use-cases.
type BookService struct {
	repo       BookRepository
	categories *CategoryService
	objects    ObjectStore
	tx         TxRunner
	now        func() time.Time
}

func NewBookService(repo BookRepository, categories *CategoryService, objects ObjectStore, tx TxRunner) *BookService {
	return &BookService{
		repo:       repo,
		categories: categories,
		objects:    objects,
		tx:         tx,
		now:        time.Now,
	}
}

// BookInput carries the editable metadata of a book.
type BookInput struct {
	Title         string
	Author        string
	Description   string
	Category      string
	PublishedYear int
	Pages         int
	ISBN          string
}

// BookUpdate carries a partial edit. Nil fields are left unchanged.
type BookUpdate struct {
	Title         *string
	Author        *string
	Description   *string
	Category      *string
	PublishedYear *int
	Pages         *int
	ISBN          *string
}

// List returns a page of the catalog and the total number of matches.
func (s *BookService) List(ctx context.Context, filter types.BookFilter, offset, limit int) ([]types.Book, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *BookService) Get(ctx context.Context, id int) (types.Book, error) {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Book{}, notFound("book not found")
		}
		return types.Book{}, err
	}
	return book, nil
}

// Create stores the cover and PDF, then inserts the book. Stored files are
// removed again when the insert fails.
func (s *BookService) Create(ctx context.Context, actor types.User, in BookInput, cover, content Upload) (types.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Description = strings.TrimSpace(in.Description)
	in.ISBN = strings.TrimSpace(in.ISBN)
	switch {
	case in.Title == "":
		return types.Book{}, invalid("title is required")
	case in.Author == "":
		return types.Book{}, invalid("author is required")
	case in.Description == "":
		return types.Book{}, invalid("description is required")
	}
	if err := s.validateNumbers(in.PublishedYear, in.Pages); err != nil {
		return types.Book{}, err
	}
	if err := cover.requireImage("coverImage", maxImageBytes); err != nil {
		return types.Book{}, err
	}
	if err := content.requirePDF("pdfFile", maxPDFBytes); err != nil {
		return types.Book{}, err
	}
	if in.Pages == 0 {
		pages, err := pdfPageCount(content.Data)
		if err != nil {
			return types.Book{}, invalid("pdfFile could not be read")
		}
		in.Pages = pages
	}

	category, err := s.categories.Resolve(ctx, actor, in.Category)
	if err != nil {
		return types.Book{}, err
	}

	coverKey := uploadKey("cover", cover.imageExtension())
	if err := s.objects.Put(ctx, coverKey, cover.reader(), cover.size(), cover.ContentType); err != nil {
		return types.Book{}, fmt.Errorf("store cover image: %w", err)
	}
	pdfKey := uploadKey("pdf", ".pdf")
	if err := s.objects.Put(ctx, pdfKey, content.reader(), content.size(), "application/pdf"); err != nil {
		removeUpload(ctx, s.objects, UploadURL(coverKey))
		return types.Book{}, fmt.Errorf("store pdf: %w", err)
	}

	book, err := s.repo.Create(ctx, types.Book{
		Title:         in.Title,
		Author:        in.Author,
		Description:   in.Description,
		Category:      types.CategoryRef{ID: category.ID, Name: category.Name},
		CoverImageURL: UploadURL(coverKey),
		PdfURL:        UploadURL(pdfKey),
		PublishedYear: in.PublishedYear,
		Pages:         in.Pages,
		ISBN:          in.ISBN,
		UploadedBy:    types.UserRef{ID: actor.ID, Name: actor.Name},
	})
	if err != nil {
		removeUpload(ctx, s.objects, UploadURL(coverKey))
		removeUpload(ctx, s.objects, UploadURL(pdfKey))
		return types.Book{}, err
	}
	slog.InfoContext(ctx, "book created", "book_id", book.ID, "uploaded_by", actor.ID)
	return book, nil
}

// Update edits metadata of a book owned by actor, or any book for admins.
func (s *BookService) Update(ctx context.Context, actor types.User, id int, in BookUpdate) (types.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return types.Book{}, err
	}
	if !canModify(actor, book) {
		return types.Book{}, ErrNotOwner
	}

	if in.Title != nil {
		if book.Title = strings.TrimSpace(*in.Title); book.Title == "" {
			return types.Book{}, invalid("title cannot be empty")
		}
	}
	if in.Author != nil {
		if book.Author = strings.TrimSpace(*in.Author); book.Author == "" {
			return types.Book{}, invalid("author cannot be empty")
		}
	}
	if in.Description != nil {
		book.Description = strings.TrimSpace(*in.Description)
	}
	if in.ISBN != nil {
		book.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.PublishedYear != nil {
		book.PublishedYear = *in.PublishedYear
	}
	if in.Pages != nil {
		// Zero only means "count from the PDF" on create.
		if *in.Pages < 1 {
			return types.Book{}, invalid("pages must be at least 1")
		}
		book.Pages = *in.Pages
	}
	if err := s.validateNumbers(book.PublishedYear, book.Pages); err != nil {
		return types.Book{}, err
	}
	if in.Category != nil {
		category, err := s.categories.Resolve(ctx, actor, *in.Category)
		if err != nil {
			return types.Book{}, err
		}
		book.Category = types.CategoryRef{ID: category.ID, Name: category.Name}
	}

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Book{}, notFound("book not found")
		}
		return types.Book{}, err
	}
	return updated, nil
}

// Delete removes a book that is not on loan. Loan history is kept.
func (s *BookService) Delete(ctx context.Context, actor types.User, id int) error {
	var deleted types.Book
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.LoanTx) error {
		book, err := tx.LockBook(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("book not found")
			}
			return err
		}
		if !canModify(actor, book) {
			return ErrNotOwner
		}
		onLoan, err := tx.HasActiveLoanForBook(ctx, id)
		if err != nil {
			return err
		}
		if onLoan {
			return conflict("cannot delete a book that is currently borrowed")
		}
		deleted = book
		return tx.DeleteBook(ctx, id)
	})
	if err != nil {
		return err
	}

	removeUpload(ctx, s.objects, deleted.CoverImageURL)
	removeUpload(ctx, s.objects, deleted.PdfURL)
	slog.InfoContext(ctx, "book deleted", "book_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *BookService) validateNumbers(publishedYear, pages int) error {
	if publishedYear != 0 && (publishedYear < minPublishedYear || publishedYear > s.now().Year()) {
		return invalid("publishedYear must be between %d and %d", minPublishedYear, s.now().Year())
	}
	if pages < 0 {
		return invalid("pages must be at least 1")
	}
	return nil
}

func canModify(actor types.User, book types.Book) bool {
	return actor.Role == types.RoleAdmin || book.UploadedBy.ID == actor.ID
}
