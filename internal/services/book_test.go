package services

import (
	"context"
	"testing"

	"github.com/librarium/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookStoresUploads(t *testing.T) {
	lib := newLibrary(t)
	librarian := lib.addUser(t, "lena", types.RoleLibrarian, true)

	book := lib.addBook(t, librarian, "Dune", "Fiction")

	assert.True(t, book.IsAvailable)
	assert.Equal(t, "Fiction", book.Category.Name)
	assert.Equal(t, librarian.ID, book.UploadedBy.ID)
	assert.Equal(t, "lena", book.UploadedBy.Name)
	assert.Equal(t, 2, lib.objects.count())

	coverKey, ok := UploadKeyFromURL(book.CoverImageURL)
	require.True(t, ok)
	assert.Contains(t, coverKey, ".png")
	pdfKey, ok := UploadKeyFromURL(book.PdfURL)
	require.True(t, ok)
	assert.Contains(t, pdfKey, ".pdf")
}

func TestCreateBookValidation(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	librarian := lib.addUser(t, "lena", types.RoleLibrarian, true)
	_, err := lib.store.Categories().Upsert(ctx, "Fiction")
	require.NoError(t, err)

	valid := BookInput{Title: "Dune", Author: "Herbert", Description: "Sand", Category: "Fiction", Pages: 10}
	cases := []struct {
		name    string
		mutate  func(*BookInput)
		cover   Upload
		content Upload
	}{
		{name: "missing title", mutate: func(in *BookInput) { in.Title = " " }, cover: coverUpload(), content: pdfUpload()},
		{name: "year in the future", mutate: func(in *BookInput) { in.PublishedYear = 2026 }, cover: coverUpload(), content: pdfUpload()},
		{name: "year too old", mutate: func(in *BookInput) { in.PublishedYear = 999 }, cover: coverUpload(), content: pdfUpload()},
		{name: "missing cover", mutate: func(*BookInput) {}, content: pdfUpload()},
		{name: "cover not an image", mutate: func(*BookInput) {}, cover: Upload{Filename: "a.txt", ContentType: "text/plain", Data: []byte("x")}, content: pdfUpload()},
		{name: "cover is svg", mutate: func(*BookInput) {}, cover: Upload{Filename: "a.svg", ContentType: "image/svg+xml", Data: []byte("<svg/>")}, content: pdfUpload()},
		{name: "content not a pdf", mutate: func(*BookInput) {}, cover: coverUpload(), content: Upload{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("not a pdf")}},
		{name: "unknown category", mutate: func(in *BookInput) { in.Category = "Poetry" }, cover: coverUpload(), content: pdfUpload()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := lib.books.Create(ctx, librarian, in, tc.cover, tc.content)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Zero(t, lib.objects.count())
}

func TestCreateBookAdminCreatesCategory(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	admin := lib.addUser(t, "root", types.RoleAdmin, true)

	book, err := lib.books.Create(ctx, admin, BookInput{
		Title: "Dune", Author: "Herbert", Description: "Sand", Category: "Science Fiction", Pages: 10,
	}, coverUpload(), pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", book.Category.Name)

	categories, err := lib.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestUpdateBookOwnership(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	owner := lib.addUser(t, "lena", types.RoleLibrarian, true)
	other := lib.addUser(t, "otto", types.RoleLibrarian, true)
	admin := lib.addUser(t, "root", types.RoleAdmin, true)
	book := lib.addBook(t, owner, "Dune", "Fiction")

	title := "Dune Messiah"
	_, err := lib.books.Update(ctx, other, book.ID, BookUpdate{Title: &title})
	require.ErrorIs(t, err, ErrNotOwner)

	updated, err := lib.books.Update(ctx, owner, book.ID, BookUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, book.Author, updated.Author)

	pages := 300
	updated, err = lib.books.Update(ctx, admin, book.ID, BookUpdate{Pages: &pages})
	require.NoError(t, err)
	assert.Equal(t, 300, updated.Pages)
	assert.Equal(t, title, updated.Title)
}

func TestUpdateBookRejectsNonPositivePages(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	owner := lib.addUser(t, "lena", types.RoleLibrarian, true)
	book := lib.addBook(t, owner, "Dune", "Fiction")

	for _, pages := range []int{0, -5} {
		_, err := lib.books.Update(ctx, owner, book.ID, BookUpdate{Pages: &pages})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "pages must be at least 1", err.Error())
	}
	assert.Equal(t, 120, lib.book(t, book.ID).Pages)
}

func TestUpdateBookKeepsAvailability(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	owner := lib.addUser(t, "lena", types.RoleLibrarian, true)
	alice := lib.addUser(t, "alice", types.RoleBorrower, true)
	book := lib.addBook(t, owner, "Dune", "Fiction")

	_, err := lib.loans.Borrow(ctx, alice, book.ID)
	require.NoError(t, err)

	title := "Dune (2nd ed.)"
	updated, err := lib.books.Update(ctx, owner, book.ID, BookUpdate{Title: &title})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
}

func TestDeleteBookBlockedWhileBorrowed(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	owner := lib.addUser(t, "lena", types.RoleLibrarian, true)
	alice := lib.addUser(t, "alice", types.RoleBorrower, true)
	book := lib.addBook(t, owner, "Dune", "Fiction")

	record, err := lib.loans.Borrow(ctx, alice, book.ID)
	require.NoError(t, err)

	err = lib.books.Delete(ctx, owner, book.ID)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = lib.loans.Return(ctx, alice, record.ID)
	require.NoError(t, err)
	require.NoError(t, lib.books.Delete(ctx, owner, book.ID))

	_, err = lib.books.Get(ctx, book.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Zero(t, lib.objects.count())

	history, _, err := lib.loans.History(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Zero(t, history[0].BookID)
	assert.Nil(t, history[0].Book)
}

func TestDeleteBookRequiresOwner(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	owner := lib.addUser(t, "lena", types.RoleLibrarian, true)
	other := lib.addUser(t, "otto", types.RoleLibrarian, true)
	book := lib.addBook(t, owner, "Dune", "Fiction")

	require.ErrorIs(t, lib.books.Delete(ctx, other, book.ID), ErrNotOwner)
	assert.Equal(t, KindNotFound, KindOf(lib.books.Delete(ctx, owner, 999)))
}

func TestListBooksFilters(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	lena := lib.addUser(t, "lena", types.RoleLibrarian, true)
	otto := lib.addUser(t, "otto", types.RoleLibrarian, true)
	lib.addBook(t, lena, "Dune", "Science Fiction")
	lib.addBook(t, lena, "Emma", "Classics")
	lib.addBook(t, otto, "Neuromancer", "Science Fiction")

	books, total, err := lib.books.List(ctx, types.BookFilter{Category: "science"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 2)

	books, total, err = lib.books.List(ctx, types.BookFilter{Search: "EMM"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Emma", books[0].Title)

	_, total, err = lib.books.List(ctx, types.BookFilter{UploaderID: otto.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	books, total, err = lib.books.List(ctx, types.BookFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, books, 1)

	books, total, err = lib.books.List(ctx, types.BookFilter{Category: "poetry"}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, books)
}
