// Package memory provides an in-process implementation of the library
// repositories. It backs unit tests and single-node demo deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// Store keeps all library state behind one lock. Transactions hold the
// write lock for their whole duration and restore a snapshot on error.
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

type state struct {
	users      map[int]types.User
	borrowed   map[int]map[int]struct{} // user ID -> book IDs
	categories map[int]types.Category
	books      map[int]types.Book
	records    map[int]types.BorrowRecord

	nextUserID     int
	nextCategoryID int
	nextBookID     int
	nextRecordID   int
}

// NewStore initializes an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: &state{
			users:      make(map[int]types.User),
			borrowed:   make(map[int]map[int]struct{}),
			categories: make(map[int]types.Category),
			books:      make(map[int]types.Book),
			records:    make(map[int]types.BorrowRecord),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *state) clone() *state {
	out := &state{
		users:          make(map[int]types.User, len(s.users)),
		borrowed:       make(map[int]map[int]struct{}, len(s.borrowed)),
		categories:     make(map[int]types.Category, len(s.categories)),
		books:          make(map[int]types.Book, len(s.books)),
		records:        make(map[int]types.BorrowRecord, len(s.records)),
		nextUserID:     s.nextUserID,
		nextCategoryID: s.nextCategoryID,
		nextBookID:     s.nextBookID,
		nextRecordID:   s.nextRecordID,
	}
	for id, user := range s.users {
		out.users[id] = user
	}
	for userID, set := range s.borrowed {
		copied := make(map[int]struct{}, len(set))
		for bookID := range set {
			copied[bookID] = struct{}{}
		}
		out.borrowed[userID] = copied
	}
	for id, category := range s.categories {
		out.categories[id] = category
	}
	for id, book := range s.books {
		out.books[id] = book
	}
	for id, record := range s.records {
		if record.ReturnedDate != nil {
			at := *record.ReturnedDate
			record.ReturnedDate = &at
		}
		out.records[id] = record
	}
	return out
}

// WithinTx runs fn under the store-wide write lock.
func (s *Store) WithinTx(ctx context.Context, fn store.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &loanTx{s: s}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Categories returns the category repository view.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Books returns the book repository view.
func (s *Store) Books() *BookRepository { return &BookRepository{s: s} }

// BorrowRecords returns the borrow record repository view.
func (s *Store) BorrowRecords() *BorrowRecordRepository { return &BorrowRecordRepository{s: s} }

// resolveBook fills the embedded category and uploader names.
func (s *state) resolveBook(book types.Book) types.Book {
	if category, ok := s.categories[book.Category.ID]; ok {
		book.Category.Name = category.Name
	}
	if user, ok := s.users[book.UploadedBy.ID]; ok {
		book.UploadedBy.Name = user.Name
	}
	return book
}

func (s *state) borrowedBooks(userID int) []int {
	ids := make([]int, 0, len(s.borrowed[userID]))
	for id := range s.borrowed[userID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *state) activeRecordForBook(bookID int) (types.BorrowRecord, bool) {
	for _, record := range s.records {
		if record.BookID == bookID && record.Active() {
			return record, true
		}
	}
	return types.BorrowRecord{}, false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
