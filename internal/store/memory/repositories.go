package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// UserRepository is the in-memory user store.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.state.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.BorrowedBooks = r.s.state.borrowedBooks(id)
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, user := range r.s.state.users {
		if user.Email == email {
			user.BorrowedBooks = r.s.state.borrowedBooks(user.ID)
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]types.User, 0, len(r.s.state.users))
	for _, user := range r.s.state.users {
		user.BorrowedBooks = r.s.state.borrowedBooks(user.ID)
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.state.users), nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, 0) {
		return types.User{}, store.ErrDuplicate
	}
	r.s.state.nextUserID++
	user.ID = r.s.state.nextUserID
	now := r.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.BorrowedBooks = nil
	r.s.state.users[user.ID] = user
	user.BorrowedBooks = []int{}
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.state.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, user.ID) {
		return types.User{}, store.ErrDuplicate
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	user.BorrowedBooks = nil
	r.s.state.users[user.ID] = user
	user.BorrowedBooks = r.s.state.borrowedBooks(user.ID)
	return user, nil
}

func (r *UserRepository) emailTaken(email string, exceptID int) bool {
	for _, user := range r.s.state.users {
		if user.Email == email && user.ID != exceptID {
			return true
		}
	}
	return false
}

// CategoryRepository is the in-memory category store.
type CategoryRepository struct {
	s *Store
}

func (r *CategoryRepository) List(_ context.Context) ([]types.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	categories := make([]types.Category, 0, len(r.s.state.categories))
	for _, category := range r.s.state.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		left, right := strings.ToLower(categories[i].Name), strings.ToLower(categories[j].Name)
		if left == right {
			return categories[i].ID < categories[j].ID
		}
		return left < right
	})
	return categories, nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id int) (types.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	category, ok := r.s.state.categories[id]
	if !ok {
		return types.Category{}, store.ErrNotFound
	}
	return category, nil
}

func (r *CategoryRepository) GetByName(_ context.Context, name string) (types.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if category, ok := r.findByName(name); ok {
		return category, nil
	}
	return types.Category{}, store.ErrNotFound
}

func (r *CategoryRepository) Create(_ context.Context, category types.Category) (types.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.findByName(category.Name); ok {
		return types.Category{}, store.ErrDuplicate
	}
	return r.insert(category), nil
}

func (r *CategoryRepository) Upsert(_ context.Context, name string) (types.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if category, ok := r.findByName(name); ok {
		return category, nil
	}
	return r.insert(types.Category{Name: strings.TrimSpace(name)}), nil
}

func (r *CategoryRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.categories[id]; !ok {
		return store.ErrNotFound
	}
	for _, book := range r.s.state.books {
		if book.Category.ID == id {
			return store.ErrInUse
		}
	}
	delete(r.s.state.categories, id)
	return nil
}

func (r *CategoryRepository) CountBooks(_ context.Context, id int) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, book := range r.s.state.books {
		if book.Category.ID == id {
			total++
		}
	}
	return total, nil
}

func (r *CategoryRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.state.categories), nil
}

func (r *CategoryRepository) findByName(name string) (types.Category, bool) {
	name = strings.TrimSpace(name)
	for _, category := range r.s.state.categories {
		if strings.EqualFold(category.Name, name) {
			return category, true
		}
	}
	return types.Category{}, false
}

func (r *CategoryRepository) insert(category types.Category) types.Category {
	r.s.state.nextCategoryID++
	category.ID = r.s.state.nextCategoryID
	now := r.s.now()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.s.state.categories[category.ID] = category
	return category
}

// BookRepository is the in-memory book store.
type BookRepository struct {
	s *Store
}

func (r *BookRepository) List(_ context.Context, filter types.BookFilter, offset, limit int) ([]types.Book, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset >= total {
		return []types.Book{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *BookRepository) Count(_ context.Context, filter types.BookFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.match(filter)), nil
}

func (r *BookRepository) Get(_ context.Context, id int) (types.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	book, ok := r.s.state.books[id]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	return r.s.state.resolveBook(book), nil
}

func (r *BookRepository) Create(_ context.Context, book types.Book) (types.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.categories[book.Category.ID]; !ok {
		return types.Book{}, store.ErrInUse
	}
	r.s.state.nextBookID++
	book.ID = r.s.state.nextBookID
	now := r.s.now()
	book.CreatedAt = now
	book.UpdatedAt = now
	book.IsAvailable = true
	r.s.state.books[book.ID] = book
	return r.s.state.resolveBook(book), nil
}

func (r *BookRepository) Update(_ context.Context, book types.Book) (types.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.state.books[book.ID]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	if _, ok := r.s.state.categories[book.Category.ID]; !ok {
		return types.Book{}, store.ErrInUse
	}
	existing.Title = book.Title
	existing.Author = book.Author
	existing.Description = book.Description
	existing.Category = types.CategoryRef{ID: book.Category.ID}
	existing.PublishedYear = book.PublishedYear
	existing.Pages = book.Pages
	existing.ISBN = book.ISBN
	existing.UpdatedAt = r.s.now()
	r.s.state.books[book.ID] = existing
	return r.s.state.resolveBook(existing), nil
}

func (r *BookRepository) match(filter types.BookFilter) []types.Book {
	category := strings.TrimSpace(filter.Category)
	search := strings.TrimSpace(filter.Search)
	out := make([]types.Book, 0)
	for _, book := range r.s.state.books {
		book = r.s.state.resolveBook(book)
		if category != "" && !containsFold(book.Category.Name, category) {
			continue
		}
		if search != "" && !containsFold(book.Title, search) && !containsFold(book.Author, search) {
			continue
		}
		if filter.UploaderID > 0 && book.UploadedBy.ID != filter.UploaderID {
			continue
		}
		out = append(out, book)
	}
	return out
}

// BorrowRecordRepository is the in-memory read side of loans.
type BorrowRecordRepository struct {
	s *Store
}

func (r *BorrowRecordRepository) ListByUser(_ context.Context, userID, offset, limit int) ([]types.BorrowRecord, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	records := make([]types.BorrowRecord, 0)
	for _, record := range r.s.state.records {
		if record.UserID != userID {
			continue
		}
		if record.ReturnedDate != nil {
			at := *record.ReturnedDate
			record.ReturnedDate = &at
		}
		if book, ok := r.s.state.books[record.BookID]; ok {
			record.Book = &types.BookSummary{
				ID:            book.ID,
				Title:         book.Title,
				Author:        book.Author,
				CoverImageURL: book.CoverImageURL,
			}
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].BorrowedDate.Equal(records[j].BorrowedDate) {
			return records[i].ID > records[j].ID
		}
		return records[i].BorrowedDate.After(records[j].BorrowedDate)
	})
	total := len(records)
	if offset >= total {
		return []types.BorrowRecord{}, total, nil
	}
	return records[offset:min(offset+limit, total)], total, nil
}

func (r *BorrowRecordRepository) CountActive(_ context.Context, uploaderID int) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, record := range r.s.state.records {
		if !record.Active() {
			continue
		}
		if uploaderID > 0 {
			book, ok := r.s.state.books[record.BookID]
			if !ok || book.UploadedBy.ID != uploaderID {
				continue
			}
		}
		total++
	}
	return total, nil
}
