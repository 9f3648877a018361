package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/librarium/apiserver/internal/store/memory"
	"github.com/librarium/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.LoanEvent
}

func (p *recordingPublisher) PublishLoanEvent(_ context.Context, event types.LoanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type library struct {
	store      *memory.Store
	objects    *memObjects
	events     *recordingPublisher
	users      *UserService
	categories *CategoryService
	books      *BookService
	loans      *LoanService
	dashboard  *DashboardService
	authorizer *Authorizer
	clock      time.Time
}

func newLibrary(t *testing.T) *library {
	t.Helper()
	mem := memory.NewStore()
	lib := &library{
		store:   mem,
		objects: &memObjects{},
		events:  &recordingPublisher{},
		clock:   time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
	lib.users = NewUserService(mem.Users(), lib.objects)
	lib.users.hashCost = bcrypt.MinCost
	lib.categories = NewCategoryService(mem.Categories())
	lib.books = NewBookService(mem.Books(), lib.categories, lib.objects, mem)
	lib.books.now = func() time.Time { return lib.clock }
	lib.loans = NewLoanService(mem.BorrowRecords(), mem, lib.events, 0)
	lib.loans.now = func() time.Time { return lib.clock }
	lib.dashboard = NewDashboardService(mem.Users(), mem.Books(), mem.Categories(), mem.BorrowRecords())
	lib.authorizer = NewAuthorizer(mem.Users())
	return lib
}

func (l *library) addUser(t *testing.T, name string, role types.Role, approved bool) types.User {
	t.Helper()
	user, err := l.store.Users().Create(context.Background(), types.User{
		Name:         name,
		Email:        name + "@example.com",
		Role:         role,
		IsApproved:   approved,
		PasswordHash: "unused",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (l *library) addBook(t *testing.T, owner types.User, title, category string) types.Book {
	t.Helper()
	if _, err := l.store.Categories().Upsert(context.Background(), category); err != nil {
		t.Fatalf("upsert category: %v", err)
	}
	book, err := l.books.Create(context.Background(), owner, BookInput{
		Title:         title,
		Author:        "Author of " + title,
		Description:   "About " + title,
		Category:      category,
		PublishedYear: 2001,
		Pages:         120,
	}, coverUpload(), pdfUpload())
	if err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return book
}

func (l *library) book(t *testing.T, id int) types.Book {
	t.Helper()
	book, err := l.books.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get book %d: %v", id, err)
	}
	return book
}

func (l *library) user(t *testing.T, id int) types.User {
	t.Helper()
	user, err := l.users.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get user %d: %v", id, err)
	}
	return user
}

func coverUpload() Upload {
	return Upload{Filename: "cover.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
}

func pdfUpload() Upload {
	return Upload{Filename: "book.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4\n%%EOF\n")}
}
