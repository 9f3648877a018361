package services

import (
	"context"

	"github.com/librarium/apiserver/types"
	"golang.org/x/sync/errgroup"
)

// AdminStats summarizes the whole library.
type AdminStats struct {
	TotalBooks      int `json:"totalBooks"`
	TotalUsers      int `json:"totalUsers"`
	TotalBorrowed   int `json:"totalBorrowed"`
	TotalCategories int `json:"totalCategories"`
}

// LibrarianStats summarizes the books a librarian uploaded.
type LibrarianStats struct {
	TotalBooks    int `json:"totalBooks"`
	TotalBorrowed int `json:"totalBorrowed"`
}

// DashboardService computes live aggregate counts.
type DashboardService struct {
	users      UserRepository
	books      BookRepository
	categories CategoryRepository
	records    BorrowRecordRepository
}

func NewDashboardService(users UserRepository, books BookRepository, categories CategoryRepository, records BorrowRecordRepository) *DashboardService {
	return &DashboardService{
		users:      users,
		books:      books,
		categories: categories,
		records:    records,
	}
}

func (s *DashboardService) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = s.books.Count(ctx, types.BookFilter{})
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalBorrowed, err = s.records.CountActive(ctx, 0)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalCategories, err = s.categories.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminStats{}, err
	}
	return stats, nil
}

func (s *DashboardService) LibrarianStats(ctx context.Context, librarianID int) (LibrarianStats, error) {
	var stats LibrarianStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = s.books.Count(ctx, types.BookFilter{UploaderID: librarianID})
		return err
	})
	g.Go(func() (err error) {
		stats.TotalBorrowed, err = s.records.CountActive(ctx, librarianID)
		return err
	})
	if err := g.Wait(); err != nil {
		return LibrarianStats{}, err
	}
	return stats, nil
}
