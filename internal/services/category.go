package services

import (
	"context"
	"errors"
	"strings"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	GetByID(ctx context.Context, id int) (types.Category, error)
	GetByName(ctx context.Context, name string) (types.Category, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
	Upsert(ctx context.Context, name string) (types.Category, error)
	Delete(ctx context.Context, id int) error
	CountBooks(ctx context.Context, id int) (int, error)
	Count(ctx context.Context) (int, error)
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, invalid("category name is required")
	}
	category, err := s.repo.Create(ctx, types.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Category{}, conflict("category already exists")
		}
		return types.Category{}, err
	}
	return category, nil
}

// Delete removes a category that no book references.
func (s *CategoryService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("category not found")
		}
		return err
	}
	inUse, err := s.repo.CountBooks(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return conflict("cannot delete category with existing books")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return notFound("category not found")
		case errors.Is(err, store.ErrInUse):
			return conflict("cannot delete category with existing books")
		}
		return err
	}
	return nil
}

// Upsert returns the named category, creating it when absent. Only actors
// holding CapCategoryUpsert may create categories implicitly.
func (s *CategoryService) Upsert(ctx context.Context, actor types.User, name string) (types.Category, error) {
	if err := Allows(actor, CapCategoryUpsert); err != nil {
		return types.Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, invalid("category is required")
	}
	return s.repo.Upsert(ctx, name)
}

// Resolve finds a category by name ignoring case. Admins get a missing
// category created; everyone else gets a validation error.
func (s *CategoryService) Resolve(ctx context.Context, actor types.User, name string) (types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, invalid("category is required")
	}
	category, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.Category{}, err
	}
	if Allows(actor, CapCategoryUpsert) != nil {
		return types.Category{}, invalid("category does not exist")
	}
	return s.Upsert(ctx, actor, name)
}
