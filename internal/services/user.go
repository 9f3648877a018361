package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo     UserRepository
	objects  ObjectStore
	hashCost int
}

func NewUserService(repo UserRepository, objects ObjectStore) *UserService {
	return &UserService{repo: repo, objects: objects, hashCost: bcrypt.DefaultCost}
}

// RegisterInput carries self-registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates an account. Librarians start pending approval.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	name := strings.TrimSpace(in.Name)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}
	if name == "" {
		return types.User{}, invalid("name is required")
	}
	if len(in.Password) < minPasswordLength {
		return types.User{}, invalid("password must be at least %d characters", minPasswordLength)
	}

	role := types.RoleBorrower
	if strings.TrimSpace(in.Role) != "" {
		parsed, ok := types.ParseRole(in.Role)
		if !ok {
			return types.User{}, invalid("invalid role")
		}
		role = parsed
	}
	if role == types.RoleAdmin {
		return types.User{}, invalid("cannot register as admin")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		Role:         role,
		IsApproved:   role != types.RoleLibrarian,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, conflict("user already exists")
		}
		return types.User{}, err
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials. Banned accounts are refused after the
// password check so that bans are not disclosed for unknown passwords.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return types.User{}, invalid("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	if user.IsBanned {
		return types.User{}, ErrBanned
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, notFound("user not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile changes name and email. Empty values keep the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id int, name, email string) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if strings.TrimSpace(email) != "" {
		normalized, err := normalizeEmail(email)
		if err != nil {
			return types.User{}, err
		}
		user.Email = normalized
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, conflict("email already in use")
		}
		return types.User{}, err
	}
	return updated, nil
}

// UpdatePhoto stores a new profile photo and drops the previous one.
func (s *UserService) UpdatePhoto(ctx context.Context, id int, photo Upload) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if err := photo.requireImage("profilePhoto", maxImageBytes); err != nil {
		return types.User{}, err
	}

	key := uploadKey("profile", photo.imageExtension())
	if err := s.objects.Put(ctx, key, photo.reader(), photo.size(), photo.ContentType); err != nil {
		return types.User{}, fmt.Errorf("store profile photo: %w", err)
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = UploadURL(key)
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		removeUpload(ctx, s.objects, user.ProfilePhoto)
		return types.User{}, err
	}
	removeUpload(ctx, s.objects, previous)
	return updated, nil
}

// List returns every account, newest first.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// ToggleBan flips the ban flag. Admin accounts cannot be banned.
func (s *UserService) ToggleBan(ctx context.Context, id int) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if user.Role == types.RoleAdmin {
		return types.User{}, forbidden("cannot ban an admin")
	}
	user.IsBanned = !user.IsBanned
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	slog.InfoContext(ctx, "user ban toggled", "user_id", updated.ID, "banned", updated.IsBanned)
	return updated, nil
}

// ToggleApproval flips the approval flag of a librarian.
func (s *UserService) ToggleApproval(ctx context.Context, id int) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if user.Role != types.RoleLibrarian {
		return types.User{}, invalid("only librarian accounts require approval")
	}
	user.IsApproved = !user.IsApproved
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	slog.InfoContext(ctx, "librarian approval toggled", "user_id", updated.ID, "approved", updated.IsApproved)
	return updated, nil
}

// EnsureAdmin creates the admin account or resets an existing account with
// the same email to an approved, unbanned admin with the given password.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (types.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return types.User{}, err
	}
	if len(password) < minPasswordLength {
		return types.User{}, invalid("password must be at least %d characters", minPasswordLength)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "Administrator"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.repo.Create(ctx, types.User{
			Name:         name,
			Email:        email,
			Role:         types.RoleAdmin,
			IsApproved:   true,
			PasswordHash: string(hashed),
		})
	case err != nil:
		return types.User{}, err
	}

	user.Role = types.RoleAdmin
	user.IsApproved = true
	user.IsBanned = false
	user.PasswordHash = string(hashed)
	return s.repo.Update(ctx, user)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email address")
	}
	return email, nil
}
