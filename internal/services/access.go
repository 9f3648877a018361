package services

import (
	"context"
	"errors"
	"slices"

	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/types"
)

// Capability names a protected group of operations.
type Capability string

const (
	CapProfile            Capability = "profile"
	CapBookManage         Capability = "book.manage"
	CapLoanBorrow         Capability = "loan.borrow"
	CapLibrarianDashboard Capability = "librarian.dashboard"
	CapAdmin              Capability = "admin"
	CapCategoryUpsert     Capability = "category.upsert"
)

type capabilityRule struct {
	roles         []types.Role
	approvalGated bool
}

var capabilityTable = map[Capability]capabilityRule{
	CapProfile:            {roles: []types.Role{types.RoleAdmin, types.RoleLibrarian, types.RoleBorrower}},
	CapBookManage:         {roles: []types.Role{types.RoleAdmin, types.RoleLibrarian}, approvalGated: true},
	CapLoanBorrow:         {roles: []types.Role{types.RoleBorrower}, approvalGated: true},
	CapLibrarianDashboard: {roles: []types.Role{types.RoleLibrarian}, approvalGated: true},
	CapAdmin:              {roles: []types.Role{types.RoleAdmin}, approvalGated: true},
	CapCategoryUpsert:     {roles: []types.Role{types.RoleAdmin}, approvalGated: true},
}

// Allows reports whether user may exercise capability, ignoring ban state.
func Allows(user types.User, capability Capability) error {
	rule, ok := capabilityTable[capability]
	if !ok || !slices.Contains(rule.roles, user.Role) {
		return ErrInsufficientRole
	}
	if rule.approvalGated && user.Role == types.RoleLibrarian && !user.IsApproved {
		return ErrPendingApproval
	}
	return nil
}

// UserLookup loads users by ID.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// Authorizer resolves an authenticated user and applies the capability table.
type Authorizer struct {
	users UserLookup
}

func NewAuthorizer(users UserLookup) *Authorizer {
	return &Authorizer{users: users}
}

// Authorize reloads the user on every call so bans and approval changes
// apply to tokens issued before them.
func (a *Authorizer) Authorize(ctx context.Context, userID int, capability Capability) (types.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthenticated
		}
		return types.User{}, err
	}
	if user.IsBanned {
		return types.User{}, ErrBanned
	}
	if err := Allows(user, capability); err != nil {
		return types.User{}, err
	}
	return user, nil
}
