package types

import "strings"

// Role is the authorization level of a user account.
type Role string

// Supported roles.
const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleBorrower  Role = "borrower"
)

// ParseRole converts a raw role name into a Role.
// It reports false for unknown names.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleLibrarian:
		return RoleLibrarian, true
	case RoleBorrower:
		return RoleBorrower, true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}
