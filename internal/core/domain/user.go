package domain

import (
	"fmt"
	"strings"
	"time"
)

type UserID string

// Role is the closed set of marketplace roles. Any other value is rejected
// by ParseRole, and switches over Role fail closed on the default branch.
type Role string

const (
	RoleEnterprise Role = "enterprise"
	RoleCreator    Role = "creator"
	RoleAdmin      Role = "admin"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleEnterprise, RoleCreator, RoleAdmin}

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleEnterprise:
		return RoleEnterprise, nil
	case RoleCreator:
		return RoleCreator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleEnterprise, RoleCreator, RoleAdmin:
		return true
	default:
		return false
	}
}

// DashboardPath is the root of the role's own dashboard tree.
func (r Role) DashboardPath() string {
	return "/dashboard/" + string(r)
}

type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller as seen by the access gate.
// A nil *Identity is the unauthenticated caller.
type Identity struct {
	UserID UserID `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

type UserQuery struct {
	Role     Role
	Search   string
	Page     int
	PageSize int
}
