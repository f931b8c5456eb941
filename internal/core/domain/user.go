package domain

import (
	"fmt"
	"time"
)

// Role gates which endpoints a user may call. Stored as a small integer.
type Role uint8

const (
	RoleBuyer Role = 0
	RoleOwner Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleOwner:
		return "owner"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// ParseRole converts the textual role name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "buyer":
		return RoleBuyer, nil
	case "owner":
		return RoleOwner, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleOwner
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// User models an authenticated actor in the system.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsOwner() bool { return u != nil && u.Role == RoleOwner }
func (u *User) IsBuyer() bool { return u != nil && u.Role == RoleBuyer }
