package enums

import (
	"fmt"
	"strings"
)

// Role identifies which identity a session acts as.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// validRoles is ordered from most to least privileged.
var validRoles = []Role{
	RoleAdmin,
	RoleCustomer,
	RoleGuest,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Rank orders roles by privilege; guest is 0.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleCustomer:
		return 1
	default:
		return 0
	}
}

// Authenticated reports whether the role is backed by a token.
func (r Role) Authenticated() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// RolesByPrivilege returns the roles from most to least privileged.
func RolesByPrivilege() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
