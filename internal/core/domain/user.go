package domain

import (
	"errors"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin            Role = "Admin"
	RoleBaseCommander    Role = "BaseCommander"
	RoleLogisticsOfficer Role = "LogisticsOfficer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingBase        = errors.New("assigned base is required for this role")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer:
		return true
	}
	return false
}

// User models an authenticated principal.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	FullName     string    `json:"fullName,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	AssignedBase string    `json:"assignedBase,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanAccessBase reports whether the user may see or act on records that
// belong to baseID. Admins span every base; everyone else is pinned to
// their assigned base.
func (u *User) CanAccessBase(baseID string) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return u.AssignedBase != "" && u.AssignedBase == baseID
}

// BaseScope returns the base filter to apply for this user's queries.
// An empty result means "no restriction".
func (u *User) BaseScope() string {
	if u == nil || u.Role == RoleAdmin {
		return ""
	}
	return u.AssignedBase
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
