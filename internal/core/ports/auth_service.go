package ports

import (
	"context"
	"time"

	"github.com/mrms/resource-management/internal/core/domain"
)

// RegisterInput carries the user data submitted by the registration form.
type RegisterInput struct {
	Username     string
	Password     string
	Email        string
	FullName     string
	Role         domain.Role
	AssignedBase string
}

// TokenClaims is the identity extracted from a verified bearer token.
type TokenClaims struct {
	UserID       string
	Username     string
	Role         domain.Role
	AssignedBase string
	TokenID      string
	ExpiresAt    time.Time
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, claims TokenClaims) error
}
