package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrms/resource-management/internal/api/metrics"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

// TokenRevoker abstracts the revocation list (Redis).
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService implements registration, login, identity lookup and logout.
type AuthService struct {
	repo      ports.AuthRepository
	revoker   TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(repo ports.AuthRepository, revoker TokenRevoker, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if in.Role != domain.RoleAdmin && strings.TrimSpace(in.AssignedBase) == "" {
		return nil, domain.ErrMissingBase
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Role:         in.Role,
		AssignedBase: in.AssignedBase,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		metrics.AuthLoginsTotal.WithLabelValues("invalid").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Unknown usernames look exactly like wrong passwords to the caller.
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthLoginsTotal.WithLabelValues("invalid").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.AuthLoginsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthLoginsTotal.WithLabelValues("invalid").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		metrics.AuthLoginsTotal.WithLabelValues("inactive").Inc()
		return "", nil, domain.ErrInactiveUser
	}

	token, err := s.generateToken(user)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", user.Username).Msg("user logged in")
	return token, user, nil
}

// CurrentUser resolves the principal behind a verified token. Deleted or
// deactivated accounts surface as ErrUnauthorized so the client drops its
// session.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims ports.TokenClaims) error {
	if claims.TokenID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	metrics.AuthLogoutsTotal.Inc()
	s.log.Info().Str("username", claims.Username).Msg("user logged out")
	return nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":           user.ID,
		"username":      user.Username,
		"role":          string(user.Role),
		"assigned_base": user.AssignedBase,
		"jti":           uuid.NewString(),
		"exp":           s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
