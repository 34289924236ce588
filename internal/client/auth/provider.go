// Package auth holds the client-side login, logout and registration flows.
// It keeps the session store and the durable token in step with the answers
// of the auth service.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mrms/resource-management/internal/client/authapi"
	"github.com/mrms/resource-management/internal/client/routes"
	"github.com/mrms/resource-management/internal/client/session"
	"github.com/mrms/resource-management/internal/client/tokenstore"
	"github.com/mrms/resource-management/internal/core/domain"
)

// loginTimeout bounds a shared login attempt, which no longer follows any
// single caller's cancellation.
const loginTimeout = 30 * time.Second

// Service is the remote auth API.
type Service interface {
	Login(ctx context.Context, username, password string) (*authapi.LoginResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, in authapi.RegisterInput) error
	GetCurrentUser(ctx context.Context) (*domain.User, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator. It satisfies the bootstrap
// navigator too.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Provider performs the auth operations and owns their side effects.
type Provider struct {
	store   *session.Store
	tokens  tokenstore.Store
	service Service
	nav     Navigator
	log     zerolog.Logger

	login singleflight.Group
}

func NewProvider(store *session.Store, tokens tokenstore.Store, service Service, nav Navigator, log zerolog.Logger) *Provider {
	return &Provider{
		store:   store,
		tokens:  tokens,
		service: service,
		nav:     nav,
		log:     log,
	}
}

// Login authenticates and, on success, persists the token and opens the
// session. Overlapping calls share the first in-flight attempt and its result.
// The shared attempt runs detached from the first caller's cancellation; a
// caller whose ctx ends stops waiting without failing the others.
func (p *Provider) Login(ctx context.Context, username, password string) (*domain.User, error) {
	ch := p.login.DoChan("login", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loginTimeout)
		defer cancel()
		return p.doLogin(lctx, username, password)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("login: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			p.log.Debug().Str("username", username).Msg("joined in-flight login")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.User), nil
	}
}

func (p *Provider) doLogin(ctx context.Context, username, password string) (*domain.User, error) {
	res, err := p.service.Login(ctx, username, password)
	if err != nil {
		p.reset()
		p.log.Info().Err(err).Str("username", username).Msg("login failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := p.tokens.Save(res.Token); err != nil {
		p.reset()
		return nil, fmt.Errorf("login: store token: %w", err)
	}
	p.store.SetSession(res.User)

	p.log.Info().Str("username", res.User.Username).Str("role", string(res.User.Role)).Msg("logged in")
	return res.User, nil
}

// Logout ends the session. The remote call is best-effort: local state is
// always cleared and the user is sent to the login page.
func (p *Provider) Logout(ctx context.Context) {
	defer func() {
		p.reset()
		p.nav.Navigate(routes.Login)
	}()

	if err := p.service.Logout(ctx); err != nil {
		p.log.Warn().Err(err).Msg("remote logout failed")
	}
}

// Register creates an account and sends the user to the login page. The
// current session is left untouched.
func (p *Provider) Register(ctx context.Context, in authapi.RegisterInput) error {
	if err := p.service.Register(ctx, in); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	p.log.Info().Str("username", in.Username).Msg("account registered")
	p.nav.Navigate(routes.Login)
	return nil
}

// User returns a copy of the signed-in user, or nil.
func (p *Provider) User() *domain.User {
	return p.store.Snapshot().User
}

func (p *Provider) Session() session.Session {
	return p.store.Snapshot()
}

// reset drops the durable token and the in-memory session.
func (p *Provider) reset() {
	if err := p.tokens.Clear(); err != nil {
		p.log.Warn().Err(err).Msg("failed to clear stored token")
	}
	p.store.Clear()
}
