// Package bootstrap restores the session from the durable token when the
// client starts and gates route visits until that has finished.
package bootstrap

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/client/authapi"
	"github.com/mrms/resource-management/internal/client/routes"
	"github.com/mrms/resource-management/internal/client/session"
	"github.com/mrms/resource-management/internal/client/tokenstore"
	"github.com/mrms/resource-management/internal/core/domain"
)

// Phase is the lifecycle stage of a Guard.
type Phase int32

const (
	Uninitialized Phase = iota
	Validating
	Initialized
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Validating:
		return "validating"
	case Initialized:
		return "initialized"
	}
	return "unknown"
}

// UserFetcher validates the stored token against the server.
type UserFetcher interface {
	GetCurrentUser(ctx context.Context) (*domain.User, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// Guard runs the one-time session restore.
type Guard struct {
	store  *session.Store
	tokens tokenstore.Store
	users  UserFetcher
	nav    Navigator
	log    zerolog.Logger

	public           routes.Set
	preserveOnNetErr bool

	once  sync.Once
	phase atomic.Int32
}

type Option func(*Guard)

// WithPreserveOnNetworkError keeps the durable token when validation fails
// for a temporary network reason, so the next start tries again. The session
// still starts signed out.
func WithPreserveOnNetworkError(v bool) Option {
	return func(g *Guard) { g.preserveOnNetErr = v }
}

// WithPublicRoutes replaces the default public route set.
func WithPublicRoutes(s routes.Set) Option {
	return func(g *Guard) { g.public = s }
}

func NewGuard(store *session.Store, tokens tokenstore.Store, users UserFetcher, nav Navigator, log zerolog.Logger, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		tokens: tokens,
		users:  users,
		nav:    nav,
		log:    log,
		public: routes.Public,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Phase() Phase {
	return Phase(g.phase.Load())
}

// Initialize restores the session once per Guard. Concurrent callers wait
// for the first run; later calls return immediately.
func (g *Guard) Initialize(ctx context.Context) {
	g.once.Do(func() { g.initialize(ctx) })
}

func (g *Guard) initialize(ctx context.Context) {
	g.phase.Store(int32(Validating))
	defer func() {
		g.store.SetIsInitialized(true)
		g.phase.Store(int32(Initialized))
	}()

	token, err := g.tokens.Load()
	if err != nil {
		g.log.Warn().Err(err).Msg("could not read stored token, starting signed out")
		token = ""
	}
	if token == "" {
		g.store.Clear()
		g.log.Debug().Msg("no stored token")
		return
	}

	user, err := g.users.GetCurrentUser(ctx)
	if err != nil {
		g.store.Clear()
		if g.preserveOnNetErr && authapi.IsTemporary(err) {
			g.log.Warn().Err(err).Msg("session check failed, keeping token for next start")
			return
		}
		if clearErr := g.tokens.Clear(); clearErr != nil {
			g.log.Warn().Err(clearErr).Msg("failed to clear stored token")
		}
		g.log.Info().Err(err).Msg("stored token rejected, signed out")
		return
	}

	g.store.SetSession(user)
	g.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("session restored")
}

// Resolve applies the redirect policy to route with the current session.
func (g *Guard) Resolve(route string) routes.Decision {
	s := g.store.Snapshot()
	return routes.Decide(routes.State{
		IsInitialized:   s.IsInitialized,
		IsAuthenticated: s.IsAuthenticated,
		Route:           route,
	}, g.public)
}

// Visit resolves route and performs the redirect, if any.
func (g *Guard) Visit(route string) routes.Decision {
	d := g.Resolve(route)
	if d.Kind == routes.Redirect {
		g.nav.Navigate(d.Target)
	}
	return d
}
