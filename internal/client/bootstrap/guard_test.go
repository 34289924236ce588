package bootstrap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/client/authapi"
	"github.com/mrms/resource-management/internal/client/routes"
	"github.com/mrms/resource-management/internal/client/session"
	"github.com/mrms/resource-management/internal/client/tokenstore"
	"github.com/mrms/resource-management/internal/core/domain"
)

type stubFetcher struct {
	calls atomic.Int32
	user  *domain.User
	err   error
}

func (s *stubFetcher) GetCurrentUser(ctx context.Context) (*domain.User, error) {
	s.calls.Add(1)
	return s.user, s.err
}

type brokenTokens struct{ tokenstore.Memory }

func (b *brokenTokens) Load() (string, error) { return "", errors.New("permission denied") }

type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func newGuard(tokens tokenstore.Store, users UserFetcher, opts ...Option) (*Guard, *session.Store, *navRecorder) {
	store := session.NewStore()
	nav := &navRecorder{}
	return NewGuard(store, tokens, users, nav, zerolog.Nop(), opts...), store, nav
}

func adminUser() *domain.User {
	return &domain.User{ID: "u1", Username: "admin", Role: domain.RoleAdmin, Active: true}
}

func TestInitialize_NoToken(t *testing.T) {
	fetcher := &stubFetcher{user: adminUser()}
	g, store, nav := newGuard(tokenstore.NewMemory(""), fetcher)

	if got := g.Resolve(routes.Dashboard).String(); got != "loading" {
		t.Fatalf("expected loading before init, got %s", got)
	}

	g.Initialize(context.Background())

	s := store.Snapshot()
	if s.User != nil || s.IsAuthenticated || !s.IsInitialized {
		t.Fatalf("unexpected session: %+v", s)
	}
	if fetcher.calls.Load() != 0 {
		t.Fatalf("no network call expected without a token")
	}
	if got := g.Visit(routes.Dashboard).String(); got != "redirect:/login" {
		t.Fatalf("expected redirect to login, got %s", got)
	}
	if len(nav.routes) != 1 || nav.routes[0] != routes.Login {
		t.Fatalf("expected navigation to login, got %v", nav.routes)
	}
}

func TestInitialize_ValidToken(t *testing.T) {
	fetcher := &stubFetcher{user: adminUser()}
	g, store, _ := newGuard(tokenstore.NewMemory("tok"), fetcher)

	g.Initialize(context.Background())

	s := store.Snapshot()
	if !s.IsAuthenticated || s.User == nil || s.User.Role != domain.RoleAdmin || !s.IsInitialized {
		t.Fatalf("unexpected session: %+v", s)
	}
	if got := g.Visit(routes.Login).String(); got != "redirect:/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %s", got)
	}
	if got := g.Visit("/purchases/PO-1"); got.Kind != routes.Allow {
		t.Fatalf("expected allow, got %s", got)
	}
}

func TestInitialize_RejectedTokenIsCleared(t *testing.T) {
	tokens := tokenstore.NewMemory("expired")
	fetcher := &stubFetcher{err: authapi.ErrUnauthorized}
	g, store, _ := newGuard(tokens, fetcher)

	g.Initialize(context.Background())

	if s := store.Snapshot(); s.IsAuthenticated || s.User != nil || !s.IsInitialized {
		t.Fatalf("unexpected session: %+v", s)
	}
	if tok, _ := tokens.Load(); tok != "" {
		t.Fatalf("expected token cleared, got %q", tok)
	}

	// Next start takes the no-token path.
	reload := &stubFetcher{user: adminUser()}
	g2, store2, _ := newGuard(tokens, reload)
	g2.Initialize(context.Background())
	if reload.calls.Load() != 0 || store2.Snapshot().IsAuthenticated {
		t.Fatalf("reload should find no token")
	}
}

func TestInitialize_RunsOnce(t *testing.T) {
	fetcher := &stubFetcher{user: adminUser()}
	g, _, _ := newGuard(tokenstore.NewMemory("tok"), fetcher)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Initialize(context.Background())
		}()
	}
	wg.Wait()
	g.Initialize(context.Background())

	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected 1 validation call, got %d", got)
	}
	if g.Phase() != Initialized {
		t.Fatalf("expected initialized phase, got %s", g.Phase())
	}
}

func TestInitialize_TokenReadErrorMeansSignedOut(t *testing.T) {
	fetcher := &stubFetcher{user: adminUser()}
	g, store, _ := newGuard(&brokenTokens{}, fetcher)

	g.Initialize(context.Background())

	if fetcher.calls.Load() != 0 {
		t.Fatalf("no network call expected when the token cannot be read")
	}
	if s := store.Snapshot(); s.IsAuthenticated || !s.IsInitialized {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestInitialize_NetworkErrorClearsByDefault(t *testing.T) {
	tokens := tokenstore.NewMemory("tok")
	fetcher := &stubFetcher{err: &authapi.NetworkError{Op: "current user", Err: errors.New("connection refused")}}
	g, store, _ := newGuard(tokens, fetcher)

	g.Initialize(context.Background())

	if tok, _ := tokens.Load(); tok != "" {
		t.Fatalf("expected token cleared, got %q", tok)
	}
	if store.Snapshot().IsAuthenticated {
		t.Fatalf("expected signed out")
	}
}

func TestInitialize_PreserveOnNetworkError(t *testing.T) {
	tokens := tokenstore.NewMemory("tok")
	fetcher := &stubFetcher{err: &authapi.NetworkError{Op: "current user", Err: errors.New("connection refused")}}
	g, store, _ := newGuard(tokens, fetcher, WithPreserveOnNetworkError(true))

	g.Initialize(context.Background())

	if tok, _ := tokens.Load(); tok != "tok" {
		t.Fatalf("expected token kept, got %q", tok)
	}
	if s := store.Snapshot(); s.IsAuthenticated || !s.IsInitialized {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestInitialize_PreserveStillClearsOnUnauthorized(t *testing.T) {
	tokens := tokenstore.NewMemory("tok")
	g, _, _ := newGuard(tokens, &stubFetcher{err: authapi.ErrUnauthorized}, WithPreserveOnNetworkError(true))

	g.Initialize(context.Background())

	if tok, _ := tokens.Load(); tok != "" {
		t.Fatalf("401 must clear the token, got %q", tok)
	}
}

type panicFetcher struct{}

func (panicFetcher) GetCurrentUser(ctx context.Context) (*domain.User, error) {
	panic("boom")
}

func TestInitialize_MarksInitializedOnPanic(t *testing.T) {
	g, store, _ := newGuard(tokenstore.NewMemory("tok"), panicFetcher{})

	func() {
		defer func() { _ = recover() }()
		g.Initialize(context.Background())
	}()

	if !store.Snapshot().IsInitialized {
		t.Fatalf("expected initialized after panic")
	}
	if g.Phase() != Initialized {
		t.Fatalf("expected initialized phase, got %s", g.Phase())
	}
}

func TestVisit_AllowDoesNotNavigate(t *testing.T) {
	g, _, nav := newGuard(tokenstore.NewMemory(""), &stubFetcher{})
	g.Initialize(context.Background())

	if d := g.Visit(routes.Register); d.Kind != routes.Allow {
		t.Fatalf("expected allow, got %s", d)
	}
	if len(nav.routes) != 0 {
		t.Fatalf("unexpected navigation: %v", nav.routes)
	}
}

func TestWithPublicRoutes(t *testing.T) {
	g, _, _ := newGuard(tokenstore.NewMemory(""), &stubFetcher{}, WithPublicRoutes(routes.NewSet(routes.Login, "/status")))
	g.Initialize(context.Background())

	if d := g.Resolve("/status"); d.Kind != routes.Allow {
		t.Fatalf("expected allow, got %s", d)
	}
}
