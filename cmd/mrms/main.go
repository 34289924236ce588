// Command mrms is the MRMS command-line client. It keeps the signed-in
// session in a token file and applies the same route policy as the web app.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mrms/resource-management/internal/client/auth"
	"github.com/mrms/resource-management/internal/client/authapi"
	"github.com/mrms/resource-management/internal/client/bootstrap"
	"github.com/mrms/resource-management/internal/client/config"
	"github.com/mrms/resource-management/internal/client/routes"
	"github.com/mrms/resource-management/internal/client/session"
	"github.com/mrms/resource-management/internal/client/tokenstore"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/pkg/logger"
)

const usage = `usage: mrms <command> [flags]

commands:
  login     -u USER -p PASSWORD   sign in and store the token
  logout                          revoke the token and sign out
  register  -u USER -p PASSWORD -role ROLE [-base BASE] [-email E] [-name N]
  whoami                          print the signed-in user
  visit     ROUTE                 show where a route would land
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "mrms",
		Output:  os.Stderr,
	})

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "mrms:", err)
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

// app wires the client core for one invocation.
type app struct {
	out      io.Writer
	store    *session.Store
	guard    *bootstrap.Guard
	provider *auth.Provider
}

func newApp(cfg *config.Config, out io.Writer) *app {
	tokens := tokenstore.NewFile(cfg.TokenPath)
	client := authapi.New(cfg.APIURL, cfg.HTTPTimeout, tokens, logger.Named("authapi"))
	store := session.NewStore()
	nav := auth.NavigatorFunc(func(route string) {
		fmt.Fprintf(out, "-> %s\n", route)
	})

	sessionLog := logger.Named("session")
	store.Subscribe(func(s session.Session) {
		sessionLog.Debug().
			Bool("authenticated", s.IsAuthenticated).
			Bool("initialized", s.IsInitialized).
			Msg("session changed")
	})

	return &app{
		out:   out,
		store: store,
		guard: bootstrap.NewGuard(store, tokens, client, nav, logger.Named("bootstrap"),
			bootstrap.WithPreserveOnNetworkError(cfg.PreserveSessionOnNetworkError)),
		provider: auth.NewProvider(store, tokens, client, nav, logger.Named("auth")),
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	a := newApp(cfg, out)
	a.guard.Initialize(ctx)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "whoami":
		return a.whoami(rest)
	case "visit":
		return a.visit(rest)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return usageError(fmt.Sprintf("unknown command %q", cmd))
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if *username == "" || *password == "" {
		return usageError("login needs -u and -p")
	}

	user, err := a.provider.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s\n", describe(user))
	a.guard.Visit(routes.Login)
	return nil
}

func (a *app) logout(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return usageError("logout takes no arguments")
	}
	a.provider.Logout(ctx)
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var in authapi.RegisterInput
	var role string
	fs.StringVar(&in.Username, "u", "", "username")
	fs.StringVar(&in.Password, "p", "", "password")
	fs.StringVar(&role, "role", "", "Admin, BaseCommander or LogisticsOfficer")
	fs.StringVar(&in.AssignedBase, "base", "", "assigned base")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.FullName, "name", "", "full name")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	in.Role = domain.Role(role)
	if in.Username == "" || in.Password == "" || !in.Role.Valid() {
		return usageError("register needs -u, -p and a valid -role")
	}

	if err := a.provider.Register(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s, sign in with: mrms login -u %s\n", in.Username, in.Username)
	return nil
}

func (a *app) whoami(args []string) error {
	if len(args) > 0 {
		return usageError("whoami takes no arguments")
	}
	user := a.provider.User()
	if user == nil {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintln(a.out, describe(user))
	return nil
}

func (a *app) visit(args []string) error {
	if len(args) != 1 {
		return usageError("visit needs exactly one route")
	}
	if !routes.IsKnown(args[0]) {
		fmt.Fprintf(a.out, "note: %s is not a known page, treated as protected\n", routes.Normalize(args[0]))
	}
	d := a.guard.Visit(args[0])
	fmt.Fprintln(a.out, d)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func describe(u *domain.User) string {
	s := fmt.Sprintf("%s (%s)", u.Username, u.Role)
	if u.AssignedBase != "" {
		s += " @ " + u.AssignedBase
	}
	return s
}
