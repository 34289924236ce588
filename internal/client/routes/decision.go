package routes

// Kind is the outcome of a route visit.
type Kind int

const (
	Loading Kind = iota
	Allow
	Redirect
)

// Decision says what to render for a visit.
type Decision struct {
	Kind Kind
	// Target is set only for Redirect.
	Target string
}

func (d Decision) String() string {
	switch d.Kind {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect:" + d.Target
	}
	return "unknown"
}

// State is the input of Decide.
type State struct {
	IsInitialized   bool
	IsAuthenticated bool
	Route           string
}

// Decide applies the redirect policy. Nothing is decided before the session
// is initialized; signed-out users are sent to the login page from protected
// routes, signed-in users to the dashboard from public ones.
func Decide(s State, public Set) Decision {
	if !s.IsInitialized {
		return Decision{Kind: Loading}
	}

	isPublic := IsPublic(s.Route, public)
	switch {
	case !s.IsAuthenticated && !isPublic:
		return Decision{Kind: Redirect, Target: Login}
	case s.IsAuthenticated && isPublic:
		return Decision{Kind: Redirect, Target: Dashboard}
	}
	return Decision{Kind: Allow}
}
