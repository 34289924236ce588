// Package routes classifies client routes and decides where a visit lands.
package routes

import "strings"

const (
	Login          = "/login"
	Register       = "/register"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	DevLogin       = "/dev-login"

	Root         = "/"
	Dashboard    = "/dashboard"
	Assets       = "/assets"
	Soldiers     = "/soldiers"
	Units        = "/units"
	Bases        = "/bases"
	Equipment    = "/equipment"
	Missions     = "/missions"
	Expenditures = "/expenditures"
	Purchases    = "/purchases"
	Transfers    = "/transfers"
	Profile      = "/profile"
)

// Set is a collection of route roots.
type Set map[string]struct{}

// NewSet builds a Set from route roots such as "/login".
func NewSet(routes ...string) Set {
	s := make(Set, len(routes))
	for _, r := range routes {
		s[Normalize(r)] = struct{}{}
	}
	return s
}

// Contains reports whether route, or the root it belongs to, is in the set.
func (s Set) Contains(route string) bool {
	_, ok := s[Normalize(route)]
	return ok
}

// Public lists the routes reachable without signing in.
var Public = NewSet(Login, Register, ForgotPassword, ResetPassword, DevLogin)

// Protected lists the known routes that require a session. Anything not in
// Public is treated as protected, known or not.
var Protected = NewSet(Root, Dashboard, Assets, Soldiers, Units, Bases, Equipment,
	Missions, Expenditures, Purchases, Transfers, Profile)

// Normalize reduces a route to its first path segment, dropping any query or
// fragment: "/purchases/PO-1?tab=history" becomes "/purchases".
func Normalize(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.Trim(route, "/")
	if route == "" {
		return Root
	}
	if i := strings.IndexByte(route, '/'); i >= 0 {
		route = route[:i]
	}
	return "/" + route
}

// IsKnown reports whether route belongs to one of the application's pages,
// public or protected.
func IsKnown(route string) bool {
	return Public.Contains(route) || Protected.Contains(route)
}

// IsPublic reports whether route belongs to public.
func IsPublic(route string, public Set) bool {
	return public.Contains(route)
}
