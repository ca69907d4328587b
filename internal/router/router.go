// Package router decides which screen the user may see. Every navigation goes
// through one guard that only looks at whether a session exists.
package router

import (
	"fmt"
	"sync"
)

// Name identifies a screen
type Name string

const (
	Login    Name = "login"
	Home     Name = "home"
	History  Name = "history"
	Profile  Name = "profile"
	Settings Name = "settings"
)

// Route describes a screen
type Route struct {
	Name  Name
	Title string
	// Public routes are reachable without a session. Routes are private unless
	// marked otherwise.
	Public bool
}

// Routes is the screen table in menu order
var Routes = []Route{
	{Name: Login, Title: "Login", Public: true},
	{Name: Home, Title: "Analyze"},
	{Name: History, Title: "History"},
	{Name: Profile, Title: "Profile"},
	{Name: Settings, Title: "Settings"},
}

// Lookup returns the route called name
func Lookup(name Name) (Route, bool) {
	for _, r := range Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Guard returns where a navigation to `to` actually lands
func Guard(to Route, loggedIn bool) Name {
	switch {
	case !to.Public && !loggedIn:
		return Login
	case to.Name == Login && loggedIn:
		return Home
	default:
		return to.Name
	}
}

// SessionChecker reports whether a session exists
type SessionChecker interface {
	IsLoggedIn() bool
}

// Router tracks the current screen
type Router struct {
	session SessionChecker

	mu       sync.RWMutex
	current  Name
	listener func(from, to Name)
}

// New creates a router positioned on no screen; call Navigate to enter one
func New(session SessionChecker) *Router {
	return &Router{session: session}
}

// Current returns the screen currently shown
func (r *Router) Current() Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnChange registers a callback run after every screen change
func (r *Router) OnChange(fn func(from, to Name)) {
	r.mu.Lock()
	r.listener = fn
	r.mu.Unlock()
}

// Navigate moves to name, subject to the guard, and returns the screen that
// was actually entered
func (r *Router) Navigate(name Name) (Name, error) {
	to, ok := Lookup(name)
	if !ok {
		return r.Current(), fmt.Errorf("unknown route %q", name)
	}
	return r.enter(Guard(to, r.session.IsLoggedIn())), nil
}

// ForceLogin jumps to the login screen unconditionally. The API client calls
// it after the backend rejects the session.
func (r *Router) ForceLogin() {
	r.enter(Login)
}

func (r *Router) enter(dest Name) Name {
	r.mu.Lock()
	from := r.current
	r.current = dest
	fn := r.listener
	r.mu.Unlock()

	if fn != nil && from != dest {
		fn(from, dest)
	}
	return dest
}
