// Package session holds the client's view of "who is signed in": the State
// snapshot consumed by the rest of the application and the Store that caches
// the backend's answer.
package session

import "github.com/sundayschool-dev/sundayschool/internal/models"

// Phase names where the session is in its lifecycle
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	PhaseAnonymous     Phase = "anonymous"
)

// State is an immutable snapshot of the session.
// IsAuthenticated is always equal to User != nil.
type State struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool
}

// Anonymous returns an initialized, signed-out state
func Anonymous() State {
	return State{IsInitialized: true}
}

// Authenticated returns an initialized state for user
func Authenticated(user *models.User) State {
	if user == nil {
		return Anonymous()
	}
	return State{User: user, IsAuthenticated: true, IsInitialized: true}
}

// Role returns the signed-in user's role, or "" when anonymous
func (s State) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Phase derives the lifecycle phase from the snapshot
func (s State) Phase() Phase {
	switch {
	case s.IsLoading && !s.IsInitialized:
		return PhaseUninitialized
	case s.IsLoading:
		return PhaseLoading
	case s.IsAuthenticated:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}
