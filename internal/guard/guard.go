// Package guard decides whether a navigation renders or redirects, given the
// current session. Decide is a pure function; Navigator wraps it with a route
// table and re-evaluates on every session change.
package guard

import (
	"path"
	"strings"

	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/session"
)

const (
	LoginPath    = "/login"
	RootPath     = "/"
	NotFoundPath = "/404"
	AdminPrefix  = "/admin"
)

// Outcome is what the caller should do with a navigation
type Outcome int

const (
	Loading Outcome = iota
	Render
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of guarding one navigation. Target is set for
// redirects; From carries the originally requested path on login redirects.
type Decision struct {
	Outcome Outcome
	Target  string
	From    string
}

func render() Decision {
	return Decision{Outcome: Render}
}

func redirect(target string) Decision {
	return Decision{Outcome: Redirect, Target: target}
}

// Decide evaluates the guard rules in order; the first match wins.
// requiredRole may be empty for routes open to any signed-in user.
func Decide(state session.State, requested string, requiredRole models.Role) Decision {
	p := Clean(requested)

	if state.IsLoading {
		return Decision{Outcome: Loading}
	}

	if !state.IsAuthenticated {
		if p == LoginPath {
			return render()
		}
		return Decision{Outcome: Redirect, Target: LoginPath, From: p}
	}

	role := state.Role()
	if requiredRole != "" && role != requiredRole {
		return redirect(role.LandingPath())
	}

	if p == RootPath {
		return redirect(role.LandingPath())
	}

	if requiredRole == "" {
		inAdmin := InAdminArea(p)
		if role == models.RoleAdmin && !inAdmin {
			return redirect(models.RoleAdmin.LandingPath())
		}
		if role != models.RoleAdmin && inAdmin {
			return redirect(models.RoleUser.LandingPath())
		}
	}

	return render()
}

// InAdminArea reports whether p is /admin or below it. /administrator is not.
func InAdminArea(p string) bool {
	return p == AdminPrefix || strings.HasPrefix(p, AdminPrefix+"/")
}

// Clean normalizes a requested path: leading slash, no trailing slash, no
// query string or fragment.
func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return RootPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
