package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayschool-dev/sundayschool/internal/authctx"
	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/session"
)

func signedIn(role models.Role) session.State {
	return session.Authenticated(&models.User{
		BaseModel: models.BaseModel{ID: "u1"},
		Email:     "member@example.com",
		Role:      role,
	})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		path     string
		required models.Role
		want     Decision
	}{
		{
			name:     "anonymous requesting admin page goes to login",
			state:    session.Anonymous(),
			path:     "/admin/dashboard",
			required: models.RoleAdmin,
			want:     Decision{Outcome: Redirect, Target: "/login", From: "/admin/dashboard"},
		},
		{
			name:  "anonymous on login page renders it",
			state: session.Anonymous(),
			path:  "/login",
			want:  Decision{Outcome: Render},
		},
		{
			name:  "anonymous on root goes to login",
			state: session.Anonymous(),
			path:  "/",
			want:  Decision{Outcome: Redirect, Target: "/login", From: "/"},
		},
		{
			name:  "user entering admin area without a required role is contained",
			state: signedIn(models.RoleUser),
			path:  "/admin/dashboard",
			want:  Decision{Outcome: Redirect, Target: "/dashboard"},
		},
		{
			name:  "admin on root goes to admin dashboard",
			state: signedIn(models.RoleAdmin),
			path:  "/",
			want:  Decision{Outcome: Redirect, Target: "/admin/dashboard"},
		},
		{
			name:  "user on root goes to dashboard",
			state: signedIn(models.RoleUser),
			path:  "/",
			want:  Decision{Outcome: Redirect, Target: "/dashboard"},
		},
		{
			name:     "user on admin-only route goes to own landing page",
			state:    signedIn(models.RoleUser),
			path:     "/admin/users",
			required: models.RoleAdmin,
			want:     Decision{Outcome: Redirect, Target: "/dashboard"},
		},
		{
			name:     "admin on user-only route goes to own landing page",
			state:    signedIn(models.RoleAdmin),
			path:     "/dashboard",
			required: models.RoleUser,
			want:     Decision{Outcome: Redirect, Target: "/admin/dashboard"},
		},
		{
			name:  "admin outside the admin area is contained",
			state: signedIn(models.RoleAdmin),
			path:  "/profile",
			want:  Decision{Outcome: Redirect, Target: "/admin/dashboard"},
		},
		{
			name:  "admin prefix is segment aware",
			state: signedIn(models.RoleUser),
			path:  "/administrator",
			want:  Decision{Outcome: Render},
		},
		{
			name:     "admin on admin page renders",
			state:    signedIn(models.RoleAdmin),
			path:     "/admin/users",
			required: models.RoleAdmin,
			want:     Decision{Outcome: Render},
		},
		{
			name:  "user on member page renders",
			state: signedIn(models.RoleUser),
			path:  "/whats-new",
			want:  Decision{Outcome: Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.path, tt.required))
		})
	}
}

func TestDecide_LoadingTakesPrecedence(t *testing.T) {
	states := []session.State{
		{IsLoading: true},
		{IsLoading: true, IsInitialized: true},
		func() session.State { s := signedIn(models.RoleAdmin); s.IsLoading = true; return s }(),
		func() session.State { s := signedIn(models.RoleUser); s.IsLoading = true; return s }(),
	}
	paths := []string{"/", "/login", "/admin", "/admin/dashboard", "/dashboard", "/nowhere", ""}
	roles := []models.Role{"", models.RoleAdmin, models.RoleUser}

	for _, s := range states {
		for _, p := range paths {
			for _, r := range roles {
				d := Decide(s, p, r)
				assert.Equal(t, Loading, d.Outcome, "state=%+v path=%q role=%q", s, p, r)
				assert.Empty(t, d.Target)
			}
		}
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "/", Clean(""))
	assert.Equal(t, "/admin", Clean("/admin/"))
	assert.Equal(t, "/dashboard", Clean("dashboard"))
	assert.Equal(t, "/admin/users", Clean("/admin//users?page=2#top"))
}

func TestRoutes_Match(t *testing.T) {
	routes := DefaultRoutes()

	r, ok := routes.Match("/login")
	require.True(t, ok)
	assert.True(t, r.Public)

	r, ok = routes.Match("/admin/users/")
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, r.RequiredRole)

	_, ok = routes.Match("/nope")
	assert.False(t, ok)

	custom := NewRoutes(
		Route{Pattern: "/docs/*"},
		Route{Pattern: "/docs/private/*", RequiredRole: models.RoleAdmin},
	)
	r, ok = custom.Match("/docs/private/plan")
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, r.RequiredRole)

	r, ok = custom.Match("/docs")
	require.True(t, ok)
	assert.Empty(t, r.RequiredRole)

	_, ok = custom.Match("/docsx")
	assert.False(t, ok)
}

// fakeSource is a settable session with listeners
type fakeSource struct {
	mu        sync.Mutex
	state     session.State
	listeners []authctx.Listener
}

func (f *fakeSource) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Subscribe(fn authctx.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners = nil
	}
}

func (f *fakeSource) publish(s session.State) {
	f.mu.Lock()
	f.state = s
	ls := append([]authctx.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range ls {
		fn(s)
	}
}

func last(steps []Step) Step {
	return steps[len(steps)-1]
}

func TestNavigator_FollowsRedirects(t *testing.T) {
	src := &fakeSource{state: signedIn(models.RoleAdmin)}
	nav := NewNavigator(src)
	defer nav.Close()

	steps := nav.Navigate("/")
	require.Len(t, steps, 2)
	assert.Equal(t, Decision{Outcome: Redirect, Target: "/admin/dashboard"}, steps[0].Decision)
	assert.Equal(t, "/admin/dashboard", last(steps).Path)
	assert.Equal(t, Render, last(steps).Decision.Outcome)
	assert.Equal(t, "/admin/dashboard", nav.Location())

	steps = nav.Navigate("/admin")
	assert.Equal(t, "/admin/dashboard", last(steps).Path)

	steps = nav.Navigate("/does-not-exist")
	assert.Equal(t, NotFoundPath, last(steps).Path)
	assert.Equal(t, Render, last(steps).Decision.Outcome)
}

func TestNavigator_LoginRoundTrip(t *testing.T) {
	src := &fakeSource{state: session.Anonymous()}

	var mu sync.Mutex
	var changes [][]Step
	nav := NewNavigator(src, OnChange(func(steps []Step) {
		mu.Lock()
		changes = append(changes, steps)
		mu.Unlock()
	}))
	defer nav.Close()

	steps := nav.Navigate("/admin/users")
	assert.Equal(t, LoginPath, last(steps).Path)
	assert.Equal(t, "/admin/users", nav.ReturnTo())

	// Login in progress: the login page stays put
	src.publish(session.State{IsLoading: true, IsInitialized: true})
	assert.Equal(t, LoginPath, nav.Location())

	// Login confirmed: back to where we were going
	src.publish(signedIn(models.RoleAdmin))
	assert.Equal(t, "/admin/users", nav.Location())
	assert.Empty(t, nav.ReturnTo())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, "/admin/users", last(changes[1]).Path)
}

func TestNavigator_LogoutKicksToLogin(t *testing.T) {
	src := &fakeSource{state: signedIn(models.RoleUser)}
	nav := NewNavigator(src)
	defer nav.Close()

	nav.Navigate("/profile")
	require.Equal(t, "/profile", nav.Location())

	src.publish(session.Anonymous())
	assert.Equal(t, LoginPath, nav.Location())
	assert.Equal(t, "/profile", nav.ReturnTo())
}

func TestNavigator_LoadingHoldsLocation(t *testing.T) {
	src := &fakeSource{state: session.State{IsLoading: true}}
	nav := NewNavigator(src)
	defer nav.Close()

	steps := nav.Navigate("/dashboard")
	require.Len(t, steps, 1)
	assert.Equal(t, Loading, steps[0].Decision.Outcome)
	assert.Equal(t, "/dashboard", nav.Location())

	src.publish(signedIn(models.RoleUser))
	assert.Equal(t, "/dashboard", nav.Location())
}
