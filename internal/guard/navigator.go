package guard

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sundayschool-dev/sundayschool/internal/authctx"
	"github.com/sundayschool-dev/sundayschool/internal/session"
)

// maxHops bounds redirect chains such as / -> /admin -> /admin/dashboard
const maxHops = 8

// StateSource is where the navigator reads and watches the session
type StateSource interface {
	State() session.State
	Subscribe(fn authctx.Listener) (unsubscribe func())
}

// Step is one evaluated hop of a navigation
type Step struct {
	Path     string
	Decision Decision
}

// Navigator tracks the current location and re-guards it whenever the
// session changes
type Navigator struct {
	routes *Routes
	source StateSource
	logger zerolog.Logger

	mu       sync.Mutex
	location string
	from     string
	onChange func([]Step)
	stop     func()
}

// NavigatorOption customizes a Navigator
type NavigatorOption func(*Navigator)

// WithRoutes replaces the default route table
func WithRoutes(r *Routes) NavigatorOption {
	return func(n *Navigator) {
		if r != nil {
			n.routes = r
		}
	}
}

// WithLogger sets the navigator's logger
func WithLogger(logger zerolog.Logger) NavigatorOption {
	return func(n *Navigator) {
		n.logger = logger.With().Str("component", "navigator").Logger()
	}
}

// OnChange registers fn to receive the steps of every re-evaluation that
// happens because the session changed
func OnChange(fn func([]Step)) NavigatorOption {
	return func(n *Navigator) {
		n.onChange = fn
	}
}

// NewNavigator starts at the root path and subscribes to source
func NewNavigator(source StateSource, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		routes:   DefaultRoutes(),
		source:   source,
		logger:   zerolog.Nop(),
		location: RootPath,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.stop = source.Subscribe(n.sessionChanged)
	return n
}

// Close stops watching the session
func (n *Navigator) Close() {
	n.stop()
}

// Location returns the current path
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// ReturnTo is the path a login redirect was carrying, if any
func (n *Navigator) ReturnTo() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.from
}

// Navigate guards p under the current session, following redirects. The last
// step is where the navigation settled.
func (n *Navigator) Navigate(p string) []Step {
	return n.resolve(n.source.State(), p)
}

func (n *Navigator) sessionChanged(state session.State) {
	n.mu.Lock()
	target := n.location
	// A completed sign-in leaves the login page for wherever it was headed
	if state.IsAuthenticated && !state.IsLoading && target == LoginPath {
		target = RootPath
		if n.from != "" {
			target = n.from
		}
	}
	fn := n.onChange
	n.mu.Unlock()

	steps := n.resolve(state, target)
	if fn != nil {
		fn(steps)
	}
}

func (n *Navigator) resolve(state session.State, p string) []Step {
	var steps []Step
	current := Clean(p)

	for hop := 0; hop < maxHops; hop++ {
		d := n.evaluate(state, current)
		steps = append(steps, Step{Path: current, Decision: d})

		if d.Outcome != Redirect {
			break
		}
		if d.From != "" {
			n.mu.Lock()
			n.from = d.From
			n.mu.Unlock()
		}
		current = d.Target
	}

	last := steps[len(steps)-1]
	if last.Decision.Outcome == Redirect {
		n.logger.Warn().Str("path", Clean(p)).Msg("Redirect chain did not settle")
	}

	n.mu.Lock()
	n.location = last.Path
	if last.Decision.Outcome == Render && last.Path != LoginPath {
		n.from = ""
	}
	n.mu.Unlock()

	n.logger.Debug().
		Str("requested", Clean(p)).
		Str("location", last.Path).
		Stringer("outcome", last.Decision.Outcome).
		Msg("Navigation evaluated")

	return steps
}

func (n *Navigator) evaluate(state session.State, p string) Decision {
	route, ok := n.routes.Match(p)
	if !ok {
		return redirect(NotFoundPath)
	}
	if route.Public {
		return render()
	}

	d := Decide(state, p, route.RequiredRole)
	if d.Outcome == Render && route.Index != "" {
		return redirect(route.Index)
	}
	return d
}
