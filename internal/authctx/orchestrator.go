// Package authctx owns the signed-in session as seen by the rest of the
// application. It is the only writer of session.State; everything else reads
// snapshots or subscribes.
package authctx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/sundayschool-dev/sundayschool/internal/assert"
	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/session"
)

// DefaultOperationTimeout bounds every backend call made by the orchestrator
const DefaultOperationTimeout = 20 * time.Second

// Backend is the set of REST calls the orchestrator drives
type Backend interface {
	session.Fetcher
	Login(ctx context.Context, creds models.Credentials) (*client.AuthResult, error)
	Register(ctx context.Context, data models.RegisterData) (*client.AuthResult, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// Listener receives every published state
type Listener func(session.State)

type subscriber struct {
	fn   Listener
	last atomic.Uint64
}

// Orchestrator mediates all state-changing auth operations
type Orchestrator struct {
	backend Backend
	store   *session.Store
	retry   RetryPolicy
	timeout time.Duration
	logger  zerolog.Logger

	mu          sync.Mutex
	user        *models.User
	initialized bool
	epoch       uint64 // bumped by login, logout, register and profile updates
	version     uint64 // bumped on every change visible to listeners
	loggingIn   int
	reading     int
	subs        map[int]*subscriber
	nextSub     int
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithRetryPolicy overrides the post-login confirmation policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.retry = p
	}
}

// WithOperationTimeout overrides the per-call timeout
func WithOperationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the orchestrator's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.With().Str("component", "auth").Logger()
	}
}

// New creates an orchestrator. store must be backed by the same backend.
func New(backend Backend, store *session.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		store:   store,
		retry:   DefaultRetryPolicy(),
		timeout: DefaultOperationTimeout,
		logger:  zerolog.Nop(),
		subs:    make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current snapshot
func (o *Orchestrator) State() session.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, _ := o.snapshotLocked()
	return state
}

// Subscribe registers fn for every published state and returns a func that
// removes it. fn is called outside the orchestrator's lock.
func (o *Orchestrator) Subscribe(fn Listener) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = &subscriber{fn: fn}
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Sync reads the session through the store and publishes the answer. A read
// that completes while a login is running, or after another operation has
// changed the session, is dropped.
func (o *Orchestrator) Sync(ctx context.Context) (session.State, error) {
	o.mu.Lock()
	epoch := o.epoch
	o.reading++
	o.version++
	o.mu.Unlock()
	o.emit()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	user, err := o.store.Read(ctx)

	o.mu.Lock()
	o.reading--
	o.version++
	switch {
	case o.loggingIn > 0 || o.epoch != epoch:
		o.logger.Debug().Msg("Discarding session read superseded by another operation")
		if !o.initialized {
			// The first read has completed. Settle anonymous and let the
			// next read ask the backend again.
			o.initialized = true
			o.store.Invalidate()
		}
	case err != nil:
		o.user = nil
		o.initialized = true
	default:
		o.user = user
		o.initialized = true
	}
	state, _ := o.snapshotLocked()
	o.mu.Unlock()
	o.emit()

	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to read session")
		return state, fmt.Errorf("failed to read session: %w", err)
	}
	return state, nil
}

// Login signs in with email and password and confirms the new session
// before publishing it. On failure the previous state is left untouched.
func (o *Orchestrator) Login(ctx context.Context, email, password string) (*client.AuthResult, error) {
	creds := models.Credentials{Email: email, Password: password}

	res, err := o.guarded(ctx, "login", func(ctx context.Context) (*client.AuthResult, error) {
		return o.backend.Login(ctx, creds)
	})
	if err != nil {
		o.logger.Debug().Err(err).Str("email", email).Msg("Login failed")
		return nil, err
	}

	o.logger.Info().Str("email", email).Msg("Logged in")
	return res, nil
}

// Register creates an account. Registration succeeds even when the session
// cannot be confirmed afterwards.
func (o *Orchestrator) Register(ctx context.Context, data models.RegisterData) (*client.AuthResult, error) {
	var registered *client.AuthResult

	res, err := o.guarded(ctx, "register", func(ctx context.Context) (*client.AuthResult, error) {
		res, err := o.backend.Register(ctx, data)
		registered = res
		return res, err
	})
	if err != nil {
		if registered == nil {
			return nil, err
		}
		o.logger.Warn().Err(err).Msg("Registered but session not confirmed")
		return registered, nil
	}
	return res, nil
}

// guarded runs mutate inside the login guard, then confirms the session and
// publishes it unless a later operation has taken over.
func (o *Orchestrator) guarded(ctx context.Context, op string, mutate func(context.Context) (*client.AuthResult, error)) (*client.AuthResult, error) {
	release := o.store.Suppress()

	o.mu.Lock()
	o.loggingIn++
	o.epoch++
	o.version++
	epoch := o.epoch
	o.mu.Unlock()
	o.emit()

	finish := func(user *models.User, publish bool) bool {
		release()

		o.mu.Lock()
		o.loggingIn--
		assert.True(o.loggingIn >= 0, "login guard released more often than taken")
		o.version++
		current := o.epoch == epoch
		if publish && current {
			o.user = user.Clone()
			o.initialized = true
		}
		o.mu.Unlock()
		o.emit()

		return current
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	res, err := mutate(callCtx)
	cancel()
	if err != nil {
		finish(nil, false)
		return nil, err
	}

	o.store.Invalidate()
	user, err := o.confirm(ctx, op)
	if err != nil {
		finish(nil, false)
		return nil, err
	}

	if !finish(user, true) {
		// Something newer owns the session now. Leave the cache for the next
		// read to settle against the backend.
		o.store.Invalidate()
		o.logger.Debug().Str("op", op).Msg("Result superseded by a later operation")
	}

	return &client.AuthResult{Message: res.Message, User: user}, nil
}

// confirm reads the session until a user appears or the policy runs out
func (o *Orchestrator) confirm(ctx context.Context, op string) (*models.User, error) {
	attempt := 0
	user, err := backoff.Retry(ctx, func() (*models.User, error) {
		attempt++

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		user, err := o.store.Refresh(callCtx)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, errNoSession
		}
		return user, nil
	},
		backoff.WithBackOff(o.retry.backOff()),
		backoff.WithMaxTries(o.retry.attempts()),
		backoff.WithNotify(func(err error, next time.Duration) {
			o.logger.Debug().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Dur("retry_in", next).
				Msg("Session not confirmed yet")
		}),
	)
	if err != nil {
		if errors.Is(err, errNoSession) {
			return nil, ErrSessionConfirmationFailed
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionConfirmationFailed, err)
	}

	return user, nil
}

// Logout signs out locally first and then tells the backend. A backend
// failure is returned but the local sign-out stands.
func (o *Orchestrator) Logout(ctx context.Context) error {
	o.mu.Lock()
	o.epoch++
	o.version++
	o.user = nil
	o.initialized = true
	o.mu.Unlock()
	o.emit()

	o.store.Set(nil)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.backend.Logout(ctx); err != nil {
		o.logger.Warn().Err(err).Msg("Backend logout failed; signed out locally")
		return fmt.Errorf("failed to notify backend of logout: %w", err)
	}

	o.logger.Info().Msg("Logged out")
	return nil
}

// UpdateProfile sends patch and replaces the session user with exactly what
// the backend returned.
func (o *Orchestrator) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	user, err := o.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}

	o.store.Set(user)

	o.mu.Lock()
	o.epoch++
	o.version++
	o.user = user.Clone()
	o.initialized = true
	o.mu.Unlock()
	o.emit()

	return user.Clone(), nil
}

// ChangePassword forwards to the backend without touching the session
func (o *Orchestrator) ChangePassword(ctx context.Context, current, next string) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return o.backend.ChangePassword(ctx, current, next)
}

func (o *Orchestrator) snapshotLocked() (session.State, uint64) {
	state := session.State{
		User:            o.user.Clone(),
		IsAuthenticated: o.user != nil,
		IsInitialized:   o.initialized,
		IsLoading:       !o.initialized || o.reading > 0 || o.loggingIn > 0,
	}
	return state, o.version
}

// emit delivers the current state to every listener. A listener that has
// already seen a newer version skips older ones.
func (o *Orchestrator) emit() {
	o.mu.Lock()
	state, version := o.snapshotLocked()
	subs := make([]*subscriber, 0, len(o.subs))
	for _, s := range o.subs {
		subs = append(subs, s)
	}
	o.mu.Unlock()

	for _, s := range subs {
		last := s.last.Load()
		if version <= last || !s.last.CompareAndSwap(last, version) {
			continue
		}
		s.fn(state)
	}
}
