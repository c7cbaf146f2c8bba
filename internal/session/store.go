package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// DefaultTTL is how long a fetched session is considered fresh
const DefaultTTL = 5 * time.Minute

// Fetcher performs the credential-bearing identity read. It returns
// (nil, nil) when the backend says there is no session.
type Fetcher interface {
	FetchSession(ctx context.Context) (*models.User, error)
}

// Store caches the answer to "who is the current user".
//
// Every Invalidate, Set and Suppress bumps the cache generation. A fetch only
// writes its result back if the generation it started under is still
// current, so reads that were overtaken by a newer write are discarded.
type Store struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	group singleflight.Group

	mu         sync.Mutex
	user       *models.User
	hasValue   bool
	stale      bool
	fetchedAt  time.Time
	generation uint64
	suppressed int
	inflight   int
}

// Option customizes a Store
type Option func(*Store)

// WithTTL overrides the freshness window
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a custom clock (useful for tests)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "session_store").Logger()
	}
}

// NewStore creates a session store in front of fetcher
func NewStore(fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the cached user when fresh and otherwise fetches it.
// While the store is suppressed Read never touches the network and returns
// whatever is cached.
func (s *Store) Read(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	if s.suppressed > 0 {
		user := s.user.Clone()
		s.mu.Unlock()
		s.logger.Debug().Msg("Session read suppressed during login")
		return user, nil
	}
	if s.freshLocked() {
		user := s.user.Clone()
		s.mu.Unlock()
		return user, nil
	}
	gen := s.generation
	s.mu.Unlock()

	return s.fetch(ctx, gen)
}

// Refresh always fetches, ignoring freshness and suppression. It is the
// authoritative read used while a login holds the guard.
func (s *Store) Refresh(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	return s.fetch(ctx, gen)
}

// Invalidate marks the cached value stale. The next read issued after
// Invalidate returns goes to the network.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
	s.generation++
}

// Set overwrites the cache without a round trip
func (s *Store) Set(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(user.Clone())
	s.generation++
}

// Peek returns the cached user without fetching
func (s *Store) Peek() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone(), s.hasValue
}

// Suppress enters the login guard. Until the returned release func is
// called, Read is served from cache and in-flight reads cannot publish.
// Release is safe to call more than once.
func (s *Store) Suppress() (release func()) {
	s.mu.Lock()
	s.suppressed++
	s.generation++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.suppressed--
			s.mu.Unlock()
		})
	}
}

// Suppressed reports whether the login guard is held
func (s *Store) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed > 0
}

// Fetching reports whether a network read is in flight
func (s *Store) Fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

func (s *Store) fetch(ctx context.Context, gen uint64) (*models.User, error) {
	key := strconv.FormatUint(gen, 10)

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		s.mu.Lock()
		s.inflight++
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.inflight--
			s.mu.Unlock()
		}()

		user, err := s.fetcher.FetchSession(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.generation == gen {
			s.storeLocked(user)
		} else {
			s.logger.Debug().
				Uint64("started_generation", gen).
				Uint64("current_generation", s.generation).
				Msg("Discarding overtaken session read")
		}
		s.mu.Unlock()

		return user, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("generation", key).Msg("Joined in-flight session read")
	}

	user, _ := v.(*models.User)
	return user.Clone(), nil
}

func (s *Store) freshLocked() bool {
	return s.hasValue && !s.stale && s.now().Sub(s.fetchedAt) < s.ttl
}

func (s *Store) storeLocked(user *models.User) {
	s.user = user
	s.hasValue = true
	s.stale = false
	s.fetchedAt = s.now()
}
