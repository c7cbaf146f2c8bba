// Package app wires the client-side session stack from the user's config:
// API client, session cache, auth orchestrator and route guard.
package app

import (
	"github.com/rs/zerolog"

	"github.com/sundayschool-dev/sundayschool/internal/authctx"
	"github.com/sundayschool-dev/sundayschool/internal/cli/auth"
	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
	"github.com/sundayschool-dev/sundayschool/internal/cli/config"
	"github.com/sundayschool-dev/sundayschool/internal/guard"
	"github.com/sundayschool-dev/sundayschool/internal/session"
)

// App holds the wired components shared by the CLI commands
type App struct {
	Config  *config.Config
	API     *client.Client
	Session *session.Store
	Auth    *authctx.Orchestrator
	Logger  zerolog.Logger
}

type options struct {
	tokens     auth.TokenStore
	httpClient []client.Option
}

// Option customizes how the App is wired
type Option func(*options)

// WithTokenStore overrides the OS keyring, e.g. in tests
func WithTokenStore(store auth.TokenStore) Option {
	return func(o *options) {
		o.tokens = store
	}
}

// WithClientOptions appends options for the API client
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.httpClient = append(o.httpClient, opts...)
	}
}

// New builds the stack described by cfg
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	o := options{tokens: auth.NewKeyring()}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []client.Option{
		client.WithTransport(cfg.Transport),
		client.WithTimeout(cfg.Timeout.Duration),
		client.WithTokenStore(o.tokens),
		client.WithLogger(logger),
	}
	if cfg.InsecureTLS {
		clientOpts = append(clientOpts, client.WithInsecureTLS())
	}
	clientOpts = append(clientOpts, o.httpClient...)

	api, err := client.New(cfg.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(api,
		session.WithTTL(cfg.SessionTTL.Duration),
		session.WithLogger(logger),
	)

	orchestrator := authctx.New(api, store,
		authctx.WithRetryPolicy(cfg.Retry.Policy()),
		authctx.WithOperationTimeout(cfg.Timeout.Duration+authctx.DefaultOperationTimeout),
		authctx.WithLogger(logger),
	)

	return &App{
		Config:  cfg,
		API:     api,
		Session: store,
		Auth:    orchestrator,
		Logger:  logger,
	}, nil
}

// Navigator returns a route guard driven by this App's session
func (a *App) Navigator(opts ...guard.NavigatorOption) *guard.Navigator {
	return guard.NewNavigator(a.Auth, append([]guard.NavigatorOption{guard.WithLogger(a.Logger)}, opts...)...)
}
