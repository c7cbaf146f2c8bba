package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundayschool-dev/sundayschool/internal/cli/auth"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// Transport selects how the session travels with each request. A deployment
// uses exactly one.
type Transport string

const (
	TransportBearer Transport = "bearer"
	TransportCookie Transport = "cookie"
)

// UnmarshalText implements encoding.TextUnmarshaler for Transport
func (t *Transport) UnmarshalText(text []byte) error {
	v := Transport(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case TransportBearer, TransportCookie:
		*t = v
		return nil
	default:
		return fmt.Errorf("invalid transport: %q (valid options: bearer, cookie)", string(text))
	}
}

const maxResponseBytes = 1 << 20

// Client is an HTTP client for the Sunday-school REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	transport  Transport
	tokens     auth.TokenStore
	logger     zerolog.Logger
	jar        *sessionJar
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTransport selects bearer or cookie session transport
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != "" {
			c.transport = t
		}
	}
}

// WithTokenStore sets where bearer tokens are persisted
func WithTokenStore(store auth.TokenStore) Option {
	return func(c *Client) {
		if store != nil {
			c.tokens = store
		}
	}
}

// WithTimeout bounds every request made by the client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithInsecureTLS skips certificate verification for self-signed dev servers
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
}

// WithLogger sets the client's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "api_client").Logger()
	}
}

// New creates a new API client for baseURL (e.g. http://host/api/sunday-school)
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		transport: TransportBearer,
		tokens:    auth.NewMemory(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == TransportCookie {
		jar, err := newSessionJar(c.httpClient.Jar)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.jar = jar
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transport returns the configured session transport
func (c *Client) Transport() Transport {
	return c.transport
}

// envelope is the backend's response wrapper
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Token   string `json:"token,omitempty"`
}

type userData struct {
	User *models.User `json:"user"`
}

// AuthResult is what login and register return
type AuthResult struct {
	Message string
	User    *models.User
}

// FetchSession reads the current user from /auth/me. A 401 means "no
// session" and yields (nil, nil); in bearer mode the stale token is dropped.
func (c *Client) FetchSession(ctx context.Context) (*models.User, error) {
	const op = "fetch session"

	status, payload, err := c.send(ctx, op, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.logger.Debug().Msg("User not authenticated")
		if c.transport == TransportBearer {
			if err := c.tokens.DeleteToken(c.baseURL); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to delete rejected token")
			}
		}
		return nil, nil
	}
	if !isSuccess(status) {
		apiErr := statusError(op, status, payload, fmt.Sprintf("Failed to fetch user: %d", status), false)
		apiErr.Kind = ErrTransient
		return nil, apiErr
	}

	var body envelope[userData]
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, malformed(op, status, "Invalid JSON from server")
	}
	if body.Data.User == nil {
		return nil, malformed(op, status, "Invalid response structure from server")
	}

	return body.Data.User, nil
}

// Login authenticates with email and password. In bearer mode a returned
// token is persisted; in cookie mode the jar keeps the session cookie.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*AuthResult, error) {
	return c.authenticate(ctx, "login", "/auth/login", creds, "Login failed", true)
}

// Register creates an account. When the backend opens a session for the new
// account the credentials are kept just like after a login.
func (c *Client) Register(ctx context.Context, data models.RegisterData) (*AuthResult, error) {
	return c.authenticate(ctx, "register", "/auth/register", data, "Registration failed", false)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any, fallback string, credentialCheck bool) (*AuthResult, error) {
	status, payload, err := c.send(ctx, op, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(op, status, payload, fallback, credentialCheck)
	}

	var resp envelope[userData]
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, malformed(op, status, "Invalid JSON from server")
	}
	if resp.Data.User == nil {
		return nil, malformed(op, status, "Invalid response structure from server")
	}

	if resp.Token != "" && c.transport == TransportBearer {
		if err := c.tokens.SaveToken(c.baseURL, resp.Token); err != nil {
			return nil, fmt.Errorf("failed to save authentication token: %w", err)
		}
	}

	return &AuthResult{Message: resp.Message, User: resp.Data.User}, nil
}

// Logout detaches the local credentials first, then tells the backend using
// the detached copy. The local credentials are gone even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	const op = "logout"

	detached := c.detachCredentials()

	status, payload, err := c.send(ctx, op, http.MethodPost, "/auth/logout", nil, detached)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return statusError(op, status, payload, "Logout failed", false)
	}
	return nil
}

// UpdateProfile sends a partial update and returns the server's user
func (c *Client) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	const op = "update profile"

	status, payload, err := c.send(ctx, op, http.MethodPatch, "/auth/update-me", patch, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(op, status, payload, fmt.Sprintf("Profile update failed with status %d", status), false)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, malformed(op, status, "Empty response from server")
	}

	var resp envelope[userData]
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, malformed(op, status, "Invalid JSON from server")
	}
	if resp.Data.User == nil {
		return nil, malformed(op, status, "Invalid response structure from server")
	}

	return resp.Data.User, nil
}

// ChangePassword replaces the account password
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	const op = "change password"

	body := models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	status, payload, err := c.send(ctx, op, http.MethodPatch, "/auth/change-password", body, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return statusError(op, status, payload, "Password change failed", false)
	}
	return nil
}

// ListUsers returns all accounts (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "list users"

	var resp envelope[struct {
		Users []models.User `json:"users"`
	}]
	if err := c.getJSON(ctx, op, "/users", &resp); err != nil {
		return nil, err
	}
	return resp.Data.Users, nil
}

// ListAssets returns all tracked assets
func (c *Client) ListAssets(ctx context.Context) ([]models.Asset, error) {
	const op = "list assets"

	var resp envelope[struct {
		Assets []models.Asset `json:"assets"`
	}]
	if err := c.getJSON(ctx, op, "/assets", &resp); err != nil {
		return nil, err
	}
	return resp.Data.Assets, nil
}

// CreateAsset registers a new asset (admin only)
func (c *Client) CreateAsset(ctx context.Context, asset models.Asset) (*models.Asset, error) {
	const op = "create asset"

	status, payload, err := c.send(ctx, op, http.MethodPost, "/assets", asset, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(op, status, payload, "Failed to create asset", false)
	}

	var resp envelope[struct {
		Asset *models.Asset `json:"asset"`
	}]
	if err := json.Unmarshal(payload, &resp); err != nil || resp.Data.Asset == nil {
		return nil, malformed(op, status, "Invalid response structure from server")
	}
	return resp.Data.Asset, nil
}

// ListPosts returns the feed, pinned posts first
func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	const op = "list posts"

	var resp envelope[struct {
		Posts []models.Post `json:"posts"`
	}]
	if err := c.getJSON(ctx, op, "/posts", &resp); err != nil {
		return nil, err
	}
	return resp.Data.Posts, nil
}

// CreatePost publishes a post (admin only)
func (c *Client) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	return c.postOp(ctx, "create post", "/posts", post, "Failed to create post")
}

// LikePost toggles the caller's like and returns the stored post
func (c *Client) LikePost(ctx context.Context, postID string) (*models.Post, error) {
	return c.postOp(ctx, "like post", "/posts/"+url.PathEscape(postID)+"/like", nil, "Failed to like post")
}

// CommentPost adds a top-level comment and returns the stored post
func (c *Client) CommentPost(ctx context.Context, postID, text string) (*models.Post, error) {
	body := models.CommentRequest{Text: text}
	return c.postOp(ctx, "comment on post", "/posts/"+url.PathEscape(postID)+"/comments", body, "Failed to add comment")
}

func (c *Client) postOp(ctx context.Context, op, path string, body any, fallback string) (*models.Post, error) {
	status, payload, err := c.send(ctx, op, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(op, status, payload, fallback, false)
	}

	var resp envelope[struct {
		Post *models.Post `json:"post"`
	}]
	if err := json.Unmarshal(payload, &resp); err != nil || resp.Data.Post == nil {
		return nil, malformed(op, status, "Invalid response structure from server")
	}
	return resp.Data.Post, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	status, payload, err := c.send(ctx, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return statusError(op, status, payload, fmt.Sprintf("%s failed", op), false)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return malformed(op, status, "Invalid JSON from server")
	}
	return nil
}

// credentials is a snapshot of whatever the transport would attach
type credentials struct {
	token   string
	cookies []*http.Cookie
}

// send performs one request. override, when non-nil, replaces the live
// credentials (used by logout after they have been detached).
func (c *Client) send(ctx context.Context, op, method, path string, body any, override *credentials) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if override != nil {
		if override.token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", override.token))
		}
		for _, cookie := range override.cookies {
			req.AddCookie(cookie)
		}
	} else {
		c.authorize(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", op).Msg("Request failed")
		return 0, nil, transportError(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, transportError(op, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	return resp.StatusCode, payload, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.transport != TransportBearer {
		return // the cookie jar attaches the session
	}

	token, err := c.tokens.LoadToken(c.baseURL)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to load stored token")
		}
		return
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
}

// detachCredentials removes the live credentials and returns a copy
func (c *Client) detachCredentials() *credentials {
	detached := &credentials{}

	switch c.transport {
	case TransportBearer:
		token, err := c.tokens.LoadToken(c.baseURL)
		if err == nil {
			detached.token = token
		}
		if err := c.tokens.DeleteToken(c.baseURL); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to delete stored token")
		}
	case TransportCookie:
		u, _ := url.Parse(c.baseURL)
		cookies, err := c.jar.Reset(u)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear session cookies")
		}
		detached.cookies = cookies
	}

	return detached
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
