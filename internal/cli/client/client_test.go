package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayschool-dev/sundayschool/internal/cli/auth"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

const basePath = "/api/sunday-school"

// mockBackend is a minimal stand-in for the REST API
type mockBackend struct {
	mu       sync.Mutex
	token    string
	cookie   string
	user     models.User
	password string

	logoutAuth   string
	logoutCookie string
	logoutStatus int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		token:    "tok-123",
		cookie:   "sess-abc",
		password: "secret1",
		user: models.User{
			BaseModel: models.BaseModel{ID: "01HZUSER"},
			Email:     "abebe@example.com",
			FirstName: "Abebe",
			LastName:  "Kebede",
			Role:      models.RoleUser,
		},
	}
}

func (m *mockBackend) authed(r *http.Request) bool {
	if r.Header.Get("Authorization") == "Bearer "+m.token {
		return true
	}
	c, err := r.Cookie("jwt")
	return err == nil && c.Value == m.cookie
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (m *mockBackend) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+basePath+"/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "bad body"})
			return
		}
		if creds.Email != m.user.Email || creds.Password != m.password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "fail", "message": "Incorrect email or password"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "jwt", Value: m.cookie, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Logged in successfully",
			"token":   m.token,
			"data":    map[string]any{"user": m.user},
		})
	})
	mux.HandleFunc("GET "+basePath+"/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !m.authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "fail", "message": "You are not logged in"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"user": m.user}})
	})
	mux.HandleFunc("POST "+basePath+"/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		m.logoutAuth = r.Header.Get("Authorization")
		if c, err := r.Cookie("jwt"); err == nil {
			m.logoutCookie = c.Value
		}
		if status := m.logoutStatus; status != 0 {
			writeJSON(w, status, map[string]string{"status": "error", "message": "logout exploded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Logged out"})
	})
	mux.HandleFunc("PATCH "+basePath+"/auth/update-me", func(w http.ResponseWriter, r *http.Request) {
		if !m.authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "fail", "message": "You are not logged in"})
			return
		}
		var patch models.UserPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "bad body"})
			return
		}
		patch.Apply(&m.user)
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"user": m.user}})
	})
	mux.HandleFunc("PATCH "+basePath+"/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		var req models.ChangePasswordRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.CurrentPassword != m.password {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "Current password is incorrect"})
			return
		}
		m.password = req.NewPassword
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Password updated"})
	})
	mux.HandleFunc("GET "+basePath+"/assets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{"assets": []models.Asset{
				{ID: "a1", Code: "PRJ-01", Name: "Projector", Category: "electronics"},
			}},
		})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// get reads a field under the backend lock
func get[T any](m *mockBackend, f func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f()
}

func newTestClient(t *testing.T, transport Transport) (*Client, *mockBackend, auth.TokenStore) {
	t.Helper()

	backend := newMockBackend()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	tokens := auth.NewMemory()
	c, err := New(srv.URL+basePath, WithTransport(transport), WithTokenStore(tokens))
	require.NoError(t, err)

	return c, backend, tokens
}

func TestNew_RejectsInvalidURL(t *testing.T) {
	_, err := New("not a url")
	require.Error(t, err)
}

func TestTransport_UnmarshalText(t *testing.T) {
	var tr Transport
	require.NoError(t, tr.UnmarshalText([]byte(" Cookie ")))
	assert.Equal(t, TransportCookie, tr)

	err := tr.UnmarshalText([]byte("both"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transport")
}

func TestLogin_BearerStoresToken(t *testing.T) {
	c, backend, tokens := newTestClient(t, TransportBearer)

	res, err := c.Login(context.Background(), models.Credentials{Email: backend.user.Email, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Logged in successfully", res.Message)
	assert.Equal(t, backend.user.Email, res.User.Email)

	token, err := tokens.LoadToken(c.BaseURL())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	user, err := c.FetchSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "01HZUSER", user.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c, backend, tokens := newTestClient(t, TransportBearer)

	_, err := c.Login(context.Background(), models.Credentials{Email: backend.user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Incorrect email or password", Message(err))

	_, err = tokens.LoadToken(c.BaseURL())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestLogin_CookieTransportUsesJar(t *testing.T) {
	c, backend, tokens := newTestClient(t, TransportCookie)

	_, err := c.Login(context.Background(), models.Credentials{Email: backend.user.Email, Password: "secret1"})
	require.NoError(t, err)

	// Cookie mode never persists the bearer token
	_, err = tokens.LoadToken(c.BaseURL())
	assert.ErrorIs(t, err, auth.ErrNotFound)

	user, err := c.FetchSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestFetchSession_UnauthenticatedIsNil(t *testing.T) {
	c, _, tokens := newTestClient(t, TransportBearer)
	require.NoError(t, tokens.SaveToken(c.BaseURL(), "expired"))

	user, err := c.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)

	// The rejected token is dropped
	_, err = tokens.LoadToken(c.BaseURL())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestFetchSession_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	user, err := c.FetchSession(context.Background())
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrTransient)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestFetchSession_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"status":`},
		{"missing user", `{"status":"success","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL)
			require.NoError(t, err)

			_, err = c.FetchSession(context.Background())
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestFetchSession_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.FetchSession(context.Background())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestLogout_BearerSendsDetachedToken(t *testing.T) {
	c, backend, tokens := newTestClient(t, TransportBearer)
	require.NoError(t, tokens.SaveToken(c.BaseURL(), "tok-123"))

	require.NoError(t, c.Logout(context.Background()))

	assert.Equal(t, "Bearer tok-123", get(backend, func() string { return backend.logoutAuth }))
	_, err := tokens.LoadToken(c.BaseURL())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestLogout_CookieClearsJar(t *testing.T) {
	c, backend, _ := newTestClient(t, TransportCookie)

	_, err := c.Login(context.Background(), models.Credentials{Email: backend.user.Email, Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "sess-abc", get(backend, func() string { return backend.logoutCookie }))

	user, err := c.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user, "jar should be empty after logout")
}

func TestLogout_BackendFailureStillClearsCredentials(t *testing.T) {
	c, backend, tokens := newTestClient(t, TransportBearer)
	backend.mu.Lock()
	backend.logoutStatus = http.StatusInternalServerError
	backend.mu.Unlock()
	require.NoError(t, tokens.SaveToken(c.BaseURL(), "tok-123"))

	err := c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrTransient)

	_, err = tokens.LoadToken(c.BaseURL())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUpdateProfile_ReturnsServerUser(t *testing.T) {
	c, _, tokens := newTestClient(t, TransportBearer)
	require.NoError(t, tokens.SaveToken(c.BaseURL(), "tok-123"))

	user, err := c.UpdateProfile(context.Background(), models.UserPatch{FirstName: models.Ptr("Almaz")})
	require.NoError(t, err)
	assert.Equal(t, "Almaz", user.FirstName)
	assert.Equal(t, "Kebede", user.LastName)
}

func TestUpdateProfile_Unauthenticated(t *testing.T) {
	c, _, _ := newTestClient(t, TransportBearer)

	_, err := c.UpdateProfile(context.Background(), models.UserPatch{FirstName: models.Ptr("Almaz")})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "You are not logged in", Message(err))
}

func TestUpdateProfile_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.UpdateProfile(context.Background(), models.UserPatch{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfile_EmptyErrorBodyKeepsStatusKind(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.UpdateProfile(context.Background(), models.UserPatch{FirstName: models.Ptr("Almaz")})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrValidation)

	status.Store(http.StatusConflict)
	_, err = c.UpdateProfile(context.Background(), models.UserPatch{FirstName: models.Ptr("Almaz")})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestLogout_CookieConcurrentWithReads(t *testing.T) {
	c, backend, _ := newTestClient(t, TransportCookie)

	_, err := c.Login(context.Background(), models.Credentials{Email: backend.user.Email, Password: "secret1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := c.FetchSession(context.Background())
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Logout(context.Background()))
		}()
	}
	wg.Wait()

	user, err := c.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestChangePassword(t *testing.T) {
	c, backend, _ := newTestClient(t, TransportBearer)

	err := c.ChangePassword(context.Background(), "nope", "newpass")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "Current password is incorrect", Message(err))

	require.NoError(t, c.ChangePassword(context.Background(), "secret1", "newpass"))
	assert.Equal(t, "newpass", get(backend, func() string { return backend.password }))
}

func TestListAssets(t *testing.T) {
	c, _, _ := newTestClient(t, TransportBearer)

	assets, err := c.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Projector", assets[0].Name)
}

func TestStatusError_Classification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		credential bool
		want       error
	}{
		{"login 401", http.StatusUnauthorized, true, ErrInvalidCredentials},
		{"login 403", http.StatusForbidden, true, ErrInvalidCredentials},
		{"other 401", http.StatusUnauthorized, false, ErrUnauthenticated},
		{"conflict", http.StatusConflict, false, ErrRejected},
		{"too many requests", http.StatusTooManyRequests, false, ErrTransient},
		{"server error", http.StatusInternalServerError, true, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := statusError("op", tt.status, nil, "fallback", tt.credential)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "fallback", err.Message)
		})
	}
}
