package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// sessionJar is the cookie jar installed in cookie mode. The http.Client
// keeps one jar for its lifetime; logout empties it with Reset.
type sessionJar struct {
	mu  sync.RWMutex
	jar http.CookieJar
}

func newSessionJar(inner http.CookieJar) (*sessionJar, error) {
	if inner == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		inner = jar
	}
	return &sessionJar{jar: inner}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// Reset drops every cookie and returns the ones that were held for u
func (j *sessionJar) Reset(u *url.URL) ([]*http.Cookie, error) {
	fresh, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	var held []*http.Cookie
	if u != nil {
		held = j.jar.Cookies(u)
	}
	j.jar = fresh
	return held, nil
}
