package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials means the backend rejected an email/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTransient covers network failures, 5xx and unexpected statuses
	ErrTransient = errors.New("transient error")
	// ErrValidation means the backend answered with a malformed body
	ErrValidation = errors.New("malformed server response")
	// ErrUnauthenticated means the call needed a session and had none
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrRejected covers other 4xx answers, e.g. a duplicate email
	ErrRejected = errors.New("request rejected")
)

// APIError describes a failed backend call. It unwraps to one of the
// sentinels above and, for network failures, to the underlying cause.
type APIError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Kind       error
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Message extracts the user-facing message from err, falling back to
// err.Error() for anything that is not an APIError.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func transportError(op string, err error) *APIError {
	return &APIError{Op: op, Message: err.Error(), Kind: ErrTransient, Cause: err}
}

func malformed(op string, status int, message string) *APIError {
	return &APIError{Op: op, StatusCode: status, Message: message, Kind: ErrValidation}
}

// statusError classifies a non-2xx answer. credentialCheck marks calls where
// a 401/403 means the submitted credentials were wrong rather than that the
// session is missing.
func statusError(op string, status int, payload []byte, fallback string, credentialCheck bool) *APIError {
	msg := messageFrom(payload)
	if msg == "" {
		msg = fallback
	}

	kind := ErrTransient
	switch {
	case credentialCheck && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		kind = ErrInvalidCredentials
	case status == http.StatusUnauthorized:
		kind = ErrUnauthenticated
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests:
		kind = ErrRejected
	}

	return &APIError{Op: op, StatusCode: status, Message: msg, Kind: kind}
}

// messageFrom reads {"message": ...} or {"error": ...} from an error body
func messageFrom(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return strings.TrimSpace(body.Message)
	}
	return strings.TrimSpace(body.Error)
}
