package auth

import "github.com/sundayschool-dev/sundayschool/internal/models"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID     string      `json:"user_id"`
	SessionID  string      `json:"session_id"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	AuthMethod string      `json:"auth_method"` // "bearer", "cookie"
}

// IsAdmin reports whether the session belongs to an admin
func (s *SessionData) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}
