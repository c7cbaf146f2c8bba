package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sundayschool-dev/sundayschool/internal/auth"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

const (
	bearerPrefix = "Bearer "
	userKey      = "user"
	sessionKey   = "session"
)

var (
	ErrMissingToken    = errors.New("missing token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionInactive = errors.New("session revoked or expired")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user inactive")
)

func setSession(c *gin.Context, sessionData *auth.SessionData, user *models.User) {
	c.Set(sessionKey, sessionData)
	c.Set(userKey, user)
}

// GetSessionData returns the authenticated session, if any
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// extractToken prefers the Authorization header and falls back to the
// session cookie
func (s *Server) extractToken(c *gin.Context) (token, method string) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)); token != "" {
			return token, "bearer"
		}
	}
	if cookie, err := c.Cookie(s.config.Auth.CookieName); err == nil && cookie != "" {
		return cookie, "cookie"
	}
	return "", ""
}

// authenticate resolves the request's token to an active session and user
func (s *Server) authenticate(c *gin.Context) (*auth.SessionData, *models.User, error) {
	token, method := s.extractToken(c)
	if token == "" {
		return nil, nil, ErrMissingToken
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidToken, err)
	}

	var session models.Session
	if err := models.FindByID(s.db, claims.SessionID(), &session); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionInactive
		}
		return nil, nil, err
	}
	if !session.Active(s.now()) || session.UserID != claims.UserID {
		return nil, nil, ErrSessionInactive
	}

	var user models.User
	if err := models.FindByID(s.db, session.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	if user.Status == "inactive" {
		return nil, nil, ErrUserInactive
	}

	return &auth.SessionData{
		UserID:     user.ID,
		SessionID:  session.ID,
		Email:      user.Email,
		Role:       user.Role,
		AuthMethod: method,
	}, &user, nil
}

// authMiddleware attaches the caller's session. When required is false an
// unauthenticated request passes through without one.
func (s *Server) authMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, user, err := s.authenticate(c)
		if err == nil {
			setSession(c, sessionData, user)
			c.Next()
			return
		}

		if !required {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, ErrMissingToken):
			fail(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		case errors.Is(err, ErrUserInactive):
			fail(c, http.StatusUnauthorized, "This account has been deactivated.")
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrSessionInactive), errors.Is(err, ErrUserNotFound):
			s.logger.Debug().Err(err).Msg("Rejected session")
			fail(c, http.StatusUnauthorized, "Your session is invalid or has expired. Please log in again.")
		default:
			s.logger.Error().Err(err).Msg("Failed to authenticate request")
			serverError(c, "Internal server error")
		}
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			log.Warn().Str("user_id", sessionData.UserID).Str("path", c.Request.URL.Path).Msg("Admin access denied")
			fail(c, http.StatusForbidden, "You do not have permission to perform this action")
			return
		}

		c.Next()
	}
}
