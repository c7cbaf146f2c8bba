package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sundayschool-dev/sundayschool/internal/auth"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// openSession persists a session for user, signs its token and sets the
// session cookie
func (s *Server) openSession(c *gin.Context, user *models.User) (string, error) {
	now := s.now()
	session := models.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.Auth.TokenTTL),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, session.ID, user.Role, session.ExpiresAt)
	if err != nil {
		return "", err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.config.Auth.CookieName, token, int(s.config.Auth.TokenTTL/time.Second), "/", "", s.config.Auth.CookieSecure, true)
	return token, nil
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.config.Auth.CookieName, "", -1, "/", "", s.config.Auth.CookieSecure, true)
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error().Err(err).Msg("Failed to look up user")
		serverError(c, "Internal server error")
		return
	}
	if err != nil || auth.VerifyPassword(req.Password, user.PasswordHash) != nil {
		fail(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if user.Status == "inactive" {
		fail(c, http.StatusForbidden, "This account has been deactivated.")
		return
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}

	token, err := s.openSession(c, &user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to open session")
		serverError(c, "Internal server error")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged in successfully",
		"token":   token,
		"data":    gin.H{"user": user},
	})
}

// @Summary Register an account
// @Description The first account becomes the admin. Admins may create accounts
// @Description for others without a session being opened.
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req models.RegisterData
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	user := req.ToUser()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		serverError(c, "Internal server error")
		return
	}
	user.PasswordHash = hash

	caller, _ := GetSessionData(c)
	byAdmin := caller.IsAdmin()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errDuplicate
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}

		switch {
		case total == 0:
			user.Role = models.RoleAdmin
		case byAdmin && req.Role.IsValid():
			user.Role = req.Role
		default:
			user.Role = models.RoleUser
		}

		joined := s.now()
		user.JoinDate = &joined
		return tx.Create(user).Error
	})
	if errors.Is(err, errDuplicate) {
		fail(c, http.StatusConflict, "An account with this email already exists")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		serverError(c, "Internal server error")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Bool("by_admin", byAdmin).Msg("User registered")

	// An admin creating an account keeps their own session
	if byAdmin {
		success(c, http.StatusCreated, "User created successfully", gin.H{"user": user})
		return
	}

	token, err := s.openSession(c, user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to open session")
		serverError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User registered successfully",
		"token":   token,
		"data":    gin.H{"user": user},
	})
}

// @Summary Log out
// @Description Revokes the caller's session if there is one. Always succeeds.
// @Tags auth
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	if sessionData, ok := GetSessionData(c); ok {
		err := s.db.Model(&models.Session{}).
			Where("id = ? AND revoked_at IS NULL", sessionData.SessionID).
			Update("revoked_at", s.now()).Error
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionData.SessionID).Msg("Failed to revoke session")
			serverError(c, "Internal server error")
			return
		}
		s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	}

	s.clearSessionCookie(c)
	success(c, http.StatusOK, "Logged out successfully", nil)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Router /auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		return
	}
	success(c, http.StatusOK, "", gin.H{"user": user})
}

// @Summary Update own profile
// @Description Role and status changes are only honoured for admins
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/update-me [patch]
func (s *Server) updateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		return
	}

	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	if !user.IsAdmin() {
		patch = patch.WithoutAccountFields()
	}
	if patch.IsEmpty() {
		fail(c, http.StatusBadRequest, "No updatable fields provided")
		return
	}

	patch.Apply(user)
	if err := s.db.Save(user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update user")
		serverError(c, "Internal server error")
		return
	}

	success(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

// @Summary Change password
// @Description Other sessions of the account are revoked
// @Tags auth
// @Accept json
// @Router /auth/change-password [patch]
func (s *Server) changePassword(c *gin.Context) {
	user, ok := currentUser(c)
	sessionData, _ := GetSessionData(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	if auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) != nil {
		fail(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		serverError(c, "Internal server error")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(&models.Session{}).
			Where("user_id = ? AND id <> ? AND revoked_at IS NULL", user.ID, sessionData.SessionID).
			Update("revoked_at", s.now()).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to change password")
		serverError(c, "Internal server error")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password changed")
	success(c, http.StatusOK, "Password updated successfully", nil)
}

var errDuplicate = errors.New("duplicate")
