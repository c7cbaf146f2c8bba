package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// @Summary List users
// @Tags users
// @Produce json
// @Router /users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		serverError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"data":    gin.H{"users": users},
	})
}
