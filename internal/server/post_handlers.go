package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// @Summary List the feed, pinned posts first
// @Tags posts
// @Produce json
// @Router /posts [get]
func (s *Server) listPosts(c *gin.Context) {
	var posts []models.Post
	if err := s.db.Order("is_pinned DESC").Order("id DESC").Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list posts")
		serverError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(posts),
		"data":    gin.H{"posts": posts},
	})
}

// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Router /posts [post]
func (s *Server) createPost(c *gin.Context) {
	user, _ := currentUser(c)

	var post models.Post
	if err := c.ShouldBindJSON(&post); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	post.ID = ""
	post.Title = strings.TrimSpace(post.Title)
	post.Author = user.FullName()
	post.AuthorID = user.ID
	post.Likes = []string{}
	post.Comments = []models.Comment{}
	post.Shares = 0
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Category == "" {
		post.Category = "general"
	}
	if post.Status == "" {
		post.Status = "published"
	}
	if post.TargetAudience == "" {
		post.TargetAudience = "all"
	}
	if post.PublishDate == "" {
		post.PublishDate = now
	}

	if err := s.db.Create(&post).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create post")
		serverError(c, "Internal server error")
		return
	}

	s.logger.Info().Str("post_id", post.ID).Str("author_id", user.ID).Msg("Post created")
	success(c, http.StatusCreated, "", gin.H{"post": post})
}

// @Summary Toggle the caller's like on a post
// @Tags posts
// @Produce json
// @Router /posts/{id}/like [post]
func (s *Server) likePost(c *gin.Context) {
	user, _ := currentUser(c)

	s.updatePost(c, func(post *models.Post) {
		if post.LikedBy(user.ID) {
			likes := make([]string, 0, len(post.Likes))
			for _, id := range post.Likes {
				if id != user.ID {
					likes = append(likes, id)
				}
			}
			post.Likes = likes
			return
		}
		post.Likes = append(post.Likes, user.ID)
	})
}

// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Router /posts/{id}/comments [post]
func (s *Server) commentPost(c *gin.Context) {
	user, _ := currentUser(c)

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		fail(c, http.StatusBadRequest, "Comment text is required")
		return
	}

	s.updatePost(c, func(post *models.Post) {
		post.Comments = append(post.Comments, models.Comment{
			ID:        ulid.Make().String(),
			PostID:    post.ID,
			Author:    user.FullName(),
			AuthorID:  user.ID,
			Text:      text,
			Likes:     []string{},
			Replies:   []models.Comment{},
			CreatedAt: s.now().UTC().Format(time.RFC3339),
		})
	})
}

// updatePost loads the post named by the :id param, applies fn and saves it
// in one transaction, then answers with the stored post
func (s *Server) updatePost(c *gin.Context, fn func(*models.Post)) {
	var post models.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, c.Param("id"), &post); err != nil {
			return err
		}
		fn(&post)
		post.UpdatedAt = s.now().UTC().Format(time.RFC3339)
		return tx.Save(&post).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("post_id", c.Param("id")).Msg("Failed to update post")
		serverError(c, "Internal server error")
		return
	}

	success(c, http.StatusOK, "", gin.H{"post": post})
}
