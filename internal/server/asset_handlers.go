package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// @Summary List assets
// @Tags assets
// @Produce json
// @Router /assets [get]
func (s *Server) listAssets(c *gin.Context) {
	var assets []models.Asset
	if err := s.db.Order("created_at ASC").Find(&assets).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assets")
		serverError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(assets),
		"data":    gin.H{"assets": assets},
	})
}

// @Summary Create an asset
// @Tags assets
// @Accept json
// @Produce json
// @Router /assets [post]
func (s *Server) createAsset(c *gin.Context) {
	var asset models.Asset
	if err := c.ShouldBindJSON(&asset); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	asset.ID = ""
	asset.Code = strings.TrimSpace(asset.Code)
	if asset.Status == "" {
		asset.Status = "available"
	}

	var existing int64
	if err := s.db.Model(&models.Asset{}).Where("code = ?", asset.Code).Count(&existing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check asset code")
		serverError(c, "Internal server error")
		return
	}
	if existing > 0 {
		fail(c, http.StatusConflict, "An asset with this code already exists")
		return
	}

	if err := s.db.Create(&asset).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create asset")
		serverError(c, "Internal server error")
		return
	}

	s.logger.Info().Str("asset_id", asset.ID).Str("code", asset.Code).Msg("Asset created")
	success(c, http.StatusCreated, "", gin.H{"asset": asset})
}
