package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	"github.com/Danx101/AIL-APP-sub003/internal/timezone"
)

type StudioHandler struct {
	db *gorm.DB
}

func NewStudioHandler(db *gorm.DB) *StudioHandler {
	return &StudioHandler{db: db}
}

type UpdateStudioRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	City     *string `json:"city,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

func (h *StudioHandler) GetMeStudio(c *gin.Context) {
	studioIDVal, _ := c.Get(middleware.ContextStudioID)
	studioID := studioIDVal.(uint)

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "studio_not_found", "Studio not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_studio", "Could not load studio.")
		return
	}

	c.JSON(http.StatusOK, studio)
}

func (h *StudioHandler) UpdateMeStudio(c *gin.Context) {
	studioIDVal, _ := c.Get(middleware.ContextStudioID)
	studioID := studioIDVal.(uint)

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "studio_not_found", "Studio not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_studio", "Could not load studio.")
		return
	}

	var req UpdateStudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Name != nil {
		studio.Name = *req.Name
	}
	if req.Phone != nil {
		studio.Phone = *req.Phone
	}
	if req.Address != nil {
		studio.Address = *req.Address
	}
	if req.City != nil {
		studio.City = *req.City
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Unknown timezone.")
			return
		}
		studio.Timezone = *req.Timezone
	}

	if err := h.db.Save(&studio).Error; err != nil {
		httperr.Internal(c, "failed_to_update_studio", "Could not save studio.")
		return
	}

	c.JSON(http.StatusOK, studio)
}
