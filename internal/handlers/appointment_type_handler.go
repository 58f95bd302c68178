package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

type AppointmentTypeHandler struct {
	db *gorm.DB
}

func NewAppointmentTypeHandler(db *gorm.DB) *AppointmentTypeHandler {
	return &AppointmentTypeHandler{db: db}
}

// --------- Requests ---------

type CreateAppointmentTypeRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	DurationMin     int    `json:"duration_min" binding:"required,min=1"`
	ConsumesSession *bool  `json:"consumes_session"`
}

type UpdateAppointmentTypeRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	DurationMin     *int    `json:"duration_min,omitempty"`
	ConsumesSession *bool   `json:"consumes_session,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *AppointmentTypeHandler) List(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	activeStr := strings.TrimSpace(c.Query("active"))

	q := h.db.Where("studio_id = ?", studioID)

	if activeStr == "true" {
		q = q.Where("active = ?", true)
	} else if activeStr == "false" {
		q = q.Where("active = ?", false)
	}

	var types []models.AppointmentType
	if err := q.
		Order("id ASC").
		Find(&types).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_list_types"})
		return
	}

	c.JSON(http.StatusOK, types)
}

func (h *AppointmentTypeHandler) Create(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var req CreateAppointmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	consumes := true
	if req.ConsumesSession != nil {
		consumes = *req.ConsumesSession
	}

	apType := models.AppointmentType{
		StudioID:        studioID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMin:     req.DurationMin,
		ConsumesSession: consumes,
		Active:          true,
	}

	if err := h.db.Create(&apType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_create_type"})
		return
	}

	c.JSON(http.StatusCreated, apType)
}

func (h *AppointmentTypeHandler) Update(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id := c.Param("id")

	var apType models.AppointmentType
	if err := h.db.
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&apType).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "type_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_type"})
		return
	}

	var req UpdateAppointmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	if req.Name != nil {
		apType.Name = *req.Name
	}
	if req.Description != nil {
		apType.Description = *req.Description
	}
	if req.DurationMin != nil {
		apType.DurationMin = *req.DurationMin
	}
	if req.ConsumesSession != nil {
		apType.ConsumesSession = *req.ConsumesSession
	}
	if req.Active != nil {
		apType.Active = *req.Active
	}

	if err := h.db.Save(&apType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_update_type"})
		return
	}

	c.JSON(http.StatusOK, apType)
}
