package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/httpresp"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	"github.com/Danx101/AIL-APP-sub003/internal/validators"
)

type LeadHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewLeadHandler(db *gorm.DB, auditDisp *audit.Dispatcher) *LeadHandler {
	return &LeadHandler{
		db:    db,
		audit: auditDisp,
	}
}

// --------- Requests ---------

type CreateLeadRequest struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Source string `json:"source"`
}

type UpdateLeadRequest struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Email  *string `json:"email,omitempty"`
	Source *string `json:"source,omitempty"`
	Status *string `json:"status,omitempty"`
}

// --------- Handlers ---------

func (h *LeadHandler) List(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))

	q := h.db.Where("studio_id = ?", studioID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := q.
		Order("created_at DESC").
		Find(&leads).Error; err != nil {

		httperr.Internal(c, "failed_to_list_leads", "Could not list leads.")
		return
	}

	httpresp.List(c, leads)
}

func (h *LeadHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Email != "" && !validators.IsEmailDomainValid(req.Email) {
		httperr.BadRequest(c, "invalid_email_domain", "Email domain does not resolve.")
		return
	}

	lead := models.Lead{
		StudioID: studioID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Source:   req.Source,
		Status:   "new",
		Token:    uuid.NewString(),
	}

	if err := h.db.Create(&lead).Error; err != nil {
		httperr.Internal(c, "failed_to_create_lead", "Could not create lead.")
		return
	}

	h.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   &userID,
		Action:   "lead_created",
		Entity:   "lead",
		EntityID: &lead.ID,
	})

	httpresp.Created(c, lead)
}

func (h *LeadHandler) Update(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id := c.Param("id")

	var lead models.Lead
	if err := h.db.
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&lead).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "lead_not_found", "Lead not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_lead", "Could not load lead.")
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Source != nil {
		lead.Source = *req.Source
	}
	if req.Status != nil {
		switch *req.Status {
		case "new", "contacted", "lost":
			lead.Status = *req.Status
		default:
			httperr.BadRequest(c, "invalid_lead_status", "Use the convert endpoint to convert a lead.")
			return
		}
	}

	if err := h.db.Save(&lead).Error; err != nil {
		httperr.Internal(c, "failed_to_update_lead", "Could not update lead.")
		return
	}

	httpresp.OK(c, lead)
}

// Convert turns a lead into a customer and links the two records.
func (h *LeadHandler) Convert(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid lead id.")
		return
	}

	var converted models.Lead

	err = h.db.Transaction(func(tx *gorm.DB) error {

		var lead models.Lead
		if err := tx.
			Where("id = ? AND studio_id = ?", id, studioID).
			First(&lead).Error; err != nil {
			return httperr.ErrBusiness("lead_not_found")
		}

		if lead.Status == "converted" {
			return httperr.ErrBusiness("already_converted")
		}

		customer := models.Customer{
			StudioID: studioID,
			Name:     lead.Name,
			Phone:    lead.Phone,
			Email:    lead.Email,
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		lead.Status = "converted"
		lead.CustomerID = &customer.ID
		if err := tx.Save(&lead).Error; err != nil {
			return err
		}

		converted = lead
		return nil
	})

	if err != nil {
		switch {
		case httperr.IsBusiness(err, "lead_not_found"):
			httperr.NotFound(c, "lead_not_found", "Lead not found.")
		case httperr.IsBusiness(err, "already_converted"):
			httperr.Conflict(c, "already_converted", "Lead was already converted.")
		default:
			httperr.Internal(c, "failed_to_convert_lead", "Could not convert lead.")
		}
		return
	}

	h.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   &userID,
		Action:   "lead_converted",
		Entity:   "lead",
		EntityID: &converted.ID,
		Metadata: map[string]any{
			"customer_id": converted.CustomerID,
		},
	})

	httpresp.OK(c, converted)
}
