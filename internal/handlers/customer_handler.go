package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/httpresp"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	ucSession "github.com/Danx101/AIL-APP-sub003/internal/usecase/session"
	"github.com/Danx101/AIL-APP-sub003/internal/validators"
)

type CustomerHandler struct {
	db        *gorm.DB
	balanceUC *ucSession.GetBalance
}

func NewCustomerHandler(db *gorm.DB, balanceUC *ucSession.GetBalance) *CustomerHandler {
	return &CustomerHandler{
		db:        db,
		balanceUC: balanceUC,
	}
}

// --------- Requests ---------

type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// ======================================================
// LIST
// ======================================================

func (h *CustomerHandler) List(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.Where("studio_id = ?", studioID)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var customers []models.Customer
	if err := q.
		Order("created_at DESC").
		Find(&customers).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed_to_list_customers",
		})
		return
	}

	c.JSON(http.StatusOK, customers)
}

// ======================================================
// CREATE
// ======================================================

func (h *CustomerHandler) Create(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Email != "" && !validators.IsEmailDomainValid(req.Email) {
		httperr.BadRequest(c, "invalid_email_domain", "Email domain does not resolve.")
		return
	}

	customer := models.Customer{
		StudioID: studioID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Notes:    req.Notes,
	}

	if err := h.db.Create(&customer).Error; err != nil {
		httperr.Internal(c, "failed_to_create_customer", "Could not create customer.")
		return
	}

	httpresp.Created(c, customer)
}

// ======================================================
// GET
// ======================================================

func (h *CustomerHandler) Get(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid customer id.")
		return
	}

	var customer models.Customer
	if err := h.db.
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&customer).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "customer_not_found", "Customer not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_customer", "Could not load customer.")
		return
	}

	httpresp.OK(c, customer)
}

// ======================================================
// SESSION BALANCE
// ======================================================

func (h *CustomerHandler) SessionBalance(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid customer id.")
		return
	}

	balance, err := h.balanceUC.Execute(c.Request.Context(), studioID, uint(id))
	if err != nil {
		if httperr.IsBusiness(err, "customer_not_found") {
			httperr.NotFound(c, "customer_not_found", "Customer not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_balance", "Could not load session balance.")
		return
	}

	httpresp.OK(c, balance)
}

// ======================================================
// TRANSACTIONS
// ======================================================

func (h *CustomerHandler) Transactions(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid customer id.")
		return
	}

	var txs []models.SessionTransaction
	if err := h.db.
		Where("customer_id = ? AND studio_id = ?", id, studioID).
		Order("id DESC").
		Limit(200).
		Find(&txs).Error; err != nil {

		httperr.Internal(c, "failed_to_list_transactions", "Could not list transactions.")
		return
	}

	httpresp.List(c, txs)
}
