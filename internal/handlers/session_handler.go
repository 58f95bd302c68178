package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/httpresp"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	ucSession "github.com/Danx101/AIL-APP-sub003/internal/usecase/session"
)

// ======================================================
// HANDLER
// ======================================================

type SessionHandler struct {
	db *gorm.DB

	purchaseUC *ucSession.PurchaseBlock
	reverseUC  *ucSession.ReverseCompletion
	adjustUC   *ucSession.AdjustBlock
}

func NewSessionHandler(
	db *gorm.DB,
	purchaseUC *ucSession.PurchaseBlock,
	reverseUC *ucSession.ReverseCompletion,
	adjustUC *ucSession.AdjustBlock,
) *SessionHandler {
	return &SessionHandler{
		db:         db,
		purchaseUC: purchaseUC,
		reverseUC:  reverseUC,
		adjustUC:   adjustUC,
	}
}

// --------- Requests ---------

type PurchaseBlockRequest struct {
	TotalSessions int    `json:"total_sessions" binding:"required,min=1"`
	ExpiryDate    string `json:"expiry_date"`
}

type ReverseCompletionRequest struct {
	Reason string `json:"reason"`
}

type AdjustBlockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// ======================================================
// PURCHASE
// ======================================================

func (h *SessionHandler) PurchaseBlock(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	customerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid customer id.")
		return
	}

	var req PurchaseBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	var expiry *time.Time
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			httperr.BadRequest(c, "invalid_expiry_date", "Invalid expiry date.")
			return
		}
		expiry = &t
	}

	block, err := h.purchaseUC.Execute(c.Request.Context(), ucSession.PurchaseBlockInput{
		StudioID:      studioID,
		CustomerID:    uint(customerID),
		TotalSessions: req.TotalSessions,
		ExpiryDate:    expiry,
		ActorID:       &userID,
	})
	if err != nil {
		switch {
		case httperr.IsBusiness(err, "customer_not_found"):
			httperr.NotFound(c, "customer_not_found", "Customer not found.")
		case httperr.IsBusiness(err, "invalid_total_sessions"):
			httperr.BadRequest(c, "invalid_total_sessions", "Total sessions must be positive.")
		default:
			httperr.Internal(c, "failed_to_purchase_block", "Could not create session block.")
		}
		return
	}

	httpresp.Created(c, block)
}

// ======================================================
// LIST BLOCKS
// ======================================================

func (h *SessionHandler) ListBlocks(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	customerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid customer id.")
		return
	}

	var blocks []models.SessionBlock
	if err := h.db.
		Where("customer_id = ? AND studio_id = ?", customerID, studioID).
		Order("created_at ASC, id ASC").
		Find(&blocks).Error; err != nil {

		httperr.Internal(c, "failed_to_list_blocks", "Could not list session blocks.")
		return
	}

	httpresp.List(c, blocks)
}

// ======================================================
// REVERSE COMPLETION
// ======================================================

func (h *SessionHandler) ReverseCompletion(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	apID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid appointment id.")
		return
	}

	var req ReverseCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	ap, err := h.reverseUC.Execute(
		c.Request.Context(),
		studioID,
		uint(apID),
		req.Reason,
		&userID,
	)
	if err != nil {
		switch {
		case err == ledger.ErrNotConsumed:
			httperr.BadRequest(c, "not_consumed", "Appointment never deducted a session.")
		case ledger.IsInconsistency(err):
			log.Printf("ledger inconsistency on reversal (appointment %d): %v", apID, err)
			httperr.Internal(c, "LEDGER_INCONSISTENT", "Session ledger is inconsistent.")
		case httperr.IsBusiness(err, "appointment_not_found"):
			httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		default:
			httperr.Internal(c, "failed_to_reverse", "Could not reverse completion.")
		}
		return
	}

	httpresp.OK(c, gin.H{
		"appointment":      ap,
		"session_consumed": ap.SessionConsumed,
	})
}

// ======================================================
// MANUAL ADJUSTMENT
// ======================================================

func (h *SessionHandler) AdjustBlock(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	blockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid block id.")
		return
	}

	var req AdjustBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	block, err := h.adjustUC.Execute(
		c.Request.Context(),
		studioID,
		uint(blockID),
		req.Delta,
		req.Reason,
		&userID,
	)
	if err != nil {
		if ledger.IsInconsistency(err) {
			log.Printf("rejected manual adjustment (block %d): %v", blockID, err)
			httperr.BadRequest(c, "invalid_adjustment", "Adjustment rejected: "+err.Error())
			return
		}
		httperr.Internal(c, "failed_to_adjust_block", "Could not adjust session block.")
		return
	}

	httpresp.OK(c, block)
}
