package handlers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/httpresp"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	ucAppointment "github.com/Danx101/AIL-APP-sub003/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	db *gorm.DB

	createUC       *ucAppointment.CreateAppointment
	changeStatusUC *ucAppointment.ChangeStatus
	sweepUC        *ucAppointment.Sweep
	deleteUC       *ucAppointment.DeleteAppointment
	listByDateUC   *ucAppointment.ListAppointmentsByDate
	listByMonthUC  *ucAppointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(
	db *gorm.DB,
	createUC *ucAppointment.CreateAppointment,
	changeStatusUC *ucAppointment.ChangeStatus,
	sweepUC *ucAppointment.Sweep,
	deleteUC *ucAppointment.DeleteAppointment,
	listByDateUC *ucAppointment.ListAppointmentsByDate,
	listByMonthUC *ucAppointment.ListAppointmentsByMonth,
) *AppointmentHandler {
	return &AppointmentHandler{
		db:             db,
		createUC:       createUC,
		changeStatusUC: changeStatusUC,
		sweepUC:        sweepUC,
		deleteUC:       deleteUC,
		listByDateUC:   listByDateUC,
		listByMonthUC:  listByMonthUC,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	CustomerID    uint   `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	AppointmentTypeID uint   `json:"appointment_type_id" binding:"required"`
	Date              string `json:"date" binding:"required"`
	Time              string `json:"time" binding:"required"`
	Notes             string `json:"notes"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.CustomerID == 0 && (req.CustomerName == "" || req.CustomerPhone == "") {
		httperr.BadRequest(c, "missing_customer", "Customer id or name and phone required.")
		return
	}

	ap, err := h.createUC.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		StudioID:          studioID,
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		CustomerEmail:     req.CustomerEmail,
		AppointmentTypeID: req.AppointmentTypeID,
		Date:              req.Date,
		Time:              req.Time,
		Notes:             req.Notes,
		CreatedByID:       &userID,
	})
	if err != nil {
		switch {
		case httperr.IsBusiness(err, "invalid_date_or_time"):
			httperr.BadRequest(c, "invalid_date_or_time", "Invalid date or time.")
		case httperr.IsBusiness(err, "start_in_past"):
			httperr.BadRequest(c, "start_in_past", "Appointment start lies in the past.")
		case httperr.IsBusiness(err, "appointment_type_not_found"):
			httperr.BadRequest(c, "appointment_type_not_found", "Appointment type not found.")
		case httperr.IsBusiness(err, "invalid_type_duration"):
			httperr.BadRequest(c, "invalid_type_duration", "Appointment type has no duration.")
		case httperr.IsBusiness(err, "customer_not_found"):
			httperr.BadRequest(c, "customer_not_found", "Customer not found.")
		case httperr.IsBusiness(err, "time_conflict"):
			httperr.Conflict(c, "time_conflict", "Another appointment occupies this slot.")
		default:
			httperr.Internal(c, "failed_to_create_appointment", "Could not create appointment.")
		}
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// CHANGE STATUS
// ======================================================

func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	apID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid appointment id.")
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	requested, ok := domain.ParseStatus(req.Status)
	if !ok {
		httperr.BadRequest(c, "unknown_status", "Unknown status value.")
		return
	}

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		httperr.Internal(c, "studio_not_found", "Studio not found.")
		return
	}

	result, err := h.changeStatusUC.Execute(
		c.Request.Context(),
		studioID,
		uint(apID),
		requested,
		nowInStudio(&studio),
		&userID,
	)
	if err != nil {
		var terr *domain.TransitionError
		switch {
		case errors.As(err, &terr):
			httperr.Transition(
				c,
				string(terr.Reason),
				transitionMessage(terr),
				terr.AppointmentStart,
				terr.EvaluatedAt,
			)
		case ledger.IsInconsistency(err):
			log.Printf("ledger inconsistency on status change (appointment %d): %v", apID, err)
			httperr.Internal(c, "LEDGER_INCONSISTENT", "Session ledger is inconsistent.")
		case httperr.IsBusiness(err, "appointment_not_found"):
			httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		default:
			httperr.Internal(c, "failed_to_change_status", "Could not change status.")
		}
		return
	}

	httpresp.OK(c, gin.H{
		"new_status":     result.Appointment.Status,
		"ledger_outcome": result.LedgerOutcome,
		"appointment":    result.Appointment,
	})
}

func transitionMessage(terr *domain.TransitionError) string {
	switch terr.Reason {
	case domain.ReasonNotStarted:
		return "Appointment has not started yet."
	case domain.ReasonTerminalState:
		return "Appointment is already in a final state."
	case domain.ReasonNotConfirmed:
		return "Only confirmed appointments can be completed."
	}
	return "Status change not allowed."
}

// ======================================================
// SWEEP
// ======================================================

func (h *AppointmentHandler) Sweep(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		httperr.Internal(c, "studio_not_found", "Studio not found.")
		return
	}

	result, err := h.sweepUC.Execute(
		c.Request.Context(),
		&studioID,
		nowInStudio(&studio),
	)
	if err != nil {
		httperr.Internal(c, "sweep_failed", "Auto-completion sweep failed.")
		return
	}

	httpresp.OK(c, result)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Date is required.")
		return
	}

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		httperr.Internal(c, "studio_not_found", "Studio not found.")
		return
	}

	date, err := parseDateInStudio(&studio, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	out, err := h.listByDateUC.Execute(c.Request.Context(), studioID, date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Could not list appointments.")
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Valid year and month required.")
		return
	}

	out, err := h.listByMonthUC.Execute(
		c.Request.Context(),
		studioID,
		year,
		time.Month(month),
	)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Could not list appointments.")
		return
	}

	httpresp.List(c, out)
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	apID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid appointment id.")
		return
	}

	if err := h.deleteUC.Execute(
		c.Request.Context(),
		studioID,
		uint(apID),
		&userID,
	); err != nil {
		switch {
		case httperr.IsBusiness(err, "appointment_not_found"):
			httperr.NotFound(c, "appointment_not_found", "Appointment not found.")
		case httperr.IsBusiness(err, "session_still_consumed"):
			httperr.Conflict(c, "session_still_consumed", "Reverse the session deduction first.")
		default:
			httperr.Internal(c, "failed_to_delete_appointment", "Could not delete appointment.")
		}
		return
	}

	httpresp.OK(c, gin.H{"deleted": true})
}
