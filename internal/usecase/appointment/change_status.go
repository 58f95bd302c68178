package appointment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ChangeStatus runs the full transition for one appointment: validate
// against the rule table, mutate the row, apply the ledger effect for a
// completion. Everything happens in a single transaction behind a row
// lock, so status and credit can never diverge.
type ChangeStatus struct {
	db      *gorm.DB
	ledger  *ledger.Service
	balance *cache.BalanceCache
	audit   *audit.Dispatcher
}

func NewChangeStatus(
	db *gorm.DB,
	ledgerSvc *ledger.Service,
	balance *cache.BalanceCache,
	auditDisp *audit.Dispatcher,
) *ChangeStatus {
	return &ChangeStatus{
		db:      db,
		ledger:  ledgerSvc,
		balance: balance,
		audit:   auditDisp,
	}
}

type ChangeStatusResult struct {
	Appointment   *models.Appointment
	LedgerOutcome ledger.Outcome
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	studioID uint,
	appointmentID uint,
	requested domain.Status,
	now time.Time,
	actorID *uint,
) (*ChangeStatusResult, error) {

	var result ChangeStatusResult

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var ap models.Appointment
		if err := dbpkg.LockForUpdate(tx).
			Where("id = ? AND studio_id = ?", appointmentID, studioID).
			First(&ap).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return httperr.ErrBusiness("appointment_not_found")
			}
			return err
		}

		from := domain.Status(ap.Status)

		if terr := domain.Apply(&ap, requested, now, actorID); terr != nil {
			return terr
		}

		// Only a real transition into completed touches the ledger. An
		// identity retry of a completed appointment is a no-op, even
		// when the first completion found no credit to deduct.
		if requested == domain.StatusCompleted && from != domain.StatusCompleted {
			var apType models.AppointmentType
			if err := tx.First(&apType, ap.AppointmentTypeID).Error; err != nil {
				return err
			}

			outcome, err := uc.ledger.ApplyCompletion(
				tx,
				&ap,
				apType.ConsumesSession,
				now,
				actorID,
			)
			if err != nil {
				return err
			}
			result.LedgerOutcome = outcome
		}

		if err := tx.Save(&ap).Error; err != nil {
			return err
		}

		result.Appointment = &ap
		return nil
	})

	if err != nil {
		return nil, err
	}

	if result.LedgerOutcome == ledger.OutcomeDeducted {
		uc.balance.Invalidate(ctx, result.Appointment.CustomerID)
	}

	uc.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   actorID,
		Action:   "appointment_status_" + string(requested),
		Entity:   "appointment",
		EntityID: &result.Appointment.ID,
		Metadata: map[string]any{
			"ledger_outcome": result.LedgerOutcome,
		},
	})

	return &result, nil
}
