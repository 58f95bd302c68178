package session

import (
	"context"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ReverseCompletion is the explicit administrative action that refunds
// a deducted session. It corrects the ledger only; the appointment
// stays completed (terminal states never transition back).
type ReverseCompletion struct {
	db      *gorm.DB
	ledger  *ledger.Service
	balance *cache.BalanceCache
	audit   *audit.Dispatcher
}

func NewReverseCompletion(
	db *gorm.DB,
	ledgerSvc *ledger.Service,
	balance *cache.BalanceCache,
	auditDisp *audit.Dispatcher,
) *ReverseCompletion {
	return &ReverseCompletion{
		db:      db,
		ledger:  ledgerSvc,
		balance: balance,
		audit:   auditDisp,
	}
}

func (uc *ReverseCompletion) Execute(
	ctx context.Context,
	studioID uint,
	appointmentID uint,
	reason string,
	actorID *uint,
) (*models.Appointment, error) {

	var reversed models.Appointment

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

		if err := uc.ledger.ReverseCompletion(tx, &ap, reason, actorID); err != nil {
			return err
		}

		if err := tx.Save(&ap).Error; err != nil {
			return err
		}

		reversed = ap
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.balance.Invalidate(ctx, reversed.CustomerID)

	uc.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   actorID,
		Action:   "appointment_completion_reversed",
		Entity:   "appointment",
		EntityID: &reversed.ID,
		Metadata: map[string]any{
			"reason": reason,
		},
	})

	return &reversed, nil
}
