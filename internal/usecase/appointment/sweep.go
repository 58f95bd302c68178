package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// Sweep auto-completes confirmed appointments whose window has passed.
// Each row gets its own transaction, so one bad ledger does not block
// the rest, and a re-run sees already-completed rows filtered out.
type Sweep struct {
	db      *gorm.DB
	ledger  *ledger.Service
	balance *cache.BalanceCache
	audit   *audit.Dispatcher
}

func NewSweep(
	db *gorm.DB,
	ledgerSvc *ledger.Service,
	balance *cache.BalanceCache,
	auditDisp *audit.Dispatcher,
) *Sweep {
	return &Sweep{
		db:      db,
		ledger:  ledgerSvc,
		balance: balance,
		audit:   auditDisp,
	}
}

type SweepFailure struct {
	AppointmentID uint   `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type SweepResult struct {
	UpdatedCount int            `json:"updated_count"`
	Failures     []SweepFailure `json:"failures"`
}

func (uc *Sweep) Execute(
	ctx context.Context,
	studioID *uint,
	now time.Time,
) (*SweepResult, error) {

	q := uc.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("status = ? AND end_time <= ?", string(domain.StatusConfirmed), now)

	if studioID != nil {
		q = q.Where("studio_id = ?", *studioID)
	}

	var ids []uint
	if err := q.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	result := &SweepResult{Failures: []SweepFailure{}}

	for _, id := range ids {
		if err := uc.completeOne(ctx, id, now); err != nil {
			if errors.Is(err, errSweepSkip) {
				continue
			}

			reason := err.Error()
			if ledger.IsInconsistency(err) {
				reason = "LEDGER_INCONSISTENT"
			}
			result.Failures = append(result.Failures, SweepFailure{
				AppointmentID: id,
				Reason:        reason,
			})
			continue
		}
		result.UpdatedCount++
	}

	return result, nil
}

// errSweepSkip marks rows another writer finished between the candidate
// query and the per-row lock.
var errSweepSkip = errors.New("sweep: row no longer eligible")

func (uc *Sweep) completeOne(
	ctx context.Context,
	appointmentID uint,
	now time.Time,
) error {

	var completed models.Appointment
	var outcome ledger.Outcome

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var ap models.Appointment
		if err := dbpkg.LockForUpdate(tx).
			First(&ap, appointmentID).Error; err != nil {
			return err
		}

		// Re-check under the lock.
		if domain.Status(ap.Status) != domain.StatusConfirmed || ap.EndTime.After(now) {
			return errSweepSkip
		}

		if terr := domain.Complete(&ap, now); terr != nil {
			return terr
		}

		var apType models.AppointmentType
		if err := tx.First(&apType, ap.AppointmentTypeID).Error; err != nil {
			return err
		}

		out, err := uc.ledger.ApplyCompletion(tx, &ap, apType.ConsumesSession, now, nil)
		if err != nil {
			return err
		}
		outcome = out

		if err := tx.Save(&ap).Error; err != nil {
			return err
		}

		completed = ap
		return nil
	})

	if err != nil {
		return err
	}

	if outcome == ledger.OutcomeDeducted {
		uc.balance.Invalidate(ctx, completed.CustomerID)
	}

	uc.audit.Dispatch(audit.Event{
		StudioID: completed.StudioID,
		Action:   "appointment_auto_completed",
		Entity:   "appointment",
		EntityID: &completed.ID,
		Metadata: map[string]any{
			"ledger_outcome": outcome,
		},
	})

	return nil
}
