package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ===============================
// Block / transaction vocabulary
// ===============================

const (
	BlockStatusPending   = "pending"
	BlockStatusActive    = "active"
	BlockStatusCompleted = "completed"

	TxTypeDeduction        = "deduction"
	TxTypeRefund           = "refund"
	TxTypeManualAdjustment = "manual_adjustment"
)

// Outcome reports what a completion did to the ledger.
type Outcome string

const (
	OutcomeDeducted          Outcome = "DEDUCTED"
	OutcomeAlreadyConsumed   Outcome = "ALREADY_CONSUMED"
	OutcomeNoCreditAvailable Outcome = "NO_CREDIT_AVAILABLE"
	OutcomeNotConsuming      Outcome = "NOT_CONSUMING"
)

// Service applies the credit consequence of appointment transitions.
// Every method runs inside a caller-owned transaction and mutates the
// passed appointment; persisting the appointment row stays with the
// caller so status and ledger commit or roll back together.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ===============================
// ApplyCompletion
// ===============================

// ApplyCompletion deducts one credit from the customer's active block.
// Guarded by the appointment's SessionConsumed flag, so calling it a
// second time is a no-op. A customer without remaining credit still
// completes (pay-per-session), reported as OutcomeNoCreditAvailable.
func (s *Service) ApplyCompletion(
	tx *gorm.DB,
	ap *models.Appointment,
	consumesSession bool,
	now time.Time,
	actorID *uint,
) (Outcome, error) {

	if ap.SessionConsumed {
		return OutcomeAlreadyConsumed, nil
	}

	if !consumesSession {
		return OutcomeNotConsuming, nil
	}

	var block models.SessionBlock
	err := dbpkg.LockForUpdate(tx).
		Where(
			"customer_id = ? AND status = ?",
			ap.CustomerID, BlockStatusActive,
		).
		First(&block).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OutcomeNoCreditAvailable, nil
	}
	if err != nil {
		return "", err
	}

	if block.RemainingSessions <= 0 || block.UsedSessions >= block.TotalSessions {
		return "", &InconsistencyError{
			BlockID: block.ID,
			Delta:   -1,
			Detail:  "active block has no remaining sessions",
		}
	}

	block.UsedSessions++
	block.RemainingSessions--

	if block.RemainingSessions == 0 {
		block.Status = BlockStatusCompleted
	}

	if err := tx.Save(&block).Error; err != nil {
		return "", err
	}

	if block.Status == BlockStatusCompleted {
		if err := s.promoteNextPending(tx, ap.CustomerID, now); err != nil {
			return "", err
		}
	}

	entry := models.SessionTransaction{
		CustomerID:     ap.CustomerID,
		StudioID:       ap.StudioID,
		SessionBlockID: block.ID,
		AppointmentID:  &ap.ID,
		Type:           TxTypeDeduction,
		Amount:         -1,
		Reason:         "appointment completed",
		CreatedByID:    actorID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return "", err
	}

	ap.SessionConsumed = true

	return OutcomeDeducted, nil
}

// promoteNextPending activates the oldest pending block, if any. Runs
// in the same transaction as the deduction that exhausted the previous
// active block, keeping the one-active-block invariant.
func (s *Service) promoteNextPending(
	tx *gorm.DB,
	customerID uint,
	now time.Time,
) error {

	var next models.SessionBlock
	err := dbpkg.LockForUpdate(tx).
		Where(
			"customer_id = ? AND status = ?",
			customerID, BlockStatusPending,
		).
		Order("created_at ASC, id ASC").
		First(&next).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	next.Status = BlockStatusActive
	next.ActivationDate = &now

	return tx.Save(&next).Error
}

// ===============================
// ReverseCompletion
// ===============================

// ReverseCompletion undoes a deduction when a completed appointment is
// administratively corrected. The block is located through the original
// deduction row, never re-derived from the active pointer. A block that
// became completed is only re-activated if no other block has taken the
// active slot in the meantime.
func (s *Service) ReverseCompletion(
	tx *gorm.DB,
	ap *models.Appointment,
	reason string,
	actorID *uint,
) error {

	if !ap.SessionConsumed {
		return ErrNotConsumed
	}

	var deduction models.SessionTransaction
	err := tx.
		Where(
			"appointment_id = ? AND type = ?",
			ap.ID, TxTypeDeduction,
		).
		Order("id DESC").
		First(&deduction).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &InconsistencyError{
			Delta:  1,
			Detail: "no deduction row found for consumed appointment",
		}
	}
	if err != nil {
		return err
	}

	var block models.SessionBlock
	err = dbpkg.LockForUpdate(tx).
		Where("id = ?", deduction.SessionBlockID).
		First(&block).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &InconsistencyError{
			BlockID: deduction.SessionBlockID,
			Delta:   1,
			Detail:  "deducted block no longer exists",
		}
	}
	if err != nil {
		return err
	}

	if block.UsedSessions <= 0 || block.RemainingSessions >= block.TotalSessions {
		return &InconsistencyError{
			BlockID: block.ID,
			Delta:   1,
			Detail:  "refund would leave counters out of range",
		}
	}

	block.UsedSessions--
	block.RemainingSessions++

	if block.Status == BlockStatusCompleted {
		var otherActive int64
		if err := tx.
			Model(&models.SessionBlock{}).
			Where(
				"customer_id = ? AND status = ? AND id <> ?",
				block.CustomerID, BlockStatusActive, block.ID,
			).
			Count(&otherActive).Error; err != nil {
			return err
		}

		// Never rewind the active pointer under a newer block.
		if otherActive == 0 {
			block.Status = BlockStatusActive
		}
	}

	if err := tx.Save(&block).Error; err != nil {
		return err
	}

	if reason == "" {
		reason = "completion reversed"
	}

	entry := models.SessionTransaction{
		CustomerID:     ap.CustomerID,
		StudioID:       ap.StudioID,
		SessionBlockID: block.ID,
		AppointmentID:  &ap.ID,
		Type:           TxTypeRefund,
		Amount:         1,
		Reason:         reason,
		CreatedByID:    actorID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	ap.SessionConsumed = false

	return nil
}

// ===============================
// ManualAdjustment
// ===============================

// ManualAdjustment moves a block's counters by a signed delta (positive
// credits sessions back, negative takes them away) and records it in
// the ledger. Used for administrative corrections only.
func (s *Service) ManualAdjustment(
	tx *gorm.DB,
	blockID uint,
	studioID uint,
	delta int,
	reason string,
	actorID *uint,
	now time.Time,
) (*models.SessionBlock, error) {

	if delta == 0 {
		return nil, &InconsistencyError{
			BlockID: blockID,
			Delta:   0,
			Detail:  "zero adjustment",
		}
	}

	var block models.SessionBlock
	err := dbpkg.LockForUpdate(tx).
		Where("id = ? AND studio_id = ?", blockID, studioID).
		First(&block).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &InconsistencyError{
			BlockID: blockID,
			Delta:   delta,
			Detail:  "block not found",
		}
	}
	if err != nil {
		return nil, err
	}

	remaining := block.RemainingSessions + delta
	used := block.UsedSessions - delta

	if remaining < 0 || remaining > block.TotalSessions ||
		used < 0 || used > block.TotalSessions {
		return nil, &InconsistencyError{
			BlockID: block.ID,
			Delta:   delta,
			Detail:  "adjustment would leave counters out of range",
		}
	}

	block.RemainingSessions = remaining
	block.UsedSessions = used

	if block.Status == BlockStatusActive && remaining == 0 {
		block.Status = BlockStatusCompleted
	}

	if err := tx.Save(&block).Error; err != nil {
		return nil, err
	}

	if block.Status == BlockStatusCompleted && remaining == 0 {
		if err := s.promoteNextPending(tx, block.CustomerID, now); err != nil {
			return nil, err
		}
	}

	entry := models.SessionTransaction{
		CustomerID:     block.CustomerID,
		StudioID:       block.StudioID,
		SessionBlockID: block.ID,
		Type:           TxTypeManualAdjustment,
		Amount:         delta,
		Reason:         reason,
		CreatedByID:    actorID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	return &block, nil
}
