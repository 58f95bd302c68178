package session

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// PurchaseBlock records a purchased credit package. The first block a
// customer owns becomes active immediately; further purchases queue as
// pending behind it. The uniqueness of the active block is maintained
// here on the write path, not by a cleanup job.
type PurchaseBlock struct {
	db      *gorm.DB
	balance *cache.BalanceCache
	audit   *audit.Dispatcher
}

func NewPurchaseBlock(
	db *gorm.DB,
	balance *cache.BalanceCache,
	auditDisp *audit.Dispatcher,
) *PurchaseBlock {
	return &PurchaseBlock{
		db:      db,
		balance: balance,
		audit:   auditDisp,
	}
}

type PurchaseBlockInput struct {
	StudioID      uint
	CustomerID    uint
	TotalSessions int
	ExpiryDate    *time.Time
	ActorID       *uint
}

func (uc *PurchaseBlock) Execute(
	ctx context.Context,
	in PurchaseBlockInput,
) (*models.SessionBlock, error) {

	if in.TotalSessions <= 0 {
		return nil, httperr.ErrBusiness("invalid_total_sessions")
	}

	var block models.SessionBlock

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var customer models.Customer
		if err := tx.
			Where("id = ? AND studio_id = ?", in.CustomerID, in.StudioID).
			First(&customer).Error; err != nil {
			return httperr.ErrBusiness("customer_not_found")
		}

		// Lock the active rows themselves; postgres refuses FOR UPDATE
		// on an aggregate.
		var activeIDs []uint
		if err := dbpkg.LockForUpdate(tx).
			Model(&models.SessionBlock{}).
			Where(
				"customer_id = ? AND status = ?",
				in.CustomerID, ledger.BlockStatusActive,
			).
			Pluck("id", &activeIDs).Error; err != nil {
			return err
		}

		block = models.SessionBlock{
			CustomerID:        in.CustomerID,
			StudioID:          in.StudioID,
			TotalSessions:     in.TotalSessions,
			RemainingSessions: in.TotalSessions,
			Status:            ledger.BlockStatusPending,
			ExpiryDate:        in.ExpiryDate,
		}

		if len(activeIDs) == 0 {
			now := time.Now()
			block.Status = ledger.BlockStatusActive
			block.ActivationDate = &now
		}

		return tx.Create(&block).Error
	})

	if err != nil {
		return nil, err
	}

	uc.balance.Invalidate(ctx, in.CustomerID)

	uc.audit.Dispatch(audit.Event{
		StudioID: in.StudioID,
		UserID:   in.ActorID,
		Action:   "session_block_purchased",
		Entity:   "session_block",
		EntityID: &block.ID,
		Metadata: map[string]any{
			"total_sessions": in.TotalSessions,
			"status":         block.Status,
		},
	})

	return &block, nil
}
