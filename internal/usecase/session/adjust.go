package session

import (
	"context"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	"github.com/Danx101/AIL-APP-sub003/internal/timezone"
)

// AdjustBlock lets staff correct a block's counters with a signed
// delta, recorded as a manual_adjustment ledger row.
type AdjustBlock struct {
	db      *gorm.DB
	ledger  *ledger.Service
	balance *cache.BalanceCache
	audit   *audit.Dispatcher
}

func NewAdjustBlock(
	db *gorm.DB,
	ledgerSvc *ledger.Service,
	balance *cache.BalanceCache,
	auditDisp *audit.Dispatcher,
) *AdjustBlock {
	return &AdjustBlock{
		db:      db,
		ledger:  ledgerSvc,
		balance: balance,
		audit:   auditDisp,
	}
}

func (uc *AdjustBlock) Execute(
	ctx context.Context,
	studioID uint,
	blockID uint,
	delta int,
	reason string,
	actorID *uint,
) (*models.SessionBlock, error) {

	now := timezone.Now()

	var adjusted *models.SessionBlock

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block, err := uc.ledger.ManualAdjustment(
			tx,
			blockID,
			studioID,
			delta,
			reason,
			actorID,
			now,
		)
		if err != nil {
			return err
		}
		adjusted = block
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.balance.Invalidate(ctx, adjusted.CustomerID)

	uc.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   actorID,
		Action:   "session_block_adjusted",
		Entity:   "session_block",
		EntityID: &adjusted.ID,
		Metadata: map[string]any{
			"delta":  delta,
			"reason": reason,
		},
	})

	return adjusted, nil
}
