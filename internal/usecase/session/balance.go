package session

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	"github.com/Danx101/AIL-APP-sub003/internal/dto"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// GetBalance answers "how many sessions does this customer still have":
// the active block's remaining count plus how many blocks wait behind
// it. Read-through cached in redis.
type GetBalance struct {
	db      *gorm.DB
	balance *cache.BalanceCache
}

func NewGetBalance(
	db *gorm.DB,
	balance *cache.BalanceCache,
) *GetBalance {
	return &GetBalance{
		db:      db,
		balance: balance,
	}
}

func (uc *GetBalance) Execute(
	ctx context.Context,
	studioID uint,
	customerID uint,
) (*dto.SessionBalanceDTO, error) {

	// Scope check first: the cache key is per customer, so a tenant
	// must never be answered from an entry another studio warmed.
	var customer models.Customer
	if err := uc.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", customerID, studioID).
		First(&customer).Error; err != nil {
		return nil, httperr.ErrBusiness("customer_not_found")
	}

	if cached, ok := uc.balance.Get(ctx, customerID); ok {
		return cached, nil
	}

	out := dto.SessionBalanceDTO{CustomerID: customerID}

	var active models.SessionBlock
	err := uc.db.WithContext(ctx).
		Where(
			"customer_id = ? AND status = ?",
			customerID, ledger.BlockStatusActive,
		).
		First(&active).Error

	if err == nil {
		out.ActiveBlockID = &active.ID
		out.ActiveBlockRemaining = active.RemainingSessions
		out.ActiveBlockStatus = active.Status
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var pendingCount int64
	if err := uc.db.WithContext(ctx).
		Model(&models.SessionBlock{}).
		Where(
			"customer_id = ? AND status = ?",
			customerID, ledger.BlockStatusPending,
		).
		Count(&pendingCount).Error; err != nil {
		return nil, err
	}
	out.PendingBlocksCount = int(pendingCount)

	uc.balance.Set(ctx, customerID, out)

	return &out, nil
}
