package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

type fixture struct {
	db       *gorm.DB
	balance  *cache.BalanceCache
	redis    *miniredis.Miniredis
	studio   models.Studio
	customer models.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	f := &fixture{
		db:      db,
		balance: cache.NewBalanceCache(rdb, 5*time.Minute),
		redis:   mr,
	}

	f.studio = models.Studio{Name: "Studio Ost", Slug: "studio-ost", Timezone: "Europe/Berlin"}
	require.NoError(t, db.Create(&f.studio).Error)

	f.customer = models.Customer{StudioID: f.studio.ID, Name: "Lena Ahrens", Phone: "+4915200000005"}
	require.NoError(t, db.Create(&f.customer).Error)

	return f
}

func (f *fixture) block(t *testing.T, total, used int, status string) models.SessionBlock {
	t.Helper()

	block := models.SessionBlock{
		CustomerID:        f.customer.ID,
		StudioID:          f.studio.ID,
		TotalSessions:     total,
		UsedSessions:      used,
		RemainingSessions: total - used,
		Status:            status,
	}
	require.NoError(t, f.db.Create(&block).Error)

	return block
}

func TestGetBalance_ComputesFromBlocks(t *testing.T) {
	f := newFixture(t)
	uc := NewGetBalance(f.db, f.balance)

	active := f.block(t, 10, 3, ledger.BlockStatusActive)
	f.block(t, 10, 0, ledger.BlockStatusPending)
	f.block(t, 10, 0, ledger.BlockStatusPending)
	f.block(t, 5, 5, ledger.BlockStatusCompleted)

	out, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	require.NotNil(t, out.ActiveBlockID)
	assert.Equal(t, active.ID, *out.ActiveBlockID)
	assert.Equal(t, 7, out.ActiveBlockRemaining)
	assert.Equal(t, 2, out.PendingBlocksCount)
}

func TestGetBalance_NoBlocks(t *testing.T) {
	f := newFixture(t)
	uc := NewGetBalance(f.db, f.balance)

	out, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Nil(t, out.ActiveBlockID)
	assert.Equal(t, 0, out.ActiveBlockRemaining)
	assert.Equal(t, 0, out.PendingBlocksCount)
}

func TestGetBalance_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	uc := NewGetBalance(f.db, f.balance)

	_, err := uc.Execute(context.Background(), f.studio.ID, 999)
	require.Error(t, err)
}

func TestGetBalance_ServesFromCache(t *testing.T) {
	f := newFixture(t)
	uc := NewGetBalance(f.db, f.balance)

	f.block(t, 10, 0, ledger.BlockStatusActive)

	first, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, first.ActiveBlockRemaining)

	// Mutate the DB behind the cache's back; the stale value must win
	// until the entry is invalidated.
	require.NoError(t, f.db.Model(&models.SessionBlock{}).
		Where("customer_id = ?", f.customer.ID).
		Update("remaining_sessions", 4).Error)

	cached, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cached.ActiveBlockRemaining)

	f.balance.Invalidate(context.Background(), f.customer.ID)

	fresh, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.ActiveBlockRemaining)
}

// A warmed cache entry must never answer a studio the customer does
// not belong to.
func TestGetBalance_ForeignStudioGetsNotFoundDespiteWarmCache(t *testing.T) {
	f := newFixture(t)
	uc := NewGetBalance(f.db, f.balance)

	f.block(t, 10, 0, ledger.BlockStatusActive)

	// Owning studio warms the cache.
	out, err := uc.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	require.Equal(t, 10, out.ActiveBlockRemaining)

	other := models.Studio{Name: "Studio West", Slug: "studio-west", Timezone: "Europe/Berlin"}
	require.NoError(t, f.db.Create(&other).Error)

	_, err = uc.Execute(context.Background(), other.ID, f.customer.ID)
	require.Error(t, err)
}

func TestPurchaseBlock_FirstActivatesRestQueue(t *testing.T) {
	f := newFixture(t)
	uc := NewPurchaseBlock(f.db, f.balance, nil)

	first, err := uc.Execute(context.Background(), PurchaseBlockInput{
		StudioID:      f.studio.ID,
		CustomerID:    f.customer.ID,
		TotalSessions: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.BlockStatusActive, first.Status)
	require.NotNil(t, first.ActivationDate)

	second, err := uc.Execute(context.Background(), PurchaseBlockInput{
		StudioID:      f.studio.ID,
		CustomerID:    f.customer.ID,
		TotalSessions: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.BlockStatusPending, second.Status)
	assert.Nil(t, second.ActivationDate)

	var activeCount int64
	require.NoError(t, f.db.Model(&models.SessionBlock{}).
		Where("customer_id = ? AND status = ?", f.customer.ID, ledger.BlockStatusActive).
		Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)
}

func TestPurchaseBlock_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	balanceUC := NewGetBalance(f.db, f.balance)
	purchaseUC := NewPurchaseBlock(f.db, f.balance, nil)

	empty, err := balanceUC.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Nil(t, empty.ActiveBlockID)

	_, err = purchaseUC.Execute(context.Background(), PurchaseBlockInput{
		StudioID:      f.studio.ID,
		CustomerID:    f.customer.ID,
		TotalSessions: 10,
	})
	require.NoError(t, err)

	after, err := balanceUC.Execute(context.Background(), f.studio.ID, f.customer.ID)
	require.NoError(t, err)
	require.NotNil(t, after.ActiveBlockID)
	assert.Equal(t, 10, after.ActiveBlockRemaining)
}

func TestPurchaseBlock_RejectsNonPositiveTotal(t *testing.T) {
	f := newFixture(t)
	uc := NewPurchaseBlock(f.db, f.balance, nil)

	_, err := uc.Execute(context.Background(), PurchaseBlockInput{
		StudioID:      f.studio.ID,
		CustomerID:    f.customer.ID,
		TotalSessions: 0,
	})
	require.Error(t, err)
}
