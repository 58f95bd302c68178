package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()

	studio := models.Studio{Name: "Studio Mitte", Slug: "studio-mitte", Timezone: "Europe/Berlin"}
	require.NoError(t, db.Create(&studio).Error)

	customer := models.Customer{StudioID: studio.ID, Name: "Anna Schmidt", Phone: "+4915200000001"}
	require.NoError(t, db.Create(&customer).Error)

	return customer
}

func seedBlock(t *testing.T, db *gorm.DB, customer models.Customer, total, used int, status string) models.SessionBlock {
	t.Helper()

	block := models.SessionBlock{
		CustomerID:        customer.ID,
		StudioID:          customer.StudioID,
		TotalSessions:     total,
		UsedSessions:      used,
		RemainingSessions: total - used,
		Status:            status,
	}
	if status == BlockStatusActive {
		now := time.Now()
		block.ActivationDate = &now
	}
	require.NoError(t, db.Create(&block).Error)

	return block
}

func seedAppointment(t *testing.T, db *gorm.DB, customer models.Customer, status string) models.Appointment {
	t.Helper()

	apType := models.AppointmentType{
		StudioID:        customer.StudioID,
		Name:            "Treatment",
		DurationMin:     60,
		ConsumesSession: true,
		Active:          true,
	}
	require.NoError(t, db.Create(&apType).Error)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := models.Appointment{
		StudioID:          customer.StudioID,
		CustomerID:        customer.ID,
		AppointmentTypeID: apType.ID,
		StartTime:         start,
		EndTime:           start.Add(time.Hour),
		Status:            status,
	}
	require.NoError(t, db.Create(&ap).Error)

	return ap
}

// ======================================================
// ApplyCompletion
// ======================================================

func TestApplyCompletion_DeductsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 0, BlockStatusActive)
	ap := seedAppointment(t, db, customer, "completed")

	now := time.Now()

	outcome, err := svc.ApplyCompletion(db, &ap, true, now, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeducted, outcome)
	assert.True(t, ap.SessionConsumed)

	// Second call is a no-op guarded by the flag.
	outcome, err = svc.ApplyCompletion(db, &ap, true, now, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyConsumed, outcome)

	var got models.SessionBlock
	require.NoError(t, db.First(&got, block.ID).Error)
	assert.Equal(t, 1, got.UsedSessions)
	assert.Equal(t, 9, got.RemainingSessions)

	var count int64
	require.NoError(t, db.Model(&models.SessionTransaction{}).
		Where("session_block_id = ?", block.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyCompletion_NonConsumingType(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 0, BlockStatusActive)
	ap := seedAppointment(t, db, customer, "completed")

	outcome, err := svc.ApplyCompletion(db, &ap, false, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotConsuming, outcome)
	assert.False(t, ap.SessionConsumed)

	var got models.SessionBlock
	require.NoError(t, db.First(&got, block.ID).Error)
	assert.Equal(t, 10, got.RemainingSessions)
}

func TestApplyCompletion_NoActiveBlock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	ap := seedAppointment(t, db, customer, "completed")

	outcome, err := svc.ApplyCompletion(db, &ap, true, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCreditAvailable, outcome)
	assert.False(t, ap.SessionConsumed)
}

func TestApplyCompletion_LastCreditPromotesPendingBlock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	active := seedBlock(t, db, customer, 10, 9, BlockStatusActive)
	pending := seedBlock(t, db, customer, 20, 0, BlockStatusPending)
	ap := seedAppointment(t, db, customer, "completed")

	now := time.Now()
	outcome, err := svc.ApplyCompletion(db, &ap, true, now, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeducted, outcome)

	var exhausted models.SessionBlock
	require.NoError(t, db.First(&exhausted, active.ID).Error)
	assert.Equal(t, 0, exhausted.RemainingSessions)
	assert.Equal(t, BlockStatusCompleted, exhausted.Status)

	var promoted models.SessionBlock
	require.NoError(t, db.First(&promoted, pending.ID).Error)
	assert.Equal(t, BlockStatusActive, promoted.Status)
	require.NotNil(t, promoted.ActivationDate)
}

func TestApplyCompletion_ActiveBlockWithoutRemaining(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	// Corrupt state: an active block with nothing left.
	seedBlock(t, db, customer, 5, 5, BlockStatusActive)
	ap := seedAppointment(t, db, customer, "completed")

	_, err := svc.ApplyCompletion(db, &ap, true, time.Now(), nil)
	require.Error(t, err)
	assert.True(t, IsInconsistency(err))
	assert.False(t, ap.SessionConsumed)
}

// ======================================================
// ReverseCompletion
// ======================================================

func TestReverseCompletion_RefundsDeductedSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 0, BlockStatusActive)
	ap := seedAppointment(t, db, customer, "completed")

	now := time.Now()
	_, err := svc.ApplyCompletion(db, &ap, true, now, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ReverseCompletion(db, &ap, "booked in error", nil))
	assert.False(t, ap.SessionConsumed)

	var got models.SessionBlock
	require.NoError(t, db.First(&got, block.ID).Error)
	assert.Equal(t, 0, got.UsedSessions)
	assert.Equal(t, 10, got.RemainingSessions)

	var refunds int64
	require.NoError(t, db.Model(&models.SessionTransaction{}).
		Where("session_block_id = ? AND type = ?", block.ID, TxTypeRefund).
		Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)
}

func TestReverseCompletion_RequiresConsumedFlag(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	ap := seedAppointment(t, db, customer, "completed")

	err := svc.ReverseCompletion(db, &ap, "", nil)
	assert.ErrorIs(t, err, ErrNotConsumed)
}

func TestReverseCompletion_DoesNotRewindActivePointer(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	first := seedBlock(t, db, customer, 1, 0, BlockStatusActive)
	second := seedBlock(t, db, customer, 10, 0, BlockStatusPending)
	ap := seedAppointment(t, db, customer, "completed")

	now := time.Now()

	// Exhausts the first block and promotes the second.
	_, err := svc.ApplyCompletion(db, &ap, true, now, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ReverseCompletion(db, &ap, "", nil))

	// The first block gets its session back but stays completed; the
	// second keeps the active slot.
	var gotFirst models.SessionBlock
	require.NoError(t, db.First(&gotFirst, first.ID).Error)
	assert.Equal(t, 1, gotFirst.RemainingSessions)
	assert.Equal(t, BlockStatusCompleted, gotFirst.Status)

	var gotSecond models.SessionBlock
	require.NoError(t, db.First(&gotSecond, second.ID).Error)
	assert.Equal(t, BlockStatusActive, gotSecond.Status)
}

func TestReverseCompletion_ReactivatesWhenNothingElseActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 1, 0, BlockStatusActive)
	ap := seedAppointment(t, db, customer, "completed")

	_, err := svc.ApplyCompletion(db, &ap, true, time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.ReverseCompletion(db, &ap, "", nil))

	var got models.SessionBlock
	require.NoError(t, db.First(&got, block.ID).Error)
	assert.Equal(t, BlockStatusActive, got.Status)
	assert.Equal(t, 1, got.RemainingSessions)
}

// ======================================================
// Ledger conservation
// ======================================================

func TestLedgerConservation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 0, BlockStatusActive)

	now := time.Now()

	for i := 0; i < 4; i++ {
		ap := seedAppointment(t, db, customer, "completed")
		_, err := svc.ApplyCompletion(db, &ap, true, now, nil)
		require.NoError(t, err)

		if i == 1 {
			require.NoError(t, svc.ReverseCompletion(db, &ap, "correction", nil))
		}
	}

	var got models.SessionBlock
	require.NoError(t, db.First(&got, block.ID).Error)

	// total - remaining == used
	assert.Equal(t, got.TotalSessions-got.RemainingSessions, got.UsedSessions)

	// used == deductions - refunds
	var deductions, refunds int64
	require.NoError(t, db.Model(&models.SessionTransaction{}).
		Where("session_block_id = ? AND type = ?", block.ID, TxTypeDeduction).
		Count(&deductions).Error)
	require.NoError(t, db.Model(&models.SessionTransaction{}).
		Where("session_block_id = ? AND type = ?", block.ID, TxTypeRefund).
		Count(&refunds).Error)
	assert.Equal(t, int64(got.UsedSessions), deductions-refunds)

	// The signed amounts sum to the net remaining change.
	var sum int64
	require.NoError(t, db.Model(&models.SessionTransaction{}).
		Where("session_block_id = ?", block.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error)
	assert.Equal(t, int64(-got.UsedSessions), sum)
}

// ======================================================
// ManualAdjustment
// ======================================================

func TestManualAdjustment_WithinBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 4, BlockStatusActive)

	adjusted, err := svc.ManualAdjustment(db, block.ID, customer.StudioID, 2, "goodwill", nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 8, adjusted.RemainingSessions)
	assert.Equal(t, 2, adjusted.UsedSessions)
}

func TestManualAdjustment_RejectsOutOfRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewService()

	customer := seedCustomer(t, db)
	block := seedBlock(t, db, customer, 10, 0, BlockStatusActive)

	_, err := svc.ManualAdjustment(db, block.ID, customer.StudioID, 1, "overfill", nil, time.Now())
	require.Error(t, err)
	assert.True(t, IsInconsistency(err))

	_, err = svc.ManualAdjustment(db, block.ID, customer.StudioID, -11, "drain", nil, time.Now())
	require.Error(t, err)
	assert.True(t, IsInconsistency(err))
}
