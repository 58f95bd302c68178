package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/ledger"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ------------------------------
// shared test fixtures
// ------------------------------

type fixture struct {
	db       *gorm.DB
	studio   models.Studio
	customer models.Customer
	apType   models.AppointmentType
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

	f := &fixture{db: db}

	f.studio = models.Studio{Name: "Studio Nord", Slug: "studio-nord", Timezone: "Europe/Berlin"}
	require.NoError(t, db.Create(&f.studio).Error)

	f.customer = models.Customer{StudioID: f.studio.ID, Name: "Maria Weber", Phone: "+4915200000002"}
	require.NoError(t, db.Create(&f.customer).Error)

	f.apType = models.AppointmentType{
		StudioID:        f.studio.ID,
		Name:            "Treatment",
		DurationMin:     60,
		ConsumesSession: true,
		Active:          true,
	}
	require.NoError(t, db.Create(&f.apType).Error)

	return f
}

func (f *fixture) appointment(t *testing.T, status string, start time.Time) models.Appointment {
	t.Helper()

	ap := models.Appointment{
		StudioID:          f.studio.ID,
		CustomerID:        f.customer.ID,
		AppointmentTypeID: f.apType.ID,
		StartTime:         start,
		EndTime:           start.Add(time.Hour),
		Status:            status,
	}
	require.NoError(t, f.db.Create(&ap).Error)

	return ap
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

func (f *fixture) changeStatusUC() *ChangeStatus {
	dispatcher := audit.NewDispatcher(audit.New(f.db))
	return NewChangeStatus(f.db, ledger.NewService(), nil, dispatcher)
}

// ------------------------------
// tests
// ------------------------------

func TestChangeStatus_NoShowScenario(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusConfirmed), start)

	// 08:00 — too early for a no-show.
	_, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusNoShow,
		time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		nil,
	)
	var terr *domain.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.ReasonNotStarted, terr.Reason)

	// 09:30 — the appointment has begun.
	result, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusNoShow,
		time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNoShow), result.Appointment.Status)
}

func TestChangeStatus_CompletionDeductsCredit(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	block := f.block(t, 1, 0, ledger.BlockStatusActive)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusConfirmed), start)

	result, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusCompleted,
		start.Add(90*time.Minute),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeDeducted, result.LedgerOutcome)
	assert.True(t, result.Appointment.SessionConsumed)

	var got models.SessionBlock
	require.NoError(t, f.db.First(&got, block.ID).Error)
	assert.Equal(t, 0, got.RemainingSessions)
	assert.Equal(t, ledger.BlockStatusCompleted, got.Status)

	var deduction models.SessionTransaction
	require.NoError(t, f.db.
		Where("session_block_id = ? AND type = ?", block.ID, ledger.TxTypeDeduction).
		First(&deduction).Error)
	assert.Equal(t, -1, deduction.Amount)
}

func TestChangeStatus_CompletionWithoutCredit(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusConfirmed), start)

	// No block at all: the status still changes, reported distinctly.
	result, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusCompleted,
		start.Add(2*time.Hour),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeNoCreditAvailable, result.LedgerOutcome)
	assert.Equal(t, string(domain.StatusCompleted), result.Appointment.Status)
	assert.False(t, result.Appointment.SessionConsumed)
}

// A repeated completed request is a no-op: even when the original
// completion found no credit, a block bought in between must not be
// deducted by the retry.
func TestChangeStatus_RetryOfCompletedNeverDeducts(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusConfirmed), start)
	now := start.Add(2 * time.Hour)

	first, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusCompleted,
		now,
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, ledger.OutcomeNoCreditAvailable, first.LedgerOutcome)

	block := f.block(t, 10, 0, ledger.BlockStatusActive)

	retry, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusCompleted,
		now.Add(time.Minute),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), retry.Appointment.Status)
	assert.False(t, retry.Appointment.SessionConsumed)

	var gotBlock models.SessionBlock
	require.NoError(t, f.db.First(&gotBlock, block.ID).Error)
	assert.Equal(t, 10, gotBlock.RemainingSessions)

	var txCount int64
	require.NoError(t, f.db.Model(&models.SessionTransaction{}).Count(&txCount).Error)
	assert.Equal(t, int64(0), txCount)
}

func TestChangeStatus_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusCancelled), start)

	_, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusConfirmed,
		start,
		nil,
	)
	var terr *domain.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.ReasonTerminalState, terr.Reason)
}

func TestChangeStatus_RollsBackOnLedgerError(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	// Corrupt state: active block with no remaining credit.
	f.block(t, 3, 3, ledger.BlockStatusActive)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ap := f.appointment(t, string(domain.StatusConfirmed), start)

	_, err := uc.Execute(
		context.Background(),
		f.studio.ID, ap.ID,
		domain.StatusCompleted,
		start.Add(2*time.Hour),
		nil,
	)
	require.Error(t, err)
	assert.True(t, ledger.IsInconsistency(err))

	// Status and ledger roll back together.
	var got models.Appointment
	require.NoError(t, f.db.First(&got, ap.ID).Error)
	assert.Equal(t, string(domain.StatusConfirmed), got.Status)
	assert.False(t, got.SessionConsumed)

	var txCount int64
	require.NoError(t, f.db.Model(&models.SessionTransaction{}).Count(&txCount).Error)
	assert.Equal(t, int64(0), txCount)
}

func TestChangeStatus_UnknownAppointment(t *testing.T) {
	f := newFixture(t)
	uc := f.changeStatusUC()

	_, err := uc.Execute(
		context.Background(),
		f.studio.ID, 999,
		domain.StatusCancelled,
		time.Now(),
		nil,
	)
	require.Error(t, err)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}
