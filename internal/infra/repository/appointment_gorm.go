package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Studio
// --------------------------------------------------

func (r *AppointmentGormRepository) GetStudioByID(
	ctx context.Context,
	id uint,
) (*models.Studio, error) {

	var studio models.Studio
	if err := r.db.WithContext(ctx).First(&studio, id).Error; err != nil {
		return nil, err
	}
	return &studio, nil
}

// --------------------------------------------------
// Appointment type
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointmentType(
	ctx context.Context,
	studioID uint,
	typeID uint,
) (*models.AppointmentType, error) {

	var apType models.AppointmentType
	if err := r.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", typeID, studioID).
		First(&apType).Error; err != nil {
		return nil, err
	}
	return &apType, nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *AppointmentGormRepository) GetCustomerForStudio(
	ctx context.Context,
	customerID uint,
	studioID uint,
) (*models.Customer, error) {

	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", customerID, studioID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *AppointmentGormRepository) GetOrCreateCustomer(
	ctx context.Context,
	studioID uint,
	name string,
	phone string,
	email string,
) (*models.Customer, error) {

	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND phone = ?", studioID, phone).
		First(&customer).Error

	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// Infrastructure failure, not a missing row.
		return nil, err
	}

	customer = models.Customer{
		StudioID: studioID,
		Name:     name,
		Phone:    phone,
		Email:    email,
	}

	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

// conflictCandidates selects the occupied rows overlapping the window,
// locked FOR UPDATE. The rows themselves are locked, never an
// aggregate: postgres rejects FOR UPDATE on aggregate queries.
func conflictCandidates(
	tx *gorm.DB,
	studioID uint,
	start time.Time,
	end time.Time,
) *gorm.DB {
	return dbpkg.LockForUpdate(tx).
		Model(&models.Appointment{}).
		Where(
			"studio_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			studioID,
			[]string{
				string(domain.StatusPending),
				string(domain.StatusScheduled),
				string(domain.StatusConfirmed),
			},
			end,
			start,
		)
}

func (r *AppointmentGormRepository) AssertNoTimeConflict(
	ctx context.Context,
	studioID uint,
	start time.Time,
	end time.Time,
) error {

	var ids []uint
	if err := conflictCandidates(r.db.WithContext(ctx), studioID, start, end).
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	if len(ids) > 0 {
		return httperr.ErrBusiness("time_conflict")
	}

	return nil
}

// --------------------------------------------------
// Appointment (read / state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointmentForStudio(
	ctx context.Context,
	appointmentID uint,
	studioID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", appointmentID, studioID).
		First(&ap).Error; err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	appointmentID uint,
	studioID uint,
) error {

	result := r.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", appointmentID, studioID).
		Delete(&models.Appointment{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --------------------------------------------------
// Listings
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	studioID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment

	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("AppointmentType").
		Where(
			"studio_id = ? AND start_time >= ? AND start_time < ?",
			studioID,
			start,
			end,
		).
		Order("start_time ASC").
		Find(&apps).Error

	if err != nil {
		return nil, err
	}

	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
