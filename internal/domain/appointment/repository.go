package appointment

import (
	"context"
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

type Repository interface {
	// -------- Studio --------
	GetStudioByID(
		ctx context.Context,
		id uint,
	) (*models.Studio, error)

	// -------- Appointment type --------
	GetAppointmentType(
		ctx context.Context,
		studioID uint,
		typeID uint,
	) (*models.AppointmentType, error)

	// -------- Customer --------
	GetCustomerForStudio(
		ctx context.Context,
		customerID uint,
		studioID uint,
	) (*models.Customer, error)

	GetOrCreateCustomer(
		ctx context.Context,
		studioID uint,
		name string,
		phone string,
		email string,
	) (*models.Customer, error)

	// -------- Appointment (create / conflict) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	AssertNoTimeConflict(
		ctx context.Context,
		studioID uint,
		start time.Time,
		end time.Time,
	) error

	// -------- Appointment (read / state change) --------
	GetAppointmentForStudio(
		ctx context.Context,
		appointmentID uint,
		studioID uint,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	DeleteAppointment(
		ctx context.Context,
		appointmentID uint,
		studioID uint,
	) error

	// -------- Listings --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		studioID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)
}
