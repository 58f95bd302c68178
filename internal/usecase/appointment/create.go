package appointment

import (
	"context"
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
	"github.com/Danx101/AIL-APP-sub003/internal/models"
	"github.com/Danx101/AIL-APP-sub003/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	StudioID uint

	// Either a known customer id or contact data to get-or-create one.
	CustomerID    uint
	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	AppointmentTypeID uint

	Date  string
	Time  string
	Notes string

	CreatedByID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCreateAppointment(
	repo domain.Repository,
	auditDisp *audit.Dispatcher,
) *CreateAppointment {
	return &CreateAppointment{
		repo:  repo,
		audit: auditDisp,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	studio, err := uc.repo.GetStudioByID(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		timezone.Location(studio.Timezone),
	)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	now := timezone.NowIn(studio.Timezone)
	if start.Before(now) {
		return nil, httperr.ErrBusiness("start_in_past")
	}

	apType, err := uc.repo.GetAppointmentType(
		ctx,
		in.StudioID,
		in.AppointmentTypeID,
	)
	if err != nil {
		return nil, httperr.ErrBusiness("appointment_type_not_found")
	}

	if apType.DurationMin <= 0 {
		return nil, httperr.ErrBusiness("invalid_type_duration")
	}

	end := start.Add(time.Duration(apType.DurationMin) * time.Minute)

	var customer *models.Customer
	if in.CustomerID != 0 {
		customer, err = uc.repo.GetCustomerForStudio(
			ctx,
			in.CustomerID,
			in.StudioID,
		)
		if err != nil {
			return nil, httperr.ErrBusiness("customer_not_found")
		}
	} else {
		customer, err = uc.repo.GetOrCreateCustomer(
			ctx,
			in.StudioID,
			in.CustomerName,
			in.CustomerPhone,
			in.CustomerEmail,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.repo.AssertNoTimeConflict(
		ctx,
		in.StudioID,
		start,
		end,
	); err != nil {
		return nil, err
	}

	ap := &models.Appointment{
		StudioID:          in.StudioID,
		CustomerID:        customer.ID,
		AppointmentTypeID: apType.ID,
		StartTime:         start,
		EndTime:           end,
		Status:            string(domain.InitialStatus()),
		Notes:             in.Notes,
		CreatedByID:       in.CreatedByID,
	}

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		StudioID: in.StudioID,
		UserID:   in.CreatedByID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}
