package appointment

import (
	"context"

	"github.com/Danx101/AIL-APP-sub003/internal/audit"
	domain "github.com/Danx101/AIL-APP-sub003/internal/domain/appointment"
	"github.com/Danx101/AIL-APP-sub003/internal/httperr"
)

// DeleteAppointment is the administrative cleanup path. Normal
// operation cancels instead of deleting; this removes the row outright.
type DeleteAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewDeleteAppointment(
	repo domain.Repository,
	auditDisp *audit.Dispatcher,
) *DeleteAppointment {
	return &DeleteAppointment{
		repo:  repo,
		audit: auditDisp,
	}
}

func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	studioID uint,
	appointmentID uint,
	actorID *uint,
) error {

	ap, err := uc.repo.GetAppointmentForStudio(ctx, appointmentID, studioID)
	if err != nil {
		return httperr.ErrBusiness("appointment_not_found")
	}

	// A consumed session must be reversed before the row disappears,
	// otherwise the ledger would point at nothing.
	if ap.SessionConsumed {
		return httperr.ErrBusiness("session_still_consumed")
	}

	if err := uc.repo.DeleteAppointment(ctx, appointmentID, studioID); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   actorID,
		Action:   "appointment_deleted",
		Entity:   "appointment",
		EntityID: &appointmentID,
	})

	return nil
}
