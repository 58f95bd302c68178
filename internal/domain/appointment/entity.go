package appointment

import (
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Apply validates the transition and, on success, mutates the
// appointment in place, stamping the relevant metadata. An identity
// transition leaves the record untouched.
func Apply(
	ap *models.Appointment,
	to Status,
	now time.Time,
	actorID *uint,
) *TransitionError {

	if err := ValidateTransition(ap, to, now); err != nil {
		return err
	}

	if Status(ap.Status) == to {
		return nil
	}

	ap.Status = string(to)

	switch to {
	case StatusCancelled:
		ap.CancelledAt = &now
		ap.CancelledBy = actorID
	case StatusCompleted:
		ap.CompletedAt = &now
	}

	return nil
}

func Cancel(ap *models.Appointment, now time.Time, actorID *uint) *TransitionError {
	return Apply(ap, StatusCancelled, now, actorID)
}

func Complete(ap *models.Appointment, now time.Time) *TransitionError {
	return Apply(ap, StatusCompleted, now, nil)
}

func MarkNoShow(ap *models.Appointment, now time.Time) *TransitionError {
	return Apply(ap, StatusNoShow, now, nil)
}
