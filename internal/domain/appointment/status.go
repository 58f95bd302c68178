package appointment

import (
	"fmt"
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/models"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ParseStatus accepts only the canonical English vocabulary. Localized
// labels are a display concern and are never stored.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusScheduled, StatusConfirmed,
		StatusCancelled, StatusCompleted, StatusNoShow:
		return Status(s), true
	}
	return "", false
}

// IsTerminal reports whether a status permits no further transition.
func IsTerminal(s Status) bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// InitialStatus is the default post-booking state.
func InitialStatus() Status {
	return StatusConfirmed
}

// ===============================
// Transition rules
// ===============================

type ReasonCode string

const (
	ReasonNotStarted    ReasonCode = "NOT_STARTED"
	ReasonTerminalState ReasonCode = "TERMINAL_STATE"
	ReasonNotConfirmed  ReasonCode = "NOT_CONFIRMED"
	ReasonUnknownStatus ReasonCode = "UNKNOWN_STATUS"
)

// TransitionError identifies the rule that blocked a status change and
// carries the timing facts needed to explain the rejection.
type TransitionError struct {
	Reason           ReasonCode
	From             Status
	To               Status
	AppointmentStart time.Time
	EvaluatedAt      time.Time
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf(
		"transition %s -> %s rejected (%s, start=%s, now=%s)",
		e.From, e.To, e.Reason,
		e.AppointmentStart.Format(time.RFC3339),
		e.EvaluatedAt.Format(time.RFC3339),
	)
}

// ValidateTransition decides whether the requested status change is
// legal given the appointment's scheduled window and the wall clock.
// Pure: no persistence, no ledger effect.
//
// Rule table:
//   - identity transitions are a no-op success, also on terminal rows
//   - terminal states accept nothing else
//   - cancelled is reachable from any non-terminal state at any time
//   - completed requires the current state to be confirmed; staff may
//     complete early, the sweep completes once the window has passed
//   - no_show requires the appointment to have begun (now >= start)
//   - pending/scheduled/confirmed move among each other freely
func ValidateTransition(
	ap *models.Appointment,
	to Status,
	now time.Time,
) *TransitionError {

	from := Status(ap.Status)

	fail := func(reason ReasonCode) *TransitionError {
		return &TransitionError{
			Reason:           reason,
			From:             from,
			To:               to,
			AppointmentStart: ap.StartTime,
			EvaluatedAt:      now,
		}
	}

	if to == from {
		return nil
	}

	if IsTerminal(from) {
		return fail(ReasonTerminalState)
	}

	switch to {
	case StatusCancelled:
		return nil

	case StatusCompleted:
		if from != StatusConfirmed {
			return fail(ReasonNotConfirmed)
		}
		return nil

	case StatusNoShow:
		if now.Before(ap.StartTime) {
			return fail(ReasonNotStarted)
		}
		return nil

	case StatusPending, StatusScheduled, StatusConfirmed:
		return nil
	}

	return fail(ReasonUnknownStatus)
}
