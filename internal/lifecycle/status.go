package lifecycle

import (
	"errors"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

// ErrInvalidTransition is returned when a requested status change is not in
// the transition table. Callers treat it as a no-op guard, not a fatal error.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions holds the legal status edges. A status with no outgoing
// edges is terminal: the first applied outcome sticks regardless of what
// events arrive afterwards.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted: {model.StatusPaid},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status, or
// ErrInvalidTransition leaving the caller's state untouched.
func Transition(from, to model.BookingStatus) (model.BookingStatus, error) {
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// IsFinal reports whether a status has no outgoing transitions at all.
func IsFinal(s model.BookingStatus) bool {
	return len(transitions[s]) == 0
}

// IsDecided reports whether the booking has moved past pending, i.e. a
// confirm/reject/cancel outcome has already been applied.
func IsDecided(s model.BookingStatus) bool {
	return s != model.StatusPending
}
