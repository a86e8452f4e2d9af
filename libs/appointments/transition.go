package appointments

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment %s cannot move from %s to %s", e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var edges = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// NextStatuses returns the statuses reachable from s in one step. Terminal
// statuses return nil.
func NextStatuses(s Status) []Status {
	return append([]Status(nil), edges[s]...)
}

func CanTransition(from, to Status) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusUpdate is the change to send to the backend once a transition has
// been accepted.
type StatusUpdate struct {
	ID   string `json:"id"`
	From Status `json:"from"`
	To   Status `json:"to"`
}

// ApplyStatusTransition validates moving a to requested and returns the
// update to persist. A rejected edge returns a *TransitionError.
func ApplyStatusTransition(a Appointment, requested Status) (StatusUpdate, error) {
	if !CanTransition(a.Status, requested) {
		return StatusUpdate{}, &TransitionError{ID: a.ID, From: a.Status, To: requested}
	}
	return StatusUpdate{ID: a.ID, From: a.Status, To: requested}, nil
}

// CancelNotice is how far ahead of its start an appointment must be for its
// user to cancel it.
const CancelNotice = 24 * time.Hour

// CanCancel reports whether the user may still cancel a at now: it must be
// pending or confirmed and start more than CancelNotice from now.
func CanCancel(a Appointment, now time.Time) bool {
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return false
	}
	return a.ScheduledAt.Sub(now) > CancelNotice
}
