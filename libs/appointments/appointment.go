// Package appointments holds the appointment record and the rules derived from
// it: status transitions, the cancellation window and the list views shown on
// every dashboard. Everything here is pure; callers pass the reference time.
package appointments

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Party is one side of an appointment. Users carry contact details,
// providers carry their specialty.
type Party struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

type Appointment struct {
	ID          string    `json:"id"`
	User        Party     `json:"user"`
	Provider    Party     `json:"provider"`
	ScheduledAt time.Time `json:"scheduledAt"`
	EndsAt      time.Time `json:"endsAt"`
	Service     string    `json:"service"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
