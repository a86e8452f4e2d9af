package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/appointments"
)

// Event types double as Kafka topic names.
const (
	EventAppointmentBooked        = "appointment.booked.v1"
	EventAppointmentStatusChanged = "appointment.status_changed.v1"
	EventAppointmentCancelled     = "appointment.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	AppointmentID string              `json:"appointment_id"`
	UserID        string              `json:"user_id"`
	ProviderID    string              `json:"provider_id"`
	ScheduledAt   time.Time           `json:"scheduled_at"`
	EndsAt        time.Time           `json:"ends_at"`
	Service       string              `json:"service"`
	FromStatus    appointments.Status `json:"from_status,omitempty"`
	Status        appointments.Status `json:"status"`
	ActorID       string              `json:"actor_id"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// AppointmentEvent builds an event about a after its status moved from from
// (empty on booking) by actorID.
func AppointmentEvent(eventType string, a appointments.Appointment, from appointments.Status, actorID string, at time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: a.ID,
		UserID:        a.User.ID,
		ProviderID:    a.Provider.ID,
		ScheduledAt:   a.ScheduledAt.UTC(),
		EndsAt:        a.EndsAt.UTC(),
		Service:       a.Service,
		FromStatus:    from,
		Status:        a.Status,
		ActorID:       actorID,
		OccurredAt:    at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
