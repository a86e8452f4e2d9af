package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Bookings    prometheus.Counter
	Transitions *prometheus.CounterVec
	Logins      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointmed_bookings_total",
			Help: "Appointments booked.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointmed_status_transitions_total",
			Help: "Requested appointment status changes by target status and result.",
		}, []string{"to", "result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointmed_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Bookings, m.Transitions, m.Logins)
	return m
}

// Transition results.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
)
