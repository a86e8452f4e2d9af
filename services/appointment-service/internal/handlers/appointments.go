package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/availability"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/metrics"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/outbox"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
)

type bookRequest struct {
	ProviderID  string    `json:"providerId" validate:"required,uuid"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Service     string    `json:"service" validate:"required,max=200"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=1000"`
}

var errNotOwner = errors.New("not your appointment")

func (a *API) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	user := currentUser(ctx)
	now := a.now()

	provider, err := a.users.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if storage.IsNotFound(err) {
			httpx.WriteError(w, http.StatusNotFound, "provider not found")
			return
		}
		a.serverError(w, r, "load provider failed", err)
		return
	}
	start := req.ScheduledAt.UTC()
	if !start.After(now) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "cannot book an appointment in the past")
		return
	}
	if !availability.Aligned(start, a.slots) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "scheduledAt must be the start of an available slot")
		return
	}

	appt := appointments.Appointment{
		ID:          uuid.NewString(),
		User:        user.Party(),
		Provider:    provider.Party(),
		ScheduledAt: start,
		EndsAt:      start.Add(a.slots.Length),
		Service:     strings.TrimSpace(req.Service),
		Status:      appointments.StatusPending,
	}
	err = a.inTx(ctx, func(tx pgx.Tx) error {
		created, err := a.appts.Create(ctx, tx, appt)
		if err != nil {
			return err
		}
		appt = created
		return a.record(ctx, tx, outbox.EventAppointmentBooked, appt, "", user.ID, now)
	})
	if err != nil {
		a.serverError(w, r, "book appointment failed", err)
		return
	}
	a.metrics.Bookings.Inc()
	a.logger.Info("appointment booked", "appointment_id", appt.ID, "user_id", user.ID, "provider_id", provider.ID)
	writeData(w, http.StatusCreated, appt)
}

// listAppointments answers with the appointments of scope filtered by ?view=
// plus the counts of every view over the unfiltered set.
func (a *API) listAppointments(scope func(accounts.User) storage.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := a.appts.List(r.Context(), scope(currentUser(r.Context())))
		if err != nil {
			a.serverError(w, r, "list appointments failed", err)
			return
		}
		view, _ := appointments.ParseView(r.URL.Query().Get("view"))
		now := a.now()
		httpx.WriteJSON(w, http.StatusOK, envelope{
			Data:   appointments.Classify(all, view, now),
			Counts: appointments.CountByCategory(all, now),
		})
	}
}

// UpdateStatus lets the appointment's provider, or an admin, move it along
// the status graph.
func (a *API) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := appointments.ParseStatus(req.Status)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	user := currentUser(ctx)
	now := a.now()
	notes := strings.TrimSpace(req.Notes)

	var appt appointments.Appointment
	err = a.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := a.appts.GetForUpdate(ctx, tx, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		if user.Role == access.RoleProvider && cur.Provider.ID != user.ID {
			return errNotOwner
		}
		upd, err := appointments.ApplyStatusTransition(cur, to)
		if err != nil {
			return err
		}
		if cur.UpdatedAt, err = a.appts.UpdateStatus(ctx, tx, upd.ID, upd.To, notes); err != nil {
			return err
		}
		cur.Status = upd.To
		if notes != "" {
			cur.Notes = notes
		}
		appt = cur
		return a.record(ctx, tx, outbox.EventAppointmentStatusChanged, cur, upd.From, user.ID, now)
	})
	if !a.writeChangeError(w, r, err, func() { a.metrics.Transitions.WithLabelValues(string(to), metrics.ResultRejected).Inc() }) {
		return
	}
	a.metrics.Transitions.WithLabelValues(string(to), metrics.ResultApplied).Inc()
	writeData(w, http.StatusOK, appt)
}

// Cancel lets a user call off their own pending or confirmed appointment
// while it is still more than a day away.
func (a *API) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)
	now := a.now()

	var appt appointments.Appointment
	err := a.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := a.appts.GetForUpdate(ctx, tx, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		if cur.User.ID != user.ID {
			return errNotOwner
		}
		if !appointments.CanCancel(cur, now) {
			return errTooLate
		}
		from := cur.Status
		if cur.UpdatedAt, err = a.appts.UpdateStatus(ctx, tx, cur.ID, appointments.StatusCancelled, ""); err != nil {
			return err
		}
		cur.Status = appointments.StatusCancelled
		appt = cur
		return a.record(ctx, tx, outbox.EventAppointmentCancelled, cur, from, user.ID, now)
	})
	if !a.writeChangeError(w, r, err, nil) {
		return
	}
	a.metrics.Transitions.WithLabelValues(string(appointments.StatusCancelled), metrics.ResultApplied).Inc()
	writeData(w, http.StatusOK, appt)
}

var errTooLate = errors.New("appointments can only be cancelled more than 24 hours in advance")

// writeChangeError maps a status change failure to a response and reports
// whether the change went through.
func (a *API) writeChangeError(w http.ResponseWriter, r *http.Request, err error, rejected func()) bool {
	switch {
	case err == nil:
		return true
	case storage.IsNotFound(err), storage.IsInvalidInput(err):
		httpx.WriteError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, errNotOwner):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, appointments.ErrInvalidTransition), errors.Is(err, errTooLate):
		if rejected != nil {
			rejected()
		}
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		a.serverError(w, r, "update appointment failed", err)
	}
	return false
}

func (a *API) record(ctx context.Context, tx pgx.Tx, eventType string, appt appointments.Appointment, from appointments.Status, actorID string, at time.Time) error {
	evt, err := outbox.AppointmentEvent(eventType, appt, from, actorID, at)
	if err != nil {
		return err
	}
	return a.outbox.Insert(ctx, tx, evt)
}

func (a *API) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := a.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
