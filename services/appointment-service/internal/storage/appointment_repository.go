package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/db"
)

type AppointmentRepository struct {
	conn db.DBTX
}

func NewAppointmentRepository(conn db.DBTX) *AppointmentRepository {
	return &AppointmentRepository{conn: conn}
}

// Scope selects whose appointments a listing returns.
type Scope struct {
	UserID     string
	ProviderID string
}

const appointmentSelect = `
	SELECT a.id, a.user_id, u.name, u.email, u.phone, a.provider_id, p.name, p.specialty,
		a.scheduled_at, a.ends_at, a.service, a.status, a.notes, a.created_at, a.updated_at
	FROM appointments a
	JOIN users u ON u.id = a.user_id
	JOIN users p ON p.id = a.provider_id`

// Create inserts a and fills in its id and timestamps. Party names must
// already be set by the caller.
func (r *AppointmentRepository) Create(ctx context.Context, q db.DBTX, a appointments.Appointment) (appointments.Appointment, error) {
	err := q.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, provider_id, scheduled_at, ends_at, service, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.User.ID, a.Provider.ID, a.ScheduledAt, a.EndsAt, a.Service, string(a.Status), a.Notes).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return appointments.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (appointments.Appointment, error) {
	return scanAppointment(r.conn.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
}

// GetForUpdate locks the appointment row until tx ends so concurrent status
// changes apply one after the other.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (appointments.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

// UpdateStatus stores the new status. Empty notes keep the current notes.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, q db.DBTX, id string, status appointments.Status, notes string) (time.Time, error) {
	var updatedAt time.Time
	err := q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
			notes = COALESCE(NULLIF($3, ''), notes),
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, string(status), notes).Scan(&updatedAt)
	return updatedAt, err
}

// List returns the appointments in scope, soonest first. An empty scope
// lists everything.
func (r *AppointmentRepository) List(ctx context.Context, s Scope) ([]appointments.Appointment, error) {
	query := appointmentSelect
	var args []any
	switch {
	case s.UserID != "":
		query += ` WHERE a.user_id = $1`
		args = append(args, s.UserID)
	case s.ProviderID != "":
		query += ` WHERE a.provider_id = $1`
		args = append(args, s.ProviderID)
	}
	query += ` ORDER BY a.scheduled_at ASC`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []appointments.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (appointments.Appointment, error) {
	var (
		a      appointments.Appointment
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.User.ID, &a.User.Name, &a.User.Email, &a.User.Phone,
		&a.Provider.ID, &a.Provider.Name, &a.Provider.Specialty,
		&a.ScheduledAt, &a.EndsAt, &a.Service, &status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}
	a.Status = appointments.Status(status)
	return a, nil
}
