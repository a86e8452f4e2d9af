package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/auth"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/availability"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/metrics"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID     = "11111111-1111-4111-8111-111111111111"
	providerID = "22222222-2222-4222-8222-222222222222"
	adminID    = "33333333-3333-4333-8333-333333333333"
	apptID     = "44444444-4444-4444-8444-444444444444"
)

var userCols = []string{"id", "name", "email", "phone", "role", "is_active", "specialty", "experience", "bio", "location", "consultation_fee", "created_at"}

var apptCols = []string{"id", "user_id", "user_name", "user_email", "user_phone", "provider_id", "provider_name", "specialty",
	"scheduled_at", "ends_at", "service", "status", "notes", "created_at", "updated_at"}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	mock    pgxmock.PgxPoolIface
	signer  *auth.Signer
	metrics *metrics.Metrics
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	signer, err := auth.NewSigner("test-secret", time.Hour, "appointmed")
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())

	api := New(Config{
		Conn:    mock,
		Signer:  signer,
		Metrics: m,
		Slots:   availability.DefaultConfig(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return now },
	})
	r := chi.NewRouter()
	r.Mount("/api/v1", api.Routes())
	return &fixture{mock: mock, signer: signer, metrics: m, router: r}
}

func (f *fixture) token(t *testing.T, id, role string) string {
	t.Helper()
	tok, _, err := f.signer.Sign(auth.Subject{ID: id, Role: role, Name: "Test"})
	require.NoError(t, err)
	return tok
}

func (f *fixture) expectAccount(id, role string, active bool) {
	specialty := ""
	if role == "provider" {
		specialty = "Cardiology"
	}
	f.mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "Test "+role, role+"@example.com", "555", role, active, specialty, 5, "", "", 40.0, now))
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) done(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func apptRow(rows *pgxmock.Rows, status string, at time.Time) *pgxmock.Rows {
	return rows.AddRow(apptID, userID, "Ann", "ann@example.com", "555", providerID, "Dr. Ada", "Cardiology",
		at, at.Add(time.Hour), "Checkup", status, "", now, now)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, verifyPassword(hash, "secret1"))
	assert.Error(t, verifyPassword(hash, "secret2"))
}

func TestLogin(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)

	cases := []struct {
		name     string
		password string
		active   bool
		status   int
		result   string
	}{
		{"ok", "secret1", true, http.StatusOK, "ok"},
		{"wrong password", "nope", true, http.StatusUnauthorized, "invalid"},
		{"deactivated", "secret1", false, http.StatusForbidden, "inactive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).WithArgs("ann@example.com").
				WillReturnRows(pgxmock.NewRows(append(append([]string{}, userCols...), "password_hash")).
					AddRow(userID, "Ann", "ann@example.com", "", "user", tc.active, "", 0, "", "", 0.0, now, hash))

			rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
				"email": "ann@example.com", "password": tc.password,
			})
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(tc.result)))
			if tc.status == http.StatusOK {
				var body struct {
					Data authResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				claims, err := f.signer.Verify(body.Data.Token)
				require.NoError(t, err)
				assert.Equal(t, userID, claims.UserID())
				assert.Equal(t, "user", claims.Role)
			}
			f.done(t)
		})
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).WithArgs("ghost@example.com").WillReturnError(pgx.ErrNoRows)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", message(t, rec))
	f.done(t)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ann", "email": "not-an-email", "password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "email")

	rec = f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1", "role": "admin",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Dr. Ada", "email": "ada@example.com", "password": "secret1", "role": "doctor",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "specialty is required for providers", message(t, rec))
	f.done(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	args := make([]any, 11)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	f.mock.ExpectQuery(`INSERT INTO users`).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "23505"})

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already registered", message(t, rec))
	f.done(t)
}

func TestAuthenticationRequired(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/appointments/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/appointments/my", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.done(t)
}

func TestDeactivatedAccountIsRefused(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(userID, "user", false)

	rec := f.do(t, http.MethodGet, "/api/v1/auth/me", f.token(t, userID, "user"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account is deactivated", message(t, rec))
	f.done(t)
}

func TestRoleGuards(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(providerID, "provider", true)
	rec := f.do(t, http.MethodPost, "/api/v1/appointments", f.token(t, providerID, "provider"), map[string]string{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.expectAccount(userID, "user", true)
	rec = f.do(t, http.MethodGet, "/api/v1/users", f.token(t, userID, "user"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.done(t)
}

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	f.expectAccount(userID, "user", true)
	f.mock.ExpectQuery(`role = 'provider' AND is_active`).WithArgs(providerID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(providerID, "Dr. Ada", "ada@example.com", "", "provider", true, "Cardiology", 12, "", "", 50.0, now))
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), userID, providerID, start, start.Add(time.Hour), "Checkup", "pending", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	f.mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs("appointment", pgxmock.AnyArg(), "appointment.booked.v1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.mock.ExpectCommit()

	rec := f.do(t, http.MethodPost, "/api/v1/appointments", f.token(t, userID, "user"), map[string]any{
		"providerId": providerID, "scheduledAt": start, "service": " Checkup ",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data appointments.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appointments.StatusPending, body.Data.Status)
	assert.Equal(t, "Dr. Ada", body.Data.Provider.Name)
	assert.Equal(t, "Cardiology", body.Data.Provider.Specialty)
	assert.True(t, body.Data.EndsAt.Equal(start.Add(time.Hour)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Bookings))
	f.done(t)
}

func TestBookRejectsUnavailableTimes(t *testing.T) {
	cases := map[string]time.Time{
		"past":       now.Add(-time.Hour),
		"off slot":   time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC),
		"after work": time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC),
	}
	for name, at := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.expectAccount(userID, "user", true)
			f.mock.ExpectQuery(`role = 'provider' AND is_active`).WithArgs(providerID).
				WillReturnRows(pgxmock.NewRows(userCols).
					AddRow(providerID, "Dr. Ada", "", "", "provider", true, "Cardiology", 12, "", "", 50.0, now))

			rec := f.do(t, http.MethodPost, "/api/v1/appointments", f.token(t, userID, "user"), map[string]any{
				"providerId": providerID, "scheduledAt": at, "service": "Checkup",
			})
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			f.done(t)
		})
	}
}

func TestListAppointmentsByView(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(userID, "user", true)
	rows := pgxmock.NewRows(apptCols)
	rows.AddRow("a1", userID, "Ann", "", "", providerID, "Dr. Ada", "", now.Add(48*time.Hour), now.Add(49*time.Hour), "Checkup", "pending", "", now, now)
	rows.AddRow("a2", userID, "Ann", "", "", providerID, "Dr. Ada", "", now.Add(-48*time.Hour), now.Add(-47*time.Hour), "Checkup", "completed", "", now, now)
	rows.AddRow("a3", userID, "Ann", "", "", providerID, "Dr. Ada", "", now.Add(2*time.Hour), now.Add(3*time.Hour), "Checkup", "confirmed", "", now, now)
	f.mock.ExpectQuery(`WHERE a.user_id = \$1`).WithArgs(userID).WillReturnRows(rows)

	rec := f.do(t, http.MethodGet, "/api/v1/appointments/my?view=upcoming", f.token(t, userID, "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data   []appointments.Appointment `json:"data"`
		Counts map[string]int             `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "a3", body.Data[0].ID)
	assert.Equal(t, "a1", body.Data[1].ID)
	assert.Equal(t, map[string]int{
		"all": 3, "upcoming": 2, "today": 1, "past": 1,
		"pending": 1, "confirmed": 1, "completed": 1, "cancelled": 0,
	}, body.Counts)
	f.done(t)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(providerID, "provider", true)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(apptID).
		WillReturnRows(apptRow(pgxmock.NewRows(apptCols), "completed", now.Add(-time.Hour)))
	f.mock.ExpectRollback()

	rec := f.do(t, http.MethodPut, "/api/v1/appointments/"+apptID+"/status", f.token(t, providerID, "provider"),
		map[string]string{"status": "pending"})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("pending", metrics.ResultRejected)))
	f.done(t)
}

func TestUpdateStatusConfirms(t *testing.T) {
	f := newFixture(t)
	at := now.Add(72 * time.Hour)
	f.expectAccount(providerID, "provider", true)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(apptID).
		WillReturnRows(apptRow(pgxmock.NewRows(apptCols), "pending", at))
	f.mock.ExpectQuery(`UPDATE appointments`).WithArgs(apptID, "confirmed", "bring reports").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	f.mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs("appointment", apptID, "appointment.status_changed.v1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.mock.ExpectCommit()

	rec := f.do(t, http.MethodPut, "/api/v1/appointments/"+apptID+"/status", f.token(t, providerID, "provider"),
		map[string]string{"status": "Confirmed", "notes": "bring reports"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data appointments.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appointments.StatusConfirmed, body.Data.Status)
	assert.Equal(t, "bring reports", body.Data.Notes)
	f.done(t)
}

func TestProviderCannotUpdateSomeoneElsesAppointment(t *testing.T) {
	f := newFixture(t)
	other := "55555555-5555-4555-8555-555555555555"
	f.expectAccount(other, "provider", true)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(apptID).
		WillReturnRows(apptRow(pgxmock.NewRows(apptCols), "pending", now.Add(72*time.Hour)))
	f.mock.ExpectRollback()

	rec := f.do(t, http.MethodPut, "/api/v1/appointments/"+apptID+"/status", f.token(t, other, "provider"),
		map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.done(t)
}

func TestCancel(t *testing.T) {
	cases := []struct {
		name   string
		at     time.Time
		status int
	}{
		{"two days ahead", now.Add(48 * time.Hour), http.StatusOK},
		{"exactly one day ahead", now.Add(24 * time.Hour), http.StatusConflict},
		{"in an hour", now.Add(time.Hour), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectAccount(userID, "user", true)
			f.mock.ExpectBegin()
			f.mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(apptID).
				WillReturnRows(apptRow(pgxmock.NewRows(apptCols), "confirmed", tc.at))
			if tc.status == http.StatusOK {
				f.mock.ExpectQuery(`UPDATE appointments`).WithArgs(apptID, "cancelled", "").
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
				f.mock.ExpectExec(`INSERT INTO outbox_events`).
					WithArgs("appointment", apptID, "appointment.cancelled.v1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				f.mock.ExpectCommit()
			} else {
				f.mock.ExpectRollback()
			}

			rec := f.do(t, http.MethodPut, "/api/v1/appointments/"+apptID+"/cancel", f.token(t, userID, "user"), nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			f.done(t)
		})
	}
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(userID, "user", true)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(apptID).WillReturnError(pgx.ErrNoRows)
	f.mock.ExpectRollback()

	rec := f.do(t, http.MethodPut, "/api/v1/appointments/"+apptID+"/cancel", f.token(t, userID, "user"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.done(t)
}

func TestAdminCannotToggleSelf(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(adminID, "admin", true)

	rec := f.do(t, http.MethodPut, "/api/v1/users/"+adminID+"/toggle-status", f.token(t, adminID, "admin"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	f.done(t)
}

func TestProviderSlots(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(userID, "user", true)
	rec := f.do(t, http.MethodGet, "/api/v1/providers/"+providerID+"/slots?date=12/03/2026", f.token(t, userID, "user"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.expectAccount(userID, "user", true)
	f.mock.ExpectQuery(`role = 'provider' AND is_active`).WithArgs(providerID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(providerID, "Dr. Ada", "", "", "provider", true, "Cardiology", 12, "", "", 50.0, now))
	rec = f.do(t, http.MethodGet, "/api/v1/providers/"+providerID+"/slots?date=2026-03-10", f.token(t, userID, "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data []struct {
			Start time.Time `json:"start"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// 12:00 has begun, so 13:00 through 16:00 remain.
	require.Len(t, body.Data, 4)
	assert.Equal(t, 13, body.Data[0].Start.Hour())
	f.done(t)
}
