package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"golang.org/x/sync/errgroup"
)

type RegisterInput struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	Phone           string  `json:"phone,omitempty"`
	Role            string  `json:"role,omitempty"`
	Specialty       string  `json:"specialty,omitempty"`
	Experience      int     `json:"experience,omitempty"`
	Bio             string  `json:"bio,omitempty"`
	Location        string  `json:"location,omitempty"`
	ConsultationFee float64 `json:"consultationFee,omitempty"`
}

// ProfileInput carries the fields to change; zero values are left untouched.
type ProfileInput struct {
	Name            string  `json:"name,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	Specialty       string  `json:"specialty,omitempty"`
	Experience      int     `json:"experience,omitempty"`
	Bio             string  `json:"bio,omitempty"`
	Location        string  `json:"location,omitempty"`
	ConsultationFee float64 `json:"consultationFee,omitempty"`
}

type Auth struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      accounts.User `json:"user"`
}

type ProviderFilter struct {
	Specialty string
	Search    string
	Location  string
}

type BookingInput struct {
	ProviderID  string    `json:"providerId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Service     string    `json:"service"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (Auth, error) {
	var out Auth
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (Auth, error) {
	var out Auth
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (accounts.User, error) {
	var out accounts.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (accounts.User, error) {
	var out accounts.User
	err := c.do(ctx, http.MethodPut, "/auth/profile", nil, in, &out)
	return out, err
}

func (c *Client) GetProviders(ctx context.Context, f ProviderFilter) ([]accounts.Provider, error) {
	q := url.Values{}
	if f.Specialty != "" {
		q.Set("specialty", f.Specialty)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	var out []accounts.Provider
	err := c.do(ctx, http.MethodGet, "/providers", q, nil, &out)
	return out, err
}

func (c *Client) GetProvider(ctx context.Context, id string) (accounts.Provider, error) {
	var out accounts.Provider
	err := c.do(ctx, http.MethodGet, "/providers/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// GetProviderSlots lists the open slots of a provider on date's calendar day.
func (c *Client) GetProviderSlots(ctx context.Context, id string, date time.Time) ([]accounts.Slot, error) {
	q := url.Values{"date": {date.Format(time.DateOnly)}}
	var out []accounts.Slot
	err := c.do(ctx, http.MethodGet, "/providers/"+url.PathEscape(id)+"/slots", q, nil, &out)
	return out, err
}

func (c *Client) UpdateProviderProfile(ctx context.Context, in ProfileInput) (accounts.User, error) {
	var out accounts.User
	err := c.do(ctx, http.MethodPut, "/providers/profile", nil, in, &out)
	return out, err
}

func (c *Client) BookAppointment(ctx context.Context, in BookingInput) (appointments.Appointment, error) {
	var out appointments.Appointment
	err := c.do(ctx, http.MethodPost, "/appointments", nil, in, &out)
	return out, err
}

func (c *Client) GetUserAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return c.listAppointments(ctx, "/appointments/my")
}

func (c *Client) GetProviderAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return c.listAppointments(ctx, "/appointments/provider")
}

func (c *Client) GetAllAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return c.listAppointments(ctx, "/appointments")
}

func (c *Client) listAppointments(ctx context.Context, path string) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out, err
}

// UpdateAppointmentStatus checks the transition locally and only then asks
// the backend to apply it. A rejected edge never reaches the network.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, a appointments.Appointment, to appointments.Status, notes string) (appointments.Appointment, error) {
	upd, err := appointments.ApplyStatusTransition(a, to)
	if err != nil {
		return appointments.Appointment{}, &Error{Kind: ErrValidation, Message: err.Error(), Err: err}
	}
	body := struct {
		Status appointments.Status `json:"status"`
		Notes  string              `json:"notes,omitempty"`
	}{Status: upd.To, Notes: notes}

	var out appointments.Appointment
	err = c.do(ctx, http.MethodPut, "/appointments/"+url.PathEscape(upd.ID)+"/status", nil, body, &out)
	return out, err
}

func (c *Client) CancelAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	var out appointments.Appointment
	err := c.do(ctx, http.MethodPut, "/appointments/"+url.PathEscape(id)+"/cancel", nil, nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]accounts.User, error) {
	var out []accounts.User
	err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

func (c *Client) ToggleUserStatus(ctx context.Context, id string) (accounts.User, error) {
	var out accounts.User
	err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/toggle-status", nil, nil, &out)
	return out, err
}

// AdminOverview fetches users and appointments concurrently and summarizes
// them. The first failure cancels the other request.
func (c *Client) AdminOverview(ctx context.Context, now time.Time) (accounts.Overview, error) {
	var (
		users []accounts.User
		appts []appointments.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = c.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = c.GetAllAppointments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return accounts.Overview{}, err
	}
	return accounts.Summarize(users, appts, now, 5), nil
}

// Summary is the dashboard answer of the gateway: the caller's appointments
// in one view plus the counts of every view.
type Summary struct {
	View         appointments.View          `json:"view"`
	Appointments []appointments.Appointment `json:"appointments"`
	Counts       appointments.Counts        `json:"counts"`
}

func (c *Client) DashboardSummary(ctx context.Context, view appointments.View) (Summary, error) {
	q := url.Values{}
	if view != "" {
		q.Set("view", string(view))
	}
	var out Summary
	err := c.do(ctx, http.MethodGet, "/dashboard/summary", q, nil, &out)
	return out, err
}
