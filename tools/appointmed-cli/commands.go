package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/client"
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login", a.errOut)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login: -email and -password are required")
	}
	u, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s (%s). Next: appointmed-cli dashboard\n", u.Name, u.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register", a.errOut)
	var in client.RegisterInput
	fs.StringVar(&in.Name, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password, at least 6 characters")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	fs.StringVar(&in.Role, "role", "user", "user or provider")
	fs.StringVar(&in.Specialty, "specialty", "", "provider specialty")
	fs.IntVar(&in.Experience, "experience", 0, "provider years of experience")
	fs.StringVar(&in.Location, "location", "", "provider location")
	fs.Float64Var(&in.ConsultationFee, "fee", 0, "provider consultation fee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	role, err := access.ParseRole(in.Role)
	if err != nil || role == access.RoleAdmin {
		return fmt.Errorf("register: -role must be user or provider")
	}
	in.Role = string(role)
	u, err := a.session.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created for %s (%s).\n", u.Name, u.Role)
	return nil
}

func (a *app) logout(context.Context, []string) error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami(context.Context, []string) error {
	u, _ := a.session.Current()
	renderUser(a.out, u)
	return nil
}

// dashboard opens the landing screen of the signed-in role.
func (a *app) dashboard(ctx context.Context, args []string) error {
	d := a.router.Resolve("/", a.session.Principal())
	if d.Target == access.LoginPath {
		return a.gate("/user-dashboard")
	}
	if d.Target == access.DashboardPath(access.RoleAdmin) {
		return a.admin(ctx, args)
	}

	fs := newFlags("dashboard", a.errOut)
	defaultView := appointments.ViewUpcoming
	if d.Target == access.DashboardPath(access.RoleProvider) {
		defaultView = appointments.ViewToday
	}
	view := fs.String("view", string(defaultView), "view: "+viewNames())
	if err := fs.Parse(args); err != nil {
		return err
	}
	v, ok := appointments.ParseView(*view)
	if !ok {
		fmt.Fprintf(a.errOut, "notice: unknown view %q, showing all\n", *view)
	}
	s, err := a.api.DashboardSummary(ctx, v)
	if err != nil {
		return err
	}
	u, _ := a.session.Current()
	fmt.Fprintf(a.out, "Hello, %s\n\n", u.Name)
	renderCounts(a.out, s.Counts)
	fmt.Fprintln(a.out)
	renderAppointments(a.out, s.Appointments, u.Role)
	return nil
}

func (a *app) providers(ctx context.Context, args []string) error {
	fs := newFlags("providers", a.errOut)
	var f client.ProviderFilter
	fs.StringVar(&f.Specialty, "specialty", "", "exact specialty")
	fs.StringVar(&f.Search, "search", "", "part of the name")
	fs.StringVar(&f.Location, "location", "", "part of the location")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := a.api.GetProviders(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No providers match.")
		return nil
	}
	renderProviders(a.out, list)
	return nil
}

func (a *app) slots(ctx context.Context, args []string) error {
	fs := newFlags("slots", a.errOut)
	date := fs.String("date", a.now().Format(time.DateOnly), "day as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg(fs, "provider id")
	if err != nil {
		return err
	}
	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("slots: -date must look like 2026-03-12")
	}
	p, err := a.api.GetProvider(ctx, id)
	if err != nil {
		return err
	}
	slots, err := a.api.GetProviderSlots(ctx, id, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s, %s\n", p.Name, p.Specialty)
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No open slots that day.")
		return nil
	}
	for _, s := range slots {
		fmt.Fprintf(a.out, "  %s  (appointmed-cli book -at %s -service ... %s)\n",
			s.Start.Local().Format("15:04"), s.Start.UTC().Format(time.RFC3339), id)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := newFlags("book", a.errOut)
	at := fs.String("at", "", "start time, RFC 3339 or \"2006-01-02 15:04\" local time")
	service := fs.String("service", "", "reason for the visit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg(fs, "provider id")
	if err != nil {
		return err
	}
	start, err := parseStart(*at)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*service) == "" {
		return errors.New("book: -service is required")
	}
	appt, err := a.api.BookAppointment(ctx, client.BookingInput{ProviderID: id, ScheduledAt: start, Service: *service})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked with %s on %s. Status: %s\n", appt.Provider.Name, formatWhen(appt.ScheduledAt), appt.Status)
	return nil
}

func (a *app) appointments(ctx context.Context, args []string) error {
	return a.listView(ctx, "appointments", args, a.api.GetUserAppointments)
}

func (a *app) schedule(ctx context.Context, args []string) error {
	return a.listView(ctx, "schedule", args, a.api.GetProviderAppointments)
}

// listView fetches the caller's appointments once and classifies them
// locally, printing the counts of every view above the selected one.
func (a *app) listView(ctx context.Context, name string, args []string, fetch func(context.Context) ([]appointments.Appointment, error)) error {
	fs := newFlags(name, a.errOut)
	view := fs.String("view", string(appointments.ViewAll), "view: "+viewNames())
	if err := fs.Parse(args); err != nil {
		return err
	}
	v, ok := appointments.ParseView(*view)
	if !ok {
		fmt.Fprintf(a.errOut, "notice: unknown view %q, showing all\n", *view)
	}
	all, err := fetch(ctx)
	if err != nil {
		return err
	}
	now := a.now()
	u, _ := a.session.Current()
	renderCounts(a.out, appointments.CountByCategory(all, now))
	fmt.Fprintln(a.out)
	renderAppointments(a.out, appointments.Classify(all, v, now), u.Role)
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := newFlags("cancel", a.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg(fs, "appointment id")
	if err != nil {
		return err
	}
	all, err := a.api.GetUserAppointments(ctx)
	if err != nil {
		return err
	}
	appt, ok := findAppointment(all, id)
	if !ok {
		return fmt.Errorf("cancel: no appointment %s", id)
	}
	if !appointments.CanCancel(appt, a.now()) {
		return fmt.Errorf("cancel: appointments can only be cancelled while %s or %s and more than %s ahead",
			appointments.StatusPending, appointments.StatusConfirmed, appointments.CancelNotice)
	}
	updated, err := a.api.CancelAppointment(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Cancelled your appointment with %s on %s.\n", updated.Provider.Name, formatWhen(updated.ScheduledAt))
	return nil
}

// statusCommand moves one of the provider's appointments to status. The
// transition is checked locally before anything is sent.
func statusCommand(to appointments.Status) func(a *app, ctx context.Context, args []string) error {
	return func(a *app, ctx context.Context, args []string) error {
		fs := newFlags(string(to), a.errOut)
		notes := fs.String("notes", "", "note for the patient")
		if err := fs.Parse(args); err != nil {
			return err
		}
		id, err := oneArg(fs, "appointment id")
		if err != nil {
			return err
		}
		all, err := a.api.GetProviderAppointments(ctx)
		if err != nil {
			return err
		}
		appt, ok := findAppointment(all, id)
		if !ok {
			return fmt.Errorf("no appointment %s in your schedule", id)
		}
		updated, err := a.api.UpdateAppointmentStatus(ctx, appt, to, *notes)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Appointment with %s is now %s.\n", updated.User.Name, updated.Status)
		return nil
	}
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := newFlags("profile", a.errOut)
	var in client.ProfileInput
	fs.StringVar(&in.Name, "name", "", "new name")
	fs.StringVar(&in.Phone, "phone", "", "new phone")
	fs.StringVar(&in.Specialty, "specialty", "", "providers: specialty")
	fs.IntVar(&in.Experience, "experience", 0, "providers: years of experience")
	fs.StringVar(&in.Bio, "bio", "", "providers: short bio")
	fs.StringVar(&in.Location, "location", "", "providers: location")
	fs.Float64Var(&in.ConsultationFee, "fee", 0, "providers: consultation fee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in == (client.ProfileInput{}) {
		u, _ := a.session.Current()
		renderUser(a.out, u)
		return nil
	}
	u, err := a.session.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	renderUser(a.out, u)
	return nil
}

func (a *app) admin(ctx context.Context, _ []string) error {
	ov, err := a.api.AdminOverview(ctx, a.now())
	if err != nil {
		return err
	}
	renderOverview(a.out, ov)
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	renderUsers(a.out, users)
	return nil
}

func (a *app) toggleUser(ctx context.Context, args []string) error {
	fs := newFlags("toggle-user", a.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneArg(fs, "user id")
	if err != nil {
		return err
	}
	u, err := a.api.ToggleUserStatus(ctx, id)
	if err != nil {
		return err
	}
	state := "deactivated"
	if u.IsActive {
		state = "activated"
	}
	fmt.Fprintf(a.out, "%s is now %s.\n", u.Name, state)
	return nil
}

func findAppointment(list []appointments.Appointment, id string) (appointments.Appointment, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return appointments.Appointment{}, false
}

func parseStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("book: -at must be RFC 3339 or \"2006-01-02 15:04\"")
}

func viewNames() string {
	names := make([]string, 0, len(appointments.Views()))
	for _, v := range appointments.Views() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}
