package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/client"
	"github.com/md-rashed-zaman/appointmed/libs/session"
)

// API is the part of *client.Client the commands call directly.
type API interface {
	session.API
	GetProviders(ctx context.Context, f client.ProviderFilter) ([]accounts.Provider, error)
	GetProvider(ctx context.Context, id string) (accounts.Provider, error)
	GetProviderSlots(ctx context.Context, id string, date time.Time) ([]accounts.Slot, error)
	BookAppointment(ctx context.Context, in client.BookingInput) (appointments.Appointment, error)
	GetUserAppointments(ctx context.Context) ([]appointments.Appointment, error)
	GetProviderAppointments(ctx context.Context) ([]appointments.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, a appointments.Appointment, to appointments.Status, notes string) (appointments.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (appointments.Appointment, error)
	ListUsers(ctx context.Context) ([]accounts.User, error)
	ToggleUserStatus(ctx context.Context, id string) (accounts.User, error)
	AdminOverview(ctx context.Context, now time.Time) (accounts.Overview, error)
	DashboardSummary(ctx context.Context, view appointments.View) (client.Summary, error)
}

type app struct {
	out     io.Writer
	errOut  io.Writer
	api     API
	session *session.Manager
	router  *access.Router
	now     func() time.Time
}

type command struct {
	// path is the screen the command belongs to; empty means no sign-in needed.
	path    string
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":        {summary: "sign in", run: (*app).login},
	"register":     {summary: "create an account", run: (*app).register},
	"logout":       {summary: "sign out", run: (*app).logout},
	"whoami":       {path: "/profile", summary: "show the signed-in account", run: (*app).whoami},
	"dashboard":    {path: "/", summary: "open your dashboard", run: (*app).dashboard},
	"providers":    {path: "/providers", summary: "find providers", run: (*app).providers},
	"slots":        {path: "/book", summary: "list a provider's open slots", run: (*app).slots},
	"book":         {path: "/book", summary: "book an appointment", run: (*app).book},
	"appointments": {path: "/appointments", summary: "list your appointments", run: (*app).appointments},
	"cancel":       {path: "/appointments", summary: "cancel one of your appointments", run: (*app).cancel},
	"schedule":     {path: "/my-appointments", summary: "list the appointments booked with you", run: (*app).schedule},
	"confirm":      {path: "/my-appointments", summary: "confirm a pending appointment", run: statusCommand(appointments.StatusConfirmed)},
	"complete":     {path: "/my-appointments", summary: "mark a confirmed appointment completed", run: statusCommand(appointments.StatusCompleted)},
	"decline":      {path: "/my-appointments", summary: "decline a pending appointment", run: statusCommand(appointments.StatusCancelled)},
	"profile":      {path: "/profile", summary: "show or edit your profile", run: (*app).profile},
	"admin":        {path: "/admin", summary: "system overview and accounts", run: (*app).admin},
	"toggle-user":  {path: "/admin", summary: "activate or deactivate an account", run: (*app).toggleUser},
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	if cmd.path != "" {
		if err := a.session.Init(ctx); err != nil {
			if !errors.Is(err, session.ErrSessionExpired) {
				return err
			}
			fmt.Fprintln(a.errOut, "notice:", err)
		}
		if err := a.gate(cmd.path); err != nil {
			return err
		}
	}
	err := cmd.run(a, ctx, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// gate resolves path for the current principal and refuses redirects.
func (a *app) gate(path string) error {
	if path == "/" {
		return nil
	}
	d := a.router.Resolve(path, a.session.Principal())
	switch d.Outcome {
	case access.Allowed:
		return nil
	case access.Redirect:
		if d.Target == access.LoginPath {
			return errors.New("please sign in first: appointmed-cli login -email you@example.com")
		}
		return fmt.Errorf("not available for your role; try the %s screen (appointmed-cli dashboard)", d.Target)
	default:
		return fmt.Errorf("unknown screen %s", path)
	}
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: appointmed-cli <command> [flags]")
	fmt.Fprintln(a.out)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-13s %s\n", name, commands[name].summary)
	}
}

func newFlags(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// oneArg returns the single positional argument left after flag parsing.
func oneArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("%s: expected exactly one %s", fs.Name(), what)
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}
