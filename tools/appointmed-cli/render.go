package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	return t
}

func formatWhen(t time.Time) string {
	return t.Local().Format("Mon 02 Jan 2006 15:04")
}

// renderAppointments shows the other party of each appointment: providers
// see patients, everyone else sees providers.
func renderAppointments(w io.Writer, list []appointments.Appointment, viewer access.Role) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No appointments in this view.")
		return
	}
	who := "Provider"
	if viewer == access.RoleProvider {
		who = "Patient"
	}
	t := newTable(w, "ID", "When", who, "Service", "Status", "Notes")
	for _, a := range list {
		party := a.Provider.Name
		if a.Provider.Specialty != "" {
			party += " (" + a.Provider.Specialty + ")"
		}
		if viewer == access.RoleProvider {
			party = a.User.Name
		} else if viewer == access.RoleAdmin {
			party = a.User.Name + " with " + a.Provider.Name
		}
		t.Append([]string{a.ID, formatWhen(a.ScheduledAt), party, a.Service, string(a.Status), a.Notes})
	}
	t.Render()
}

func renderCounts(w io.Writer, counts appointments.Counts) {
	views := appointments.Views()
	header := make([]string, 0, len(views))
	row := make([]string, 0, len(views))
	for _, v := range views {
		header = append(header, string(v))
		row = append(row, strconv.Itoa(counts[v]))
	}
	t := newTable(w, header...)
	t.Append(row)
	t.Render()
}

func renderProviders(w io.Writer, list []accounts.Provider) {
	t := newTable(w, "ID", "Name", "Specialty", "Experience", "Location", "Fee")
	for _, p := range list {
		t.Append([]string{
			p.ID, p.Name, p.Specialty,
			strconv.Itoa(p.Experience) + " yrs",
			p.Location,
			strconv.FormatFloat(p.ConsultationFee, 'f', 2, 64),
		})
	}
	t.Render()
}

func renderUser(w io.Writer, u accounts.User) {
	t := newTable(w, "Field", "Value")
	t.Append([]string{"ID", u.ID})
	t.Append([]string{"Name", u.Name})
	t.Append([]string{"Email", u.Email})
	t.Append([]string{"Phone", u.Phone})
	t.Append([]string{"Role", string(u.Role)})
	if u.Role == access.RoleProvider {
		t.Append([]string{"Specialty", u.Specialty})
		t.Append([]string{"Experience", strconv.Itoa(u.Experience) + " yrs"})
		t.Append([]string{"Location", u.Location})
		t.Append([]string{"Fee", strconv.FormatFloat(u.ConsultationFee, 'f', 2, 64)})
	}
	t.Render()
}

func renderUsers(w io.Writer, users []accounts.User) {
	t := newTable(w, "ID", "Name", "Email", "Role", "Active")
	for _, u := range users {
		t.Append([]string{u.ID, u.Name, u.Email, string(u.Role), strconv.FormatBool(u.IsActive)})
	}
	t.Render()
}

func renderOverview(w io.Writer, ov accounts.Overview) {
	fmt.Fprintf(w, "Users: %d (%d active)   Appointments: %d\n", ov.TotalUsers, ov.ActiveUsers, ov.TotalAppointments)
	t := newTable(w, "Role", "Accounts")
	for _, r := range []access.Role{access.RoleUser, access.RoleProvider, access.RoleAdmin} {
		t.Append([]string{string(r), strconv.Itoa(ov.UsersByRole[r])})
	}
	t.Render()
	fmt.Fprintln(w)
	renderCounts(w, ov.Counts)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next up:")
	renderAppointments(w, ov.Upcoming, access.RoleAdmin)
}
