package appointments

import (
	"sort"
	"strings"
	"time"
)

// View selects and orders a subset of appointments for display.
type View string

const (
	ViewAll       View = "all"
	ViewUpcoming  View = "upcoming"
	ViewPast      View = "past"
	ViewToday     View = "today"
	ViewPending   View = View(StatusPending)
	ViewConfirmed View = View(StatusConfirmed)
	ViewCompleted View = View(StatusCompleted)
	ViewCancelled View = View(StatusCancelled)
)

var views = []View{ViewAll, ViewUpcoming, ViewPast, ViewToday, ViewPending, ViewConfirmed, ViewCompleted, ViewCancelled}

func Views() []View {
	return append([]View(nil), views...)
}

// ParseView maps a filter key to a View. Unknown or empty keys fall back to
// ViewAll; ok reports whether the key was recognized.
func ParseView(raw string) (v View, ok bool) {
	key := View(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range views {
		if key == known {
			return known, true
		}
	}
	return ViewAll, false
}

// Counts holds the number of appointments in each view.
type Counts map[View]int

// Matches reports whether a belongs to view v at now.
func (v View) Matches(a Appointment, now time.Time) bool {
	switch v {
	case ViewAll:
		return true
	case ViewUpcoming:
		return !a.ScheduledAt.Before(now) && a.Status != StatusCancelled
	case ViewPast:
		return a.ScheduledAt.Before(now) || a.Status == StatusCompleted
	case ViewToday:
		start := startOfDay(now)
		return !a.ScheduledAt.Before(start) && a.ScheduledAt.Before(start.AddDate(0, 0, 1))
	case ViewPending, ViewConfirmed, ViewCompleted, ViewCancelled:
		return a.Status == Status(v)
	}
	return ViewAll.Matches(a, now)
}

// Classify returns the appointments in view v at now as a new slice. The
// input is left untouched. Results are soonest first, except ViewPast which
// is most recent first.
func Classify(in []Appointment, v View, now time.Time) []Appointment {
	out := make([]Appointment, 0, len(in))
	for _, a := range in {
		if v.Matches(a, now) {
			out = append(out, a)
		}
	}
	if v == ViewPast {
		sort.SliceStable(out, func(i, j int) bool { return earlier(out[j], out[i]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return earlier(out[i], out[j]) })
	}
	return out
}

// CountByCategory counts every view in one pass.
func CountByCategory(in []Appointment, now time.Time) Counts {
	c := make(Counts, len(views))
	for _, v := range views {
		c[v] = 0
	}
	for _, a := range in {
		for _, v := range views {
			if v.Matches(a, now) {
				c[v]++
			}
		}
	}
	return c
}

func earlier(a, b Appointment) bool {
	if !a.ScheduledAt.Equal(b.ScheduledAt) {
		return a.ScheduledAt.Before(b.ScheduledAt)
	}
	if !a.EndsAt.Equal(b.EndsAt) {
		return a.EndsAt.Before(b.EndsAt)
	}
	return a.ID < b.ID
}

// startOfDay is midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
