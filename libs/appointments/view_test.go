package appointments

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func appt(id string, status Status, at time.Time) Appointment {
	return Appointment{ID: id, Status: status, ScheduledAt: at, EndsAt: at.Add(time.Hour)}
}

func ids(in []Appointment) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		out = append(out, a.ID)
	}
	return out
}

func sample(now time.Time) []Appointment {
	return []Appointment{
		appt("a", StatusPending, now.Add(48*time.Hour)),
		appt("b", StatusConfirmed, now.Add(2*time.Hour)),
		appt("c", StatusCompleted, now.Add(-72*time.Hour)),
		appt("d", StatusCancelled, now.Add(5*time.Hour)),
		appt("e", StatusConfirmed, now.Add(-3*time.Hour)),
		appt("f", StatusCompleted, now.Add(24*time.Hour)),
		appt("g", StatusPending, now.Add(-30*time.Minute)),
		appt("h", StatusPending, now),
	}
}

func TestThreeAppointmentScenario(t *testing.T) {
	now := day(2025, 1, 5)
	in := []Appointment{
		appt("1", StatusPending, day(2025, 1, 10)),
		appt("2", StatusCompleted, day(2025, 1, 1)),
		appt("3", StatusCancelled, day(2025, 1, 20)),
	}

	if got := ids(Classify(in, ViewUpcoming, now)); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("upcoming: expected [1], got %v", got)
	}
	if got := ids(Classify(in, ViewPast, now)); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("past: expected [2], got %v", got)
	}

	c := CountByCategory(in, now)
	want := map[View]int{ViewPending: 1, ViewConfirmed: 0, ViewCompleted: 1, ViewCancelled: 1}
	for v, n := range want {
		if c[v] != n {
			t.Fatalf("count %s: expected %d, got %d", v, n, c[v])
		}
	}
}

func TestStatusCountsSumToStatusRecords(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := sample(now)
	in = append(in, Appointment{ID: "x", Status: Status("bogus"), ScheduledAt: now})

	c := CountByCategory(in, now)
	sum := c[ViewPending] + c[ViewConfirmed] + c[ViewCompleted] + c[ViewCancelled]
	if sum != len(in)-1 {
		t.Fatalf("expected status counts to sum to %d, got %d (%v)", len(in)-1, sum, c)
	}
	if c[ViewAll] != len(in) {
		t.Fatalf("expected all=%d, got %d", len(in), c[ViewAll])
	}
	if len(c) != len(Views()) {
		t.Fatalf("expected a count for every view, got %v", c)
	}
}

func TestCountsMatchClassify(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := sample(now)
	c := CountByCategory(in, now)
	for _, v := range Views() {
		if got := len(Classify(in, v, now)); got != c[v] {
			t.Fatalf("%s: count %d but classify returned %d", v, c[v], got)
		}
	}
}

func TestUpcomingExcludesCancelledAndIsSorted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	got := Classify(sample(now), ViewUpcoming, now)
	if !reflect.DeepEqual(ids(got), []string{"h", "b", "f", "a"}) {
		t.Fatalf("unexpected upcoming %v", ids(got))
	}
	for i, a := range got {
		if a.Status == StatusCancelled {
			t.Fatalf("upcoming contains cancelled %s", a.ID)
		}
		if i > 0 && a.ScheduledAt.Before(got[i-1].ScheduledAt) {
			t.Fatalf("upcoming not sorted at %d: %v", i, ids(got))
		}
	}
}

func TestPastIsMostRecentFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	got := ids(Classify(sample(now), ViewPast, now))
	// f is completed ahead of schedule, so it is past despite its future date.
	if !reflect.DeepEqual(got, []string{"f", "g", "e", "c"}) {
		t.Fatalf("unexpected past %v", got)
	}
}

func TestTodayMatchesCalendarDayRegardlessOfStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := []Appointment{
		appt("midnight", StatusCancelled, day(2026, 3, 10)),
		appt("late", StatusCompleted, time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)),
		appt("next", StatusPending, day(2026, 3, 11)),
		appt("prev", StatusPending, time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)),
	}
	got := Classify(in, ViewToday, now)
	if !reflect.DeepEqual(ids(got), []string{"midnight", "late"}) {
		t.Fatalf("unexpected today %v", ids(got))
	}
	today := now.Truncate(24 * time.Hour)
	for _, a := range in {
		sameDay := a.ScheduledAt.Truncate(24 * time.Hour).Equal(today)
		if sameDay != ViewToday.Matches(a, now) {
			t.Fatalf("%s: same day is %v but today membership disagrees", a.ID, sameDay)
		}
	}
}

func TestTodayUsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, loc) // 2026-03-09 19:00 UTC
	a := appt("x", StatusPending, time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC))
	if !ViewToday.Matches(a, now) {
		t.Fatalf("expected 02:00 local on the 10th to be today")
	}
}

func TestClassifyAllIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	once := Classify(sample(now), ViewAll, now)
	twice := Classify(once, ViewAll, now)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("classify(all) not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := sample(now)
	before := ids(in)
	out := Classify(in, ViewAll, now)
	if !reflect.DeepEqual(ids(in), before) {
		t.Fatalf("input reordered: %v", ids(in))
	}
	out[0].Notes = "changed"
	for _, a := range in {
		if a.Notes != "" {
			t.Fatalf("output aliases input at %s", a.ID)
		}
	}
}

func TestClassifyTieBreaks(t *testing.T) {
	at := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	long := appt("long", StatusPending, at)
	long.EndsAt = at.Add(2 * time.Hour)
	in := []Appointment{long, appt("z", StatusPending, at), appt("y", StatusPending, at)}
	got := ids(Classify(in, ViewAll, at.Add(-time.Hour)))
	if !reflect.DeepEqual(got, []string{"y", "z", "long"}) {
		t.Fatalf("unexpected tie order %v", got)
	}
}

func TestParseViewFallsBackToAll(t *testing.T) {
	for _, raw := range []string{"", "bogus", "UPCOMINGX"} {
		v, ok := ParseView(raw)
		if v != ViewAll || ok {
			t.Fatalf("%q: expected fallback to all, got %s ok=%v", raw, v, ok)
		}
	}
	if v, ok := ParseView(" Today "); v != ViewToday || !ok {
		t.Fatalf("expected today, got %s ok=%v", v, ok)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	unknown, _ := ParseView("nope")
	if !reflect.DeepEqual(ids(Classify(sample(now), unknown, now)), ids(Classify(sample(now), ViewAll, now))) {
		t.Fatalf("unknown view should classify like all")
	}
	if got := len(Classify(sample(now), View("nope"), now)); got != len(sample(now)) {
		t.Fatalf("unparsed unknown view should match everything, got %d", got)
	}
}

func TestViewsCoverEveryStatus(t *testing.T) {
	var have []string
	for _, v := range Views() {
		have = append(have, string(v))
	}
	sort.Strings(have)
	for _, s := range Statuses() {
		i := sort.SearchStrings(have, string(s))
		if i == len(have) || have[i] != string(s) {
			t.Fatalf("no view for status %s", s)
		}
	}
}
