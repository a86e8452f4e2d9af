package appointments

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestApplyStatusTransitionEdges(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			a := Appointment{ID: "a1", Status: from}
			upd, err := ApplyStatusTransition(a, to)
			if allowed[[2]Status{from, to}] {
				if err != nil {
					t.Fatalf("%s->%s: unexpected error %v", from, to, err)
				}
				if upd != (StatusUpdate{ID: "a1", From: from, To: to}) {
					t.Fatalf("%s->%s: unexpected update %+v", from, to, upd)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s->%s: expected ErrInvalidTransition, got %v", from, to, err)
			}
		}
	}
}

func TestTerminalStatusesRejectEverything(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusCompleted, StatusPending},
		{StatusCancelled, StatusConfirmed},
	}
	for _, tc := range cases {
		_, err := ApplyStatusTransition(Appointment{ID: "x", Status: tc.from}, tc.to)
		var te *TransitionError
		if !errors.As(err, &te) || te.From != tc.from || te.To != tc.to {
			t.Fatalf("%s->%s: expected TransitionError, got %v", tc.from, tc.to, err)
		}
		if NextStatuses(tc.from) != nil {
			t.Fatalf("%s should have no next statuses", tc.from)
		}
	}
	if !reflect.DeepEqual(NextStatuses(StatusPending), []Status{StatusConfirmed, StatusCancelled}) {
		t.Fatalf("unexpected next statuses for pending: %v", NextStatuses(StatusPending))
	}
}

func TestCanCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		status Status
		at     time.Time
		want   bool
	}{
		{"pending far ahead", StatusPending, now.Add(48 * time.Hour), true},
		{"confirmed far ahead", StatusConfirmed, now.Add(25 * time.Hour), true},
		{"exactly 24h", StatusPending, now.Add(24 * time.Hour), false},
		{"within 24h", StatusConfirmed, now.Add(23 * time.Hour), false},
		{"in the past", StatusPending, now.Add(-time.Hour), false},
		{"completed far ahead", StatusCompleted, now.Add(240 * time.Hour), false},
		{"completed past", StatusCompleted, now.Add(-240 * time.Hour), false},
		{"cancelled", StatusCancelled, now.Add(240 * time.Hour), false},
	}
	for _, tc := range cases {
		if got := CanCancel(appt("a", tc.status, tc.at), now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	var a Appointment
	if err := json.Unmarshal([]byte(`{"id":"1","status":"Confirmed"}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %q", a.Status)
	}
	if err := json.Unmarshal([]byte(`{"id":"1","status":"archived"}`), &a); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}
