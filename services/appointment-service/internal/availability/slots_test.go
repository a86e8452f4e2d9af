package availability

import (
	"testing"
	"time"
)

func TestDailySlots_Defaults(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	slots := DailySlots(day, DefaultConfig(), day)
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
	last := slots[len(slots)-1]
	if !last.End.Equal(day.Add(17 * time.Hour)) {
		t.Fatalf("expected last slot to end 17:00, got %s", last.End.Format(time.RFC3339))
	}
}

func TestDailySlots_SkipsStarted(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	now := day.Add(15*time.Hour + 1*time.Minute)
	slots := DailySlots(day.Add(12*time.Hour), DefaultConfig(), now)
	// 15:00 already started; only 16:00 remains.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(16 * time.Hour)) {
		t.Fatalf("expected slot 16:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
}

func TestDailySlots_InvalidConfig(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	if got := DailySlots(day, Config{DayStart: 10 * time.Hour, DayEnd: 9 * time.Hour, Length: time.Hour}, day); got != nil {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestAligned(t *testing.T) {
	cfg := Config{DayStart: 9 * time.Hour, DayEnd: 17 * time.Hour, Length: 30 * time.Minute}
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Duration
		want bool
	}{
		{9 * time.Hour, true},
		{9*time.Hour + 30*time.Minute, true},
		{9*time.Hour + 10*time.Minute, false},
		{16*time.Hour + 30*time.Minute, true},
		{17 * time.Hour, false},
		{8 * time.Hour, false},
	}
	for _, tc := range cases {
		if got := Aligned(day.Add(tc.at), cfg); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.at, tc.want, got)
		}
	}
}
