package availability

import (
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/accounts"
)

// Config describes the bookable hours of a day.
type Config struct {
	DayStart time.Duration // offset from midnight, e.g. 9h
	DayEnd   time.Duration
	Length   time.Duration
}

func DefaultConfig() Config {
	return Config{DayStart: 9 * time.Hour, DayEnd: 17 * time.Hour, Length: time.Hour}
}

func (c Config) Valid() bool {
	return c.Length > 0 && c.DayStart >= 0 && c.DayEnd <= 24*time.Hour && c.DayStart+c.Length <= c.DayEnd
}

// DailySlots lists the back-to-back slots of day's calendar day (in day's
// location) that start after now. Existing bookings are not subtracted.
func DailySlots(day time.Time, cfg Config, now time.Time) []accounts.Slot {
	if !cfg.Valid() {
		return nil
	}
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	windowEnd := midnight.Add(cfg.DayEnd)

	var slots []accounts.Slot
	for t := midnight.Add(cfg.DayStart); !t.Add(cfg.Length).After(windowEnd); t = t.Add(cfg.Length) {
		if !t.After(now) {
			continue
		}
		slots = append(slots, accounts.Slot{Start: t, End: t.Add(cfg.Length)})
	}
	return slots
}

// Aligned reports whether start is the beginning of one of the day's slots.
func Aligned(start time.Time, cfg Config) bool {
	if !cfg.Valid() {
		return false
	}
	y, m, d := start.Date()
	offset := start.Sub(time.Date(y, m, d, 0, 0, 0, 0, start.Location()))
	if offset < cfg.DayStart || offset+cfg.Length > cfg.DayEnd {
		return false
	}
	return (offset-cfg.DayStart)%cfg.Length == 0
}
