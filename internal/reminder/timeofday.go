// Package reminder schedules the daily parking reminder.
package reminder

import (
	"errors"
	"fmt"
)

// ErrInvalidTime is returned for reminder times that are not HH:MM.
var ErrInvalidTime = errors.New("time must be in HH:MM 24-hour format")

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a zero-padded 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}

	hour, okH := twoDigits(s[0], s[1])
	minute, okM := twoDigits(s[3], s[4])
	if !okH || !okM || hour > 23 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CronSpec returns a six-field cron spec firing daily at t, second zero.
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("0 %d %d * * *", t.Minute, t.Hour)
}
