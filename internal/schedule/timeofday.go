package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock time within a day, stored as whole minutes
// since midnight. Appointment times cross from string form into this type
// exactly once, at the store/API boundary, so "09:00" and "09:00:00" can
// never disagree downstream.
type TimeOfDay int

// ParseTimeOfDay accepts both HH:MM and HH:MM:SS. Seconds are truncated;
// the clinic grid is minute-aligned.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	hour, err := parseTimePart(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %v", s, err)
	}
	minute, err := parseTimePart(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %v", s, err)
	}
	if len(parts) == 3 {
		if _, err := parseTimePart(parts[2], 59); err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %v", s, err)
		}
	}

	return TimeOfDay(hour*60 + minute), nil
}

func parseTimePart(s string, max int) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("component %q must be two digits", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("component %q out of range", s)
	}
	return n, nil
}

// MustTimeOfDay is a convenience for static slot tables and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < 24*60
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the normalized HH:MM:SS form the store uses.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// Short renders HH:MM, the form the original client displayed.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add returns the time of day n minutes later. No day wrapping; callers
// validate against the catalog before doing arithmetic past midnight.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}
