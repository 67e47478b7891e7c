package schedule

import (
	"strconv"
	"time"
)

// Catalog defines which start times the clinic offers on a given date.
// It is static configuration expressed as a pure function of the date:
// same date in, same slots out, until the template itself changes.
type Catalog struct {
	week [7][]TimeOfDay // indexed by time.Weekday
}

// slotRange is a closed interval of slot start times generated at a
// fixed step.
type slotRange struct {
	from, to TimeOfDay
	step     int
}

func buildTimes(ranges []slotRange) []TimeOfDay {
	var out []TimeOfDay
	for _, r := range ranges {
		for t := r.from; t <= r.to; t = t.Add(r.step) {
			out = append(out, t)
		}
	}
	return out
}

// DefaultCatalog is the clinic's standing schedule: weekdays run
// 09:00-11:30 and 13:00-17:00 on a 30-minute grid (the gap is lunch),
// Saturday offers the morning block only, Sunday is closed.
func DefaultCatalog() *Catalog {
	weekday := buildTimes([]slotRange{
		{MustTimeOfDay("09:00"), MustTimeOfDay("11:30"), 30},
		{MustTimeOfDay("13:00"), MustTimeOfDay("17:00"), 30},
	})
	saturday := buildTimes([]slotRange{
		{MustTimeOfDay("09:00"), MustTimeOfDay("11:30"), 30},
	})

	var c Catalog
	for wd := time.Monday; wd <= time.Friday; wd++ {
		c.week[wd] = weekday
	}
	c.week[time.Saturday] = saturday
	return &c
}

// NewCatalog builds a catalog from an explicit per-weekday template.
// Times for each weekday must be strictly increasing.
func NewCatalog(week map[time.Weekday][]TimeOfDay) *Catalog {
	var c Catalog
	for wd, times := range week {
		c.week[wd] = times
	}
	return &c
}

// SlotsForDate returns the day's slot list in catalog order, all marked
// available. Slot ids are stable positions within the day ("1", "2", ...),
// matching what clients key their selection on. An empty result means the
// clinic is closed that day.
func (c *Catalog) SlotsForDate(date time.Time) []TimeSlot {
	times := c.week[date.Weekday()]
	slots := make([]TimeSlot, len(times))
	for i, t := range times {
		slots[i] = TimeSlot{
			ID:        strconv.Itoa(i + 1),
			Time:      t,
			Available: true,
		}
	}
	return slots
}

// Contains reports whether t is a catalog start time for date, and at
// which index in the day's list.
func (c *Catalog) Contains(date time.Time, t TimeOfDay) (int, bool) {
	for i, st := range c.week[date.Weekday()] {
		if st == t {
			return i, true
		}
	}
	return 0, false
}

// DayLength returns how many slots the catalog offers on date.
func (c *Catalog) DayLength(date time.Time) int {
	return len(c.week[date.Weekday()])
}
