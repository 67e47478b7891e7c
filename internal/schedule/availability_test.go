package schedule_test

import (
	"testing"
	"time"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

// fiveSlotCatalog builds the worked example from the booking design
// discussions: Mondays offer 09:00, 09:30, 10:00, 10:30, 11:00.
func fiveSlotCatalog() *schedule.Catalog {
	return schedule.NewCatalog(map[time.Weekday][]schedule.TimeOfDay{
		time.Monday: {
			schedule.MustTimeOfDay("09:00"),
			schedule.MustTimeOfDay("09:30"),
			schedule.MustTimeOfDay("10:00"),
			schedule.MustTimeOfDay("10:30"),
			schedule.MustTimeOfDay("11:00"),
		},
	})
}

func booked(times ...string) map[schedule.TimeOfDay]bool {
	set := make(map[schedule.TimeOfDay]bool)
	for _, s := range times {
		set[schedule.MustTimeOfDay(s)] = true
	}
	return set
}

func availabilityByTime(t *testing.T, slots []schedule.TimeSlot) map[string]bool {
	t.Helper()
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.Time.Short()] = s.Available
	}
	return out
}

func TestSixtyMinuteTrailingCapacity(t *testing.T) {
	// Empty book, 60-minute duration: the last two slots cannot host it
	// because there are not enough trailing slots before closing.
	slots := fiveSlotCatalog().SlotsForDate(monday)
	got := availabilityByTime(t, schedule.AvailableSlots(slots, nil, schedule.Duration60))

	want := map[string]bool{
		"09:00": true,
		"09:30": true,
		"10:00": true,
		"10:30": false,
		"11:00": false,
	}
	for at, avail := range want {
		if got[at] != avail {
			t.Errorf("slot %s available = %v, want %v", at, got[at], avail)
		}
	}
}

func TestFortyFiveMinuteLookahead(t *testing.T) {
	// 09:30 is booked: a 45-minute appointment at 09:00 would run into
	// it, so 09:00 must be unavailable even though it is unbooked.
	slots := fiveSlotCatalog().SlotsForDate(monday)
	got := availabilityByTime(t, schedule.AvailableSlots(slots, booked("09:30"), schedule.Duration45))

	want := map[string]bool{
		"09:00": false,
		"09:30": false,
		"10:00": true,
		"10:30": true,
		"11:00": false, // trailing capacity
	}
	for at, avail := range want {
		if got[at] != avail {
			t.Errorf("slot %s available = %v, want %v", at, got[at], avail)
		}
	}
}

func TestThirtyMinuteOnlyBookedSlotsBlocked(t *testing.T) {
	slots := fiveSlotCatalog().SlotsForDate(monday)
	got := availabilityByTime(t, schedule.AvailableSlots(slots, booked("10:00"), schedule.Duration30))

	for at, avail := range map[string]bool{
		"09:00": true, "09:30": true, "10:00": false, "10:30": true, "11:00": true,
	} {
		if got[at] != avail {
			t.Errorf("slot %s available = %v, want %v", at, got[at], avail)
		}
	}
}

func TestAvailabilityPreservesOrderAndInput(t *testing.T) {
	slots := fiveSlotCatalog().SlotsForDate(monday)
	out := schedule.AvailableSlots(slots, booked("09:00"), schedule.Duration30)

	if len(out) != len(slots) {
		t.Fatalf("output length %d, want %d", len(out), len(slots))
	}
	for i := range out {
		if out[i].ID != slots[i].ID || out[i].Time != slots[i].Time {
			t.Errorf("slot %d reordered: got %+v, want id=%s time=%s", i, out[i], slots[i].ID, slots[i].Time)
		}
	}
	// The catalog's slice must stay untouched.
	if !slots[0].Available {
		t.Error("input slice was mutated")
	}
}

func TestAvailabilityDeterministic(t *testing.T) {
	slots := fiveSlotCatalog().SlotsForDate(monday)
	set := booked("09:30", "10:30")

	first := schedule.AvailableSlots(slots, set, schedule.Duration45)
	second := schedule.AvailableSlots(slots, set, schedule.Duration45)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs between identical calls", i)
		}
	}
}

func TestAvailabilityEmptyDay(t *testing.T) {
	got := schedule.AvailableSlots(nil, booked("09:00"), schedule.Duration60)
	if len(got) != 0 {
		t.Errorf("empty catalog produced %d slots", len(got))
	}
}
