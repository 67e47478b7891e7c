package schedule

// AvailableSlots overlays a set of booked slot times onto a day's
// catalog slots and applies the duration lookahead rule. The input
// slice is not mutated; the result preserves catalog order and length.
// Callers with interval bookings build the set via coveredSlots.
//
// Lookahead is by list index, not time arithmetic: a slot can host a
// multi-slot duration only if the required number of immediately
// following catalog slots are also unbooked. A slot too close to the end
// of the list is unavailable regardless of bookings; there is no slot
// after closing to spill into.
func AvailableSlots(slots []TimeSlot, booked map[TimeOfDay]bool, d Duration) []TimeSlot {
	span := d.SlotSpan()

	free := make([]bool, len(slots))
	for i, s := range slots {
		free[i] = !booked[s.Time]
	}

	out := make([]TimeSlot, len(slots))
	for i, s := range slots {
		s.Available = i+span <= len(slots) && allFree(free[i:i+span])
		out[i] = s
	}
	return out
}

func allFree(window []bool) bool {
	for _, ok := range window {
		if !ok {
			return false
		}
	}
	return true
}

// coveredSlots marks every catalog slot whose start lies inside one of
// the booked intervals, the lookup shape AvailableSlots wants. A
// 60-minute booking at 09:00 occupies [09:00, 10:00) and therefore
// blocks both the 09:00 and 09:30 slots, not just its own start.
func coveredSlots(slots []TimeSlot, booked []BookedInterval) map[TimeOfDay]bool {
	set := make(map[TimeOfDay]bool)
	for _, b := range booked {
		for _, s := range slots {
			if s.Time >= b.Start && s.Time < b.End() {
				set[s.Time] = true
			}
		}
	}
	return set
}
