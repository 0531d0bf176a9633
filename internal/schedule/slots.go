package schedule

// WorkingHours describes the bookable window of a working day and the fixed slot
// length offered to patients. Values come from configuration, not business law.
type WorkingHours struct {
	Start       TimeOfDay
	End         TimeOfDay
	SlotMinutes int
}

// DefaultWorkingHours matches the clinic's standard day: 09:00-17:00, hourly slots.
var DefaultWorkingHours = WorkingHours{
	Start:       9 * 60,
	End:         17 * 60,
	SlotMinutes: 60,
}

// AvailableSlots generates the fixed-length candidate slots inside the working
// window and drops any that collide with a busy range. A trailing slot that would
// run past the end of the window is dropped, never truncated.
func AvailableSlots(hours WorkingHours, busy []TimeRange) []TimeRange {
	if hours.SlotMinutes <= 0 || hours.End <= hours.Start {
		return nil
	}

	slots := make([]TimeRange, 0, 8)
	step := TimeOfDay(hours.SlotMinutes)
	for cursor := hours.Start; cursor < hours.End; cursor += step {
		slot := TimeRange{Start: cursor, End: cursor + step}
		if slot.End > hours.End {
			break
		}
		if !overlapsAny(slot, busy) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func overlapsAny(slot TimeRange, busy []TimeRange) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
