package schedule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight. Keeping it as an
// integer makes comparisons and arithmetic trivial; the HH:MM string form exists
// only at the JSON and database boundaries.
type TimeOfDay int

var timeOfDayPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !timeOfDayPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid time format %q (use HH:MM)", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) Hour() int    { return int(t) / 60 }
func (t TimeOfDay) Minute() int  { return int(t) % 60 }
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// At anchors the clock time to a calendar date in the given location.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// TimeRange is a half-open interval [Start, End) within a single day.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewTimeRange parses and validates a start/end pair.
func NewTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, err
	}
	r := TimeRange{Start: s, End: e}
	if !r.Valid() {
		return TimeRange{}, fmt.Errorf("end time %s must be after start time %s", e, s)
	}
	return r, nil
}

func (r TimeRange) Valid() bool { return r.End > r.Start }

// Duration returns the length of the range in minutes.
func (r TimeRange) Duration() int { return int(r.End - r.Start) }

// Overlaps reports whether two half-open ranges intersect. Back-to-back ranges
// sharing a boundary do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && r.End > other.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start, r.End)
}
