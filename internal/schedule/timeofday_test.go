package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"09:00", 540, true},
		{"9:00", 540, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.minutes, got.Minutes(), tc.in)
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	tod, err := ParseTimeOfDay("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", tod.String())

	data, err := json.Marshal(tod)
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(data))

	var back TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"16:30"`), &back))
	assert.Equal(t, 16*60+30, back.Minutes())

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &back))
}

func TestNewTimeRange(t *testing.T) {
	r, err := NewTimeRange("10:00", "11:30")
	require.NoError(t, err)
	assert.Equal(t, 90, r.Duration())

	_, err = NewTimeRange("11:00", "11:00")
	assert.Error(t, err, "zero-length range")

	_, err = NewTimeRange("12:00", "11:00")
	assert.Error(t, err, "inverted range")
}

func TestOverlaps(t *testing.T) {
	mk := func(start, end string) TimeRange {
		r, err := NewTimeRange(start, end)
		require.NoError(t, err)
		return r
	}

	a := mk("10:00", "11:00")

	assert.True(t, a.Overlaps(a), "self overlap")
	assert.True(t, a.Overlaps(mk("10:30", "11:30")))
	assert.True(t, a.Overlaps(mk("09:30", "10:30")))
	assert.True(t, a.Overlaps(mk("09:00", "12:00")), "containing range")
	assert.True(t, a.Overlaps(mk("10:15", "10:45")), "contained range")

	assert.False(t, a.Overlaps(mk("11:00", "12:00")), "adjacent after")
	assert.False(t, a.Overlaps(mk("09:00", "10:00")), "adjacent before")
	assert.False(t, a.Overlaps(mk("13:00", "14:00")))
}

func TestAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	date := time.Date(2025, 1, 10, 23, 45, 0, 0, time.UTC) // time-of-day ignored
	tod, _ := ParseTimeOfDay("10:00")

	got := tod.At(date, loc)
	assert.Equal(t, time.Date(2025, 1, 10, 10, 0, 0, 0, loc), got)
}
