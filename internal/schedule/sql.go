package schedule

import (
	"database/sql/driver"
	"fmt"
)

// TimeOfDay is stored as a minutes-since-midnight integer column.

func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		if v < 0 || v >= 24*60 {
			return fmt.Errorf("time of day out of range: %d", v)
		}
		*t = TimeOfDay(v)
		return nil
	case nil:
		return fmt.Errorf("time of day cannot be null")
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}
