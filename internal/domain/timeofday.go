package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const timeOfDayLayout = "15:04"

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, use HH:mm", s)
	}

	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOfDayFromMicros converts microseconds since midnight.
func TimeOfDayFromMicros(us int64) TimeOfDay {
	d := time.Duration(us) * time.Microsecond
	return TimeOfDay{Hour: int(d / time.Hour), Minute: int((d % time.Hour) / time.Minute)}
}

func (t TimeOfDay) Micros() int64 {
	return (time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute).Microseconds()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Micros() < o.Micros()
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}

	*t = v
	return nil
}

// CivilDate drops the clock part of t, keeping its wall date as UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
