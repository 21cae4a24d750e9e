package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveEventStatus(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		date    time.Time
		current EventStatus
		want    EventStatus
	}{
		{"future", today.AddDate(0, 0, 2), "", EventUpcoming},
		{"future overrides active", today.AddDate(0, 0, 1), EventActive, EventUpcoming},
		{"future overrides completed", today.AddDate(0, 1, 0), EventCompleted, EventUpcoming},
		{"past", today.AddDate(0, 0, -1), EventUpcoming, EventCompleted},
		{"past from active", today.AddDate(-1, 0, 0), EventActive, EventCompleted},
		{"today keeps active", today, EventActive, EventActive},
		{"today from upcoming", today, EventUpcoming, EventActive},
		{"today from completed", today, EventCompleted, EventActive},
		{"today from empty", today, "", EventActive},
		{"cancelled future", today.AddDate(0, 0, 3), EventCancelled, EventCancelled},
		{"cancelled past", today.AddDate(0, 0, -3), EventCancelled, EventCancelled},
		{"cancelled today", today, EventCancelled, EventCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveEventStatus(tt.date, tt.current, today))
		})
	}
}

func TestDeriveEventStatus_IgnoresClockPart(t *testing.T) {
	today := time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC)
	date := time.Date(2026, 10, 16, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, EventActive, DeriveEventStatus(date, EventUpcoming, today))
}

func TestStatusValid(t *testing.T) {
	for _, s := range EventStatuses() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, EventStatus("active").Valid())
	assert.False(t, EventStatus("").Valid())

	for _, s := range SectionStatuses() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SectionStatus("OPEN").Valid())

	assert.True(t, EventCancelled.Terminal())
	assert.True(t, EventCompleted.Terminal())
	assert.False(t, EventActive.Terminal())
	assert.False(t, EventUpcoming.Terminal())
}

func TestErrorKinds(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("op: %w", err) }

	assert.Equal(t, "validation", Kind(wrap(NewValidationError("name", "Event name is required"))))
	assert.Equal(t, "duplicate", Kind(wrap(&DuplicateError{Entity: "event", Message: "dup"})))
	assert.Equal(t, "not_found", Kind(wrap(&NotFoundError{Entity: "Event", ID: 7})))
	assert.Equal(t, "illegal_state", Kind(wrap(&IllegalStateError{Message: "no"})))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
	assert.Equal(t, "", Kind(nil))

	assert.True(t, errors.Is(&DuplicateError{}, ErrValidation))
	assert.Equal(t, "Event not found with ID: 7", (&NotFoundError{Entity: "Event", ID: 7}).Error())
	assert.Equal(t, "Category with name 'Jazz' not found", (&NotFoundError{Entity: "Category", Name: "Jazz"}).Error())
}

func TestTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("19:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 19, Minute: 5}, v)
	assert.Equal(t, "19:05", v.String())
	assert.Equal(t, v, TimeOfDayFromMicros(v.Micros()))

	_, err = ParseTimeOfDay("7pm")
	assert.Error(t, err)

	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"19:05"`, string(b))

	var back TimeOfDay
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, v, back)
	assert.True(t, TimeOfDay{Hour: 9}.Before(v))
}
