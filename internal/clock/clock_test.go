package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())

	c.Advance(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestToday_UsesLocation(t *testing.T) {
	// 23:30 UTC on the 16th is already the 17th in Tokyo.
	c := Fake(time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC))

	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Today(c, nil))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), Today(c, tokyo))
}

func TestReal(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	assert.False(t, got.Before(before))
}
