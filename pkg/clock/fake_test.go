package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(10*time.Minute, func() { fired++ })

	c.Advance(9 * time.Minute)
	assert.Equal(t, 0, fired)

	c.Advance(time.Minute)
	assert.Equal(t, 1, fired)

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired)
	assert.Equal(t, epoch.Add(time.Hour+10*time.Minute), c.Now())
}

func TestFakeStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Minute, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 0, c.PendingCount())
}

func TestFakeCallbackSeesDeadlineTime(t *testing.T) {
	c := Fake(epoch)
	var seen time.Time
	c.AfterFunc(3*time.Minute, func() { seen = c.Now() })

	c.Advance(10 * time.Minute)
	assert.Equal(t, epoch.Add(3*time.Minute), seen)
}

func TestFakeRescheduleFromCallback(t *testing.T) {
	c := Fake(epoch)
	var fires []time.Time
	var tick func()
	tick = func() {
		fires = append(fires, c.Now())
		if len(fires) < 3 {
			c.AfterFunc(time.Minute, tick)
		}
	}
	c.AfterFunc(time.Minute, tick)

	c.Advance(5 * time.Minute)
	assert.Equal(t, []time.Time{
		epoch.Add(time.Minute),
		epoch.Add(2 * time.Minute),
		epoch.Add(3 * time.Minute),
	}, fires)
}
