package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMidLatitudeSummer(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	w := Compute(time.Date(2026, 6, 21, 12, 0, 0, 0, loc), 52.37, 4.90, loc)

	assert.False(t, w.Approximate)
	// Amsterdam midsummer: sunrise around 05:18, sunset around 22:06 CEST
	assert.InDelta(t, 5*60+18, w.Sunrise, 10)
	assert.InDelta(t, 22*60+6, w.Sunset, 10)
}

func TestComputeWinterIsShorter(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	summer := Compute(time.Date(2026, 6, 21, 0, 0, 0, 0, loc), 52.37, 4.90, loc)
	winter := Compute(time.Date(2026, 12, 21, 0, 0, 0, 0, loc), 52.37, 4.90, loc)

	assert.Less(t, winter.Sunset-winter.Sunrise, summer.Sunset-summer.Sunrise)
	assert.Greater(t, winter.Sunrise, summer.Sunrise)
}

func TestComputePolarNightFallsBack(t *testing.T) {
	loc, err := time.LoadLocation("Arctic/Longyearbyen")
	require.NoError(t, err)

	w := Compute(time.Date(2026, 12, 21, 12, 0, 0, 0, loc), 78.22, 15.65, loc)

	assert.True(t, w.Approximate)
	assert.Equal(t, FallbackSunrise, w.Sunrise)
	assert.Equal(t, FallbackSunset, w.Sunset)
}

func TestComputeNilLocation(t *testing.T) {
	w := Compute(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC), 0, 0, nil)
	assert.False(t, w.Approximate)
	assert.InDelta(t, 6*60, w.Sunrise, 15)
	assert.InDelta(t, 18*60, w.Sunset, 15)
}

func TestWindowContains(t *testing.T) {
	w := Window{Sunrise: 6 * 60, Sunset: 20 * 60}
	day := func(h, m int) time.Time { return time.Date(2026, 5, 1, h, m, 0, 0, time.UTC) }

	assert.True(t, w.Contains(day(6, 0)))
	assert.True(t, w.Contains(day(12, 0)))
	assert.True(t, w.Contains(day(19, 59)))
	assert.False(t, w.Contains(day(20, 0)))
	assert.False(t, w.Contains(day(2, 0)))
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "06:05-20:30", Window{Sunrise: 365, Sunset: 1230}.String())
	assert.Equal(t, "09:00-18:30 (approx)", fallback().String())
}
