// Package solar computes the local daylight window used to pick the polling
// cadence.
package solar

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Fallback window used when no sunrise or sunset can be computed for the day
// (polar day or night, or a location/timezone mismatch). 09:00 to 18:30 local.
const (
	FallbackSunrise = 9 * 60
	FallbackSunset  = 18*60 + 30
)

// Window is a daytime interval in minutes since local midnight
type Window struct {
	Sunrise int
	Sunset  int
	// Approximate is set when the fixed fallback window was used
	Approximate bool
}

// Compute returns the daylight window for the calendar day of date in loc.
func Compute(date time.Time, lat, lon float64, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := date.In(loc)

	rise, set := sunrise.SunriseSunset(lat, lon, local.Year(), local.Month(), local.Day())
	if rise.IsZero() || set.IsZero() {
		return fallback()
	}

	w := Window{
		Sunrise: MinuteOfDay(rise.In(loc)),
		Sunset:  MinuteOfDay(set.In(loc)),
	}
	if w.Sunset <= w.Sunrise {
		return fallback()
	}
	return w
}

// Contains reports whether t falls in [Sunrise, Sunset).
func (w Window) Contains(t time.Time) bool {
	m := MinuteOfDay(t)
	return m >= w.Sunrise && m < w.Sunset
}

func (w Window) String() string {
	s := fmt.Sprintf("%02d:%02d-%02d:%02d", w.Sunrise/60, w.Sunrise%60, w.Sunset/60, w.Sunset%60)
	if w.Approximate {
		s += " (approx)"
	}
	return s
}

// MinuteOfDay returns minutes since midnight in t's own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func fallback() Window {
	return Window{Sunrise: FallbackSunrise, Sunset: FallbackSunset, Approximate: true}
}
