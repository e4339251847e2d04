package timezone

import (
	"fmt"
	"time"
)

// Clock is the only source of "now" for the dashboard, "today" depends on
// its location.
type Clock interface {
	Now() time.Time
}

func LoadLocation(zone string) (*time.Location, error) {
	if zone == "" {
		return time.Local, nil
	}
	location, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", zone, err)
	}
	return location, nil
}

type systemClock struct {
	location *time.Location
}

func NewSystemClock(location *time.Location) Clock {
	return systemClock{location: location}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.location)
}

// FixedClock always returns the same instant, it can be moved explicitly.
type FixedClock struct {
	T time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{T: t}
}

func (c *FixedClock) Now() time.Time {
	return c.T
}

func (c *FixedClock) Add(d time.Duration) {
	c.T = c.T.Add(d)
}
