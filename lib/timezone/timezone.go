package timezone

import (
	"time"
	_ "time/tzdata"
)

// DefaultLocation is where run log timestamps are rendered unless
// configured otherwise.
const DefaultLocation = "Asia/Kolkata"

// LogLayout renders as "2025-09-24 07:05:09 PM".
const LogLayout = "2006-01-02 03:04:05 PM"

// Clock is what anything depending on the system clock should use.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// StandardClock reads the system clock in a fixed location.
type StandardClock struct {
	location *time.Location
}

// NewStandardClock loads the named location, an empty name means
// DefaultLocation.
func NewStandardClock(name string) (StandardClock, error) {
	if name == "" {
		name = DefaultLocation
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return StandardClock{}, err
	}
	return StandardClock{location: location}, nil
}

func (c StandardClock) Now() time.Time {
	return time.Now().In(c.location)
}

func (c StandardClock) Location() *time.Location {
	return c.location
}

// FixedClock always returns the same instant, for tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}

func (c FixedClock) Location() *time.Location {
	return c.At.Location()
}

// Format renders t in the clock's location using LogLayout.
func Format(c Clock, t time.Time) string {
	return t.In(c.Location()).Format(LogLayout)
}

// Date renders t in the clock's location as YYYY-MM-DD.
func Date(c Clock, t time.Time) string {
	return t.In(c.Location()).Format(time.DateOnly)
}
