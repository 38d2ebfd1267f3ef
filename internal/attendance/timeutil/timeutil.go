package timeutil

import (
	"fmt"
	"time"
)

// DefaultZone is the zone activity schedules are authored in.
const DefaultZone = "Asia/Ho_Chi_Minh"

// Clock is the single source of "now" for every window comparison.
type Clock interface {
	Now() time.Time
}

// LocalClock reports wall-clock time in the schedule zone.
type LocalClock struct {
	loc *time.Location
}

// NewLocalClock builds a clock for the named IANA zone. When the tz database is
// unavailable the zone falls back to the provided fixed offset.
func NewLocalClock(zone string, fallbackOffset time.Duration) *LocalClock {
	return &LocalClock{loc: LoadLocation(zone, fallbackOffset)}
}

// Now returns the current time in the clock's zone.
func (c *LocalClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the zone used by the clock.
func (c *LocalClock) Location() *time.Location {
	return c.loc
}

// LoadLocation resolves zone, falling back to a fixed offset of the same name.
func LoadLocation(zone string, fallbackOffset time.Duration) *time.Location {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.FixedZone(zone, int(fallbackOffset.Seconds()))
	}
	return loc
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now returns the frozen instant.
func (c FixedClock) Now() time.Time { return c.At }

// Wall re-reads the wall-clock fields of t in loc. DATETIME columns carry no
// zone, so the driver hands them back in whatever zone its DSN names; the
// schedule zone is the one they were authored in.
func Wall(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() || loc == nil {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// ParseOffset parses offsets like "+07:00" or "-03:30".
func ParseOffset(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	var sign, hours, minutes int
	switch v[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("offset %q must start with + or -", v)
	}
	if _, err := fmt.Sscanf(v[1:], "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", v, err)
	}
	if hours < 0 || hours > 14 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("offset %q out of range", v)
	}
	return time.Duration(sign) * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}
