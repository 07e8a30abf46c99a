package period

import (
	"time"

	"cloudkeep/janus/pkg/interval"
)

// Anchors holds, for every supported resolution, the start of the period
// containing the reference instant. Period starts are computed in the
// configured location's wall-clock sense, so day, week and month boundaries
// follow the user's calendar, and carried as instants for comparison with
// UTC creation timestamps.
type Anchors struct {
	reference time.Time
	location  *time.Location
	starts    map[interval.Resolution]time.Time
}

// Compute builds the anchor set for a reference instant. A nil location
// means the system's local timezone.
func Compute(ref time.Time, loc *time.Location) Anchors {
	if loc == nil {
		loc = time.Local
	}
	local := ref.In(loc)

	starts := make(map[interval.Resolution]time.Time, len(interval.Supported()))
	for _, res := range interval.Supported() {
		starts[res] = periodStart(local, res)
	}

	return Anchors{reference: ref, location: loc, starts: starts}
}

// Reference returns the instant the anchors were computed for.
func (a Anchors) Reference() time.Time {
	return a.reference
}

// Location returns the timezone the period boundaries follow.
func (a Anchors) Location() *time.Location {
	return a.location
}

// Start returns the start of the current period for a resolution. The
// second return is false for resolutions outside the supported set.
func (a Anchors) Start(res interval.Resolution) (time.Time, bool) {
	t, ok := a.starts[res]
	return t, ok
}

// periodStart truncates a local wall-clock time to the start of the period
// the resolution defines. Truncation, not rounding: T10:36 with a 10-minute
// resolution becomes T10:30.
func periodStart(t time.Time, res interval.Resolution) time.Time {
	year, month, day := t.Date()
	loc := t.Location()

	switch res.Unit {
	case interval.UnitYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	case interval.UnitMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	case interval.UnitWeek:
		// Weeks start on Monday.
		midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	case interval.UnitDay:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	case interval.UnitHour:
		hour := t.Hour() / res.Magnitude * res.Magnitude
		return time.Date(year, month, day, hour, 0, 0, 0, loc)
	case interval.UnitMinute:
		minute := t.Minute() / res.Magnitude * res.Magnitude
		return time.Date(year, month, day, t.Hour(), minute, 0, 0, loc)
	default:
		// Unreachable for supported resolutions.
		return t
	}
}
