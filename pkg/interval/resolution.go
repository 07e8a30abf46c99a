package interval

import "fmt"

// Unit is a calendar or clock unit of a duration component.
type Unit int

const (
	// UnitYear is the calendar year component ("Y" before the time mark).
	UnitYear Unit = iota
	// UnitMonth is the calendar month component ("M" before the time mark).
	UnitMonth
	// UnitWeek is the seven-day week component ("W").
	UnitWeek
	// UnitDay is the calendar day component ("D").
	UnitDay
	// UnitHour is the clock hour component ("H" after the time mark).
	UnitHour
	// UnitMinute is the clock minute component ("M" after the time mark).
	UnitMinute
	// UnitSecond is the clock second component ("S"). Seconds parse but no
	// second-level resolution is supported, so a non-zero seconds component
	// always fails validation.
	UnitSecond
)

// IsTime reports whether the unit is a clock unit (appears after the "T"
// time mark in ISO 8601 durations).
func (u Unit) IsTime() bool {
	return u == UnitHour || u == UnitMinute || u == UnitSecond
}

// String returns the unit name for error messages.
func (u Unit) String() string {
	switch u {
	case UnitYear:
		return "year"
	case UnitMonth:
		return "month"
	case UnitWeek:
		return "week"
	case UnitDay:
		return "day"
	case UnitHour:
		return "hour"
	case UnitMinute:
		return "minute"
	case UnitSecond:
		return "second"
	default:
		return "unknown"
	}
}

func (u Unit) designator() string {
	switch u {
	case UnitYear:
		return "Y"
	case UnitMonth:
		return "M"
	case UnitWeek:
		return "W"
	case UnitDay:
		return "D"
	case UnitHour:
		return "H"
	case UnitMinute:
		return "M"
	case UnitSecond:
		return "S"
	default:
		return "?"
	}
}

// Resolution is a rule's smallest time increment. For date units the
// magnitude is always 1; for time units it is the exact period size
// (12 hours, 30 minutes, ...).
type Resolution struct {
	Unit      Unit
	Magnitude int
}

// String renders the resolution as an ISO 8601 duration, e.g. "P1D" or
// "PT30M".
func (r Resolution) String() string {
	if r.Unit.IsTime() {
		return fmt.Sprintf("PT%d%s", r.Magnitude, r.Unit.designator())
	}
	return fmt.Sprintf("P%d%s", r.Magnitude, r.Unit.designator())
}

// supported is the fixed set of resolutions, ordered largest to smallest.
// Hour and minute magnitudes are restricted to values that divide the day
// and hour evenly and stay consistent with the 10-minute operating cycle:
// PT15M, PT5H and anything finer than 10 minutes are deliberately absent.
var supported = []Resolution{
	{UnitYear, 1},
	{UnitMonth, 1},
	{UnitWeek, 1},
	{UnitDay, 1},
	{UnitHour, 12},
	{UnitHour, 6},
	{UnitHour, 4},
	{UnitHour, 3},
	{UnitHour, 2},
	{UnitHour, 1},
	{UnitMinute, 30},
	{UnitMinute, 20},
	{UnitMinute, 10},
}

// Supported returns the allowed resolutions, ordered largest to smallest.
// The slice is a copy; callers may reorder it freely.
func Supported() []Resolution {
	out := make([]Resolution, len(supported))
	copy(out, supported)
	return out
}

// resolutionOf maps a duration component to its resolution: date units clamp
// to magnitude 1 (P3D anchors on day boundaries), time units keep their
// magnitude. The second return is false when the result is outside the
// supported set.
func resolutionOf(unit Unit, magnitude int) (Resolution, bool) {
	res := Resolution{Unit: unit, Magnitude: magnitude}
	if !unit.IsTime() {
		res.Magnitude = 1
	}
	for _, s := range supported {
		if s == res {
			return res, true
		}
	}
	return Resolution{}, false
}
