package acmi

import (
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Instant is an absolute UTC point in time with millisecond precision, as
// the precision TimeSpan/EntityProps bookkeeping needs.
type Instant struct {
	t     time.Time
	valid bool
}

// ZeroInstant is the invalid instant returned when no reference time could
// be established.
var ZeroInstant = Instant{}

func instantFromTime(t time.Time) Instant {
	return Instant{t: t.UTC().Round(time.Millisecond), valid: true}
}

// parseInstant decodes an absolute timestamp. ReferenceTime/RecordingTime
// are documented as ISO-8601, so that is tried first; a handful of
// TacView-adjacent recorders emit the day-of-year form "yyyy/ddd hh:mm:ss"
// instead, so that is the fallback, resolved via the soniakeys/meeus/v3/julian
// calendar helpers for leap-year-safe day arithmetic.
func parseInstant(s string) (Instant, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return instantFromTime(t), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return instantFromTime(t), nil
	}

	t, err := parseDayOfYearInstant(s)
	if err != nil {
		return ZeroInstant, err
	}
	return instantFromTime(t), nil
}

// parseDayOfYearInstant decodes "yyyy/ddd hh:mm:ss" timestamps.
func parseDayOfYearInstant(s string) (time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 2)
	if len(parts) != 2 {
		return time.Time{}, ErrMalformedRecord
	}

	dateParts := strings.SplitN(parts[0], "/", 2)
	if len(dateParts) != 2 {
		return time.Time{}, ErrMalformedRecord
	}

	year, err := strconv.Atoi(dateParts[0])
	if err != nil {
		return time.Time{}, ErrMalformedRecord
	}
	doy, err := strconv.Atoi(dateParts[1])
	if err != nil {
		return time.Time{}, ErrMalformedRecord
	}

	month, day := julian.DayOfYearToCalendar(doy, julian.LeapYearGregorian(year))

	hms := strings.Split(parts[1], ":")
	if len(hms) != 3 {
		return time.Time{}, ErrMalformedRecord
	}
	hour, err := strconv.Atoi(hms[0])
	if err != nil {
		return time.Time{}, ErrMalformedRecord
	}
	minute, err := strconv.Atoi(hms[1])
	if err != nil {
		return time.Time{}, ErrMalformedRecord
	}
	sec, err := strconv.ParseFloat(hms[2], 64)
	if err != nil {
		return time.Time{}, ErrMalformedRecord
	}

	whole := int(sec)
	nanos := int((sec - float64(whole)) * 1e9)

	return time.Date(year, time.Month(month), day, hour, minute, whole, nanos, time.UTC), nil
}

// Valid reports whether the instant was successfully established.
func (i Instant) Valid() bool {
	return i.valid
}

// AddSeconds returns the instant offset by the given number of seconds,
// which may be fractional.
func (i Instant) AddSeconds(seconds float64) Instant {
	return instantFromTime(i.t.Add(time.Duration(seconds * float64(time.Second))))
}

// Sub returns the number of seconds elapsed from o to i.
func (i Instant) Sub(o Instant) float64 {
	return i.t.Sub(o.t).Seconds()
}

// Before reports whether i is strictly earlier than o.
func (i Instant) Before(o Instant) bool {
	return i.t.Before(o.t)
}

// Time exposes the underlying UTC time.Time, e.g. for formatting.
func (i Instant) Time() time.Time {
	return i.t
}

func (i Instant) String() string {
	if !i.valid {
		return "invalid"
	}
	return i.t.Format(time.RFC3339Nano)
}

// TimeSpan is a pair of absolute instants.
type TimeSpan struct {
	Start Instant
	End   Instant
}

// Valid reports whether both endpoints of the span are valid instants.
func (s TimeSpan) Valid() bool {
	return s.Start.Valid() && s.End.Valid()
}

// Duration returns the span's length in seconds.
func (s TimeSpan) Duration() float64 {
	return s.End.Sub(s.Start)
}

// Contains reports whether t falls within [s.Start, s.End].
func (s TimeSpan) Contains(t Instant) bool {
	return !t.Before(s.Start) && !s.End.Before(t)
}
