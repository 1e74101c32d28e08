package acmi

import (
	"testing"
	"time"
)

func TestParseInstantRFC3339(t *testing.T) {
	got, err := parseInstant("2020-06-01T12:30:45Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2020, 6, 1, 12, 30, 45, 0, time.UTC)
	if !got.Time().Equal(want) {
		t.Errorf("got %v, want %v", got.Time(), want)
	}
}

func TestParseInstantDayOfYear(t *testing.T) {
	got, err := parseInstant("2020/152 12:30:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// day 152 of a leap year (2020) is May 31.
	want := time.Date(2020, time.May, 31, 12, 30, 45, 0, time.UTC)
	if !got.Time().Equal(want) {
		t.Errorf("got %v, want %v", got.Time(), want)
	}
}

func TestParseInstantMalformed(t *testing.T) {
	if _, err := parseInstant("not a time"); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestInstantAddSecondsAndSub(t *testing.T) {
	base, _ := parseInstant("2020-01-01T00:00:00Z")
	later := base.AddSeconds(90)
	if got := later.Sub(base); got != 90 {
		t.Errorf("Sub = %v, want 90", got)
	}
	if !base.Before(later) {
		t.Errorf("expected base before later")
	}
}

func TestTimeSpanValidDurationContains(t *testing.T) {
	start, _ := parseInstant("2020-01-01T00:00:00Z")
	end := start.AddSeconds(10)
	span := TimeSpan{Start: start, End: end}

	if !span.Valid() {
		t.Fatalf("expected span to be valid")
	}
	if got := span.Duration(); got != 10 {
		t.Errorf("Duration = %v, want 10", got)
	}
	if !span.Contains(start.AddSeconds(5)) {
		t.Errorf("expected span to contain midpoint")
	}
	if span.Contains(start.AddSeconds(-1)) {
		t.Errorf("expected span to exclude point before start")
	}
}

func TestTimeSpanInvalidWithoutBothEndpoints(t *testing.T) {
	span := TimeSpan{Start: ZeroInstant, End: ZeroInstant}
	if span.Valid() {
		t.Errorf("expected an all-zero span to be invalid")
	}
}
