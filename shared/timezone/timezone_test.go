package timezone_test

import (
	"testing"
	"time"

	"agrirent/shared/timezone"
)

func TestTimezoneInit(t *testing.T) {
	now := timezone.Now()
	if now.IsZero() {
		t.Error("Now() returned zero time")
	}

	loc := timezone.GetLocation()
	if loc == nil {
		t.Error("GetLocation() returned nil")
	}
}

func TestTimezoneWithStandardLocation(t *testing.T) {
	utcTime := time.Now().UTC()
	appTime := timezone.ToAppTime(utcTime)

	if appTime.Location() == nil {
		t.Error("Expected converted time to have a location")
	}
}

func TestTimezoneFormat(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	formatted := timezone.Format(testTime, "2006-01-02 15:04:05 MST")

	if formatted == "" {
		t.Error("Format() returned empty string")
	}

	parsed, err := timezone.Parse("2006-01-02", "2026-03-10")
	if err != nil {
		t.Errorf("Parse() failed: %v", err)
	}

	if parsed == (time.Time{}) {
		t.Error("Parse() returned a zero time")
	}
}

func TestTruncate(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 17, 45, 12, 999, time.UTC)
	truncated := timezone.Truncate(testTime)

	if truncated.Hour() != 0 || truncated.Minute() != 0 || truncated.Second() != 0 {
		t.Errorf("expected midnight, got %v", truncated)
	}

	if truncated.Year() != 2026 || truncated.Month() != time.March || truncated.Day() != 10 {
		t.Errorf("expected the civil date to survive, got %v", truncated)
	}
}

func TestFormatDate(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC)

	if got := timezone.FormatDate(testTime); got != "2026-03-10" {
		t.Errorf("expected 2026-03-10, got %s", got)
	}
}
