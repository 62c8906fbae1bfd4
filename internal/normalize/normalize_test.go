package normalize

import (
	"testing"
	"time"
)

func TestNormalizeDate_Placeholders(t *testing.T) {
	for _, v := range []string{"", "null", "undefined", "unknown", "next week", "morning", "to be confirmed"} {
		if got := NormalizeDate(v, RoleDate); got != nil {
			t.Fatalf("expected nil for %q, got %q", v, *got)
		}
		if got := NormalizeDate(v, RoleTime); got != nil {
			t.Fatalf("expected nil for %q (time role), got %q", v, *got)
		}
	}
}

func TestNormalizeDate_DateStrings(t *testing.T) {
	got := NormalizeDate("2024-03-10", RoleDate)
	if got == nil || *got != "2024-03-10" {
		t.Fatalf("expected 2024-03-10, got %v", got)
	}
	got = NormalizeDate("03/10/2024", RoleDate)
	if got == nil || *got != "2024-03-10" {
		t.Fatalf("expected 2024-03-10, got %v", got)
	}
	if got := NormalizeDate("not a date", RoleDate); got != nil {
		t.Fatalf("expected nil for garbage date, got %q", *got)
	}
}

func TestNormalizeDate_EpochMillis(t *testing.T) {
	// 1710000000000 ms = 2024-03-09T16:00:00Z
	want := time.UnixMilli(1710000000000).UTC().Format("2006-01-02")

	got := NormalizeDate("1710000000000", RoleDate)
	if got == nil || *got != want {
		t.Fatalf("expected %s from epoch string, got %v", want, got)
	}
	got = NormalizeDate(float64(1710000000000), RoleDate)
	if got == nil || *got != want {
		t.Fatalf("expected %s from epoch number, got %v", want, got)
	}
	got = NormalizeDate(int64(1710000000000), RoleTimestamp)
	if got == nil || *got != "2024-03-09T16:00:00Z" {
		t.Fatalf("expected full instant, got %v", got)
	}
}

func TestNormalizeDate_TimeRole(t *testing.T) {
	got := NormalizeDate("14:30", RoleTime)
	if got == nil || *got != "14:30" {
		t.Fatalf("expected 14:30, got %v", got)
	}
	got = NormalizeDate("9:05:30", RoleTime)
	if got == nil || *got != "9:05:30" {
		t.Fatalf("expected 9:05:30, got %v", got)
	}
	if got := NormalizeDate("around 2pm", RoleTime); got != nil {
		t.Fatalf("expected nil for free text time, got %q", *got)
	}
}

func TestFormatPhone(t *testing.T) {
	if got := FormatPhone("15551234567"); got != "(555) 123-4567" {
		t.Fatalf("expected (555) 123-4567, got %q", got)
	}
	if got := FormatPhone("555-123-4567"); got != "(555) 123-4567" {
		t.Fatalf("expected (555) 123-4567, got %q", got)
	}
	if got := FormatPhone("abc"); got != PlaceholderPhone {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if got := FormatPhone("25551234567"); got != PlaceholderPhone {
		t.Fatalf("expected placeholder for non-1 country code, got %q", got)
	}
}

func TestCleanEmail(t *testing.T) {
	got := CleanEmail("a b@x.com")
	if got == nil || *got != "ab@x.com" {
		t.Fatalf("expected ab@x.com, got %v", got)
	}
	if got := CleanEmail("not-an-email"); got != nil {
		t.Fatalf("expected nil, got %q", *got)
	}
	if got := CleanEmail("two@@x.com"); got != nil {
		t.Fatalf("expected nil for double @, got %q", *got)
	}
	if got := CleanEmail(""); got != nil {
		t.Fatalf("expected nil for empty, got %q", *got)
	}
}

func TestParseAddress(t *testing.T) {
	a := ParseAddress("123 Main St, Austin, TX 78701, USA")
	if a.Street != "123 Main St" || a.City != "Austin" || a.State != "TX" || a.Zip != "78701" || a.Country != "US" {
		t.Fatalf("unexpected parse: %+v", a)
	}

	a = ParseAddress("45 King St, Toronto, ON M5H 1J9, Canada")
	if a.City != "Toronto" || a.State != "ON" || a.Zip != "M5H 1J9" || a.Country != "Canada" {
		t.Fatalf("unexpected parse: %+v", a)
	}

	a = ParseAddress("123 Main St, Austin TX 78701")
	if a.City != "Austin" || a.State != "TX" || a.Zip != "78701" {
		t.Fatalf("unexpected single-segment parse: %+v", a)
	}

	a = ParseAddress("unknown")
	if !a.IsUnknown() {
		t.Fatalf("expected unknown address, got %+v", a)
	}
	a = ParseAddress("")
	if !a.IsUnknown() || a.Country != "US" {
		t.Fatalf("expected unknown address with US default, got %+v", a)
	}
}
