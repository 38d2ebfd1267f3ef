package timeutil

import (
	"testing"
	"time"
)

func TestWallKeepsClockFields(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	stored := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

	got := Wall(stored, loc)
	if got.Hour() != 8 || got.Minute() != 0 || got.Location() != loc {
		t.Fatalf("expected 08:00 in ICT, got %v", got)
	}
	if want := time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected instant %v, got %v", want, got.UTC())
	}
	if !Wall(time.Time{}, loc).IsZero() {
		t.Fatal("zero time must stay zero")
	}
}

func TestLoadLocationFallback(t *testing.T) {
	loc := LoadLocation("Nowhere/Invalid_Zone", 7*time.Hour)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 7*60*60 {
		t.Fatalf("expected fallback offset 7h, got %ds", offset)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 1, 15, 8, 5, 0, 0, time.Local)
	var c Clock = FixedClock{At: at}
	if !c.Now().Equal(at) {
		t.Fatalf("expected %v, got %v", at, c.Now())
	}
}

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"":       0,
		"+07:00": 7 * time.Hour,
		"-03:30": -(3*time.Hour + 30*time.Minute),
	}
	for in, want := range cases {
		got, err := ParseOffset(in)
		if err != nil {
			t.Fatalf("ParseOffset(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseOffset(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseOffset("07:00"); err == nil {
		t.Fatal("expected error for unsigned offset")
	}
	if _, err := ParseOffset("+25:00"); err == nil {
		t.Fatal("expected error for out of range offset")
	}
}
