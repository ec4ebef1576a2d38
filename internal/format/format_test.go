package format

import (
	"testing"
	"time"
)

func TestUSD(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		0:       "$0.00",
		12.5:    "$12.50",
		1234.56: "$1,234.56",
		-7.25:   "-$7.25",
	}
	for in, want := range cases {
		if got := USD(in); got != want {
			t.Fatalf("USD(%v) = %q want %q", in, got, want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	t.Parallel()

	if !IsBlank("") || !IsBlank("  \t") {
		t.Fatalf("expected whitespace to be blank")
	}
	if IsBlank(" x ") {
		t.Fatalf("expected non-blank")
	}
}

func TestTimestamps(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, time.March, 5, 7, 8, 9, 42_000_000, time.Local)
	if got := Stamp(ts); got != "20240305070809" {
		t.Fatalf("Stamp = %q", got)
	}
	if got := ClockMillis(ts); got != "07:08:09.042" {
		t.Fatalf("ClockMillis = %q", got)
	}
}
