// Package format holds the small presentation helpers shared by the CLI and logs.
package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// USD renders an amount as US dollars with thousands separators, e.g. "$1,234.50".
func USD(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Stamp returns t as YYYYMMDDHHMMSS in local time; the zero time means now.
func Stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("20060102150405")
}

// ClockMillis returns t as HH:MM:SS.mmm; the zero time means now.
func ClockMillis(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("15:04:05.000")
}
