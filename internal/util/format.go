package util //nolint:revive // package name util hosts shared formatting helpers used across CLI output

import (
	"strconv"
	"time"
)

// FormatCreatedAt formats a run timestamp for list display, handling edge cases.
// Returns "—" for the zero time.
func FormatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatAgeRange renders a min/max age pair, where 0/0 means unconstrained.
func FormatAgeRange(minAge, maxAge int) string {
	if minAge == 0 && maxAge == 0 {
		return "any"
	}
	return strconv.Itoa(minAge) + "-" + strconv.Itoa(maxAge)
}
