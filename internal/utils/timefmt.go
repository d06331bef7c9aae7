package utils

import "time"

// FormatTime renders a timestamp for display, minute precision in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
