package internal

import (
	"fmt"
	"time"
)

// DisplayTimeFormat is the standard time format used across the application
const DisplayTimeFormat = "2006-01-02 15:04:05"

// FormatLocal formats an instant in the standard display format, local time.
func FormatLocal(t time.Time) string {
	return t.Local().Format(DisplayTimeFormat)
}

// FormatRemaining renders a duration the way the status table shows it.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
