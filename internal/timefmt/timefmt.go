// Package timefmt renders timestamps for listings, chats and notifications.
package timefmt

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Relative formats t against now: "just now", "N minutes ago", "N hours ago",
// "N days ago", then an absolute date once a week has passed. Timestamps in
// the future (clock skew) read as "just now".
func Relative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.Format(dateLayout)
	}
}

// Since is Relative against the current time.
func Since(t time.Time) string {
	return Relative(t, time.Now())
}

// Clock formats a chat message time, adding the date when it is not today.
func Clock(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("2006-01-02 15:04")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
