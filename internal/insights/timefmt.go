package insights

import (
	"fmt"
	"time"
)

const shortDateLayout = "Jan 2, 2006"

// FormatRelativeTime renders the time elapsed from t to now in coarse buckets.
// Timestamps a week or more old, or in the future, are shown as a short date.
func FormatRelativeTime(t, now time.Time) string {
	elapsed := now.Sub(t)
	switch {
	case elapsed < 0:
		return t.Format(shortDateLayout)
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed/time.Hour))
	}

	days := int(elapsed / (24 * time.Hour))
	switch {
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format(shortDateLayout)
	}
}
