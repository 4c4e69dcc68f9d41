package util

import (
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock layout burned into video frames.
const TimestampLayout = time.DateTime

// FormatTimestamp formats t for the frame overlay (YYYY-MM-DD HH:MM:SS).
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatDuration formats milliseconds as a human-readable duration string.
// Examples: "45s", "2m 34s", "1h 23m"
func FormatDuration(ms int64) string {
	totalSeconds := ms / 1000
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes %= 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
