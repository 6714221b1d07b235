package model

import (
	"fmt"
	"strings"
)

// FormatSeconds renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// HumanizeDuration renders seconds as "1 hour, 2 minutes, 5 seconds".
func HumanizeDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%d hour", hours)
		if hours > 1 {
			b.WriteString("s")
		}
		if minutes > 0 || secs > 0 {
			b.WriteString(", ")
		}
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%d minute", minutes)
		if minutes > 1 {
			b.WriteString("s")
		}
		if secs > 0 {
			b.WriteString(", ")
		}
	}
	if secs > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%d second", secs)
		if secs != 1 {
			b.WriteString("s")
		}
	}
	return b.String()
}

// NotificationText returns the title and body shown by display sinks while a
// run is active.
func NotificationText(s TimerState) (string, string) {
	switch {
	case s.Phase == PhaseIdle:
		return "intervald", "Ready"
	case s.IsCompleted():
		return FormatSeconds(0), "Workout complete"
	case s.IsPreparing():
		if s.IsPaused() {
			return FormatSeconds(s.PrepareRemaining), "Paused"
		}
		return FormatSeconds(s.PrepareRemaining), "Get ready..."
	}
	title := FormatSeconds(s.CurrentIntervalWorkSeconds())
	if s.IsPaused() {
		return title, "Paused"
	}
	return title, fmt.Sprintf("Total %s - Set %d - Cycle %d", FormatSeconds(s.RemainingSeconds()), s.CurrentSet(), s.CurrentCycle())
}
