package engine

import (
	"fmt"
	"math"
	"time"
)

// minutesBetween returns whole minutes from a to b, truncated.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a).Minutes())
}

// workMinutes computes the net worked minutes on clock-out: gross shift time
// minus lunch, floored at zero.
func workMinutes(clockIn, clockOut time.Time, lunchMinutes int) int {
	net := minutesBetween(clockIn, clockOut) - lunchMinutes
	if net < 0 {
		return 0
	}
	return net
}

// overtimeMinutes is the portion of a session beyond the standard day.
func overtimeMinutes(totalWorkMinutes, standardDayMinutes int) int {
	if totalWorkMinutes <= standardDayMinutes {
		return 0
	}
	return totalWorkMinutes - standardDayMinutes
}

// FormatHours renders minutes as a two-decimal hour string ("8.50").
func FormatHours(minutes int) string {
	return fmt.Sprintf("%.2f", float64(minutes)/60.0)
}

// roundHours converts minutes to hours rounded to two decimals.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60.0*100) / 100
}
