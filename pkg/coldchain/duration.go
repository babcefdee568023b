package coldchain

import (
	"fmt"
	"time"
)

// FormatDuration renders d rounded to the minute, e.g. "4h04m" or "10m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// Hours returns d as fractional hours.
func Hours(d time.Duration) float64 {
	return d.Hours()
}

// Minutes returns d as whole minutes, rounded.
func Minutes(d time.Duration) int64 {
	return int64(d.Round(time.Minute) / time.Minute)
}
