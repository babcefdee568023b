package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Day-first layouts precede ISO ones
// because the devices this reads are configured for Turkish locale.
var timestampLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"02.01.2006",
	"02/01/2006",
	"2006-01-02",
}

// ParseTimestamp parses a device timestamp as a naive wall-clock time,
// represented in UTC so that differences never cross a DST transition.
// Timestamps that carry an explicit offset are first converted to the wall
// clock of loc. A nil loc means UTC.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.In(loc)
		}
		return WallClock(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// WallClock drops the zone of t and keeps its clock reading, in UTC.
func WallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC)
}

// ParseTemperature accepts a decimal comma or point and an optional degree
// suffix.
func ParseTemperature(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "C")
	v = strings.TrimSuffix(v, "c")
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "°"))
	v = strings.ReplaceAll(v, ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("unrecognized temperature %q", s)
	}
	return f, nil
}
