// Package gap detects discontinuities in sample arrival: gaps between
// consecutive samples, data loss at the declared report boundaries, and runs
// of samples that carry no temperature.
package gap

import (
	"sort"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// kindOrder breaks ties between events that start at the same instant.
var kindOrder = map[coldchain.GapKind]int{
	coldchain.GapInternal:           0,
	coldchain.GapStartLoss:          1,
	coldchain.GapEndLoss:            2,
	coldchain.GapMissingTemperature: 3,
}

// Detect returns every gap event in samples, ordered by start time.
// samples must be sorted ascending with unique timestamps.
func Detect(samples []coldchain.Sample, window coldchain.ReportWindow, threshold time.Duration) []coldchain.GapEvent {
	events := InternalGaps(samples, threshold)
	events = append(events, BoundaryLoss(samples, window, threshold)...)
	events = append(events, MissingTemperatureRuns(samples, threshold)...)

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return kindOrder[events[i].Kind] < kindOrder[events[j].Kind]
	})
	return events
}

// InternalGaps emits one event for each adjacent pair of samples whose
// spacing is at least threshold.
func InternalGaps(samples []coldchain.Sample, threshold time.Duration) []coldchain.GapEvent {
	var events []coldchain.GapEvent
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1].Timestamp, samples[i].Timestamp
		if diff := curr.Sub(prev); diff >= threshold {
			events = append(events, newEvent(coldchain.GapInternal, prev, curr))
		}
	}
	return events
}

// BoundaryLoss compares the first and last samples against the declared
// report window. An absent bound skips only its own check.
func BoundaryLoss(samples []coldchain.Sample, window coldchain.ReportWindow, threshold time.Duration) []coldchain.GapEvent {
	if len(samples) == 0 {
		return nil
	}
	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp

	var events []coldchain.GapEvent
	if start := window.DeclaredStart; start != nil && first.Sub(*start) >= threshold {
		events = append(events, newEvent(coldchain.GapStartLoss, *start, first))
	}
	if end := window.DeclaredEnd; end != nil && end.Sub(last) >= threshold {
		events = append(events, newEvent(coldchain.GapEndLoss, last, *end))
	}
	return events
}

// MissingTemperatureRuns merges consecutive samples without a temperature
// into runs and emits the runs spanning at least threshold.
func MissingTemperatureRuns(samples []coldchain.Sample, threshold time.Duration) []coldchain.GapEvent {
	var events []coldchain.GapEvent
	var runStart, runEnd time.Time
	inRun := false

	closeRun := func() {
		if inRun && runEnd.Sub(runStart) >= threshold {
			events = append(events, newEvent(coldchain.GapMissingTemperature, runStart, runEnd))
		}
		inRun = false
	}

	for _, s := range samples {
		if s.HasTemperature() {
			closeRun()
			continue
		}
		if !inRun {
			runStart = s.Timestamp
			inRun = true
		}
		runEnd = s.Timestamp
	}
	closeRun()
	return events
}

func newEvent(kind coldchain.GapKind, start, end time.Time) coldchain.GapEvent {
	return coldchain.GapEvent{
		Kind:     kind,
		Start:    start,
		End:      end,
		Duration: end.Sub(start),
	}
}
