// Package violation segments a temperature series into runs inside and
// outside the configured limits and accumulates the time spent outside.
package violation

import (
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// State is the classification of a single sample against the limits.
type State int

const (
	Normal State = iota
	BelowMin
	AboveMax
)

func (s State) String() string {
	switch s {
	case BelowMin:
		return "below_min"
	case AboveMax:
		return "above_max"
	default:
		return "normal"
	}
}

// Classify places temp against [lo, hi]. The limits are in band.
func Classify(temp, lo, hi float64) State {
	switch {
	case temp < lo:
		return BelowMin
	case temp > hi:
		return AboveMax
	default:
		return Normal
	}
}

// Run is a maximal sequence of consecutive samples sharing one state.
type Run struct {
	State   State
	Start   time.Time
	End     time.Time
	Min     float64
	Max     float64
	Samples int
}

// Duration is last sample minus first sample; a one-sample run is zero.
func (r Run) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Extreme is the most severe value for the run's state: the minimum for
// BelowMin, the maximum otherwise.
func (r Run) Extreme() float64 {
	if r.State == BelowMin {
		return r.Min
	}
	return r.Max
}

// Runs folds the samples that carry a temperature into state runs. Every
// such sample belongs to exactly one run; samples without a temperature are
// skipped and do not break a run.
func Runs(samples []coldchain.Sample, classify func(float64) State) []Run {
	var runs []Run
	var cur Run
	open := false

	for _, s := range samples {
		if !s.HasTemperature() {
			continue
		}
		v := s.Temp()
		st := classify(v)
		if open && st == cur.State {
			cur.End = s.Timestamp
			cur.Samples++
			if v < cur.Min {
				cur.Min = v
			}
			if v > cur.Max {
				cur.Max = v
			}
			continue
		}
		if open {
			runs = append(runs, cur)
		}
		cur = Run{State: st, Start: s.Timestamp, End: s.Timestamp, Min: v, Max: v, Samples: 1}
		open = true
	}
	if open {
		runs = append(runs, cur)
	}
	return runs
}

// Segments classifies samples against limits and returns every run,
// Normal runs included.
func Segments(samples []coldchain.Sample, limits coldchain.Limits) []Run {
	return Runs(samples, func(v float64) State {
		return Classify(v, limits.Min, limits.Max)
	})
}

// Segment returns the violation events of samples against limits. When ctx
// is non-nil the directional totals and global extremes are folded into it.
func Segment(samples []coldchain.Sample, limits coldchain.Limits, ctx *coldchain.DecisionContext) []coldchain.ViolationEvent {
	var events []coldchain.ViolationEvent
	for _, r := range Segments(samples, limits) {
		if r.State == Normal {
			continue
		}
		e := coldchain.ViolationEvent{
			Start:        r.Start,
			End:          r.End,
			Duration:     r.Duration(),
			ExtremeValue: r.Extreme(),
			Samples:      r.Samples,
		}
		if r.State == BelowMin {
			e.Kind = coldchain.ViolationBelowMin
		} else {
			e.Kind = coldchain.ViolationAboveMax
		}
		events = append(events, e)
		accumulate(ctx, e)
	}
	return events
}

func accumulate(ctx *coldchain.DecisionContext, e coldchain.ViolationEvent) {
	if ctx == nil {
		return
	}
	switch e.Kind {
	case coldchain.ViolationAboveMax:
		if ctx.AboveMaxEvents == 0 || e.ExtremeValue > ctx.MaxExtremeAboveLimit {
			ctx.MaxExtremeAboveLimit = e.ExtremeValue
		}
		ctx.AboveMaxEvents++
		ctx.TotalAboveMax += e.Duration
	case coldchain.ViolationBelowMin:
		if ctx.BelowMinEvents == 0 || e.ExtremeValue < ctx.MinExtremeBelowLimit {
			ctx.MinExtremeBelowLimit = e.ExtremeValue
		}
		ctx.BelowMinEvents++
		ctx.TotalBelowMin += e.Duration
	}
}

// RunDuration sums the durations of the maximal runs of samples whose
// temperature satisfies pred, using the same run-length rule as Segment.
func RunDuration(samples []coldchain.Sample, pred func(float64) bool) time.Duration {
	var total time.Duration
	runs := Runs(samples, func(v float64) State {
		if pred(v) {
			return AboveMax
		}
		return Normal
	})
	for _, r := range runs {
		if r.State != Normal {
			total += r.Duration()
		}
	}
	return total
}
