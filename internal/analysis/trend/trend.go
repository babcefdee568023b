// Package trend computes per-day temperature statistics and the linear trend
// of daily means.
package trend

import (
	"math"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// SlopeTolerance is the per-day slope magnitude below which the trend is
// reported as stable.
const SlopeTolerance = 0.05

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// DailyStats groups samples with a temperature by calendar date, taken in
// each timestamp's own location, and returns one stat per date in order.
// StdDev is the sample standard deviation, zero for a single-sample day.
func DailyStats(samples []coldchain.Sample) []coldchain.DailyStat {
	var stats []coldchain.DailyStat
	var values []float64
	var cur dayKey
	var curDate time.Time

	flush := func() {
		if len(values) > 0 {
			stats = append(stats, summarize(curDate, values))
		}
		values = values[:0]
	}

	for _, s := range samples {
		if !s.HasTemperature() {
			continue
		}
		y, m, d := s.Timestamp.Date()
		k := dayKey{y, m, d}
		if len(values) == 0 || k != cur {
			flush()
			cur = k
			curDate = time.Date(y, m, d, 0, 0, 0, 0, s.Timestamp.Location())
		}
		values = append(values, s.Temp())
	}
	flush()
	return stats
}

func summarize(date time.Time, values []float64) coldchain.DailyStat {
	st := coldchain.DailyStat{
		Date:    date,
		Min:     values[0],
		Max:     values[0],
		Samples: len(values),
	}
	var sum float64
	for _, v := range values {
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	st.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var ss float64
		for _, v := range values {
			d := v - st.Mean
			ss += d * d
		}
		st.StdDev = math.Sqrt(ss / float64(len(values)-1))
	}
	return st
}

// Classify maps a per-day slope to a direction.
func Classify(slope float64) coldchain.TrendDirection {
	switch {
	case slope > SlopeTolerance:
		return coldchain.TrendRising
	case slope < -SlopeTolerance:
		return coldchain.TrendFalling
	default:
		return coldchain.TrendStable
	}
}

// Summarize fits daily means against the day index 0..N-1.
func Summarize(stats []coldchain.DailyStat) coldchain.TrendSummary {
	summary := coldchain.TrendSummary{
		Direction: coldchain.TrendInsufficientData,
		Days:      len(stats),
	}
	if len(stats) < 2 {
		return summary
	}

	xs := make([]float64, len(stats))
	ys := make([]float64, len(stats))
	for i, st := range stats {
		xs[i] = float64(i)
		ys[i] = st.Mean
	}
	reg := LinearRegression(xs, ys)
	if reg == nil {
		return summary
	}

	slope := reg.Slope
	summary.Slope = &slope
	summary.RSquared = reg.RSquared
	summary.Direction = Classify(slope)
	return summary
}

// Analyze returns the daily statistics of samples and their trend.
func Analyze(samples []coldchain.Sample) ([]coldchain.DailyStat, coldchain.TrendSummary) {
	stats := DailyStats(samples)
	return stats, Summarize(stats)
}
