package decision

import (
	"sort"
	"time"

	"github.com/HerbHall/coldtrace/internal/analysis/violation"
	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// Scope returns the samples at or before cutoff. A nil cutoff keeps the
// whole series. samples must be sorted ascending.
func Scope(samples []coldchain.Sample, cutoff *time.Time) []coldchain.Sample {
	if cutoff == nil {
		return samples
	}
	n := sort.Search(len(samples), func(i int) bool {
		return samples[i].Timestamp.After(*cutoff)
	})
	return samples[:n]
}

// BuildContext computes the decision context over the scoped samples.
func BuildContext(samples []coldchain.Sample, limits coldchain.Limits, cutoff *time.Time) coldchain.DecisionContext {
	scoped := Scope(samples, cutoff)

	var ctx coldchain.DecisionContext
	violation.Segment(scoped, limits, &ctx)
	ctx.TotalBelowZero = violation.RunDuration(scoped, func(v float64) bool {
		return v < FreezeCelsius
	})
	ctx.TotalAboveCriticalHeat = violation.RunDuration(scoped, func(v float64) bool {
		return v > CriticalHeatCelsius
	})
	return ctx
}

// Decide builds the scoped context and evaluates the default rules.
func Decide(samples []coldchain.Sample, limits coldchain.Limits, cutoff *time.Time) (coldchain.DecisionContext, coldchain.Decision) {
	ctx := BuildContext(samples, limits, cutoff)
	return ctx, Evaluate(ctx, DefaultRules())
}
