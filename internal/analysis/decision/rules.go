// Package decision turns accumulated violation statistics into a disposition
// recommendation through an ordered, first-match-wins rule list.
package decision

import (
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// Thresholds used by the default rule set.
const (
	CriticalHeatCelsius  = 20.0
	FreezeCelsius        = 0.0
	CriticalHeatLimit    = 2 * time.Hour
	FreezeLimit          = 30 * time.Minute
	SustainedExcursion   = 8 * time.Hour
	HighMagnitudeCelsius = 15.0
)

// Rule is one entry in the ordered rule list. Lower positions win.
type Rule struct {
	ID          int
	Name        string
	Reason      string
	Disposition coldchain.Disposition
	Match       func(coldchain.DecisionContext) bool
}

// DefaultRules returns the disposition rules in severity order. Rule 2 has no
// product-type input: freeze-tolerant products need a manual operator
// override.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          1,
			Name:        "critical_heat",
			Reason:      "critical heat",
			Disposition: coldchain.DispositionDestroy,
			Match: func(c coldchain.DecisionContext) bool {
				return c.TotalAboveCriticalHeat >= CriticalHeatLimit
			},
		},
		{
			ID:          2,
			Name:        "freeze_risk",
			Reason:      "freeze risk",
			Disposition: coldchain.DispositionDestroy,
			Match: func(c coldchain.DecisionContext) bool {
				return c.TotalBelowZero >= FreezeLimit
			},
		},
		{
			ID:          3,
			Name:        "sustained_excursion",
			Reason:      "sustained high-magnitude excursion",
			Disposition: coldchain.DispositionDestroy,
			Match: func(c coldchain.DecisionContext) bool {
				return c.TotalAboveMax >= SustainedExcursion && c.MaxExtremeAboveLimit >= HighMagnitudeCelsius
			},
		},
		{
			ID:          4,
			Name:        "within_tolerance",
			Reason:      "excursions short and low in magnitude",
			Disposition: coldchain.DispositionUsable,
			Match: func(c coldchain.DecisionContext) bool {
				return c.TotalAboveMax < SustainedExcursion && c.MaxExtremeAboveLimit < HighMagnitudeCelsius
			},
		},
		{
			ID:          5,
			Name:        "ambiguous",
			Reason:      "ambiguous excursion profile",
			Disposition: coldchain.DispositionManualReview,
			Match:       func(coldchain.DecisionContext) bool { return true },
		},
	}
}

// Evaluate walks rules top to bottom and returns the first match.
// If nothing matches the result is ManualReview with RuleID 0.
func Evaluate(ctx coldchain.DecisionContext, rules []Rule) coldchain.Decision {
	for _, r := range rules {
		if r.Match(ctx) {
			return coldchain.Decision{
				Disposition: r.Disposition,
				RuleID:      r.ID,
				Reason:      r.Reason,
			}
		}
	}
	return coldchain.Decision{
		Disposition: coldchain.DispositionManualReview,
		Reason:      "no rule matched",
	}
}
