// Package report renders analysis reports as text tables, JSON or YAML.
package report

import (
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

const timeLayout = "2006-01-02 15:04"

// View is the rendering model of a report. Timestamps are wall-clock strings
// and durations are both formatted and given in whole minutes.
type View struct {
	ID                 string          `json:"id" yaml:"id"`
	GeneratedAt        string          `json:"generated_at" yaml:"generated_at"`
	Unit               string          `json:"unit,omitempty" yaml:"unit,omitempty"`
	Warehouse          string          `json:"warehouse,omitempty" yaml:"warehouse,omitempty"`
	StockUnit          string          `json:"stock_unit,omitempty" yaml:"stock_unit,omitempty"`
	DeclaredStart      string          `json:"declared_start,omitempty" yaml:"declared_start,omitempty"`
	DeclaredEnd        string          `json:"declared_end,omitempty" yaml:"declared_end,omitempty"`
	FirstSample        string          `json:"first_sample,omitempty" yaml:"first_sample,omitempty"`
	LastSample         string          `json:"last_sample,omitempty" yaml:"last_sample,omitempty"`
	InterventionCutoff string          `json:"intervention_cutoff,omitempty" yaml:"intervention_cutoff,omitempty"`
	Samples            int             `json:"samples" yaml:"samples"`
	MinTempLimit       float64         `json:"min_temp_limit" yaml:"min_temp_limit"`
	MaxTempLimit       float64         `json:"max_temp_limit" yaml:"max_temp_limit"`
	GapThreshold       string          `json:"gap_threshold" yaml:"gap_threshold"`
	Decision           DecisionView    `json:"decision" yaml:"decision"`
	Context            ContextView     `json:"context" yaml:"context"`
	Gaps               []GapView       `json:"gaps" yaml:"gaps"`
	Violations         []ViolationView `json:"violations" yaml:"violations"`
	DailyStats         []DailyView     `json:"daily_stats" yaml:"daily_stats"`
	Trend              TrendView       `json:"trend" yaml:"trend"`
}

// DecisionView is the disposition and the rule that produced it.
type DecisionView struct {
	Disposition string `json:"disposition" yaml:"disposition"`
	RuleID      int    `json:"rule_id" yaml:"rule_id"`
	Reason      string `json:"reason" yaml:"reason"`
}

// ContextView is the decision context with durations rendered as text.
type ContextView struct {
	AboveMaxEvents         int      `json:"above_max_events" yaml:"above_max_events"`
	BelowMinEvents         int      `json:"below_min_events" yaml:"below_min_events"`
	TotalAboveMax          string   `json:"total_above_max" yaml:"total_above_max"`
	TotalBelowMin          string   `json:"total_below_min" yaml:"total_below_min"`
	TotalBelowZero         string   `json:"total_below_zero" yaml:"total_below_zero"`
	TotalAboveCriticalHeat string   `json:"total_above_critical_heat" yaml:"total_above_critical_heat"`
	MaxExtremeAboveLimit   *float64 `json:"max_extreme_above_limit,omitempty" yaml:"max_extreme_above_limit,omitempty"`
	MinExtremeBelowLimit   *float64 `json:"min_extreme_below_limit,omitempty" yaml:"min_extreme_below_limit,omitempty"`
}

// GapView is one gap event.
type GapView struct {
	Kind            string `json:"kind" yaml:"kind"`
	Start           string `json:"start" yaml:"start"`
	End             string `json:"end" yaml:"end"`
	Duration        string `json:"duration" yaml:"duration"`
	DurationMinutes int64  `json:"duration_minutes" yaml:"duration_minutes"`
}

// ViolationView is one excursion outside the limits.
type ViolationView struct {
	Kind            string  `json:"kind" yaml:"kind"`
	Start           string  `json:"start" yaml:"start"`
	End             string  `json:"end" yaml:"end"`
	Duration        string  `json:"duration" yaml:"duration"`
	DurationMinutes int64   `json:"duration_minutes" yaml:"duration_minutes"`
	ExtremeValue    float64 `json:"extreme_value" yaml:"extreme_value"`
	Samples         int     `json:"samples" yaml:"samples"`
}

// DailyView is the statistics of one calendar date.
type DailyView struct {
	Date    string  `json:"date" yaml:"date"`
	Mean    float64 `json:"mean" yaml:"mean"`
	StdDev  float64 `json:"std_dev" yaml:"std_dev"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Samples int     `json:"samples" yaml:"samples"`
}

// TrendView is the trend of daily means.
type TrendView struct {
	Direction string   `json:"direction" yaml:"direction"`
	Slope     *float64 `json:"slope_per_day,omitempty" yaml:"slope_per_day,omitempty"`
	Days      int      `json:"days" yaml:"days"`
}

// NewView builds the rendering model. Floats are rounded to two decimals
// for stable output.
func NewView(r *coldchain.Report) View {
	v := View{
		ID:                 r.ID,
		GeneratedAt:        r.GeneratedAt.UTC().Format(time.RFC3339),
		Unit:               r.Metadata.Unit,
		Warehouse:          r.Metadata.Warehouse,
		StockUnit:          r.Metadata.StockUnit,
		DeclaredStart:      formatOptional(r.Window.DeclaredStart),
		DeclaredEnd:        formatOptional(r.Window.DeclaredEnd),
		FirstSample:        formatOptional(r.FirstSample),
		LastSample:         formatOptional(r.LastSample),
		InterventionCutoff: formatOptional(r.InterventionCutoff),
		Samples:            r.Samples,
		MinTempLimit:       r.Limits.Min,
		MaxTempLimit:       r.Limits.Max,
		GapThreshold:       coldchain.FormatDuration(r.GapThreshold),
		Decision: DecisionView{
			Disposition: string(r.Decision.Disposition),
			RuleID:      r.Decision.RuleID,
			Reason:      r.Decision.Reason,
		},
		Context: ContextView{
			AboveMaxEvents:         r.Context.AboveMaxEvents,
			BelowMinEvents:         r.Context.BelowMinEvents,
			TotalAboveMax:          coldchain.FormatDuration(r.Context.TotalAboveMax),
			TotalBelowMin:          coldchain.FormatDuration(r.Context.TotalBelowMin),
			TotalBelowZero:         coldchain.FormatDuration(r.Context.TotalBelowZero),
			TotalAboveCriticalHeat: coldchain.FormatDuration(r.Context.TotalAboveCriticalHeat),
		},
		Gaps:       make([]GapView, 0, len(r.Gaps)),
		Violations: make([]ViolationView, 0, len(r.Violations)),
		DailyStats: make([]DailyView, 0, len(r.DailyStats)),
		Trend: TrendView{
			Direction: string(r.Trend.Direction),
			Days:      r.Trend.Days,
		},
	}
	if r.Context.AboveMaxEvents > 0 {
		x := round2(r.Context.MaxExtremeAboveLimit)
		v.Context.MaxExtremeAboveLimit = &x
	}
	if r.Context.BelowMinEvents > 0 {
		x := round2(r.Context.MinExtremeBelowLimit)
		v.Context.MinExtremeBelowLimit = &x
	}
	if r.Trend.Slope != nil {
		x := round4(*r.Trend.Slope)
		v.Trend.Slope = &x
	}

	for _, g := range r.Gaps {
		v.Gaps = append(v.Gaps, GapView{
			Kind:            string(g.Kind),
			Start:           g.Start.Format(timeLayout),
			End:             g.End.Format(timeLayout),
			Duration:        coldchain.FormatDuration(g.Duration),
			DurationMinutes: coldchain.Minutes(g.Duration),
		})
	}
	for _, e := range r.Violations {
		v.Violations = append(v.Violations, ViolationView{
			Kind:            string(e.Kind),
			Start:           e.Start.Format(timeLayout),
			End:             e.End.Format(timeLayout),
			Duration:        coldchain.FormatDuration(e.Duration),
			DurationMinutes: coldchain.Minutes(e.Duration),
			ExtremeValue:    round2(e.ExtremeValue),
			Samples:         e.Samples,
		})
	}
	for _, d := range r.DailyStats {
		v.DailyStats = append(v.DailyStats, DailyView{
			Date:    d.Date.Format("2006-01-02"),
			Mean:    round2(d.Mean),
			StdDev:  round2(d.StdDev),
			Min:     round2(d.Min),
			Max:     round2(d.Max),
			Samples: d.Samples,
		})
	}
	return v
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
