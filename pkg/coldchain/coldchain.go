// Package coldchain provides public types for cold-storage temperature log
// analysis: samples, detected gaps and violations, disposition decisions and
// daily trend statistics.
package coldchain

import "time"

// Sample is a single reading from the monitored unit. Temperature is nil
// when the device logged a timestamp without a value.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// HasTemperature reports whether the sample carries a temperature value.
func (s Sample) HasTemperature() bool {
	return s.Temperature != nil
}

// Temp returns the temperature value. Callers must check HasTemperature first.
func (s Sample) Temp() float64 {
	return *s.Temperature
}

// Celsius returns a pointer to v, for building samples.
func Celsius(v float64) *float64 {
	return &v
}

// ReportWindow is the reporting period declared in the export header.
// Either bound may be absent.
type ReportWindow struct {
	DeclaredStart *time.Time `json:"declared_start,omitempty"`
	DeclaredEnd   *time.Time `json:"declared_end,omitempty"`
}

// Metadata holds the descriptive header fields of a device export.
type Metadata struct {
	Unit      string `json:"unit,omitempty"`       // Monitored unit (Birim)
	Warehouse string `json:"warehouse,omitempty"`  // Storage location (Depo)
	StockUnit string `json:"stock_unit,omitempty"` // Stock unit (Stok Birimi)
}

// Series is one complete, ordered sample sequence with its header data.
type Series struct {
	Samples  []Sample     `json:"samples"`
	Window   ReportWindow `json:"window"`
	Metadata Metadata     `json:"metadata"`
}

// WithTemperature returns the samples that carry a temperature value.
func WithTemperature(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.HasTemperature() {
			out = append(out, s)
		}
	}
	return out
}

// Limits is the configured safe temperature band. Values equal to a limit
// are inside the band.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// GapKind classifies a gap event.
type GapKind string

const (
	GapInternal           GapKind = "internal_gap"
	GapStartLoss          GapKind = "start_loss"
	GapEndLoss            GapKind = "end_loss"
	GapMissingTemperature GapKind = "missing_temperature"
)

// GapEvent is a period without qualifying data.
type GapEvent struct {
	Kind     GapKind       `json:"kind"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// ViolationKind classifies a violation event.
type ViolationKind string

const (
	ViolationBelowMin ViolationKind = "below_min"
	ViolationAboveMax ViolationKind = "above_max"
)

// ViolationEvent is a maximal run of consecutive samples outside the limits.
// Duration is last sample minus first sample, so a single-sample run has
// zero duration.
type ViolationEvent struct {
	Kind         ViolationKind `json:"kind"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Duration     time.Duration `json:"duration"`
	ExtremeValue float64       `json:"extreme_value"`
	Samples      int           `json:"samples"`
}

// DecisionContext aggregates violation statistics over the decision scope.
// The extremes are only meaningful when the matching event count is non-zero.
type DecisionContext struct {
	AboveMaxEvents         int           `json:"above_max_events"`
	BelowMinEvents         int           `json:"below_min_events"`
	TotalAboveMax          time.Duration `json:"total_above_max"`
	TotalBelowMin          time.Duration `json:"total_below_min"`
	TotalBelowZero         time.Duration `json:"total_below_zero"`
	TotalAboveCriticalHeat time.Duration `json:"total_above_critical_heat"`
	MaxExtremeAboveLimit   float64       `json:"max_extreme_above_limit"`
	MinExtremeBelowLimit   float64       `json:"min_extreme_below_limit"`
}

// Disposition is the recommended outcome for the stored product.
type Disposition string

const (
	DispositionUsable       Disposition = "usable"
	DispositionDestroy      Disposition = "destroy"
	DispositionManualReview Disposition = "manual_review"
)

// Decision is the disposition together with the rule that produced it.
type Decision struct {
	Disposition Disposition `json:"disposition"`
	RuleID      int         `json:"rule_id"`
	Reason      string      `json:"reason"`
}

// DailyStat summarizes the temperatures of one calendar date.
type DailyStat struct {
	Date    time.Time `json:"date"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"std_dev"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Samples int       `json:"samples"`
}

// TrendDirection classifies the slope of daily mean temperatures.
type TrendDirection string

const (
	TrendRising           TrendDirection = "rising"
	TrendFalling          TrendDirection = "falling"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// TrendSummary is the linear trend over daily means. Slope is in degrees per
// day and is nil when fewer than two dates are available.
type TrendSummary struct {
	Direction TrendDirection `json:"direction"`
	Slope     *float64       `json:"slope,omitempty"`
	RSquared  float64        `json:"r_squared"`
	Days      int            `json:"days"`
}

// Report is the complete result of one analysis run.
type Report struct {
	ID                 string           `json:"id"`
	GeneratedAt        time.Time        `json:"generated_at"`
	Metadata           Metadata         `json:"metadata"`
	Window             ReportWindow     `json:"window"`
	Limits             Limits           `json:"limits"`
	GapThreshold       time.Duration    `json:"gap_threshold"`
	InterventionCutoff *time.Time       `json:"intervention_cutoff,omitempty"`
	Samples            int              `json:"samples"`
	FirstSample        *time.Time       `json:"first_sample,omitempty"`
	LastSample         *time.Time       `json:"last_sample,omitempty"`
	Gaps               []GapEvent       `json:"gaps"`
	Violations         []ViolationEvent `json:"violations"`
	Context            DecisionContext  `json:"context"`
	Decision           Decision         `json:"decision"`
	DailyStats         []DailyStat      `json:"daily_stats"`
	Trend              TrendSummary     `json:"trend"`
}
