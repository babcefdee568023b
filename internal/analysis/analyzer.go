// Package analysis runs the gap, violation, decision and trend components
// over one temperature series and assembles the report.
package analysis

import (
	"fmt"
	"time"

	"github.com/HerbHall/coldtrace/internal/analysis/decision"
	"github.com/HerbHall/coldtrace/internal/analysis/gap"
	"github.com/HerbHall/coldtrace/internal/analysis/trend"
	"github.com/HerbHall/coldtrace/internal/analysis/violation"
	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer produces reports for temperature series. It holds no state
// between runs and is safe for concurrent use.
type Analyzer struct {
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides the clock used for Report.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithIDGenerator overrides the report ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Analyzer) { a.newID = fn }
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New validates cfg and returns an Analyzer.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinTempLimit >= cfg.MaxTempLimit {
		logger.Warn("minimum temperature limit is not below the maximum",
			zap.Float64("min_temp_limit", cfg.MinTempLimit),
			zap.Float64("max_temp_limit", cfg.MaxTempLimit),
		)
	}

	a := &Analyzer{
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// WithConfig returns a copy of a that uses cfg. The clock, ID generator,
// logger and metrics are shared with a.
func (a *Analyzer) WithConfig(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if cfg.MinTempLimit >= cfg.MaxTempLimit {
		a.logger.Warn("minimum temperature limit is not below the maximum",
			zap.Float64("min_temp_limit", cfg.MinTempLimit),
			zap.Float64("max_temp_limit", cfg.MaxTempLimit),
		)
	}
	clone := *a
	clone.cfg = cfg
	return &clone, nil
}

// Run analyzes series. Samples must be sorted ascending with unique
// timestamps; the result is fully determined by series and the config apart
// from the report ID and generation time.
func (a *Analyzer) Run(series coldchain.Series) *coldchain.Report {
	samples := series.Samples
	limits := a.cfg.Limits()
	threshold := a.cfg.GapThreshold()

	r := &coldchain.Report{
		ID:                 a.newID(),
		GeneratedAt:        a.now(),
		Metadata:           series.Metadata,
		Window:             series.Window,
		Limits:             limits,
		GapThreshold:       threshold,
		InterventionCutoff: a.cfg.InterventionCutoff,
		Samples:            len(samples),
	}
	if len(samples) > 0 {
		first, last := samples[0].Timestamp, samples[len(samples)-1].Timestamp
		r.FirstSample, r.LastSample = &first, &last
	}

	withTemp := coldchain.WithTemperature(samples)

	r.Gaps = gap.Detect(samples, series.Window, threshold)
	r.Violations = violation.Segment(withTemp, limits, nil)
	r.Context, r.Decision = decision.Decide(withTemp, limits, a.cfg.InterventionCutoff)
	r.DailyStats, r.Trend = trend.Analyze(withTemp)

	if r.Gaps == nil {
		r.Gaps = []coldchain.GapEvent{}
	}
	if r.Violations == nil {
		r.Violations = []coldchain.ViolationEvent{}
	}
	if r.DailyStats == nil {
		r.DailyStats = []coldchain.DailyStat{}
	}

	a.metrics.observe(r)
	a.logger.Info("analysis complete",
		zap.String("report_id", r.ID),
		zap.Int("samples", r.Samples),
		zap.Int("gaps", len(r.Gaps)),
		zap.Int("violations", len(r.Violations)),
		zap.String("disposition", string(r.Decision.Disposition)),
		zap.Int("rule_id", r.Decision.RuleID),
		zap.String("trend", string(r.Trend.Direction)),
	)
	return r
}
