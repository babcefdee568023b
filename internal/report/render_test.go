package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func ts(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func sampleReport() *coldchain.Report {
	return &coldchain.Report{
		ID:           "r-1",
		GeneratedAt:  time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		Metadata:     coldchain.Metadata{Unit: "Dolap 1", Warehouse: "Merkez"},
		Window:       coldchain.ReportWindow{DeclaredStart: ptr(ts(1, 6, 0))},
		Limits:       coldchain.Limits{Min: 2, Max: 8},
		GapThreshold: 2 * time.Hour,
		Samples:      4,
		FirstSample:  ptr(ts(1, 8, 0)),
		LastSample:   ptr(ts(2, 8, 0)),
		Gaps: []coldchain.GapEvent{
			{Kind: coldchain.GapStartLoss, Start: ts(1, 6, 0), End: ts(1, 8, 0), Duration: 2 * time.Hour},
			{Kind: coldchain.GapInternal, Start: ts(1, 8, 10), End: ts(2, 8, 0), Duration: 23*time.Hour + 50*time.Minute},
		},
		Violations: []coldchain.ViolationEvent{
			{Kind: coldchain.ViolationAboveMax, Start: ts(1, 8, 0), End: ts(1, 8, 10), Duration: 10 * time.Minute, ExtremeValue: 9.5, Samples: 2},
		},
		Context: coldchain.DecisionContext{
			AboveMaxEvents:       1,
			TotalAboveMax:        10 * time.Minute,
			MaxExtremeAboveLimit: 9.5,
		},
		Decision: coldchain.Decision{
			Disposition: coldchain.DispositionUsable,
			RuleID:      4,
			Reason:      "excursions short and low in magnitude",
		},
		DailyStats: []coldchain.DailyStat{
			{Date: ts(1, 0, 0), Mean: 9.25, StdDev: 0.35355, Min: 9, Max: 9.5, Samples: 2},
			{Date: ts(2, 0, 0), Mean: 4, StdDev: 0, Min: 4, Max: 4, Samples: 1},
		},
		Trend: coldchain.TrendSummary{
			Direction: coldchain.TrendFalling,
			Slope:     ptr(-5.25),
			RSquared:  1,
			Days:      2,
		},
	}
}

func TestJSON_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleReport()))

	g := goldie.New(t)
	g.Assert(t, "report_json", buf.Bytes())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, sampleReport()))

	var v View
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, "usable", v.Decision.Disposition)
	assert.Equal(t, 4, v.Decision.RuleID)
	require.Len(t, v.Gaps, 2)
	assert.Equal(t, "23h50m", v.Gaps[1].Duration)
	assert.Equal(t, int64(1430), v.Gaps[1].DurationMinutes)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleReport()))
	out := buf.String()

	for _, want := range []string{
		"Report r-1",
		"Unit: Dolap 1",
		"Report window: 2024-03-01 06:00 -- -",
		"Samples: 4 (2024-03-01 08:00 -- 2024-03-02 08:00)",
		"Limits: 2..8 °C, gap threshold 2h00m",
		"Disposition: USABLE (rule 4: excursions short and low in magnitude)",
		"Trend: falling (-5.2500 °C/day over 2 days)",
		"Gaps (2)",
		"start_loss",
		"23h50m",
		"Violations (1)",
		"above_max",
		"Daily statistics (2)",
		"2024-03-02",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Stock unit")
	assert.NotContains(t, out, "Decision scope")
}

func TestText_LargeCountsAndEmptyTables(t *testing.T) {
	r := &coldchain.Report{
		ID:       "r-2",
		Samples:  12345,
		Decision: coldchain.Decision{Disposition: coldchain.DispositionManualReview, RuleID: 5, Reason: "ambiguous"},
		Trend:    coldchain.TrendSummary{Direction: coldchain.TrendInsufficientData},
	}
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Samples: 12,345")
	assert.Contains(t, out, "Gaps (0)")
	assert.Contains(t, out, "Trend: insufficient_data\n")
	assert.False(t, strings.Contains(out, "+--"), "empty sections should not draw tables")
}

func TestNewView_Extremes(t *testing.T) {
	r := sampleReport()
	v := NewView(r)
	require.NotNil(t, v.Context.MaxExtremeAboveLimit)
	assert.Equal(t, 9.5, *v.Context.MaxExtremeAboveLimit)
	assert.Nil(t, v.Context.MinExtremeBelowLimit, "no below-min events means no extreme")
	assert.Equal(t, 0.35, v.DailyStats[0].StdDev)
}

func TestRender(t *testing.T) {
	r := sampleReport()
	for _, f := range []string{"", "text", "JSON", "yaml", "yml"} {
		var buf bytes.Buffer
		assert.NoError(t, Render(&buf, f, r), f)
		assert.NotZero(t, buf.Len(), f)
	}

	err := Render(&bytes.Buffer{}, "pdf", r)
	assert.ErrorContains(t, err, "pdf")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType(FormatJSON))
	assert.Equal(t, "application/yaml", ContentType(FormatYAML))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(FormatText))
}

func TestParseFormat(t *testing.T) {
	cases := map[string]string{"": FormatText, " Text ": FormatText, "JSON": FormatJSON, "yml": FormatYAML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	assert.ErrorContains(t, err, "unknown report format")
}
