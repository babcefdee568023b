package violation

import (
	"reflect"
	"testing"
	"time"

	"github.com/HerbHall/coldtrace/internal/testutil"
	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

var fridge = coldchain.Limits{Min: 2, Max: 8}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		temp float64
		want State
	}{
		{1.9, BelowMin},
		{2, Normal},
		{5, Normal},
		{8, Normal},
		{8.1, AboveMax},
	}
	for _, tt := range tests {
		if got := Classify(tt.temp, fridge.Min, fridge.Max); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
}

func TestSegment_Scenario(t *testing.T) {
	t.Parallel()

	samples := testutil.Every(10*time.Minute, 1, 1, 9, 9, 1)
	var ctx coldchain.DecisionContext

	events := Segment(samples, fridge, &ctx)

	want := []coldchain.ViolationEvent{
		{Kind: coldchain.ViolationBelowMin, Start: testutil.At(0), End: testutil.At(10), Duration: 10 * time.Minute, ExtremeValue: 1, Samples: 2},
		{Kind: coldchain.ViolationAboveMax, Start: testutil.At(20), End: testutil.At(30), Duration: 10 * time.Minute, ExtremeValue: 9, Samples: 2},
		{Kind: coldchain.ViolationBelowMin, Start: testutil.At(40), End: testutil.At(40), Duration: 0, ExtremeValue: 1, Samples: 1},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events:\n got %+v\nwant %+v", events, want)
	}

	if ctx.TotalBelowMin != 10*time.Minute {
		t.Errorf("TotalBelowMin = %v, want 10m", ctx.TotalBelowMin)
	}
	if ctx.TotalAboveMax != 10*time.Minute {
		t.Errorf("TotalAboveMax = %v, want 10m", ctx.TotalAboveMax)
	}
	if ctx.MaxExtremeAboveLimit != 9 || ctx.MinExtremeBelowLimit != 1 {
		t.Errorf("extremes = %v/%v, want 9/1", ctx.MaxExtremeAboveLimit, ctx.MinExtremeBelowLimit)
	}
	if ctx.BelowMinEvents != 2 || ctx.AboveMaxEvents != 1 {
		t.Errorf("event counts = %d/%d, want 2/1", ctx.BelowMinEvents, ctx.AboveMaxEvents)
	}
}

func TestSegment_ExtremeTracksRun(t *testing.T) {
	t.Parallel()

	samples := testutil.Every(5*time.Minute, 5, 9, 12, 10, 5, -1, -3, 0, 5)
	var ctx coldchain.DecisionContext

	events := Segment(samples, fridge, &ctx)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ExtremeValue != 12 || events[0].Duration != 10*time.Minute {
		t.Errorf("above max event = %+v", events[0])
	}
	if events[1].ExtremeValue != -3 || events[1].Duration != 10*time.Minute {
		t.Errorf("below min event = %+v", events[1])
	}
	if ctx.MinExtremeBelowLimit != -3 {
		t.Errorf("MinExtremeBelowLimit = %v, want -3", ctx.MinExtremeBelowLimit)
	}
}

func TestSegment_NegativeLimitsExtreme(t *testing.T) {
	t.Parallel()

	freezer := coldchain.Limits{Min: -25, Max: -15}
	samples := testutil.Every(10*time.Minute, -20, -12, -10, -20)
	var ctx coldchain.DecisionContext

	Segment(samples, freezer, &ctx)
	if ctx.MaxExtremeAboveLimit != -10 {
		t.Errorf("MaxExtremeAboveLimit = %v, want -10", ctx.MaxExtremeAboveLimit)
	}
}

func TestSegment_NilContext(t *testing.T) {
	t.Parallel()

	events := Segment(testutil.Every(time.Minute, 9, 9), fridge, nil)
	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1", len(events))
	}
}

func TestSegment_AllNormal(t *testing.T) {
	t.Parallel()

	var ctx coldchain.DecisionContext
	events := Segment(testutil.Every(time.Minute, 2, 5, 8), fridge, &ctx)
	if len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
	if ctx != (coldchain.DecisionContext{}) {
		t.Errorf("context mutated: %+v", ctx)
	}
}

func TestSegments_Partition(t *testing.T) {
	t.Parallel()

	temps := []float64{5, 1, 1, 5, 9, 9, 9, 5, 5, 1, 9, 5}
	samples := testutil.Every(3*time.Minute, temps...)

	runs := Segments(samples, fridge)

	total := 0
	next := 0
	for i, r := range runs {
		total += r.Samples
		if !r.Start.Equal(samples[next].Timestamp) {
			t.Errorf("run %d starts at %v, want %v", i, r.Start, samples[next].Timestamp)
		}
		next += r.Samples
		if !r.End.Equal(samples[next-1].Timestamp) {
			t.Errorf("run %d ends at %v, want %v", i, r.End, samples[next-1].Timestamp)
		}
		if i > 0 && runs[i-1].State == r.State {
			t.Errorf("runs %d and %d share state %v", i-1, i, r.State)
		}
	}
	if total != len(samples) {
		t.Errorf("runs cover %d samples, want %d", total, len(samples))
	}
	if len(runs) != 8 {
		t.Errorf("len(runs) = %d, want 8", len(runs))
	}
}

func TestSegments_SkipsMissingTemperature(t *testing.T) {
	t.Parallel()

	samples := []coldchain.Sample{
		testutil.Reading(0, 9),
		testutil.Missing(10),
		testutil.Reading(20, 9),
	}
	runs := Segments(samples, fridge)
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].Samples != 2 || runs[0].Duration() != 20*time.Minute {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestSegments_Empty(t *testing.T) {
	t.Parallel()

	if runs := Segments(nil, fridge); len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestRunDuration(t *testing.T) {
	t.Parallel()

	samples := testutil.Every(15*time.Minute, 3, -1, -2, -1, 3, -4, 3, 21, 22)

	below := RunDuration(samples, func(v float64) bool { return v < 0 })
	if below != 30*time.Minute {
		t.Errorf("below zero = %v, want 30m", below)
	}
	heat := RunDuration(samples, func(v float64) bool { return v > 20 })
	if heat != 15*time.Minute {
		t.Errorf("above 20 = %v, want 15m", heat)
	}
}

func TestSegment_Idempotent(t *testing.T) {
	t.Parallel()

	samples := testutil.Every(10*time.Minute, 1, 9, 9, 5, 0, 12)
	var a, b coldchain.DecisionContext
	first := Segment(samples, fridge, &a)
	second := Segment(samples, fridge, &b)
	if !reflect.DeepEqual(first, second) || a != b {
		t.Error("Segment is not idempotent")
	}
}
