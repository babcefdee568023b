package testutil

import (
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

// Base is the fixed reference instant used by fixtures.
var Base = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

// At returns Base shifted by the given number of minutes.
func At(minutes int) time.Time {
	return Base.Add(time.Duration(minutes) * time.Minute)
}

// Reading returns a sample at Base+minutes with the given temperature.
func Reading(minutes int, temp float64) coldchain.Sample {
	return coldchain.Sample{Timestamp: At(minutes), Temperature: coldchain.Celsius(temp)}
}

// Missing returns a sample at Base+minutes without a temperature.
func Missing(minutes int) coldchain.Sample {
	return coldchain.Sample{Timestamp: At(minutes)}
}

// Every returns one sample per temperature, spaced step apart from Base.
func Every(step time.Duration, temps ...float64) []coldchain.Sample {
	out := make([]coldchain.Sample, len(temps))
	for i, v := range temps {
		out[i] = coldchain.Sample{
			Timestamp:   Base.Add(time.Duration(i) * step),
			Temperature: coldchain.Celsius(v),
		}
	}
	return out
}

// NewSeries returns a Series with sensible defaults, suitable for test
// fixtures. Override individual fields with options.
func NewSeries(opts ...func(*coldchain.Series)) coldchain.Series {
	s := coldchain.Series{
		Samples: Every(10*time.Minute, 4, 4.5, 5, 5.5, 5),
		Metadata: coldchain.Metadata{
			Unit:      "Aşı Dolabı 1",
			Warehouse: "Merkez Depo",
			StockUnit: "Soğuk Zincir",
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithSamples replaces the series samples.
func WithSamples(samples ...coldchain.Sample) func(*coldchain.Series) {
	return func(s *coldchain.Series) { s.Samples = samples }
}

// WithWindow sets the declared report window. Pass nil for an absent bound.
func WithWindow(start, end *time.Time) func(*coldchain.Series) {
	return func(s *coldchain.Series) {
		s.Window = coldchain.ReportWindow{DeclaredStart: start, DeclaredEnd: end}
	}
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
