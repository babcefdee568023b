package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"go.uber.org/multierr"
)

// Config holds the settings of one analysis run.
type Config struct {
	GapThresholdHours int     `mapstructure:"gap_threshold_hours" json:"gap_threshold_hours"`
	MinTempLimit      float64 `mapstructure:"min_temp_limit" json:"min_temp_limit"`
	MaxTempLimit      float64 `mapstructure:"max_temp_limit" json:"max_temp_limit"`

	// InterventionCutoff truncates the disposition decision to samples at or
	// before it. Reporting still covers the whole series.
	InterventionCutoff *time.Time `mapstructure:"-" json:"intervention_cutoff,omitempty"`
}

// DefaultConfig returns the defaults of a vaccine refrigerator (+2..+8 °C).
func DefaultConfig() Config {
	return Config{
		GapThresholdHours: 2,
		MinTempLimit:      2.0,
		MaxTempLimit:      8.0,
	}
}

// GapThreshold returns the gap threshold as a duration.
func (c Config) GapThreshold() time.Duration {
	return time.Duration(c.GapThresholdHours) * time.Hour
}

// Limits returns the configured safe band.
func (c Config) Limits() coldchain.Limits {
	return coldchain.Limits{Min: c.MinTempLimit, Max: c.MaxTempLimit}
}

// Validate reports every invalid setting. An inverted band is not an error
// here; the analyzer only warns about it.
func (c Config) Validate() error {
	var err error
	if c.GapThresholdHours < 1 {
		err = multierr.Append(err, fmt.Errorf("gap_threshold_hours must be >= 1, got %d", c.GapThresholdHours))
	}
	if math.IsNaN(c.MinTempLimit) || math.IsInf(c.MinTempLimit, 0) {
		err = multierr.Append(err, errors.New("min_temp_limit must be a finite number"))
	}
	if math.IsNaN(c.MaxTempLimit) || math.IsInf(c.MaxTempLimit, 0) {
		err = multierr.Append(err, errors.New("max_temp_limit must be a finite number"))
	}
	return err
}
