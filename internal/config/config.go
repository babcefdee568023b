// Package config loads coldtrace settings from a YAML file, environment
// variables and command-line flags via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // ingest.timezone must resolve on hosts without zoneinfo

	"github.com/HerbHall/coldtrace/internal/analysis"
	"github.com/HerbHall/coldtrace/internal/ingest"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names:
// COLDTRACE_ANALYSIS_MAX_TEMP_LIMIT=25.
const EnvPrefix = "COLDTRACE"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	MaxUploadBytes int64   `mapstructure:"max_upload_bytes"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns the listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("coldtrace")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/coldtrace")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	def := analysis.DefaultConfig()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("analysis.gap_threshold_hours", def.GapThresholdHours)
	v.SetDefault("analysis.min_temp_limit", def.MinTempLimit)
	v.SetDefault("analysis.max_temp_limit", def.MaxTempLimit)
	v.SetDefault("analysis.intervention_cutoff", "")

	v.SetDefault("report.format", "text")

	v.SetDefault("ingest.header_scan_rows", 50)
	v.SetDefault("ingest.timezone", "UTC")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
}

// Ingest returns the parser options.
func Ingest(v *viper.Viper) (ingest.Options, error) {
	loc, err := time.LoadLocation(v.GetString("ingest.timezone"))
	if err != nil {
		return ingest.Options{}, fmt.Errorf("ingest.timezone: %w", err)
	}
	return ingest.Options{
		HeaderScanRows: v.GetInt("ingest.header_scan_rows"),
		Location:       loc,
	}, nil
}

// settings mirrors the top-level sections decoded with mapstructure.
// Decoding the whole tree keeps environment overrides of leaf keys.
type settings struct {
	Analysis analysis.Config `mapstructure:"analysis"`
	Server   ServerConfig    `mapstructure:"server"`
}

func decode(v *viper.Viper) (settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// Analysis decodes the analysis section. The intervention cutoff may be a
// YAML timestamp, whose clock reading is kept as is, or any timestamp string
// the ingestion layer accepts.
func Analysis(v *viper.Viper, loc *time.Location) (analysis.Config, error) {
	s, err := decode(v)
	if err != nil {
		return analysis.Config{}, err
	}
	cfg := s.Analysis

	switch raw := v.Get("analysis.intervention_cutoff").(type) {
	case nil:
	case time.Time:
		wc := ingest.WallClock(raw)
		cfg.InterventionCutoff = &wc
	default:
		text := strings.TrimSpace(fmt.Sprint(raw))
		if text == "" {
			break
		}
		t, err := ingest.ParseTimestamp(text, loc)
		if err != nil {
			return cfg, fmt.Errorf("analysis.intervention_cutoff: %w", err)
		}
		cfg.InterventionCutoff = &t
	}
	return cfg, nil
}

// Server decodes the server section.
func Server(v *viper.Viper) (ServerConfig, error) {
	s, err := decode(v)
	if err != nil {
		return ServerConfig{}, err
	}
	return s.Server, nil
}
