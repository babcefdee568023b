package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HerbHall/coldtrace/internal/analysis"
	"github.com/HerbHall/coldtrace/internal/config"
	"github.com/HerbHall/coldtrace/internal/ingest"
	"github.com/HerbHall/coldtrace/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a temperature log export",
		Long: `Analyze a temperature log export and print the report.

The file is a CSV-like export from a data logger; "-" reads standard input.
Flags override the configuration file and COLDTRACE_* environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, args[0], metricsFile)
		},
	}

	d := analysis.DefaultConfig()
	f := cmd.Flags()
	f.Float64("min", d.MinTempLimit, "lower temperature limit in °C")
	f.Float64("max", d.MaxTempLimit, "upper temperature limit in °C")
	f.Int("gap-hours", d.GapThresholdHours, "minimum gap between samples to report, in hours")
	f.String("cutoff", "", "only samples at or before this time drive the decision")
	f.String("timezone", "UTC", "IANA zone that offset-bearing timestamps are converted to")
	f.StringP("format", "f", report.FormatText, "output format (text|json|yaml)")
	f.StringVar(&metricsFile, "metrics-textfile", "", "write analysis metrics to this file in Prometheus text format")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, path, metricsFile string) error {
	v, logger, err := loadConfig(cmd, root,
		flagBinding{"analysis.min_temp_limit", "min"},
		flagBinding{"analysis.max_temp_limit", "max"},
		flagBinding{"analysis.gap_threshold_hours", "gap-hours"},
		flagBinding{"analysis.intervention_cutoff", "cutoff"},
		flagBinding{"ingest.timezone", "timezone"},
		flagBinding{"report.format", "format"},
	)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	format, err := report.ParseFormat(v.GetString("report.format"))
	if err != nil {
		return err
	}
	ingestOpts, err := config.Ingest(v)
	if err != nil {
		return err
	}
	analysisCfg, err := config.Analysis(v, ingestOpts.Location)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	analyzer, err := analysis.New(analysisCfg, logger.Named("analysis"), analysis.WithMetrics(analysis.NewMetrics(reg)))
	if err != nil {
		return err
	}

	in, closeInput, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeInput()

	res, err := ingest.NewParser(logger.Named("ingest"), ingestOpts).Parse(in)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if res.DroppedRows > 0 {
		logger.Warn("dropped malformed rows", zap.String("file", path), zap.Int("rows", res.DroppedRows))
	}

	rep := analyzer.Run(res.Series)
	if err := report.Render(cmd.OutOrStdout(), format, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
