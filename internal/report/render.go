package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ContentType returns the HTTP media type for format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat normalizes a user-supplied format name. The empty string
// selects FormatText.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, format string, r *coldchain.Report) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	default:
		return Text(w, r)
	}
}

// JSON writes the report view as indented JSON.
func JSON(w io.Writer, r *coldchain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewView(r))
}

// YAML writes the report view as YAML.
func YAML(w io.Writer, r *coldchain.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewView(r)); err != nil {
		return err
	}
	return enc.Close()
}

// Text writes a human-readable summary followed by gap, violation and daily
// statistics tables.
func Text(w io.Writer, r *coldchain.Report) error {
	v := NewView(r)
	var b strings.Builder

	fmt.Fprintf(&b, "Report %s\n", v.ID)
	writeField(&b, "Unit", v.Unit)
	writeField(&b, "Warehouse", v.Warehouse)
	writeField(&b, "Stock unit", v.StockUnit)
	fmt.Fprintf(&b, "Report window: %s -- %s\n", orDash(v.DeclaredStart), orDash(v.DeclaredEnd))
	fmt.Fprintf(&b, "Samples: %s (%s -- %s)\n", humanize.Comma(int64(v.Samples)), orDash(v.FirstSample), orDash(v.LastSample))
	fmt.Fprintf(&b, "Limits: %s..%s °C, gap threshold %s\n", num(v.MinTempLimit), num(v.MaxTempLimit), v.GapThreshold)
	if v.InterventionCutoff != "" {
		fmt.Fprintf(&b, "Decision scope: samples up to %s\n", v.InterventionCutoff)
	}
	fmt.Fprintf(&b, "\nDisposition: %s (rule %d: %s)\n", strings.ToUpper(v.Decision.Disposition), v.Decision.RuleID, v.Decision.Reason)
	fmt.Fprintf(&b, "Above max: %s, below min: %s, below 0 °C: %s, above 20 °C: %s\n",
		v.Context.TotalAboveMax, v.Context.TotalBelowMin, v.Context.TotalBelowZero, v.Context.TotalAboveCriticalHeat)
	fmt.Fprintf(&b, "Trend: %s", v.Trend.Direction)
	if v.Trend.Slope != nil {
		fmt.Fprintf(&b, " (%+.4f °C/day over %d days)", *v.Trend.Slope, v.Trend.Days)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if err := section(w, fmt.Sprintf("Gaps (%d)", len(v.Gaps))); err != nil {
		return err
	}
	if len(v.Gaps) > 0 {
		t := newTable(w, "Kind", "Start", "End", "Duration")
		for _, g := range v.Gaps {
			t.Append([]string{g.Kind, g.Start, g.End, g.Duration})
		}
		t.Render()
	}

	if err := section(w, fmt.Sprintf("Violations (%d)", len(v.Violations))); err != nil {
		return err
	}
	if len(v.Violations) > 0 {
		t := newTable(w, "Kind", "Start", "End", "Duration", "Extreme", "Samples")
		for _, e := range v.Violations {
			t.Append([]string{e.Kind, e.Start, e.End, e.Duration, num(e.ExtremeValue), strconv.Itoa(e.Samples)})
		}
		t.Render()
	}

	if err := section(w, fmt.Sprintf("Daily statistics (%d)", len(v.DailyStats))); err != nil {
		return err
	}
	if len(v.DailyStats) > 0 {
		t := newTable(w, "Date", "Mean", "StdDev", "Min", "Max", "Samples")
		for _, d := range v.DailyStats {
			t.Append([]string{d.Date, num(d.Mean), num(d.StdDev), num(d.Min), num(d.Max), strconv.Itoa(d.Samples)})
		}
		t.Render()
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

func section(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "\n%s\n", title)
	return err
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
