// Package ingest reads temperature log exports from cold-storage monitoring
// devices into an ordered sample series. It tolerates varying encodings and
// field delimiters, extracts the header metadata, and drops malformed rows
// instead of failing the whole file.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"go.uber.org/zap"
)

// Options controls parsing.
type Options struct {
	// HeaderScanRows limits how many leading rows are searched for the
	// column header. Zero means 50.
	HeaderScanRows int

	// Location is the device's zone. Timestamps with an explicit offset are
	// converted to its wall clock; naive timestamps are kept as read.
	// Nil means UTC.
	Location *time.Location
}

// Result is a parsed export plus diagnostics about how it was read.
type Result struct {
	Series            coldchain.Series
	Encoding          string
	Delimiter         rune
	HeaderRow         int // zero-based record index of the column header
	TimeColumn        string
	TemperatureColumn string
	DroppedRows       int
	DuplicateRows     int
	Warnings          []string
}

// Parser reads device exports.
type Parser struct {
	opts   Options
	logger *zap.Logger
}

// NewParser returns a Parser. A nil logger discards output.
func NewParser(logger *zap.Logger, opts Options) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = 50
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Parser{opts: opts, logger: logger}
}

// Location returns the zone offset-bearing timestamps are converted to.
func (p *Parser) Location() *time.Location {
	return p.opts.Location
}

// Parse reads the whole export from r. It fails with ErrParse when the input
// cannot be read as a table or yields no samples, and with ErrMissingColumn
// when the time or temperature column cannot be identified.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read input: %w", ErrParse, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	text, enc, err := decode(data)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	res := &Result{Encoding: enc}
	res.Delimiter = sniffDelimiter(strings.Split(text, "\n"))

	records, err := readRecords(text, res.Delimiter)
	if err != nil {
		return nil, err
	}

	headerRow, cols, ok := p.findHeader(records)
	if !ok {
		return nil, fmt.Errorf("%w: no row names both a time and a temperature column within the first %d rows",
			ErrMissingColumn, p.opts.HeaderScanRows)
	}
	res.HeaderRow = headerRow
	res.TimeColumn = cols.timeLabel
	res.TemperatureColumn = cols.tempLabel

	h := parseHeader(records[:headerRow], p.opts.Location)
	res.Series.Metadata = h.metadata
	res.Series.Window = h.window
	res.Warnings = append(res.Warnings, h.warnings...)

	samples := p.readSamples(records[headerRow+1:], cols, res)
	samples, res.DuplicateRows = sortAndDedupe(samples)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrParse)
	}
	res.Series.Samples = samples

	for _, w := range res.Warnings {
		p.logger.Warn("malformed metadata field", zap.String("detail", w))
	}
	p.logger.Info("export parsed",
		zap.String("encoding", res.Encoding),
		zap.String("delimiter", string(res.Delimiter)),
		zap.String("time_column", res.TimeColumn),
		zap.String("temperature_column", res.TemperatureColumn),
		zap.Int("samples", len(samples)),
		zap.Int("dropped_rows", res.DroppedRows),
		zap.Int("duplicate_rows", res.DuplicateRows),
	)
	return res, nil
}

func readRecords(text string, delim rune) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, perr.Line, perr.Err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return records, nil
}

func (p *Parser) findHeader(records [][]string) (int, columnMap, bool) {
	limit := min(len(records), p.opts.HeaderScanRows)
	for i := 0; i < limit; i++ {
		if cols, ok := resolveColumns(records[i]); ok {
			return i, cols, true
		}
	}
	return 0, columnMap{}, false
}

// readSamples converts data rows. Rows with an unparsable timestamp or a
// non-numeric temperature are dropped; an empty temperature cell yields a
// sample without temperature.
func (p *Parser) readSamples(rows [][]string, cols columnMap, res *Result) []coldchain.Sample {
	samples := make([]coldchain.Sample, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		ts, err := ParseTimestamp(cols.timestamp(row), p.opts.Location)
		if err != nil {
			res.DroppedRows++
			p.logger.Debug("dropping row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		s := coldchain.Sample{Timestamp: ts}
		if raw := cell(row, cols.temperature); raw != "" {
			v, err := ParseTemperature(raw)
			if err != nil {
				res.DroppedRows++
				p.logger.Debug("dropping row", zap.Int("row", i+1), zap.Error(err))
				continue
			}
			s.Temperature = &v
		}
		samples = append(samples, s)
	}
	return samples
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sortAndDedupe orders samples by time and keeps the first sample for each
// timestamp in input order.
func sortAndDedupe(samples []coldchain.Sample) ([]coldchain.Sample, int) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	out := samples[:0]
	dups := 0
	for _, s := range samples {
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(s.Timestamp) {
			dups++
			continue
		}
		out = append(out, s)
	}
	return out, dups
}
