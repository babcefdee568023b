package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
)

var rangeSeparators = []string{"--", " - ", " – ", " to ", " / "}

type header struct {
	metadata coldchain.Metadata
	window   coldchain.ReportWindow
	warnings []string
}

// parseHeader extracts metadata from the rows above the column header.
// Fields that fail to parse are recorded as warnings and left absent.
func parseHeader(rows [][]string, loc *time.Location) header {
	var h header
	for _, row := range rows {
		key, value, ok := splitField(row)
		if !ok {
			continue
		}
		k := normalizeLabel(key)
		switch {
		case containsAny(k, []string{"stok", "stock"}):
			h.metadata.StockUnit = value
		case containsAny(k, []string{"birim", "unit", "cihaz", "device"}) && !containsAny(k, temperatureKeywords):
			h.metadata.Unit = value
		case containsAny(k, []string{"depo", "warehouse"}):
			h.metadata.Warehouse = value
		case containsAny(k, []string{"aralig", "range", "donem", "period"}):
			h.parseRange(key, value, loc)
		case containsAny(k, []string{"baslangic", "start", "from"}):
			h.window.DeclaredStart = h.parseBound(key, value, loc)
		case containsAny(k, []string{"bitis", "until"}) || strings.HasPrefix(k, "end"):
			h.window.DeclaredEnd = h.parseBound(key, value, loc)
		}
	}
	return h
}

// splitField reads a metadata row either as separate key and value cells or
// as a single "key: value" cell.
func splitField(row []string) (string, string, bool) {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	switch len(cells) {
	case 0:
		return "", "", false
	case 1:
		key, value, ok := strings.Cut(cells[0], ":")
		if !ok {
			return "", "", false
		}
		return strings.TrimSpace(key), strings.TrimSpace(value), true
	default:
		return strings.TrimRight(cells[0], ": "), strings.Join(cells[1:], " "), true
	}
}

func (h *header) parseBound(key, value string, loc *time.Location) *time.Time {
	if value == "" {
		return nil
	}
	t, err := ParseTimestamp(value, loc)
	if err != nil {
		h.warnings = append(h.warnings, fmt.Sprintf("metadata %q: %v", key, err))
		return nil
	}
	return &t
}

func (h *header) parseRange(key, value string, loc *time.Location) {
	for _, sep := range rangeSeparators {
		start, end, ok := strings.Cut(value, sep)
		if !ok {
			continue
		}
		h.window.DeclaredStart = h.parseBound(key, strings.TrimSpace(start), loc)
		h.window.DeclaredEnd = h.parseBound(key, strings.TrimSpace(end), loc)
		return
	}
	h.warnings = append(h.warnings, fmt.Sprintf("metadata %q: no range separator in %q", key, value))
}
