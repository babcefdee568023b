package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	temperatureKeywords = []string{"sicaklik", "temp", "derece", "celsius", "°c"}
	dateKeywords        = []string{"tarih", "date"}
	clockKeywords       = []string{"saat", "time", "zaman"}
)

var asciiFold = strings.NewReplacer(
	"ı", "i", "ş", "s", "ğ", "g", "ü", "u", "ö", "o", "ç", "c",
	"â", "a", "î", "i", "û", "u", "i̇", "i",
)

// normalizeLabel lowercases with Turkish casing rules and folds Turkish
// letters to ASCII so keyword matching is dialect independent. Casers are
// stateful, so one is created per call.
func normalizeLabel(s string) string {
	lower := cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	return asciiFold.Replace(lower)
}

func containsAny(label string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
}

// columnMap records where the time and temperature values live in a row.
// When the export splits date and clock into two columns, both are set and
// the cells are joined with a space.
type columnMap struct {
	date        int
	clock       int
	temperature int
	timeLabel   string
	tempLabel   string
}

func (c columnMap) timestamp(row []string) string {
	d := cell(row, c.date)
	if c.clock < 0 || c.clock == c.date {
		return d
	}
	return strings.TrimSpace(d + " " + cell(row, c.clock))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// resolveColumns matches header labels by case-insensitive substring.
// It reports false unless both a time-like and a temperature-like column
// are found.
func resolveColumns(header []string) (columnMap, bool) {
	m := columnMap{date: -1, clock: -1, temperature: -1}

	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = normalizeLabel(h)
	}

	for i, l := range labels {
		if l != "" && containsAny(l, temperatureKeywords) {
			m.temperature = i
			m.tempLabel = strings.TrimSpace(header[i])
			break
		}
	}
	if m.temperature < 0 {
		return m, false
	}

	for i, l := range labels {
		if i == m.temperature || l == "" {
			continue
		}
		if m.date < 0 && containsAny(l, dateKeywords) {
			m.date = i
		}
		if m.clock < 0 && containsAny(l, clockKeywords) {
			m.clock = i
		}
	}

	switch {
	case m.date < 0 && m.clock < 0:
		return m, false
	case m.date < 0:
		m.date, m.clock = m.clock, -1
		m.timeLabel = strings.TrimSpace(header[m.date])
	case m.clock < 0 || m.clock == m.date:
		m.clock = -1
		m.timeLabel = strings.TrimSpace(header[m.date])
	default:
		m.timeLabel = strings.TrimSpace(header[m.date]) + " + " + strings.TrimSpace(header[m.clock])
	}
	return m, true
}
