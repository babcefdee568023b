package ingest

import "errors"

var (
	// ErrParse is returned when the export cannot be read as a sample table.
	ErrParse = errors.New("parse failure")

	// ErrMissingColumn is returned when no header row names both a time and
	// a temperature column.
	ErrMissingColumn = errors.New("required column not found")
)
