package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoValidDates is matched by errors.Is on a DateParseError.
	ErrNoValidDates = errors.New("no valid dates")
	ErrMissingDate  = errors.New("missing date column")
	ErrEmptySource  = errors.New("empty source")
)

// LoadError reports a source that could not be decoded or parsed as a table.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Source, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// DateParseError reports a date column where every strategy parsed zero values.
type DateParseError struct {
	Source string
	Column string
	Tried  []string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("all dates in %s (column %q) could not be parsed; tried %s",
		e.Source, e.Column, strings.Join(e.Tried, ", "))
}

func (e *DateParseError) Unwrap() error { return ErrNoValidDates }

// ValidationError is returned under the strict policy for an implausible row.
type ValidationError struct {
	Source string
	Row    int
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s row %d column %s: %s", e.Source, e.Row, e.Column, e.Reason)
}
