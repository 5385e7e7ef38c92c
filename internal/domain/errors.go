package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound reports that a year's workbook does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceMismatch reports that the two source sheets disagree on the check column.
	ErrSourceMismatch = errors.New("source mismatch")
	// ErrDegenerateWeights reports a partition whose total population is not positive.
	ErrDegenerateWeights = errors.New("degenerate weights")
	// ErrSchemaMismatch reports a sheet or table that does not match its declared schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDuplicateCountry reports a country code that appears twice in one year.
	ErrDuplicateCountry = errors.New("duplicate country")
	// ErrRegionCollision reports two partitions that would share an output name.
	ErrRegionCollision = errors.New("region collision")
)

// SourceNotFoundError carries the year and path of a missing workbook.
type SourceNotFoundError struct {
	Year int
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s file does not exist (year %d)", ErrSourceNotFound, e.Path, e.Year)
}

func (e *SourceNotFoundError) Unwrap() error { return ErrSourceNotFound }

// SourceMismatchError identifies the check column that failed reconciliation
// and the first row where the two sheets disagree.
type SourceMismatchError struct {
	Column string
	Key    string
	Row    int
	Left   Value
	Right  Value
}

func (e *SourceMismatchError) Error() string {
	return fmt.Sprintf("%s: values in the %q column do not match after the merge (row %d, key %q: %s vs %s)",
		ErrSourceMismatch, e.Column, e.Row, e.Key, e.Left, e.Right)
}

func (e *SourceMismatchError) Unwrap() error { return ErrSourceMismatch }
