package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTruncatedHeader is returned when a file ends inside the metadata block.
	ErrTruncatedHeader = errors.New("truncated station header")

	// ErrInsufficientData is returned when a harmonic fit has fewer valid
	// observations than unknowns or the design matrix is singular.
	ErrInsufficientData = errors.New("insufficient data for harmonic analysis")

	// ErrNoRecords is returned when an analysis is requested on an empty series.
	ErrNoRecords = errors.New("series has no records")
)

// FormatError reports a station file that cannot be opened or does not follow
// the fixed layout.
type FormatError struct {
	Path string
	Line int // 1-based; 0 when the error is not tied to a line
	Err  error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ConstituentNotFoundError reports a tidal constituent name that has no entry
// in the constituent table.
type ConstituentNotFoundError struct {
	Name      string
	Available []string
}

func (e *ConstituentNotFoundError) Error() string {
	return fmt.Sprintf("constituent %q not found; available: %s", e.Name, strings.Join(e.Available, ", "))
}
