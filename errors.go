package vroom

import (
	"fmt"

	"github.com/shapestone/vroom/internal/errcollect"
)

// Mode controls how Parse reacts to non-fatal problems found while
// scanning. It is a direct re-export of internal/errcollect.Mode so
// callers never need to import an internal package to configure it.
type Mode = errcollect.Mode

const (
	// Strict stops at the first Error or Fatal problem (the default).
	Strict = errcollect.Strict
	// Permissive records Errors and keeps parsing past them; the offending
	// record stays in the index.
	Permissive = errcollect.Permissive
	// BestEffort keeps parsing past everything, producing the most
	// complete ParseIndex it can.
	BestEffort = errcollect.BestEffort
)

// ParseError describes one lexical problem found while scanning, with its
// line/column resolved against the source buffer (spec.md §4.G's lazy
// Resolve, run once per reported entry rather than for every byte).
type ParseError struct {
	errcollect.Entry
	Line   int
	Column int
}

// Error formats the problem with its resolved position, matching
// pkg/csv/errors.go's ParseError.Error() shape generalized from a single
// StartLine/Line/Column pair to the offset-based Entry this module
// collects errors as.
func (e ParseError) Error() string {
	return fmt.Sprintf("vroom: %s at line %d, column %d", e.Entry.Error(), e.Line, e.Column)
}
