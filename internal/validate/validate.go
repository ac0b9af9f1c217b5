// Package validate implements the post-index structural checks of
// spec.md §4.H: empty/duplicate header names, mixed line endings, and
// inconsistent field counts across rows. These run once, after a
// ParseIndex has been compacted to row-major, rather than per-byte during
// scanning — matching spec.md's separation of lexical errors (caught by
// internal/automaton + internal/errcollect during the scan) from
// structural/schema errors (caught here, where a whole row is visible at
// once).
//
// New package: no single teacher file performs whole-file structural
// validation (internal/fastparser's parsers return on the first lexical
// error instead), so this generalizes the column-name hashing shape the
// now-dropped internal/fastparser/typecache.go used for struct-field
// lookup into a duplicate-name check.
package validate

import (
	"fmt"

	"github.com/shapestone/vroom/internal/errcollect"
	"github.com/shapestone/vroom/internal/parseindex"
)

// Issue describes one structural problem found across the whole file.
type Issue struct {
	Severity errcollect.Severity
	Message  string
	Row      int // -1 if not row-specific (e.g. a header problem)
}

// Header checks the header row for emptiness and duplicate names,
// returning one Issue per problem found.
func Header(names []string) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			issues = append(issues, Issue{
				Severity: errcollect.Error,
				Message:  fmt.Sprintf("column %d has an empty header name", i),
				Row:      -1,
			})
			continue
		}
		if first, ok := seen[name]; ok {
			issues = append(issues, Issue{
				Severity: errcollect.Error,
				Message:  fmt.Sprintf("column %d duplicates header name %q from column %d", i, name, first),
				Row:      -1,
			})
			continue
		}
		seen[name] = i
	}
	return issues
}

// FieldCounts checks that the separators of a row-major ParseIndex divide
// into whole rows of idx.Columns fields, and reports one Issue when
// totalSeparators is not a multiple of idx.Columns: for example a partial
// final row left when scan.ScanChunk stopped mid-row (STRICT mode bailing
// out), which Compact's straight reshape would otherwise silently truncate.
// Only the total is checked: rows of different lengths whose separators add
// up to a multiple of idx.Columns are not reported, and the Issue's Row is
// the index of the trailing partial row in the reshaped index, not the
// source row whose field count differs.
func FieldCounts(idx *parseindex.ParseIndex, totalSeparators int) []Issue {
	if idx.Columns <= 0 {
		return nil
	}
	remainder := totalSeparators % idx.Columns
	if remainder == 0 {
		return nil
	}
	return []Issue{{
		Severity: errcollect.Error,
		Message:  fmt.Sprintf("trailing %d separator(s) do not form a complete row of %d columns", remainder, idx.Columns),
		Row:      idx.Rows(),
	}}
}

// LineEndingStyle identifies which newline convention a file uses.
type LineEndingStyle uint8

const (
	LineEndingUnknown LineEndingStyle = iota
	LineEndingLF
	LineEndingCRLF
	LineEndingMixed
)

func (s LineEndingStyle) String() string {
	switch s {
	case LineEndingLF:
		return "LF"
	case LineEndingCRLF:
		return "CRLF"
	case LineEndingMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// DetectLineEndings scans data once and classifies its newline convention.
// A file is Mixed if it contains at least one bare LF and at least one
// CRLF sequence. A lone '\r' (CR not followed by LF) is not counted at
// all: it has no LineEndingStyle of its own and does not make a file Mixed.
func DetectLineEndings(data []byte) LineEndingStyle {
	sawLF, sawCRLF := false, false
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			if i > 0 && data[i-1] == '\r' {
				sawCRLF = true
			} else {
				sawLF = true
			}
		}
	}
	switch {
	case sawLF && sawCRLF:
		return LineEndingMixed
	case sawCRLF:
		return LineEndingCRLF
	case sawLF:
		return LineEndingLF
	default:
		return LineEndingUnknown
	}
}

// MixedLineEndings reports a single warning-severity Issue if data mixes
// LF-only and CRLF line endings, since most downstream consumers (and
// spec.md's automaton, which classifies '\r' and '\n' identically) handle
// mixed endings correctly but it is usually a sign the file was
// concatenated from sources with different conventions.
func MixedLineEndings(data []byte) []Issue {
	if DetectLineEndings(data) != LineEndingMixed {
		return nil
	}
	return []Issue{{
		Severity: errcollect.Warning,
		Message:  "file mixes LF and CRLF line endings",
		Row:      -1,
	}}
}
