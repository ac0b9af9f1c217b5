// Package vroom indexes delimiter-separated files (CSV and its relatives)
// for high-throughput random-access reading: a two-pass parallel scan
// produces a ParseIndex of separator byte offsets, which an Extractor then
// uses for O(1) field lookup without materializing every row as strings
// up front.
package vroom

import (
	"github.com/shapestone/vroom/internal/dialectdetect"
	"github.com/shapestone/vroom/internal/errcollect"
	"github.com/shapestone/vroom/internal/orchestrator"
	"github.com/shapestone/vroom/internal/validate"
)

// Algorithm selects how the second (scatter) pass is executed.
type Algorithm = orchestrator.Algorithm

const (
	// AlgorithmAuto picks a single-goroutine scan for small inputs and a
	// parallel two-pass scan otherwise.
	AlgorithmAuto = orchestrator.AlgorithmAuto
	// AlgorithmBranchless runs a single goroutine over the whole input.
	AlgorithmBranchless = orchestrator.AlgorithmBranchless
	// AlgorithmTwoPass always fans out across multiple goroutines.
	AlgorithmTwoPass = orchestrator.AlgorithmTwoPass
	// AlgorithmSpeculative is an alias of AlgorithmTwoPass, naming the
	// algorithm by what it does (assume a quote parity, verify with a
	// prefix sum) rather than by its shape.
	AlgorithmSpeculative = orchestrator.AlgorithmSpeculative
)

// Issue describes a structural problem found after indexing: an empty or
// duplicate header name, a mixed line-ending convention, or a separator
// count that does not divide into whole rows of the file's column count
// (rows of unequal length whose separators add up to whole rows are not
// reported).
type Issue = validate.Issue

// Options configures a Parse call.
type Options struct {
	// Dialect is the delimiter/quote/escape convention to use. The zero
	// Dialect triggers auto-detection (spec.md §4.D).
	Dialect Dialect
	// HasHeader marks row 0 as a header; only consulted when Dialect is
	// given explicitly (auto-detection decides this for itself).
	HasHeader bool
	Algorithm Algorithm
	// Threads is the goroutine fan-out width for AlgorithmTwoPass/
	// AlgorithmAuto; 0 means runtime.GOMAXPROCS(0).
	Threads int
	Mode    Mode
	// ColumnMajor transposes the final index, trading row-access speed
	// for column-access speed (spec.md §3/§8 "transposition").
	ColumnMajor bool
}

// DefaultOptions returns Options matching spec.md's defaults: automatic
// dialect detection, automatic algorithm selection, Strict error handling.
func DefaultOptions() Options {
	return Options{Algorithm: AlgorithmAuto, Mode: Strict}
}

// Result is everything a completed Parse produces.
type Result struct {
	Index     *ParseIndex
	Dialect   Dialect
	HasHeader bool
	HeaderRow []string
	Issues    []Issue
	Errors    []ParseError
	// Success is false iff scanning hit a fatal lexical error, such as a
	// quoted field left unclosed at end of input (spec.md §4.I/§6/§7/§8).
	Success bool
	// Detection holds the auto-detected dialect/header/type guess, or nil
	// when opts.Dialect was given explicitly.
	Detection *DetectionResult
}

// Parse indexes data according to opts. When opts.Dialect is the zero
// Dialect, the delimiter, quote, and header presence are auto-detected
// from data itself (spec.md §4.D); otherwise the given Dialect is used
// as-is.
func Parse(data []byte, opts Options) (*Result, error) {
	if err := opts.Dialect.Validate(); err != nil {
		return nil, err
	}

	res, err := orchestrator.Parse(data, orchestrator.Options{
		Delimiter:   opts.Dialect.Delimiter,
		Quote:       opts.Dialect.Quote,
		HasHeader:   opts.HasHeader,
		Algorithm:   opts.Algorithm,
		Threads:     opts.Threads,
		Mode:        opts.Mode,
		ColumnMajor: opts.ColumnMajor,
	})
	if err != nil {
		return nil, err
	}

	errs := make([]ParseError, len(res.Errors))
	for i, e := range res.Errors {
		line, column := errcollect.Resolve(data, e.Offset)
		errs[i] = ParseError{Entry: e, Line: line, Column: column}
	}

	return &Result{
		Index: &ParseIndex{raw: res.Index},
		Dialect: Dialect{
			Delimiter:   res.Delimiter,
			Quote:       res.Quote,
			Escape:      opts.Dialect.Escape,
			DoubleQuote: true,
		},
		HasHeader: res.HasHeader,
		HeaderRow: res.HeaderRow,
		Issues:    res.Issues,
		Errors:    errs,
		Success:   res.Success,
		Detection: res.Detection,
	}, nil
}

// DetectionResult is the winning dialect guess plus the scores that
// produced it.
type DetectionResult = dialectdetect.Result

// DetectDialect samples data and returns its best guess at the dialect,
// header presence, and per-column type, without indexing the whole file.
func DetectDialect(data []byte) DetectionResult {
	return dialectdetect.Detect(string(data))
}
