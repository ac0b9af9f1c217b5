// Package orchestrator implements the parser entry point of spec.md §4.L:
// dialect resolution, algorithm selection, fan-out across the two-pass
// scanner, result assembly, and structural validation.
//
// Grounded on internal/fastparser/parser.go (single-pass byte-to-string
// parser, one goroutine, one fixed dialect) and
// internal/fastparser/simd/simd.go's Parser type (options struct +
// SIMD/fallback dispatch), generalized from one fixed sequential algorithm
// to the algorithm-selecting parallel fan-out spec.md §4.I describes:
// internal/scan's two-pass speculative scanner replaces the teacher's
// sequential byte walk, with a direct one-goroutine path kept for small
// inputs where fan-out overhead would dominate (this package's
// AlgorithmBranchless, matching the teacher's original single-goroutine
// design for the case where it is still the right call).
package orchestrator

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shapestone/vroom/internal/automaton"
	"github.com/shapestone/vroom/internal/dialectdetect"
	"github.com/shapestone/vroom/internal/errcollect"
	"github.com/shapestone/vroom/internal/extract"
	"github.com/shapestone/vroom/internal/parseindex"
	"github.com/shapestone/vroom/internal/scan"
	"github.com/shapestone/vroom/internal/validate"
)

// Algorithm selects how the second pass is executed.
type Algorithm uint8

const (
	// AlgorithmAuto picks Branchless for small inputs and TwoPass otherwise.
	AlgorithmAuto Algorithm = iota
	// AlgorithmBranchless runs a single goroutine over the whole input,
	// skipping the first (quote-counting) pass entirely since there is
	// only one chunk and it always starts outside any quoted field.
	AlgorithmBranchless
	// AlgorithmTwoPass always fans out across multiple goroutines, running
	// the quote-counting first pass to seed each chunk's starting parity.
	AlgorithmTwoPass
	// AlgorithmSpeculative is an alias of AlgorithmTwoPass: the two-pass
	// approach already is the speculative algorithm (assume a parity,
	// verify with the prefix sum); kept as a distinct name so callers can
	// select it explicitly even though the implementation is shared.
	AlgorithmSpeculative
)

// autoThreshold is the input size below which AlgorithmAuto prefers the
// single-goroutine branchless path; fan-out overhead (goroutine spawn,
// first-pass synchronization) is not worth it for small inputs.
const autoThreshold = 256 * 1024

// Options configures a Parse call.
type Options struct {
	Delimiter   byte // 0 means auto-detect
	Quote       byte // 0 means auto-detect
	HasHeader   bool // only consulted when Delimiter/Quote were given explicitly
	Algorithm   Algorithm
	Threads     int // 0 means runtime.GOMAXPROCS(0)
	Mode        errcollect.Mode
	ColumnMajor bool // transpose the final index to column-major layout
}

// DefaultOptions returns Options matching spec.md's defaults: automatic
// dialect detection, automatic algorithm selection, STRICT error handling.
func DefaultOptions() Options {
	return Options{
		Algorithm: AlgorithmAuto,
		Mode:      errcollect.Strict,
	}
}

// Result is everything a completed parse produces.
type Result struct {
	Index     *parseindex.ParseIndex
	Delimiter byte
	Quote     byte
	HasHeader bool
	HeaderRow []string
	Issues    []validate.Issue
	Errors    []errcollect.Entry
	// Success is false iff a fatal lexical error (spec.md §4.I/§6/§7/§8, e.g.
	// an unclosed quoted field running to end of input) was raised during
	// scanning. A merely-irregular file (mismatched field counts, mixed line
	// endings) still reports Success true; those surface through Issues.
	Success bool
	// Detection holds the auto-detected dialect/header/type guess, or nil
	// when the caller supplied both Delimiter and Quote explicitly and
	// detection never ran.
	Detection *dialectdetect.Result
}

// Parse indexes data according to opts, auto-detecting dialect where
// Options leaves it unset, and algorithm where opts.Algorithm is
// AlgorithmAuto.
func Parse(data []byte, opts Options) (*Result, error) {
	delimiter, quote, hasHeader := opts.Delimiter, opts.Quote, opts.HasHeader
	var detection *dialectdetect.Result
	if delimiter == 0 || quote == 0 {
		det := dialectdetect.Detect(string(data))
		if delimiter == 0 {
			delimiter = det.Delimiter
		}
		if quote == 0 {
			quote = det.Quote
		}
		hasHeader = det.HasHeader
		detection = &det
	}
	if delimiter == quote {
		return nil, fmt.Errorf("orchestrator: delimiter and quote must differ, both are %q", delimiter)
	}

	m := automaton.New(delimiter, quote)

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	algo := opts.Algorithm
	if algo == AlgorithmAuto {
		if len(data) < autoThreshold || threads <= 1 {
			algo = AlgorithmBranchless
		} else {
			algo = AlgorithmTwoPass
		}
	}
	if algo == AlgorithmBranchless {
		threads = 1
	}

	idx, collectors, err := runScan(data, &m, delimiter, quote, threads, algo, opts.Mode)
	if err != nil {
		return nil, err
	}

	success := true
	for _, c := range collectors {
		if c.Fatal() {
			success = false
			break
		}
	}

	totalSeparators := 0
	for _, n := range idx.NIndexes {
		totalSeparators += int(n)
	}
	columns := deriveColumns(data, idx)

	if err := idx.Compact(columns); err != nil {
		return nil, fmt.Errorf("orchestrator: compacting index: %w", err)
	}

	idx.Escape = parseindex.ComputeColumnEscapeInfo(idx, data, quote)

	var issues []validate.Issue
	issues = append(issues, validate.FieldCounts(idx, totalSeparators)...)
	issues = append(issues, validate.MixedLineEndings(data)...)

	var headerRow []string
	if hasHeader && idx.Rows() > 0 {
		headerRow, err = extractHeaderRow(data, idx, quote)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: reading header row: %w", err)
		}
		issues = append(issues, validate.Header(headerRow)...)
	}

	if opts.ColumnMajor {
		if err := idx.CompactColumnMajor(); err != nil {
			return nil, fmt.Errorf("orchestrator: transposing index: %w", err)
		}
	}

	return &Result{
		Index:     idx,
		Delimiter: delimiter,
		Quote:     quote,
		HasHeader: hasHeader,
		HeaderRow: headerRow,
		Issues:    issues,
		Errors:    errcollect.MergeSorted(collectors),
		Success:   success,
		Detection: detection,
	}, nil
}

// runScan allocates a ParseIndex sized for nThreads chunks of data, runs the
// first (quote-counting) pass and second (separator-scattering) pass across
// goroutines via sync.WaitGroup fan-out, and reconciles each chunk boundary
// against the next chunk's speculative starting parity.
func runScan(data []byte, m *automaton.Machine, delimiter, quote byte, nThreads int, algo Algorithm, mode errcollect.Mode) (*parseindex.ParseIndex, []*errcollect.Collector, error) {
	chunks := scan.SplitChunks(len(data), nThreads)
	n := len(chunks)

	idx, err := parseindex.NewInterleaved(len(data), n)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: allocating index: %w", err)
	}

	starts := make([]bool, n)
	if n > 1 {
		quoteCounts := make([]int, n)
		var wg sync.WaitGroup
		for i, c := range chunks {
			wg.Add(1)
			go func(i int, c scan.ChunkBounds) {
				defer wg.Done()
				quoteCounts[i] = scan.CountQuotes(data, c.Start, c.End, quote)
			}(i, c)
		}
		wg.Wait()
		starts = scan.StartsInsideQuotes(quoteCounts)
	}

	collectors := make([]*errcollect.Collector, n)
	results := make([]scan.Result, n)
	var wg sync.WaitGroup
	for i, c := range chunks {
		collectors[i] = errcollect.New(mode)
		wg.Add(1)
		go func(i int, c scan.ChunkBounds) {
			defer wg.Done()
			if algo == AlgorithmBranchless {
				results[i] = scan.ScanChunkBranchless(data, c, starts[i], m, delimiter, quote, i, idx, collectors[i])
			} else {
				results[i] = scan.ScanChunk(data, c, starts[i], m, delimiter, quote, i, idx, collectors[i])
			}
		}(i, c)
	}
	wg.Wait()

	// A chunk's actual ending parity should always agree with the next
	// chunk's speculative starting parity: both derive from the same
	// quote count, just computed two different ways (an independent
	// per-chunk count vs. a running state walk). Disagreement means the
	// data has an odd total quote count up to that boundary that the
	// automaton itself could not resolve (e.g. a quote dropped by a
	// STRICT-mode early stop) rather than a bug in the speculation itself;
	// record it as a warning rather than failing the whole parse.
	for i := 0; i < n-1; i++ {
		if results[i].EndsInsideQuotes != starts[i+1] {
			collectors[i].Add(int64(chunks[i].End), errcollect.Warning, errcollect.CodeUnclosedQuote,
				"chunk boundary quote parity mismatch")
		}
	}

	// A quoted field that never closes by the very end of the whole input
	// is fatal, not a warning: there is no later chunk left to resolve it
	// against (spec.md §4.F/§8).
	if n > 0 && results[n-1].EndsInsideQuotes {
		collectors[n-1].Add(int64(len(data)), errcollect.Fatal, errcollect.CodeUnclosedQuote,
			"unclosed quoted field runs to end of input")
	}

	return idx, collectors, nil
}

// deriveColumns derives the per-record field count from thread 0's
// interleaved positions: CSV records are rectangular by construction, so
// the first record's separator count (delimiters plus the record's
// closing newline) is also every other record's. The byte at each
// candidate offset is checked directly since Positions stores raw offsets
// without tagging which separator kind produced them.
func deriveColumns(data []byte, idx *parseindex.ParseIndex) int {
	n := int(idx.NIndexes[0])
	if n == 0 {
		return 0
	}
	stride := idx.Stride()
	for k := 0; k < n; k++ {
		off := int(idx.Positions[k*stride])
		if off < len(data) && (data[off] == '\n' || data[off] == '\r') {
			return k + 1
		}
	}
	// No newline found in thread 0's run: either a single unterminated
	// line, or STRICT mode stopped before reaching one. Treat every
	// recorded delimiter as belonging to one row, plus its implicit final
	// field.
	return n + 1
}

// extractHeaderRow reads row 0 as a []string using the ordinary extractor
// path, so the header is decoded (quoting stripped) the same way any other
// row would be.
func extractHeaderRow(data []byte, idx *parseindex.ParseIndex, quote byte) ([]string, error) {
	e, err := extract.New(data, idx, quote)
	if err != nil {
		return nil, err
	}
	it := e.NewRowIterator()
	if !it.Next() {
		return nil, fmt.Errorf("orchestrator: index has no rows")
	}
	return it.Strings()
}
