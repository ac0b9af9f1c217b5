// Package extract implements the value extractor of spec.md §4.K: O(1)
// field lookup against a row-major or column-major ParseIndex, with the
// teacher's zero-copy/allocate-on-demand split from
// internal/fastparser/zerocopy.go generalized from a per-call rescan to a
// single column-wide decision driven by parseindex.ColumnEscapeInfo.
package extract

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/shapestone/vroom/internal/parseindex"
)

// Extractor provides O(1) access to field values over a completed
// ParseIndex. It does not own data or idx; both must outlive the
// Extractor (use idx.Share if lifetime needs decoupling from the
// orchestrator call that produced them).
type Extractor struct {
	data  []byte
	idx   *parseindex.ParseIndex
	quote byte
}

// New builds an Extractor over a row-major or column-major ParseIndex.
func New(data []byte, idx *parseindex.ParseIndex, quote byte) (*Extractor, error) {
	if idx.Layout == parseindex.LayoutInterleaved {
		return nil, fmt.Errorf("extract: ParseIndex must be compacted before extraction, got %s", idx.Layout)
	}
	if idx.Columns <= 0 {
		return nil, fmt.Errorf("extract: ParseIndex has no columns set")
	}
	return &Extractor{data: data, idx: idx, quote: quote}, nil
}

// Rows reports the number of records addressable by this Extractor.
func (e *Extractor) Rows() int { return e.idx.Rows() }

// Columns reports the number of fields per record.
func (e *Extractor) Columns() int { return e.idx.Columns }

// physicalIndex maps a logical (row, col) cell to its slot in idx.Positions,
// accounting for the current layout.
func (e *Extractor) physicalIndex(row, col int) int {
	if e.idx.Layout == parseindex.LayoutColumnMajor {
		return col*e.idx.Rows() + row
	}
	return row*e.idx.Columns + col
}

// bounds returns the half-open [start, end) byte range of the raw
// (still-quoted) field at (row, col), not counting the separator itself.
func (e *Extractor) bounds(row, col int) (start, end int, err error) {
	rows, cols := e.idx.Rows(), e.idx.Columns
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, 0, fmt.Errorf("extract: (%d,%d) out of range [0,%d)x[0,%d)", row, col, rows, cols)
	}
	end = int(e.idx.Positions[e.physicalIndex(row, col)])
	switch {
	case col > 0:
		start = int(e.idx.Positions[e.physicalIndex(row, col-1)]) + 1
	case row > 0:
		start = int(e.idx.Positions[e.physicalIndex(row-1, cols-1)]) + 1
	default:
		start = 0
	}
	return start, end, nil
}

// columnEscape reports the escape info for col, defaulting to
// "assume worst case" (quoted, may need unescaping) if Escape metadata was
// never computed.
func (e *Extractor) columnEscape(col int) parseindex.ColumnEscapeInfo {
	if e.idx.Escape == nil || col >= len(e.idx.Escape) {
		return parseindex.ColumnEscapeInfo{HasQuotes: true, HasEscapes: true}
	}
	return e.idx.Escape[col]
}

// Field returns the field's value with quoting stripped and doubled quotes
// unescaped. The returned slice aliases e.data when no unescaping is
// required, and is freshly allocated otherwise (mirroring
// zeroCopyParser.parseQuotedField's zero-copy/allocate split, generalized
// to a per-column rather than per-call decision).
func (e *Extractor) Field(row, col int) ([]byte, error) {
	start, end, err := e.bounds(row, col)
	if err != nil {
		return nil, err
	}
	raw := e.data[start:end]

	esc := e.columnEscape(col)
	if !esc.HasQuotes {
		return raw, nil
	}
	if len(raw) < 2 || raw[0] != e.quote || raw[len(raw)-1] != e.quote {
		// Field wasn't actually quoted even though the column sometimes is.
		return raw, nil
	}
	inner := raw[1 : len(raw)-1]
	if !esc.HasEscapes {
		return inner, nil
	}
	return unescape(inner, e.quote), nil
}

func unescape(inner []byte, quote byte) []byte {
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == quote && i+1 < len(inner) && inner[i+1] == quote {
			out = append(out, quote)
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}

// GetString returns the field's value as a string. When the field required
// no unescape allocation, the string shares memory with the source buffer
// (unsafe.String over the zero-copy slice, matching the teacher's
// unsafeString helper in internal/fastparser/pool.go) and must not outlive
// mutation of that buffer.
func (e *Extractor) GetString(row, col int) (string, error) {
	b, err := e.Field(row, col)
	if err != nil {
		return "", err
	}
	return unsafeString(b), nil
}

func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// GetInteger parses the field as a base-10 signed integer.
func (e *Extractor) GetInteger(row, col int) (int64, error) {
	s, err := e.GetString(row, col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("extract: field (%d,%d) %q is not an integer: %w", row, col, s, err)
	}
	return v, nil
}

// GetFloat parses the field as a 64-bit float.
func (e *Extractor) GetFloat(row, col int) (float64, error) {
	s, err := e.GetString(row, col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("extract: field (%d,%d) %q is not a float: %w", row, col, s, err)
	}
	return v, nil
}

// GetBool parses the field as a boolean, accepting the same spellings as
// strconv.ParseBool (which include the title-cased "True"/"False"
// spellings common in tabular data exports).
func (e *Extractor) GetBool(row, col int) (bool, error) {
	s, err := e.GetString(row, col)
	if err != nil {
		return false, err
	}
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("extract: field (%d,%d) %q is not a boolean: %w", row, col, s, err)
	}
	return v, nil
}

// RowIterator yields successive rows as []string without requiring the
// caller to track indices manually.
type RowIterator struct {
	e   *Extractor
	row int
}

// NewRowIterator returns a fresh RowIterator positioned before the first row.
func (e *Extractor) NewRowIterator() *RowIterator {
	return &RowIterator{e: e, row: -1}
}

// Next advances to the next row, returning false once exhausted.
func (it *RowIterator) Next() bool {
	it.row++
	return it.row < it.e.Rows()
}

// Strings materializes the current row as a []string (one allocation per
// row; use Extractor.Field directly to avoid it in hot loops).
func (it *RowIterator) Strings() ([]string, error) {
	cols := it.e.Columns()
	out := make([]string, cols)
	for c := 0; c < cols; c++ {
		s, err := it.e.GetString(it.row, c)
		if err != nil {
			return nil, err
		}
		out[c] = s
	}
	return out, nil
}
