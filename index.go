package vroom

import (
	"github.com/shapestone/vroom/internal/extract"
	"github.com/shapestone/vroom/internal/parseindex"
)

// ParseIndex is the result of indexing a file: byte offsets of every
// field/record separator, addressable in O(1) once wrapped by an
// Extractor. Callers obtain one from Result.Index, never construct one
// directly.
type ParseIndex struct {
	raw *parseindex.ParseIndex
}

// Rows reports the number of complete records in the index.
func (p *ParseIndex) Rows() int { return p.raw.Rows() }

// Columns reports the number of fields per record.
func (p *ParseIndex) Columns() int { return p.raw.Columns }

// ColumnMajor reports whether the index is currently stored transposed
// (column-major), which speeds up whole-column access at the cost of
// whole-row access.
func (p *ParseIndex) ColumnMajor() bool {
	return p.raw.Layout == parseindex.LayoutColumnMajor
}

// Extractor builds a value extractor over data using this index. data
// must be the exact bytes the index was built from, and must outlive the
// returned Extractor.
func (p *ParseIndex) Extractor(data []byte, dialect Dialect) (*Extractor, error) {
	e, err := extract.New(data, p.raw, dialect.Quote)
	if err != nil {
		return nil, err
	}
	return &Extractor{e: e}, nil
}

// Share converts this ParseIndex into a reference-counted handle so it
// (and optionally data) can outlive the call that produced it; see
// internal/parseindex.Shared for the ownership model.
func (p *ParseIndex) Share(data []byte) *parseindex.Shared {
	return p.raw.Share(data)
}

// Extractor provides O(1) field access over a completed ParseIndex,
// wrapping internal/extract.Extractor.
type Extractor struct {
	e *extract.Extractor
}

// Rows reports the number of records addressable by this Extractor.
func (x *Extractor) Rows() int { return x.e.Rows() }

// Columns reports the number of fields per record.
func (x *Extractor) Columns() int { return x.e.Columns() }

// Field returns the raw field bytes at (row, col), quoting stripped.
func (x *Extractor) Field(row, col int) ([]byte, error) { return x.e.Field(row, col) }

// GetString returns the field's value as a string.
func (x *Extractor) GetString(row, col int) (string, error) { return x.e.GetString(row, col) }

// GetInteger parses the field as a base-10 signed integer.
func (x *Extractor) GetInteger(row, col int) (int64, error) { return x.e.GetInteger(row, col) }

// GetFloat parses the field as a 64-bit float.
func (x *Extractor) GetFloat(row, col int) (float64, error) { return x.e.GetFloat(row, col) }

// GetBool parses the field as a boolean.
func (x *Extractor) GetBool(row, col int) (bool, error) { return x.e.GetBool(row, col) }

// NewRowIterator returns a RowIterator positioned before the first row.
func (x *Extractor) NewRowIterator() *RowIterator {
	return &RowIterator{it: x.e.NewRowIterator()}
}

// RowIterator yields successive rows as []string.
type RowIterator struct {
	it *extract.RowIterator
}

// Next advances to the next row, returning false once exhausted.
func (r *RowIterator) Next() bool { return r.it.Next() }

// Strings materializes the current row as a []string.
func (r *RowIterator) Strings() ([]string, error) { return r.it.Strings() }
