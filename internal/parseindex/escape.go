package parseindex

// ComputeColumnEscapeInfo scans every field in a row-major ParseIndex and
// records, per column, whether any value needed quote-stripping and/or
// doubled-quote unescaping. A value extractor uses this to skip the
// unescape pass entirely for columns that never need it, the same
// fast/slow split the teacher's zeroCopyParser.parseQuotedField makes per
// field (internal/fastparser/zerocopy.go), generalized here to a
// column-wide decision computed once instead of re-checked per cell.
//
// data is the original source buffer the ParseIndex was built over; quote
// is the dialect's quote byte. p must be in row-major layout with Columns
// set.
func ComputeColumnEscapeInfo(p *ParseIndex, data []byte, quote byte) []ColumnEscapeInfo {
	if p.Columns <= 0 || len(p.Positions) == 0 {
		return nil
	}
	cols := p.Columns
	rows := p.Rows()
	info := make([]ColumnEscapeInfo, cols)

	for r := 0; r < rows; r++ {
		rowBase := r * cols
		fieldStart := 0
		if r > 0 {
			fieldStart = int(p.Positions[rowBase-1]) + 1
		}
		for c := 0; c < cols; c++ {
			end := int(p.Positions[rowBase+c])
			raw := data[fieldStart:end]
			if len(raw) >= 2 && raw[0] == quote && raw[len(raw)-1] == quote {
				info[c].HasQuotes = true
				inner := raw[1 : len(raw)-1]
				for i := 0; i+1 < len(inner); i++ {
					if inner[i] == quote && inner[i+1] == quote {
						info[c].HasEscapes = true
						break
					}
				}
			}
			fieldStart = end + 1
		}
	}
	return info
}
