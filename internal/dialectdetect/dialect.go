package dialectdetect

import (
	"strings"
)

// delimiterCandidates mirrors pkg/csv/sniffer.go's fixed list, extended
// with nothing else: these four cover the overwhelming majority of
// real-world delimiter-separated files.
var delimiterCandidates = []byte{',', '\t', ';', '|'}

// quoteCandidates are the quote characters worth trying; double quote
// dominates in practice, single quote shows up in some exports.
var quoteCandidates = []byte{'"', '\''}

// DefaultConfidenceThreshold matches TypeDetectionOptions::confidence_threshold.
const DefaultConfidenceThreshold = 0.9

// sampleLineLimit bounds how much of a large file detection inspects.
const sampleLineLimit = 100

// Candidate is one (delimiter, quote) pair under consideration.
type Candidate struct {
	Delimiter byte
	Quote     byte
}

// Result is the winning dialect plus the scores that produced it, kept for
// diagnostics (spec.md §4.D's DetectionResult).
type Result struct {
	Delimiter     byte
	Quote         byte
	HasHeader     bool
	PatternScore  float64
	TypeScore     float64
	CombinedScore float64
	ColumnTypes   []FieldType
}

// splitFields splits a line on delim, treating quote as a (non-nesting)
// toggle that suppresses delimiter recognition, the same quote-respecting
// split pkg/csv/sniffer.go's splitByDelimiter performs.
func splitFields(line string, delim, quote byte) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == quote:
			inQuotes = !inQuotes
			current.WriteByte(c)
		case c == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func sampleLines(sample string) []string {
	all := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(all))
	for _, l := range all {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > sampleLineLimit {
		lines = lines[:sampleLineLimit]
	}
	return lines
}

// patternScore rewards a (delimiter, quote) candidate whose every sampled
// line splits into the same field count, generalizing
// sniffer.go's detectDelimiter consistency bonus (there: *10 for a
// constant per-line count) to return a normalized 0..1 value instead of an
// ad hoc integer.
func patternScore(lines []string, delim, quote byte) (score float64, columns int) {
	if len(lines) == 0 {
		return 0, 0
	}
	counts := make([]int, len(lines))
	for i, l := range lines {
		counts[i] = len(splitFields(l, delim, quote))
	}
	if counts[0] <= 1 {
		return 0, counts[0]
	}
	consistent := 0
	for _, c := range counts {
		if c == counts[0] {
			consistent++
		}
	}
	return float64(consistent) / float64(len(counts)), counts[0]
}

// typeScore averages column homogeneity across all data rows (excluding a
// detected header row), restoring the per-column type consistency signal
// from original_source/include/type_detector.h that sniffer.go's
// delimiter-only heuristic never computed.
func typeScore(lines []string, delim, quote byte, columns int, hasHeader bool) (score float64, dominant []FieldType) {
	if columns <= 0 {
		return 0, nil
	}
	start := 0
	if hasHeader {
		start = 1
	}
	stats := make([]ColumnTypeStats, columns)
	rows := 0
	for _, l := range lines[minInt(start, len(lines)):] {
		fields := splitFields(l, delim, quote)
		if len(fields) != columns {
			continue
		}
		rows++
		for c, f := range fields {
			stats[c].Add(DetectFieldType(strings.Trim(f, string(quote))))
		}
	}
	if rows == 0 {
		return 0, nil
	}
	dominant = make([]FieldType, columns)
	total := 0.0
	for c := range stats {
		dominant[c] = stats[c].DominantType(DefaultConfidenceThreshold)
		total += stats[c].Homogeneity(DefaultConfidenceThreshold)
	}
	return total / float64(columns), dominant
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Detect scores every (delimiter, quote) candidate pair against sample and
// returns the highest-scoring dialect, per spec.md §4.D's
// pattern_score × type_score grid search.
func Detect(sample string) Result {
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return Result{Delimiter: ',', Quote: '"'}
	}

	var best Result
	bestCombined := -1.0

	for _, delim := range delimiterCandidates {
		for _, quote := range quoteCandidates {
			pScore, columns := patternScore(lines, delim, quote)
			if pScore == 0 {
				continue
			}
			tScore, dominant := typeScore(lines, delim, quote, columns, detectHeaderFor(lines, delim, quote, columns))
			combined := pScore * (0.5 + 0.5*tScore) // pattern consistency gates; type score refines
			if combined > bestCombined {
				bestCombined = combined
				best = Result{
					Delimiter:     delim,
					Quote:         quote,
					PatternScore:  pScore,
					TypeScore:     tScore,
					CombinedScore: combined,
					ColumnTypes:   dominant,
				}
			}
		}
	}

	if bestCombined < 0 {
		return Result{Delimiter: ',', Quote: '"'}
	}
	best.HasHeader = detectHeaderFor(lines, best.Delimiter, best.Quote, len(splitFields(lines[0], best.Delimiter, best.Quote)))
	return best
}

// detectHeaderFor applies sniffer.go's isLikelyHeader/isLikelyData
// majority-vote heuristic to the winning candidate's first row versus its
// second, generalized to an arbitrary delimiter/quote pair.
func detectHeaderFor(lines []string, delim, quote byte, columns int) bool {
	if len(lines) < 2 || columns <= 0 {
		return false
	}
	first := splitFields(lines[0], delim, quote)
	second := splitFields(lines[1], delim, quote)
	if len(first) == 0 || len(second) == 0 {
		return false
	}

	headerScore, dataScore := 0, 0
	for _, f := range first {
		f = strings.TrimSpace(strings.Trim(f, string(quote)))
		if isLikelyHeaderField(f) {
			headerScore++
		}
		if isLikelyDataField(f) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

func isLikelyHeaderField(s string) bool {
	if s == "" {
		return false
	}
	if DetectFieldType(s) != TypeString {
		return false
	}
	for _, c := range s {
		if c == ' ' || c == '_' || c == '-' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

func isLikelyDataField(s string) bool {
	if s == "" {
		return false
	}
	switch DetectFieldType(s) {
	case TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeDateTime, TypeTime:
		return true
	}
	return strings.Contains(s, "@")
}
