// Package dialectdetect implements the dialect auto-detector of spec.md
// §4.D: a delimiter × quote-character candidate grid scored by row-length
// consistency and per-column type homogeneity, plus the per-field type
// classifier that homogeneity scoring depends on.
//
// The candidate-grid and consistency-scoring shape is grounded on
// pkg/csv/sniffer.go's detectDelimiter (fixed delimiter list, per-line
// count consistency), generalized to also vary the quote character and to
// weigh each candidate by column type homogeneity. The type classifier
// itself restores the field-type taxonomy from
// original_source/include/type_detector.h, which the distillation this
// package implements dropped.
package dialectdetect

import (
	"strings"
)

// FieldType is the inferred type of one field's value.
type FieldType uint8

const (
	TypeEmpty FieldType = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeDate
	TypeDateTime
	TypeTime
	TypeString
)

func (t FieldType) String() string {
	switch t {
	case TypeEmpty:
		return "empty"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	case TypeTime:
		return "time"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// DetectFieldType classifies a single trimmed field value. Order matters:
// date-like strings are checked before numeric parses so compact 8-digit
// dates (YYYYMMDD) are not misread as integers, matching
// TypeDetector::detect_field's ordering.
func DetectFieldType(value string) FieldType {
	v := strings.TrimSpace(value)
	if v == "" {
		return TypeEmpty
	}
	if isDate(v) {
		return TypeDate
	}
	if isDateTime(v) {
		return TypeDateTime
	}
	if isTime(v) {
		return TypeTime
	}
	if isBoolean(v) {
		return TypeBoolean
	}
	if isInteger(v) {
		return TypeInteger
	}
	if isFloat(v) {
		return TypeFloat
	}
	return TypeString
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isInteger(s string) bool {
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
		if i >= len(s) {
			return false
		}
	}
	if !isDigit(s[i]) {
		return false
	}
	for ; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isFloat(s string) bool {
	i := 0
	hasDigit := false
	hasDecimal := false
	hasExponent := false

	if s[i] == '+' || s[i] == '-' {
		i++
		if i >= len(s) {
			return false
		}
	}
	lower := strings.ToLower(s[i:])
	if lower == "nan" || lower == "inf" || lower == "infinity" {
		return true
	}

	for i < len(s) && isDigit(s[i]) {
		hasDigit = true
		i++
	}
	if i < len(s) && s[i] == '.' {
		hasDecimal = true
		i++
		for i < len(s) && isDigit(s[i]) {
			hasDigit = true
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		hasExponent = true
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return hasDigit && (hasDecimal || hasExponent) && i == len(s)
}

func isBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "t", "f", "y", "n", "yes", "no", "true", "false", "on", "off":
		return true
	}
	return false
}

// isDate accepts ISO (YYYY-MM-DD, YYYY/MM/DD), US/EU (MM/DD/YYYY,
// DD/MM/YYYY with '-' or '/'), and compact (YYYYMMDD) forms.
func isDate(s string) bool {
	if len(s) < 8 {
		return false
	}
	if isDateISO(s) || isDateSlashed(s) || isDateCompact(s) {
		return true
	}
	return false
}

func isDateISO(s string) bool {
	if len(s) != 10 {
		return false
	}
	return digitsAt(s, 0, 4) && (s[4] == '-' || s[4] == '/') &&
		digitsAt(s, 5, 2) && (s[7] == '-' || s[7] == '/') &&
		digitsAt(s, 8, 2) && validYMD(s[0:4], s[5:7], s[8:10])
}

func isDateSlashed(s string) bool {
	if len(s) != 10 {
		return false
	}
	sep := s[2]
	if sep != '-' && sep != '/' {
		return false
	}
	if s[5] != sep {
		return false
	}
	if !digitsAt(s, 0, 2) || !digitsAt(s, 3, 2) || !digitsAt(s, 6, 4) {
		return false
	}
	// Try US (MM/DD/YYYY) first, then EU (DD/MM/YYYY), matching the
	// original's documented ambiguity resolution.
	return validYMD(s[6:10], s[0:2], s[3:5]) || validYMD(s[6:10], s[3:5], s[0:2])
}

func isDateCompact(s string) bool {
	if len(s) != 8 {
		return false
	}
	if !digitsAt(s, 0, 8) {
		return false
	}
	return validYMD(s[0:4], s[4:6], s[6:8])
}

func isDateTime(s string) bool {
	// "YYYY-MM-DD(T| )HH:MM:SS" with optional fractional seconds/zone.
	if len(s) < 19 {
		return false
	}
	if !isDateISO(s[0:10]) {
		return false
	}
	sep := s[10]
	if sep != 'T' && sep != ' ' {
		return false
	}
	return isTime(s[11:19])
}

func isTime(s string) bool {
	if len(s) != 8 {
		return false
	}
	return digitsAt(s, 0, 2) && s[2] == ':' && digitsAt(s, 3, 2) && s[5] == ':' && digitsAt(s, 6, 2)
}

func digitsAt(s string, offset, n int) bool {
	if offset+n > len(s) {
		return false
	}
	for i := offset; i < offset+n; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	return v
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var daysInMonthTable = [...]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && isLeapYear(year) {
		return 29
	}
	return daysInMonthTable[month]
}

func validYMD(yearStr, monthStr, dayStr string) bool {
	year, month, day := atoi(yearStr), atoi(monthStr), atoi(dayStr)
	if year < 1000 || year > 9999 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > daysInMonth(year, month) {
		return false
	}
	return true
}

// ColumnTypeStats accumulates per-column type counts for dominant_type
// scoring (spec.md §4.D's type_score component).
type ColumnTypeStats struct {
	Total, Empty, Boolean, Integer, Float, Date, DateTime, Time, String int
}

// Add records one field's detected type.
func (s *ColumnTypeStats) Add(t FieldType) {
	s.Total++
	switch t {
	case TypeEmpty:
		s.Empty++
	case TypeBoolean:
		s.Boolean++
	case TypeInteger:
		s.Integer++
	case TypeFloat:
		s.Float++
	case TypeDate:
		s.Date++
	case TypeDateTime:
		s.DateTime++
	case TypeTime:
		s.Time++
	default:
		s.String++
	}
}

// DominantType returns the type whose share of non-empty values meets
// threshold, checked in specificity order (boolean, then integer, then
// float — which subsumes integers, then date family), falling back to
// string. Matches ColumnTypeStats::dominant_type's priority order.
func (s *ColumnTypeStats) DominantType(threshold float64) FieldType {
	nonEmpty := s.Total - s.Empty
	if nonEmpty <= 0 {
		return TypeEmpty
	}
	ratio := func(n int) float64 { return float64(n) / float64(nonEmpty) }

	if ratio(s.Boolean) >= threshold {
		return TypeBoolean
	}
	if ratio(s.Integer) >= threshold {
		return TypeInteger
	}
	if ratio(s.Float+s.Integer) >= threshold {
		return TypeFloat
	}
	if ratio(s.Date) >= threshold {
		return TypeDate
	}
	if ratio(s.DateTime) >= threshold {
		return TypeDateTime
	}
	if ratio(s.Time) >= threshold {
		return TypeTime
	}
	return TypeString
}

// Homogeneity is the share of non-empty values agreeing with DominantType,
// used directly as the type_score contribution for this column
// (spec.md §4.D).
func (s *ColumnTypeStats) Homogeneity(threshold float64) float64 {
	nonEmpty := s.Total - s.Empty
	if nonEmpty <= 0 {
		return 1
	}
	switch s.DominantType(threshold) {
	case TypeBoolean:
		return float64(s.Boolean) / float64(nonEmpty)
	case TypeInteger:
		return float64(s.Integer) / float64(nonEmpty)
	case TypeFloat:
		return float64(s.Float+s.Integer) / float64(nonEmpty)
	case TypeDate:
		return float64(s.Date) / float64(nonEmpty)
	case TypeDateTime:
		return float64(s.DateTime) / float64(nonEmpty)
	case TypeTime:
		return float64(s.Time) / float64(nonEmpty)
	default:
		return float64(s.String) / float64(nonEmpty)
	}
}
