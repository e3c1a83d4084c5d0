package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// INFERENCE — Column semantic typing
// ============================================================================
// Classification per column:
//   1. Collect non-null values, count nulls and distinct values
//   2. Numeric iff there is at least one value and every value is a number
//   3. Otherwise Categorical (including the all-empty column)
//
// The same numeric grammar drives cell coercion in the CSV parser, so a column
// is Numeric exactly when every non-empty cell was coerced to a number.
// ============================================================================

// numericGrammar is plain decimal or scientific notation. Hex floats, "Inf",
// "NaN", thousands separators and currency prefixes are not numeric.
var numericGrammar = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber trims s and parses it when it is numeric-looking and finite.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericGrammar.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether s is numeric-looking.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// InferType classifies raw cell text. Empty strings are ignored; a column with
// no evidence is Categorical.
func InferType(values []string) SemanticType {
	seen := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		seen++
		if !IsNumeric(v) {
			return Categorical
		}
	}
	if seen == 0 {
		return Categorical
	}
	return Numeric
}

// InferColumns inspects coerced rows and produces the column list.
// Rows must be aligned with headers.
func InferColumns(headers []string, rows []Row) Columns {
	columns := make(Columns, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(header, i, rows).toColumn()
	}
	return columns
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	header      string
	colType     SemanticType
	uniqueCount int
	nullCount   int
	valueCount  int
}

func analyzeColumn(header string, index int, rows []Row) columnAnalysis {
	col := columnAnalysis{header: header}

	uniqueSet := make(map[Value]struct{})
	allNumbers := true

	for _, row := range rows {
		if index >= len(row) || row[index].IsNull() {
			col.nullCount++
			continue
		}
		v := row[index]
		col.valueCount++
		uniqueSet[v] = struct{}{}
		if !v.IsNumber() {
			allNumbers = false
		}
	}

	col.uniqueCount = len(uniqueSet)
	col.colType = Categorical
	if col.valueCount > 0 && allNumbers {
		col.colType = Numeric
	}
	return col
}

func (col columnAnalysis) toColumn() Column {
	return Column{
		Name:         col.header,
		Type:         col.colType,
		UniqueValues: col.uniqueCount,
		NullCount:    col.nullCount,
	}
}
