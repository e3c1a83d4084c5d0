package helpers

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV bytes into typed rows
// ============================================================================
// The caller reads the upload from wherever it lives (form, file, object store).
// This helper turns the raw bytes into headers plus schema.Rows, coercing each
// cell once. Any malformed line fails the whole parse; nothing is skipped.
// ============================================================================

// DefaultNullTokens are cell texts read as Null in addition to the empty string.
var DefaultNullTokens = []string{"NA", "N/A", "n/a", "null", "NULL", "NaN"}

// ParseOptions controls parsing.
type ParseOptions struct {
	Comma      rune     // Field delimiter. Default: ','
	NullTokens []string // Cell texts read as Null. nil → DefaultNullTokens
}

// DefaultParseOptions returns sensible defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Comma:      ',',
		NullTokens: DefaultNullTokens,
	}
}

// Parsed is the output of ParseCSV.
type Parsed struct {
	Headers []string
	Rows    []schema.Row
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses CSV bytes with a header line into typed rows.
// Malformed text fails with an apperrors parse error naming the line; duplicate
// or blank header names fail validation.
func ParseCSV(data []byte, opts ...ParseOptions) (*Parsed, error) {
	opt := DefaultParseOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Comma == 0 {
			opt.Comma = ','
		}
		if opt.NullTokens == nil {
			opt.NullTokens = DefaultNullTokens
		}
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = opt.Comma
	reader.FieldsPerRecord = 0 // every row must match the header width
	reader.ReuseRecord = true

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.Parse(1, "missing header line")
	}
	if err != nil {
		return nil, toParseError(err)
	}

	headers := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, apperrors.Validationf("empty column name at position %d", i+1)
		}
		if seen[h] {
			return nil, apperrors.Validationf("duplicate column name: %s", h)
		}
		seen[h] = true
		headers[i] = h
	}

	nulls := make(map[string]bool, len(opt.NullTokens))
	for _, tok := range opt.NullTokens {
		nulls[tok] = true
	}

	// Read rows
	var rows []schema.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}

		row := make(schema.Row, len(headers))
		for i, cell := range record {
			row[i] = coerceCell(cell, nulls)
		}
		rows = append(rows, row)
	}

	return &Parsed{Headers: headers, Rows: rows}, nil
}

// coerceCell applies the ingestion coercion: numeric-looking → Number,
// empty or null token → Null, anything else → trimmed String.
func coerceCell(cell string, nulls map[string]bool) schema.Value {
	cell = strings.TrimSpace(cell)
	if cell == "" || nulls[cell] {
		return schema.NullValue()
	}
	if f, ok := schema.ParseNumber(cell); ok {
		return schema.NumberValue(f)
	}
	return schema.StringValue(cell)
}

// toParseError maps encoding/csv failures onto the parse error taxonomy.
func toParseError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		line := perr.Line
		if perr.Err == csv.ErrQuote || perr.Err == csv.ErrBareQuote {
			// StartLine is where the broken field began; Line is often EOF.
			line = perr.StartLine
		}
		return apperrors.Parse(line, "%s", perr.Err.Error())
	}
	return apperrors.Parse(0, "%s", err.Error())
}
