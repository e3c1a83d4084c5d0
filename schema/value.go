package schema

import (
	"bytes"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ============================================================================
// VALUE — a single typed cell
// ============================================================================
// Cells are coerced once at ingestion: numeric-looking text becomes a Number,
// empty text becomes Null, everything else stays a String. Value is comparable,
// so it can be used directly as a grouping key: Number(5) and String("5") are
// different keys.
// ============================================================================

// ValueKind tags the content of a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a Null, a finite Number or a String.
type Value struct {
	kind ValueKind
	num  float64
	str  string
}

// Row is an ordered list of values aligned with a dataset's column list.
type Row []Value

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// NumberValue wraps a float. Non-finite input becomes Null; negative zero is
// folded into zero so both group under one key.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, num: f}
}

// StringValue wraps text.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }

// Float returns the numeric content and whether the value is a Number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the string content and whether the value is a String.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// String renders the value for display. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Compare orders two values: Null < Number < String. Numbers compare
// numerically, strings lexicographically.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case KindString:
		switch {
		case a.str < b.str:
			return -1
		case a.str > b.str:
			return 1
		}
	}
	return 0
}

var jsonNull = []byte("null")

// MarshalJSON encodes numbers as JSON numbers, strings as JSON strings and
// Null as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindString:
		return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v.str)
	default:
		return jsonNull, nil
	}
}

// UnmarshalJSON accepts a JSON number, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, jsonNull):
		*v = NullValue()
		return nil
	case data[0] == '"':
		var s string
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decode string value")
		}
		*v = StringValue(s)
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Errorf("value must be a number, string or null, got %s", data)
	}
	*v = NumberValue(f)
	return nil
}
