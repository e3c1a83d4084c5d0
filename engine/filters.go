package engine

import (
	"sort"
	"strings"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// FILTERS — Typed equality predicates over named columns
// ============================================================================
// A row passes iff row[col] == value for every entry (AND across columns).
// Equality is exact Value equality: Number 5 and String "5" differ, and
// string comparison is case-sensitive.
// ============================================================================

// Filter maps column names to the value a row must hold in that column.
type Filter map[string]schema.Value

// Keys returns the filter's column names, sorted.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Check fails with a validation error when a key is not a column.
func (f Filter) Check(columns schema.Columns) error {
	for _, key := range f.Keys() {
		if _, ok := columns.Index(key); !ok {
			return apperrors.Validation("unknown filter column")
		}
	}
	return nil
}

// Coerce returns a copy in which numeric-looking string values become
// Numbers, matching the per-cell coercion done at ingestion. A stored String
// is never numeric-looking, so this holds for Categorical columns too.
func (f Filter) Coerce(columns schema.Columns) Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for key, val := range f {
		out[key] = val
		text, ok := val.Text()
		if !ok {
			continue
		}
		if _, ok := columns.Index(key); !ok {
			continue
		}
		if num, ok := schema.ParseNumber(text); ok {
			out[key] = schema.NumberValue(num)
		}
	}
	return out
}

// Matcher compiles the filter against a column list. Unknown keys never
// match, so Check should run first.
func (f Filter) Matcher(columns schema.Columns) func(schema.Row) bool {
	type cond struct {
		index int
		want  schema.Value
	}

	conds := make([]cond, 0, len(f))
	missing := false
	for _, key := range f.Keys() {
		i, ok := columns.Index(key)
		if !ok {
			missing = true
			break
		}
		conds = append(conds, cond{index: i, want: f[key]})
	}

	return func(row schema.Row) bool {
		if missing {
			return false
		}
		for _, c := range conds {
			if c.index >= len(row) || row[c.index] != c.want {
				return false
			}
		}
		return true
	}
}

// ParseFilterArgs parses "col=value" pairs from a CLI or query string.
// Values stay Strings; call Coerce to align them with column types.
func ParseFilterArgs(args []string) (Filter, error) {
	if len(args) == 0 {
		return nil, nil
	}
	f := make(Filter, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, apperrors.Validationf("invalid filter %q: expected column=value", arg)
		}
		val = strings.TrimSpace(val)
		if val == "" {
			f[key] = schema.NullValue()
			continue
		}
		f[key] = schema.StringValue(val)
	}
	return f, nil
}
