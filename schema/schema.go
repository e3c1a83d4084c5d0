package schema

// ============================================================================
// SCHEMA — Describes the shape of an ingested dataset
// ============================================================================
// Computed once at upload time and never mutated. The validator checks plot
// requests against it; the generator reads rows through its column index.
// ============================================================================

// SemanticType is the inferred role of a column.
type SemanticType string

const (
	Numeric     SemanticType = "numeric"
	Categorical SemanticType = "categorical"
)

// Column describes one dataset column.
type Column struct {
	Name         string       `json:"name"`
	Type         SemanticType `json:"semanticType"`
	UniqueValues int          `json:"uniqueValues"`
	NullCount    int          `json:"nullCount"`
}

// Columns is an ordered column list. Names are unique.
type Columns []Column

// Names returns column names in order.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Index returns the position of a named column.
func (c Columns) Index(name string) (int, bool) {
	for i, col := range c {
		if col.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Lookup returns a named column.
func (c Columns) Lookup(name string) (Column, bool) {
	if i, ok := c.Index(name); ok {
		return c[i], true
	}
	return Column{}, false
}

// IndexMap builds a name → position lookup for tight loops.
func (c Columns) IndexMap() map[string]int {
	m := make(map[string]int, len(c))
	for i, col := range c {
		m[col.Name] = i
	}
	return m
}

// Get reads a named cell from a row. Unknown names and short rows read as Null.
func (r Row) Get(index map[string]int, name string) Value {
	i, ok := index[name]
	if !ok || i >= len(r) {
		return NullValue()
	}
	return r[i]
}
