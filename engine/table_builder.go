package engine

import (
	"context"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// TABLE BUILDER — Produces a page of raw rows for preview
// ============================================================================
// One pass over the sequence: rows in [skip, skip+limit) are kept, the rest
// are only counted so the caller can page.
// ============================================================================

// BuildTable returns rows[skip:skip+limit] with column descriptors.
func BuildTable(ctx context.Context, columns schema.Columns, rows RowSeq, skip, limit int) (*TableData, error) {
	table := &TableData{
		Columns: BuildTableColumns(columns),
		Rows:    make([]schema.Row, 0),
		Skip:    skip,
		Limit:   limit,
	}

	i := 0
	err := rows.Each(ctx, func(row schema.Row) error {
		if i >= skip && len(table.Rows) < limit {
			table.Rows = append(table.Rows, row)
		}
		i++
		return nil
	})
	if err != nil {
		return nil, err
	}

	table.TotalRows = i
	return table, nil
}

// BuildTableColumns maps dataset columns to display columns.
func BuildTableColumns(columns schema.Columns) []TableColumn {
	out := make([]TableColumn, 0, len(columns))
	for _, col := range columns {
		tc := TableColumn{Key: col.Name, Label: col.Name, Type: "text", Align: "left"}
		if col.Type == schema.Numeric {
			tc.Type = "number"
			tc.Align = "right"
		}
		out = append(out, tc)
	}
	return out
}
