package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// ROW SEQUENCE — Lazy, restartable row access
// ============================================================================
// The engine never owns dataset rows. It reads through this interface.
//
// Implementations:
//   SliceSeq     — wraps []schema.Row (CLI, tests)
//   filteredSeq  — equality-filtered view of a parent sequence
//   catalog      — re-scans the store on every Each call
//
// Each call starts from the first row. Rows are handed out read-only.
// ============================================================================

// ErrStop ends an iteration early. Each returns nil when fn returns ErrStop.
var ErrStop = errors.New("stop iteration")

// RowSeq is a restartable sequence of rows in storage order.
type RowSeq interface {
	// Each calls fn for every row in order. It stops at the first error fn
	// returns and checks ctx between rows.
	Each(ctx context.Context, fn func(schema.Row) error) error
}

// RowSeqFunc adapts a function to RowSeq.
type RowSeqFunc func(ctx context.Context, fn func(schema.Row) error) error

func (f RowSeqFunc) Each(ctx context.Context, fn func(schema.Row) error) error {
	return f(ctx, fn)
}

// ============================================================================
// SLICE SEQ — wraps in-memory rows
// ============================================================================

// SliceSeq wraps a []schema.Row as a RowSeq.
type SliceSeq []schema.Row

func (s SliceSeq) Each(ctx context.Context, fn func(schema.Row) error) error {
	for _, row := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}

// ============================================================================
// FILTERED SEQ — equality subset of a parent (no copy)
// ============================================================================

type filteredSeq struct {
	parent RowSeq
	match  func(schema.Row) bool
}

// Filtered returns the rows of parent that match every filter entry.
// An empty filter returns parent unchanged.
func Filtered(parent RowSeq, filter Filter, columns schema.Columns) RowSeq {
	if len(filter) == 0 {
		return parent
	}
	return &filteredSeq{parent: parent, match: filter.Matcher(columns)}
}

func (s *filteredSeq) Each(ctx context.Context, fn func(schema.Row) error) error {
	return s.parent.Each(ctx, func(row schema.Row) error {
		if !s.match(row) {
			return nil
		}
		return fn(row)
	})
}

// Count returns the number of rows in seq.
func Count(ctx context.Context, seq RowSeq) (int, error) {
	n := 0
	err := seq.Each(ctx, func(schema.Row) error {
		n++
		return nil
	})
	return n, err
}
