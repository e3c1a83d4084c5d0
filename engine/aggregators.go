package engine

import (
	"context"
	"sort"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// AGGREGATORS — Scatter, Line and Bar over a RowSeq
// ============================================================================
// Each function makes a single pass. Scatter emits as it goes, Line buffers
// its points for the sort, Bar holds one accumulator per group.
// ============================================================================

// pairOf returns the (x, y) of a row when both are present and y is a number.
func pairOf(row schema.Row, ax axes) (PlotPoint, bool) {
	if ax.y < 0 || ax.x >= len(row) || ax.y >= len(row) {
		return PlotPoint{}, false
	}
	x := row[ax.x]
	if x.IsNull() {
		return PlotPoint{}, false
	}
	y, ok := row[ax.y].Float()
	if !ok {
		return PlotPoint{}, false
	}
	return PlotPoint{X: x, Y: y}, true
}

// ============================================================================
// SCATTER
// ============================================================================

func scatterPoints(ctx context.Context, rows RowSeq, ax axes) ([]PlotPoint, int, error) {
	points := make([]PlotPoint, 0)
	err := rows.Each(ctx, func(row schema.Row) error {
		if p, ok := pairOf(row, ax); ok {
			points = append(points, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return points, len(points), nil
}

// ============================================================================
// LINE
// ============================================================================

func linePoints(ctx context.Context, rows RowSeq, ax axes) ([]PlotPoint, int, error) {
	points, n, err := scatterPoints(ctx, rows, ax)
	if err != nil {
		return nil, 0, err
	}
	SortPoints(points)
	return points, n, nil
}

// SortPoints stable-sorts points ascending by x: numbers numerically,
// strings lexicographically, numbers before strings.
func SortPoints(points []PlotPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return schema.Compare(points[i].X, points[j].X) < 0
	})
}

// ============================================================================
// BAR
// ============================================================================

type barGroup struct {
	mean  float64
	count int
}

// add folds y into a running mean. Dividing before subtracting keeps the
// update finite for any finite inputs.
func (g *barGroup) add(y float64) {
	g.count++
	n := float64(g.count)
	g.mean += y/n - g.mean/n
}

// barPoints groups non-null x by exact Value equality in first-encountered
// order. Without y the bar height is the row count; with y it is the mean of
// the group's numeric y values, and rows without a numeric y are skipped.
func barPoints(ctx context.Context, rows RowSeq, ax axes) ([]PlotPoint, int, error) {
	grouped := make(map[schema.Value]*barGroup)
	order := make([]schema.Value, 0)
	contributing := 0

	err := rows.Each(ctx, func(row schema.Row) error {
		if ax.x >= len(row) || row[ax.x].IsNull() {
			return nil
		}
		key := row[ax.x]

		var y float64
		if ax.hasY {
			if ax.y >= len(row) {
				return nil
			}
			f, ok := row[ax.y].Float()
			if !ok {
				return nil
			}
			y = f
		}

		g, exists := grouped[key]
		if !exists {
			g = &barGroup{}
			grouped[key] = g
			order = append(order, key)
		}
		g.add(y)
		contributing++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	points := make([]PlotPoint, 0, len(order))
	for _, key := range order {
		g := grouped[key]
		val := float64(g.count)
		if ax.hasY {
			val = g.mean
		}
		points = append(points, PlotPoint{X: key, Y: val})
	}
	return points, contributing, nil
}
