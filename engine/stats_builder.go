package engine

import (
	"context"
	"math"
	"sort"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// STATS BUILDER — Per-column summary statistics
// ============================================================================
// Numeric columns buffer their values for the median. Std is the sample
// standard deviation (n-1) and is omitted below two values.
// ============================================================================

// BuildStats computes dataset-wide statistics in one pass over rows.
func BuildStats(ctx context.Context, columns schema.Columns, rows RowSeq) (*Stats, error) {
	numeric := make(map[int][]float64)
	for i, col := range columns {
		if col.Type == schema.Numeric {
			numeric[i] = nil
		}
	}

	missing := make([]int, len(columns))
	total := 0

	err := rows.Each(ctx, func(row schema.Row) error {
		total++
		for i := range columns {
			if i >= len(row) || row[i].IsNull() {
				missing[i]++
				continue
			}
			if _, ok := numeric[i]; ok {
				if f, ok := row[i].Float(); ok {
					numeric[i] = append(numeric[i], f)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalRows:    total,
		TotalColumns: len(columns),
		Columns:      make(map[string]ColumnStats, len(columns)),
	}
	for i, col := range columns {
		cs := ColumnStats{
			Type:    col.Type,
			Missing: missing[i],
			Unique:  col.UniqueValues,
		}
		if values := numeric[i]; len(values) > 0 {
			summarize(&cs, values)
		}
		stats.Columns[col.Name] = cs
	}
	return stats, nil
}

func summarize(cs *ColumnStats, values []float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	median := Median(sorted)
	cs.Min = &lo
	cs.Max = &hi
	cs.Median = &median

	// mean and std run on values scaled into [-1, 1]
	scale := math.Max(math.Abs(lo), math.Abs(hi))
	if scale == 0 {
		zero := 0.0
		cs.Mean = &zero
		if len(sorted) > 1 {
			std := 0.0
			cs.Std = &std
		}
		return
	}

	var mean float64
	for i, v := range sorted {
		n := float64(i + 1)
		mean += (v/scale)/n - mean/n
	}
	if m := mean * scale; !math.IsInf(m, 0) {
		cs.Mean = &m
	}

	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v/scale - mean
			ss += d * d
		}
		if std := math.Sqrt(ss/float64(len(sorted)-1)) * scale; !math.IsInf(std, 0) {
			cs.Std = &std
		}
	}
}

// Median returns the median of sorted values.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1]/2 + sorted[n/2]/2
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
