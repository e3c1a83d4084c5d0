package engine

import (
	"context"
	"math"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// HISTOGRAM — Equal-width binning
// ============================================================================
// binCount = min(maxBins, ceil(sqrt(n))), at least 1.
// binWidth = (max-min)/binCount, or 1 with a single bin when max == min.
// A value lands in min(floor((v-min)/binWidth), binCount-1), so max belongs
// to the last bin. Points are bin midpoints with the bin count as y.
//
// All range arithmetic is done on halved operands so a span wider than the
// largest float64 still yields finite widths, indexes and midpoints.
// ============================================================================

func histogramPoints(ctx context.Context, rows RowSeq, x int, maxBins int) ([]PlotPoint, *HistogramBins, int, error) {
	var values []float64
	matched := 0

	err := rows.Each(ctx, func(row schema.Row) error {
		matched++
		if x >= len(row) {
			return nil
		}
		if f, ok := row[x].Float(); ok {
			values = append(values, f)
		}
		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}

	if matched == 0 {
		return nil, nil, 0, apperrors.Validation(noDataMessage)
	}
	if len(values) == 0 {
		return nil, nil, 0, apperrors.Validation("no numeric data")
	}

	bins := ComputeBins(values, maxBins)
	counts := make([]int, bins.BinCount)
	for _, v := range values {
		counts[bins.Index(v)]++
	}

	points := make([]PlotPoint, bins.BinCount)
	for i, c := range counts {
		points[i] = PlotPoint{
			X: schema.NumberValue(bins.Midpoint(i)),
			Y: float64(c),
		}
	}
	return points, bins, len(values), nil
}

// ComputeBins derives the bin layout for a non-empty value set.
func ComputeBins(values []float64, maxBins int) *HistogramBins {
	if maxBins < 1 {
		maxBins = DefaultMaxBins
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if hi == lo {
		return &HistogramBins{Min: lo, Max: hi, BinWidth: 1, BinCount: 1}
	}

	count := int(math.Ceil(math.Sqrt(float64(len(values)))))
	if count > maxBins {
		count = maxBins
	}
	if count < 1 {
		count = 1
	}

	width := hi/float64(count) - lo/float64(count)
	if math.IsInf(width, 0) {
		// single bin over a span wider than float64 allows
		width = math.MaxFloat64
	}

	return &HistogramBins{
		Min:      lo,
		Max:      hi,
		BinWidth: width,
		BinCount: count,
	}
}

// Index returns the bin holding v, clamped into [0, BinCount).
func (b *HistogramBins) Index(v float64) int {
	if b.BinCount <= 1 || b.Max == b.Min {
		return 0
	}
	offset := v/2 - b.Min/2
	span := b.Max/2 - b.Min/2
	i := int(math.Floor(offset / span * float64(b.BinCount)))
	if i >= b.BinCount {
		i = b.BinCount - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Midpoint returns the center of bin i.
func (b *HistogramBins) Midpoint(i int) float64 {
	if b.Max == b.Min {
		return b.Min + (float64(i)+0.5)*b.BinWidth
	}
	t := (float64(i) + 0.5) / float64(b.BinCount)
	return b.Min*(1-t) + b.Max*t
}
