package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// GENERATOR — Dispatcher from plot type to algorithm
// ============================================================================
// Entry point: Generate(ctx, req, columns, rows, opts...)
//
// Pipeline:
//   1. Validate the request against the columns (no row access)
//   2. Resolve axis positions once
//   3. Stream rows through the plot-type algorithm
//   4. Reject results with zero contributing rows
//   5. Attach the chart envelope
//
// Rows arrive already filtered. The same inputs always give the same output.
// ============================================================================

// axes holds resolved column positions for one request.
type axes struct {
	x    int
	y    int
	hasY bool
}

func resolveAxes(req PlotRequest, columns schema.Columns) axes {
	a := axes{y: -1}
	a.x, _ = columns.Index(req.XAxis)
	if req.YAxis != "" {
		if i, ok := columns.Index(req.YAxis); ok {
			a.y = i
			a.hasY = true
		}
	}
	return a
}

// Generate runs a plot request over rows and returns render-ready point data.
func Generate(ctx context.Context, req PlotRequest, columns schema.Columns, rows RowSeq, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if err := Validate(req, columns); err != nil {
		return nil, err
	}

	log := cfg.Logger.WithFields(logrus.Fields{
		"plot_type": req.PlotType,
		"x_axis":    req.XAxis,
		"y_axis":    req.YAxis,
	})
	log.Debug("🔧 generating plot data")

	ax := resolveAxes(req, columns)
	result := &Result{PlotType: req.PlotType}

	var err error
	switch req.PlotType {
	case Scatter:
		result.Points, result.ContributingRows, err = scatterPoints(ctx, rows, ax)
	case Line:
		result.Points, result.ContributingRows, err = linePoints(ctx, rows, ax)
	case Bar:
		result.Points, result.ContributingRows, err = barPoints(ctx, rows, ax)
	case Histogram:
		result.Points, result.Bins, result.ContributingRows, err = histogramPoints(ctx, rows, ax.x, cfg.MaxBins)
	}
	if err != nil {
		return nil, err
	}

	if result.ContributingRows == 0 {
		return nil, apperrors.Validation(noDataMessage)
	}

	result.Chart = BuildChart(req, result)

	log.WithFields(logrus.Fields{
		"points":       len(result.Points),
		"contributing": result.ContributingRows,
	}).Debug("📊 plot data ready")

	return result, nil
}

const noDataMessage = "no data for the specified criteria"
