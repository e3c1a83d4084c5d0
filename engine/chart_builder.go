package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a request and its result
// ============================================================================
// The envelope is renderer-agnostic: one series carrying the points, axis
// labels and a color palette. Rendering is the client's job.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig for a generated result.
func BuildChart(req PlotRequest, result *Result) *ChartConfig {
	if result == nil {
		return nil
	}

	title := req.Title
	if title == "" {
		title = DefaultTitle(req)
	}

	config := &ChartConfig{
		ChartType:  string(req.PlotType),
		Title:      title,
		XAxis:      req.XAxis,
		YAxis:      LabelForYAxis(req),
		ShowLegend: false,
		ShowGrid:   true,
	}

	config.Series = []ChartSeries{{
		Name:  seriesName(req),
		Data:  result.Points,
		Color: defaultColors[0],
	}}
	config.Colors = assignColors(len(config.Series))
	return config
}

// LabelForYAxis returns the y-axis label: "Count" for counts, "Average <y>"
// for Bar means and the y column name otherwise.
func LabelForYAxis(req PlotRequest) string {
	switch {
	case req.PlotType == Histogram:
		return "Count"
	case req.PlotType == Bar && req.YAxis == "":
		return "Count"
	case req.PlotType == Bar:
		return "Average " + req.YAxis
	default:
		return req.YAxis
	}
}

// LabelForPlotType returns a capitalized label for a plot type.
func LabelForPlotType(t PlotType) string {
	s := string(t)
	if len(s) == 0 {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func seriesName(req PlotRequest) string {
	if req.YAxis != "" && req.PlotType != Histogram {
		return fmt.Sprintf("%s by %s", LabelForYAxis(req), req.XAxis)
	}
	return fmt.Sprintf("%s of %s", LabelForYAxis(req), req.XAxis)
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
