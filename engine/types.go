package engine

import (
	"fmt"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// ENGINE TYPES — Plot requests in, point data out
// ============================================================================
// The engine never touches storage. It reads rows through a RowSeq and the
// dataset's column list, and returns renderer-agnostic point data.
// ============================================================================

// ============================================================================
// PLOT TYPE
// ============================================================================

// PlotType names a supported plot algorithm.
type PlotType string

const (
	Scatter   PlotType = "scatter"
	Line      PlotType = "line"
	Bar       PlotType = "bar"
	Histogram PlotType = "histogram"
)

// PlotTypes lists the supported plot types in display order.
var PlotTypes = []PlotType{Scatter, Line, Bar, Histogram}

// Valid reports whether t is a supported plot type.
func (t PlotType) Valid() bool {
	switch t {
	case Scatter, Line, Bar, Histogram:
		return true
	}
	return false
}

// RequiresY reports whether the plot type needs a y-axis column.
func (t PlotType) RequiresY() bool {
	return t == Scatter || t == Line
}

// ============================================================================
// PLOT REQUEST — What the caller wants drawn
// ============================================================================

// PlotRequest references a dataset by id and names the axes to plot.
// YAxis is required for Scatter and Line, optional for Bar (switches from
// count to mean) and ignored by Histogram.
type PlotRequest struct {
	DatasetID string   `json:"datasetId"`
	PlotType  PlotType `json:"plotType"`
	XAxis     string   `json:"xAxis"`
	YAxis     string   `json:"yAxis,omitempty"`
	Title     string   `json:"title,omitempty"`
	Filters   Filter   `json:"filters,omitempty"`
}

// DefaultTitle is used when a request carries no title.
func DefaultTitle(req PlotRequest) string {
	if req.YAxis != "" {
		return fmt.Sprintf("%s plot of %s vs %s", req.PlotType, req.XAxis, req.YAxis)
	}
	return fmt.Sprintf("%s plot of %s", req.PlotType, req.XAxis)
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// PlotPoint is one (x, y) output unit. X is a Number or a String, never Null.
type PlotPoint struct {
	X schema.Value `json:"x"`
	Y float64      `json:"y"`
}

// HistogramBins describes the binning used for a Histogram result.
type HistogramBins struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	BinWidth float64 `json:"binWidth"`
	BinCount int     `json:"binCount"`
}

// Result is the engine's output for one generation.
type Result struct {
	PlotSpecID       string         `json:"plotSpecId,omitempty"`
	PlotType         PlotType       `json:"plotType"`
	Points           []PlotPoint    `json:"points"`
	ContributingRows int            `json:"contributingRowCount"`
	Chart            *ChartConfig   `json:"chart,omitempty"`
	Bins             *HistogramBins `json:"bins,omitempty"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string      `json:"name"`
	Data  []PlotPoint `json:"data"`
	Color string      `json:"color,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a page of dataset rows ready for display.
type TableData struct {
	Columns   []TableColumn `json:"columns"`
	Rows      []schema.Row  `json:"rows"`
	Skip      int           `json:"skip"`
	Limit     int           `json:"limit"`
	TotalRows int           `json:"totalRows"`
}

// TableColumn defines a table column.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// ============================================================================
// STATS TYPES
// ============================================================================

// Stats summarises a whole dataset.
type Stats struct {
	TotalRows    int                    `json:"totalRows"`
	TotalColumns int                    `json:"totalColumns"`
	Columns      map[string]ColumnStats `json:"columns"`
}

// ColumnStats describes one column. The numeric fields are set only for
// Numeric columns with at least one value; Std needs two.
type ColumnStats struct {
	Type    schema.SemanticType `json:"type"`
	Missing int                 `json:"missing"`
	Unique  int                 `json:"unique"`
	Mean    *float64            `json:"mean,omitempty"`
	Std     *float64            `json:"std,omitempty"`
	Min     *float64            `json:"min,omitempty"`
	Max     *float64            `json:"max,omitempty"`
	Median  *float64            `json:"median,omitempty"`
}
