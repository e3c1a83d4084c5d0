package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// openOutput returns stdout, or path when set. The close func is always safe to call.
func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create output file")
	}
	return f, func() { _ = f.Close() }, nil
}

// datasetName derives a dataset name from a file path: "data/sales.csv" → "sales".
func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ============================================================================
// CSV OUTPUT — Points as two columns, ready for Sheets
// ============================================================================

func writeCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)

	xLabel, yLabel := "x", "y"
	if result.Chart != nil {
		if result.Chart.XAxis != "" {
			xLabel = result.Chart.XAxis
		}
		if result.Chart.YAxis != "" {
			yLabel = result.Chart.YAxis
		}
	}

	if err := cw.Write([]string{xLabel, yLabel}); err != nil {
		return err
	}
	for _, p := range result.Points {
		x := p.X.String()
		if f, ok := p.X.Float(); ok {
			x = fmtNum(f)
		}
		if err := cw.Write([]string{x, fmtNum(p.Y)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// fmtNum prints whole numbers without decimals and everything else with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", engine.RoundTo2(v))
}
