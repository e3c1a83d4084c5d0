package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/service"
)

func newPlotCmd(a *app) *cobra.Command {
	var (
		file, plotType, x, y, title string
		format, out                 string
		filters                     []string
		maxBins                     int
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Generate plot data from a CSV file",
		Example: `  plotdata plot --file sales.csv --type bar --x region --y revenue --format csv
  plotdata plot --file sales.csv --type histogram --x revenue --filter region=North
  plotdata plot --file sales.csv --type line --x month --y units --out line.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "json", "pretty", "csv":
			default:
				return errors.Errorf("unknown format %q", format)
			}

			filter, err := engine.ParseFilterArgs(filters)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(a.out, out)
			if err != nil {
				return err
			}
			defer closeOut()

			ds, svc, err := ingestOnce(cmd.Context(), a, file,
				service.WithEngineOptions(engine.WithMaxBins(maxBins)))
			if err != nil {
				return err
			}

			req := engine.PlotRequest{
				DatasetID: ds.ID,
				PlotType:  engine.PlotType(plotType),
				XAxis:     x,
				YAxis:     y,
				Title:     title,
				Filters:   filter,
			}
			result, err := svc.PreviewPlot(cmd.Context(), cliOwner, req)
			if err != nil {
				return err
			}
			a.log.Infof("📊 %s: %d points from %d rows", result.PlotType, len(result.Points), result.ContributingRows)

			if format == "csv" {
				return writeCSV(w, result)
			}
			return writeJSON(w, result, format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&file, "file", "", "Path to CSV data file (required)")
	f.StringVar(&plotType, "type", "", "Plot type: scatter, line, bar, histogram (required)")
	f.StringVar(&x, "x", "", "X-axis column (required)")
	f.StringVar(&y, "y", "", "Y-axis column; required for scatter and line, switches bar to averages")
	f.StringVar(&title, "title", "", "Chart title")
	f.StringArrayVar(&filters, "filter", nil, "Equality filter col=value, repeatable")
	f.IntVar(&maxBins, "max-bins", engine.DefaultMaxBins, "Upper bound on histogram bins")
	f.StringVar(&format, "format", "json", "Output format: json, pretty, csv")
	f.StringVar(&out, "out", "", "Write output to file instead of stdout")
	for _, name := range []string{"file", "type", "x"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
