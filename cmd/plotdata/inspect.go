package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mishradev1/Dev-PlotTest/catalog"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/schema"
	"github.com/mishradev1/Dev-PlotTest/service"
)

// cliOwner owns datasets ingested by one-shot commands.
const cliOwner = "cli"

type inspectOutput struct {
	Dataset string                        `json:"dataset"`
	Rows    int                           `json:"rows"`
	Columns schema.Columns                `json:"columns"`
	Stats   map[string]engine.ColumnStats `json:"stats"`
}

func newInspectCmd(a *app) *cobra.Command {
	var file, format, out string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the inferred columns and statistics of a CSV file",
		Example: `  plotdata inspect --file sales.csv
  plotdata inspect --file sales.csv --format json --out columns.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, closeOut, err := openOutput(a.out, out)
			if err != nil {
				return err
			}
			defer closeOut()

			ds, svc, err := ingestOnce(cmd.Context(), a, file)
			if err != nil {
				return err
			}
			a.log.Infof("🔍 Inferred %d columns over %d rows", len(ds.Columns), ds.RowCount)

			stats, err := svc.DatasetStats(cmd.Context(), cliOwner, ds.ID)
			if err != nil {
				return err
			}
			if format == "pretty" {
				roundStats(stats)
			}
			return writeJSON(w, inspectOutput{
				Dataset: ds.Name,
				Rows:    ds.RowCount,
				Columns: ds.Columns,
				Stats:   stats.Columns,
			}, format)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to CSV data file (required)")
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format: json, pretty")
	cmd.Flags().StringVar(&out, "out", "", "Write output to file instead of stdout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// ingestOnce loads file into a throwaway memory store.
func ingestOnce(ctx context.Context, a *app, file string, extra ...service.Option) (catalog.Dataset, *service.Service, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return catalog.Dataset{}, nil, errors.Wrap(err, "read file")
	}

	svc, err := newService(a.cfg, catalog.NewMemoryStore(), a.log, nil, extra...)
	if err != nil {
		return catalog.Dataset{}, nil, err
	}
	ds, err := svc.Ingest(ctx, cliOwner, datasetName(file), "", raw)
	if err != nil {
		return catalog.Dataset{}, nil, err
	}
	return ds, svc, nil
}

func roundStats(stats *engine.Stats) {
	for name, cs := range stats.Columns {
		for _, p := range []*float64{cs.Mean, cs.Std, cs.Min, cs.Max, cs.Median} {
			if p != nil {
				*p = engine.RoundTo2(*p)
			}
		}
		stats.Columns[name] = cs
	}
}
