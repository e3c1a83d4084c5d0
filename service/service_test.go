package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/catalog"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

const ordersCSV = `order_id,region,amount,status
1,North,120.5,shipped
2,South,80,pending
3,North,42,shipped
4,East,NA,cancelled
5,South,15.25,shipped
`

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	store := catalog.NewMemoryStore()
	datasets, err := catalog.NewDatasetCatalog(store)
	require.NoError(t, err)
	svc, err := New(datasets, catalog.NewPlotCatalog(store), opts...)
	require.NoError(t, err)
	return svc
}

func ingest(t *testing.T, svc *Service, owner string) catalog.Dataset {
	t.Helper()
	ds, err := svc.Ingest(context.Background(), owner, "orders", "q1", []byte(ordersCSV))
	require.NoError(t, err)
	return ds
}

// ============================================================================
// DATASETS
// ============================================================================

func TestIngestThenList(t *testing.T) {
	svc := newService(t)
	ds := ingest(t, svc, "alice")

	assert.Equal(t, 5, ds.RowCount)
	assert.Equal(t, []string{"order_id", "region", "amount", "status"}, ds.Columns.Names())
	assert.Equal(t, int64(len(ordersCSV)), ds.FileSize)

	amount, ok := ds.Columns.Lookup("amount")
	require.True(t, ok)
	assert.Equal(t, schema.Numeric, amount.Type)
	assert.Equal(t, 1, amount.NullCount)

	region, _ := ds.Columns.Lookup("region")
	assert.Equal(t, schema.Categorical, region.Type)

	list, err := svc.ListDatasets(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)

	others, err := svc.ListDatasets(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestIngestRejectsLargeUpload(t *testing.T) {
	svc := newService(t, WithMaxUploadBytes(16))

	_, err := svc.Ingest(context.Background(), "alice", "orders", "", []byte(ordersCSV))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "file too large", apperrors.Message(err))
}

func TestIngestParseErrorCarriesLine(t *testing.T) {
	svc := newService(t)

	_, err := svc.Ingest(context.Background(), "alice", "bad", "", []byte("a,b\n1,2\n3,\"oops\n"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindParse))
	assert.Equal(t, 3, apperrors.LineOf(err))

	list, err := svc.ListDatasets(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIngestCustomNullTokens(t *testing.T) {
	svc := newService(t, WithNullTokens([]string{"", "missing"}))

	ds, err := svc.Ingest(context.Background(), "alice", "n", "", []byte("v\n1\nmissing\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, schema.Numeric, ds.Columns[0].Type)
	assert.Equal(t, 1, ds.Columns[0].NullCount)
}

func TestDatasetAccess(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	_, err := svc.GetDataset(ctx, "bob", ds.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	assert.True(t, apperrors.Is(svc.DeleteDataset(ctx, "bob", ds.ID), apperrors.KindForbidden))

	require.NoError(t, svc.DeleteDataset(ctx, "alice", ds.ID))
	assert.True(t, apperrors.Is(svc.DeleteDataset(ctx, "alice", ds.ID), apperrors.KindNotFound))

	_, err = svc.GetDataset(ctx, "alice", ds.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestPreviewDataset(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	table, err := svc.PreviewDataset(ctx, "alice", ds.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, table.TotalRows)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, schema.NumberValue(2), table.Rows[0][0])
	assert.Len(t, table.Columns, 4)

	table, err = svc.PreviewDataset(ctx, "alice", ds.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreviewLimit, table.Limit)
	assert.Len(t, table.Rows, 5)

	table, err = svc.PreviewDataset(ctx, "alice", ds.ID, 0, MaxPreviewLimit+1)
	require.NoError(t, err)
	assert.Equal(t, MaxPreviewLimit, table.Limit)

	_, err = svc.PreviewDataset(ctx, "alice", ds.ID, -1, 10)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestDatasetStats(t *testing.T) {
	svc := newService(t)
	ds := ingest(t, svc, "alice")

	stats, err := svc.DatasetStats(context.Background(), "alice", ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalRows)
	assert.Equal(t, 4, stats.TotalColumns)

	amount := stats.Columns["amount"]
	assert.Equal(t, 1, amount.Missing)
	require.NotNil(t, amount.Mean)
	assert.InDelta(t, (120.5+80+42+15.25)/4, *amount.Mean, 1e-9)
	require.NotNil(t, amount.Median)
	assert.InDelta(t, 61, *amount.Median, 1e-9)

	assert.Nil(t, stats.Columns["region"].Mean)
}

// ============================================================================
// PLOTS
// ============================================================================

func TestGeneratePlotPersistsSpec(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	result, err := svc.GeneratePlot(ctx, "alice", engine.PlotRequest{
		DatasetID: ds.ID,
		PlotType:  engine.Bar,
		XAxis:     "region",
		YAxis:     "amount",
		Filters:   engine.Filter{"status": schema.StringValue("shipped")},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.PlotSpecID)
	assert.Equal(t, 3, result.ContributingRows)
	require.Len(t, result.Points, 2)
	assert.Equal(t, schema.StringValue("North"), result.Points[0].X)
	assert.InDelta(t, 81.25, result.Points[0].Y, 1e-9)
	assert.Equal(t, schema.StringValue("South"), result.Points[1].X)
	assert.InDelta(t, 15.25, result.Points[1].Y, 1e-9)

	spec, err := svc.GetPlot(ctx, "alice", result.PlotSpecID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, spec.DatasetID)
	assert.Equal(t, "bar plot of region vs amount", spec.Title)
	assert.Equal(t, engine.Filter{"status": schema.StringValue("shipped")}, spec.Filters)

	again, err := svc.RegeneratePlot(ctx, "alice", spec.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Points, again.Points)
	assert.Equal(t, spec.ID, again.PlotSpecID)

	_, err = svc.GetPlot(ctx, "bob", spec.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestGeneratePlotCoercesNumericFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	result, err := svc.GeneratePlot(ctx, "alice", engine.PlotRequest{
		DatasetID: ds.ID,
		PlotType:  engine.Bar,
		XAxis:     "region",
		Filters:   engine.Filter{"amount": schema.StringValue("80")},
	})
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
	assert.Equal(t, schema.StringValue("South"), result.Points[0].X)

	spec, err := svc.GetPlot(ctx, "alice", result.PlotSpecID)
	require.NoError(t, err)
	assert.Equal(t, schema.NumberValue(80), spec.Filters["amount"])
}

func TestPreviewPlotDoesNotPersist(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	result, err := svc.PreviewPlot(ctx, "alice", engine.PlotRequest{
		DatasetID: ds.ID,
		PlotType:  engine.Histogram,
		XAxis:     "amount",
	})
	require.NoError(t, err)
	assert.Empty(t, result.PlotSpecID)
	assert.Equal(t, 4, result.ContributingRows)
	require.NotNil(t, result.Bins)

	plots, err := svc.ListPlots(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, plots)
}

func TestGeneratePlotErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	tests := []struct {
		name    string
		who     string
		req     engine.PlotRequest
		kind    apperrors.Kind
		message string
	}{
		{
			name: "missing dataset",
			who:  "alice",
			req:  engine.PlotRequest{DatasetID: "nope", PlotType: engine.Bar, XAxis: "region"},
			kind: apperrors.KindNotFound,
		},
		{
			name: "other owner",
			who:  "bob",
			req:  engine.PlotRequest{DatasetID: ds.ID, PlotType: engine.Bar, XAxis: "region"},
			kind: apperrors.KindForbidden,
		},
		{
			name:    "unknown column",
			who:     "alice",
			req:     engine.PlotRequest{DatasetID: ds.ID, PlotType: engine.Bar, XAxis: "nope"},
			kind:    apperrors.KindValidation,
			message: "unknown x-axis column",
		},
		{
			name:    "scatter without y",
			who:     "alice",
			req:     engine.PlotRequest{DatasetID: ds.ID, PlotType: engine.Scatter, XAxis: "amount"},
			kind:    apperrors.KindValidation,
			message: "y-axis required",
		},
		{
			name:    "histogram on text",
			who:     "alice",
			req:     engine.PlotRequest{DatasetID: ds.ID, PlotType: engine.Histogram, XAxis: "region"},
			kind:    apperrors.KindValidation,
			message: "histogram requires numeric column",
		},
		{
			name: "filter matches nothing",
			who:  "alice",
			req: engine.PlotRequest{
				DatasetID: ds.ID, PlotType: engine.Bar, XAxis: "region",
				Filters: engine.Filter{"status": schema.StringValue("lost")},
			},
			kind:    apperrors.KindValidation,
			message: "no data for the specified criteria",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GeneratePlot(ctx, tt.who, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, apperrors.Message(err))
			}
		})
	}

	plots, err := svc.ListPlots(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, plots)
}

func TestDeletedDatasetRegeneratesNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	result, err := svc.GeneratePlot(ctx, "alice", engine.PlotRequest{
		DatasetID: ds.ID, PlotType: engine.Scatter, XAxis: "order_id", YAxis: "amount",
	})
	require.NoError(t, err)
	assert.Len(t, result.Points, 4)

	require.NoError(t, svc.DeleteDataset(ctx, "alice", ds.ID))

	_, err = svc.RegeneratePlot(ctx, "alice", result.PlotSpecID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	// the spec itself survives
	_, err = svc.GetPlot(ctx, "alice", result.PlotSpecID)
	assert.NoError(t, err)
}

func TestUpdatePlot(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	ds := ingest(t, svc, "alice")

	result, err := svc.GeneratePlot(ctx, "alice", engine.PlotRequest{
		DatasetID: ds.ID, PlotType: engine.Bar, XAxis: "region",
	})
	require.NoError(t, err)
	id := result.PlotSpecID

	_, err = svc.UpdatePlot(ctx, "alice", id, catalog.PlotPatch{})
	assert.Equal(t, "no fields to update", apperrors.Message(err))

	histogram := engine.Histogram
	_, err = svc.UpdatePlot(ctx, "alice", id, catalog.PlotPatch{PlotType: &histogram})
	assert.Equal(t, "histogram requires numeric column", apperrors.Message(err))

	title := "  Orders by region  "
	filters := engine.Filter{"order_id": schema.StringValue("2")}
	spec, err := svc.UpdatePlot(ctx, "alice", id, catalog.PlotPatch{Title: &title, Filters: &filters})
	require.NoError(t, err)
	assert.Equal(t, "Orders by region", spec.Title)
	assert.Equal(t, schema.NumberValue(2), spec.Filters["order_id"])

	regenerated, err := svc.RegeneratePlot(ctx, "alice", id)
	require.NoError(t, err)
	require.Len(t, regenerated.Points, 1)
	assert.Equal(t, "Orders by region", regenerated.Chart.Title)

	_, err = svc.UpdatePlot(ctx, "bob", id, catalog.PlotPatch{Title: &title})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	require.NoError(t, svc.DeletePlot(ctx, "alice", id))
	assert.True(t, apperrors.Is(svc.DeletePlot(ctx, "alice", id), apperrors.KindNotFound))
}

// ============================================================================
// METRICS
// ============================================================================

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newService(t, WithRegisterer(reg))
	// a second service on the same registry reports into the same collectors
	second := newService(t, WithRegisterer(reg))
	assert.Same(t, svc.metrics.rowsIngested, second.metrics.rowsIngested)
	assert.Same(t, svc.metrics.plotsGenerated, second.metrics.plotsGenerated)

	ctx := context.Background()
	ds := ingest(t, svc, "alice")
	ingest(t, second, "bob")
	_, err := svc.Ingest(ctx, "alice", "bad", "", []byte(""))
	require.Error(t, err)

	_, err = svc.PreviewPlot(ctx, "alice", engine.PlotRequest{DatasetID: ds.ID, PlotType: engine.Bar, XAxis: "region"})
	require.NoError(t, err)
	_, err = svc.PreviewPlot(ctx, "alice", engine.PlotRequest{DatasetID: ds.ID, PlotType: "pie", XAxis: "region"})
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(svc.metrics.datasetsIngested.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.datasetsIngested.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.plotsGenerated.WithLabelValues("bar", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.plotsGenerated.WithLabelValues("invalid", "error")))

	expected := `
# HELP plotdata_ingested_rows_total Total number of rows stored by successful uploads
# TYPE plotdata_ingested_rows_total counter
plotdata_ingested_rows_total 10
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "plotdata_ingested_rows_total"))
}
