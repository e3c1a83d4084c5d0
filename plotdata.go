// Package plotdata ingests delimited tabular files and turns them into
// render-ready plot data.
//
// Usage:
//
//	store := catalog.NewMemoryStore()
//	datasets, _ := catalog.NewDatasetCatalog(store)
//	svc, _ := service.New(datasets, catalog.NewPlotCatalog(store))
//
//	ds, err := svc.Ingest(ctx, "alice", "sales", "", raw)
//	result, err := svc.GeneratePlot(ctx, "alice", engine.PlotRequest{
//	    DatasetID: ds.ID,
//	    PlotType:  engine.Bar,
//	    XAxis:     "region",
//	    YAxis:     "revenue",
//	})
//
// Columns are typed once at ingestion. The engine reads rows through a
// restartable engine.RowSeq and never touches storage itself; the catalogs
// own persistence (bbolt or in-memory) and ownership checks.
package plotdata
