// Package service is the façade callers use: it ties parsing, type inference,
// the catalogs and the generation engine together, and adds logging and
// metrics around every operation.
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/catalog"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/helpers"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// Service implements the dataset and plot operations.
type Service struct {
	datasets *catalog.DatasetCatalog
	plots    *catalog.PlotCatalog

	cfg     *config
	log     logrus.FieldLogger
	metrics *metrics
	engine  []engine.Option
}

// New builds a Service over explicit catalogs.
func New(datasets *catalog.DatasetCatalog, plots *catalog.PlotCatalog, opts ...Option) (*Service, error) {
	cfg := applyOptions(opts)

	m := newMetrics()
	if cfg.registerer != nil {
		if err := m.register(cfg.registerer); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}

	return &Service{
		datasets: datasets,
		plots:    plots,
		cfg:      cfg,
		log:      cfg.logger,
		metrics:  m,
		engine:   append([]engine.Option{engine.WithLogger(cfg.logger)}, cfg.engine...),
	}, nil
}

// failed logs a failed operation once and returns err unchanged.
func (s *Service) failed(log logrus.FieldLogger, op string, err error) error {
	log.WithFields(logrus.Fields{
		"op":    op,
		"kind":  apperrors.KindOf(err).String(),
		"error": err,
	}).Debug("operation failed")
	return err
}

// ============================================================================
// DATASETS
// ============================================================================

// Ingest parses raw CSV bytes, infers column types and stores the dataset.
func (s *Service) Ingest(ctx context.Context, ownerID, name, description string, raw []byte) (ds catalog.Dataset, err error) {
	log := s.log.WithFields(logrus.Fields{"owner": ownerID, "name": name, "bytes": len(raw)})
	defer func() { s.metrics.observeIngest(ds.RowCount, err) }()

	if int64(len(raw)) > s.cfg.maxUploadBytes {
		return catalog.Dataset{}, s.failed(log, "ingest", apperrors.Validation("file too large"))
	}

	parsed, err := helpers.ParseCSV(raw, s.cfg.parse)
	if err != nil {
		return catalog.Dataset{}, s.failed(log, "ingest", err)
	}

	columns := schema.InferColumns(parsed.Headers, parsed.Rows)
	ds, err = s.datasets.Create(ctx, ownerID, name, description, columns, parsed.Rows,
		catalog.FileInfo{Size: int64(len(raw)), Type: "csv"})
	if err != nil {
		return catalog.Dataset{}, s.failed(log, "ingest", err)
	}

	log.WithFields(logrus.Fields{
		"dataset": ds.ID,
		"rows":    ds.RowCount,
		"columns": len(ds.Columns),
	}).Info("📥 dataset ingested")
	return ds, nil
}

// ListDatasets returns the owner's datasets, newest first.
func (s *Service) ListDatasets(ctx context.Context, ownerID string) ([]catalog.Dataset, error) {
	list, err := s.datasets.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, s.failed(s.log.WithField("owner", ownerID), "list_datasets", err)
	}
	return list, nil
}

// GetDataset returns one dataset's metadata.
func (s *Service) GetDataset(ctx context.Context, ownerID, datasetID string) (catalog.Dataset, error) {
	ds, err := s.datasets.Get(ctx, datasetID, ownerID)
	if err != nil {
		return catalog.Dataset{}, s.failed(s.log.WithFields(logrus.Fields{"owner": ownerID, "dataset": datasetID}), "get_dataset", err)
	}
	return ds, nil
}

// DeleteDataset removes a dataset and its rows. Saved plots that reference it
// are kept and fail with NotFound when regenerated.
func (s *Service) DeleteDataset(ctx context.Context, ownerID, datasetID string) error {
	log := s.log.WithFields(logrus.Fields{"owner": ownerID, "dataset": datasetID})
	if err := s.datasets.Delete(ctx, datasetID, ownerID); err != nil {
		return s.failed(log, "delete_dataset", err)
	}
	log.Info("🗑️ dataset deleted")
	return nil
}

// PreviewDataset returns a page of raw rows. limit defaults to
// DefaultPreviewLimit and is capped at MaxPreviewLimit.
func (s *Service) PreviewDataset(ctx context.Context, ownerID, datasetID string, skip, limit int) (*engine.TableData, error) {
	log := s.log.WithFields(logrus.Fields{"owner": ownerID, "dataset": datasetID})

	if skip < 0 {
		return nil, s.failed(log, "preview_dataset", apperrors.Validation("skip must not be negative"))
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		limit = MaxPreviewLimit
	}

	ds, err := s.datasets.Get(ctx, datasetID, ownerID)
	if err != nil {
		return nil, s.failed(log, "preview_dataset", err)
	}
	rows, err := s.datasets.Rows(ctx, datasetID, ownerID, nil)
	if err != nil {
		return nil, s.failed(log, "preview_dataset", err)
	}
	table, err := engine.BuildTable(ctx, ds.Columns, rows, skip, limit)
	if err != nil {
		return nil, s.failed(log, "preview_dataset", err)
	}
	return table, nil
}

// DatasetStats summarises every column of a dataset.
func (s *Service) DatasetStats(ctx context.Context, ownerID, datasetID string) (*engine.Stats, error) {
	log := s.log.WithFields(logrus.Fields{"owner": ownerID, "dataset": datasetID})

	ds, err := s.datasets.Get(ctx, datasetID, ownerID)
	if err != nil {
		return nil, s.failed(log, "dataset_stats", err)
	}
	rows, err := s.datasets.Rows(ctx, datasetID, ownerID, nil)
	if err != nil {
		return nil, s.failed(log, "dataset_stats", err)
	}
	stats, err := engine.BuildStats(ctx, ds.Columns, rows)
	if err != nil {
		return nil, s.failed(log, "dataset_stats", err)
	}
	return stats, nil
}

// ============================================================================
// PLOTS
// ============================================================================

// GeneratePlot validates and runs a plot request, then saves it as a spec.
func (s *Service) GeneratePlot(ctx context.Context, requesterID string, req engine.PlotRequest) (*engine.Result, error) {
	log := s.plotLogger(requesterID, req)

	result, req, err := s.generate(ctx, requesterID, req)
	if err != nil {
		return nil, s.failed(log, "generate_plot", err)
	}

	id, err := s.plots.Save(ctx, catalog.PlotSpec{
		DatasetID: req.DatasetID,
		PlotType:  req.PlotType,
		XAxis:     req.XAxis,
		YAxis:     req.YAxis,
		Title:     result.Chart.Title,
		Filters:   req.Filters,
		CreatedBy: requesterID,
	})
	if err != nil {
		return nil, s.failed(log, "generate_plot", err)
	}
	result.PlotSpecID = id

	log.WithFields(logrus.Fields{"plot": id, "points": len(result.Points)}).Info("📊 plot generated")
	return result, nil
}

// PreviewPlot runs a plot request without saving it.
func (s *Service) PreviewPlot(ctx context.Context, requesterID string, req engine.PlotRequest) (*engine.Result, error) {
	result, _, err := s.generate(ctx, requesterID, req)
	if err != nil {
		return nil, s.failed(s.plotLogger(requesterID, req), "preview_plot", err)
	}
	return result, nil
}

// RegeneratePlot re-runs a saved spec against the dataset's current state.
func (s *Service) RegeneratePlot(ctx context.Context, requesterID, plotID string) (*engine.Result, error) {
	log := s.log.WithFields(logrus.Fields{"requester": requesterID, "plot": plotID})

	spec, err := s.plots.Get(ctx, plotID, requesterID)
	if err != nil {
		return nil, s.failed(log, "regenerate_plot", err)
	}
	result, _, err := s.generate(ctx, requesterID, spec.Request())
	if err != nil {
		return nil, s.failed(log, "regenerate_plot", err)
	}
	result.PlotSpecID = spec.ID
	return result, nil
}

// ListPlots returns the requester's saved specs, newest first.
func (s *Service) ListPlots(ctx context.Context, requesterID string) ([]catalog.PlotSpec, error) {
	list, err := s.plots.ListForOwner(ctx, requesterID)
	if err != nil {
		return nil, s.failed(s.log.WithField("requester", requesterID), "list_plots", err)
	}
	return list, nil
}

// GetPlot returns one saved spec.
func (s *Service) GetPlot(ctx context.Context, requesterID, plotID string) (catalog.PlotSpec, error) {
	spec, err := s.plots.Get(ctx, plotID, requesterID)
	if err != nil {
		return catalog.PlotSpec{}, s.failed(s.log.WithFields(logrus.Fields{"requester": requesterID, "plot": plotID}), "get_plot", err)
	}
	return spec, nil
}

// UpdatePlot patches a saved spec. The patched spec is validated against the
// dataset before it is stored.
func (s *Service) UpdatePlot(ctx context.Context, requesterID, plotID string, patch catalog.PlotPatch) (catalog.PlotSpec, error) {
	log := s.log.WithFields(logrus.Fields{"requester": requesterID, "plot": plotID})

	if patch.Empty() {
		return catalog.PlotSpec{}, s.failed(log, "update_plot", apperrors.Validation("no fields to update"))
	}

	spec, err := s.plots.Update(ctx, plotID, requesterID, patch, func(updated *catalog.PlotSpec) error {
		ds, err := s.datasets.Get(ctx, updated.DatasetID, requesterID)
		if err != nil {
			return err
		}
		updated.Filters = updated.Filters.Coerce(ds.Columns)
		return engine.Validate(updated.Request(), ds.Columns)
	})
	if err != nil {
		return catalog.PlotSpec{}, s.failed(log, "update_plot", err)
	}

	log.Info("✏️ plot updated")
	return spec, nil
}

// DeletePlot removes a saved spec.
func (s *Service) DeletePlot(ctx context.Context, requesterID, plotID string) error {
	log := s.log.WithFields(logrus.Fields{"requester": requesterID, "plot": plotID})
	if err := s.plots.Delete(ctx, plotID, requesterID); err != nil {
		return s.failed(log, "delete_plot", err)
	}
	log.Info("🗑️ plot deleted")
	return nil
}

// generate resolves the dataset, aligns filter values with column types,
// validates, and runs the engine. It returns the request as it was run.
func (s *Service) generate(ctx context.Context, requesterID string, req engine.PlotRequest) (result *engine.Result, _ engine.PlotRequest, err error) {
	start := time.Now()
	defer func() { s.metrics.observeGeneration(req.PlotType, start, err) }()

	ds, err := s.datasets.Get(ctx, req.DatasetID, requesterID)
	if err != nil {
		return nil, req, err
	}

	req.Filters = req.Filters.Coerce(ds.Columns)
	if err = engine.Validate(req, ds.Columns); err != nil {
		return nil, req, err
	}

	rows, err := s.datasets.Rows(ctx, req.DatasetID, requesterID, req.Filters)
	if err != nil {
		return nil, req, err
	}

	result, err = engine.Generate(ctx, req, ds.Columns, rows, s.engine...)
	return result, req, err
}

func (s *Service) plotLogger(requesterID string, req engine.PlotRequest) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"requester": requesterID,
		"dataset":   req.DatasetID,
		"plot_type": req.PlotType,
	})
}
