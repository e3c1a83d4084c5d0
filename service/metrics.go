package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mishradev1/Dev-PlotTest/engine"
)

type metrics struct {
	// Ingestion
	datasetsIngested *prometheus.CounterVec
	rowsIngested     prometheus.Counter

	// Generation
	plotsGenerated     *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		datasetsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plotdata_datasets_ingested_total",
			Help: "Total number of dataset uploads by outcome",
		}, []string{"status"}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plotdata_ingested_rows_total",
			Help: "Total number of rows stored by successful uploads",
		}),
		plotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plotdata_plots_generated_total",
			Help: "Total number of plot generations by plot type and outcome",
		}, []string{"plot_type", "status"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plotdata_plot_generation_duration_seconds",
			Help:    "Time spent generating plot data",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"plot_type"}),
	}
}

// register adds the collectors to reg. When a collector is already there,
// the registered one is adopted so every Service on reg reports into it.
func (m *metrics) register(reg prometheus.Registerer) error {
	var err error
	if m.datasetsIngested, err = registerOrExisting(reg, m.datasetsIngested); err != nil {
		return err
	}
	if m.rowsIngested, err = registerOrExisting(reg, m.rowsIngested); err != nil {
		return err
	}
	if m.plotsGenerated, err = registerOrExisting(reg, m.plotsGenerated); err != nil {
		return err
	}
	if m.generationDuration, err = registerOrExisting(reg, m.generationDuration); err != nil {
		return err
	}
	return nil
}

func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// plotTypeLabel keeps label cardinality bounded for unsupported types.
func plotTypeLabel(t engine.PlotType) string {
	if !t.Valid() {
		return "invalid"
	}
	return string(t)
}

func (m *metrics) observeIngest(rows int, err error) {
	m.datasetsIngested.WithLabelValues(statusLabel(err)).Inc()
	if err == nil {
		m.rowsIngested.Add(float64(rows))
	}
}

func (m *metrics) observeGeneration(t engine.PlotType, start time.Time, err error) {
	label := plotTypeLabel(t)
	m.plotsGenerated.WithLabelValues(label, statusLabel(err)).Inc()
	m.generationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
