// Package catalog persists datasets, their rows and plot specs, and enforces
// ownership on every read. Storage is pluggable through Store; BoltStore is the
// durable binding and MemoryStore backs the CLI and tests.
package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ErrNotFound is returned by stores for absent datasets or plots.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when a store already holds an id.
var ErrExists = errors.New("already exists")

// Filter is the equality predicate applied to dataset rows.
type Filter = engine.Filter

// Dataset is the metadata of an ingested file. Rows live beside it in the
// store and are never part of this struct.
type Dataset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Columns     schema.Columns `json:"columns"`
	RowCount    int            `json:"rowCount"`
	OwnerID     string         `json:"ownerId"`
	FileSize    int64          `json:"fileSize"`
	FileType    string         `json:"fileType"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// PlotSpec is a saved plot request. Data is regenerated on demand.
type PlotSpec struct {
	ID        string          `json:"id"`
	DatasetID string          `json:"datasetId"`
	PlotType  engine.PlotType `json:"plotType"`
	XAxis     string          `json:"xAxis"`
	YAxis     string          `json:"yAxis,omitempty"`
	Title     string          `json:"title"`
	Filters   Filter          `json:"filters,omitempty"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Request rebuilds the plot request a spec was saved from.
func (p PlotSpec) Request() engine.PlotRequest {
	return engine.PlotRequest{
		DatasetID: p.DatasetID,
		PlotType:  p.PlotType,
		XAxis:     p.XAxis,
		YAxis:     p.YAxis,
		Title:     p.Title,
		Filters:   p.Filters,
	}
}

// Store is the key-value contract the catalogs sit on. Datasets, rows and
// plot specs are independent collections; only PutDataset and DeleteDataset
// touch two of them, and both do so atomically.
type Store interface {
	// PutDataset writes metadata and rows in one transaction.
	PutDataset(ctx context.Context, ds Dataset, rows []schema.Row) error
	GetDataset(ctx context.Context, id string) (Dataset, error)
	ListDatasets(ctx context.Context, ownerID string) ([]Dataset, error)
	// ScanRows calls fn for each row in storage order from a consistent
	// snapshot. A concurrent delete does not affect a running scan.
	ScanRows(ctx context.Context, id string, fn func(schema.Row) error) error
	// DeleteDataset removes metadata and rows together.
	DeleteDataset(ctx context.Context, id string) error

	PutPlot(ctx context.Context, spec PlotSpec) error
	GetPlot(ctx context.Context, id string) (PlotSpec, error)
	ListPlots(ctx context.Context, ownerID string) ([]PlotSpec, error)
	DeletePlot(ctx context.Context, id string) error

	Close() error
}

// newerDataset orders newest first, ties broken by id descending.
func newerDataset(a, b Dataset) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func newerPlot(a, b PlotSpec) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func copyFilter(f Filter) Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
