package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// DATASET CATALOG — Ownership-checked access to datasets and their rows
// ============================================================================
// Metadata reads go through an LRU cache. The catalog lock orders cache fills
// (read lock) against deletes (write lock), so a deleted dataset is never
// served from cache.
// ============================================================================

// DefaultCacheSize is the number of dataset metadata entries kept in memory.
const DefaultCacheSize = 256

// Option configures a catalog.
type Option func(*options)

type options struct {
	cacheSize int
	now       func() time.Time
	newID     func() string
}

// WithCacheSize sets the metadata cache size. Values below 1 use the default.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.cacheSize = n
		}
	}
}

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func applyOptions(opts []Option) *options {
	o := &options{
		cacheSize: DefaultCacheSize,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DatasetCatalog owns dataset metadata and rows.
type DatasetCatalog struct {
	store Store
	opts  *options

	mu    sync.RWMutex
	cache *lru.Cache[string, Dataset]
}

// NewDatasetCatalog wraps a store.
func NewDatasetCatalog(store Store, opts ...Option) (*DatasetCatalog, error) {
	o := applyOptions(opts)
	cache, err := lru.New[string, Dataset](o.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create dataset cache")
	}
	return &DatasetCatalog{store: store, opts: o, cache: cache}, nil
}

// FileInfo describes the uploaded file a dataset came from.
type FileInfo struct {
	Size int64
	Type string
}

// Create persists a dataset and its rows atomically.
func (c *DatasetCatalog) Create(ctx context.Context, ownerID, name, description string, columns schema.Columns, rows []schema.Row, file ...FileInfo) (Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Dataset{}, apperrors.Validation("dataset name is required")
	}
	if len(columns) == 0 {
		return Dataset{}, apperrors.Validation("dataset has no columns")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return Dataset{}, apperrors.Validationf("row %d has %d values, expected %d", i+1, len(row), len(columns))
		}
	}

	ds := Dataset{
		ID:          c.opts.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Columns:     columns,
		RowCount:    len(rows),
		OwnerID:     ownerID,
		FileType:    "csv",
		CreatedAt:   c.opts.now(),
	}
	if len(file) > 0 {
		ds.FileSize = file[0].Size
		if file[0].Type != "" {
			ds.FileType = file[0].Type
		}
	}

	if err := c.store.PutDataset(ctx, ds, rows); err != nil {
		return Dataset{}, errors.Wrap(err, "store dataset")
	}
	return ds, nil
}

// Get returns a dataset's metadata if requesterID owns it.
func (c *DatasetCatalog) Get(ctx context.Context, id, requesterID string) (Dataset, error) {
	ds, err := c.lookup(ctx, id)
	if err != nil {
		return Dataset{}, err
	}
	if ds.OwnerID != requesterID {
		return Dataset{}, apperrors.Forbidden("access to dataset %s denied", id)
	}
	return ds, nil
}

func (c *DatasetCatalog) lookup(ctx context.Context, id string) (Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if ds, ok := c.cache.Get(id); ok {
		return ds, nil
	}
	ds, err := c.store.GetDataset(ctx, id)
	if err != nil {
		return Dataset{}, storeError(err, "dataset", id)
	}
	c.cache.Add(id, ds)
	return ds, nil
}

// ListForOwner returns the owner's datasets, newest first.
func (c *DatasetCatalog) ListForOwner(ctx context.Context, ownerID string) ([]Dataset, error) {
	list, err := c.store.ListDatasets(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list datasets")
	}
	sort.SliceStable(list, func(i, j int) bool { return newerDataset(list[i], list[j]) })
	if list == nil {
		list = []Dataset{}
	}
	return list, nil
}

// Rows returns the dataset's rows matching filter as a lazy, restartable
// sequence. Each iteration re-scans the store.
func (c *DatasetCatalog) Rows(ctx context.Context, id, requesterID string, filter Filter) (engine.RowSeq, error) {
	ds, err := c.Get(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if err := filter.Check(ds.Columns); err != nil {
		return nil, err
	}
	return engine.Filtered(&storeRows{store: c.store, id: id}, filter, ds.Columns), nil
}

// Delete removes a dataset and its rows.
func (c *DatasetCatalog) Delete(ctx context.Context, id, requesterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, err := c.store.GetDataset(ctx, id)
	if err != nil {
		return storeError(err, "dataset", id)
	}
	if ds.OwnerID != requesterID {
		return apperrors.Forbidden("access to dataset %s denied", id)
	}
	if err := c.store.DeleteDataset(ctx, id); err != nil {
		return storeError(err, "dataset", id)
	}
	c.cache.Remove(id)
	return nil
}

// ============================================================================
// STORE ROWS — RowSeq backed by Store.ScanRows
// ============================================================================

type storeRows struct {
	store Store
	id    string
}

func (r *storeRows) Each(ctx context.Context, fn func(schema.Row) error) error {
	err := r.store.ScanRows(ctx, r.id, fn)
	switch {
	case err == nil, errors.Is(err, engine.ErrStop):
		return nil
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFound("dataset %s not found", r.id)
	default:
		return err
	}
}

// storeError maps store sentinels onto the error taxonomy.
func storeError(err error, kind, id string) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("%s %s not found", kind, id)
	}
	return errors.Wrapf(err, "%s %s", kind, id)
}
