package catalog

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// MemoryStore is a Store held in process memory. Row slices are never
// mutated after PutDataset, so a scan keeps reading its own slice even if the
// dataset is deleted meanwhile.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
	rows     map[string][]schema.Row
	plots    map[string]PlotSpec
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]Dataset),
		rows:     make(map[string][]schema.Row),
		plots:    make(map[string]PlotSpec),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) PutDataset(ctx context.Context, ds Dataset, rows []schema.Row) error {
	// Copy so later caller writes cannot reach stored rows.
	owned := make([]schema.Row, len(rows))
	for i, row := range rows {
		owned[i] = append(schema.Row(nil), row...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[ds.ID]; ok {
		return errors.Wrapf(ErrExists, "dataset %s", ds.ID)
	}
	s.datasets[ds.ID] = ds
	s.rows[ds.ID] = owned
	return nil
}

func (s *MemoryStore) GetDataset(ctx context.Context, id string) (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (s *MemoryStore) ListDatasets(ctx context.Context, ownerID string) ([]Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Dataset
	for _, ds := range s.datasets {
		if ds.OwnerID == ownerID {
			out = append(out, ds)
		}
	}
	return out, nil
}

func (s *MemoryStore) ScanRows(ctx context.Context, id string, fn func(schema.Row) error) error {
	s.mu.RLock()
	rows, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) DeleteDataset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(s.datasets, id)
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) PutPlot(ctx context.Context, spec PlotSpec) error {
	spec.Filters = copyFilter(spec.Filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plots[spec.ID] = spec
	return nil
}

func (s *MemoryStore) GetPlot(ctx context.Context, id string) (PlotSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.plots[id]
	if !ok {
		return PlotSpec{}, ErrNotFound
	}
	spec.Filters = copyFilter(spec.Filters)
	return spec, nil
}

func (s *MemoryStore) ListPlots(ctx context.Context, ownerID string) ([]PlotSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PlotSpec
	for _, spec := range s.plots {
		if spec.CreatedBy == ownerID {
			out = append(out, spec)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeletePlot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plots[id]; !ok {
		return ErrNotFound
	}
	delete(s.plots, id)
	return nil
}
