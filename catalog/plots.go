package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/engine"
)

// PlotCatalog stores plot specs. It never stores generated data.
type PlotCatalog struct {
	store Store
	opts  *options

	// serializes read-modify-write in Update
	mu sync.Mutex
}

// NewPlotCatalog wraps a store.
func NewPlotCatalog(store Store, opts ...Option) *PlotCatalog {
	return &PlotCatalog{store: store, opts: applyOptions(opts)}
}

// Save assigns an id and timestamps and persists the spec.
func (c *PlotCatalog) Save(ctx context.Context, spec PlotSpec) (string, error) {
	if spec.ID == "" {
		spec.ID = c.opts.newID()
	}
	now := c.opts.now()
	spec.CreatedAt = now
	spec.UpdatedAt = now
	spec.Filters = copyFilter(spec.Filters)

	if err := c.store.PutPlot(ctx, spec); err != nil {
		return "", errors.Wrap(err, "store plot")
	}
	return spec.ID, nil
}

// Get returns a spec if requesterID created it.
func (c *PlotCatalog) Get(ctx context.Context, id, requesterID string) (PlotSpec, error) {
	spec, err := c.store.GetPlot(ctx, id)
	if err != nil {
		return PlotSpec{}, storeError(err, "plot", id)
	}
	if spec.CreatedBy != requesterID {
		return PlotSpec{}, apperrors.Forbidden("access to plot %s denied", id)
	}
	return spec, nil
}

// ListForOwner returns the owner's specs, newest first.
func (c *PlotCatalog) ListForOwner(ctx context.Context, ownerID string) ([]PlotSpec, error) {
	list, err := c.store.ListPlots(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list plots")
	}
	sort.SliceStable(list, func(i, j int) bool { return newerPlot(list[i], list[j]) })
	if list == nil {
		list = []PlotSpec{}
	}
	return list, nil
}

// PlotPatch lists the fields Update may change. Nil fields are left alone;
// an empty YAxis clears the y-axis.
type PlotPatch struct {
	Title    *string          `json:"title,omitempty"`
	PlotType *engine.PlotType `json:"plotType,omitempty"`
	XAxis    *string          `json:"xAxis,omitempty"`
	YAxis    *string          `json:"yAxis,omitempty"`
	Filters  *Filter          `json:"filters,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PlotPatch) Empty() bool {
	return p.Title == nil && p.PlotType == nil && p.XAxis == nil && p.YAxis == nil && p.Filters == nil
}

// Apply returns spec with the patch applied.
func (p PlotPatch) Apply(spec PlotSpec) PlotSpec {
	if p.Title != nil {
		spec.Title = strings.TrimSpace(*p.Title)
	}
	if p.PlotType != nil {
		spec.PlotType = *p.PlotType
	}
	if p.XAxis != nil {
		spec.XAxis = *p.XAxis
	}
	if p.YAxis != nil {
		spec.YAxis = *p.YAxis
	}
	if p.Filters != nil {
		spec.Filters = copyFilter(*p.Filters)
	}
	return spec
}

// Update applies patch to a spec owned by requesterID. Every check must pass
// on the patched spec before it is saved; checks may normalize it.
func (c *PlotCatalog) Update(ctx context.Context, id, requesterID string, patch PlotPatch, checks ...func(*PlotSpec) error) (PlotSpec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	spec, err := c.Get(ctx, id, requesterID)
	if err != nil {
		return PlotSpec{}, err
	}

	updated := patch.Apply(spec)
	for _, check := range checks {
		if err := check(&updated); err != nil {
			return PlotSpec{}, err
		}
	}

	updated.UpdatedAt = c.opts.now()
	if err := c.store.PutPlot(ctx, updated); err != nil {
		return PlotSpec{}, errors.Wrap(err, "store plot")
	}
	return updated, nil
}

// Delete removes a spec owned by requesterID.
func (c *PlotCatalog) Delete(ctx context.Context, id, requesterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.Get(ctx, id, requesterID); err != nil {
		return err
	}
	if err := c.store.DeletePlot(ctx, id); err != nil {
		return storeError(err, "plot", id)
	}
	return nil
}
