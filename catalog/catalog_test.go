package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

var (
	num = schema.NumberValue
	str = schema.StringValue
)

var testColumns = schema.Columns{
	{Name: "team", Type: schema.Categorical, UniqueValues: 2},
	{Name: "points", Type: schema.Numeric, UniqueValues: 3},
}

var testRows = []schema.Row{
	{str("red"), num(3)},
	{str("blue"), num(5)},
	{str("red"), num(8)},
	{str("blue"), schema.NullValue()},
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("bolt", func(t *testing.T) {
		store, err := OpenBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})
}

func newDatasets(t *testing.T, store Store, opts ...Option) *DatasetCatalog {
	t.Helper()
	c, err := NewDatasetCatalog(store, append([]Option{WithClock(fixedClock())}, opts...)...)
	require.NoError(t, err)
	return c
}

func collect(t *testing.T, seq engine.RowSeq) []schema.Row {
	t.Helper()
	var out []schema.Row
	require.NoError(t, seq.Each(context.Background(), func(row schema.Row) error {
		out = append(out, row)
		return nil
	}))
	return out
}

// ============================================================================
// DATASETS
// ============================================================================

func TestDatasetCreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)

		ds, err := c.Create(ctx, "alice", " scores ", "weekly", testColumns, testRows, FileInfo{Size: 42})
		require.NoError(t, err)
		assert.NotEmpty(t, ds.ID)
		assert.Equal(t, "scores", ds.Name)
		assert.Equal(t, 4, ds.RowCount)
		assert.Equal(t, int64(42), ds.FileSize)
		assert.Equal(t, "csv", ds.FileType)

		got, err := c.Get(ctx, ds.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, ds.ID, got.ID)
		assert.Equal(t, testColumns, got.Columns)
		assert.True(t, ds.CreatedAt.Equal(got.CreatedAt))

		_, err = c.Get(ctx, ds.ID, "mallory")
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

		_, err = c.Get(ctx, "missing", "alice")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}

func TestDatasetCreateValidation(t *testing.T) {
	c := newDatasets(t, NewMemoryStore())
	ctx := context.Background()

	_, err := c.Create(ctx, "alice", "  ", "", testColumns, testRows)
	assert.Equal(t, "dataset name is required", apperrors.Message(err))

	_, err = c.Create(ctx, "alice", "x", "", nil, nil)
	assert.Equal(t, "dataset has no columns", apperrors.Message(err))

	_, err = c.Create(ctx, "alice", "x", "", testColumns, []schema.Row{{str("red")}})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	list, err := c.ListForOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDatasetListNewestFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)

		var ids []string
		for i := 0; i < 3; i++ {
			ds, err := c.Create(ctx, "alice", fmt.Sprintf("d%d", i), "", testColumns, testRows)
			require.NoError(t, err)
			ids = append(ids, ds.ID)
		}
		_, err := c.Create(ctx, "bob", "other", "", testColumns, testRows)
		require.NoError(t, err)

		list, err := c.ListForOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
	})
}

func TestDatasetListTieBreaksOnID(t *testing.T) {
	same := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"01A", "01C", "01B"}
	next := 0
	c := newDatasets(t, NewMemoryStore(),
		WithClock(func() time.Time { return same }),
		WithIDGenerator(func() string { next++; return ids[next-1] }),
	)

	for range ids {
		_, err := c.Create(context.Background(), "alice", "x", "", testColumns, testRows)
		require.NoError(t, err)
	}

	list, err := c.ListForOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "01C", list[0].ID)
	assert.Equal(t, "01B", list[1].ID)
	assert.Equal(t, "01A", list[2].ID)
}

func TestDatasetRowsAndFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)
		ds, err := c.Create(ctx, "alice", "scores", "", testColumns, testRows)
		require.NoError(t, err)

		all, err := c.Rows(ctx, ds.ID, "alice", nil)
		require.NoError(t, err)
		assert.Equal(t, testRows, collect(t, all))
		// restartable
		assert.Equal(t, testRows, collect(t, all))

		red, err := c.Rows(ctx, ds.ID, "alice", Filter{"team": str("red")})
		require.NoError(t, err)
		assert.Equal(t, []schema.Row{testRows[0], testRows[2]}, collect(t, red))

		numeric, err := c.Rows(ctx, ds.ID, "alice", Filter{"points": str("5")}.Coerce(testColumns))
		require.NoError(t, err)
		assert.Equal(t, []schema.Row{testRows[1]}, collect(t, numeric))

		_, err = c.Rows(ctx, ds.ID, "alice", Filter{"nope": str("x")})
		assert.Equal(t, "unknown filter column", apperrors.Message(err))

		_, err = c.Rows(ctx, ds.ID, "bob", nil)
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	})
}

func TestDatasetDeleteCascades(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)
		ds, err := c.Create(ctx, "alice", "scores", "", testColumns, testRows)
		require.NoError(t, err)

		rows, err := c.Rows(ctx, ds.ID, "alice", nil)
		require.NoError(t, err)

		// warm the cache, then delete
		_, err = c.Get(ctx, ds.ID, "alice")
		require.NoError(t, err)

		assert.True(t, apperrors.Is(c.Delete(ctx, ds.ID, "bob"), apperrors.KindForbidden))
		require.NoError(t, c.Delete(ctx, ds.ID, "alice"))

		_, err = c.Get(ctx, ds.ID, "alice")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

		err = rows.Each(ctx, func(schema.Row) error { return nil })
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

		assert.True(t, apperrors.Is(c.Delete(ctx, ds.ID, "alice"), apperrors.KindNotFound))
	})
}

func TestScanSurvivesConcurrentDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)
		ds, err := c.Create(ctx, "alice", "scores", "", testColumns, testRows)
		require.NoError(t, err)

		rows, err := c.Rows(ctx, ds.ID, "alice", nil)
		require.NoError(t, err)

		deleted := make(chan error, 1)
		var deleteErr error
		finishedMidScan := false
		seen := 0
		err = rows.Each(ctx, func(schema.Row) error {
			seen++
			if seen != 1 {
				return nil
			}
			// bolt writers may wait on the open read tx, so delete from
			// another goroutine and only wait a bounded time for it
			go func() { deleted <- c.Delete(ctx, ds.ID, "alice") }()
			select {
			case deleteErr = <-deleted:
				finishedMidScan = true
			case <-time.After(200 * time.Millisecond):
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, len(testRows), seen)

		if !finishedMidScan {
			deleteErr = <-deleted
		}
		require.NoError(t, deleteErr)
		if _, ok := store.(*MemoryStore); ok {
			assert.True(t, finishedMidScan, "memory delete must not wait for the scan")
		}

		_, err = c.Get(ctx, ds.ID, "alice")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		err = rows.Each(ctx, func(schema.Row) error { return nil })
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}

func TestRowsStopEarly(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := newDatasets(t, store)
		ds, err := c.Create(ctx, "alice", "scores", "", testColumns, testRows)
		require.NoError(t, err)

		rows, err := c.Rows(ctx, ds.ID, "alice", nil)
		require.NoError(t, err)

		table, err := engine.BuildTable(ctx, testColumns, rows, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []schema.Row{testRows[1], testRows[2]}, table.Rows)

		seen := 0
		err = rows.Each(ctx, func(schema.Row) error {
			seen++
			return engine.ErrStop
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, seen)
	})
}

// ============================================================================
// PLOTS
// ============================================================================

func TestPlotCatalogLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		plots := NewPlotCatalog(store, WithClock(fixedClock()))

		id, err := plots.Save(ctx, PlotSpec{
			DatasetID: "ds1",
			PlotType:  engine.Bar,
			XAxis:     "team",
			Title:     "Teams",
			Filters:   Filter{"points": num(3)},
			CreatedBy: "alice",
		})
		require.NoError(t, err)

		spec, err := plots.Get(ctx, id, "alice")
		require.NoError(t, err)
		assert.Equal(t, engine.Bar, spec.PlotType)
		assert.Equal(t, Filter{"points": num(3)}, spec.Filters)
		assert.Equal(t, engine.PlotRequest{
			DatasetID: "ds1", PlotType: engine.Bar, XAxis: "team", Title: "Teams", Filters: Filter{"points": num(3)},
		}, spec.Request())

		_, err = plots.Get(ctx, id, "bob")
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

		second, err := plots.Save(ctx, PlotSpec{DatasetID: "ds1", PlotType: engine.Histogram, XAxis: "points", CreatedBy: "alice"})
		require.NoError(t, err)
		list, err := plots.ListForOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second, list[0].ID)

		require.NoError(t, plots.Delete(ctx, id, "alice"))
		_, err = plots.Get(ctx, id, "alice")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		assert.True(t, apperrors.Is(plots.Delete(ctx, id, "alice"), apperrors.KindNotFound))
	})
}

func TestPlotCatalogUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		plots := NewPlotCatalog(store, WithClock(fixedClock()))

		id, err := plots.Save(ctx, PlotSpec{PlotType: engine.Bar, XAxis: "team", CreatedBy: "alice"})
		require.NoError(t, err)
		before, err := plots.Get(ctx, id, "alice")
		require.NoError(t, err)

		title := "Average points"
		y := "points"
		updated, err := plots.Update(ctx, id, "alice", PlotPatch{Title: &title, YAxis: &y})
		require.NoError(t, err)
		assert.Equal(t, "Average points", updated.Title)
		assert.Equal(t, "points", updated.YAxis)
		assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(before.CreatedAt))

		reject := func(*PlotSpec) error { return apperrors.Validation("nope") }
		other := engine.Scatter
		_, err = plots.Update(ctx, id, "alice", PlotPatch{PlotType: &other}, reject)
		assert.Equal(t, "nope", apperrors.Message(err))

		stored, err := plots.Get(ctx, id, "alice")
		require.NoError(t, err)
		assert.Equal(t, engine.Bar, stored.PlotType)

		_, err = plots.Update(ctx, id, "bob", PlotPatch{Title: &title})
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
		assert.True(t, PlotPatch{}.Empty())
	})
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	c := newDatasets(t, store)
	ds, err := c.Create(ctx, "alice", "scores", "", testColumns, testRows)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	c = newDatasets(t, store)
	rows, err := c.Rows(ctx, ds.ID, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, testRows, collect(t, rows))
}
