package catalog

import (
	"context"
	"encoding/binary"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/mishradev1/Dev-PlotTest/schema"
)

// ============================================================================
// BOLT STORE — Durable Store on a single bbolt file
// ============================================================================
// Layout:
//   datasets/<id>           → JSON Dataset
//   rows/<id>/<uint64 BE>   → JSON Row (nested bucket per dataset)
//   plots/<id>              → JSON PlotSpec
//
// Big-endian row keys make cursor order equal insertion order. Reads run in
// View transactions, which are MVCC snapshots: a scan never observes a
// concurrent delete.
// ============================================================================

var (
	datasetsBucket = []byte("datasets")
	rowsBucket     = []byte("rows")
	plotsBucket    = []byte("plots")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BoltStore implements Store on go.etcd.io/bbolt.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt store %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{datasetsBucket, rowsBucket, plotsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func rowKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}

// ============================================================================
// DATASETS
// ============================================================================

func (s *BoltStore) PutDataset(ctx context.Context, ds Dataset, rows []schema.Row) error {
	meta, err := json.Marshal(ds)
	if err != nil {
		return errors.Wrap(err, "encode dataset")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		datasets := tx.Bucket(datasetsBucket)
		if datasets.Get([]byte(ds.ID)) != nil {
			return errors.Wrapf(ErrExists, "dataset %s", ds.ID)
		}
		if err := datasets.Put([]byte(ds.ID), meta); err != nil {
			return errors.Wrap(err, "put dataset")
		}

		bucket, err := tx.Bucket(rowsBucket).CreateBucket([]byte(ds.ID))
		if err != nil {
			return errors.Wrapf(err, "create rows bucket for %s", ds.ID)
		}
		// Keys are appended in order.
		bucket.FillPercent = 0.9

		for i, row := range rows {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			data, err := json.Marshal(row)
			if err != nil {
				return errors.Wrapf(err, "encode row %d", i)
			}
			if err := bucket.Put(rowKey(uint64(i)), data); err != nil {
				return errors.Wrapf(err, "put row %d", i)
			}
		}
		return nil
	})
}

func (s *BoltStore) GetDataset(ctx context.Context, id string) (Dataset, error) {
	var ds Dataset
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(datasetsBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return errors.Wrap(json.Unmarshal(data, &ds), "decode dataset")
	})
	return ds, err
}

func (s *BoltStore) ListDatasets(ctx context.Context, ownerID string) ([]Dataset, error) {
	var out []Dataset
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(datasetsBucket).ForEach(func(k, v []byte) error {
			var ds Dataset
			if err := json.Unmarshal(v, &ds); err != nil {
				return errors.Wrapf(err, "decode dataset %s", k)
			}
			if ds.OwnerID == ownerID {
				out = append(out, ds)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) ScanRows(ctx context.Context, id string, fn func(schema.Row) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(datasetsBucket).Get([]byte(id)) == nil {
			return ErrNotFound
		}
		bucket := tx.Bucket(rowsBucket).Bucket([]byte(id))
		if bucket == nil {
			return ErrNotFound
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var row schema.Row
			if err := json.Unmarshal(v, &row); err != nil {
				return errors.Wrapf(err, "decode row %d of %s", binary.BigEndian.Uint64(k), id)
			}
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) DeleteDataset(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		datasets := tx.Bucket(datasetsBucket)
		if datasets.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := datasets.Delete([]byte(id)); err != nil {
			return errors.Wrap(err, "delete dataset")
		}
		rows := tx.Bucket(rowsBucket)
		if rows.Bucket([]byte(id)) != nil {
			if err := rows.DeleteBucket([]byte(id)); err != nil {
				return errors.Wrap(err, "delete rows")
			}
		}
		return nil
	})
}

// ============================================================================
// PLOTS
// ============================================================================

func (s *BoltStore) PutPlot(ctx context.Context, spec PlotSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "encode plot")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return errors.Wrap(tx.Bucket(plotsBucket).Put([]byte(spec.ID), data), "put plot")
	})
}

func (s *BoltStore) GetPlot(ctx context.Context, id string) (PlotSpec, error) {
	var spec PlotSpec
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(plotsBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return errors.Wrap(json.Unmarshal(data, &spec), "decode plot")
	})
	return spec, err
}

func (s *BoltStore) ListPlots(ctx context.Context, ownerID string) ([]PlotSpec, error) {
	var out []PlotSpec
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(plotsBucket).ForEach(func(k, v []byte) error {
			var spec PlotSpec
			if err := json.Unmarshal(v, &spec); err != nil {
				return errors.Wrapf(err, "decode plot %s", k)
			}
			if spec.CreatedBy == ownerID {
				out = append(out, spec)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeletePlot(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		plots := tx.Bucket(plotsBucket)
		if plots.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return errors.Wrap(plots.Delete([]byte(id)), "delete plot")
	})
}
