// Package store provides the bbolt-backed document store for judge and
// assembly specs. Documents are stored as JSON inside per-collection
// buckets, keyed by id.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	bolt "go.etcd.io/bbolt"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// Bucket names for the two document collections.
const (
	bucketJudges     = "judges"
	bucketAssemblies = "assemblies"
)

// maxNameDistance is the furthest levenshtein distance at which a judge
// name still matches an approximate name filter.
const maxNameDistance = 2

// BoltStore is a bbolt-backed implementation of ports.DocumentStore.
// bbolt serializes writers internally, so the store needs no extra locking.
type BoltStore struct {
	db *bolt.DB
}

var _ ports.DocumentStore = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the database file at the given path and
// pre-creates the collection buckets.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketJudges, bucketAssemblies} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// GetJudge returns the judge with the given id, or ports.ErrNotFound.
func (s *BoltStore) GetJudge(ctx context.Context, id string) (domain.JudgeSpec, error) {
	var spec domain.JudgeSpec
	err := s.get(ctx, bucketJudges, id, &spec)
	return spec, err
}

// PutJudge creates or replaces a judge spec.
func (s *BoltStore) PutJudge(ctx context.Context, spec domain.JudgeSpec) error {
	return s.put(ctx, bucketJudges, spec.ID, spec)
}

// DeleteJudge removes a judge spec, returning ports.ErrNotFound when absent.
func (s *BoltStore) DeleteJudge(ctx context.Context, id string) error {
	return s.delete(ctx, bucketJudges, id)
}

// ListJudges returns all judges, optionally filtered by an approximate name
// match. A judge matches when the filter is a substring of its name or the
// names are within a small edit distance, both case-insensitively.
func (s *BoltStore) ListJudges(ctx context.Context, nameFilter string) ([]domain.JudgeSpec, error) {
	var judges []domain.JudgeSpec
	err := s.list(ctx, bucketJudges, func(data []byte) error {
		var spec domain.JudgeSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return err
		}
		if nameFilter == "" || nameMatches(spec.Name, nameFilter) {
			judges = append(judges, spec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return judges, nil
}

// GetPanel returns the panel with the given id, or ports.ErrNotFound.
func (s *BoltStore) GetPanel(ctx context.Context, id string) (domain.PanelSpec, error) {
	var spec domain.PanelSpec
	err := s.get(ctx, bucketAssemblies, id, &spec)
	return spec, err
}

// PutPanel creates or replaces a panel spec.
func (s *BoltStore) PutPanel(ctx context.Context, spec domain.PanelSpec) error {
	return s.put(ctx, bucketAssemblies, spec.ID, spec)
}

// DeletePanel removes a panel spec, returning ports.ErrNotFound when absent.
func (s *BoltStore) DeletePanel(ctx context.Context, id string) error {
	return s.delete(ctx, bucketAssemblies, id)
}

// ListPanels returns all panels, optionally filtered to those carrying the
// given role label (case-insensitive).
func (s *BoltStore) ListPanels(ctx context.Context, roleFilter string) ([]domain.PanelSpec, error) {
	var panels []domain.PanelSpec
	err := s.list(ctx, bucketAssemblies, func(data []byte) error {
		var spec domain.PanelSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return err
		}
		if roleFilter == "" || hasRole(spec.Roles, roleFilter) {
			panels = append(panels, spec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return panels, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) get(ctx context.Context, bucket, key string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return ports.ErrNotFound
		}
		return json.Unmarshal(data, out)
	})
	if err != nil {
		return ports.NewStoreError(bucket, key, "get", err)
	}
	return nil
}

func (s *BoltStore) put(ctx context.Context, bucket, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ports.NewStoreError(bucket, key, "put", fmt.Errorf("empty document id"))
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
	if err != nil {
		return ports.NewStoreError(bucket, key, "put", err)
	}
	return nil
}

func (s *BoltStore) delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b.Get([]byte(key)) == nil {
			return ports.ErrNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return ports.NewStoreError(bucket, key, "delete", err)
	}
	return nil
}

func (s *BoltStore) list(ctx context.Context, bucket string, visit func(data []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			return visit(v)
		})
	})
	if err != nil {
		return ports.NewStoreError(bucket, "", "list", err)
	}
	return nil
}

// nameMatches implements the approximate name filter for judge listings.
func nameMatches(name, filter string) bool {
	name = strings.ToLower(name)
	filter = strings.ToLower(filter)
	if strings.Contains(name, filter) {
		return true
	}
	return levenshtein.ComputeDistance(name, filter) <= maxNameDistance
}

// hasRole reports whether a panel carries the given role label.
func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
