package directory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starboost/starboost/internal/cache"
	"github.com/starboost/starboost/internal/domain"
)

// countingStore is a NameDirectory backed by maps that counts list calls, so
// tests can tell cache hits from store reads.
type countingStore struct {
	agencies  map[int64]domain.Agency
	regions   map[int64]domain.Region
	listCalls atomic.Int32
}

func newCountingStore() *countingStore {
	return &countingStore{
		agencies: make(map[int64]domain.Agency),
		regions:  make(map[int64]domain.Region),
	}
}

func (s *countingStore) UpsertAgencies(ctx context.Context, agencies []domain.Agency) error {
	for _, a := range agencies {
		s.agencies[a.ID] = a
	}
	return nil
}

func (s *countingStore) UpsertRegions(ctx context.Context, regions []domain.Region) error {
	for _, r := range regions {
		s.regions[r.ID] = r
	}
	return nil
}

func (s *countingStore) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	s.listCalls.Add(1)
	var out []domain.Agency
	for _, a := range s.agencies {
		out = append(out, a)
	}
	return out, nil
}

func (s *countingStore) ListRegions(ctx context.Context) ([]domain.Region, error) {
	s.listCalls.Add(1)
	var out []domain.Region
	for _, r := range s.regions {
		out = append(out, r)
	}
	return out, nil
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadThrough", func(t *testing.T) {
		store := newCountingStore()
		store.UpsertAgencies(ctx, []domain.Agency{{ID: 1, Name: "Agency One", RegionID: 1}})

		dir := New(store, cache.NewLRUCache(10), time.Minute)

		first, err := dir.Agencies(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first) != 1 || first[0].Name != "Agency One" {
			t.Fatalf("unexpected agencies: %+v", first)
		}

		// Second read is served from cache.
		if _, err := dir.Agencies(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.listCalls.Load(); got != 1 {
			t.Errorf("expected 1 store read, got %d", got)
		}
	})

	t.Run("SyncInvalidates", func(t *testing.T) {
		store := newCountingStore()
		dir := New(store, cache.NewLRUCache(10), time.Minute)

		if err := dir.Sync(ctx, nil, []domain.Region{{ID: 1, Name: "North"}}); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		regions, err := dir.Regions(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(regions) != 1 || regions[0].Name != "North" {
			t.Fatalf("unexpected regions: %+v", regions)
		}

		// A rename must be visible on the next read despite the warm cache.
		if err := dir.Sync(ctx, nil, []domain.Region{{ID: 1, Name: "North Renamed"}}); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		regions, err = dir.Regions(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if regions[0].Name != "North Renamed" {
			t.Errorf("expected the rename to be visible, got %+v", regions)
		}
	})

	t.Run("NilCacheReadsStore", func(t *testing.T) {
		store := newCountingStore()
		store.UpsertRegions(ctx, []domain.Region{{ID: 1, Name: "North"}})
		dir := New(store, nil, 0)

		for i := 0; i < 3; i++ {
			if _, err := dir.Regions(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if got := store.listCalls.Load(); got != 3 {
			t.Errorf("expected every read to hit the store, got %d", got)
		}
	})
}
