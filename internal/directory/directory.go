// Package directory serves agency and region display names through the
// cache. Names change rarely and are read on every enrichment, so lists are
// cached whole under a shared scope and invalidated on writes.
package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/starboost/starboost/internal/domain"
)

const (
	// GlobalScope keys the shared directory entries; names are not
	// challenge-specific.
	GlobalScope = "_global"

	keyAgencies = "directory:agencies"
	keyRegions  = "directory:regions"

	defaultTTL = 10 * time.Minute
)

// Directory is a read-through cache over the store's name tables.
type Directory struct {
	store domain.NameDirectory
	cache domain.Cache
	ttl   time.Duration
}

// New creates a directory. A nil cache disables caching and every read goes
// to the store.
func New(store domain.NameDirectory, cache domain.Cache, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Directory{store: store, cache: cache, ttl: ttl}
}

// Agencies lists every known agency, from cache when warm.
func (d *Directory) Agencies(ctx context.Context) ([]domain.Agency, error) {
	var agencies []domain.Agency
	if d.cached(ctx, keyAgencies, &agencies) {
		return agencies, nil
	}

	agencies, err := d.store.ListAgencies(ctx)
	if err != nil {
		return nil, err
	}
	d.put(ctx, keyAgencies, agencies)
	return agencies, nil
}

// Regions lists every known region, from cache when warm.
func (d *Directory) Regions(ctx context.Context) ([]domain.Region, error) {
	var regions []domain.Region
	if d.cached(ctx, keyRegions, &regions) {
		return regions, nil
	}

	regions, err := d.store.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	d.put(ctx, keyRegions, regions)
	return regions, nil
}

// Sync upserts agency and region records and drops the cached lists so the
// next read sees the new names.
func (d *Directory) Sync(ctx context.Context, agencies []domain.Agency, regions []domain.Region) error {
	if len(agencies) > 0 {
		if err := d.store.UpsertAgencies(ctx, agencies); err != nil {
			return err
		}
	}
	if len(regions) > 0 {
		if err := d.store.UpsertRegions(ctx, regions); err != nil {
			return err
		}
	}
	if d.cache != nil {
		if err := d.cache.Delete(ctx, GlobalScope, keyAgencies); err != nil {
			slog.Warn("failed to invalidate agency cache", "error", err)
		}
		if err := d.cache.Delete(ctx, GlobalScope, keyRegions); err != nil {
			slog.Warn("failed to invalidate region cache", "error", err)
		}
	}
	return nil
}

func (d *Directory) cached(ctx context.Context, key string, out any) bool {
	if d.cache == nil {
		return false
	}
	data, err := d.cache.Get(ctx, GlobalScope, key)
	if err != nil {
		slog.Warn("directory cache read failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (d *Directory) put(ctx context.Context, key string, v any) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, GlobalScope, key, data, d.ttl); err != nil {
		slog.Warn("directory cache write failed", "key", key, "error", err)
	}
}
