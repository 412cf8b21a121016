// internal/sync/sync.go
//
// Dual-write orchestrator: store first, cache after commit.
//
/*
Context
--------
Each upstream change event runs one short, linear sequence: validate,
apply the mutation inside a store transaction, commit, then project the
result into the cache.  The store is the durable truth.  Cache effects
happen only after a successful commit and are best-effort — a cache
failure after commit is logged, counted, and swallowed, never rolled
back into the store.  A stale or missing entry self-heals through
GetUser's read-through path, bounded by the cache TTL.

GetUser collapses concurrent misses for the same (tenant, user) key
through singleflight, so a cold key costs one store read no matter how
many readers pile up behind it.

The synchronizer holds no in-process lock; per-row ordering is the
store's job (row locks inside each transaction).  Concurrent cache
writes to the same key are last-writer-wins, which is fine for a
re-derivable projection.

Notes
-----
  • Validation failures reject before any I/O.
  • There is no retry here; redelivery is the upstream's concern.
  • Oxford commas, two spaces after periods.
*/
package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/usersync/internal/cache"
	"github.com/yanizio/usersync/internal/fields"
	"github.com/yanizio/usersync/internal/metrics"
	"github.com/yanizio/usersync/internal/store"
)

//
// Event model
//

// Kind is the upstream event discriminator, verbatim from the CMS.
type Kind string

const (
	KindCreate Kind = "entry.create"
	KindUpdate Kind = "entry.update"
	KindDelete Kind = "entry.delete"
)

// Event is one upstream change notification scoped to a tenant.
type Event struct {
	Kind     Kind
	TenantID string
	Entry    map[string]any
}

// Validation errors, raised before any store or cache I/O.
var (
	ErrInvalidTenant = errors.New("tenant id is required")
	ErrUnknownEvent  = errors.New("unknown event kind")
	ErrMissingEmail  = errors.New("entry email is required")
)

//
// Synchronizer
//

// Synchronizer keeps the record store and the projection cache
// consistent.  Safe for concurrent use.
type Synchronizer struct {
	store *store.Store
	cache *cache.Projector
	sfg   singleflight.Group
	log   *zap.SugaredLogger
}

// New wires the two collaborators.  Both are owned by the caller.
func New(st *store.Store, pr *cache.Projector, log *zap.SugaredLogger) *Synchronizer {
	return &Synchronizer{store: st, cache: pr, log: log}
}

// Apply dispatches one event by kind and returns the tenant-flattened
// record (or removed snapshot, for deletes).
func (s *Synchronizer) Apply(ctx context.Context, ev Event) (map[string]any, error) {
	switch ev.Kind {
	case KindCreate:
		return s.OnCreate(ctx, ev.Entry, ev.TenantID)
	case KindUpdate:
		return s.OnUpdate(ctx, ev.Entry, ev.TenantID)
	case KindDelete:
		return s.OnDelete(ctx, ev.Entry, ev.TenantID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}

/*──────────────────────────── mutations ───────────────────────────────────*/

// OnCreate inserts the record with the custom attributes scoped to
// tenantID, then projects it into the cache.
func (s *Synchronizer) OnCreate(ctx context.Context, raw map[string]any, tenantID string) (map[string]any, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}

	std, custom := fields.Split(raw, tenantID)

	rec, err := s.store.Create(ctx, std, custom)
	if err != nil {
		metrics.SyncErrorsTotal.Inc()
		return nil, err
	}
	metrics.SyncCreateTotal.Inc()

	view := rec.Project(tenantID)
	s.projectBestEffort(ctx, tenantID, rec.ID, view)
	return view, nil
}

// OnUpdate merges tenantID's slice into the existing row, keyed by
// email, then refreshes the cache entry.  Unknown emails surface
// store.ErrNotFound; nothing is created implicitly.
func (s *Synchronizer) OnUpdate(ctx context.Context, raw map[string]any, tenantID string) (map[string]any, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}

	std, custom := fields.Split(raw, tenantID)
	if std.Email == "" {
		return nil, ErrMissingEmail
	}

	rec, err := s.store.UpdateByEmail(ctx, std.Email, std, tenantID, custom[tenantID])
	if err != nil {
		metrics.SyncErrorsTotal.Inc()
		return nil, err
	}
	metrics.SyncUpdateTotal.Inc()

	view := rec.Project(tenantID)
	s.projectBestEffort(ctx, tenantID, rec.ID, view)
	return view, nil
}

// OnDelete detaches tenantID from the row keyed by email and evicts the
// tenant's cache entry — always, whether or not the row itself went
// away.  Returns the pre-deletion projection for that tenant.
func (s *Synchronizer) OnDelete(ctx context.Context, raw map[string]any, tenantID string) (map[string]any, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}

	email, _ := raw["email"].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}

	snap, deletedRow, err := s.store.DeleteTenantSlice(ctx, email, tenantID)
	if err != nil {
		metrics.SyncErrorsTotal.Inc()
		return nil, err
	}
	metrics.SyncDeleteTotal.Inc()

	if err := s.cache.Evict(ctx, tenantID, snap.ID); err != nil {
		metrics.CacheErrorTotal.Inc()
		s.log.Warnw("cache evict failed", "tenant", tenantID, "user", snap.ID, "err", err)
	} else {
		metrics.CacheEvictTotal.Inc()
	}

	s.log.Infow("tenant detached",
		"tenant", tenantID, "user", snap.ID, "row_deleted", deletedRow)
	return snap.Project(tenantID), nil
}

/*──────────────────────────── reads ───────────────────────────────────────*/

// GetUser serves the tenant-flattened view: cache hit if present,
// otherwise store read, reprojected into the cache on the way out.  A
// cache read failure degrades to the store path instead of surfacing.
func (s *Synchronizer) GetUser(ctx context.Context, userID int64, tenantID string) (map[string]any, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}

	view, hit, err := s.cache.Read(ctx, tenantID, userID)
	if err != nil {
		metrics.CacheErrorTotal.Inc()
		s.log.Warnw("cache read failed, falling back to store",
			"tenant", tenantID, "user", userID, "err", err)
	} else if hit {
		metrics.CacheHitTotal.Inc()
		return view, nil
	}
	metrics.CacheMissTotal.Inc()

	v, err, _ := s.sfg.Do(cache.Key(tenantID, userID), func() (any, error) {
		rec, err := s.store.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		view := rec.Project(tenantID)
		s.projectBestEffort(ctx, tenantID, rec.ID, view)
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// projectBestEffort writes a committed view into the cache.  Failures
// are logged and counted only; the store already holds the truth.
func (s *Synchronizer) projectBestEffort(ctx context.Context, tenantID string, userID int64, view map[string]any) {
	if err := s.cache.Write(ctx, tenantID, userID, view); err != nil {
		metrics.CacheErrorTotal.Inc()
		s.log.Warnw("cache write failed", "tenant", tenantID, "user", userID, "err", err)
	}
}
