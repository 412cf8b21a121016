// internal/cache/cache.go
//
// Redis-backed projection cache.
//
/*
Context
--------
The cache holds tenant-flattened user views under composite keys

	tenant:<tenantID>:user:<userID>

with a 24-hour absolute expiry.  It is never the source of truth: every
entry is re-derivable from the store, a missing or stale entry is normal,
and the TTL is the staleness ceiling for the store/cache dual write.
Writes are unconditional last-writer-wins; there is no compare-and-set.

Notes
-----
  • Read reports a miss as (nil, false, nil), never as an error.
  • Evicting an absent key is not an error.
  • Oxford commas, two spaces after periods.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is the absolute expiry for every projection entry.
const TTL = 24 * time.Hour

// Open returns a Redis client with connect timeout and retry settings
// matching the rest of the service's collaborator policy.  The client is
// pinged so bootstrap fails fast, same as the database helper.
func Open(ctx context.Context, addr, password string) (*redis.Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return cli, nil
}

// Projector reads and writes tenant-flattened views.  Construct once at
// startup and inject; the caller owns and closes the client.
type Projector struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps an open client.  ttl <= 0 falls back to the 24-hour default.
func New(rdb *redis.Client, ttl time.Duration) *Projector {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Projector{rdb: rdb, ttl: ttl}
}

// Key builds the composite cache key.  Opaque to callers.
func Key(tenantID string, userID int64) string {
	return fmt.Sprintf("tenant:%s:user:%d", tenantID, userID)
}

// Write serialises the view and stores it under the composite key with
// the configured expiry.  Overwrites unconditionally.
func (p *Projector) Write(ctx context.Context, tenantID string, userID int64, view map[string]any) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", Key(tenantID, userID), err)
	}
	if err := p.rdb.Set(ctx, Key(tenantID, userID), raw, p.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", Key(tenantID, userID), err)
	}
	return nil
}

// Read returns the cached view and true on a hit.  A miss is
// (nil, false, nil); only transport or decode failures return an error.
func (p *Projector) Read(ctx context.Context, tenantID string, userID int64) (map[string]any, bool, error) {
	raw, err := p.rdb.Get(ctx, Key(tenantID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", Key(tenantID, userID), err)
	}

	var view map[string]any
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", Key(tenantID, userID), err)
	}
	return view, true, nil
}

// Evict removes the key unconditionally.  Absent keys are fine.
func (p *Projector) Evict(ctx context.Context, tenantID string, userID int64) error {
	if err := p.rdb.Del(ctx, Key(tenantID, userID)).Err(); err != nil {
		return fmt.Errorf("cache: del %s: %w", Key(tenantID, userID), err)
	}
	return nil
}
