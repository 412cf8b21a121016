// internal/cache/cache_test.go
//
// Projector tests against an in-process miniredis.
//
// Run: go test ./internal/cache -v

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newProjector(t *testing.T) (*Projector, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cli.Close() })
	return New(cli, 0), mr
}

func TestKeyFormat(t *testing.T) {
	if got := Key("acme", 7); got != "tenant:acme:user:7" {
		t.Fatalf("Key = %q", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	p, _ := newProjector(t)
	ctx := context.Background()

	view := map[string]any{"name": "John", "dept": "Eng"}
	if err := p.Write(ctx, "acme", 7, view); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, hit, err := p.Read(ctx, "acme", 7)
	if err != nil || !hit {
		t.Fatalf("Read: hit=%v err=%v", hit, err)
	}
	if got["name"] != "John" || got["dept"] != "Eng" {
		t.Fatalf("view = %#v", got)
	}
}

func TestReadMissIsNotAnError(t *testing.T) {
	p, _ := newProjector(t)

	view, hit, err := p.Read(context.Background(), "acme", 404)
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if hit || view != nil {
		t.Fatalf("hit=%v view=%#v, want miss", hit, view)
	}
}

func TestWriteSetsExpiry(t *testing.T) {
	p, mr := newProjector(t)
	ctx := context.Background()

	if err := p.Write(ctx, "acme", 7, map[string]any{"name": "John"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ttl := mr.TTL(Key("acme", 7)); ttl != TTL {
		t.Fatalf("ttl = %v, want %v", ttl, TTL)
	}

	// Past the expiry the entry is gone.
	mr.FastForward(TTL + time.Second)
	if _, hit, _ := p.Read(ctx, "acme", 7); hit {
		t.Fatal("entry survived its TTL")
	}
}

func TestWriteOverwritesUnconditionally(t *testing.T) {
	p, _ := newProjector(t)
	ctx := context.Background()

	_ = p.Write(ctx, "acme", 7, map[string]any{"dept": "Eng"})
	_ = p.Write(ctx, "acme", 7, map[string]any{"dept": "Sales"})

	got, _, _ := p.Read(ctx, "acme", 7)
	if got["dept"] != "Sales" {
		t.Fatalf("last writer must win, got %#v", got)
	}
}

func TestEvict(t *testing.T) {
	p, _ := newProjector(t)
	ctx := context.Background()

	_ = p.Write(ctx, "acme", 7, map[string]any{"name": "John"})
	if err := p.Evict(ctx, "acme", 7); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, hit, _ := p.Read(ctx, "acme", 7); hit {
		t.Fatal("entry survived eviction")
	}

	// Evicting an absent key is fine.
	if err := p.Evict(ctx, "acme", 7); err != nil {
		t.Fatalf("second Evict: %v", err)
	}
}

func TestTenantKeysAreIndependent(t *testing.T) {
	p, _ := newProjector(t)
	ctx := context.Background()

	_ = p.Write(ctx, "acme", 7, map[string]any{"dept": "Eng"})
	_ = p.Write(ctx, "globex", 7, map[string]any{"dept": "Sales"})

	_ = p.Evict(ctx, "acme", 7)

	got, hit, _ := p.Read(ctx, "globex", 7)
	if !hit || got["dept"] != "Sales" {
		t.Fatalf("globex entry disturbed: hit=%v view=%#v", hit, got)
	}
}
