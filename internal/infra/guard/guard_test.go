package guard_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/cache"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/guard"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/port"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func exerciseGuard(t *testing.T, g port.SubmissionGuard) {
	t.Helper()
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "session-1:party-9")
	if err != nil || !ok {
		t.Fatalf("expected first acquire, got ok=%v err=%v", ok, err)
	}

	_, ok, err = g.TryAcquire(ctx, "session-1:party-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire on the same form to be refused")
	}

	otherRelease, ok, _ := g.TryAcquire(ctx, "session-1:party-7")
	if !ok {
		t.Fatal("expected a different form to be independent")
	}
	otherRelease()

	release()

	release2, ok, _ := g.TryAcquire(ctx, "session-1:party-9")
	if !ok {
		t.Fatal("expected acquire after release")
	}
	release2()
}

func TestMemoryGuard(t *testing.T) {
	store := cache.New[string](time.Minute)
	defer store.Close()

	exerciseGuard(t, guard.NewMemory(store))
}

func TestMemoryGuard_LateReleaseKeepsNewHolder(t *testing.T) {
	store := cache.New[string](50 * time.Millisecond)
	defer store.Close()
	g := guard.NewMemory(store)
	ctx := context.Background()

	staleRelease, ok, _ := g.TryAcquire(ctx, "session-1:party-9")
	if !ok {
		t.Fatal("expected first acquire")
	}
	time.Sleep(100 * time.Millisecond)

	release, ok, _ := g.TryAcquire(ctx, "session-1:party-9")
	if !ok {
		t.Fatal("expected acquire after the first hold expired")
	}
	defer release()

	staleRelease()

	if _, ok, _ := g.TryAcquire(ctx, "session-1:party-9"); ok {
		t.Fatal("expected the expired holder's release to leave the new hold in place")
	}
}

func TestRedisGuard(t *testing.T) {
	_, rdb := setupRedis(t)
	exerciseGuard(t, guard.NewRedis(rdb, time.Minute, zap.NewNop()))
}

func TestRedisGuard_KeyExpires(t *testing.T) {
	mr, rdb := setupRedis(t)
	g := guard.NewRedis(rdb, 30*time.Second, zap.NewNop())
	ctx := context.Background()

	staleRelease, ok, _ := g.TryAcquire(ctx, "form")
	if !ok {
		t.Fatal("expected acquire")
	}

	mr.FastForward(31 * time.Second)

	release, ok, _ := g.TryAcquire(ctx, "form")
	if !ok {
		t.Fatal("expected acquire after ttl")
	}

	// The expired holder must not free the new holder's key.
	staleRelease()
	if _, ok, _ := g.TryAcquire(ctx, "form"); ok {
		t.Fatal("stale release freed a key it no longer owns")
	}
	release()
}

func TestRedisGuard_StoreDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	g := guard.NewRedis(rdb, time.Minute, zap.NewNop())
	mr.Close()

	if _, _, err := g.TryAcquire(context.Background(), "form"); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}
