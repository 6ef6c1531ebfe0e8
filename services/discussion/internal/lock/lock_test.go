package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

var (
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

func TestLocalLocker_Serializes(t *testing.T) {
	l := NewLocal(0)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(ctx, "comment:1", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				t.Errorf("with lock: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if len(l.slots) != 0 {
		t.Fatalf("expected slots to be released, got %d", len(l.slots))
	}
}

func TestLocalLocker_Timeout(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.WithLock(ctx, "comment:1", func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := l.WithLock(ctx, "comment:1", func(context.Context) error { return nil })
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	// a different key is independent
	if err := l.WithLock(ctx, "comment:2", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error on other key: %v", err)
	}
	close(done)
}

func TestLocalLocker_PropagatesError(t *testing.T) {
	l := NewLocal(0)
	want := errors.New("boom")
	if err := l.WithLock(context.Background(), "k", func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func setupRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	l := NewRedis("redis://"+s.Addr(), time.Second, wait, nil)
	t.Cleanup(func() { _ = l.Close() })
	return l, s
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	l, s := setupRedisLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	err := l.WithLock(ctx, "comment:1", func(context.Context) error {
		if !s.Exists(keyPrefix + "comment:1") {
			t.Error("expected lock key while held")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with lock: %v", err)
	}
	if s.Exists(keyPrefix + "comment:1") {
		t.Fatal("expected lock key to be released")
	}
}

func TestRedisLocker_Contention(t *testing.T) {
	l, s := setupRedisLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	if err := s.Set(keyPrefix+"comment:1", "someone-else"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := l.WithLock(ctx, "comment:1", func(context.Context) error {
		t.Error("fn must not run without the lock")
		return nil
	})
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	// release must not delete a key owned by another token
	got, _ := s.Get(keyPrefix + "comment:1")
	if got != "someone-else" {
		t.Fatalf("foreign lock was touched: %q", got)
	}
}

func TestRedisLocker_ExpiredHolder(t *testing.T) {
	l, s := setupRedisLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	if err := s.Set(keyPrefix+"comment:1", "crashed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s.SetTTL(keyPrefix+"comment:1", time.Second)
	s.FastForward(2 * time.Second)

	ran := false
	if err := l.WithLock(ctx, "comment:1", func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatalf("with lock: %v", err)
	}
	if !ran {
		t.Fatal("expected fn to run after the stale lock expired")
	}
}
