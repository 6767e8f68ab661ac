package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/runlock"
	goredis "github.com/redis/go-redis/v9"
)

func TestRedisRunLockerAcquireAndRelease(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)
	locker, err := NewRedisRunLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisRunLocker() error = %v", err)
	}

	ctx := context.Background()
	lease, err := locker.Acquire(ctx, "wsr:job-lock:REMINDER", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := locker.Acquire(ctx, "wsr:job-lock:REMINDER", time.Minute); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("second Acquire() error = %v, want ErrHeld", err)
	}

	other, err := locker.Acquire(ctx, "wsr:job-lock:FOLLOW_UP", time.Minute)
	if err != nil {
		t.Fatalf("Acquire(other kind) error = %v", err)
	}
	defer func() { _ = other.Release(ctx) }()

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	again, err := locker.Acquire(ctx, "wsr:job-lock:REMINDER", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release(ctx)
}

func TestRedisRunLockerExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	locker, err := NewRedisRunLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisRunLocker() error = %v", err)
	}

	ctx := context.Background()
	stale, err := locker.Acquire(ctx, "wsr:job-lock:REMINDER", time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	mr.FastForward(2 * time.Second)

	current, err := locker.Acquire(ctx, "wsr:job-lock:REMINDER", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() after expiry error = %v", err)
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale Release() error = %v", err)
	}
	if !mr.Exists("wsr:job-lock:REMINDER") {
		t.Fatal("stale release removed the current holder's lock")
	}

	if err := current.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if mr.Exists("wsr:job-lock:REMINDER") {
		t.Fatal("expected lock key to be deleted")
	}
}

func TestRedisRunLockerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisRunLocker(nil); err == nil {
		t.Fatal("expected error for nil client")
	}

	locker, err := NewRedisRunLocker(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewRedisRunLocker() error = %v", err)
	}
	if _, err := locker.Acquire(context.Background(), " ", time.Minute); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := locker.Acquire(context.Background(), "k", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestRedisRunLockerRedisDown(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	locker, err := NewRedisRunLocker(rdb)
	if err != nil {
		t.Fatalf("NewRedisRunLocker() error = %v", err)
	}

	_, err = locker.Acquire(context.Background(), "wsr:job-lock:REMINDER", time.Minute)
	if err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
	if errors.Is(err, runlock.ErrHeld) {
		t.Fatal("connection failure must not be reported as ErrHeld")
	}
}
