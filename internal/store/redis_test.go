package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	rs, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()), "")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func TestRedisStoreRoundTrip(t *testing.T) {
	rs := newTestRedisStore(t)
	ctx := context.Background()

	const record = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if err := rs.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := rs.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != record {
		t.Fatalf("Load = %q, want %q", got, record)
	}
}

func TestRedisStoreNoRecord(t *testing.T) {
	rs := newTestRedisStore(t)
	if _, err := rs.Load(context.Background()); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("Load err = %v, want ErrNoRecord", err)
	}
}

func TestRedisStoreOverwrites(t *testing.T) {
	rs := newTestRedisStore(t)
	ctx := context.Background()

	if err := rs.Save(ctx, "first"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := rs.Save(ctx, "second"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := rs.Load(ctx)
	if err != nil || got != "second" {
		t.Fatalf("Load = %q, err = %v", got, err)
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", ""); err == nil {
		t.Fatalf("NewRedisStore accepted a bad url")
	}
	if _, err := NewRedisStore("", ""); err == nil {
		t.Fatalf("NewRedisStore accepted an empty url")
	}
}
