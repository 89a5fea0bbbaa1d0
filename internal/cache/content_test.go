package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T) (*Content, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, 5*time.Minute, zerolog.Nop()), mr
}

func TestKeyFormat(t *testing.T) {
	key := Key("ver_1", "hero", "en")
	if key != "content:ver_1:hero:en" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	key := Key("ver_1", "hero", "en")

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss on empty cache")
	}

	payload := []byte(`{"sections":{}}`)
	cache.Set(ctx, key, payload)

	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(got) != string(payload) {
		t.Errorf("expected %s, got %s", payload, got)
	}
}

func TestSetAppliesTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	key := Key("ver_1", "", "en")

	cache.Set(ctx, key, []byte("x"))
	if mr.TTL(key) != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", mr.TTL(key))
	}

	mr.FastForward(6 * time.Minute)
	if _, ok := cache.Get(ctx, key); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestInvalidateAllClearsOnlyContentKeys(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, Key("ver_1", "hero", "en"), []byte("a"))
	cache.Set(ctx, Key("ver_1", "pricing", "en"), []byte("b"))
	cache.Set(ctx, Key("ver_2", "hero", "de"), []byte("c"))
	mr.Set("other:key", "keep")

	cache.InvalidateAll(ctx)

	for _, key := range []string{
		Key("ver_1", "hero", "en"),
		Key("ver_1", "pricing", "en"),
		Key("ver_2", "hero", "de"),
	} {
		if _, ok := cache.Get(ctx, key); ok {
			t.Errorf("expected %s removed", key)
		}
	}
	if !mr.Exists("other:key") {
		t.Error("invalidation must not touch keys outside the content prefix")
	}
}

func TestGetDegradesToMissWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	key := Key("ver_1", "hero", "en")
	cache.Set(ctx, key, []byte("x"))

	mr.Close()

	if _, ok := cache.Get(ctx, key); ok {
		t.Error("expected miss when redis is unreachable")
	}
}
