package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func init() {
	retry.delay = time.Millisecond
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("layout"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v; want hit", hit, err)
	}
	if string(data) != "layout" {
		t.Errorf("Get(k) = %q, want %q", data, "layout")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("x"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("y"), 0)

	now = now.Add(2 * time.Minute)
	st, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 2 || st.Expired != 1 {
		t.Errorf("Stats() = %+v, want 2 entries, 1 expired", st)
	}

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "k", []byte("x"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if st, _ := c.Stats(); st.Entries != 0 {
		t.Errorf("Stats().Entries = %d, want 0", st.Entries)
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte(`{"nodes":[{"id":"a"}]}`))
	if h1 != ContentHash([]byte(`{"nodes":[{"id":"a"}]}`)) {
		t.Error("ContentHash should be deterministic")
	}
	if h1 == ContentHash([]byte(`{"nodes":[{"id":"b"}]}`)) {
		t.Error("different documents should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("len(ContentHash) = %d, want 64", len(h1))
	}
}

func TestContentKeyParts(t *testing.T) {
	// The same bytes split differently between kind and content must not
	// collide.
	if contentKey("ab", "c", nil) == contentKey("a", "bc", nil) {
		t.Error("key parts should be length-prefixed")
	}
	k := contentKey(KeyTypeLayout, "h", LayoutKeyOpts{Pipeline: "minimal"})
	if !strings.HasPrefix(k, "layout:") || len(k) != len("layout:")+64 {
		t.Errorf("contentKey = %q, want layout:<sha256>", k)
	}
}

func TestShard(t *testing.T) {
	dir, name := shard("layout:abc")
	if len(dir) != 2 || len(name) != 62 {
		t.Errorf("shard = %q/%q, want 2+62 hex digits", dir, name)
	}
	if dir+name != ContentHash([]byte("layout:abc")) {
		t.Error("shard should split the hash of the key")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Pipeline: "layered", Rankdir: "TB"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Pipeline: "layered", Rankdir: "LR"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{Pipeline: "layered", Rankdir: "TB"}) {
		t.Error("LayoutKey should be deterministic")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey = %q, want layout: prefix", lk1)
	}

	rk := k.RenderKey("hash123", RenderKeyOpts{Format: "svg"})
	if !strings.HasPrefix(rk, "render:") {
		t.Errorf("RenderKey = %q, want render: prefix", rk)
	}
	if rk == k.RenderKey("hash123", RenderKeyOpts{Format: "dot"}) {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "staging:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", key)
	}
	key = scoped.RenderKey("h", RenderKeyOpts{Format: "svg"})
	if !strings.HasPrefix(key, "staging:render:") {
		t.Errorf("ScopedKeyer RenderKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{})
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); got != want {
		t.Errorf("LayoutKey() = %s, want %s", got, want)
	}
}

func TestOutageError(t *testing.T) {
	driver := errors.New("dial tcp: connection refused")
	err := outage("redis", "get", driver)

	if !IsOutage(err) {
		t.Error("IsOutage should be true for an outage")
	}
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, driver) {
		t.Error("an outage should match ErrUnavailable and the driver error")
	}
	if want := "redis get: cache backend unavailable: dial tcp: connection refused"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if IsOutage(ErrUnavailable) || IsOutage(driver) {
		t.Error("IsOutage should be false for plain errors")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := backoff{attempts: 3, delay: time.Millisecond}
	errPermanent := errors.New("permanent")
	down := outage("mongo", "find", errors.New("timeout"))

	tests := []struct {
		name      string
		failures  int
		err       error
		wantErr   error
		wantCalls int
	}{
		{"Success", 0, nil, nil, 1},
		{"Permanent", 5, errPermanent, errPermanent, 1},
		{"Recovers", 1, down, nil, 2},
		{"Exhausted", 5, down, down, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if err != tt.wantErr || calls != tt.wantCalls {
				t.Errorf("err %v, calls %d; want %v, %d", err, calls, tt.wantErr, tt.wantCalls)
			}
		})
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := backoff{attempts: 3, delay: time.Hour}.do(ctx, func() error {
		calls++
		return outage("redis", "set", errors.New("reset"))
	})
	if err != context.Canceled || calls != 1 {
		t.Errorf("err %v, calls %d; want %v, 1", err, calls, context.Canceled)
	}
}

// Backend round trips run only when a server is configured.

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("STRATA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STRATA_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "strata-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	defer c.Close()
	roundTrip(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("STRATA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STRATA_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, MongoConfig{URI: uri, Database: "strata_test"})
	if err != nil {
		t.Fatalf("NewMongoCache() error: %v", err)
	}
	defer c.Close()
	roundTrip(t, c)
}

func roundTrip(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := "round-trip-" + time.Now().Format(time.RFC3339Nano)

	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Fatalf("Get(new key) = hit %v, err %v; want miss", hit, err)
	}
	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get() = %q, %v, %v; want payload, true, nil", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}

type recordingCache struct {
	NullCache
	ttl time.Duration
}

func (c *recordingCache) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	c.ttl = ttl
	return nil
}

func TestWithTTL(t *testing.T) {
	inner := &recordingCache{}
	c := WithTTL(inner, time.Minute)
	if err := c.Set(context.Background(), "k", nil, TTLLayout); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if inner.ttl != time.Minute {
		t.Errorf("stored ttl = %v, want %v", inner.ttl, time.Minute)
	}
	if got := WithTTL(inner, 0); got != Cache(inner) {
		t.Error("WithTTL(c, 0) should return c unchanged")
	}
}
