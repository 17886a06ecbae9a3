package archive

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amobagan/nutristream/component"
	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/provider"
)

func newRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mini
}

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	rdb, mini := newRedis(t)
	store := NewRedisStore[Report](rdb, "test")
	ctx := context.Background()

	in := Report{Barcode: "123", Content: "Calories: 120", Chunks: 3}
	if err := store.Save(ctx, "123", &in, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mini.Exists("test:123") {
		t.Fatal("expected prefixed key")
	}

	got, err := store.Load(ctx, "123")
	if err != nil || got == nil {
		t.Fatalf("Load = %v, %v", got, err)
	}
	if got.Content != in.Content || got.Chunks != 3 {
		t.Errorf("got %+v", got)
	}

	if err := store.Delete(ctx, "123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = store.Load(ctx, "123")
	if err != nil || got != nil {
		t.Errorf("after delete = %v, %v", got, err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	rdb, mini := newRedis(t)
	store := NewRedisStore[Report](rdb, "ttl")
	ctx := context.Background()

	if err := store.Save(ctx, "k", &Report{Barcode: "k"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if ttl := mini.TTL("ttl:k"); ttl != time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
	mini.FastForward(2 * time.Minute)
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Error("expired key still loads")
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	rdb, mini := newRedis(t)
	store := NewRedisStore[Report](rdb, "")
	if err := mini.Set("bad", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Error("expected unmarshal error")
	}
	if err := store.Save(context.Background(), "nil", nil, 0); err != nil {
		t.Errorf("nil save = %v", err)
	}
}

func TestRedisStoreKeys(t *testing.T) {
	rdb, mini := newRedis(t)
	store := NewRedisStore[Report](rdb, "reports")
	ctx := context.Background()
	_ = mini.Set("other:1", "x")
	for _, k := range []string{"b", "a", "c"} {
		_ = store.Save(ctx, k, &Report{Barcode: k}, 0)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("keys = %v", keys)
	}
}

func TestArchiveRecordLookup(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) provider.ContextStore[Report]
	}{
		{"memory", func(*testing.T) provider.ContextStore[Report] { return provider.NewMemoryStore[Report]() }},
		{"redis", func(t *testing.T) provider.ContextStore[Report] {
			rdb, _ := newRedis(t)
			return NewRedisStore[Report](rdb, "a")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			a := New(tc.store(t), 0, logger.Nop())
			fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			a.now = func() time.Time { return fixed }

			if _, err := a.Lookup(ctx, "123"); !errors.IsCode(err, errors.ErrCodeNotFound) {
				t.Fatalf("empty lookup = %v", err)
			}
			if err := a.Record(ctx, Report{Barcode: "  "}); !errors.IsCode(err, errors.ErrCodeMissingField) {
				t.Fatalf("blank barcode = %v", err)
			}

			if err := a.Record(ctx, Report{Barcode: " 123 ", Content: "first"}); err != nil {
				t.Fatal(err)
			}
			if err := a.Record(ctx, Report{Barcode: "123", Content: "second"}); err != nil {
				t.Fatal(err)
			}
			r, err := a.Lookup(ctx, "123")
			if err != nil {
				t.Fatal(err)
			}
			if r.Content != "second" || !r.CompletedAt.Equal(fixed) {
				t.Errorf("report = %+v", r)
			}

			codes, err := a.Barcodes(ctx)
			if err != nil || len(codes) != 1 || codes[0] != "123" {
				t.Errorf("Barcodes = %v, %v", codes, err)
			}

			if err := a.Forget(ctx, "123"); err != nil {
				t.Fatal(err)
			}
			if _, err := a.Lookup(ctx, "123"); !errors.IsCode(err, errors.ErrCodeNotFound) {
				t.Errorf("after forget = %v", err)
			}
		})
	}
}

type plainStore struct{ provider.ContextStore[Report] }

func TestArchiveBarcodesUnsupported(t *testing.T) {
	a := New(plainStore{provider.NewMemoryStore[Report]()}, 0, nil)
	if _, err := a.Barcodes(context.Background()); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Barcodes = %v", err)
	}
}

func TestArchiveStorageError(t *testing.T) {
	rdb, mini := newRedis(t)
	a := New(NewRedisStore[Report](rdb, "x"), 0, nil)
	mini.Close()
	if err := a.Record(context.Background(), Report{Barcode: "1"}); !errors.IsCode(err, errors.ErrCodeStorage) {
		t.Errorf("Record = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	if cfg.Backend != BackendMemory || cfg.KeyPrefix == "" {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.Backend = "mongo"
	if cfg.Validate() == nil {
		t.Error("unknown backend should fail")
	}
	cfg.Backend = BackendRedis
	cfg.DB = -1
	if cfg.Validate() == nil {
		t.Error("negative db should fail")
	}

	off := Config{Backend: "mongo"}
	if off.Validate() != nil {
		t.Error("disabled config is not validated")
	}
}

func TestComponentRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	c := NewComponent(Config{Enabled: true, Backend: BackendRedis, Addr: mini.Addr(), TTL: time.Hour}, logger.Nop())
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("before start = %+v", h)
	}
	if c.Archive() != nil {
		t.Error("archive before start")
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("after start = %+v", h)
	}
	if err := c.Archive().Record(ctx, Report{Barcode: "1", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if !mini.Exists("nutristream:report:1") {
		t.Error("report not written to redis")
	}
	if d := c.Describe(); d.Type != "archive" || d.Details != "redis "+mini.Addr()+" db=0 pool=10 ttl=1h0m0s" {
		t.Errorf("describe = %+v", d)
	}

	mini.Close()
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("after redis down = %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestComponentMemory(t *testing.T) {
	c := NewComponent(Config{Enabled: true}, nil)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health = %+v", h)
	}
	if c.Describe().Details != "memory" {
		t.Errorf("describe = %+v", c.Describe())
	}
	if err := c.Stop(ctx); err != nil {
		t.Error(err)
	}
}

func TestComponentRedisUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()

	c := NewComponent(Config{Enabled: true, Backend: BackendRedis, Addr: addr, DialTimeout: 200 * time.Millisecond}, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}
	if c.Archive() != nil {
		t.Error("failed start must not expose an archive")
	}
}
