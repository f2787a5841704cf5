package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/benedict-erwin/license-console/pkg/redis"
)

// fakeRedis is an in-memory redis.Client
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key, value string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttl[key] = exp
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeRedis) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Health(context.Context) error { return f.err }
func (f *fakeRedis) Close() error                 { return nil }

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory":  NewMemory(),
		"file":    NewFile(filepath.Join(t.TempDir(), "nested", "profile.json")),
		"lru":     ForProfile(NewLRUBackend(8, time.Hour), "browser-1"),
		"redis":   ForProfile(NewRedisBackend(newFakeRedis(), time.Hour), "browser-1"),
		"default": ForProfile(NewLRUBackend(0, time.Hour), "browser-2"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := store.Get(ctx); ok {
				t.Fatal("fresh store reports a token")
			}

			store.Set(ctx, "abc.def.ghi")
			if got, ok := store.Get(ctx); !ok || got != "abc.def.ghi" {
				t.Fatalf("Get() after Set = %q, %v", got, ok)
			}

			store.Set(ctx, "second")
			if got, _ := store.Get(ctx); got != "second" {
				t.Fatalf("Get() after overwrite = %q", got)
			}

			store.Clear(ctx)
			if got, ok := store.Get(ctx); ok || got != "" {
				t.Fatalf("Get() after Clear = %q, %v", got, ok)
			}

			// clearing twice is harmless
			store.Clear(ctx)
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.json")

	NewFile(path).Set(ctx, "persisted")
	if got, ok := NewFile(path).Get(ctx); !ok || got != "persisted" {
		t.Fatalf("second instance Get() = %q, %v", got, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("profile permissions = %o, want 600", perm)
	}
}

func TestFileStorePreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFile(path)
	store.Set(ctx, "tok")
	store.Clear(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["theme"] != "dark" {
		t.Errorf("profile = %s, want theme to survive", data)
	}
	if _, ok := doc[Key]; ok {
		t.Errorf("profile = %s, want %s removed", data, Key)
	}
}

func TestFileStoreCorruptProfileReadsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFile(path)
	if _, ok := store.Get(ctx); ok {
		t.Fatal("corrupt profile reports a token")
	}
	store.Set(ctx, "fresh")
	if got, _ := store.Get(ctx); got != "fresh" {
		t.Fatalf("Get() after rewriting corrupt profile = %q", got)
	}
}

func TestProfilesAreIndependent(t *testing.T) {
	ctx := context.Background()
	backend := NewLRUBackend(8, time.Hour)
	a := ForProfile(backend, "a")
	b := ForProfile(backend, "b")

	a.Set(ctx, "token-a")
	if _, ok := b.Get(ctx); ok {
		t.Fatal("profile b sees profile a's token")
	}
	b.Set(ctx, "token-b")
	a.Clear(ctx)
	if got, _ := b.Get(ctx); got != "token-b" {
		t.Fatalf("b.Get() = %q after clearing a", got)
	}
}

func TestLRUBackendEvictsOldest(t *testing.T) {
	ctx := context.Background()
	backend := NewLRUBackend(2, time.Hour)
	for _, id := range []string{"a", "b", "c"} {
		ForProfile(backend, id).Set(ctx, "t-"+id)
	}
	if backend.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", backend.Len())
	}
	if _, ok := ForProfile(backend, "a").Get(ctx); ok {
		t.Error("oldest profile survived eviction")
	}
}

func TestRedisBackendFailureReadsAbsent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := ForProfile(NewRedisBackend(fake, time.Minute), "p")
	store.Set(ctx, "tok")

	fake.err = errors.New("connection refused")
	if _, ok := store.Get(ctx); ok {
		t.Fatal("Get() reports a token while redis is down")
	}
	store.Clear(ctx) // must not panic

	fake.err = nil
	if fake.ttl["p:"+Key] != time.Minute {
		t.Errorf("ttl = %v, want 1m", fake.ttl["p:"+Key])
	}
}
