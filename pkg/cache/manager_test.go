package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client for testing.
// Unit tests skip when no local Redis is reachable; the integration suite
// runs the same paths against a testcontainers-managed instance.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	// Flush test DB before each test
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, 0)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want DefaultTTL %v", manager.TTL(), DefaultTTL)
	}

	custom := NewManager(client, 30*time.Minute)
	if custom.TTL() != 30*time.Minute {
		t.Errorf("TTL() = %v, want 30m", custom.TTL())
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, 0)
}

func TestManager_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://data.sec.gov/submissions/CIK0000320193.json")

	entry := &Entry{
		Data:         []byte(`{"cik": "320193"}`),
		ETag:         `"abc123"`,
		LastModified: time.Now().Add(-1 * time.Hour).Truncate(time.Second),
		FetchedAt:    time.Now(),
		Expires:      time.Now().Add(5 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag mismatch: got %s, want %s", retrieved.ETag, entry.ETag)
	}
	if retrieved.Expired() {
		t.Error("Fresh entry reported Expired() = true")
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://data.sec.gov/submissions/CIK0000000000.json")

	_, err := manager.Get(ctx, key)
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Get_StaleEntryReturned(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl.htm")

	// Logically expired but still inside the retention window. It must come
	// back so its ETag can drive a conditional request.
	entry := &Entry{
		Data:    []byte("<html>old</html>"),
		ETag:    `"v1"`,
		Expires: time.Now().Add(-1 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed for stale entry: %v", err)
	}
	if !retrieved.Expired() {
		t.Error("Stale entry reported Expired() = false")
	}
	if retrieved.ETag != `"v1"` {
		t.Errorf("ETag = %s, want \"v1\"", retrieved.ETag)
	}
}

func TestManager_RefreshAfter304(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://data.sec.gov/submissions/CIK0000789019.json")

	entry := &Entry{
		Data:    []byte(`{"cik": "789019"}`),
		ETag:    `"v7"`,
		Expires: time.Now().Add(-1 * time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	stale, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// 304 confirmed the data, extend its freshness window.
	stale.Refresh(manager.TTL())
	if err := manager.Set(ctx, key, stale); err != nil {
		t.Fatalf("Set after Refresh failed: %v", err)
	}

	refreshed, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Refresh failed: %v", err)
	}
	if refreshed.Expired() {
		t.Error("Refreshed entry reported Expired() = true")
	}
	if string(refreshed.Data) != string(entry.Data) {
		t.Errorf("Data mismatch after refresh: got %s", refreshed.Data)
	}
}

func TestManager_Delete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://data.sec.gov/submissions/CIK0000320193.json")

	entry := &Entry{
		Data:    []byte(`{"test": "data"}`),
		Expires: time.Now().Add(5 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); err != nil {
		t.Fatalf("Get after Set failed: %v", err)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := manager.Get(ctx, key)
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, 0)
	ctx := context.Background()

	key := KeyForURL("https://data.sec.gov/submissions/CIK0000320193.json")

	if err := manager.Set(ctx, key, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}
