package storage

import (
	"testing"
	"time"
)

func TestServerStoreRoundTrip(t *testing.T) {
	store, err := NewServerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewServerStore: %v", err)
	}
	defer store.Close()

	server := InstalledServer{
		ID:          "web-search",
		Name:        "Web Search",
		Version:     "1.2.0",
		ServerURL:   "http://localhost:9200/sse",
		Transport:   "sse",
		AuthType:    "none",
		Source:      "registry",
		InstalledAt: time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := store.Save(server); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.IsInstalled("web-search") {
		t.Error("IsInstalled should report the saved server")
	}

	loaded, err := store.Load("web-search")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || loaded.Version != "1.2.0" || loaded.Transport != "sse" {
		t.Errorf("loaded %+v", loaded)
	}

	server.Version = "1.3.0"
	server.UpdatedAt = time.Now()
	if err := store.Update(server); err != nil {
		t.Fatalf("Update: %v", err)
	}
	loaded, _ = store.Load("web-search")
	if loaded.Version != "1.3.0" {
		t.Errorf("version after update = %q, want 1.3.0", loaded.Version)
	}

	if err := store.Delete("web-search"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.IsInstalled("web-search") {
		t.Error("server should be gone after delete")
	}
}

func TestServerStoreLoadMissing(t *testing.T) {
	store, err := NewServerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewServerStore: %v", err)
	}
	defer store.Close()

	loaded, err := store.Load("missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("got %+v, want nil for a missing record", loaded)
	}

	if err := store.Update(InstalledServer{ID: "missing"}); err == nil {
		t.Error("updating a missing record must fail")
	}
}

func TestModelCacheReplaceProvider(t *testing.T) {
	cache, err := NewModelCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewModelCache: %v", err)
	}
	defer cache.Close()

	first := []CachedModel{
		{InternalName: "qwen/qwen3-coder:free", Name: "qwen3-coder:free", Capabilities: "tools,chat", ContextWindow: 262144, PricingInput: 0, PricingOutput: 0},
		{InternalName: "meta-llama/llama-3.2-90b", Name: "llama-3.2-90b", ContextWindow: 131072, PricingInput: 0.35, PricingOutput: 0.4},
	}
	if err := cache.ReplaceProvider("openrouter", first); err != nil {
		t.Fatalf("ReplaceProvider: %v", err)
	}

	models, err := cache.ListProvider("openrouter")
	if err != nil {
		t.Fatalf("ListProvider: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}

	// A later sync replaces, never accumulates
	second := []CachedModel{
		{InternalName: "qwen/qwen3-coder:free", Name: "qwen3-coder:free", ContextWindow: 262144},
	}
	if err := cache.ReplaceProvider("openrouter", second); err != nil {
		t.Fatalf("ReplaceProvider: %v", err)
	}
	models, _ = cache.ListProvider("openrouter")
	if len(models) != 1 {
		t.Errorf("got %d models after resync, want 1", len(models))
	}

	ts, err := cache.LastSync("openrouter")
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if ts.IsZero() {
		t.Error("LastSync must be set after a sync")
	}

	ts, err = cache.LastSync("anthropic")
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if !ts.IsZero() {
		t.Error("never-synced provider must report zero time")
	}

	if err := cache.ReplaceProvider("ollama", []CachedModel{{InternalName: "llama3.1", Name: "llama3.1"}}); err != nil {
		t.Fatalf("ReplaceProvider: %v", err)
	}
	all, err := cache.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll returned %d models, want 2 across providers", len(all))
	}
}
