package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func seedRegistry(t *testing.T, servers []RegistryServer) *Registry {
	t.Helper()

	dataDir := t.TempDir()
	cacheDir := filepath.Join(dataDir, "registry")
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(servers)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "server_registry.json"), data, 0600); err != nil {
		t.Fatal(err)
	}

	r, err := NewRegistry(dataDir)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistryLoadsCachedCatalog(t *testing.T) {
	r := seedRegistry(t, []RegistryServer{
		{ID: "srv-files", Name: "acme/srv-files", Description: "Filesystem access", Category: "files"},
		{ID: "srv-search", Name: "acme/srv-search", Description: "Web search", Category: "search", Tags: []string{"web"}},
	})

	if got := len(r.GetAll()); got != 2 {
		t.Fatalf("GetAll() = %d servers, want 2", got)
	}

	if s := r.GetByID("srv-files"); s == nil || s.Name != "acme/srv-files" {
		t.Errorf("GetByID(srv-files) = %+v", s)
	}
	if s := r.GetByID("missing"); s != nil {
		t.Errorf("GetByID(missing) should be nil")
	}
}

func TestRegistryConcurrentReadsDuringReload(t *testing.T) {
	r := seedRegistry(t, []RegistryServer{
		{ID: "srv-files", Name: "acme/srv-files", Description: "Filesystem access", Category: "files"},
	})

	// The dashboard reloads the catalog from a goroutine while tool
	// dispatch resolves server IDs. Hammer both sides; the race
	// detector flags any unguarded access.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Load()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if s := r.GetByID("srv-files"); s == nil {
					t.Error("catalog entry vanished during reload")
					return
				}
				_ = r.GetAll()
				_ = r.Search("files")
			}
		}()
	}
	wg.Wait()
}

func TestRegistrySearch(t *testing.T) {
	r := seedRegistry(t, []RegistryServer{
		{ID: "srv-files", Name: "acme/srv-files", Description: "Filesystem access", Category: "files"},
		{ID: "srv-search", Name: "acme/srv-search", Description: "Web search", Category: "search", Tags: []string{"web"}},
	})

	if got := r.Search("filesystem"); len(got) != 1 || got[0].ID != "srv-files" {
		t.Errorf("Search(filesystem) = %v", got)
	}
	// Tag matches count too
	if got := r.Search("web"); len(got) != 1 || got[0].ID != "srv-search" {
		t.Errorf("Search(web) = %v", got)
	}
	if got := r.Search("nothing-matches"); len(got) != 0 {
		t.Errorf("Search(nothing-matches) = %v", got)
	}
}

func TestRegistryCustomServers(t *testing.T) {
	r := seedRegistry(t, nil)

	warnings, err := r.AddCustomServer(&RegistryServer{
		Name:      "My Local Server",
		ServerURL: "http://localhost:9000/sse",
		Transport: "sse",
	})
	if err != nil {
		t.Fatalf("AddCustomServer: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("unverified custom server should produce warnings")
	}

	added := r.GetByID("my-local-server")
	if added == nil {
		t.Fatal("custom server not found after add")
	}
	if !added.Custom {
		t.Error("custom flag not set")
	}

	// Duplicate IDs are rejected
	if _, err := r.AddCustomServer(&RegistryServer{Name: "My Local Server"}); err == nil {
		t.Error("expected duplicate ID error")
	}

	if err := r.RemoveCustomServer("my-local-server"); err != nil {
		t.Fatalf("RemoveCustomServer: %v", err)
	}
	if r.GetByID("my-local-server") != nil {
		t.Error("custom server still present after remove")
	}

	if err := r.RemoveCustomServer("never-existed"); err == nil {
		t.Error("expected error removing unknown server")
	}
}

func TestSubstituteArgs(t *testing.T) {
	args := SubstituteArgs("-y --dir value::'Directory' --verbose", map[string]string{
		"ARG_0": "/home/user/docs",
	})

	want := []string{"-y", "--dir", "/home/user/docs", "--verbose"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}

	if got := SubstituteArgs("", nil); len(got) != 0 {
		t.Errorf("empty template should produce no args, got %v", got)
	}
}

func TestBuildEnvMap(t *testing.T) {
	env := BuildEnvMap("API_KEY REGION", map[string]string{
		"API_KEY":  "secret",
		"REGION":   "us-west",
		"UNLISTED": "ignored",
	})

	if env["API_KEY"] != "secret" || env["REGION"] != "us-west" {
		t.Errorf("env = %v", env)
	}
	if _, ok := env["UNLISTED"]; ok {
		t.Error("unlisted key should not be copied")
	}
}

func TestGenerateServerID(t *testing.T) {
	if got := generateServerID("My Local Server"); got != "my-local-server" {
		t.Errorf("generateServerID = %q", got)
	}
	if got := generateServerID("acme/srv_files!"); got != "acme-srv-files" {
		t.Errorf("generateServerID = %q", got)
	}
}
