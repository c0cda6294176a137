package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"mentis/config"
)

const registryURL = "https://raw.githubusercontent.com/mentis-ai/mentis-registry/main/servers.json"

// RegistryServer is one catalog entry: an MCP server that can be
// enabled for chat sessions.
type RegistryServer struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags,omitempty"`
	Repository  string        `json:"repository"`
	Author      string        `json:"author"`
	Version     string        `json:"version,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
	Transport   string        `json:"transport,omitempty"`
	ServerURL   string        `json:"server_url,omitempty"`
	AuthType    string        `json:"auth_type,omitempty"`
	Command     string        `json:"command,omitempty"`
	Args        string        `json:"args,omitempty"`
	Environment string        `json:"environment,omitempty"`
	RequiresKey bool          `json:"requires_key,omitempty"`
	Verified    bool          `json:"verified"`
	Official    bool          `json:"official"`
	Custom      bool          `json:"custom,omitempty"`
	Schema      []ConfigField `json:"config_schema,omitempty"`
}

// ConfigField describes one user-configurable setting for a server.
type ConfigField struct {
	Key          string
	Label        string
	Type         string
	Required     bool
	DefaultValue string
	Description  string
}

// Registry holds the server catalog: the official list cached on disk
// plus user-added custom servers. The dashboard refreshes the catalog
// from a goroutine while tool dispatch reads it, so all access goes
// through the mutex.
type Registry struct {
	mu            sync.RWMutex
	servers       []RegistryServer
	customServers []RegistryServer
	cacheDir      string
}

func NewRegistry(dataDir string) (*Registry, error) {
	cacheDir := filepath.Join(dataDir, "registry")
	if err := config.EnsureDir(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create registry cache dir: %w", err)
	}

	r := &Registry{
		cacheDir: cacheDir,
	}

	if err := r.Load(); err != nil {
		return nil, err
	}

	return r, nil
}

// Load reads the cached catalog and custom servers from disk. A
// missing or corrupt cache is not an error, just an empty catalog
// until the next Refresh.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cachedPath := filepath.Join(r.cacheDir, "server_registry.json")

	if config.FileExists(cachedPath) {
		data, err := os.ReadFile(cachedPath)
		if err == nil {
			var cached []RegistryServer
			if err := json.Unmarshal(data, &cached); err == nil {
				r.servers = cached
			}
		}
	}

	if len(r.servers) == 0 {
		r.servers = []RegistryServer{}
	}

	customPath := filepath.Join(r.cacheDir, "custom_servers.json")
	if config.FileExists(customPath) {
		data, err := os.ReadFile(customPath)
		if err == nil {
			if err := json.Unmarshal(data, &r.customServers); err == nil {
				for i := range r.customServers {
					r.customServers[i].Custom = true
				}
			}
		}
	}

	return nil
}

// Refresh fetches the official catalog and rewrites the disk cache.
// Custom servers are managed separately and survive a refresh.
func (r *Registry) Refresh() error {
	freshServers, err := fetchRegistry()
	if err != nil {
		return fmt.Errorf("failed to fetch server registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = freshServers

	cachedPath := filepath.Join(r.cacheDir, "server_registry.json")
	data, err := json.MarshalIndent(freshServers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal servers: %w", err)
	}

	if err := os.WriteFile(cachedPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return nil
}

func (r *Registry) GetAll() []RegistryServer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allLocked()
}

// allLocked merges official and custom entries. Caller holds r.mu.
func (r *Registry) allLocked() []RegistryServer {
	all := make([]RegistryServer, 0, len(r.servers)+len(r.customServers))
	all = append(all, r.servers...)
	all = append(all, r.customServers...)
	return all
}

func (r *Registry) Search(query string) []RegistryServer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.ToLower(query)
	var results []RegistryServer

	for _, s := range r.allLocked() {
		if strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.Description), query) ||
			strings.Contains(strings.ToLower(s.Category), query) ||
			containsTag(s.Tags, query) {
			results = append(results, s)
		}
	}

	return results
}

func (r *Registry) GetByID(id string) *RegistryServer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.allLocked() {
		if s.ID == id {
			return &s
		}
	}
	return nil
}

// AddCustomServer adds a user-defined server to the catalog. Returns
// trust warnings for the confirmation screen.
func (r *Registry) AddCustomServer(server *RegistryServer) ([]string, error) {
	if server == nil {
		return nil, fmt.Errorf("server cannot be nil")
	}

	server.Custom = true
	if server.ID == "" {
		server.ID = generateServerID(server.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.customServers {
		if s.ID == server.ID {
			return nil, fmt.Errorf("server with ID %s already exists", server.ID)
		}
	}

	var warnings []string
	if !server.Verified {
		warnings = append(warnings, "this server is not verified")
	}
	if server.Repository == "" && server.ServerURL == "" {
		warnings = append(warnings, "no repository or server URL provided")
	}

	r.customServers = append(r.customServers, *server)

	if err := r.saveCustomServers(); err != nil {
		return nil, fmt.Errorf("failed to save custom servers: %w", err)
	}

	return warnings, nil
}

func (r *Registry) RemoveCustomServer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false

	for i, s := range r.customServers {
		if s.ID == id {
			r.customServers = append(r.customServers[:i], r.customServers[i+1:]...)
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("server not found")
	}

	return r.saveCustomServers()
}

func (r *Registry) saveCustomServers() error {
	customPath := filepath.Join(r.cacheDir, "custom_servers.json")
	data, err := json.MarshalIndent(r.customServers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(customPath, data, 0600)
}

func fetchRegistry() ([]RegistryServer, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(registryURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var servers []RegistryServer
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return nil, fmt.Errorf("failed to parse registry JSON: %w", err)
	}

	return servers, nil
}

func generateServerID(name string) string {
	id := strings.ToLower(name)
	id = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}

func containsTag(tags []string, query string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// SubstituteArgs replaces value::'Label' placeholders in a server's
// args template with values from the user's config, then splits the
// result into an argv slice.
func SubstituteArgs(argsString string, userConfig map[string]string) []string {
	if argsString == "" {
		return []string{}
	}

	result := argsString
	re := regexp.MustCompile(`value::'([^']+)'`)
	matches := re.FindAllStringSubmatch(argsString, -1)

	for i, match := range matches {
		key := fmt.Sprintf("ARG_%d", i)
		result = strings.Replace(result, match[0], userConfig[key], 1)
	}

	return strings.Fields(result)
}

// BuildEnvMap picks the server's declared environment variables out of
// the user config.
func BuildEnvMap(envString string, userConfig map[string]string) map[string]string {
	envMap := make(map[string]string)

	if envString != "" {
		for _, envVar := range strings.Fields(envString) {
			if val, ok := userConfig[envVar]; ok {
				envMap[envVar] = val
			}
		}
	}

	return envMap
}
