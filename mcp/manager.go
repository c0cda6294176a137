package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mentis/config"
	"mentis/storage"
)

// Manager coordinates MCP servers for the app: which are installed,
// which are running, and which tools the current session may use.
type Manager struct {
	mu             sync.RWMutex
	config         *config.Config
	serverStore    *storage.ServerStore
	registry       *Registry
	client         *Client
	currentSession *storage.Session
	activeServers  map[string]bool
	failedServers  map[string]error
	dataDir        string
}

// ServerInfo is one dashboard row.
type ServerInfo struct {
	ID       string
	Name     string
	Version  string
	Status   ServerStatus
	Conflict ConflictStatus
	Detail   string
}

func NewManager(cfg *config.Config, serverStore *storage.ServerStore, registry *Registry, dataDir string) *Manager {
	return &Manager{
		config:        cfg,
		serverStore:   serverStore,
		registry:      registry,
		client:        NewClient(),
		activeServers: make(map[string]bool),
		failedServers: make(map[string]error),
		dataDir:       dataDir,
	}
}

// RefreshRegistry re-fetches the server registry feed
func (m *Manager) RefreshRegistry() error {
	if m.registry == nil {
		return fmt.Errorf("registry not initialized")
	}
	return m.registry.Refresh()
}

func (m *Manager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ToolsEnabled
}

// SetSession updates the current session reference. Servers keep
// running; GetTools filters by session.EnabledServers.
func (m *Manager) SetSession(session *storage.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentSession = session
	return nil
}

// GetTools returns the namespaced tools from servers enabled in the
// current session.
func (m *Manager) GetTools(ctx context.Context) ([]mcptypes.Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		return nil, nil
	}

	if m.currentSession == nil {
		return nil, nil
	}

	serverMap := m.enabledServersLocked()
	if len(serverMap) == 0 {
		return nil, nil
	}

	return m.client.GetTools(ctx, serverMap)
}

func (m *Manager) enabledServersLocked() map[string]string {
	if m.currentSession == nil {
		return nil
	}

	serverMap := make(map[string]string)
	for _, serverID := range m.currentSession.GetEnabledServers() {
		if !m.serverStore.IsInstalled(serverID) {
			continue
		}
		if !m.activeServers[serverID] {
			continue
		}

		shortName := serverID
		if server := m.registry.GetByID(serverID); server != nil {
			shortName = GetShortServerName(server.Name)
		}
		serverMap[serverID] = shortName
	}

	return serverMap
}

// ExecuteTool runs a namespaced tool call ("serverID.toolName").
func (m *Manager) ExecuteTool(ctx context.Context, toolName string, args map[string]any) (*mcptypes.CallToolResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] ExecuteTool(%s) rejected, tools disabled", toolName)
		}
		return nil, fmt.Errorf("tools are disabled")
	}

	return m.client.CallTool(ctx, toolName, args)
}

// StartAllInstalled starts every installed server. Called once at
// startup; failures are recorded rather than aborting the rest.
func (m *Manager) StartAllInstalled(ctx context.Context) error {
	if !m.config.ToolsEnabled {
		return nil
	}

	installed, err := m.serverStore.List()
	if err != nil {
		return fmt.Errorf("failed to list installed servers: %w", err)
	}

	for _, server := range installed {
		m.mu.RLock()
		running := m.activeServers[server.ID]
		m.mu.RUnlock()
		if running {
			continue
		}

		if err := m.StartServer(ctx, server.ID); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] StartAllInstalled: failed to start '%s': %v", server.ID, err)
			}
		}
	}

	return nil
}

// StartServer starts one installed server.
func (m *Manager) StartServer(ctx context.Context, serverID string) error {
	m.mu.Lock()

	if !m.config.ToolsEnabled {
		m.mu.Unlock()
		return nil
	}

	// A previous failure is cleared so the server can be retried
	if m.failedServers[serverID] != nil {
		delete(m.activeServers, serverID)
		delete(m.failedServers, serverID)
	}

	if m.activeServers[serverID] {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	installed, err := m.serverStore.Load(serverID)
	if err != nil || installed == nil {
		return fmt.Errorf("server not installed: %s", serverID)
	}

	registryEntry := m.registry.GetByID(serverID)

	cfg := m.buildServerConfig(registryEntry, installed)

	if cfg.EntryPoint == "" && cfg.ServerURL == "" {
		return fmt.Errorf("no command or URL for server: %s", serverID)
	}

	// Starting a server can be slow; the lock is not held here
	if err := m.client.Start(ctx, cfg); err != nil {
		m.mu.Lock()
		// Mark active AND failed so it surfaces as crashed in the dashboard
		m.activeServers[serverID] = true
		m.failedServers[serverID] = err
		m.mu.Unlock()
		return fmt.Errorf("failed to start server: %w", err)
	}

	m.mu.Lock()
	m.activeServers[serverID] = true
	m.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started server '%s'", serverID)
	}

	return nil
}

// StopServer stops one running server.
func (m *Manager) StopServer(ctx context.Context, serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeServers[serverID] {
		return nil
	}

	if m.failedServers[serverID] == nil {
		if err := m.client.Stop(ctx, serverID); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
	}

	delete(m.activeServers, serverID)
	delete(m.failedServers, serverID)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Stopped server '%s'", serverID)
	}

	return nil
}

// ToggleServer flips one server between running and stopped. The
// dashboard binds this to its toggle key.
func (m *Manager) ToggleServer(ctx context.Context, serverID string) (bool, error) {
	m.mu.RLock()
	running := m.activeServers[serverID] && m.failedServers[serverID] == nil
	m.mu.RUnlock()

	if running {
		if err := m.StopServer(ctx, serverID); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := m.StartServer(ctx, serverID); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) buildServerConfig(registryEntry *RegistryServer, installed *storage.InstalledServer) ServerConfig {
	cfg := ServerConfig{
		ID:        installed.ID,
		Transport: installed.Transport,
		ServerURL: installed.ServerURL,
		AuthType:  installed.AuthType,
		Env:       make(map[string]string),
		Config:    make(map[string]string),
	}

	if registryEntry != nil {
		if cfg.Transport == "" {
			cfg.Transport = registryEntry.Transport
		}
		if cfg.ServerURL == "" {
			cfg.ServerURL = registryEntry.ServerURL
		}
		if registryEntry.Command != "" {
			parts := strings.Fields(registryEntry.Command)
			if len(parts) > 0 {
				cfg.EntryPoint = parts[0]
				cfg.Args = append(parts[1:], SubstituteArgs(registryEntry.Args, cfg.Config)...)
			}
		}
		cfg.Env = BuildEnvMap(registryEntry.Environment, cfg.Config)
	}

	return cfg
}

// ServerStatuses builds the dashboard view: one row per installed
// server with lifecycle and conflict state.
func (m *Manager) ServerStatuses() ([]ServerInfo, error) {
	installed, err := m.serverStore.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list installed servers: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]ServerInfo, 0, len(installed))
	for _, server := range installed {
		info := ServerInfo{
			ID:      server.ID,
			Name:    server.Name,
			Version: server.Version,
		}

		registryEntry := m.registry.GetByID(server.ID)

		switch {
		case m.failedServers[server.ID] != nil:
			info.Status = StatusCrashed
			info.Detail = m.failedServers[server.ID].Error()
		case m.activeServers[server.ID]:
			info.Status = m.client.Status(server.ID)
		case registryEntry == nil:
			// Installed but no longer in the catalog
			info.Status = StatusOrphaned
		default:
			info.Status = StatusStopped
		}

		info.Conflict = detectConflict(&server, registryEntry, installed)
		rows = append(rows, info)
	}

	return rows, nil
}

// detectConflict compares an installed server against the registry and
// its siblings. Two installs sharing a name is a conflict; a newer
// registry version is an available update.
func detectConflict(server *storage.InstalledServer, registryEntry *RegistryServer, installed []storage.InstalledServer) ConflictStatus {
	for _, other := range installed {
		if other.ID != server.ID && other.Name == server.Name {
			return ConflictDetected
		}
	}

	if registryEntry != nil && registryEntry.Version != "" &&
		server.Version != "" && registryEntry.Version != server.Version {
		return ConflictUpdateAvailable
	}

	return ConflictNone
}

// Shutdown stops all servers and clears state.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		if err := m.client.Shutdown(ctx); err != nil {
			return err
		}
	}

	m.activeServers = make(map[string]bool)
	m.failedServers = make(map[string]error)
	m.currentSession = nil

	return nil
}

// ShutdownWithTracking shuts down with a deadline and reports the
// servers that did not respond in time.
func (m *Manager) ShutdownWithTracking(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	activeNames := make([]string, 0, len(m.activeServers))
	for serverID := range m.activeServers {
		if server := m.registry.GetByID(serverID); server != nil {
			activeNames = append(activeNames, server.Name)
		} else {
			activeNames = append(activeNames, serverID)
		}
	}
	m.mu.RUnlock()

	resultChan := make(chan error, 1)
	go func() {
		resultChan <- m.Shutdown(ctx)
	}()

	select {
	case err := <-resultChan:
		return []string{}, err
	case <-ctx.Done():
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] ShutdownWithTracking: timeout, unresponsive servers: %v", activeNames)
		}
		return activeNames, ctx.Err()
	}
}

// Restart performs a full stop/start cycle of all installed servers.
func (m *Manager) Restart(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return m.StartAllInstalled(ctx)
}

// GetActiveServerNames returns display names of running servers.
func (m *Manager) GetActiveServerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		return nil
	}

	var names []string
	for serverID, active := range m.activeServers {
		if !active || m.failedServers[serverID] != nil {
			continue
		}
		if server := m.registry.GetByID(serverID); server != nil {
			names = append(names, server.Name)
		}
	}

	return names
}

// GetSessionEnabledServerNames returns short display names of servers
// enabled for a session, for the title bar.
func (m *Manager) GetSessionEnabledServerNames(session *storage.Session) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled || session == nil {
		return nil
	}

	var names []string
	for _, serverID := range session.EnabledServers {
		if server := m.registry.GetByID(serverID); server != nil {
			names = append(names, GetShortServerName(server.Name))
		}
	}

	return names
}

// HasUnavailableSessionServers reports whether any server enabled in
// the session is not actually usable right now. Drives the warning
// indicator in the title bar.
func (m *Manager) HasUnavailableSessionServers(session *storage.Session) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session == nil || len(session.EnabledServers) == 0 {
		return false
	}

	if !m.config.ToolsEnabled {
		return true
	}

	for _, serverID := range session.EnabledServers {
		if !m.activeServers[serverID] || m.failedServers[serverID] != nil {
			return true
		}
	}

	return false
}

// GetServerShortName returns the short display name for a server ID,
// empty when the server is unknown.
func (m *Manager) GetServerShortName(serverID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if server := m.registry.GetByID(serverID); server != nil {
		return GetShortServerName(server.Name)
	}
	return ""
}

// GetFailedServers returns a copy of the failure map.
func (m *Manager) GetFailedServers() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[string]error, len(m.failedServers))
	for k, v := range m.failedServers {
		failures[k] = v
	}
	return failures
}

// GetShortServerName extracts the short display name from a full
// server name. "ihor-sokoliuk/mcp-searxng" becomes "mcp-searxng".
func GetShortServerName(fullName string) string {
	if idx := strings.LastIndex(fullName, "/"); idx != -1 {
		return fullName[idx+1:]
	}
	return fullName
}
