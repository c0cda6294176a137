package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	globalconfig "mentis/config"
)

// Client owns the live MCP server connections. Local servers run as
// child processes over stdio; remote servers connect over SSE or
// streamable HTTP.
type Client struct {
	processes map[string]*ServerProcess
	mu        sync.RWMutex
}

func NewClient() *Client {
	return &Client{
		processes: make(map[string]*ServerProcess),
	}
}

// Start launches or connects one server, initializes the MCP session
// and caches its tool list.
func (c *Client) Start(ctx context.Context, cfg ServerConfig) error {
	isRemote := cfg.ServerURL != ""

	c.mu.Lock()
	if proc := c.processes[cfg.ID]; proc != nil && proc.Status.IsRunning() {
		c.mu.Unlock()
		return fmt.Errorf("server %s already running", cfg.ID)
	}
	c.processes[cfg.ID] = &ServerProcess{
		ID:     cfg.ID,
		Name:   cfg.ID,
		Status: StatusStarting,
	}
	c.mu.Unlock()

	var mcpClient *client.Client
	var err error
	var capturedCmd *exec.Cmd

	if isRemote {
		mcpClient, err = c.createRemoteClient(ctx, cfg)
		if err != nil {
			c.markFailed(cfg.ID)
			return fmt.Errorf("failed to connect to remote server %s: %w", cfg.ID, err)
		}

		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] Connected to remote server '%s' at %s (auth: %s)",
				cfg.ID, cfg.ServerURL, cfg.AuthType)
		}
	} else {
		mcpClient, capturedCmd, err = c.createLocalClient(ctx, cfg)
		if err != nil {
			c.markFailed(cfg.ID)
			return fmt.Errorf("failed to start local server %s: %w", cfg.ID, err)
		}
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "mentis",
				Version: "1.0.0",
			},
		},
	}

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		c.markFailed(cfg.ID)
		return fmt.Errorf("failed to initialize server %s: %w", cfg.ID, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		// Connection is alive but tools are unavailable
		c.mu.Lock()
		c.processes[cfg.ID] = &ServerProcess{
			ID:        cfg.ID,
			Name:      cfg.ID,
			Process:   capturedCmd,
			Client:    mcpClient,
			Status:    StatusDegraded,
			IsRemote:  isRemote,
			ServerURL: cfg.ServerURL,
		}
		c.mu.Unlock()
		return fmt.Errorf("failed to list tools for %s: %w", cfg.ID, err)
	}

	c.mu.Lock()
	c.processes[cfg.ID] = &ServerProcess{
		ID:        cfg.ID,
		Name:      cfg.ID,
		Process:   capturedCmd, // nil for remote
		Client:    mcpClient,
		Tools:     toolsResult.Tools,
		Status:    StatusHealthy,
		IsRemote:  isRemote,
		ServerURL: cfg.ServerURL,
	}
	c.mu.Unlock()

	return nil
}

func (c *Client) markFailed(serverID string) {
	c.mu.Lock()
	if proc := c.processes[serverID]; proc != nil {
		proc.Status = StatusCrashed
	}
	c.mu.Unlock()
}

// Stop disconnects one server and kills its process if local. Close
// gets a short timeout so an unresponsive server can't hang shutdown.
func (c *Client) Stop(ctx context.Context, serverID string) error {
	c.mu.Lock()
	proc, exists := c.processes[serverID]
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("server %s not found", serverID)
	}
	proc.Status = StatusStopped
	delete(c.processes, serverID)
	c.mu.Unlock()

	if proc.Client != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		closeDone := make(chan error, 1)
		go func() {
			closeDone <- proc.Client.Close()
		}()

		select {
		case <-closeDone:
		case <-closeCtx.Done():
			if globalconfig.DebugLog != nil {
				globalconfig.DebugLog.Printf("[MCP] Stop: close timeout for '%s', killing process", serverID)
			}
		}
	}

	if !proc.IsRemote && proc.Process != nil && proc.Process.Process != nil {
		if err := proc.Process.Process.Kill(); err != nil {
			if globalconfig.DebugLog != nil {
				globalconfig.DebugLog.Printf("[MCP] Stop: error killing process for '%s': %v", serverID, err)
			}
		}
	}

	return nil
}

// Status returns the lifecycle state of one server.
func (c *Client) Status(serverID string) ServerStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	proc, exists := c.processes[serverID]
	if !exists {
		return StatusStopped
	}
	return proc.Status
}

// GetTools returns the namespaced tool list for the given servers.
// The map goes from server ID to short display name; tool names come
// back as "serverID.toolName" so calls can be routed later.
func (c *Client) GetTools(ctx context.Context, serverMap map[string]string) ([]mcptypes.Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var allTools []mcptypes.Tool
	for serverID := range serverMap {
		proc, exists := c.processes[serverID]
		if !exists || !proc.Status.IsRunning() {
			continue
		}

		for _, tool := range proc.Tools {
			namespacedTool := tool
			namespacedTool.Name = serverID + "." + tool.Name
			allTools = append(allTools, namespacedTool)
		}
	}

	return allTools, nil
}

// CallTool routes a namespaced tool call to the owning server.
func (c *Client) CallTool(ctx context.Context, toolName string, args map[string]any) (*mcptypes.CallToolResult, error) {
	serverID, actualToolName := parseToolName(toolName)

	c.mu.RLock()
	proc, exists := c.processes[serverID]
	c.mu.RUnlock()

	if !exists || !proc.Status.IsRunning() {
		return nil, fmt.Errorf("server %s not running", serverID)
	}

	return proc.Client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      actualToolName,
			Arguments: args,
		},
	})
}

// RefreshTools re-fetches the tool list for one running server.
func (c *Client) RefreshTools(ctx context.Context, serverID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	proc, exists := c.processes[serverID]
	if !exists || !proc.Status.IsRunning() {
		return fmt.Errorf("server %s not running", serverID)
	}

	toolsResult, err := proc.Client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		proc.Status = StatusDegraded
		return fmt.Errorf("failed to refresh tools: %w", err)
	}

	proc.Tools = toolsResult.Tools
	proc.Status = StatusHealthy
	return nil
}

// Shutdown stops all servers in parallel.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	serverIDs := make([]string, 0, len(c.processes))
	for id := range c.processes {
		serverIDs = append(serverIDs, id)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	errChan := make(chan error, len(serverIDs))

	for _, serverID := range serverIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.Stop(ctx, id); err != nil {
				errChan <- err
			}
		}(serverID)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	return nil
}

func parseToolName(namespacedName string) (string, string) {
	idx := strings.Index(namespacedName, ".")
	if idx == -1 {
		return "", namespacedName
	}
	return namespacedName[:idx], namespacedName[idx+1:]
}

// createRemoteClient connects to a remote MCP server over the
// configured transport.
func (c *Client) createRemoteClient(ctx context.Context, cfg ServerConfig) (*client.Client, error) {
	transportType := cfg.Transport
	if transportType == "" || transportType == "stdio" {
		transportType = "sse"
	}

	switch transportType {
	case "streamable-http":
		return c.createStreamableHTTPClient(ctx, cfg)
	case "sse":
		return c.createSSEClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown transport type: %s", transportType)
	}
}

func (c *Client) createSSEClient(ctx context.Context, cfg ServerConfig) (*client.Client, error) {
	headers := make(map[string]string)
	for key, value := range cfg.Env {
		headers[key] = value
	}

	var opts []transport.ClientOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHeaders(headers))
	}

	mcpClient, err := client.NewSSEMCPClient(cfg.ServerURL, opts...)
	if err != nil {
		return nil, err
	}

	// SSE transport must be started before Initialize/ListTools
	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	return mcpClient, nil
}

func (c *Client) createStreamableHTTPClient(ctx context.Context, cfg ServerConfig) (*client.Client, error) {
	headers := make(map[string]string)
	for key, value := range cfg.Env {
		headers[key] = value
	}

	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(cfg.ServerURL, opts...)
	if err != nil {
		return nil, err
	}

	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	return mcpClient, nil
}

// createLocalClient spawns a local server over stdio, capturing the
// child process so it can be killed on stop.
func (c *Client) createLocalClient(ctx context.Context, cfg ServerConfig) (*client.Client, *exec.Cmd, error) {
	env := configToEnv(cfg.Env, cfg.Config)
	var capturedCmd *exec.Cmd

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		cfg.EntryPoint,
		env,
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if capturedCmd != nil && capturedCmd.Process != nil && globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] Started local server '%s' with PID %d", cfg.ID, capturedCmd.Process.Pid)
	}

	return mcpClient, capturedCmd, nil
}

func configToEnv(envMap, configMap map[string]string) []string {
	// Preserve PATH and other system vars
	env := os.Environ()

	for k, v := range envMap {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	for k, v := range configMap {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return env
}
