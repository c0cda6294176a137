package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
	"mentis/mcp"
	"mentis/model"
	"mentis/provider"
	"mentis/storage"
	"mentis/ui"
)

const Version = "v0.1.0"

func main() {
	// Validate environment variables first: partial env config is a
	// user error, not a fallback case
	if config.HasAnyEnvVar() && !config.HasAllEnvVars() {
		fmt.Fprintf(os.Stderr, "Missing environment variable: %s\n\n"+
			"When using environment variables, all 3 must be set:\n"+
			"  MENTIS_BACKEND_HOST\n"+
			"  MENTIS_MODEL\n"+
			"  MENTIS_DATA_DIR\n",
			config.GetMissingEnvVar())
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())

	sessionStorage, err := storage.NewSessionStorage(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize session storage: %v\n", err)
		os.Exit(1)
	}

	serverStore, err := storage.NewServerStore(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize server store: %v\n", err)
		os.Exit(1)
	}
	defer serverStore.Close()

	modelCache, err := storage.NewModelCache(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize model cache: %v\n", err)
		os.Exit(1)
	}
	defer modelCache.Close()

	// MCP components degrade gracefully: a broken registry disables
	// tool servers but never blocks the chat
	var mcpManager *mcp.Manager
	registry, err := mcp.NewRegistry(cfg.DataDir())
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Main] registry init failed: %v (tool servers disabled)", err)
		}
	} else {
		mcpManager = mcp.NewManager(cfg, serverStore, registry, cfg.DataDir())
	}

	// Load the last session if one is recorded
	var lastSession *storage.Session
	if lastSessionID, err := sessionStorage.LoadCurrentSessionID(); err == nil {
		lastSession, _ = sessionStorage.Load(lastSessionID)
	}

	dataModel := model.NewModel(cfg, sessionStorage, lastSession, serverStore, modelCache, mcpManager, Version)

	// All providers (local backend + enabled cloud providers)
	dataModel.Providers = provider.InitializeProviders(cfg)

	sessionProvider := cfg.DefaultProvider
	if lastSession != nil && lastSession.Provider != "" {
		sessionProvider = lastSession.Provider
	}
	if p := dataModel.Providers[sessionProvider]; p != nil {
		dataModel.Provider = p
	} else if p := dataModel.Providers[cfg.DefaultProvider]; p != nil {
		dataModel.Provider = p
	} else {
		dataModel.Provider = dataModel.Providers["ollama"]
	}

	p := tea.NewProgram(
		ui.NewAppView(dataModel),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running mentis: %v\n", err)
		os.Exit(1)
	}

	// Stop tool servers with a deadline; report any that hung
	if mcpManager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		unresponsive, err := mcpManager.ShutdownWithTracking(ctx)
		if err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Main] server shutdown: %v", err)
		}
		for _, name := range unresponsive {
			fmt.Fprintf(os.Stderr, "Warning: server %s did not stop cleanly\n", name)
		}
	}
}
