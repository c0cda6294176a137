package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// ProviderConfig is one entry in the user config's [[providers]] array.
type ProviderConfig struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	Enabled      bool   `toml:"enabled"`
	BaseURL      string `toml:"base_url,omitempty"`
	DefaultModel string `toml:"default_model,omitempty"`
}

type BackendConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

type UserConfig struct {
	Backend             BackendConfig    `toml:"backend"`
	Providers           []ProviderConfig `toml:"providers,omitempty"`
	DefaultProvider     string           `toml:"default_provider,omitempty"`
	DefaultSystemPrompt string           `toml:"default_system_prompt,omitempty"`
	StreamingEnabled    bool             `toml:"streaming_enabled"`
	ToolsEnabled        bool             `toml:"tools_enabled"`
	Security            SecurityConfig   `toml:"security,omitempty"`
}

type SecurityConfig struct {
	Method     string `toml:"method,omitempty"` // "plaintext" or "ssh_key"
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

// Config is the flattened runtime configuration assembled from the system
// config, the user config, and environment overrides.
type Config struct {
	DataDirectory       string
	BackendHost         string
	DefaultModel        string
	DefaultProvider     string
	DefaultSystemPrompt string
	StreamingEnabled    bool
	ToolsEnabled        bool
	Providers           []ProviderConfig
	CredentialStore     *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) BackendURL() string {
	return c.BackendHost
}

func (c *Config) Model() string {
	return c.DefaultModel
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("MENTIS_BACKEND_HOST"); host != "" {
		c.BackendHost = host
	}
	if model := os.Getenv("MENTIS_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if dataDir := os.Getenv("MENTIS_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("MENTIS_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - may contain prompts and backend responses
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	// Debug implies DebugLog != nil; bare config.Debug guards rely on it
	Debug = true
	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (MENTIS_DEBUG=%s) ===", os.Getenv("MENTIS_DEBUG"))
}

func HasAllEnvVars() bool {
	return os.Getenv("MENTIS_BACKEND_HOST") != "" &&
		os.Getenv("MENTIS_MODEL") != "" &&
		os.Getenv("MENTIS_DATA_DIR") != ""
}

func HasAnyEnvVar() bool {
	return os.Getenv("MENTIS_BACKEND_HOST") != "" ||
		os.Getenv("MENTIS_MODEL") != "" ||
		os.Getenv("MENTIS_DATA_DIR") != ""
}

func GetMissingEnvVar() string {
	if os.Getenv("MENTIS_BACKEND_HOST") == "" {
		return "MENTIS_BACKEND_HOST"
	}
	if os.Getenv("MENTIS_MODEL") == "" {
		return "MENTIS_MODEL"
	}
	if os.Getenv("MENTIS_DATA_DIR") == "" {
		return "MENTIS_DATA_DIR"
	}
	return ""
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:    "~/.local/share/mentis",
		BackendHost:      "http://localhost:11434",
		DefaultModel:     "llama3.1:latest",
		DefaultProvider:  "ollama",
		StreamingEnabled: true,
	}

	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) && HasAllEnvVars() {
		cfg.applyEnvOverrides()
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory

		userCfg, err := LoadUserConfig(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
		cfg.BackendHost = userCfg.Backend.Host
		cfg.DefaultModel = userCfg.Backend.DefaultModel
		cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
		cfg.StreamingEnabled = userCfg.StreamingEnabled
		cfg.ToolsEnabled = userCfg.ToolsEnabled
		cfg.Providers = userCfg.Providers
		if userCfg.DefaultProvider != "" {
			cfg.DefaultProvider = userCfg.DefaultProvider
		}

		method := SecurityMethod(userCfg.Security.Method)
		if method == "" {
			method = SecurityPlainText
		}
		store := NewCredentialStore(method, ExpandPath(userCfg.Security.SSHKeyPath))
		if err := store.Load(cfg.DataDir()); err != nil {
			// Credentials are optional until a cloud provider is enabled
			if DebugLog != nil {
				DebugLog.Printf("[Config] credential load failed: %v", err)
			}
		}
		cfg.CredentialStore = store
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}
