package provider

import (
	"mentis/config"
	"mentis/model"
)

// InitializeProviders creates all provider instances for the
// application: the backend (Ollama-compatible) provider plus every
// enabled cloud provider from config, with API keys pulled from the
// credential store. Failures degrade gracefully - a provider that
// cannot be created is logged and skipped so the app still starts.
//
// The returned map is keyed by provider ID ("ollama", "openrouter",
// "anthropic", ...).
func InitializeProviders(cfg *config.Config) map[string]model.Provider {
	providers := make(map[string]model.Provider)

	// Backend provider first - always attempted
	backend := initializeBackend(cfg)
	if backend != nil {
		providers["ollama"] = backend
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized backend provider")
		}
	} else {
		if config.Debug {
			config.DebugLog.Printf("[Provider] Backend provider initialization failed (offline mode)")
		}
	}

	for _, providerCfg := range cfg.Providers {
		if !providerCfg.Enabled || providerCfg.ID == "ollama" {
			continue
		}

		apiKey := ""
		if cfg.CredentialStore != nil {
			apiKey = cfg.CredentialStore.Get(providerCfg.ID)
		}

		providerType := MapProviderIDToType(providerCfg.ID)

		p, err := NewProvider(Config{
			Type:    providerType,
			BaseURL: providerCfg.BaseURL,
			APIKey:  apiKey,
			Model:   providerCfg.DefaultModel,
		})

		if err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Provider] Warning: failed to initialize provider %s: %v", providerCfg.ID, err)
			}
			continue
		}

		providers[providerCfg.ID] = p
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized provider: %s (type: %s)", providerCfg.ID, providerType)
		}
	}

	return providers
}

// initializeBackend creates the Ollama-compatible backend provider.
// Returns nil on failure so the app can run offline.
func initializeBackend(cfg *config.Config) model.Provider {
	p, err := NewProvider(Config{
		Type:    ProviderTypeOllama,
		BaseURL: cfg.BackendURL(),
		Model:   cfg.Model(),
	})
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Provider] backend provider creation failed: %v", err)
		}
		return nil
	}

	return p
}
