package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
	"mentis/model"
	"mentis/ollama"
	"mentis/storage"
)

// PingProviderMsg is sent when a provider credential check completes
type PingProviderMsg struct {
	ProviderID string
	Valid      bool
	Err        error
}

// SingleProviderModelsMsg is sent when models are fetched from one provider
type SingleProviderModelsMsg struct {
	ProviderID string
	Models     []ollama.ModelInfo
	Err        error
}

// ModelSyncMsg is sent when a console model sync completes
type ModelSyncMsg struct {
	ProviderID string
	Count      int
	Err        error
}

// PingProvider validates a provider's credentials by calling Ping().
// Used by the console to test API keys before fetching models.
func PingProvider(providerID, baseURL, apiKey string) tea.Cmd {
	return func() tea.Msg {
		providerType := MapProviderIDToType(providerID)

		p, err := NewProvider(Config{
			Type:    providerType,
			BaseURL: baseURL,
			APIKey:  apiKey,
			Model:   "",
		})

		if err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("failed to create provider: %w", err),
			}
		}

		ctx := context.Background()
		if err := p.Ping(ctx); err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("connection failed: %w", err),
			}
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Provider] Provider %s ping successful", providerID)
		}

		return PingProviderMsg{
			ProviderID: providerID,
			Valid:      true,
			Err:        nil,
		}
	}
}

// FetchSingleProviderModels fetches models from a specific provider.
// The assistant backend speaks the Ollama protocol and gets its own
// branch; everything else goes through the provider factory.
func FetchSingleProviderModels(providerID, baseURL, apiKey, backendURL string) tea.Cmd {
	return func() tea.Msg {
		var models []ollama.ModelInfo

		switch providerID {
		case "ollama":
			client, err := ollama.NewClient(backendURL, "")
			if err != nil {
				return SingleProviderModelsMsg{
					ProviderID: providerID,
					Err:        err,
				}
			}

			ctx := context.Background()
			modelInfos, err := client.ListModels(ctx)
			if err != nil {
				return SingleProviderModelsMsg{
					ProviderID: providerID,
					Err:        err,
				}
			}

			for i := range modelInfos {
				modelInfos[i].Provider = "ollama"
				modelInfos[i].InternalName = modelInfos[i].Name
			}

			models = modelInfos

		default:
			providerType := MapProviderIDToType(providerID)
			p, err := NewProvider(Config{
				Type:    providerType,
				BaseURL: baseURL,
				APIKey:  apiKey,
				Model:   "",
			})

			if err != nil {
				return SingleProviderModelsMsg{
					ProviderID: providerID,
					Err:        err,
				}
			}

			ctx := context.Background()
			fetchedModels, err := p.ListModels(ctx)
			if err != nil {
				return SingleProviderModelsMsg{
					ProviderID: providerID,
					Err:        err,
				}
			}

			models = fetchedModels
		}

		if config.Debug {
			config.DebugLog.Printf("[Provider] Fetched %d models from provider %s", len(models), providerID)
		}

		return SingleProviderModelsMsg{
			ProviderID: providerID,
			Models:     models,
			Err:        nil,
		}
	}
}

// DetailedLister is implemented by providers whose backend exposes
// pricing and context-window metadata.
type DetailedLister interface {
	ListModelsDetailed(ctx context.Context) ([]ProviderModel, error)
}

// SyncProviderModels refreshes the local model cache for one provider.
// Providers without detailed listings fall back to the plain model
// list with zeroed pricing.
func SyncProviderModels(providerID string, p model.Provider, cache *storage.ModelCache) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		var detailed []ProviderModel

		if lister, ok := p.(DetailedLister); ok {
			fetched, err := lister.ListModelsDetailed(ctx)
			if err != nil {
				return ModelSyncMsg{ProviderID: providerID, Err: err}
			}
			detailed = fetched
		} else {
			modelInfos, err := p.ListModels(ctx)
			if err != nil {
				return ModelSyncMsg{ProviderID: providerID, Err: err}
			}
			detailed = make([]ProviderModel, 0, len(modelInfos))
			for _, info := range modelInfos {
				detailed = append(detailed, NormalizeModel(providerID, map[string]interface{}{
					"id":   info.InternalName,
					"name": info.Name,
				}))
			}
		}

		cached := make([]storage.CachedModel, 0, len(detailed))
		now := time.Now()
		for _, dm := range detailed {
			cached = append(cached, storage.CachedModel{
				InternalName:  dm.InternalName,
				Name:          dm.Name,
				Provider:      providerID,
				Capabilities:  joinCapabilities(dm.Capabilities),
				ContextWindow: dm.ContextWindow,
				PricingInput:  dm.Pricing.Input,
				PricingOutput: dm.Pricing.Output,
				SyncedAt:      now,
			})
		}

		if err := cache.ReplaceProvider(providerID, cached); err != nil {
			return ModelSyncMsg{ProviderID: providerID, Err: fmt.Errorf("failed to cache models: %w", err)}
		}

		if config.Debug {
			config.DebugLog.Printf("[Provider] Synced %d models for provider %s", len(cached), providerID)
		}

		return ModelSyncMsg{ProviderID: providerID, Count: len(cached)}
	}
}

func joinCapabilities(caps []string) string {
	return strings.Join(caps, ",")
}
