package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mentis/config"
	"mentis/ollama"
)

// Provider abstracts LLM provider implementations (Ollama backend,
// OpenRouter, Anthropic) using provider-agnostic types from the model
// layer.
//
// This interface is defined in the model package (not provider package)
// to avoid import cycles: provider implementations can import model, and
// model can use the Provider interface without importing the provider
// package.
type Provider interface {
	// Chat sends messages and streams responses back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams responses.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)

	// GetModel returns the currently selected model name (InternalName for API calls).
	// For OpenRouter, this returns the full name with vendor prefix (e.g., "qwen/qwen3-coder:free").
	GetModel() string

	// GetDisplayName returns the model name formatted for UI display.
	// For OpenRouter, this strips the vendor prefix. For the Ollama
	// backend, this returns the same value as GetModel().
	GetDisplayName() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each chunk of streamed response.
type StreamCallback func(chunk string, toolCalls []ToolCall) error

// ToolCall is a provider-agnostic tool invocation surfaced by a stream
type ToolCall struct {
	Name      string
	Arguments map[string]interface{}
}

// StatusEvent is a backend-reported progress event for an in-flight
// response. Stage names one of Stages; Code and Meta are free-form
// detail passed through to the status strip.
type StatusEvent struct {
	Stage string
	Code  string
	Meta  map[string]interface{}
}

// ShouldBlockOnBackendValidation returns true if backend validation
// errors should prevent saving settings. The backend must be reachable
// only when it is the default provider and enabled; OpenRouter-only
// users can save settings while the backend host is down.
func ShouldBlockOnBackendValidation(cfg *config.Config) bool {
	if cfg.DefaultProvider != "ollama" && cfg.DefaultProvider != "" {
		return false
	}

	for _, p := range cfg.Providers {
		if p.ID == "ollama" && !p.Enabled {
			return false
		}
	}

	return true
}
