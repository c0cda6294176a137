// Package provider implements the LLM provider layer.
//
// Mentis talks to multiple providers (the Ollama-compatible assistant
// backend, OpenRouter, OpenAI, Anthropic) through the model.Provider
// interface. The interface itself lives in the model package to avoid
// import cycles; this package supplies the implementations, the
// factory, and the type conversions between mentis types and each
// SDK's types.
//
// # Usage
//
//	cfg := provider.Config{
//	    Type: provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model: "llama3.1",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	err = p.Chat(ctx, messages, callback)
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For cloud providers (unused for the Ollama backend)
}
