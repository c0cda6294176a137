package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/mentis",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend: BackendConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		DefaultProvider:  "ollama",
		StreamingEnabled: true,
		ToolsEnabled:     false,
		Providers: []ProviderConfig{
			{
				ID:      "ollama",
				Name:    "Ollama",
				Enabled: true,
				BaseURL: "http://localhost:11434",
			},
		},
	}
}
