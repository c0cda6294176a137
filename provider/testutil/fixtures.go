package testutil

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mentis/model"
)

// SampleConversation returns a short user/assistant exchange.
func SampleConversation() []model.Message {
	return []model.Message{
		{Role: "user", Content: "Hello, how are you?", Timestamp: time.Now()},
		{Role: "assistant", Content: "Doing well, thanks for asking.", Timestamp: time.Now()},
		{Role: "user", Content: "Can you help me with something?", Timestamp: time.Now()},
	}
}

// SingleUserMessage returns a one-message conversation.
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{Role: "user", Content: content, Timestamp: time.Now()},
	}
}

// SampleMCPTools returns tool definitions shaped like real MCP server output.
func SampleMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calculate",
			Description: "Perform a mathematical calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The mathematical expression to evaluate",
					},
				},
				Required: []string{"expression"},
			},
		},
	}
}
