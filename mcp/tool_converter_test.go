package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
)

func TestConvertMCPToolsToOllama(t *testing.T) {
	input := []mcptypes.Tool{
		{
			Name:        "calculate",
			Description: "Perform calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"operation": map[string]any{
						"type":        "string",
						"description": "The operation to perform",
						"enum":        []any{"add", "subtract", "multiply", "divide"},
					},
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				Required: []string{"operation", "a", "b"},
			},
		},
	}

	result := ConvertMCPToolsToOllama(input)

	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}
	tool := result[0]
	if tool.Type != "function" {
		t.Errorf("expected type 'function', got %q", tool.Type)
	}
	if tool.Function.Name != "calculate" {
		t.Errorf("name = %q", tool.Function.Name)
	}

	params := tool.Function.Parameters
	if params.Type != "object" {
		t.Errorf("parameters type = %q", params.Type)
	}
	if len(params.Required) != 3 {
		t.Errorf("expected 3 required fields, got %d", len(params.Required))
	}
	if len(params.Properties) != 3 {
		t.Errorf("expected 3 properties, got %d", len(params.Properties))
	}

	opProp, ok := params.Properties["operation"]
	if !ok {
		t.Fatal("operation property not found")
	}
	if opProp.Description != "The operation to perform" {
		t.Errorf("operation description mismatch")
	}
	if len(opProp.Enum) != 4 {
		t.Errorf("expected 4 enum values, got %d", len(opProp.Enum))
	}

	if got := ConvertMCPToolsToOllama(nil); len(got) != 0 {
		t.Errorf("nil input should produce no tools, got %d", len(got))
	}
}

func TestConvertPropertyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		validate func(t *testing.T, result api.ToolProperty)
	}{
		{
			name: "string type",
			input: map[string]any{
				"type":        "string",
				"description": "A string property",
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "string" {
					t.Errorf("expected type [string], got %v", result.Type)
				}
				if result.Description != "A string property" {
					t.Errorf("description mismatch")
				}
			},
		},
		{
			name: "array of types",
			input: map[string]any{
				"type": []any{"string", "number"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 2 {
					t.Errorf("expected 2 types, got %d", len(result.Type))
				}
			},
		},
		{
			name: "array property with items",
			input: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if result.Items == nil {
					t.Error("expected items to be set")
				}
			},
		},
		{
			name: "union via anyOf",
			input: map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "number"},
				},
			},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.AnyOf) != 2 {
					t.Errorf("expected 2 anyOf options, got %d", len(result.AnyOf))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertPropertyValue(tt.input)
			tt.validate(t, result)
		})
	}
}

func TestConvertOllamaToolCallToMCP(t *testing.T) {
	input := api.ToolCall{
		Function: api.ToolCallFunction{
			Name: "calculate",
			Arguments: map[string]any{
				"operation": "add",
				"a":         float64(5),
				"b":         float64(3),
			},
		},
	}

	name, args, err := ConvertOllamaToolCallToMCP(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "calculate" {
		t.Errorf("name = %q", name)
	}
	if len(args) != 3 || args["operation"] != "add" {
		t.Errorf("args = %v", args)
	}
}

func TestConvertMCPToolsToOpenAIFormat(t *testing.T) {
	tools := []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get current weather",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{"type": "string"},
				},
				Required: []string{"location"},
			},
		},
	}

	result := ConvertMCPToolsToOpenAIFormat(tools)
	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}

	if got := ConvertMCPToolsToOpenAIFormat(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}

func TestConvertMCPToolsToAnthropicFormat(t *testing.T) {
	tools := []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get current weather",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{"type": "string"},
				},
				Required: []string{"location"},
			},
		},
	}

	result := ConvertMCPToolsToAnthropicFormat(tools)
	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}
	if result[0].OfTool == nil {
		t.Fatal("expected tool variant to be set")
	}
	if result[0].OfTool.Name != "get_weather" {
		t.Errorf("name = %q", result[0].OfTool.Name)
	}

	if got := ConvertMCPToolsToAnthropicFormat(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}
