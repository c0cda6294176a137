package provider

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"mentis/model"
)

func TestConvertToOllamaMessagesDropsLocalFields(t *testing.T) {
	input := []model.Message{
		{Role: "user", Content: "Hello", Rendered: "styled hello"},
		{Role: "assistant", Content: "Hi there"},
	}

	result := ConvertToOllamaMessages(input)

	if len(result) != 2 {
		t.Fatalf("got %d messages, want 2", len(result))
	}
	for i, msg := range result {
		if msg.Role != input[i].Role || msg.Content != input[i].Content {
			t.Errorf("message %d = {%q, %q}, want {%q, %q}",
				i, msg.Role, msg.Content, input[i].Role, input[i].Content)
		}
	}
}

func TestMessageRoundTrip(t *testing.T) {
	original := []model.Message{
		{Role: "user", Content: "Test message"},
		{Role: "assistant", Content: "Response"},
	}

	result := ConvertFromOllamaMessages(ConvertToOllamaMessages(original))

	if len(result) != len(original) {
		t.Fatalf("got %d messages, want %d", len(result), len(original))
	}
	for i := range result {
		if result[i].Role != original[i].Role || result[i].Content != original[i].Content {
			t.Errorf("message %d changed: got {%q, %q}", i, result[i].Role, result[i].Content)
		}
	}
}

func TestConvertToProviderToolCalls(t *testing.T) {
	input := []api.ToolCall{
		{Function: api.ToolCallFunction{
			Name:      "get_weather",
			Arguments: map[string]any{"city": "San Francisco"},
		}},
	}

	result := ConvertToProviderToolCalls(input)

	if len(result) != 1 {
		t.Fatalf("got %d calls, want 1", len(result))
	}
	if result[0].Name != "get_weather" {
		t.Errorf("name = %q", result[0].Name)
	}
	if result[0].Arguments["city"] != "San Francisco" {
		t.Errorf("arguments = %v", result[0].Arguments)
	}

	if got := ConvertToProviderToolCalls(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}

func TestParseToolArguments(t *testing.T) {
	args := ParseToolArguments(`{"path": "Dockerfile", "lines": 10}`)
	if args["path"] != "Dockerfile" {
		t.Errorf("args = %v", args)
	}

	// Malformed JSON degrades to an empty map, never nil
	broken := ParseToolArguments(`{"path": `)
	if broken == nil {
		t.Fatal("expected empty map for malformed input, got nil")
	}
	if len(broken) != 0 {
		t.Errorf("expected empty map, got %v", broken)
	}
}

func TestConvertToolNamesForOpenRouter(t *testing.T) {
	tools := []mcptypes.Tool{
		{Name: "server-filesystem.read_file"},
	}

	converted := convertToolNamesForOpenRouter(tools)

	if converted[0].Name != "server-filesystem__read_file" {
		t.Errorf("converted name = %q", converted[0].Name)
	}
	// Original slice must stay untouched
	if tools[0].Name != "server-filesystem.read_file" {
		t.Errorf("original mutated to %q", tools[0].Name)
	}

	if got := convertToolNameFromOpenRouter(converted[0].Name); got != "server-filesystem.read_file" {
		t.Errorf("round trip = %q", got)
	}
}
