package provider

import (
	"testing"
)

func TestParseLeakedJSONToolCalls(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCalls int
		wantName  string
	}{
		{
			name:      "plain text no calls",
			content:   "The weather in San Francisco is sunny today.",
			wantCalls: 0,
		},
		{
			name:      "leaked parameters object",
			content:   `Sure, let me check. {"name": "get_weather", "parameters": {"location": "SF"}}`,
			wantCalls: 1,
			wantName:  "get_weather",
		},
		{
			name:      "leaked inside code fence",
			content:   "```json\n{\"name\": \"read_file\", \"input\": {\"path\": \"Dockerfile\"}}\n```",
			wantCalls: 1,
			wantName:  "read_file",
		},
		{
			name:      "function_call wrapper",
			content:   `<function_call> {"name": "search", "args": {"query": "golang"}} </function_call>`,
			wantCalls: 1,
			wantName:  "search",
		},
		{
			name:      "malformed json skipped",
			content:   `{"name": "broken", "parameters": {"x": }`,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := ParseLeakedJSONToolCalls(tt.content)
			if len(calls) != tt.wantCalls {
				t.Fatalf("got %d calls, want %d", len(calls), tt.wantCalls)
			}
			if tt.wantCalls > 0 && calls[0].Name != tt.wantName {
				t.Errorf("call name = %q, want %q", calls[0].Name, tt.wantName)
			}
		})
	}
}

func TestParseLeakedJSONToolCallsArgumentVariants(t *testing.T) {
	content := `{"name": "calc", "args": {"expression": "2+2"}}`

	calls := ParseLeakedJSONToolCalls(content)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Arguments["expression"] != "2+2" {
		t.Errorf("arguments = %v", calls[0].Arguments)
	}
}

func TestParseLeakedXMLToolCalls(t *testing.T) {
	content := `Let me read that file.
<function=read_file>
<parameter=path>Dockerfile</parameter>
</function>`

	calls := ParseLeakedXMLToolCalls(content)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Name != "read_file" {
		t.Errorf("call name = %q", calls[0].Name)
	}
	if got := calls[0].Arguments["path"]; got != "Dockerfile" {
		t.Errorf(`Arguments["path"] = %v`, got)
	}
}

func TestParseLeakedXMLToolCallsMultipleParameters(t *testing.T) {
	content := `<function=write_file><parameter=path>/tmp/out.txt</parameter><parameter=content>data</parameter></function>`

	calls := ParseLeakedXMLToolCalls(content)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if len(calls[0].Arguments) != 2 {
		t.Errorf("got %d arguments, want 2", len(calls[0].Arguments))
	}
}
