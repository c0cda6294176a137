package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// buildToolInstructions creates the execution guidance prepended as a
// system message when tools are available. Hosted models reliably call
// tools but tend to narrate instead of executing; the instructions push
// them toward immediate calls.
func buildToolInstructions(tools []mcptypes.Tool) string {
	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return strings.Join([]string{
		"TOOLS: " + strings.Join(toolNames, ", "),
		"",
		"When the user asks you to do something that requires a tool:",
		"1. Determine which tool is needed",
		"2. Check if you have all required parameters",
		"3. If yes: Execute the tool IMMEDIATELY without explanation",
		"4. If no: Ask for the missing parameter ONLY",
		"",
		"DO NOT:",
		"- List available tools",
		"- Explain what you're about to do",
		"- Ask 'what would you like me to do?'",
		"",
		"Example:",
		"User: 'Read Dockerfile'",
		"You: [call read_file('Dockerfile')]",
		"NOT: 'I can read files. What would you like?'",
	}, "\n")
}

// buildOpenAIToolInstructions returns tool guidance for GPT-family and
// OpenRouter-hosted models.
func buildOpenAIToolInstructions(tools []mcptypes.Tool) string {
	return buildToolInstructions(tools)
}

// buildAnthropicToolInstructions returns tool guidance for Claude models.
func buildAnthropicToolInstructions(tools []mcptypes.Tool) string {
	return buildToolInstructions(tools)
}
