package model

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mentis/config"
)

// BuildSystemPrompt returns the system prompt for the current session or default
func (m *Model) BuildSystemPrompt() string {
	if m.CurrentSession != nil && m.CurrentSession.SystemPrompt != "" {
		return m.CurrentSession.SystemPrompt
	}
	if m.Config.DefaultSystemPrompt != "" {
		return m.Config.DefaultSystemPrompt
	}
	return ""
}

// buildMinimalToolPrompt creates ultra-minimal tool instructions that
// work across model sizes: what tools exist, when to use them, and to
// execute silently.
func buildMinimalToolPrompt(tools []mcptypes.Tool) string {
	toolNames := []string{}
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return fmt.Sprintf(
		"TOOLS: %s\n\n"+
			"If you don't know something → use a tool.\n"+
			"Otherwise → answer directly.\n\n"+
			"Don't tell the user how you will use a tool. Just execute the tool call.",
		strings.Join(toolNames, ", "),
	)
}

// buildAPIMessages converts UI messages to provider messages.
// Layer 1: minimal tool instructions (only if tools present)
// Layer 2: user's system prompt (behavioral context)
// Layer 3: conversation messages (task)
func buildAPIMessages(uiMessages []Message, systemPrompt string, tools []mcptypes.Tool) []Message {
	var messages []Message

	if len(tools) > 0 {
		messages = append(messages, Message{
			Role:    "system",
			Content: buildMinimalToolPrompt(tools),
		})
	}

	if systemPrompt != "" {
		messages = append(messages, Message{
			Role:    "system",
			Content: systemPrompt,
		})
	}

	for _, msg := range uiMessages {
		if msg.Role == "user" || msg.Role == "assistant" {
			messages = append(messages, Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	return messages
}

// SendToBackend sends the current conversation to the active provider
// and collects the streamed response
func (m *Model) SendToBackend() tea.Cmd {
	client := m.ActiveProvider()
	currentSession := m.CurrentSession

	// Ensure model is set on provider (session.Model holds InternalName)
	if currentSession != nil && currentSession.Model != "" {
		client.SetModel(currentSession.Model)
	}

	mcpManager := m.MCPManager
	toolsEnabled := mcpManager != nil && mcpManager.IsEnabled()
	systemPrompt := m.BuildSystemPrompt()
	uiMessages := m.Messages
	generation := m.StatusGeneration
	streamingDisplay := m.Config.StreamingEnabled

	return func() tea.Msg {
		if config.DebugLog != nil {
			config.DebugLog.Printf("SendToBackend goroutine started")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		var mcpTools []mcptypes.Tool
		if toolsEnabled && mcpManager != nil && currentSession != nil {
			var err error
			mcpTools, err = mcpManager.GetTools(ctx)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("WARNING: tool listing failed: %v", err)
				}
				mcpTools = nil
			} else if config.DebugLog != nil {
				config.DebugLog.Printf("Loaded %d tools for current session", len(mcpTools))
			}
		}

		messages := buildAPIMessages(uiMessages, systemPrompt, mcpTools)

		var chunks []string
		var responseBuilder strings.Builder
		var detectedToolCalls []ToolCall
		startTime := time.Now()

		err := client.ChatWithTools(ctx, messages, mcpTools, func(chunk string, toolCalls []ToolCall) error {
			responseBuilder.WriteString(chunk)
			chunks = append(chunks, chunk)
			if len(toolCalls) > 0 && len(detectedToolCalls) == 0 {
				detectedToolCalls = toolCalls
			}
			return nil
		})

		elapsed := time.Since(startTime)

		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Backend error after %v: %v", elapsed, err)
			}
			return StreamErrorMsg{Err: err, Generation: generation}
		}

		response := responseBuilder.String()
		if config.DebugLog != nil {
			config.DebugLog.Printf("Backend response received after %v - %d chunks, %d chars", elapsed, len(chunks), len(response))
		}

		if len(detectedToolCalls) > 0 {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Tool calls detected: %d", len(detectedToolCalls))
			}
			return ToolCallsDetectedMsg{
				ToolCalls:       detectedToolCalls,
				InitialResponse: response,
				ContextMessages: messages,
				Generation:      generation,
			}
		}

		if !streamingDisplay {
			return StreamDoneMsg{
				FullResponse: cleanLeakedToolCalls(response),
				Generation:   generation,
			}
		}

		return StreamChunksCollectedMsg{
			Chunks:       chunks,
			FullResponse: cleanLeakedToolCalls(response),
			Generation:   generation,
		}
	}
}

// ExecuteToolsAndContinue runs detected tool calls through the MCP
// manager, sends the results back to the provider, and returns the
// combined response. The executed calls are re-emitted as tool_call
// markup so the renderer shows status cards for them.
func (m *Model) ExecuteToolsAndContinue(msg ToolCallsDetectedMsg) tea.Cmd {
	mcpManager := m.MCPManager
	client := m.ActiveProvider()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		if config.DebugLog != nil {
			config.DebugLog.Printf("Executing %d tool calls", len(msg.ToolCalls))
		}

		var toolMarkup strings.Builder
		var toolResultMsgs []Message

		for i, toolCall := range msg.ToolCalls {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Executing tool call %d: %s", i+1, toolCall.Name)
			}

			status := ToolCallSuccess
			var resultContent string

			result, err := mcpManager.ExecuteTool(ctx, toolCall.Name, toolCall.Arguments)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("Error executing tool %s: %v", toolCall.Name, err)
				}
				status = ToolCallError
				resultContent = fmt.Sprintf("Error executing %s: %v", toolCall.Name, err)
			} else if len(result.Content) > 0 {
				resultBytes, merr := json.Marshal(result.Content)
				if merr == nil {
					resultContent = string(resultBytes)
				} else {
					resultContent = fmt.Sprintf("Tool result (marshal error): %v", merr)
				}
			} else {
				resultContent = "Tool executed successfully (no output)"
			}

			toolMarkup.WriteString(toolCallMarkup(toolCall, status))
			toolResultMsgs = append(toolResultMsgs, Message{
				Role:    "tool",
				Content: resultContent,
			})
		}

		// Build complete message history for the follow-up round
		fullMessages := msg.ContextMessages
		fullMessages = append(fullMessages, Message{
			Role:    "assistant",
			Content: msg.InitialResponse,
		})
		fullMessages = append(fullMessages, toolResultMsgs...)

		if config.DebugLog != nil {
			config.DebugLog.Printf("Sending %d messages back to provider (including %d tool results)",
				len(fullMessages), len(toolResultMsgs))
		}

		// Follow-up round without tools so the provider summarizes
		// instead of chaining further calls
		var chunks []string
		var responseBuilder strings.Builder

		err := client.ChatWithTools(ctx, fullMessages, nil, func(chunk string, toolCalls []ToolCall) error {
			responseBuilder.WriteString(chunk)
			chunks = append(chunks, chunk)
			return nil
		})

		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Error getting response after tools: %v", err)
			}
			return ToolExecutionErrorMsg{Err: err, Generation: msg.Generation}
		}

		finalResponse := cleanLeakedToolCalls(responseBuilder.String())

		var full strings.Builder
		if trimmed := strings.TrimSpace(cleanLeakedToolCalls(msg.InitialResponse)); trimmed != "" {
			full.WriteString(trimmed)
			full.WriteString("\n")
		}
		full.WriteString(toolMarkup.String())
		full.WriteString(finalResponse)

		return ToolExecutionCompleteMsg{
			Chunks:       chunks,
			FullResponse: full.String(),
			Generation:   msg.Generation,
		}
	}
}

// toolCallMarkup renders one executed call as the canonical tag the
// normalizer parses back into a status card
func toolCallMarkup(call ToolCall, status ToolCallStatus) string {
	payload := struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments,omitempty"`
		Status    string                 `json:"status"`
	}{call.Name, call.Arguments, string(status)}

	body, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return toolOpen + string(body) + toolClose + "\n"
}

// FetchModelList retrieves the list of available models.
// showSelector: whether to auto-show the model selector after fetch
// (user-initiated vs background).
func (m *Model) FetchModelList(showSelector bool) tea.Cmd {
	client := m.ActiveProvider()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		return ModelsListMsg{
			Models:       models,
			Err:          err,
			ShowSelector: showSelector,
		}
	}
}

// cleanLeakedToolCalls removes leaked JSON/XML tool calls from content.
// This prevents leaked tool call text from polluting provider context
// and user display. The canonical <tool_call>{...}</tool_call> markup
// produced by toolCallMarkup does not match these patterns.
func cleanLeakedToolCalls(content string) string {
	// Remove JSON array tool calls (with argument variations)
	jsonArrayRegex := regexp.MustCompile(`\[\s*\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"(?:param|parameters|input)"\s*:\s*\{[^}]*\}\s*\}\s*\]`)
	content = jsonArrayRegex.ReplaceAllString(content, "")

	// Remove single JSON object tool calls (with argument variations)
	jsonObjRegex := regexp.MustCompile(`\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"(?:param|parameters|input)"\s*:\s*\{[^}]*\}\s*\}`)
	content = jsonObjRegex.ReplaceAllString(content, "")

	// Remove XML-element style tool calls
	xmlRegex := regexp.MustCompile(`<(?:function_call)>\s*<name>[^<]+</name>\s*<arguments>[^<]*</arguments>\s*</(?:function_call)>`)
	content = xmlRegex.ReplaceAllString(content, "")

	// Remove qwen3-coder style XML tool calls (multiline)
	qwenXmlRegex := regexp.MustCompile(`(?s)<function=[^>]+><parameter=[^>]+>.*?</parameter></function>`)
	content = qwenXmlRegex.ReplaceAllString(content, "")

	return strings.TrimSpace(content)
}
