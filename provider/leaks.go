package provider

import (
	"encoding/json"
	"regexp"

	"mentis/model"
)

// Some models (notably smaller OpenRouter-hosted ones) emit tool calls
// as plain text in the content stream instead of the API tool-call
// channel. These parsers recover such leaked calls so tool execution
// still works.

var (
	// {"name": "read_file", "parameters": {...}} possibly inside a
	// markdown code fence or a JSON array
	leakedJSONObjectRe = regexp.MustCompile(`(?s)\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"(?:param|parameters|input|args)"\s*:\s*\{.*?\}\s*\}`)

	// <function_call> {"name": ...} </function_call>
	leakedFunctionCallRe = regexp.MustCompile(`(?s)<function_call>\s*(\{.*?\})\s*</function_call>`)

	// Qwen-style XML: <function=read_file><parameter=path>Dockerfile</parameter></function>
	leakedXMLFunctionRe  = regexp.MustCompile(`(?s)<function=([a-zA-Z0-9_.\-]+)>(.*?)</function>`)
	leakedXMLParameterRe = regexp.MustCompile(`(?s)<parameter=([a-zA-Z0-9_.\-]+)>(.*?)</parameter>`)
)

// leakedCall covers the key variants models use for arguments.
type leakedCall struct {
	Name       string                 `json:"name"`
	Param      map[string]interface{} `json:"param"`
	Parameters map[string]interface{} `json:"parameters"`
	Input      map[string]interface{} `json:"input"`
	Args       map[string]interface{} `json:"args"`
}

func (c leakedCall) arguments() map[string]interface{} {
	switch {
	case c.Parameters != nil:
		return c.Parameters
	case c.Param != nil:
		return c.Param
	case c.Input != nil:
		return c.Input
	case c.Args != nil:
		return c.Args
	default:
		return map[string]interface{}{}
	}
}

// ParseLeakedJSONToolCalls scans content for tool calls leaked as JSON
// objects and returns any it can decode. Malformed candidates are
// skipped rather than reported.
func ParseLeakedJSONToolCalls(content string) []model.ToolCall {
	var calls []model.ToolCall

	var candidates []string
	for _, m := range leakedFunctionCallRe.FindAllStringSubmatch(content, -1) {
		candidates = append(candidates, m[1])
	}

	// Strip wrapped calls first so their payloads aren't matched twice
	remainder := leakedFunctionCallRe.ReplaceAllString(content, "")
	candidates = append(candidates, leakedJSONObjectRe.FindAllString(remainder, -1)...)

	for _, candidate := range candidates {
		var call leakedCall
		if err := json.Unmarshal([]byte(candidate), &call); err != nil {
			continue
		}
		if call.Name == "" {
			continue
		}
		calls = append(calls, model.ToolCall{
			Name:      call.Name,
			Arguments: call.arguments(),
		})
	}

	return calls
}

// ParseLeakedXMLToolCalls scans content for Qwen-style XML tool calls.
func ParseLeakedXMLToolCalls(content string) []model.ToolCall {
	var calls []model.ToolCall

	for _, fn := range leakedXMLFunctionRe.FindAllStringSubmatch(content, -1) {
		name := fn[1]
		body := fn[2]

		args := map[string]interface{}{}
		for _, param := range leakedXMLParameterRe.FindAllStringSubmatch(body, -1) {
			args[param[1]] = param[2]
		}

		calls = append(calls, model.ToolCall{
			Name:      name,
			Arguments: args,
		})
	}

	return calls
}
