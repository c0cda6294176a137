package model

import (
	"encoding/json"
	"strings"
)

// BlockType identifies the kind of display block a message segment
// normalizes into.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockThought  BlockType = "thought"
	BlockToolCall BlockType = "tool_call"
)

// ToolCallStatus is the run state shown on a tool call card
type ToolCallStatus string

const (
	ToolCallRunning ToolCallStatus = "running"
	ToolCallSuccess ToolCallStatus = "success"
	ToolCallError   ToolCallStatus = "error"
)

// MessageBlock is one typed display segment derived from raw message
// content. Blocks are recomputed on every render and never mutated.
type MessageBlock struct {
	Type    BlockType
	Content string

	// Thought blocks
	InProgress bool // open tag not yet closed while streaming

	// Tool call blocks
	ToolName   string
	ToolArgs   map[string]interface{}
	ToolStatus ToolCallStatus
}

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
	toolOpen   = "<tool_call>"
	toolClose  = "</tool_call>"
)

// NormalizeContent parses raw message content into an ordered list of
// typed blocks. Text between <think></think> pairs becomes a thought
// block, <tool_call></tool_call> JSON bodies become tool call blocks,
// everything else is plain text. Pure and deterministic: the same input
// always yields the same block sequence.
//
// An unterminated open tag is not a match - the remaining content is
// emitted as text. Empty input yields an empty list.
func NormalizeContent(content string) []MessageBlock {
	return normalizeBlocks(content, false)
}

// NormalizeStreaming is NormalizeContent for content still being
// streamed: an unterminated <think> is treated as an in-progress
// thought so the collapsible panel exists while the model is thinking.
// A partial <tool_call> body is withheld until the close tag arrives.
func NormalizeStreaming(content string) []MessageBlock {
	return normalizeBlocks(content, true)
}

func normalizeBlocks(content string, streaming bool) []MessageBlock {
	var blocks []MessageBlock
	rest := content

	for rest != "" {
		thinkIdx := strings.Index(rest, thinkOpen)
		toolIdx := strings.Index(rest, toolOpen)

		if thinkIdx == -1 && toolIdx == -1 {
			blocks = appendText(blocks, rest)
			break
		}

		// Handle whichever tag opens first
		if thinkIdx != -1 && (toolIdx == -1 || thinkIdx < toolIdx) {
			closeIdx := strings.Index(rest[thinkIdx+len(thinkOpen):], thinkClose)
			if closeIdx == -1 {
				if !streaming {
					// Unterminated tag on a final message is not a match
					blocks = appendText(blocks, rest)
					break
				}
				blocks = appendText(blocks, rest[:thinkIdx])
				interior := strings.TrimSpace(rest[thinkIdx+len(thinkOpen):])
				blocks = append(blocks, MessageBlock{
					Type:       BlockThought,
					Content:    interior,
					InProgress: true,
				})
				break
			}

			blocks = appendText(blocks, rest[:thinkIdx])
			interiorStart := thinkIdx + len(thinkOpen)
			interior := strings.TrimSpace(rest[interiorStart : interiorStart+closeIdx])
			if interior != "" || streaming {
				blocks = append(blocks, MessageBlock{
					Type:    BlockThought,
					Content: interior,
				})
			}
			rest = rest[interiorStart+closeIdx+len(thinkClose):]
			continue
		}

		closeIdx := strings.Index(rest[toolIdx+len(toolOpen):], toolClose)
		if closeIdx == -1 {
			if !streaming {
				blocks = appendText(blocks, rest)
			} else {
				// Partial JSON body - display nothing until it closes
				blocks = appendText(blocks, rest[:toolIdx])
			}
			break
		}

		blocks = appendText(blocks, rest[:toolIdx])
		bodyStart := toolIdx + len(toolOpen)
		body := rest[bodyStart : bodyStart+closeIdx]
		if block, ok := parseToolCallBody(body); ok {
			blocks = append(blocks, block)
		} else {
			// Malformed body degrades to text, never errors
			blocks = appendText(blocks, rest[toolIdx:bodyStart+closeIdx+len(toolClose)])
		}
		rest = rest[bodyStart+closeIdx+len(toolClose):]
	}

	return blocks
}

// appendText emits a text block only when the segment is non-empty
// after trimming
func appendText(blocks []MessageBlock, segment string) []MessageBlock {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return blocks
	}
	return append(blocks, MessageBlock{Type: BlockText, Content: trimmed})
}

// parseToolCallBody decodes the JSON body of a tool call tag. The
// backends emit {"name": ..., "arguments": {...}} with an optional
// "status" field on replayed calls.
func parseToolCallBody(body string) (MessageBlock, bool) {
	var payload struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
		Status    string                 `json:"status"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &payload); err != nil {
		return MessageBlock{}, false
	}
	if payload.Name == "" {
		return MessageBlock{}, false
	}

	status := ToolCallSuccess
	switch ToolCallStatus(payload.Status) {
	case ToolCallRunning, ToolCallError:
		status = ToolCallStatus(payload.Status)
	}

	return MessageBlock{
		Type:       BlockToolCall,
		ToolName:   payload.Name,
		ToolArgs:   payload.Arguments,
		ToolStatus: status,
	}, true
}
