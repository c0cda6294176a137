package model

import (
	"mentis/ollama"
	"mentis/storage"
)

// Streaming result messages all carry the send generation they belong
// to. The UI discards results whose generation no longer matches, so a
// cancelled request's late result can never be shown as the answer to a
// newer send.

// StreamDoneMsg delivers a complete response in one piece. Produced
// when streaming display is disabled in config.
type StreamDoneMsg struct {
	FullResponse string
	Generation   int
}

type StreamErrorMsg struct {
	Err        error
	Generation int
}

type StreamChunksCollectedMsg struct {
	Chunks       []string
	FullResponse string
	Generation   int
}

type DisplayChunkTickMsg struct{}

// StageTickMsg drives the status strip auto-advance. Generation is
// compared against the store's current send generation so a tick
// scheduled for an earlier response can never advance the strip.
type StageTickMsg struct {
	Generation int
}

// StatusEventMsg carries an explicit backend stage report
type StatusEventMsg struct {
	Event StatusEvent
}

// Tool execution messages
type ToolCallsDetectedMsg struct {
	ToolCalls       []ToolCall
	InitialResponse string
	ContextMessages []Message
	Generation      int
}

type ToolExecutionCompleteMsg struct {
	Chunks       []string
	FullResponse string
	Generation   int
}

type ToolExecutionErrorMsg struct {
	Err        error
	Generation int
}

type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

type ModelsListMsg struct {
	Models       []ollama.ModelInfo
	Err          error
	ShowSelector bool
}

type SessionsListMsg struct {
	Sessions []storage.SessionMetadata
	Err      error
}

type SessionLoadedMsg struct {
	Session *storage.Session
	Err     error
}

type SessionSavedMsg struct {
	Err error
}

type SessionRenamedMsg struct {
	Err error
}

type FlashTickMsg struct{}

// MCP dashboard messages
type ServerToggledMsg struct {
	ServerID string
	Enabled  bool
	Err      error
}

type RegistryRefreshCompleteMsg struct {
	Success bool
	Err     error
}
