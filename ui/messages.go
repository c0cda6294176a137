package ui

import (
	"mentis/mcp"
	"mentis/model"
	"mentis/provider"
	"mentis/storage"
)

// Message type aliases - the wire types live in the model package
type Message = model.Message

type streamDoneMsg = model.StreamDoneMsg
type streamErrorMsg = model.StreamErrorMsg
type streamChunksCollectedMsg = model.StreamChunksCollectedMsg
type displayChunkTickMsg = model.DisplayChunkTickMsg
type stageTickMsg = model.StageTickMsg
type statusEventMsg = model.StatusEventMsg
type toolCallsDetectedMsg = model.ToolCallsDetectedMsg
type toolExecutionCompleteMsg = model.ToolExecutionCompleteMsg
type toolExecutionErrorMsg = model.ToolExecutionErrorMsg
type markdownRenderedMsg = model.MarkdownRenderedMsg
type modelsListMsg = model.ModelsListMsg
type sessionsListMsg = model.SessionsListMsg
type sessionLoadedMsg = model.SessionLoadedMsg
type sessionSavedMsg = model.SessionSavedMsg
type sessionRenamedMsg = model.SessionRenamedMsg
type flashTickMsg = model.FlashTickMsg
type serverToggledMsg = model.ServerToggledMsg
type registryRefreshCompleteMsg = model.RegistryRefreshCompleteMsg

// Console messages from the provider package
type pingProviderMsg = provider.PingProviderMsg
type modelSyncMsg = provider.ModelSyncMsg
type singleProviderModelsMsg = provider.SingleProviderModelsMsg

// cursorTickMsg drives the blinking cursor on the streaming message
type cursorTickMsg struct{}

// consoleModelsMsg delivers the cached model list for a provider
type consoleModelsMsg struct {
	ProviderID string
	Models     []storage.CachedModel
}

// sessionExportedMsg reports the outcome of a session export
type sessionExportedMsg struct {
	Path string
	Err  error
}

// serverStatusesMsg delivers a dashboard refresh
type serverStatusesMsg struct {
	Servers []mcp.ServerInfo
	Err     error
}
