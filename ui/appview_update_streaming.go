package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
	appmodel "mentis/model"
)

// handleStreamingMessage handles all streaming-related messages.
// Every result message carries the generation of the send it answers;
// a result from a cancelled or superseded send fails the check and is
// dropped before it can touch the conversation.
func (a AppView) handleStreamingMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case streamChunksCollectedMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("streamChunksCollectedMsg received - %d chunks collected", len(msg.Chunks))
		}

		if a.staleResult(msg.Generation) {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Ignoring streamChunksCollectedMsg - cancelled or superseded")
			}
			return a, nil
		}

		return a.startTypewriter(msg.Chunks)

	case toolExecutionCompleteMsg:
		if a.staleResult(msg.Generation) {
			return a, nil
		}
		// The combined response carries tool card markup; type out only
		// the follow-up chunks but finalize with the full content.
		a.currentResp.Reset()
		a.currentResp.WriteString(msg.FullResponse)
		return a.finalizeResponse(msg.FullResponse)

	case displayChunkTickMsg:
		// Stop typewriter if user cancelled
		if !a.dataModel.Streaming {
			return a, nil
		}

		if a.chunkIndex >= len(a.chunks) {
			fullResp := a.currentResp.String()
			a.chunks = nil
			a.chunkIndex = 0
			if config.DebugLog != nil {
				config.DebugLog.Printf("Typewriter complete - finalizing message")
			}
			return a.finalizeResponse(fullResp)
		}

		chunk := a.chunks[a.chunkIndex]
		a.chunkIndex++
		a.currentResp.WriteString(chunk)
		a.updateStreamingMessage()

		// 30ms between chunks, first chunk nearly immediate
		delay := 30 * time.Millisecond
		if a.chunkIndex == 1 {
			delay = time.Millisecond
		}

		return a, tea.Tick(delay, func(time.Time) tea.Msg {
			return displayChunkTickMsg{}
		})

	case streamDoneMsg:
		// Non-streaming display: the whole response lands at once
		if a.staleResult(msg.Generation) {
			return a, nil
		}
		if msg.FullResponse == "" {
			a.dataModel.ErrMsg = "no response received from backend"
			cmd := a.dataModel.CompleteResponse()
			a.updateViewportContent(true)
			return a, cmd
		}
		return a.finalizeResponse(msg.FullResponse)

	case toolCallsDetectedMsg:
		if a.staleResult(msg.Generation) {
			return a, nil
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("toolCallsDetectedMsg received - %d calls", len(msg.ToolCalls))
		}

		// Tool execution is backend work: report the evolve stage with
		// the tool name so the strip pins there while the calls run.
		detail := "running tools"
		if len(msg.ToolCalls) == 1 {
			detail = msg.ToolCalls[0].Name
		}
		stageCmd := func() tea.Msg {
			return statusEventMsg{Event: appmodel.StatusEvent{Stage: "evolve", Meta: map[string]interface{}{"detail": detail}}}
		}

		return a, tea.Batch(stageCmd, a.dataModel.ExecuteToolsAndContinue(msg))

	case streamErrorMsg:
		if a.staleResult(msg.Generation) {
			return a, nil
		}
		return a.failResponse(msg.Err)

	case toolExecutionErrorMsg:
		if a.staleResult(msg.Generation) {
			return a, nil
		}
		return a.failResponse(msg.Err)
	}

	return a, nil
}

// staleResult reports whether a send result belongs to a cancelled or
// superseded request. Esc bumps the generation without starting a new
// send, so the loading check alone is not enough: a queued send can
// flip Loading back on before the cancelled request's result arrives.
func (a AppView) staleResult(generation int) bool {
	if generation != a.dataModel.StatusGeneration {
		return true
	}
	return !a.dataModel.Loading && !a.dataModel.Streaming
}

// startTypewriter switches from waiting to typing out collected chunks.
// The backend is done at this point, so the strip jumps to the render
// stage for the typeout.
func (a AppView) startTypewriter(chunks []string) (AppView, tea.Cmd) {
	a.chunks = chunks
	a.chunkIndex = 0
	a.dataModel.Loading = false
	a.dataModel.Streaming = true
	a.currentResp.Reset()
	a.dataModel.ApplyStatusEvent(appmodel.StatusEvent{Stage: "render"})

	return a, tea.Batch(
		tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
			return displayChunkTickMsg{}
		}),
		cursorTickCmd(),
	)
}

// finalizeResponse appends the completed assistant message, clears
// in-flight state, and kicks off markdown rendering, auto-save, and the
// next queued send.
func (a AppView) finalizeResponse(fullResp string) (AppView, tea.Cmd) {
	a.currentResp.Reset()
	a.chunks = nil
	a.chunkIndex = 0

	a.dataModel.Messages = append(a.dataModel.Messages, Message{
		Role:      "assistant",
		Content:   fullResp,
		Timestamp: time.Now(),
	})
	messageIndex := len(a.dataModel.Messages) - 1
	a.dataModel.SessionDirty = true

	drainCmd := a.dataModel.CompleteResponse()
	a.updateViewportContent(true)

	return a, tea.Batch(
		a.renderMarkdownAsync(messageIndex, fullResp),
		a.dataModel.AutoSaveSession(),
		drainCmd,
	)
}

// failResponse surfaces a backend error in the status line and drains
// the pending-send queue so a queued message is not lost.
func (a AppView) failResponse(err error) (AppView, tea.Cmd) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("stream error: %v", err)
	}

	a.currentResp.Reset()
	a.chunks = nil
	a.chunkIndex = 0
	a.dataModel.ErrMsg = err.Error()

	drainCmd := a.dataModel.CompleteResponse()
	a.updateViewportContent(true)
	return a, drainCmd
}
