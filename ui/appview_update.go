package ui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		headerHeight := 2
		footerHeight := 5
		verticalMargin := headerHeight + footerHeight

		if !a.ready {
			a.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = msg.Height - verticalMargin
		}

		a.textarea.SetWidth(msg.Width)
		a.updateViewportContent(true)

		// Re-render loaded session markdown at the real width
		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			for i, m := range a.dataModel.Messages {
				if m.Role == "assistant" {
					cmds = append(cmds, a.renderMarkdownAsync(i, m.Content))
				}
			}
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		if a.dataModel.Loading || a.dataModel.Streaming {
			a.updateStreamingMessage()
		}
		return a, cmd

	case cursorTickMsg:
		if !a.dataModel.Streaming {
			a.cursorVisible = true
			return a, nil
		}
		a.cursorVisible = !a.cursorVisible
		a.updateStreamingMessage()
		return a, cursorTickCmd()

	case stageTickMsg:
		cmd := a.dataModel.AdvanceStage(msg)
		if a.dataModel.Loading {
			a.updateStreamingMessage()
		}
		return a, cmd

	case flashTickMsg:
		a.flashMsg = ""
		return a, nil

	case statusEventMsg:
		// Stage reports only matter while a response is in flight; a
		// report landing after cancel would pin a stale stage
		if a.dataModel.Loading || a.dataModel.Streaming {
			a.dataModel.ApplyStatusEvent(msg.Event)
			a.updateStreamingMessage()
		}
		return a, nil

	case markdownRenderedMsg:
		if msg.MessageIndex >= 0 && msg.MessageIndex < len(a.dataModel.Messages) {
			a.dataModel.Messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(true)
		}
		return a, nil

	case modelsListMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] model list fetch failed: %v", msg.Err)
			}
			return a, nil
		}
		a.modelList = msg.Models
		if msg.ShowSelector {
			a.closeAllModals()
			a.showModelSelector = true
			a.selectedModelIdx = 0
		}
		return a, nil

	case sessionsListMsg:
		if msg.Err == nil {
			a.sessionList = msg.Sessions
			if a.selectedSessionIdx >= len(a.sessionList) {
				a.selectedSessionIdx = 0
			}
		}
		return a, nil

	case sessionLoadedMsg:
		return a.handleSessionLoaded(msg)

	case sessionSavedMsg:
		if msg.Err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] session save failed: %v", msg.Err)
		}
		a.dataModel.SessionDirty = false
		return a, nil

	case sessionExportedMsg:
		if msg.Err != nil {
			a.sessionNotice = ""
			a.dataModel.ErrMsg = msg.Err.Error()
			return a, nil
		}
		a.sessionNotice = "exported to " + msg.Path
		return a, nil

	case sessionRenamedMsg:
		if msg.Err != nil {
			a.dataModel.ErrMsg = msg.Err.Error()
		}
		return a, nil

	case serverStatusesMsg:
		a.refreshingServers = false
		if msg.Err != nil {
			a.dashboardErr = msg.Err.Error()
			return a, nil
		}
		a.dashboardErr = ""
		a.serverRows = msg.Servers
		if a.selectedServerIdx >= len(a.serverRows) {
			a.selectedServerIdx = 0
		}
		return a, nil

	case serverToggledMsg:
		return a.handleServerToggled(msg)

	case registryRefreshCompleteMsg:
		a.refreshingServers = false
		if msg.Err != nil {
			a.dashboardErr = msg.Err.Error()
			return a, nil
		}
		a.dashboardNotice = "registry refreshed"
		return a, serverStatusesCmd(a.dataModel.MCPManager)

	case consoleModelsMsg:
		if sel := a.selectedConsoleProvider(); sel != nil && sel.ID == msg.ProviderID {
			a.consoleModels = msg.Models
		}
		return a, nil

	case pingProviderMsg:
		return a.handleProviderPing(msg)

	case modelSyncMsg:
		return a.handleModelSync(msg)

	case singleProviderModelsMsg:
		return a.handleLiveModels(msg)

	case streamChunksCollectedMsg, displayChunkTickMsg, streamDoneMsg, streamErrorMsg,
		toolCallsDetectedMsg, toolExecutionCompleteMsg, toolExecutionErrorMsg:
		return a.handleStreamingMessage(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Forward everything else to the focused components. The file
	// picker reads directories through its own internal messages, so
	// it gets everything that is not a key press.
	if a.showAttachPicker {
		var fpCmd tea.Cmd
		a.attachPicker, fpCmd = a.attachPicker.Update(msg)
		return a, fpCmd
	}

	var taCmd, vpCmd tea.Cmd
	a.textarea, taCmd = a.textarea.Update(msg)
	a.viewport, vpCmd = a.viewport.Update(msg)
	return a, tea.Batch(taCmd, vpCmd)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal key handling comes first: each modal owns its keys
	if a.showHelp {
		switch msg.String() {
		case "esc", "alt+h", "q":
			a.showHelp = false
		}
		return a, nil
	}
	if a.showModelSelector {
		return a.handleModelSelectorKey(msg)
	}
	if a.showSessionManager {
		return a.handleSessionManagerKey(msg)
	}
	if a.showDashboard {
		return a.handleDashboardKey(msg)
	}
	if a.showConsole {
		return a.handleConsoleKey(msg)
	}
	if a.showAttachPicker {
		return a.handleAttachPickerKey(msg)
	}

	switch msg.String() {
	case "alt+q", "ctrl+c":
		a.dataModel.Quitting = true
		return a, tea.Quit

	case "alt+h":
		a.showHelp = true
		return a, nil

	case "alt+n":
		a.dataModel.NewSession()
		a.currentResp.Reset()
		a.chunks = nil
		a.chunkIndex = 0
		a.textarea.Reset()
		a.updateViewportContent(true)
		return a, nil

	case "alt+s":
		a.closeAllModals()
		a.showSessionManager = true
		a.selectedSessionIdx = 0
		a.sessionNotice = ""
		return a, a.dataModel.FetchSessionList()

	case "alt+m":
		return a, a.dataModel.FetchModelList(true)

	case "alt+p":
		a.closeAllModals()
		a.showDashboard = true
		a.dashboardNotice = ""
		return a, serverStatusesCmd(a.dataModel.MCPManager)

	case "alt+c":
		a.closeAllModals()
		a.showConsole = true
		a.consoleStatus = ""
		return a, a.loadConsoleModels()

	case "alt+a":
		a.closeAllModals()
		a.showAttachPicker = true
		return a, a.attachPicker.Init()

	case "alt+t":
		a.showThoughts = !a.showThoughts
		a.updateViewportContent(false)
		return a, nil

	case "alt+y":
		// Copy last assistant message
		for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
			if a.dataModel.Messages[i].Role == "assistant" {
				clipboard.WriteAll(a.dataModel.Messages[i].Content)
				a.flashMsg = "copied last response"
				return a, flashTickCmd()
			}
		}
		return a, nil

	case "esc":
		// Cancel an in-flight response. The generation bump invalidates
		// any auto-advance tick still in the queue.
		if a.dataModel.Loading || a.dataModel.Streaming {
			a.dataModel.StatusGeneration++
			a.chunks = nil
			a.chunkIndex = 0
			a.currentResp.Reset()
			cmd := a.dataModel.CompleteResponse()
			a.updateViewportContent(true)
			return a, cmd
		}
		return a, nil

	case "enter":
		a.dataModel.Input = a.textarea.Value()
		cmd := a.dataModel.SendMessage()
		if a.dataModel.Input == "" {
			// Model consumed the input (sent or queued)
			a.textarea.Reset()
		}
		a.updateViewportContent(true)
		if cmd == nil {
			return a, nil
		}
		return a, tea.Batch(cmd, a.loadingSpinner.Tick, cursorTickCmd())

	case "pgup":
		a.viewport.HalfViewUp()
		return a, nil

	case "pgdown":
		a.viewport.HalfViewDown()
		return a, nil
	}

	var taCmd tea.Cmd
	a.textarea, taCmd = a.textarea.Update(msg)
	return a, taCmd
}

func (a AppView) handleSessionLoaded(msg sessionLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.dataModel.ErrMsg = msg.Err.Error()
		return a, nil
	}
	if msg.Session == nil {
		return a, nil
	}

	a.setCurrentSession(msg.Session)

	var cmds []tea.Cmd
	a.dataModel.Messages = nil
	for _, sMsg := range msg.Session.Messages {
		a.dataModel.Messages = append(a.dataModel.Messages, Message{
			Role:      sMsg.Role,
			Content:   sMsg.Content,
			Rendered:  sMsg.Rendered,
			Timestamp: sMsg.Timestamp,
		})
	}
	for i, m := range a.dataModel.Messages {
		if m.Role == "assistant" && m.Rendered == "" {
			cmds = append(cmds, a.renderMarkdownAsync(i, m.Content))
		}
	}

	a.showSessionManager = false
	a.dataModel.SessionDirty = false
	a.updateViewportContent(true)

	if a.dataModel.SessionStorage != nil {
		_ = a.dataModel.SessionStorage.SaveCurrentSessionID(msg.Session.ID)
	}

	return a, tea.Batch(cmds...)
}

func cursorTickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return cursorTickMsg{}
	})
}

func flashTickCmd() tea.Cmd {
	return tea.Tick(1500*time.Millisecond, func(time.Time) tea.Msg {
		return flashTickMsg{}
	})
}
