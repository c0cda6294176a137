package model

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
	"mentis/mcp"
	"mentis/storage"
)

// PendingSend is a queued sendMessage call. Sends issued while a
// response is in flight are serialized: each completed response drains
// one entry.
type PendingSend struct {
	Content     string
	Attachments []ImageAttachment
}

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config         *config.Config
	SessionStorage *storage.SessionStorage
	ServerStore    *storage.ServerStore
	ModelCache     *storage.ModelCache
	MCPManager     *mcp.Manager

	// Providers (keyed by provider ID). Provider is the default.
	Provider  Provider
	Providers map[string]Provider

	// Application data
	Messages       []Message
	CurrentSession *storage.Session

	// Compose state
	Input        string
	Attachments  []ImageAttachment
	PendingSends []PendingSend

	// Runtime state (not UI)
	Streaming bool // assistant message actively receiving typed-out chunks
	Loading   bool // request in flight, no full response yet
	ErrMsg    string

	// Status strip state. StatusStage holds the last explicit backend
	// stage name ("" when none has arrived); StatusIndex is the
	// auto-advance position used in that case. StatusGeneration
	// invalidates ticks scheduled for earlier sends.
	StatusStage      string
	StatusCode       string
	StatusMeta       map[string]interface{}
	StatusIndex      int
	StatusGeneration int

	SessionDirty       bool
	NeedsInitialRender bool
	Quitting           bool

	// Application metadata
	Version string
}

// NewModel creates a new Model with the given configuration
func NewModel(cfg *config.Config, sessionStorage *storage.SessionStorage, lastSession *storage.Session, serverStore *storage.ServerStore, modelCache *storage.ModelCache, mcpManager *mcp.Manager, version string) *Model {
	// Load messages from last session if available
	var messages []Message
	needsRender := false
	if lastSession != nil {
		for _, sMsg := range lastSession.Messages {
			messages = append(messages, Message{
				Role:      sMsg.Role,
				Content:   sMsg.Content,
				Rendered:  sMsg.Rendered,
				Timestamp: sMsg.Timestamp,
			})
		}
		needsRender = len(messages) > 0
	}

	m := &Model{
		Config:             cfg,
		SessionStorage:     sessionStorage,
		ServerStore:        serverStore,
		ModelCache:         modelCache,
		MCPManager:         mcpManager,
		Messages:           messages,
		CurrentSession:     lastSession,
		Providers:          make(map[string]Provider),
		NeedsInitialRender: needsRender,
		Version:            version,
	}

	// Sync session with the MCP manager so auto-loaded sessions have
	// tool context. Safe when servers are disabled - GetTools has guards.
	if mcpManager != nil && lastSession != nil {
		_ = mcpManager.SetSession(lastSession)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] NewModel: synced session '%s' with MCP manager (EnabledServers: %v)",
				lastSession.Name, lastSession.EnabledServers)
		}
	}

	return m
}

// SendMessage starts a send for the current input and attachments.
// Returns nil when there is nothing to send. If a response is already
// in flight the send is queued instead; DrainPending picks it up after
// the current response completes.
func (m *Model) SendMessage() tea.Cmd {
	content := strings.TrimSpace(m.Input)
	if content == "" && len(m.Attachments) == 0 {
		return nil
	}

	attachments := m.Attachments
	m.Input = ""
	m.Attachments = nil

	if m.Loading || m.Streaming {
		m.PendingSends = append(m.PendingSends, PendingSend{Content: content, Attachments: attachments})
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] send queued while response in flight (%d pending)", len(m.PendingSends))
		}
		return nil
	}

	return m.beginSend(content, attachments)
}

// DrainPending starts the next queued send, if any. Called after a
// response completes or fails.
func (m *Model) DrainPending() tea.Cmd {
	if len(m.PendingSends) == 0 {
		return nil
	}
	next := m.PendingSends[0]
	m.PendingSends = m.PendingSends[1:]
	return m.beginSend(next.Content, next.Attachments)
}

func (m *Model) beginSend(content string, attachments []ImageAttachment) tea.Cmd {
	m.Messages = append(m.Messages, Message{
		Role:        "user",
		Content:     content,
		Timestamp:   time.Now(),
		Attachments: attachments,
	})
	m.Loading = true
	m.ErrMsg = ""
	m.SessionDirty = true
	m.ClearStatus()
	m.StatusGeneration++

	return tea.Batch(m.SendToBackend(), m.StageTickCmd())
}

// CompleteResponse clears in-flight state after a response finishes or
// fails, then drains the pending-send queue.
func (m *Model) CompleteResponse() tea.Cmd {
	m.Loading = false
	m.Streaming = false
	m.ClearStatus()
	return m.DrainPending()
}

// ClearStatus resets the status strip to its idle state
func (m *Model) ClearStatus() {
	m.StatusStage = ""
	m.StatusCode = ""
	m.StatusMeta = nil
	m.StatusIndex = 0
}

// ApplyStatusEvent records an explicit backend stage report. Explicit
// stages take precedence over the auto-advance timer.
func (m *Model) ApplyStatusEvent(ev StatusEvent) {
	m.StatusStage = ev.Stage
	m.StatusCode = ev.Code
	m.StatusMeta = ev.Meta
}

// CurrentStageIndex resolves the status strip position: the explicit
// backend stage when one has been reported, the auto-advance index
// otherwise.
func (m *Model) CurrentStageIndex() int {
	if m.StatusStage != "" {
		return ResolveStage(m.StatusStage)
	}
	return m.StatusIndex
}

// AdvanceStage handles one auto-advance tick. Ticks from an earlier
// send generation, ticks after the response arrived, and ticks while an
// explicit backend stage is active are all discarded. Returns the next
// tick command, or nil when auto-advance has stopped.
func (m *Model) AdvanceStage(msg StageTickMsg) tea.Cmd {
	if msg.Generation != m.StatusGeneration || !m.Loading || m.StatusStage != "" {
		return nil
	}
	if m.StatusIndex >= LastStage() {
		return nil
	}
	m.StatusIndex++
	if m.StatusIndex >= LastStage() {
		return nil
	}
	return m.StageTickCmd()
}

// StageTickCmd schedules the next auto-advance tick for the current
// send generation.
func (m *Model) StageTickCmd() tea.Cmd {
	generation := m.StatusGeneration
	return tea.Tick(StageDelay(m.StatusIndex), func(time.Time) tea.Msg {
		return StageTickMsg{Generation: generation}
	})
}

// AddAttachment stages an image for the next send
func (m *Model) AddAttachment(att ImageAttachment) {
	m.Attachments = append(m.Attachments, att)
}

// RemoveAttachment discards a staged image by ID
func (m *Model) RemoveAttachment(id string) {
	for i, att := range m.Attachments {
		if att.ID == id {
			m.Attachments = append(m.Attachments[:i], m.Attachments[i+1:]...)
			return
		}
	}
}

// ActiveProvider returns the provider client for the current session,
// falling back to the default when the session's provider is unknown.
func (m *Model) ActiveProvider() Provider {
	sessionProvider := "ollama"
	if m.CurrentSession != nil && m.CurrentSession.Provider != "" {
		sessionProvider = m.CurrentSession.Provider
	}

	if client, ok := m.Providers[sessionProvider]; ok {
		return client
	}
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] WARNING: session provider '%s' not found, using fallback", sessionProvider)
	}
	return m.Provider
}
