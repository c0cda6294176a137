package model

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/storage"
)

// FetchSessionList retrieves the list of saved sessions
func (m *Model) FetchSessionList() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}
	store := m.SessionStorage
	return func() tea.Msg {
		sessions, err := store.List()
		return SessionsListMsg{
			Sessions: sessions,
			Err:      err,
		}
	}
}

// LoadSession loads a session by ID
func (m *Model) LoadSession(sessionID string) tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	// Reloading the current session just closes the session manager
	if m.CurrentSession != nil && m.CurrentSession.ID == sessionID {
		return func() tea.Msg {
			return SessionLoadedMsg{
				Session: m.CurrentSession,
				Err:     nil,
			}
		}
	}

	store := m.SessionStorage
	return func() tea.Msg {
		session, err := store.Load(sessionID)
		if err != nil {
			return SessionLoadedMsg{Session: nil, Err: err}
		}
		return SessionLoadedMsg{
			Session: session,
			Err:     nil,
		}
	}
}

// SaveCurrentSession saves the current session to storage
func (m *Model) SaveCurrentSession() tea.Cmd {
	if m.SessionStorage == nil || m.CurrentSession == nil {
		return nil
	}

	// Convert UI messages to storage messages
	var sessionMessages []storage.Message
	for _, msg := range m.Messages {
		if msg.Role == "user" || msg.Role == "assistant" {
			sessionMessages = append(sessionMessages, storage.Message{
				Role:      msg.Role,
				Content:   msg.Content,
				Rendered:  msg.Rendered,
				Timestamp: msg.Timestamp,
			})
		}
	}

	m.CurrentSession.Messages = sessionMessages
	m.CurrentSession.UpdatedAt = time.Now()
	if m.Provider != nil {
		m.CurrentSession.Model = m.ActiveProvider().GetModel()
	}

	session := m.CurrentSession
	store := m.SessionStorage

	return func() tea.Msg {
		err := store.Save(session)
		if err == nil {
			store.SaveCurrentSessionID(session.ID)
		}
		return SessionSavedMsg{Err: err}
	}
}

// AutoSaveSession saves the current session, creating one with an
// auto-generated name first if none exists
func (m *Model) AutoSaveSession() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	if m.CurrentSession == nil {
		var firstUserMsg string
		for _, msg := range m.Messages {
			if msg.Role == "user" {
				firstUserMsg = msg.Content
				break
			}
		}

		m.CurrentSession = &storage.Session{
			ID:             "", // Let Save() generate UUID
			Name:           storage.GenerateSessionName(firstUserMsg),
			Model:          m.Config.DefaultModel,
			Provider:       m.Config.DefaultProvider,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
			EnabledServers: []string{},
		}

		if m.MCPManager != nil {
			_ = m.MCPManager.SetSession(m.CurrentSession)
		}
	} else if m.CurrentSession.Name == "New Session" && len(m.Messages) > 0 {
		// Auto-rename if still "New Session" and has messages
		var firstUserMsg string
		for _, msg := range m.Messages {
			if msg.Role == "user" {
				firstUserMsg = msg.Content
				break
			}
		}

		if firstUserMsg != "" {
			m.CurrentSession.Name = storage.GenerateSessionName(firstUserMsg)
		}
	}

	return m.SaveCurrentSession()
}

// NewSession replaces the current conversation with a fresh session
func (m *Model) NewSession() {
	m.CurrentSession = &storage.Session{
		Name:           "New Session",
		Model:          m.Config.DefaultModel,
		Provider:       m.Config.DefaultProvider,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		EnabledServers: []string{},
	}
	m.Messages = nil
	m.PendingSends = nil
	m.ErrMsg = ""
	m.ClearStatus()
	m.StatusGeneration++
	m.Loading = false
	m.Streaming = false
	m.SessionDirty = false

	if m.MCPManager != nil {
		_ = m.MCPManager.SetSession(m.CurrentSession)
	}
}

// RenameSessionCmd renames a session and refreshes the session list
func (m *Model) RenameSessionCmd(sessionID, newName string) tea.Cmd {
	return func() tea.Msg {
		if m.SessionStorage == nil {
			return SessionRenamedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		if err := m.SessionStorage.RenameSession(sessionID, newName); err != nil {
			return SessionRenamedMsg{Err: err}
		}

		sessions, err := m.SessionStorage.List()
		if err != nil {
			return SessionRenamedMsg{Err: err}
		}

		return SessionsListMsg{Sessions: sessions, Err: nil}
	}
}
