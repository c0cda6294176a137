package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"mentis/storage"
)

func (a AppView) handleSessionManagerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Delete confirmation owns the keys while active
	if a.confirmDeleteSession != nil {
		switch msg.String() {
		case "y":
			sessionID := a.confirmDeleteSession.ID
			a.confirmDeleteSession = nil

			deletingCurrent := a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == sessionID
			if deletingCurrent {
				if a.dataModel.Loading || a.dataModel.Streaming {
					a.dataModel.ErrMsg = "cannot delete a session with an active response"
					return a, nil
				}
				a.dataModel.Messages = nil
				a.setCurrentSession(nil)
				a.dataModel.SessionDirty = false
				a.textarea.Reset()
				a.updateViewportContent(true)
			}

			store := a.dataModel.SessionStorage
			return a, func() tea.Msg {
				if err := store.Delete(sessionID); err != nil {
					return sessionsListMsg{Err: err}
				}
				sessions, err := store.List()
				return sessionsListMsg{Sessions: sessions, Err: err}
			}
		case "n", "esc":
			a.confirmDeleteSession = nil
		}
		return a, nil
	}

	if a.sessionRenameMode {
		switch msg.String() {
		case "esc":
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			return a, nil
		case "enter":
			list := a.getSessionList()
			if a.selectedSessionIdx >= len(list) {
				return a, nil
			}
			newName := strings.TrimSpace(a.sessionRenameInput.Value())
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			if newName == "" {
				return a, nil
			}
			target := list[a.selectedSessionIdx]
			if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == target.ID {
				a.dataModel.CurrentSession.Name = newName
			}
			return a, a.dataModel.RenameSessionCmd(target.ID, newName)
		}
		var cmd tea.Cmd
		a.sessionRenameInput, cmd = a.sessionRenameInput.Update(msg)
		return a, cmd
	}

	if a.sessionFilterMode {
		switch msg.String() {
		case "esc":
			a.sessionFilterMode = false
			a.sessionFilterInput.Blur()
			a.filteredSessionList = nil
			return a, nil

		case "enter":
			return a.loadSelectedSession()

		case "alt+j", "down":
			list := a.getSessionList()
			if a.selectedSessionIdx < len(list)-1 {
				a.selectedSessionIdx++
			}
			return a, nil

		case "alt+k", "up":
			if a.selectedSessionIdx > 0 {
				a.selectedSessionIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.sessionFilterInput, cmd = a.sessionFilterInput.Update(msg)

		filterValue := a.sessionFilterInput.Value()
		if filterValue == "" {
			a.filteredSessionList = a.sessionList
		} else {
			targets := make([]string, len(a.sessionList))
			for i, s := range a.sessionList {
				targets[i] = s.Name
			}
			matches := fuzzy.Find(filterValue, targets)
			a.filteredSessionList = make([]storage.SessionMetadata, len(matches))
			for i, match := range matches {
				a.filteredSessionList[i] = a.sessionList[match.Index]
			}
		}

		if list := a.getSessionList(); a.selectedSessionIdx >= len(list) && len(list) > 0 {
			a.selectedSessionIdx = len(list) - 1
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.sessionFilterMode = true
		a.sessionFilterInput.Focus()
		a.sessionFilterInput.SetValue("")
		a.filteredSessionList = a.sessionList
		return a, textinput.Blink

	case "esc":
		a.showSessionManager = false
		return a, nil

	case "j", "down":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list)-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil

	case "r":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			a.sessionRenameMode = true
			a.sessionRenameInput.SetValue(list[a.selectedSessionIdx].Name)
			a.sessionRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "d":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			target := list[a.selectedSessionIdx]
			a.confirmDeleteSession = &target
		}
		return a, nil

	case "x":
		list := a.getSessionList()
		if a.selectedSessionIdx < len(list) {
			target := list[a.selectedSessionIdx]
			store := a.dataModel.SessionStorage
			return a, func() tea.Msg {
				path := storage.GenerateExportPath(target.Name)
				if err := store.ExportToJSON(target.ID, path); err != nil {
					return sessionExportedMsg{Err: err}
				}
				return sessionExportedMsg{Path: path}
			}
		}
		return a, nil

	case "n":
		a.dataModel.NewSession()
		a.showSessionManager = false
		a.currentResp.Reset()
		a.textarea.Reset()
		a.updateViewportContent(true)
		return a, nil

	case "enter":
		return a.loadSelectedSession()
	}

	return a, nil
}

func (a AppView) loadSelectedSession() (tea.Model, tea.Cmd) {
	list := a.getSessionList()
	if a.selectedSessionIdx >= len(list) {
		return a, nil
	}
	a.sessionFilterMode = false
	a.sessionFilterInput.Blur()
	return a, a.dataModel.LoadSession(list[a.selectedSessionIdx].ID)
}

func renderSessionManager(sessions []storage.SessionMetadata, selectedIdx int, currentSessionID string, renameMode bool, renameInput textinput.Model, filterMode bool, filterInput textinput.Model, confirmDelete *storage.SessionMetadata, notice string, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 90 {
		modalWidth = 90
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Sessions")

	var header string
	switch {
	case confirmDelete != nil:
		header = lipgloss.NewStyle().Foreground(dangerColor).
			Render(fmt.Sprintf("Delete '%s'? (y/n)", confirmDelete.Name))
	case renameMode:
		header = renameInput.View()
	case filterMode:
		header = filterInput.View()
	case notice != "":
		header = lipgloss.NewStyle().Foreground(successColor).Render(notice)
	default:
		header = fmt.Sprintf("%d sessions", len(sessions))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var lines []string
	maxLines := modalHeight - 8

	if len(sessions) == 0 {
		emptyMsg := "No saved sessions"
		if filterMode {
			emptyMsg = "No matches found"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx := 0
		endIdx := len(sessions)
		if len(sessions) > maxLines {
			if selectedIdx < maxLines/2 {
				endIdx = maxLines
			} else if selectedIdx >= len(sessions)-maxLines/2 {
				startIdx = len(sessions) - maxLines
			} else {
				startIdx = selectedIdx - maxLines/2
				endIdx = startIdx + maxLines
			}
		}

		for i := startIdx; i < endIdx && i < len(sessions); i++ {
			s := sessions[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			currentMarker := ""
			if s.ID == currentSessionID {
				currentMarker = " (current)"
			}

			updated := s.UpdatedAt.Format("2006-01-02 15:04")
			count := fmt.Sprintf("%d msgs", s.MessageCount)

			name := s.Name
			maxNameWidth := modalWidth - len(updated) - len(count) - len(currentMarker) - 10
			if len(name) > maxNameWidth && maxNameWidth > 3 {
				name = name[:maxNameWidth-3] + "..."
			}

			spacing := modalWidth - len(indicator) - len(name) - len(currentMarker) - len(count) - len(updated) - 6
			if spacing < 1 {
				spacing = 1
			}

			line := fmt.Sprintf("%s%s%s%s%s  %s",
				indicator, name, currentMarker,
				strings.Repeat(" ", spacing), count, updated)

			lineStyle := lipgloss.NewStyle()
			if i == selectedIdx {
				lineStyle = lineStyle.Foreground(successColor).Bold(true)
			} else if s.ID == currentSessionID {
				lineStyle = lineStyle.Foreground(accentColor).Bold(true)
			}

			lines = append(lines, lipgloss.NewStyle().
				Width(modalWidth).
				Render(lineStyle.Render(line)))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	lines = append([]string{emptyLine}, lines...)
	lines = append(lines, emptyLine)

	var footerText string
	switch {
	case renameMode:
		footerText = FormatFooter("Enter", "Save", "Esc", "Cancel")
	case filterMode:
		footerText = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Load", "Esc", "Cancel")
	default:
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Load", "r", "Rename", "d", "Delete", "x", "Export", "n", "New", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, lines...)
	sections = append(sections, footerSection)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}
