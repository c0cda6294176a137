package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mentis/config"
	"mentis/mcp"
)

// serverStatusesCmd fetches the current dashboard rows
func serverStatusesCmd(manager *mcp.Manager) tea.Cmd {
	if manager == nil {
		return func() tea.Msg {
			return serverStatusesMsg{Err: fmt.Errorf("tool servers are disabled")}
		}
	}
	return func() tea.Msg {
		servers, err := manager.ServerStatuses()
		return serverStatusesMsg{Servers: servers, Err: err}
	}
}

// toggleServerCmd starts or stops one server
func toggleServerCmd(manager *mcp.Manager, serverID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		enabled, err := manager.ToggleServer(ctx, serverID)
		return serverToggledMsg{ServerID: serverID, Enabled: enabled, Err: err}
	}
}

// refreshRegistryCmd re-fetches the server registry
func refreshRegistryCmd(manager *mcp.Manager) tea.Cmd {
	return func() tea.Msg {
		err := manager.RefreshRegistry()
		return registryRefreshCompleteMsg{Success: err == nil, Err: err}
	}
}

// startAllServersCmd starts every installed server in the background at
// launch. Per-server failures surface on the dashboard, not here.
func startAllServersCmd(manager *mcp.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := manager.StartAllInstalled(ctx); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] server startup: %v", err)
		}
		servers, err := manager.ServerStatuses()
		return serverStatusesMsg{Servers: servers, Err: err}
	}
}

func (a AppView) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showDashboard = false
		return a, nil

	case "j", "down":
		if a.selectedServerIdx < len(a.serverRows)-1 {
			a.selectedServerIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedServerIdx > 0 {
			a.selectedServerIdx--
		}
		return a, nil

	case "t", "enter":
		if a.selectedServerIdx >= len(a.serverRows) || a.dataModel.MCPManager == nil {
			return a, nil
		}
		row := a.serverRows[a.selectedServerIdx]
		a.dashboardNotice = fmt.Sprintf("toggling %s...", row.Name)
		return a, toggleServerCmd(a.dataModel.MCPManager, row.ID)

	case "e":
		// Enable/disable the server for the current session. Session
		// scoping is what the chat request actually honors.
		if a.selectedServerIdx >= len(a.serverRows) || a.dataModel.CurrentSession == nil {
			return a, nil
		}
		row := a.serverRows[a.selectedServerIdx]
		session := a.dataModel.CurrentSession
		if session.IsServerEnabled(row.ID) {
			session.DisableServer(row.ID)
			a.dashboardNotice = fmt.Sprintf("%s disabled for this session", row.Name)
		} else {
			session.EnableServer(row.ID)
			a.dashboardNotice = fmt.Sprintf("%s enabled for this session", row.Name)
		}
		if a.dataModel.MCPManager != nil {
			_ = a.dataModel.MCPManager.SetSession(session)
		}
		return a, a.dataModel.SaveCurrentSession()

	case "R":
		if a.dataModel.MCPManager == nil {
			return a, nil
		}
		a.refreshingServers = true
		a.dashboardNotice = "refreshing registry..."
		return a, refreshRegistryCmd(a.dataModel.MCPManager)
	}

	return a, nil
}

func (a AppView) handleServerToggled(msg serverToggledMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.dashboardErr = msg.Err.Error()
		a.dashboardNotice = ""
		return a, serverStatusesCmd(a.dataModel.MCPManager)
	}

	a.dashboardErr = ""
	if msg.Enabled {
		a.dashboardNotice = fmt.Sprintf("%s started", msg.ServerID)
	} else {
		a.dashboardNotice = fmt.Sprintf("%s stopped", msg.ServerID)
	}
	return a, serverStatusesCmd(a.dataModel.MCPManager)
}

func (a AppView) renderDashboard() string {
	modalWidth := a.width - 10
	if modalWidth > 100 {
		modalWidth = 100
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Tool Servers")

	header := fmt.Sprintf("%d installed", len(a.serverRows))
	if a.refreshingServers {
		header = a.loadingSpinner.View() + " " + a.dashboardNotice
	} else if a.dashboardErr != "" {
		header = lipgloss.NewStyle().Foreground(dangerColor).Render("✗ " + a.dashboardErr)
	} else if a.dashboardNotice != "" {
		header = a.dashboardNotice
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
	if len(a.serverRows) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render("No servers installed. Press R to refresh the registry."))
	}

	for i, row := range a.serverRows {
		lines = append(lines, a.renderServerRow(row, i == a.selectedServerIdx, modalWidth))
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	lines = append([]string{emptyLine}, lines...)
	lines = append(lines, emptyLine)

	footerText := FormatFooter("j/k", "Navigate", "t", "Start/Stop", "e", "Session Toggle", "R", "Refresh", "Esc", "Exit")
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
		Width(a.width).
		Height(a.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}

// renderServerRow renders one dashboard row: lifecycle symbol, name,
// version, status word, conflict label, and the failure detail when a
// server crashed.
func (a AppView) renderServerRow(row mcp.ServerInfo, selected bool, width int) string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}

	symbol := serverStatusStyle(row.Status).Render(row.Status.Symbol())
	statusText := serverStatusStyle(row.Status).Render(string(row.Status))

	sessionMarker := " "
	if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.IsServerEnabled(row.ID) {
		sessionMarker = UserStyle.Render("●")
	}

	name := row.Name
	if row.Version != "" {
		name += DimStyle.Render(" v" + row.Version)
	}

	conflict := ""
	if label := row.Conflict.Label(); label != "" {
		conflict = "  " + lipgloss.NewStyle().Foreground(warningColor).Render("⚠ "+label)
	}

	detail := ""
	if row.Detail != "" {
		detail = "  " + DimStyle.Render(truncate(row.Detail, 40))
	}

	line := fmt.Sprintf("%s%s %s  %s  %s%s%s", indicator, symbol, sessionMarker, name, statusText, conflict, detail)

	style := lipgloss.NewStyle().MaxWidth(width)
	if selected {
		style = style.Bold(true)
	}
	return style.Render(line)
}

func serverStatusStyle(status mcp.ServerStatus) lipgloss.Style {
	switch status {
	case mcp.StatusHealthy:
		return lipgloss.NewStyle().Foreground(successColor)
	case mcp.StatusDegraded, mcp.StatusUpdating, mcp.StatusStarting, mcp.StatusPending:
		return lipgloss.NewStyle().Foreground(warningColor)
	case mcp.StatusCrashed, mcp.StatusError, mcp.StatusOrphaned:
		return lipgloss.NewStyle().Foreground(dangerColor)
	default:
		return lipgloss.NewStyle().Foreground(dimColor)
	}
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
