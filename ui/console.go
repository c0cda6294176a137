package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mentis/config"
	"mentis/provider"
	"mentis/storage"
)

func (a AppView) handleConsoleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showConsole = false
		return a, nil

	case "j", "down":
		if a.selectedProviderIdx < len(a.consoleProviders)-1 {
			a.selectedProviderIdx++
			a.consoleStatus = ""
			return a, a.loadConsoleModels()
		}
		return a, nil

	case "k", "up":
		if a.selectedProviderIdx > 0 {
			a.selectedProviderIdx--
			a.consoleStatus = ""
			return a, a.loadConsoleModels()
		}
		return a, nil

	case "p":
		// Credential check against the live API
		sel := a.selectedConsoleProvider()
		if sel == nil {
			return a, nil
		}
		a.consoleStatus = "testing " + sel.Name + "..."
		return a, provider.PingProvider(sel.ID, sel.URL, a.providerAPIKey(sel.ID))

	case "f":
		// Live availability check: fetch the provider's model list
		// without touching the cache
		sel := a.selectedConsoleProvider()
		if sel == nil {
			return a, nil
		}
		a.consoleStatus = "fetching models from " + sel.Name + "..."
		return a, provider.FetchSingleProviderModels(sel.ID, sel.URL, a.providerAPIKey(sel.ID), a.dataModel.Config.BackendURL())

	case "s", "enter":
		// Re-sync the model cache from the provider
		sel := a.selectedConsoleProvider()
		if sel == nil || a.consoleSyncing {
			return a, nil
		}
		client, ok := a.dataModel.Providers[sel.ID]
		if !ok {
			a.consoleStatus = sel.Name + " is not initialized (missing credentials?)"
			return a, nil
		}
		a.consoleSyncing = true
		a.consoleStatus = "syncing models..."
		return a, provider.SyncProviderModels(sel.ID, client, a.dataModel.ModelCache)
	}

	return a, nil
}

func (a AppView) handleProviderPing(msg pingProviderMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.consoleStatus = fmt.Sprintf("✗ %s: %v", msg.ProviderID, msg.Err)
	} else if msg.Valid {
		a.consoleStatus = fmt.Sprintf("✓ %s credentials valid", msg.ProviderID)
	} else {
		a.consoleStatus = fmt.Sprintf("✗ %s credentials rejected", msg.ProviderID)
	}
	return a, nil
}

func (a AppView) handleLiveModels(msg singleProviderModelsMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.consoleStatus = fmt.Sprintf("✗ fetch failed: %v", msg.Err)
		return a, nil
	}
	a.consoleStatus = fmt.Sprintf("✓ %s reports %d models (press s to sync)", msg.ProviderID, len(msg.Models))
	return a, nil
}

func (a AppView) handleModelSync(msg modelSyncMsg) (tea.Model, tea.Cmd) {
	a.consoleSyncing = false
	if msg.Err != nil {
		a.consoleStatus = fmt.Sprintf("✗ sync failed: %v", msg.Err)
		return a, nil
	}
	a.consoleStatus = fmt.Sprintf("✓ synced %d models from %s", msg.Count, msg.ProviderID)
	return a, a.loadConsoleModels()
}

// loadConsoleModels reads the cached model list for the selected
// provider. The cache serves the console even when the provider is
// unreachable.
func (a AppView) loadConsoleModels() tea.Cmd {
	sel := a.selectedConsoleProvider()
	if sel == nil || a.dataModel.ModelCache == nil {
		return nil
	}
	cache := a.dataModel.ModelCache
	providerID := sel.ID
	return func() tea.Msg {
		models, err := cache.ListProvider(providerID)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] model cache read failed: %v", err)
			}
			models = nil
		}
		return consoleModelsMsg{ProviderID: providerID, Models: models}
	}
}

func (a AppView) selectedConsoleProvider() *consoleProvider {
	if a.selectedProviderIdx >= len(a.consoleProviders) {
		return nil
	}
	return &a.consoleProviders[a.selectedProviderIdx]
}

// providerAPIKey reads the stored credential for a provider. The local
// backend never needs one.
func (a AppView) providerAPIKey(providerID string) string {
	if providerID == "ollama" {
		return ""
	}
	store := a.dataModel.Config.CredentialStore
	if store == nil {
		return ""
	}
	return store.Get(providerID)
}

func (a AppView) renderConsole() string {
	modalWidth := a.width - 10
	if modalWidth > 100 {
		modalWidth = 100
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Model Providers")

	header := a.consoleStatus
	if header == "" {
		if sel := a.selectedConsoleProvider(); sel != nil {
			header = sel.URL
		}
	}
	if a.consoleSyncing {
		header = a.loadingSpinner.View() + " " + a.consoleStatus
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

	// Provider tabs
	var tabs []string
	for i, p := range a.consoleProviders {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == a.selectedProviderIdx {
			style = style.Foreground(accentColor).Bold(true).Underline(true)
		} else {
			style = style.Foreground(dimColor)
		}
		tabs = append(tabs, style.Render(p.Name))
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	// Cached models for the selected provider
	var lines []string
	if len(a.consoleModels) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render("No cached models. Press s to sync."))
	}

	maxLines := a.height - 14
	for i, m := range a.consoleModels {
		if i >= maxLines && maxLines > 0 {
			lines = append(lines, DimStyle.Render(fmt.Sprintf("  ... and %d more", len(a.consoleModels)-i)))
			break
		}
		lines = append(lines, renderConsoleModelRow(m, modalWidth))
	}

	emptyLine := strings.Repeat(" ", modalWidth)

	footerText := FormatFooter("j/k", "Provider", "s", "Sync Models", "f", "Fetch Live", "p", "Test Credentials", "Esc", "Exit")
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection, tabRow, emptyLine}
	sections = append(sections, lines...)
	sections = append(sections, emptyLine, footerSection)

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}

// renderConsoleModelRow renders one cached model: name, context window,
// pricing per million tokens, capabilities.
func renderConsoleModelRow(m storage.CachedModel, width int) string {
	name := m.Name
	if name == "" {
		name = m.InternalName
	}

	ctx := ""
	if m.ContextWindow > 0 {
		ctx = fmt.Sprintf("%dk ctx", m.ContextWindow/1024)
	}

	pricing := "free"
	if m.PricingInput > 0 || m.PricingOutput > 0 {
		pricing = fmt.Sprintf("$%.2f/$%.2f per 1M", m.PricingInput*1e6, m.PricingOutput*1e6)
	}

	caps := ""
	if m.Capabilities != "" {
		caps = DimStyle.Render(" [" + m.Capabilities + "]")
	}

	line := fmt.Sprintf("  %-40s %10s  %s%s", truncate(name, 40), ctx, DimStyle.Render(pricing), caps)
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
