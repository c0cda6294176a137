package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"mentis/ollama"
)

func (a AppView) handleModelSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modelFilterMode {
		switch msg.String() {
		case "esc":
			a.modelFilterMode = false
			a.modelFilterInput.Blur()
			a.filteredModelList = nil
			return a, nil

		case "enter":
			return a.selectModel()

		case "alt+j", "down":
			list := a.getModelList()
			if a.selectedModelIdx < len(list)-1 {
				a.selectedModelIdx++
			}
			return a, nil

		case "alt+k", "up":
			if a.selectedModelIdx > 0 {
				a.selectedModelIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)

		filterValue := a.modelFilterInput.Value()
		if filterValue == "" {
			a.filteredModelList = a.modelList
		} else {
			targets := make([]string, len(a.modelList))
			for i, m := range a.modelList {
				targets[i] = m.Name
			}
			matches := fuzzy.Find(filterValue, targets)
			a.filteredModelList = make([]ollama.ModelInfo, len(matches))
			for i, match := range matches {
				a.filteredModelList[i] = a.modelList[match.Index]
			}
		}

		if list := a.getModelList(); a.selectedModelIdx >= len(list) && len(list) > 0 {
			a.selectedModelIdx = len(list) - 1
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.modelFilterMode = true
		a.modelFilterInput.Focus()
		a.modelFilterInput.SetValue("")
		a.filteredModelList = a.modelList
		return a, textinput.Blink

	case "esc":
		a.showModelSelector = false
		return a, nil

	case "j", "down":
		list := a.getModelList()
		if a.selectedModelIdx < len(list)-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		return a.selectModel()
	}

	return a, nil
}

// selectModel switches the active provider to the highlighted model and
// persists the choice on the current session.
func (a AppView) selectModel() (tea.Model, tea.Cmd) {
	list := a.getModelList()
	if a.selectedModelIdx >= len(list) {
		return a, nil
	}
	selected := list[a.selectedModelIdx]

	// InternalName is the provider's wire identifier; Name is display
	modelID := selected.InternalName
	if modelID == "" {
		modelID = selected.Name
	}

	if selected.Provider != "" && a.dataModel.CurrentSession != nil {
		a.dataModel.CurrentSession.Provider = selected.Provider
	}
	a.dataModel.ActiveProvider().SetModel(modelID)
	if a.dataModel.CurrentSession != nil {
		a.dataModel.CurrentSession.Model = modelID
	}

	a.showModelSelector = false
	a.modelFilterMode = false
	a.modelFilterInput.Blur()
	a.filteredModelList = nil

	return a, a.dataModel.SaveCurrentSession()
}

func renderModelSelector(models []ollama.ModelInfo, selectedIdx int, currentModel string, filterMode bool, filterInput textinput.Model, filteredModels []ollama.ModelInfo, multiProvider bool, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Select Model")

	// Header: filter input or count
	var header string
	if filterMode {
		header = filterInput.View()
	} else {
		displayList := models
		if len(filteredModels) > 0 {
			displayList = filteredModels
		}
		if len(models) == len(displayList) {
			header = fmt.Sprintf("%d models", len(models))
		} else {
			header = fmt.Sprintf("%d of %d models", len(displayList), len(models))
		}
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

	displayList := models
	if filterMode && len(filteredModels) > 0 {
		displayList = filteredModels
	}

	var modelLines []string
	maxLines := modalHeight - 8

	if len(displayList) == 0 {
		emptyMsg := "No models available"
		if filterMode {
			emptyMsg = "No matches found"
		}
		modelLines = append(modelLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx := 0
		endIdx := len(displayList)

		if len(displayList) > maxLines {
			if selectedIdx < maxLines/2 {
				endIdx = maxLines
			} else if selectedIdx >= len(displayList)-maxLines/2 {
				startIdx = len(displayList) - maxLines
			} else {
				startIdx = selectedIdx - maxLines/2
				endIdx = startIdx + maxLines
			}
		}

		for i := startIdx; i < endIdx && i < len(displayList); i++ {
			model := displayList[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			size := formatSize(model.Size)

			currentMarker := ""
			if model.Name == currentModel || model.InternalName == currentModel {
				currentMarker = " (current)"
			}

			toolIndicator := ""
			toolIndicatorWidth := 0
			if ollama.ModelSupportsToolCalling(model.Name) {
				toolIndicator = " [🔧]"
				toolIndicatorWidth = 5
			}

			providerSuffix := ""
			if multiProvider && model.Provider != "" {
				providerSuffix = fmt.Sprintf(" (%s)", model.Provider)
			}

			name := model.Name
			maxNameWidth := modalWidth - 20
			if len(name)+len(providerSuffix) > maxNameWidth && maxNameWidth > len(providerSuffix)+3 {
				name = name[:maxNameWidth-len(providerSuffix)-3] + "..."
			}

			spacing := modalWidth - len(indicator) - len(name) - len(providerSuffix) - toolIndicatorWidth - len(currentMarker) - len(size) - 4
			if spacing < 1 {
				spacing = 1
			}

			line := fmt.Sprintf("%s%s%s%s%s%s%s",
				indicator, name, providerSuffix, toolIndicator, currentMarker,
				strings.Repeat(" ", spacing), size)

			lineStyle := lipgloss.NewStyle()
			if i == selectedIdx {
				lineStyle = lineStyle.Foreground(successColor).Bold(true)
			} else if currentMarker != "" {
				lineStyle = lineStyle.Foreground(accentColor).Bold(true)
			}

			modelLines = append(modelLines, lipgloss.NewStyle().
				Width(modalWidth).
				Render(lineStyle.Render(line)))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	modelLines = append([]string{emptyLine}, modelLines...)
	modelLines = append(modelLines, emptyLine)

	var footerText string
	if filterMode {
		footerText = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Select", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Select", "🔧", "Tool Support", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, modelLines...)
	sections = append(sections, footerSection)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}

// formatSize converts bytes to human-readable form. Zero means the
// provider does not report sizes and renders as empty.
func formatSize(bytes int64) string {
	if bytes == 0 {
		return ""
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
