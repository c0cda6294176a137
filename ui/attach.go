package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"mentis/config"
	appmodel "mentis/model"
)

// newAttachPicker builds the image picker for staging attachments.
func newAttachPicker() filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	fp.Height = 10
	fp.DirAllowed = true
	fp.FileAllowed = true
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.CurrentDirectory = config.GetHomeDir()

	fp.Styles.Directory = lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)
	fp.Styles.File = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15"))
	fp.Styles.Selected = lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)
	fp.Styles.Cursor = lipgloss.NewStyle().
		Foreground(successColor)

	return fp
}

func (a AppView) handleAttachPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showAttachPicker = false
		a.attachErr = ""
		return a, nil
	}

	var cmd tea.Cmd
	a.attachPicker, cmd = a.attachPicker.Update(msg)

	// Path is set once the user confirms a selection. Directories pass
	// through the picker too, so only files become attachments.
	if a.attachPicker.Path != "" {
		path := a.attachPicker.Path
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			a.dataModel.AddAttachment(appmodel.ImageAttachment{
				ID:   uuid.NewString(),
				URL:  path,
				Name: filepath.Base(path),
				Size: info.Size(),
			})
			a.attachPicker.Path = ""
			a.showAttachPicker = false
			a.attachErr = ""
			return a, cmd
		}
		a.attachPicker.Path = ""
	}

	if didSelect, path := a.attachPicker.DidSelectDisabledFile(msg); didSelect {
		a.attachErr = fmt.Sprintf("%s is not an image", filepath.Base(path))
	}

	return a, cmd
}

func (a AppView) renderAttachPicker() string {
	if a.width < 20 || a.height < 10 {
		return "Terminal too small"
	}

	modalWidth := a.width - 10
	if modalWidth < 10 {
		modalWidth = 10
	}

	title := TitleStyle.Render("Attach Image")

	var body strings.Builder
	body.WriteString(title + "\n\n")
	body.WriteString(a.attachPicker.View() + "\n")

	if a.attachErr != "" {
		body.WriteString(lipgloss.NewStyle().Foreground(dangerColor).Render("✗ "+a.attachErr) + "\n")
	}
	if n := len(a.dataModel.Attachments); n > 0 {
		names := make([]string, 0, n)
		for _, att := range a.dataModel.Attachments {
			names = append(names, att.Name)
		}
		body.WriteString(DimStyle.Render("📎 staged: "+strings.Join(names, ", ")) + "\n")
	}

	body.WriteString("\n" + FormatFooter("Enter", "Select", "Esc", "Close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Width(modalWidth).
		Render(body.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}
