package ui

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mentis/config"
	"mentis/mcp"
	appmodel "mentis/model"
	"mentis/ollama"
	"mentis/storage"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI Components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Streaming UI state
	currentResp   *strings.Builder // Pointer to avoid copy panic
	showHelp      bool
	cursorVisible bool
	flashMsg      string // transient status-bar notice

	// Typewriter effect fields
	chunks     []string
	chunkIndex int

	// Loading spinner (bubbles/spinner)
	loadingSpinner spinner.Model

	// Thought panels: collapsed by default, Alt+T toggles
	showThoughts bool

	// Model selector
	showModelSelector bool
	modelList         []ollama.ModelInfo
	selectedModelIdx  int
	modelFilterMode   bool
	modelFilterInput  textinput.Model
	filteredModelList []ollama.ModelInfo

	// Session management UI
	showSessionManager   bool
	sessionList          []storage.SessionMetadata
	selectedSessionIdx   int
	sessionRenameMode    bool
	sessionRenameInput   textinput.Model
	sessionFilterMode    bool
	sessionFilterInput   textinput.Model
	filteredSessionList  []storage.SessionMetadata
	confirmDeleteSession *storage.SessionMetadata
	sessionNotice        string

	// Server dashboard
	showDashboard     bool
	serverRows        []mcp.ServerInfo
	selectedServerIdx int
	dashboardErr      string
	dashboardNotice   string
	refreshingServers bool

	// Attachment picker
	showAttachPicker bool
	attachPicker     filepicker.Model
	attachErr        string

	// Provider console
	showConsole         bool
	consoleProviders    []consoleProvider
	selectedProviderIdx int
	consoleModels       []storage.CachedModel
	consoleStatus       string
	consoleSyncing      bool
}

// consoleProvider is one selectable row in the provider console
type consoleProvider struct {
	ID   string
	Name string
	URL  string
}

func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	// Dynamic prompt: "> " for first line, "| " for continuation lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	sessionFilterInput := textinput.New()
	sessionFilterInput.Prompt = "Filter: "
	sessionFilterInput.CharLimit = 64

	sessionRenameInput := textinput.New()
	sessionRenameInput.Prompt = "Name: "
	sessionRenameInput.CharLimit = 64

	modelFilterInput := textinput.New()
	modelFilterInput.Prompt = "Filter: "
	modelFilterInput.CharLimit = 64

	return AppView{
		dataModel:           dataModel,
		textarea:            ta,
		viewport:            vp,
		loadingSpinner:      sp,
		currentResp:         &strings.Builder{},
		ready:               false,
		sessionFilterInput:  sessionFilterInput,
		sessionRenameInput:  sessionRenameInput,
		modelFilterInput:    modelFilterInput,
		filteredSessionList: []storage.SessionMetadata{},
		filteredModelList:   []ollama.ModelInfo{},
		attachPicker:        newAttachPicker(),
		consoleProviders:    buildConsoleProviders(dataModel.Config),
	}
}

// buildConsoleProviders assembles the console rows: the local backend
// first, then every enabled cloud provider from the user config.
func buildConsoleProviders(cfg *config.Config) []consoleProvider {
	providers := []consoleProvider{
		{ID: "ollama", Name: "Ollama (local)", URL: cfg.BackendURL()},
	}
	for _, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}
		name := p.Name
		if name == "" {
			name = config.ProviderDisplayName(p.ID)
		}
		url := p.BaseURL
		if url == "" {
			url = config.ProviderDefaultBaseURL(p.ID)
		}
		providers = append(providers, consoleProvider{ID: p.ID, Name: name, URL: url})
	}
	return providers
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		a.loadingSpinner.Tick,
		a.dataModel.FetchModelList(false),
	}

	// Start installed servers asynchronously
	if a.dataModel.MCPManager != nil {
		cmds = append(cmds, startAllServersCmd(a.dataModel.MCPManager))
	}

	return tea.Batch(cmds...)
}

// View is the top-level render dispatch. A panic anywhere in the render
// tree degrades to a plain fallback frame instead of crashing the
// program: a rendering bug must never take down an active session.
func (a AppView) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] render panic recovered: %v\n%s", r, debug.Stack())
			}
			out = a.fallbackView(r)
		}
	}()

	if !a.ready {
		return "Loading Mentis..."
	}

	// Modal rendering order (top to bottom layers):
	// 1. Help (always on top)
	// 2. Model selector
	// 3. Server dashboard
	// 4. Provider console
	// 5. Session manager

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	if a.showModelSelector {
		multiProvider := len(a.dataModel.Providers) > 1
		return renderModelSelector(a.modelList, a.selectedModelIdx, a.dataModel.ActiveProvider().GetModel(), a.modelFilterMode, a.modelFilterInput, a.filteredModelList, multiProvider, a.width, a.height)
	}

	if a.showDashboard {
		return a.renderDashboard()
	}

	if a.showConsole {
		return a.renderConsole()
	}

	if a.showAttachPicker {
		return a.renderAttachPicker()
	}

	if a.showSessionManager {
		currentSessionID := ""
		if a.dataModel.CurrentSession != nil {
			currentSessionID = a.dataModel.CurrentSession.ID
		}
		return renderSessionManager(a.getSessionList(), a.selectedSessionIdx, currentSessionID, a.sessionRenameMode, a.sessionRenameInput, a.sessionFilterMode, a.sessionFilterInput, a.confirmDeleteSession, a.sessionNotice, a.width, a.height)
	}

	return a.renderChat()
}

// renderChat renders the main chat screen: title bar, viewport, input,
// status bar.
func (a AppView) renderChat() string {
	appText := AssistantStyle.Render("Mentis")
	modelText := TitleStyle.Render(fmt.Sprintf(" - %s", a.dataModel.ActiveProvider().GetDisplayName()))
	sessionName := "New Session"
	if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.Name != "" {
		sessionName = a.dataModel.CurrentSession.Name
	}
	sessionText := UserStyle.Render(fmt.Sprintf(" - %s", sessionName))

	// Server indicator for the session's enabled servers
	serverText := ""
	if a.dataModel.MCPManager != nil && a.dataModel.CurrentSession != nil {
		names := a.dataModel.MCPManager.GetSessionEnabledServerNames(a.dataModel.CurrentSession)
		if len(names) > 0 {
			indicator := " | 🔌 "
			if a.dataModel.MCPManager.HasUnavailableSessionServers(a.dataModel.CurrentSession) {
				indicator = " | ⚠️ "
			}
			if len(names) <= 2 {
				indicator += strings.Join(names, ", ")
			} else {
				indicator += names[0] + ", " + names[1] + fmt.Sprintf(", ... (%d)", len(names))
			}
			serverText = DimStyle.Render(indicator)
		}
	}

	title := appText + modelText + sessionText + serverText

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Alt+N %s  Alt+S %s  Alt+M %s  Alt+P %s  Alt+C %s  Alt+A %s  Alt+T %s  Enter %s",
		descStyle.Render("Quit"),
		descStyle.Render("New"),
		descStyle.Render("Sessions"),
		descStyle.Render("Models"),
		descStyle.Render("Servers"),
		descStyle.Render("Providers"),
		descStyle.Render("Attach"),
		descStyle.Render("Thoughts"),
		descStyle.Render("Send"),
	)
	statusBar = StatusStyle.Render(statusBar)

	if a.dataModel.ErrMsg != "" {
		statusBar = lipgloss.NewStyle().Foreground(dangerColor).Render("✗ "+a.dataModel.ErrMsg) + "\n" + statusBar
	} else if a.flashMsg != "" {
		statusBar = lipgloss.NewStyle().Foreground(successColor).Render("✓ "+a.flashMsg) + "\n" + statusBar
	}

	input := a.textarea.View()
	if len(a.dataModel.Attachments) > 0 {
		names := make([]string, 0, len(a.dataModel.Attachments))
		for _, att := range a.dataModel.Attachments {
			names = append(names, att.Name)
		}
		input = DimStyle.Render("📎 "+strings.Join(names, ", ")) + "\n" + input
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		a.viewport.View(),
		input,
		statusBar,
	)
}

// fallbackView is the degraded frame shown after a render panic. Raw
// message text only, no styling, so the conversation stays readable.
func (a AppView) fallbackView(cause interface{}) string {
	var b strings.Builder
	b.WriteString("Mentis (degraded display mode)\n")
	b.WriteString(fmt.Sprintf("display error: %v\n\n", cause))

	for _, msg := range a.dataModel.Messages {
		b.WriteString(fmt.Sprintf("[%s] %s\n", msg.Role, msg.Content))
	}

	b.WriteString("\n> " + a.dataModel.Input)
	return b.String()
}

func (a AppView) getSessionList() []storage.SessionMetadata {
	if a.sessionFilterMode && len(a.filteredSessionList) > 0 {
		return a.filteredSessionList
	}
	return a.sessionList
}

func (a AppView) getModelList() []ollama.ModelInfo {
	if a.modelFilterMode && len(a.filteredModelList) > 0 {
		return a.filteredModelList
	}
	return a.modelList
}

// setCurrentSession sets the current session and syncs it with the MCP
// manager so tool visibility tracks the session's enabled servers.
func (a *AppView) setCurrentSession(session *storage.Session) {
	a.dataModel.CurrentSession = session
	if a.dataModel.MCPManager != nil {
		_ = a.dataModel.MCPManager.SetSession(session)
	}
}

func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showSessionManager = false
	a.showModelSelector = false
	a.showDashboard = false
	a.showConsole = false
	a.showAttachPicker = false
	a.attachErr = ""

	a.sessionRenameMode = false
	a.sessionFilterMode = false
	a.confirmDeleteSession = nil
	a.modelFilterMode = false

	if a.sessionRenameInput.Focused() {
		a.sessionRenameInput.Blur()
	}
	if a.sessionFilterInput.Focused() {
		a.sessionFilterInput.Blur()
	}
	if a.modelFilterInput.Focused() {
		a.modelFilterInput.Blur()
	}
}
