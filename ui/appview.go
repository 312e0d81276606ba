package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"nailchat/attachment"
	"nailchat/config"
	"nailchat/engine"
	"nailchat/storage"
)

const (
	placeholderReady      = "Type your message, Alt+Enter for a new line..."
	placeholderConnecting = "Connecting to the assistant..."
	placeholderFailed     = "The assistant is unavailable"
)

// Options configures the chat view
type Options struct {
	ServerURL   string
	Keybindings *config.KeyBindingsConfig
	Logger      zerolog.Logger
	Health      HealthFunc // optional
}

type AppView struct {
	eng    *engine.Engine
	kb     *config.KeyBindingsConfig
	log    zerolog.Logger
	health HealthFunc

	// UI Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	snapshot    engine.Snapshot
	draft       attachment.Draft
	renderCache *renderCache

	// Transient lines under the composer
	sendError string
	status    string

	serverURL     string
	serviceStatus string

	showHelp       bool
	sessionManager sessionManagerState
	search         searchState
	imagePicker    FilePickerState
}

func NewAppView(eng *engine.Engine, opts Options) AppView {
	kb := opts.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = placeholderConnecting
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Enter sends; newline gets its own binding
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(kb.GetActionKey("newline")))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.CharLimit = 64

	renameInput := textinput.New()
	renameInput.Prompt = "Rename: "
	renameInput.CharLimit = storage.TitleMaxRunes * 2

	searchInput := textinput.New()
	searchInput.Prompt = "Search all: "
	searchInput.CharLimit = 100

	imagePicker := NewFilePickerState(FilePickerConfig{
		Title:        "Attach Image",
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".webp"},
	})

	a := AppView{
		eng:         eng,
		kb:          kb,
		log:         opts.Logger.With().Str("component", "ui").Logger(),
		health:      opts.Health,
		viewport:    viewport.New(0, 0),
		textarea:    ta,
		spinner:     sp,
		renderCache: newRenderCache(),
		serverURL:   opts.ServerURL,
		sessionManager: sessionManagerState{
			filterInput: filterInput,
			renameInput: renameInput,
		},
		search:      searchState{input: searchInput},
		imagePicker: imagePicker,
	}
	a.refresh()

	return a
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.spinner.Tick,
		connect(a.eng),
		checkHealth(a.health),
	)
}

// refresh re-reads the active session from the engine
func (a *AppView) refresh() {
	a.snapshot = a.eng.Active()

	switch {
	case a.snapshot.Ready:
		a.textarea.Placeholder = placeholderReady
	case a.snapshot.InitError != nil:
		a.textarea.Placeholder = placeholderFailed
	default:
		a.textarea.Placeholder = placeholderConnecting
	}
}

func (a AppView) busy() bool {
	return a.snapshot.Sending || a.snapshot.Connecting || (!a.snapshot.Ready && a.snapshot.InitError == nil)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading nailchat..."
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}
	if a.imagePicker.Active {
		return RenderFilePickerModal(a.imagePicker, a.width, a.height)
	}
	if a.sessionManager.visible {
		return a.renderSessionManager()
	}
	if a.search.visible {
		return a.renderGlobalSearch()
	}

	appText := AssistantStyle.Render("nailchat")
	title := a.snapshot.Title
	if title == "" {
		title = "New Chat"
	}
	titleBar := appText + UserStyle.Render(fmt.Sprintf(" - %s", title))
	if a.serviceStatus != "" {
		titleBar += DimStyle.Render(" | " + a.serviceStatus)
	}

	var notice string
	switch {
	case a.snapshot.InitError != nil && len(a.snapshot.Messages) > 0:
		notice = ErrorStyle.Render("Could not start a conversation: " + a.snapshot.InitError.Error())
	case a.sendError != "":
		notice = ErrorStyle.Render(a.sendError) + DimStyle.Render("  (Esc to dismiss)")
	case a.draft.HasImage():
		notice = HighlightStyle.Render(fmt.Sprintf("Attached: %s (%s)", a.draft.Image.Name, formatBytes(a.draft.Image.Size()))) +
			DimStyle.Render(fmt.Sprintf("  %s to remove", a.kb.DisplayActionKey("remove_image")))
	case a.status != "":
		notice = DimStyle.Render(a.status)
	}

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s  %s %s",
		a.kb.DisplayActionKey("quit"), descStyle.Render("Quit"),
		a.kb.DisplayActionKey("new_chat"), descStyle.Render("New"),
		a.kb.DisplayActionKey("session_manager"), descStyle.Render("Sessions"),
		a.kb.DisplayActionKey("attach_image"), descStyle.Render("Image"),
		a.kb.DisplayActionKey("yank_last_response"), descStyle.Render("Copy"),
		a.kb.DisplayActionKey("help"), descStyle.Render("Help"),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleBar,
		"",
		a.viewport.View(),
		notice,
		a.textarea.View(),
		StatusStyle.Render(statusBar),
	)
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// lastAssistantMessage returns the newest assistant message of the active session
func (a AppView) lastAssistantMessage() (storage.Message, bool) {
	for i := len(a.snapshot.Messages) - 1; i >= 0; i-- {
		if a.snapshot.Messages[i].Role == storage.RoleAssistant {
			return a.snapshot.Messages[i], true
		}
	}
	return storage.Message{}, false
}
