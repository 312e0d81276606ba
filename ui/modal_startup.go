package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModal is a standalone program shown when startup fails before the
// chat view exists
type ErrorModal struct {
	title   string
	message string
	width   int
	height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{title: title, message: message}
}

func (m ErrorModal) Init() tea.Cmd {
	return nil
}

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ErrorModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	modalWidth := modalWidthFor(60, m.width)
	return RenderThreeSectionModal(
		m.title,
		centeredLines(wordWrap(m.message, modalWidth-4), modalWidth),
		"Press Enter to quit",
		ModalTypeError,
		modalWidth,
		m.width,
		m.height,
	)
}

// InstanceLockedModal is shown when another nailchat process holds the
// data directory. The user can exit or remove a stale lock.
type InstanceLockedModal struct {
	runningPID  int
	dataDir     string
	width       int
	height      int
	forceDelete bool
}

func NewInstanceLockedModal(runningPID int, dataDir string) InstanceLockedModal {
	return InstanceLockedModal{runningPID: runningPID, dataDir: dataDir}
}

func (m InstanceLockedModal) Init() tea.Cmd {
	return nil
}

func (m InstanceLockedModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "ctrl+c":
			return m, tea.Quit
		case "d", "D":
			m.forceDelete = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// ForceDelete reports whether the user chose to remove the lock file
func (m InstanceLockedModal) ForceDelete() bool {
	return m.forceDelete
}

func (m InstanceLockedModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	message := fmt.Sprintf(
		"Another nailchat instance is using\n%s\n(PID %d).\n\n"+
			"Two instances would overwrite each other's chat history.\n\n"+
			"Close the other instance, or start this one with\n"+
			"--data-dir pointing somewhere else.\n\n"+
			"If no other instance is running, press D to remove\n"+
			"the lock file and continue.",
		m.dataDir, m.runningPID)

	modalWidth := modalWidthFor(62, m.width)
	return RenderThreeSectionModal(
		"⚠️  nailchat Already Running",
		centeredLines(message, modalWidth),
		FormatFooter("Enter", "Exit", "D", "Remove lock"),
		ModalTypeError,
		modalWidth,
		m.width,
		m.height,
	)
}
