package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"nailchat/engine"
	"nailchat/storage"
)

type sessionManagerState struct {
	visible  bool
	sessions []storage.Session
	selected int

	filterMode  bool
	filterInput textinput.Model

	renameMode  bool
	renameInput textinput.Model

	confirmDelete *storage.Session
}

func (a *AppView) openSessionManager() {
	sm := &a.sessionManager
	sm.visible = true
	sm.filterMode = false
	sm.renameMode = false
	sm.confirmDelete = nil
	sm.filterInput.SetValue("")
	sm.sessions = a.eng.Sessions("")

	// Start on the active session when it is in the list
	sm.selected = 0
	for i, s := range sm.sessions {
		if s.ID == a.snapshot.SessionID {
			sm.selected = i
			break
		}
	}
}

// reloadSessions refreshes the list after a roster change, keeping the
// selection on the same session where possible
func (a *AppView) reloadSessions() {
	sm := &a.sessionManager
	var selectedID string
	if sm.selected < len(sm.sessions) {
		selectedID = sm.sessions[sm.selected].ID
	}

	sm.sessions = a.eng.Sessions(sm.filterInput.Value())
	for i, s := range sm.sessions {
		if s.ID == selectedID {
			sm.selected = i
			return
		}
	}
	sm.selected = min(sm.selected, max(len(sm.sessions)-1, 0))
}

func (a *AppView) selectedSession() (storage.Session, bool) {
	sm := a.sessionManager
	if sm.selected < 0 || sm.selected >= len(sm.sessions) {
		return storage.Session{}, false
	}
	return sm.sessions[sm.selected], true
}

func (a AppView) handleSessionManagerKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	sm := &a.sessionManager

	if sm.confirmDelete != nil {
		switch msg.String() {
		case "y", "Y":
			target := *sm.confirmDelete
			sm.confirmDelete = nil
			return a.deleteSession(target)
		case "n", "N", "esc":
			sm.confirmDelete = nil
		}
		return a, nil
	}

	if sm.renameMode {
		switch msg.String() {
		case "enter":
			target, ok := a.selectedSession()
			if ok {
				if err := a.eng.Rename(target.ID, sm.renameInput.Value()); err != nil && !errors.Is(err, engine.ErrEmptyTitle) {
					a.status = fmt.Sprintf("Rename failed: %v", err)
				}
			}
			sm.renameMode = false
			sm.renameInput.Blur()
			a.reloadSessions()
			a.refresh()
			return a, nil
		case "esc":
			sm.renameMode = false
			sm.renameInput.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		sm.renameInput, cmd = sm.renameInput.Update(msg)
		return a, cmd
	}

	if sm.filterMode {
		switch msg.String() {
		case "esc":
			sm.filterMode = false
			sm.filterInput.SetValue("")
			sm.filterInput.Blur()
			a.reloadSessions()
			return a, nil
		case "enter":
			sm.filterMode = false
			sm.filterInput.Blur()
			return a, nil
		case "up", "down":
			// fall through to list navigation
		default:
			var cmd tea.Cmd
			sm.filterInput, cmd = sm.filterInput.Update(msg)
			sm.selected = 0
			a.reloadSessions()
			return a, cmd
		}
	}

	switch msg.String() {
	case "esc", "q":
		if sm.filterInput.Value() != "" {
			sm.filterInput.SetValue("")
			a.reloadSessions()
			return a, nil
		}
		sm.visible = false

	case "up", "k":
		if sm.selected > 0 {
			sm.selected--
		}

	case "down", "j":
		if sm.selected < len(sm.sessions)-1 {
			sm.selected++
		}

	case "/":
		sm.filterMode = true
		return a, sm.filterInput.Focus()

	case "enter":
		target, ok := a.selectedSession()
		if !ok {
			return a, nil
		}
		if err := a.eng.Switch(target.ID); err != nil {
			a.status = fmt.Sprintf("Could not open session: %v", err)
			return a, nil
		}
		sm.visible = false
		a.draft.Reset()
		a.textarea.Reset()
		a.sendError = ""
		a.refresh()
		a.updateViewportContent(true)

	case "p":
		target, ok := a.selectedSession()
		if !ok {
			return a, nil
		}
		if _, err := a.eng.TogglePin(target.ID); err != nil {
			a.status = fmt.Sprintf("Pin failed: %v", err)
		}
		a.reloadSessions()

	case "r":
		target, ok := a.selectedSession()
		if !ok {
			return a, nil
		}
		sm.renameMode = true
		sm.renameInput.SetValue(target.Title)
		sm.renameInput.CursorEnd()
		return a, sm.renameInput.Focus()

	case "d":
		if target, ok := a.selectedSession(); ok {
			sm.confirmDelete = &target
		}
	}

	return a, nil
}

// deleteSession removes a session locally and forgets its conversation on
// the service in the background
func (a AppView) deleteSession(target storage.Session) (AppView, tea.Cmd) {
	convID, wasActive, err := a.eng.Remove(target.ID)
	if err != nil {
		a.status = fmt.Sprintf("Delete failed: %v", err)
		return a, nil
	}

	a.reloadSessions()
	a.status = fmt.Sprintf("Deleted %q", target.Title)
	if wasActive {
		a.draft.Reset()
		a.textarea.Reset()
		a.sendError = ""
	}
	a.refresh()
	a.updateViewportContent(true)

	cmds := []tea.Cmd{forgetRemote(a.eng, convID)}
	if wasActive {
		cmds = append(cmds, connect(a.eng), a.spinner.Tick)
	}
	return a, tea.Batch(cmds...)
}

func (a AppView) renderSessionManager() string {
	sm := a.sessionManager

	if sm.confirmDelete != nil {
		warning := lipgloss.NewStyle().Foreground(dangerColor).Render("This cannot be undone.")
		return RenderConfirmationModal(
			"⚠ Delete Session",
			fmt.Sprintf("Delete \"%s\"?\n\n%s", sm.confirmDelete.Title, warning),
			a.width,
			a.height,
		)
	}

	modalWidth := modalWidthFor(100, a.width)
	maxRows := max((a.height-12)/2, 1)

	var header string
	switch {
	case sm.filterMode:
		header = sm.filterInput.View()
	case sm.filterInput.Value() != "":
		header = fmt.Sprintf("%d matching %q  (Esc to clear)", len(sm.sessions), sm.filterInput.Value())
	default:
		header = fmt.Sprintf("%d sessions", len(sm.sessions))
	}

	lines := []string{
		lipgloss.NewStyle().Foreground(dimColor).Width(modalWidth).Align(lipgloss.Center).Render(header),
		"",
	}

	if len(sm.sessions) == 0 {
		empty := "No sessions yet. Start chatting to create one!"
		if sm.filterInput.Value() != "" {
			empty = "No matches found"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(dimColor).Italic(true).Width(modalWidth).Align(lipgloss.Center).Render(empty))
	}

	start, end := visibleWindow(len(sm.sessions), sm.selected, maxRows)
	now := time.Now()
	for i := start; i < end; i++ {
		lines = append(lines, a.renderSessionRow(sm.sessions[i], i == sm.selected, modalWidth, now)...)
	}

	footer := FormatFooter("j/k", "Move", "Enter", "Open", "p", "Pin", "r", "Rename", "d", "Delete", "/", "Filter", "Esc", "Close")
	if sm.renameMode {
		footer = FormatFooter("Enter", "Save", "Esc", "Cancel")
	}

	return RenderThreeSectionModal("Sessions", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}

// renderSessionRow draws a session as a title line and a preview line
func (a AppView) renderSessionRow(s storage.Session, selected bool, modalWidth int, now time.Time) []string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}

	pin := "  "
	if s.Pinned {
		pin = HighlightStyle.Render("📌")
	}

	activity := s.ActivityLabel(now)
	count := fmt.Sprintf("%d msgs", len(s.Messages))
	if len(s.Messages) == 1 {
		count = "1 msg"
	}
	right := fmt.Sprintf("%8s  %9s", count, activity)

	titleWidth := max(modalWidth-runewidth.StringWidth(right)-8, 8)

	var title string
	if selected && a.sessionManager.renameMode {
		title = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(a.sessionManager.renameInput.View())
	} else {
		plain := runewidth.Truncate(s.Title, titleWidth, "...")
		pad := strings.Repeat(" ", max(titleWidth-runewidth.StringWidth(plain), 0))
		switch {
		case selected:
			title = SelectedStyle.Render(plain) + pad
		case s.ID == a.snapshot.SessionID:
			title = AssistantStyle.Bold(true).Render(plain) + pad
		default:
			title = plain + pad
		}
	}

	preview := s.Preview
	if preview == "" {
		preview = "(no messages)"
	}
	preview = runewidth.Truncate(preview, modalWidth-8, "...")

	return []string{
		indicator + pin + " " + title + "  " + DimStyle.Render(right),
		"     " + DimStyle.Render(preview),
	}
}

// visibleWindow returns the slice of rows to draw so the selection stays
// on screen
func visibleWindow(total, selected, rows int) (int, int) {
	if total <= rows {
		return 0, total
	}
	start := selected - rows/2
	start = max(start, 0)
	start = min(start, total-rows)
	return start, start + rows
}
