package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"nailchat/storage"
)

const minSearchQuery = 2

// searchState holds the cross-session message search overlay
type searchState struct {
	visible  bool
	input    textinput.Model
	results  []storage.SessionMessageMatch
	selected int
}

func (a *AppView) openSearch() {
	a.search.visible = true
	a.search.results = nil
	a.search.selected = 0
	a.search.input.SetValue("")
	a.search.input.Focus()
}

func (a *AppView) runSearch() {
	query := strings.TrimSpace(a.search.input.Value())
	a.search.selected = 0
	if len([]rune(query)) < minSearchQuery {
		a.search.results = nil
		return
	}
	a.search.results = a.eng.Search(query)
}

func (a AppView) handleSearchKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	s := &a.search

	switch msg.String() {
	case "esc":
		s.visible = false
		s.input.Blur()
		return a, nil

	case "up", "ctrl+k":
		if s.selected > 0 {
			s.selected--
		}
		return a, nil

	case "down", "ctrl+j":
		if s.selected < len(s.results)-1 {
			s.selected++
		}
		return a, nil

	case "enter":
		if s.selected >= len(s.results) {
			return a, nil
		}
		match := s.results[s.selected]
		if err := a.eng.Switch(match.SessionID); err != nil {
			a.status = fmt.Sprintf("Could not open session: %v", err)
			return a, nil
		}
		s.visible = false
		s.input.Blur()
		a.draft.Reset()
		a.textarea.Reset()
		a.sendError = ""
		a.refresh()
		a.updateViewportContent(true)
		return a, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	a.runSearch()
	return a, cmd
}

func (a AppView) renderGlobalSearch() string {
	s := a.search
	modalWidth := modalWidthFor(100, a.width)
	maxRows := max((a.height-14)/2, 1)

	lines := []string{s.input.View(), ""}

	query := strings.TrimSpace(s.input.Value())
	switch {
	case len([]rune(query)) < minSearchQuery:
		lines = append(lines, DimStyle.Italic(true).Render(fmt.Sprintf("Type at least %d characters", minSearchQuery)))
	case len(s.results) == 0:
		lines = append(lines, DimStyle.Italic(true).Render("No messages match"))
	default:
		lines = append(lines, DimStyle.Render(fmt.Sprintf("%d matches", len(s.results))))
	}

	start, end := visibleWindow(len(s.results), s.selected, maxRows)
	for i := start; i < end; i++ {
		m := s.results[i]

		indicator := "  "
		title := runewidth.Truncate(m.SessionTitle, modalWidth-20, "...")
		if i == s.selected {
			indicator = "▶ "
			title = SelectedStyle.Render(title)
		}

		author := "You"
		if m.Role == storage.RoleAssistant {
			author = "Assistant"
		}

		lines = append(lines,
			indicator+title+DimStyle.Render("  "+m.Timestamp.Format("Jan 2 15:04")),
			"    "+lipgloss.NewStyle().Foreground(dimColor).Render(author+": ")+runewidth.Truncate(m.Preview, modalWidth-16, "..."),
		)
	}

	footer := FormatFooter("↑/↓", "Move", "Enter", "Open session", "Esc", "Close")
	return RenderThreeSectionModal("Search Messages", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}
