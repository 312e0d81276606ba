package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type helpEntry struct {
	action string
	label  string
}

var (
	helpSessions = []helpEntry{
		{"new_chat", "New chat"},
		{"session_manager", "Sessions (open, pin, rename, delete)"},
		{"search_messages", "Search all messages"},
		{"help", "Toggle this help"},
		{"quit", "Quit"},
	}

	helpChat = []helpEntry{
		{"send", "Send message"},
		{"newline", "New line"},
		{"attach_image", "Attach an image"},
		{"remove_image", "Remove attached image"},
		{"yank_last_response", "Copy last answer"},
		{"like", "Like last answer"},
		{"dislike", "Dislike last answer"},
		{"scroll_up", "Scroll up"},
		{"scroll_down", "Scroll down"},
		{"dismiss", "Dismiss notices"},
	}
)

func (a AppView) renderHelpSection(heading string, entries []helpEntry) string {
	lines := []string{lipgloss.NewStyle().Foreground(accentColor).Render("## " + heading)}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %-13s %s", a.kb.DisplayActionKey(e.action), e.label))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a AppView) renderHelpModal(width, height int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor).
		Render("nailchat - Keyboard Shortcuts")

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.NewStyle().Foreground(accentColor).Render("## Tips"),
		"• Images: JPEG, PNG or WebP, up to 5 MB",
		"• Pressing like or dislike again clears it",
		"• Keys live in keybindings.toml",
	)

	columnStyle := lipgloss.NewStyle().Width(46).PaddingLeft(4)
	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, a.renderHelpSection("Sessions", helpSessions), "", tips)),
		columnStyle.Render(a.renderHelpSection("Chat", helpChat)),
	)

	if a.serverURL != "" {
		columns = lipgloss.JoinVertical(lipgloss.Left, columns, "", DimStyle.Render("    Assistant: "+a.serverURL))
	}

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close this help", a.kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", columns, "", footer)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2).
		Width(min(100, max(width-4, 20)))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, helpBox.Render(content))
}
