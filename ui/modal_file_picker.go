package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/lipgloss"

	"nailchat/config"
)

type FilePickerConfig struct {
	Title          string
	AllowedTypes   []string
	StartDirectory string // defaults to the home directory
	ShowHidden     bool
}

// FilePickerState wraps a filepicker shown as a modal
type FilePickerState struct {
	Active bool
	Picker filepicker.Model
	Config FilePickerConfig
}

func NewFilePickerState(cfg FilePickerConfig) FilePickerState {
	fp := filepicker.New()
	fp.AllowedTypes = cfg.AllowedTypes
	fp.Height = 10
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.ShowHidden = cfg.ShowHidden

	fp.CurrentDirectory = cfg.StartDirectory
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory = config.GetHomeDir()
	}

	fp.Styles.Directory = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(successColor)

	return FilePickerState{Picker: fp, Config: cfg}
}

func (fps *FilePickerState) Activate() {
	fps.Active = true
}

func (fps *FilePickerState) Reset() {
	fps.Active = false
}

func RenderFilePickerModal(state FilePickerState, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := modalWidthFor(80, width)
	contentStyle := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Left)

	var lines []string
	for _, line := range strings.Split(state.Picker.View(), "\n") {
		lines = append(lines, contentStyle.Render("  "+strings.TrimRight(line, " ")))
	}

	return RenderThreeSectionModal(
		state.Config.Title,
		lines,
		FormatFooter("j/k", "Navigate", "h/l", "Back/Open", "Enter", "Select", "Esc", "Cancel"),
		ModalTypeInfo,
		modalWidth,
		width,
		height,
	)
}
