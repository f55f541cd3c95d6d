package common

import "github.com/charmbracelet/lipgloss"

const (
	COLOR_GREY      = "241"
	COLOR_MAGENTA   = "170"
	COLOR_LIGHTBLUE = "69"
	COLOR_PURPLE    = "#7D56F4"
	COLOR_GREEN     = "78"
	COLOR_RED       = "203"
)

var (
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREY)).Padding(0, 2)
	CaptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_MAGENTA)).Padding(2)
	NoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREEN)).Padding(0, 2)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_RED)).Padding(0, 2)
	EmptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREY)).Italic(true)
)

func DefaultWindowWidth(width int) int {
	return width - 10
}

func DefaultWindowHeight(height int) int {
	return height - 10
}

func DefaultComposeWidth(width int) int {
	return width / 4
}

func DefaultListWidth(width int) int {
	return width - DefaultComposeWidth(width)
}
