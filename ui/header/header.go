package header

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/util"
)

type Model struct {
	Width   int
	Session *store.SessionManager
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) View() string {
	return renderHeader(m.Session, m.Width)
}

func renderHeader(session *store.SessionManager, width int) string {
	// Each box renders border(2) + padding(2) around its content
	overhead := 16
	availableWidth := width - overhead
	if availableWidth < 40 {
		availableWidth = 40
	}

	username := "guest"
	state := "offline"
	if user := session.CurrentUser(); user != nil {
		username = user.Username
	}
	switch session.State() {
	case store.Authenticated:
		state = "signed in"
	case store.Validating:
		state = "validating"
	case store.Unauthenticated:
		state = "signed out"
	}

	usernameWidth := availableWidth / 6
	atWidth := 1
	versionWidth := availableWidth / 2
	stateWidth := availableWidth - usernameWidth - atWidth - versionWidth

	usernameBox := lipgloss.
		NewStyle().
		SetString(username).
		Align(lipgloss.Left).
		Background(lipgloss.Color(common.COLOR_PURPLE)).
		Padding(1).
		Height(2).
		Width(usernameWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	at := lipgloss.
		NewStyle().
		SetString("@").
		Background(lipgloss.NoColor{}).
		Foreground(lipgloss.Color(common.COLOR_MAGENTA)).
		Padding(1).
		Height(2).
		Width(atWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	version := lipgloss.
		NewStyle().
		SetString(util.GetNameAndVersion()).
		Width(versionWidth).
		Height(2).
		Background(lipgloss.Color(common.COLOR_GREY)).
		Padding(1).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	stateBox := lipgloss.
		NewStyle().
		SetString(state).
		Background(lipgloss.Color(common.COLOR_MAGENTA)).
		Padding(1).
		Align(lipgloss.Left).
		Height(2).
		Width(stateWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		usernameBox,
		at,
		version,
		stateBox,
	)
}
