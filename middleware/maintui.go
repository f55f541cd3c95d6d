package middleware

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/muesli/termenv"

	"github.com/reveriehq/reverie/api"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui"
)

// MainTui serves the terminal client over SSH. Every session drives the same
// shared stores, so a like made in one session shows up in the next refresh
// of another.
func MainTui(client *api.Client, stores *store.Stores) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {
		pty, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		m := ui.NewModel(client, stores, pty.Window.Width, pty.Window.Height)
		return tea.NewProgram(m, tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}
