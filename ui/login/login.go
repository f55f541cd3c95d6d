package login

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/util"
)

var (
	Style = lipgloss.NewStyle().Height(25).Width(80).
		Align(lipgloss.Center, lipgloss.Center).
		BorderStyle(lipgloss.ThickBorder()).
		Margin(0, 3)
)

// DoneMsg is emitted after a successful sign-in or sign-up.
type DoneMsg struct{}

type resultMsg struct {
	err error
}

type Model struct {
	Username textinput.Model
	Password textinput.Model
	Fullname textinput.Model
	Step     int  // 0=username, 1=password, 2=fullname (signup only)
	Signup   bool // toggled with ctrl+n
	Err      error

	session *store.SessionManager
}

func InitialModel(session *store.SessionManager) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 30
	username.Width = 30

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 100
	password.Width = 30

	fullname := textinput.New()
	fullname.Placeholder = "Jane Doe"
	fullname.CharLimit = 50
	fullname.Width = 40

	return Model{
		Username: username,
		Password: password,
		Fullname: fullname,
		session:  session,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func submitCmd(session *store.SessionManager, signup bool, username, password, fullname string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if signup {
			err = session.SignUp(context.Background(), username, password, fullname)
		} else {
			err = session.SignIn(context.Background(), username, password)
		}
		return resultMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case resultMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.Password.SetValue("")
			m.Step = 0
			m.focusStep()
			return m, nil
		}
		return m, func() tea.Msg { return DoneMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+n":
			m.Signup = !m.Signup
			m.Err = nil
			m.Step = 0
			m.focusStep()
			return m, nil
		case "enter":
			lastStep := 1
			if m.Signup {
				lastStep = 2
			}
			if m.Step < lastStep {
				m.Step++
				m.focusStep()
				return m, nil
			}
			username := util.NormalizeInput(m.Username.Value())
			password := m.Password.Value()
			if username == "" || password == "" {
				m.Err = fmt.Errorf("username and password are required")
				m.Step = 0
				m.focusStep()
				return m, nil
			}
			m.Err = nil
			return m, submitCmd(m.session, m.Signup, username, password, util.NormalizeInput(m.Fullname.Value()))
		}
	}

	switch m.Step {
	case 0:
		m.Username, cmd = m.Username.Update(msg)
	case 1:
		m.Password, cmd = m.Password.Update(msg)
	case 2:
		m.Fullname, cmd = m.Fullname.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusStep() {
	m.Username.Blur()
	m.Password.Blur()
	m.Fullname.Blur()
	switch m.Step {
	case 0:
		m.Username.Focus()
	case 1:
		m.Password.Focus()
	case 2:
		m.Fullname.Focus()
	}
}

func (m Model) View() string {
	mode := "sign in"
	if m.Signup {
		mode = "sign up"
	}

	var prompt, input, help string
	switch m.Step {
	case 0:
		prompt = "Your username:"
		input = m.Username.View()
		help = "(enter to continue, ctrl+n to switch sign in/up, ctrl-c to quit)"
	case 1:
		prompt = fmt.Sprintf("Username: %s\n\nYour password:", m.Username.Value())
		input = m.Password.View()
		if m.Signup {
			help = "(enter to continue)"
		} else {
			help = "(enter to sign in)"
		}
	case 2:
		prompt = fmt.Sprintf("Username: %s\n\nDisplay name (optional):", m.Username.Value())
		input = m.Fullname.View()
		help = "(enter to create the account)"
	}

	errLine := ""
	if m.Err != nil {
		errLine = "\n\n" + common.ErrorStyle.Render(m.Err.Error())
	}

	return fmt.Sprintf(
		"reverie v%s [%s]\n\n%s\n\n%s\n\n%s%s",
		util.GetVersion(),
		mode,
		prompt,
		input,
		help,
		errLine,
	) + "\n"
}

// ViewWithWidth centers the bordered login box in the full terminal.
func (m Model) ViewWithWidth(termWidth, termHeight int) string {
	contentWidth := termWidth - 8
	if contentWidth < 40 {
		contentWidth = 40
	}
	bordered := Style.Width(contentWidth).Render(m.View())
	return lipgloss.Place(termWidth, termHeight, lipgloss.Center, lipgloss.Center, bordered)
}
