package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/api"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/comments"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/ui/compose"
	"github.com/reveriehq/reverie/ui/feed"
	"github.com/reveriehq/reverie/ui/header"
	"github.com/reveriehq/reverie/ui/login"
	"github.com/reveriehq/reverie/ui/profile"
)

var (
	modelStyle = lipgloss.NewStyle().
			Align(lipgloss.Top, lipgloss.Top).
			BorderStyle(lipgloss.HiddenBorder()).MarginLeft(1)
	focusedModelStyle = lipgloss.NewStyle().
				Align(lipgloss.Top, lipgloss.Top).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE)).MarginLeft(1)
)

type MainModel struct {
	width  int
	height int
	state  common.SessionState

	stores *store.Stores
	client *api.Client

	headerModel   header.Model
	loginModel    login.Model
	feedModel     feed.Model
	composeModel  compose.Model
	commentsModel comments.Model
	profileModel  profile.Model
}

// validatedMsg reports the outcome of the startup token check.
type validatedMsg struct {
	ok bool
}

func NewModel(client *api.Client, stores *store.Stores, width, height int) MainModel {
	width = common.DefaultWindowWidth(width)
	height = common.DefaultWindowHeight(height)

	m := MainModel{
		width:  width,
		height: height,
		stores: stores,
		client: client,
	}
	m.headerModel = header.Model{Width: width, Session: stores.Session}
	m.loginModel = login.InitialModel(stores.Session)
	m.feedModel = feed.InitialModel(stores, width, height)
	m.composeModel = compose.InitialModel(stores, width)
	m.commentsModel = comments.InitialModel(stores, width, height)
	m.profileModel = profile.InitialModel(client, stores, width, height)

	if stores.Session.State() == store.Unauthenticated {
		m.state = common.SignInView
	} else {
		m.state = common.FeedView
	}
	return m
}

func validateSessionCmd(stores *store.Stores) tea.Cmd {
	return func() tea.Msg {
		err := stores.Session.Validate(context.Background())
		return validatedMsg{ok: err == nil}
	}
}

func (m MainModel) Init() tea.Cmd {
	var cmds []tea.Cmd

	cmds = append(cmds, m.feedModel.Init())
	if m.stores.Session.State() == store.Validating {
		cmds = append(cmds, validateSessionCmd(m.stores))
	}
	return tea.Batch(cmds...)
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.headerModel.Width = msg.Width
		return m, nil

	case validatedMsg:
		if !msg.ok && m.state != common.SignInView {
			// Stale token was cleared; land on the login screen
			m.state = common.SignInView
		}
		if msg.ok {
			cmds = append(cmds, m.profileModel.Init())
		}
		return m, tea.Batch(cmds...)

	case login.DoneMsg:
		m.state = common.FeedView
		return m, tea.Batch(m.feedModel.Init(), m.profileModel.Init())

	case common.ShowCommentsMsg:
		m.state = common.CommentsView
		cmd = m.commentsModel.SetPost(msg.PostId)
		return m, cmd

	case common.SessionState:
		if msg == common.RefreshFeed {
			m.state = common.FeedView
			return m, m.feedModel.Init()
		}
		m.state = msg
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+o":
			if m.state != common.SignInView {
				m.stores.Session.Clear()
				m.state = common.SignInView
				m.loginModel = login.InitialModel(m.stores.Session)
				return m, m.loginModel.Init()
			}
		case "tab":
			if m.state == common.SignInView {
				return m, nil
			}
			oldState := m.state
			switch m.state {
			case common.FeedView:
				m.state = common.ComposeView
			case common.ComposeView:
				m.state = common.CommentsView
			case common.CommentsView:
				m.state = common.ProfileView
			case common.ProfileView:
				m.state = common.FeedView
			}
			if oldState != m.state {
				cmds = append(cmds, getViewInitCmd(m.state, &m))
			}
		case "shift+tab":
			if m.state == common.SignInView {
				return m, nil
			}
			oldState := m.state
			switch m.state {
			case common.FeedView:
				m.state = common.ProfileView
			case common.ComposeView:
				m.state = common.FeedView
			case common.CommentsView:
				m.state = common.ComposeView
			case common.ProfileView:
				m.state = common.CommentsView
			}
			if oldState != m.state {
				cmds = append(cmds, getViewInitCmd(m.state, &m))
			}
		}
	}

	// Route non-keyboard messages to all sub-models so async load results
	// reach their destination regardless of the focused view
	if _, isKeyMsg := msg.(tea.KeyMsg); !isKeyMsg {
		m.headerModel, _ = m.headerModel.Update(msg)
		m.loginModel, cmd = m.loginModel.Update(msg)
		cmds = append(cmds, cmd)
		m.feedModel, cmd = m.feedModel.Update(msg)
		cmds = append(cmds, cmd)
		m.composeModel, cmd = m.composeModel.Update(msg)
		cmds = append(cmds, cmd)
		m.commentsModel, cmd = m.commentsModel.Update(msg)
		cmds = append(cmds, cmd)
		m.profileModel, cmd = m.profileModel.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Keyboard input goes only to the active view
	if _, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case common.SignInView:
			m.loginModel, cmd = m.loginModel.Update(msg)
		case common.FeedView:
			m.feedModel, cmd = m.feedModel.Update(msg)
		case common.ComposeView:
			m.composeModel, cmd = m.composeModel.Update(msg)
		case common.CommentsView:
			m.commentsModel, cmd = m.commentsModel.Update(msg)
		case common.ProfileView:
			m.profileModel, cmd = m.profileModel.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m MainModel) View() string {
	if m.state == common.SignInView {
		return m.loginModel.ViewWithWidth(m.width, m.height)
	}

	availableHeight := m.height - 10
	leftPanelWidth := m.width / 3
	rightPanelWidth := m.width - leftPanelWidth - 6

	composeStr := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(leftPanelWidth).
		MaxWidth(leftPanelWidth).
		Render(m.composeModel.View())

	rightStyle := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(rightPanelWidth).
		MaxWidth(rightPanelWidth).
		Margin(1)

	feedStr := rightStyle.Render(m.feedModel.View())
	commentsStr := rightStyle.Render(m.commentsModel.View())
	profileStr := rightStyle.Render(m.profileModel.View())

	s := lipgloss.NewStyle().Render(m.headerModel.View()) + "\n"

	switch m.state {
	case common.ComposeView:
		s += lipgloss.JoinHorizontal(lipgloss.Top,
			focusedModelStyle.Render(composeStr),
			modelStyle.Render(feedStr))
	case common.FeedView:
		s += lipgloss.JoinHorizontal(lipgloss.Top,
			modelStyle.Render(composeStr),
			focusedModelStyle.Render(feedStr))
	case common.CommentsView:
		s += lipgloss.JoinHorizontal(lipgloss.Top,
			modelStyle.Render(composeStr),
			focusedModelStyle.Render(commentsStr))
	case common.ProfileView:
		s += lipgloss.JoinHorizontal(lipgloss.Top,
			modelStyle.Render(composeStr),
			focusedModelStyle.Render(profileStr))
	}

	var viewCommands string
	switch m.state {
	case common.FeedView:
		viewCommands = "↑/↓: select • l: like • enter: comments • d: delete • r: refresh"
	case common.ComposeView:
		viewCommands = "ctrl+a: switch field • ctrl+s: post"
	case common.CommentsView:
		viewCommands = "↑/↓: scroll • ctrl+s: comment"
	case common.ProfileView:
		viewCommands = "enter: follow • ctrl+u: unfollow • ctrl+e: edit name"
	default:
		viewCommands = " "
	}

	s += common.HelpStyle.Render(fmt.Sprintf(
		"focused > %s\t\tkeys > tab: next • shift+tab: prev • %s • ctrl+o: sign out • ctrl-c: exit",
		m.currentFocusedModel(), viewCommands))
	return lipgloss.NewStyle().Render(s)
}

func (m MainModel) currentFocusedModel() string {
	switch m.state {
	case common.FeedView:
		return "feed"
	case common.ComposeView:
		return "new reflection"
	case common.CommentsView:
		return "comments"
	case common.ProfileView:
		return "profile"
	default:
		return "sign in"
	}
}

// getViewInitCmd returns the init command for a view to reload its data
func getViewInitCmd(state common.SessionState, m *MainModel) tea.Cmd {
	switch state {
	case common.FeedView:
		return m.feedModel.Init()
	case common.CommentsView:
		if postId := m.feedModel.SelectedPostId(); postId != "" {
			return m.commentsModel.SetPost(postId)
		}
		return m.commentsModel.Init()
	case common.ProfileView:
		return m.profileModel.Init()
	default:
		return nil
	}
}
