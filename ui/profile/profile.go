package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/api"
	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
)

var (
	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)
)

type Model struct {
	Input     textinput.Model
	Followers []domain.User
	Following []domain.User
	Notice    string
	Editing   bool // input edits the display name instead of a follow target
	Width     int
	Height    int

	client *api.Client
	stores *store.Stores
}

type graphLoadedMsg struct {
	followers []domain.User
	following []domain.User
}

type mutatedMsg struct {
	notice string
	reload bool
}

func InitialModel(client *api.Client, stores *store.Stores, width, height int) Model {
	input := textinput.New()
	input.Placeholder = "username to follow"
	input.CharLimit = 30
	input.Width = 30
	input.Focus()

	return Model{
		Input:  input,
		Width:  width,
		Height: height,
		client: client,
		stores: stores,
	}
}

func (m Model) Init() tea.Cmd {
	return loadGraph(m.client, m.stores)
}

func loadGraph(client *api.Client, stores *store.Stores) tea.Cmd {
	return func() tea.Msg {
		user := stores.Session.CurrentUser()
		if user == nil {
			return graphLoadedMsg{}
		}

		ctx := context.Background()
		followers, err := client.Followers(ctx, user.Username)
		if err != nil {
			followers = nil
		}
		following, err := client.Following(ctx, user.Username)
		if err != nil {
			following = nil
		}
		return graphLoadedMsg{followers: followers, following: following}
	}
}

func followCmd(client *api.Client, username string) tea.Cmd {
	return func() tea.Msg {
		if err := client.FollowUser(context.Background(), username); err != nil {
			if api.IsStatus(err, 404) {
				return mutatedMsg{notice: fmt.Sprintf("no such user: %s", username)}
			}
			return mutatedMsg{notice: "could not follow " + username}
		}
		return mutatedMsg{notice: "now following " + username, reload: true}
	}
}

func unfollowCmd(client *api.Client, username string) tea.Cmd {
	return func() tea.Msg {
		if err := client.UnfollowUser(context.Background(), username); err != nil {
			return mutatedMsg{notice: "could not unfollow " + username}
		}
		return mutatedMsg{notice: "unfollowed " + username, reload: true}
	}
}

func updateNameCmd(client *api.Client, stores *store.Stores, fullname string) tea.Cmd {
	return func() tea.Msg {
		user := stores.Session.CurrentUser()
		if user == nil {
			return mutatedMsg{notice: "sign in first"}
		}
		updated, err := client.UpdateUser(context.Background(), user.Username, fullname, "")
		if err != nil {
			return mutatedMsg{notice: "could not update profile"}
		}
		// Re-save so the refreshed record is persisted with the session
		stores.Session.Save(stores.Session.Session().Token, updated)
		return mutatedMsg{notice: "profile updated", reload: true}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case graphLoadedMsg:
		m.Followers = msg.followers
		m.Following = msg.following
		return m, nil

	case mutatedMsg:
		m.Notice = msg.notice
		if msg.reload {
			return m, loadGraph(m.client, m.stores)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+e":
			m.Editing = !m.Editing
			m.Input.SetValue("")
			if m.Editing {
				m.Input.Placeholder = "new display name"
			} else {
				m.Input.Placeholder = "username to follow"
			}
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.Input.Value())
			if value == "" {
				return m, nil
			}
			m.Input.SetValue("")
			if m.Editing {
				m.Editing = false
				m.Input.Placeholder = "username to follow"
				return m, updateNameCmd(m.client, m.stores, value)
			}
			return m, followCmd(m.client, value)
		case "ctrl+u":
			// Unfollow the typed username
			value := strings.TrimSpace(m.Input.Value())
			if value == "" {
				return m, nil
			}
			m.Input.SetValue("")
			return m, unfollowCmd(m.client, value)
		}
	}

	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	user := m.stores.Session.CurrentUser()
	if user == nil {
		s.WriteString(common.EmptyStyle.Render("Sign in to see your profile."))
		return s.String()
	}

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("%s (@%s)", user.Name(), user.Username)))
	s.WriteString("\n")

	mine := m.stores.Feed.PostsByAuthor(*user)
	s.WriteString(itemStyle.Render(fmt.Sprintf("posts in feed: %d", len(mine))))
	s.WriteString("\n\n")

	s.WriteString(sectionStyle.Render(fmt.Sprintf("following (%d)", len(m.Following))))
	s.WriteString("\n")
	if len(m.Following) == 0 {
		s.WriteString(common.EmptyStyle.Render("  not following anyone yet"))
		s.WriteString("\n")
	}
	for _, u := range m.Following {
		s.WriteString(itemStyle.Render("• " + u.Name() + " (@" + u.Username + ")"))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(sectionStyle.Render(fmt.Sprintf("followers (%d)", len(m.Followers))))
	s.WriteString("\n")
	if len(m.Followers) == 0 {
		s.WriteString(common.EmptyStyle.Render("  no followers yet"))
		s.WriteString("\n")
	}
	for _, u := range m.Followers {
		s.WriteString(itemStyle.Render("• " + u.Name() + " (@" + u.Username + ")"))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.Input.View()))

	if m.Notice != "" {
		s.WriteString("\n")
		s.WriteString(common.NoticeStyle.Render(m.Notice))
	}

	return s.String()
}
