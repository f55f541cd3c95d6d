package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/util"
)

var (
	postStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginBottom(1)

	selectedPostStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE)).
				Padding(0, 1).
				MarginBottom(1)

	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Faint(true)
)

const visiblePosts = 4

type Model struct {
	Posts  []domain.Post
	Cursor int
	Notice string
	Width  int
	Height int

	stores *store.Stores
}

type loadedMsg struct {
	posts []domain.Post
	err   error
}

type mutatedMsg struct {
	err error
}

func InitialModel(stores *store.Stores, width, height int) Model {
	return Model{
		Width:  width,
		Height: height,
		stores: stores,
	}
}

func (m Model) Init() tea.Cmd {
	return loadFeed(m.stores, false)
}

func loadFeed(stores *store.Stores, force bool) tea.Cmd {
	return func() tea.Msg {
		err := stores.Feed.LoadInitial(context.Background(), force)
		return loadedMsg{posts: stores.Feed.Posts(), err: err}
	}
}

func fetchNextPage(stores *store.Stores) tea.Cmd {
	return func() tea.Msg {
		err := stores.Feed.FetchNext(context.Background())
		return loadedMsg{posts: stores.Feed.Posts(), err: err}
	}
}

func toggleLike(stores *store.Stores, post domain.Post) tea.Cmd {
	return func() tea.Msg {
		err := stores.Likes.ToggleRemote(context.Background(), post)
		return mutatedMsg{err: err}
	}
}

func deletePost(stores *store.Stores, postId string) tea.Cmd {
	return func() tea.Msg {
		err := stores.Feed.DeleteRemote(context.Background(), postId)
		return mutatedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.Posts = msg.posts
		if m.Cursor >= len(m.Posts) && len(m.Posts) > 0 {
			m.Cursor = len(m.Posts) - 1
		}
		if msg.err != nil {
			m.Notice = "could not load posts, showing what we have"
		} else {
			m.Notice = ""
		}
		return m, nil

	case mutatedMsg:
		m.Posts = m.stores.Feed.Posts()
		if m.Cursor >= len(m.Posts) && len(m.Posts) > 0 {
			m.Cursor = len(m.Posts) - 1
		}
		if msg.err != nil {
			m.Notice = noticeFor(msg.err)
		} else {
			m.Notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Posts)-1 {
				m.Cursor++
				return m, nil
			}
			// Scrolled past the end, fetch the next page
			return m, fetchNextPage(m.stores)
		case "r":
			return m, loadFeed(m.stores, true)
		case "l", " ":
			if post, ok := m.selected(); ok {
				return m, toggleLike(m.stores, post)
			}
		case "d":
			if post, ok := m.selected(); ok {
				if user := m.stores.Session.CurrentUser(); user != nil && post.Author.Id == user.Id {
					return m, deletePost(m.stores, post.Id)
				}
				m.Notice = "only your own posts can be deleted"
			}
		case "enter", "c":
			if post, ok := m.selected(); ok {
				return m, func() tea.Msg { return common.ShowCommentsMsg{PostId: post.Id} }
			}
		}
	}
	return m, nil
}

func (m Model) selected() (domain.Post, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Posts) {
		return domain.Post{}, false
	}
	return m.Posts[m.Cursor], true
}

// SelectedPostId is read by the comments view when switching over.
func (m Model) SelectedPostId() string {
	if post, ok := m.selected(); ok {
		return post.Id
	}
	return ""
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("feed (%d posts)", len(m.Posts))))
	s.WriteString("\n\n")

	if len(m.Posts) == 0 {
		s.WriteString(common.EmptyStyle.Render("Nothing here yet. Post a reflection or pull with r!"))
		s.WriteString("\n")
	} else {
		start := 0
		if m.Cursor >= visiblePosts {
			start = m.Cursor - visiblePosts + 1
		}
		end := start + visiblePosts
		if end > len(m.Posts) {
			end = len(m.Posts)
		}

		for i := start; i < end; i++ {
			post := m.Posts[i]
			s.WriteString(m.renderPost(post, i == m.Cursor))
			s.WriteString("\n")
		}

		if end < len(m.Posts) {
			s.WriteString(common.EmptyStyle.Render(fmt.Sprintf("... and %d more posts", len(m.Posts)-end)))
			s.WriteString("\n")
		}
	}

	if m.Notice != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Notice))
	}

	return s.String()
}

func (m Model) renderPost(post domain.Post, selected bool) string {
	heart := "♡"
	if m.stores.Likes.IsLiked(post) {
		heart = "♥"
	}
	likeLine := fmt.Sprintf("%s %d", heart, m.stores.Likes.DisplayCount(post))
	if m.stores.Likes.IsPending(post) {
		likeLine += " …"
	}

	when := ""
	if post.CreatedAt != nil {
		when = " • " + util.RelativeTime(*post.CreatedAt)
	}

	content := fmt.Sprintf("%s\n%s\n%s",
		authorStyle.Render(post.Author.Name()),
		captionStyle.Render(util.Truncate(post.Caption, 80)),
		metaStyle.Render(likeLine+when),
	)

	if selected {
		return selectedPostStyle.Render(content)
	}
	return postStyle.Render(content)
}

func noticeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrNotAuthenticated):
		return "sign in to do that"
	default:
		return "that didn't go through, changes were rolled back"
	}
}
