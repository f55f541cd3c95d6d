package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/util"
)

var (
	commentStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0)

	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	localStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_GREY)).
			Italic(true)
)

type Model struct {
	PostId   string
	Comments []domain.Comment
	Textarea textarea.Model
	Notice   string
	Offset   int
	Width    int
	Height   int

	stores *store.Stores
}

type loadedMsg struct {
	postId   string
	comments []domain.Comment
}

type createdMsg struct {
	postId string
	err    error
}

func InitialModel(stores *store.Stores, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "add a comment"
	ta.CharLimit = domain.MaxCommentLen
	ta.ShowLineNumbers = false
	ta.SetWidth(40)
	ta.SetHeight(3)

	return Model{
		Textarea: ta,
		Width:    width,
		Height:   height,
		stores:   stores,
	}
}

func (m Model) Init() tea.Cmd {
	if m.PostId == "" {
		return nil
	}
	return loadComments(m.stores, m.PostId)
}

// SetPost points the view at another post and reloads its comments.
func (m *Model) SetPost(postId string) tea.Cmd {
	m.PostId = postId
	m.Notice = ""
	m.Offset = 0
	m.Comments = m.stores.Comments.Comments(domain.Post{Id: postId})
	return loadComments(m.stores, postId)
}

func loadComments(stores *store.Stores, postId string) tea.Cmd {
	return func() tea.Msg {
		post := domain.Post{Id: postId}
		// Cache keeps serving the last-known list if the fetch fails
		_ = stores.Comments.FetchForPost(context.Background(), post)
		return loadedMsg{postId: postId, comments: stores.Comments.Comments(post)}
	}
}

func createComment(stores *store.Stores, postId, text string) tea.Cmd {
	return func() tea.Msg {
		err := stores.Comments.CreateComment(context.Background(), text, domain.Post{Id: postId})
		return createdMsg{postId: postId, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case loadedMsg:
		if msg.postId != m.PostId {
			return m, nil
		}
		m.Comments = msg.comments
		return m, nil

	case createdMsg:
		if msg.postId != m.PostId {
			return m, nil
		}
		m.Comments = m.stores.Comments.Comments(domain.Post{Id: m.PostId})
		switch {
		case msg.err == nil:
			m.Notice = ""
		case errors.Is(msg.err, store.ErrNotSynced):
			m.Notice = "saved locally, will be lost on the next refresh"
		case errors.Is(msg.err, store.ErrNotAuthenticated):
			m.Notice = "sign in to comment"
		default:
			m.Notice = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlS:
			text := util.NormalizeInput(m.Textarea.Value())
			if text == "" {
				return m, nil
			}
			m.Textarea.SetValue("")
			return m, createComment(m.stores, m.PostId, text)
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Offset > 0 {
				m.Offset--
			}
			return m, nil
		case tea.KeyDown:
			if len(m.Comments) > 0 && m.Offset < len(m.Comments)-1 {
				m.Offset++
			}
			return m, nil
		default:
			if !m.Textarea.Focused() {
				cmds = append(cmds, m.Textarea.Focus())
			}
		}
	}

	m.Textarea, cmd = m.Textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("comments (%d)", len(m.Comments))))
	s.WriteString("\n\n")

	if m.PostId == "" {
		s.WriteString(common.EmptyStyle.Render("Select a post in the feed first."))
		return s.String()
	}

	if len(m.Comments) == 0 {
		s.WriteString(common.EmptyStyle.Render("No comments yet. Be the first!"))
		s.WriteString("\n")
	} else {
		itemsPerPage := 8
		start := m.Offset
		end := start + itemsPerPage
		if end > len(m.Comments) {
			end = len(m.Comments)
		}

		for i := start; i < end; i++ {
			comment := m.Comments[i]
			line := fmt.Sprintf("%s %s %s",
				authorStyle.Render(comment.Author.Name()),
				comment.Text,
				common.HelpStyle.Render(util.RelativeTime(comment.CreatedAt)),
			)
			if strings.HasPrefix(comment.Id, "local-") {
				line += " " + localStyle.Render("(not synced)")
			}
			s.WriteString(commentStyle.Render(line))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.Textarea.View()))

	if m.Notice != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Notice))
	}

	return s.String()
}
