package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui/common"
	"github.com/reveriehq/reverie/util"
)

const MaxLetters = 500

type Model struct {
	Textarea    textarea.Model
	ImagePath   textinput.Model
	Err         error
	lettersLeft int
	width       int

	stores *store.Stores
}

type postedMsg struct {
	err error
}

func InitialModel(stores *store.Stores, contentWidth int) Model {
	width := common.DefaultComposeWidth(contentWidth)

	ta := textarea.New()
	ta.Placeholder = "what did this make you feel?"
	ta.CharLimit = MaxLetters
	ta.ShowLineNumbers = false
	ta.SetWidth(30)

	path := textinput.New()
	path.Placeholder = "path/to/image.jpg (optional)"
	path.CharLimit = 200
	path.Width = 30

	return Model{
		Textarea:    ta,
		ImagePath:   path,
		lettersLeft: MaxLetters,
		width:       width,
		stores:      stores,
	}
}

func createPostCmd(stores *store.Stores, imagePath, caption string) tea.Cmd {
	return func() tea.Msg {
		var image []byte
		var filename string
		if imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return postedMsg{err: fmt.Errorf("read image: %w", err)}
			}
			image = data
			filename = filepath.Base(imagePath)
		}

		_, err := stores.Feed.CreateAndPrepend(context.Background(), image, filename, caption)
		return postedMsg{err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case postedMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.Textarea.SetValue("")
		m.ImagePath.SetValue("")
		return m, func() tea.Msg { return common.RefreshFeed }

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlA:
			// Jump between caption and image path
			if m.Textarea.Focused() {
				m.Textarea.Blur()
				cmds = append(cmds, m.ImagePath.Focus())
			} else {
				m.ImagePath.Blur()
				cmds = append(cmds, m.Textarea.Focus())
			}
		case tea.KeyCtrlS:
			caption := util.NormalizeInput(m.Textarea.Value())
			path := m.ImagePath.Value()
			if caption == "" && path == "" {
				m.Err = errors.New("nothing to post")
				return m, nil
			}
			return m, createPostCmd(m.stores, path, caption)
		case tea.KeyCtrlC:
			return m, tea.Quit
		default:
			if !m.Textarea.Focused() && !m.ImagePath.Focused() {
				cmds = append(cmds, m.Textarea.Focus())
			}
		}
	}

	m.Textarea, cmd = m.Textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.ImagePath, cmd = m.ImagePath.Update(msg)
	cmds = append(cmds, cmd)
	m.lettersLeft = m.Textarea.CharLimit - m.Textarea.Length()
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	caption := common.CaptionStyle.PaddingLeft(7).Render("new reflection")
	styledTextarea := lipgloss.NewStyle().PaddingLeft(5).PaddingRight(5).Margin(2).Render(m.Textarea.View())
	styledPath := lipgloss.NewStyle().PaddingLeft(7).Render(m.ImagePath.View())
	help := common.HelpStyle.PaddingLeft(7).Render(fmt.Sprintf(
		"characters left: %d\n\nctrl+a: switch field • ctrl+s: post", m.lettersLeft))

	errLine := ""
	if m.Err != nil {
		errLine = "\n" + common.ErrorStyle.PaddingLeft(7).Render(noticeFor(m.Err))
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s%s", caption, styledTextarea, styledPath, help, errLine)
}

func noticeFor(err error) string {
	if errors.Is(err, store.ErrNotAuthenticated) {
		return "sign in to post"
	}
	return err.Error()
}
