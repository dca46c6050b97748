// Package viewer is the interactive reading session over one article. It is
// deliberately decoupled from its host process: post-exit actions travel
// through an exchange file plus a distinguished exit code, nothing else.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"notefeed/internal/config"
	"notefeed/internal/store"
)

// Exit codes the calling shell dispatches on.
const (
	ExitNormal      = 0
	ExitOpenBrowser = 1
	ExitCreateNote  = 2
)

type exitAction int

const (
	actionNone exitAction = iota
	actionOpenBrowser
	actionCreateNote
)

// Run loads the article, marks it read, drives the paging session to
// completion and performs the exit handoff. The returned code is the process
// exit status the caller must propagate.
func Run(ctx context.Context, st *store.Store, cfg config.Config, id string) (int, error) {
	article, err := st.Get(id)
	if err != nil {
		return 0, err
	}
	// Opening is a one-way read transition; the viewer never unsets it.
	if err := st.MarkRead(id); err != nil {
		return 0, err
	}
	article.Read = true

	m := newModel(st, article)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("viewer session: %w", err)
	}
	fm, ok := final.(model)
	if !ok {
		return ExitNormal, nil
	}

	session := config.SessionID()
	switch fm.exit {
	case actionOpenBrowser:
		if err := writeExchange(openURLPath(session), article.Link); err != nil {
			return 0, err
		}
		return ExitOpenBrowser, nil
	case actionCreateNote:
		notePath, err := CreateNote(cfg, article)
		if err != nil {
			return 0, err
		}
		if err := writeExchange(notePathFile(session), notePath); err != nil {
			return 0, err
		}
		return ExitCreateNote, nil
	}
	return ExitNormal, nil
}

type model struct {
	st       *store.Store
	article  store.Article
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	exit     exitAction
	err      error
}

func newModel(st *store.Store, a store.Article) model {
	return model{st: st, article: a}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "o":
			m.exit = actionOpenBrowser
			return m, tea.Quit
		case "n":
			m.exit = actionCreateNote
			return m, tea.Quit
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "pgdown", " ", "f":
			m.viewport.PageDown()
		case "pgup", "b":
			m.viewport.PageUp()
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		case "s":
			starred, err := m.st.ToggleStar(m.article.ID)
			if err != nil {
				m.err = err
			} else {
				m.article.Starred = starred
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.contentWidth(), m.contentHeight())
			m.viewport.SetContent(renderBody(m.article, m.contentWidth()))
			m.ready = true
			return m, nil
		}
		// A resize reflows the content but must keep the reading position.
		offset := m.viewport.YOffset
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = m.contentHeight()
		m.viewport.SetContent(renderBody(m.article, m.contentWidth()))
		m.viewport.SetYOffset(offset)
		return m, nil
	}
	return m, nil
}

func (m model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) contentHeight() int {
	// Header is five lines plus a rule, footer two.
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Align(lipgloss.Center)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := m.article.Title
	if title == "" {
		title = "(untitled)"
	}
	if m.article.Starred {
		title = starStyle.Render("★ ") + titleStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}

	header := []string{
		title,
		labelStyle.Render("Feed: ") + valueStyle.Render(m.article.Feed),
		labelStyle.Render("Author: ") + authorOrUnknown(m.article.Author) +
			labelStyle.Render("  Date: ") + dateOrDash(m.article),
		labelStyle.Render("Link: ") + m.article.Link,
		strings.Repeat("─", m.contentWidth()),
	}

	scroll := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	help := "j/k scroll • space/b page • g/G top/bottom • s star • o browser • n note • q quit"
	footer := footerStyle.Width(m.contentWidth()).Render(help + "  " + scroll)
	if m.err != nil {
		footer = errStyle.Render(fmt.Sprintf("error: %v", m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(header, "\n"),
		m.viewport.View(),
		footer,
	)
}

func authorOrUnknown(author string) string {
	if author == "" {
		return "unknown"
	}
	return author
}

func dateOrDash(a store.Article) string {
	if t, ok := a.PublishedTime(); ok {
		return t.Format("2006-01-02 15:04")
	}
	return "-"
}

// renderBody word-wraps the article body for the terminal. The stored body
// is markdown-ish plain text, so glamour does the wrapping and styling; on
// any renderer failure the raw text is shown instead.
func renderBody(a store.Article, width int) string {
	content := strings.TrimSpace(a.Content)
	if content == "" {
		return "No content available"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(width),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
