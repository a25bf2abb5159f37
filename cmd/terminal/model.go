package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/code-lens/internal/client"
	"github.com/sevigo/code-lens/internal/core"
)

const (
	defaultLanguage   = "javascript"
	reviewPlaceholder = "Your code review will appear here.\n\nWrite or /load some code and press ctrl+r."
	emptyCodeNotice   = "Please enter some code to review."
)

type focus int

const (
	focusEditor focus = iota
	focusCommand
)

type model struct {
	styles   styles
	reviewer reviewer
	server   string

	// UI Components
	editor  textarea.Model
	command textinput.Model
	review  viewport.Model
	spinner spinner.Model
	focus   focus

	// Session State
	language   string
	markdown   string
	reviewing  bool
	lastReview string
	notice     string
	noticeErr  bool
	providers  []client.ProviderInfo
	width      int
	height     int
}

func newModel(r reviewer, server string, theme ThemeName, markdown string) *model {
	st := GetTheme(theme)

	ed := textarea.New()
	ed.Placeholder = "Paste or type code here..."
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.SetWidth(60)
	ed.SetHeight(20)
	ed.Focus()

	cmd := textinput.New()
	cmd.Placeholder = "/help"
	cmd.Prompt = st.prompt.Render("► ")

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = st.success

	vp := viewport.New(60, 20)

	m := &model{
		styles:   st,
		reviewer: r,
		server:   server,
		editor:   ed,
		command:  cmd,
		review:   vp,
		spinner:  sp,
		language: defaultLanguage,
		markdown: markdown,
		notice:   "Type /help in the command bar (tab) for commands.",
	}
	m.renderReview()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, loadProvidersCmd(m.reviewer))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.reviewing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reviewCompleteMsg:
		m.reviewing = false
		if msg.err != nil {
			m.lastReview = errorReview(msg.err)
			m.renderReview()
			m.setError("⚠ " + errorDetail(msg.err))
			return m, nil
		}
		m.lastReview = msg.review
		m.renderReview()
		m.setNotice(fmt.Sprintf("✓ Review ready (%s)", m.language))
		return m, nil

	case providersLoadedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Code-Lens server at %s is not reachable: %v", m.server, msg.err))
			return m, nil
		}
		m.providers = msg.providers
		return m, nil
	}

	return m, m.updateFocused(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		return m, m.submit()
	case "tab":
		m.toggleFocus()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.review, cmd = m.review.Update(msg)
		return m, cmd
	case "enter":
		if m.focus == focusCommand {
			input := strings.TrimSpace(m.command.Value())
			m.command.Reset()
			if input == "" {
				return m, nil
			}
			return m, m.processCommand(input)
		}
	}
	return m, m.updateFocused(msg)
}

func (m *model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusCommand {
		m.command, cmd = m.command.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return cmd
}

func (m *model) toggleFocus() {
	if m.focus == focusEditor {
		m.focus = focusCommand
		m.editor.Blur()
		m.command.Focus()
		return
	}
	m.focus = focusEditor
	m.command.Blur()
	m.editor.Focus()
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height

	panelWidth := max((width-6)/2, 20)
	panelHeight := max(height-9, 5)

	m.styles.header.Width(width - 4)
	m.editor.SetWidth(panelWidth)
	m.editor.SetHeight(panelHeight)
	m.review.Width = panelWidth
	m.review.Height = panelHeight
	m.command.Width = width - 10
	m.renderReview()
}

func (m *model) submit() tea.Cmd {
	if m.reviewing {
		return nil
	}
	code := m.editor.Value()
	if code == "" {
		m.setError(emptyCodeNotice)
		return nil
	}
	m.reviewing = true
	m.setNotice(fmt.Sprintf("→ Reviewing %s code...", m.language))
	return tea.Batch(m.spinner.Tick, submitReviewCmd(m.reviewer, code, m.language))
}

func (m *model) processCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	command := parts[0]
	args := parts[1:]

	switch command {
	case "/lang", "/language":
		if len(args) != 1 {
			m.setNotice(fmt.Sprintf("LANGUAGE: %s (available: %s)", m.language, strings.Join(core.Languages, ", ")))
			return nil
		}
		lang := strings.ToLower(args[0])
		if !core.IsKnownLanguage(lang) {
			m.setError(fmt.Sprintf("Unknown language '%s'. Available: %s", args[0], strings.Join(core.Languages, ", ")))
			return nil
		}
		m.language = lang
		m.setNotice("✓ Language set to " + lang)
		return nil

	case "/theme":
		if len(args) != 1 || (args[0] != markdownDark && args[0] != markdownLight) {
			m.setError("USAGE: /theme dark|light")
			return nil
		}
		m.markdown = args[0]
		m.renderReview()
		m.setNotice("✓ Review theme set to " + args[0])
		return nil

	case "/load":
		if len(args) != 1 {
			m.setError("USAGE: /load [path]")
			return nil
		}
		code, err := loadFile(args[0])
		if err != nil {
			m.setError("Could not load file: " + err.Error())
			return nil
		}
		m.editor.SetValue(code)
		if lang := core.LanguageForFile(args[0]); core.IsKnownLanguage(lang) {
			m.language = lang
		}
		m.setNotice(fmt.Sprintf("✓ Loaded %s (%s)", args[0], m.language))
		return nil

	case "/review":
		return m.submit()

	case "/clear":
		m.editor.Reset()
		m.lastReview = ""
		m.renderReview()
		m.setNotice("✓ Cleared")
		return nil

	case "/help", "/h":
		m.lastReview = helpText
		m.renderReview()
		return nil

	case "/exit", "/quit":
		return tea.Quit

	default:
		m.setError(fmt.Sprintf("UNKNOWN COMMAND: %s. Type /help for assistance.", command))
		return nil
	}
}

const helpText = `## Commands

| Command | Action |
|---|---|
| ` + "`/lang [name]`" + ` | Set the review language, or list them |
| ` + "`/theme dark\\|light`" + ` | Switch the review panel style |
| ` + "`/load [path]`" + ` | Open a file in the editor |
| ` + "`/review`" + ` | Request a review (same as ctrl+r) |
| ` + "`/clear`" + ` | Clear the editor and the review |
| ` + "`/exit`" + ` | Quit |

**Keys:** tab switches between editor and command bar, ctrl+r submits,
pgup/pgdown scroll the review, ctrl+c quits.`

func (m *model) renderReview() {
	text := m.lastReview
	if text == "" {
		m.review.SetContent(m.styles.inactive.Render(reviewPlaceholder))
		return
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(m.markdown)),
		glamour.WithWordWrap(max(m.review.Width-2, 20)),
		glamour.WithPreservedNewLines(),
	)
	if err == nil {
		if out, rerr := r.Render(text); rerr == nil {
			text = out
		}
	}
	m.review.SetContent(text)
	m.review.GotoTop()
}

func (m *model) setNotice(s string) {
	m.notice, m.noticeErr = s, false
}

func (m *model) setError(s string) {
	m.notice, m.noticeErr = s, true
}

func errorDetail(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// errorReview is shown in the review panel when the request itself failed.
func errorReview(err error) string {
	return "## Error Reviewing Code\n\n" +
		"An error occurred while trying to review your code:\n" +
		"```\n" + errorDetail(err) + "\n```\n\n" +
		"### Troubleshooting\n\n" +
		"- If you're running locally, make sure Ollama is installed and running\n" +
		"- Make sure the Code-Lens server is running and the appropriate environment variables are set\n" +
		"- Check your network connection and try again"
}

func (m *model) View() string {
	editorStyle, reviewStyle := m.styles.focused, m.styles.panel
	if m.focus == focusCommand {
		editorStyle = m.styles.panel
	}

	editor := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.title.Render(fmt.Sprintf("Code (%s)", m.language)),
		editorStyle.Render(m.editor.View()),
	)
	review := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.title.Render("Review"),
		reviewStyle.Render(m.review.View()),
	)

	notice := m.styles.command.Render(m.notice)
	if m.noticeErr {
		notice = m.styles.error.Render(m.notice)
	}
	if m.reviewing {
		notice = m.spinner.View() + " " + notice
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.header.Render("CODE-LENS │ AI code review"),
			lipgloss.JoinHorizontal(lipgloss.Top, editor, " ", review),
			m.command.View(),
			notice,
			m.styles.inactive.Render(m.statusLine()),
		),
	)
}

func (m *model) statusLine() string {
	parts := []string{"LANG: " + m.language, "SERVER: " + m.server, "THEME: " + m.markdown}
	if len(m.providers) > 0 {
		names := make([]string, 0, len(m.providers))
		for _, p := range m.providers {
			names = append(names, p.Name)
		}
		parts = append(parts, "CHAIN: "+strings.Join(names, " → "))
	}
	return strings.Join(parts, " │ ")
}
