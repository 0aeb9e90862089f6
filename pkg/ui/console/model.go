package console

import (
	"context"
	"fmt"
	"strings"

	"orderbot/pkg/order"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	inputHeight      = 6
	mouseScrollLines = 3
)

// entry is one pasted message and what came out of it.
type entry struct {
	input string
	order *order.ExtractedOrder
	err   string
}

type extractResultMsg struct {
	input string
	order *order.ExtractedOrder
	err   error
}

type model struct {
	ctx     context.Context
	extract ExtractFunc
	info    Info

	theme     theme
	input     textarea.Model
	viewport  viewport.Model
	entries   []entry
	width     int
	height    int
	isReady   bool
	isBusy    bool
	followLog bool
	parsed    int
	skipped   int
}

func newModel(ctx context.Context, extract ExtractFunc, info Info) *model {
	in := textarea.New()
	in.Placeholder = "Paste an order message..."
	in.ShowLineNumbers = false
	in.CharLimit = 0
	in.SetHeight(inputHeight)
	in.Focus()

	return &model{
		ctx:       ctx,
		extract:   extract,
		info:      info,
		theme:     defaultTheme(),
		input:     in,
		viewport:  viewport.New(80, 12),
		width:     100,
		height:    32,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case tea.MouseMsg:
		m.handleViewportMouse(typed)
		return m, nil
	case extractResultMsg:
		m.isBusy = false
		result := entry{input: typed.input, order: typed.order}
		switch {
		case typed.err != nil:
			result.err = typed.err.Error()
		case typed.order == nil:
			m.skipped++
		default:
			m.parsed++
		}
		m.entries = append(m.entries, result)
		m.refreshViewport(true)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+d":
			return m, m.submit()
		case "ctrl+l":
			m.entries = nil
			m.refreshViewport(true)
			return m, nil
		}

		if m.handleViewportKey(typed) {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the pasted text for extraction.
func (m *model) submit() tea.Cmd {
	if m.isBusy {
		return nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if isExitCommand(text) {
		return tea.Quit
	}

	m.input.Reset()
	m.isBusy = true
	return extractCmd(m.ctx, m.extract, text)
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("Order Extraction Console")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"sender:%s · group:%s · allow-list:%d · parsed:%d · skipped:%d",
		displayOrNA(m.info.Sender),
		displayOrNA(m.info.Group),
		m.info.AllowFrom,
		m.parsed,
		m.skipped,
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	status := m.theme.status.Render("Ctrl+D extract · Ctrl+L clear · PgUp/PgDn scroll · Ctrl+C/Esc quit")
	if m.isBusy {
		status = m.theme.statusBusy.Render("extracting...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render("Message")+" "+m.theme.hint.Render("(type exit or :q to leave)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) resizeComponents() {
	w := max(50, m.width-6)
	h := max(8, m.height-inputHeight-10)

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.SetWidth(w - 2)
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset

	sections := make([]string, 0, len(m.entries)*2)
	for _, item := range m.entries {
		sections = append(sections, m.renderCard(
			m.theme.pastedTitle.Render("PASTED"),
			m.theme.pastedBox.Width(m.viewport.Width).Render(item.input),
		))

		switch {
		case item.err != "":
			sections = append(sections, m.renderCard(
				m.theme.errorTitle.Render("ERROR"),
				m.theme.errorBox.Width(m.viewport.Width).Render(item.err),
			))
		case item.order == nil:
			sections = append(sections, m.renderCard(
				m.theme.skipTitle.Render("NO ORDER"),
				m.theme.skipBox.Width(m.viewport.Width).Render("sender not authorized or message incomplete"),
			))
		default:
			sections = append(sections, m.renderCard(
				m.theme.orderTitle.Render("ORDER"),
				m.theme.orderBox.Width(m.viewport.Width).Render(Summary(item.order)),
			))
		}
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := max(0, m.viewport.TotalLineCount()-m.viewport.Height)
	m.viewport.SetYOffset(min(previousOffset, maxOffset))
}

func (m *model) renderCard(title string, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

// handleViewportMouse scrolls the history on wheel events and ignores
// everything else.
func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(mouseScrollLines)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(mouseScrollLines)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func extractCmd(ctx context.Context, extract ExtractFunc, text string) tea.Cmd {
	return func() tea.Msg {
		extracted, err := extract(ctx, text)
		return extractResultMsg{input: text, order: extracted, err: err}
	}
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "n/a"
	}

	return trimmed
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}
