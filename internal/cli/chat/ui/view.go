package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coral-mesh/kbchat/internal/session"
)

var (
	// Styles.
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// Status lines of non-question operations.
const (
	activityUpload = "Uploading..."
	activityReset  = "Resetting knowledge base..."
)

const helpText = `Commands:
  /upload <file>      add a document to the knowledge base
  /knowledge [topic]  show the stored knowledge
  /history            show previous questions (also ctrl+r)
  /reset              wipe the knowledge base
  /reply <n>          send quick reply n (also alt+n)
  /clear              clear the screen
  /exit               quit
Keys: enter submit, esc close panel, pgup/pgdown scroll, ctrl+c quit`

// View renders the UI (Bubbletea interface).
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render(m.renderHeader()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", m.width))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.renderHint()))

	return b.String()
}

// syncViewport refreshes the scrollable area from the controller state.
func (m *Model) syncViewport() {
	if m.showHelp && m.overlay == overlayNone {
		m.viewport.SetContent(helpText)
		m.viewport.GotoTop()
		return
	}

	switch m.overlay {
	case overlayHistory:
		m.viewport.SetContent(m.renderHistory())
	case overlayKnowledge:
		m.viewport.SetContent(m.renderKnowledge())
	default:
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	}
}

func (m Model) renderHeader() string {
	title := "kbchat"
	if m.opts.ServiceURL != "" {
		title += " | " + m.opts.ServiceURL
	}
	return title
}

// renderStatus renders the typing indicator or the last notice.
func (m Model) renderStatus() string {
	switch {
	case m.busy() && m.activity != "":
		return fmt.Sprintf("%s %s", m.spinner.View(), m.activity)
	case m.busy():
		return fmt.Sprintf("%s %s is typing...", m.spinner.View(), m.opts.AssistantName)
	case m.notice != "":
		return errorStyle.Render("✗ " + m.notice)
	default:
		return ""
	}
}

func (m Model) renderHint() string {
	switch m.overlay {
	case overlayHistory:
		return "[↑/↓ choose, enter use, esc close]"
	case overlayKnowledge:
		return "[pgup/pgdown scroll, esc close]"
	}
	if m.busy() {
		return "[waiting for the knowledge service, ctrl+c to quit]"
	}
	return "[/help for commands, ctrl+r history, /exit to quit]"
}

// renderTranscript renders the conversation. Quick replies are offered on
// the latest bot message only, and only while idle.
func (m Model) renderTranscript() string {
	transcript := m.ctrl.Transcript()
	if len(transcript) == 0 {
		return hintStyle.Render(fmt.Sprintf("Ask %s anything about your knowledge base.", m.opts.AssistantName))
	}

	start := 0
	if m.opts.MaxMessages > 0 && len(transcript) > m.opts.MaxMessages {
		start = len(transcript) - m.opts.MaxMessages
	}

	var b strings.Builder
	for i, msg := range transcript[start:] {
		latest := start+i == len(transcript)-1
		b.WriteString(m.renderMessage(msg, latest && !m.busy()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg session.Message, withReplies bool) string {
	var b strings.Builder

	if msg.Role == session.RoleUser {
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(msg.Text)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(botStyle.Render(m.opts.AssistantName + ":"))
	b.WriteString("\n")
	b.WriteString(m.renderText(msg.Text))

	for _, line := range msg.Footer() {
		b.WriteString(footerStyle.Render("  " + line))
		b.WriteString("\n")
	}

	if withReplies {
		for i, reply := range msg.QuickReplies {
			if i > 8 {
				break
			}
			b.WriteString(replyStyle.Render(fmt.Sprintf("  [alt+%d] %s", i+1, reply)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderText renders bot text as markdown when enabled.
func (m Model) renderText(text string) string {
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(text); err == nil {
			return rendered
		}
	}
	return "  " + text + "\n"
}

func (m Model) renderHistory() string {
	entries := m.ctrl.History()

	var b strings.Builder
	b.WriteString(headerStyle.Render("History"))
	b.WriteString("\n\n")
	if len(entries) == 0 {
		b.WriteString(hintStyle.Render(session.MsgNoHistory))
		return b.String()
	}

	for i, entry := range entries {
		if i == m.historyCursor {
			b.WriteString(cursorStyle.Render("▸ " + entry))
		} else {
			b.WriteString("  " + entry)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderKnowledge() string {
	panel := m.ctrl.Knowledge()

	var b strings.Builder
	title := "Knowledge Base"
	if panel.Topic != "" {
		title += ": " + panel.Topic
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	if placeholder := panel.Placeholder(); placeholder != "" {
		if panel.Status == session.KnowledgeLoading {
			b.WriteString(m.spinner.View() + " ")
		}
		b.WriteString(placeholder)
		return b.String()
	}

	for _, entry := range panel.Entries {
		b.WriteString(botStyle.Render(entry.Source))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(entry.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}
