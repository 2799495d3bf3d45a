package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coral-mesh/kbchat/internal/session"
)

// Update handles messages and updates the model (Bubbletea interface).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var next tea.Model
		next, cmd = m.handleKeyMsg(msg)
		m = next.(Model)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-reservedLines, 3)

	case spinner.TickMsg:
		if m.busy() || m.knowledgeLoading() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case operationDoneMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.notice = noticeFor(msg.err)
		if !m.busy() {
			m.activity = ""
			m.input.Focus()
		}

	case knowledgeLoadedMsg:
		// The controller already dropped superseded loads; the view reads
		// the panel from the snapshot.

	default:
		m.input, cmd = m.input.Update(msg)
	}

	m.syncViewport()
	return m, cmd
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		return m.closeOverlay(), nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "ctrl+r":
		return m.openHistory(), nil
	}

	switch m.overlay {
	case overlayHistory:
		return m.handleHistoryKey(msg)
	case overlayKnowledge:
		if msg.String() == "enter" {
			return m.closeOverlay(), nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if idx, ok := quickReplyKey(msg.String()); ok {
		return m.submitQuickReply(idx)
	}

	if msg.String() == "enter" {
		return m.handleEnter()
	}

	m.showHelp = false
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter submits the input line or runs an inline command.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return m.handleInlineCommand(strings.TrimSpace(text))
	}

	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if m.busy() {
		// Controls are disabled while a request is in flight.
		return m, nil
	}

	m.ctrl.SetInput(text)
	m.input.Reset()
	return m.dispatch(submitQuestionCmd(m.ctx, m.ctrl, text), "")
}

// handleInlineCommand processes inline commands like /upload, /knowledge
// and /help.
func (m Model) handleInlineCommand(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	m.input.Reset()
	m.notice = ""

	switch strings.ToLower(name) {
	case "/help":
		m.showHelp = true
		return m, nil

	case "/clear":
		return m, tea.ClearScreen

	case "/exit", "/quit":
		m.quitting = true
		return m, tea.Quit

	case "/history":
		return m.openHistory(), nil

	case "/knowledge":
		m.overlay = overlayKnowledge
		m.ctrl.CloseHistory()
		m.ctrl.OpenKnowledge(arg)
		m.viewport.GotoTop()
		return m, tea.Batch(loadKnowledgeCmd(m.ctx, m.ctrl), m.spinner.Tick)

	case "/upload":
		if arg == "" {
			m.notice = "usage: /upload <file>"
			return m, nil
		}
		if m.busy() {
			m.notice = session.ErrBusy.Error()
			return m, nil
		}
		return m.dispatch(uploadCmd(m.ctx, m.ctrl, arg), activityUpload)

	case "/reset":
		if m.busy() {
			m.notice = session.ErrBusy.Error()
			return m, nil
		}
		return m.dispatch(resetCmd(m.ctx, m.ctrl), activityReset)

	case "/reply":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.notice = "usage: /reply <number>"
			return m, nil
		}
		return m.submitQuickReply(n - 1)

	default:
		m.notice = fmt.Sprintf("unknown command: %s (try /help)", name)
		return m, nil
	}
}

// handleHistoryKey moves the history cursor and selects entries.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.ctrl.History()

	switch msg.String() {
	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case "down", "j":
		if m.historyCursor < len(entries)-1 {
			m.historyCursor++
		}
	case "enter":
		if len(entries) == 0 {
			return m.closeOverlay(), nil
		}
		text, err := m.ctrl.SelectHistory(m.historyCursor)
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.overlay = overlayNone
		m.input.SetValue(text)
		m.input.CursorEnd()
		m.input.Focus()
	}
	return m, nil
}

// submitQuickReply submits the idx-th quick reply of the latest bot message.
func (m Model) submitQuickReply(idx int) (tea.Model, tea.Cmd) {
	if m.busy() {
		return m, nil
	}
	last, ok := latestReplies(m.ctrl.Transcript())
	if !ok || idx < 0 || idx >= len(last.QuickReplies) {
		m.notice = session.ErrNoSuchQuickReply.Error()
		return m, nil
	}
	m.input.Reset()
	return m.dispatch(quickReplyCmd(m.ctx, m.ctrl, last.ID, idx), "")
}

// dispatch starts a primary operation and the status spinner. activity is
// empty for questions, which show the typing indicator instead.
func (m Model) dispatch(cmd tea.Cmd, activity string) (tea.Model, tea.Cmd) {
	m.inFlight++
	m.activity = activity
	m.notice = ""
	m.showHelp = false
	m.input.Blur()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) openHistory() Model {
	entries := m.ctrl.OpenHistory()
	m.ctrl.CloseKnowledge()
	m.overlay = overlayHistory
	m.historyCursor = max(len(entries)-1, 0)
	return m
}

func (m Model) closeOverlay() Model {
	switch m.overlay {
	case overlayHistory:
		m.ctrl.CloseHistory()
	case overlayKnowledge:
		m.ctrl.CloseKnowledge()
	}
	m.overlay = overlayNone
	m.input.Focus()
	return m
}

func (m Model) knowledgeLoading() bool {
	panel := m.ctrl.Knowledge()
	return panel.Open && panel.Status == session.KnowledgeLoading
}

// latestReplies returns the last message if it is a bot message offering
// quick replies. Replies of older messages are no longer offered.
func latestReplies(transcript []session.Message) (session.Message, bool) {
	if len(transcript) == 0 {
		return session.Message{}, false
	}
	last := transcript[len(transcript)-1]
	if last.Role != session.RoleBot || len(last.QuickReplies) == 0 {
		return session.Message{}, false
	}
	return last, true
}

// quickReplyKey maps alt+1..alt+9 to a quick reply index.
func quickReplyKey(key string) (int, bool) {
	digit, ok := strings.CutPrefix(key, "alt+")
	if !ok || len(digit) != 1 || digit[0] < '1' || digit[0] > '9' {
		return 0, false
	}
	return int(digit[0] - '1'), true
}

// noticeFor turns a rejected precondition into the status line text.
// Blank questions are ignored silently.
func noticeFor(err error) string {
	if err == nil || errors.Is(err, session.ErrEmptyQuestion) {
		return ""
	}
	return err.Error()
}
