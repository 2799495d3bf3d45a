// Package ui implements the interactive chat client as a bubbletea model.
// The model is a thin adapter: every request goes through the session
// controller, and the view is rendered from controller snapshots.
package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/coral-mesh/kbchat/internal/session"
)

// overlay is the modal panel drawn over the transcript.
type overlay int

const (
	overlayNone overlay = iota
	overlayHistory
	overlayKnowledge
)

// reservedLines is the room taken by the header, the status line, the input
// and the hint under the viewport.
const reservedLines = 6

// Options configures the chat model.
type Options struct {
	// AssistantName labels bot messages and the typing indicator.
	AssistantName string
	// ServiceURL is shown in the header.
	ServiceURL string
	// Markdown renders bot answers with glamour.
	Markdown bool
	// MaxMessages limits how many transcript messages are rendered. Zero
	// renders all of them.
	MaxMessages int
}

// Model is the bubbletea model of the chat client.
type Model struct {
	ctx  context.Context
	ctrl *session.Controller
	opts Options

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	// inFlight counts dispatched operations that have not reported back yet.
	inFlight int
	// activity describes the operation in flight. Empty means an ask, which
	// shows the typing indicator.
	activity string

	overlay       overlay
	historyCursor int

	notice   string
	showHelp bool

	width    int
	height   int
	quitting bool
}

// NewModel creates the chat model for ctrl.
func NewModel(ctx context.Context, ctrl *session.Controller, opts Options) (Model, error) {
	if opts.AssistantName == "" {
		opts.AssistantName = "Assistant"
	}

	ti := textinput.New()
	ti.Placeholder = "Type your question..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot

	var renderer *glamour.TermRenderer
	if opts.Markdown {
		rendererOpts := []glamour.TermRendererOption{glamour.WithWordWrap(78)}
		if os.Getenv("NO_COLOR") != "" {
			rendererOpts = append(rendererOpts, glamour.WithStylePath("notty"))
		} else {
			rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
		}

		var err error
		renderer, err = glamour.NewTermRenderer(rendererOpts...)
		if err != nil {
			return Model{}, err
		}
	}

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		input:    ti,
		spinner:  s,
		viewport: viewport.New(80, 24-reservedLines),
		renderer: renderer,
		width:    80,
		height:   24,
	}
	m.syncViewport()
	return m, nil
}

// Init initializes the model (Bubbletea interface).
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// busy reports whether a primary request is in flight, either confirmed by
// the controller or dispatched and not yet started.
func (m Model) busy() bool {
	return m.inFlight > 0 || m.ctrl.Busy()
}
