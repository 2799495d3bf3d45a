// Package session implements the chat session controller: the idle/busy
// request lifecycle, the transcript, the prompt history and the two modal
// panels of the chat client. Every adapter (TUI, REPL, one-shot commands)
// drives the same Controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/kbchat/internal/constants"
	kberrors "github.com/coral-mesh/kbchat/internal/errors"
	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/safe"
)

var (
	// ErrEmptyQuestion is returned for blank input. Adapters ignore it silently.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrBusy is returned while another primary request is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNoFile is returned when an upload has no file.
	ErrNoFile = errors.New("no file selected")
	// ErrNoSuchHistoryEntry is returned for an out-of-range history selection.
	ErrNoSuchHistoryEntry = errors.New("no such history entry")
	// ErrNoSuchQuickReply is returned for an unknown quick reply.
	ErrNoSuchQuickReply = errors.New("no such quick reply")
)

// Service is the Knowledge Service as seen by the controller.
// *knowledge.Client implements it.
type Service interface {
	Ask(ctx context.Context, question string) (*knowledge.Answer, error)
	Upload(ctx context.Context, name string, r io.Reader) (*knowledge.Status, error)
	ViewKnowledge(ctx context.Context, topic string) ([]knowledge.Entry, error)
	Reset(ctx context.Context) (*knowledge.Status, error)
}

// State is the UI state: idle or busy.
type State int

const (
	StateIdle State = iota
	StateBusy
)

func (s State) String() string {
	if s == StateBusy {
		return "busy"
	}
	return "idle"
}

// Upload is a file selected for ingestion.
type Upload struct {
	Name string
	Body io.Reader
}

// Outcome is the result of a primary operation.
// Request is the user or status message (nil for reset), Reply the bot
// message appended on completion and Err the failure behind a degraded reply.
type Outcome struct {
	Request *Message
	Reply   Message
	Err     error
}

// Failed reports whether the reply is a degraded failure message.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	State       State
	Input       string
	Transcript  []Message
	History     []string
	HistoryOpen bool
	Knowledge   KnowledgePanel
}

// Controller owns the chat session state and mediates every call to the
// Knowledge Service.
type Controller struct {
	svc         Service
	logger      zerolog.Logger
	now         func() time.Time
	uploadLimit int64

	transcript *Transcript
	history    *PromptHistory

	mu           sync.Mutex
	state        State
	input        string
	historyOpen  bool
	panel        KnowledgePanel
	panelVersion uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithUploadLimit caps the size of files uploaded through UploadPath.
// Zero or a negative n keeps constants.DefaultUploadMaxBytes.
func WithUploadLimit(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.uploadLimit = n
		}
	}
}

// New creates an idle controller with an empty transcript and history.
func New(svc Service, opts ...Option) *Controller {
	c := &Controller{
		svc:         svc,
		logger:      zerolog.Nop(),
		now:         time.Now,
		uploadLimit: constants.DefaultUploadMaxBytes,
		transcript:  NewTranscript(),
		history:     NewPromptHistory(),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitQuestion sends text to the service and appends the exchange to the
// transcript. Transport and service failures become a "Server error!" reply;
// the returned error only reports rejected preconditions.
func (c *Controller) SubmitQuestion(ctx context.Context, text string) (Outcome, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		return Outcome{}, ErrEmptyQuestion
	}

	release, err := c.acquire()
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	c.history.Append(question)
	request := c.transcript.Append(c.newMessage(RoleUser, question))
	c.SetInput("")

	var answer *knowledge.Answer
	err = guard("ask", func() (err error) {
		answer, err = c.svc.Ask(ctx, question)
		return err
	})
	if err == nil && answer == nil {
		err = fmt.Errorf("ask: %w: answer", knowledge.ErrMissingField)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("question", question).Msg("Question failed")
		reply := c.transcript.Append(c.newMessage(RoleBot, MsgServerError))
		return Outcome{Request: &request, Reply: reply, Err: err}, nil
	}

	msg := c.newMessage(RoleBot, answer.Answer)
	if msg.Text == "" {
		msg.Text = MsgNoAnswer
	}
	msg.SourceLabel = SourceKnowledgeBase
	msg.Highlight = answer.Highlight
	msg.QuickReplies = answer.QuickReplies
	msg.TokenCount = answer.Tokens

	reply := c.transcript.Append(msg)
	c.logger.Debug().
		Str("question", question).
		Int("quick_replies", len(msg.QuickReplies)).
		Msg("Question answered")
	return Outcome{Request: &request, Reply: reply}, nil
}

// SubmitQuickReply submits the index-th quick reply of a bot message as the
// next question.
func (c *Controller) SubmitQuickReply(ctx context.Context, messageID string, index int) (Outcome, error) {
	msg, ok := c.transcript.Find(messageID)
	if !ok || msg.Role != RoleBot || index < 0 || index >= len(msg.QuickReplies) {
		return Outcome{}, ErrNoSuchQuickReply
	}

	return c.SubmitQuestion(ctx, msg.QuickReplies[index])
}

// UploadFile sends a document to the service.
func (c *Controller) UploadFile(ctx context.Context, up Upload) (Outcome, error) {
	if up.Name == "" || up.Body == nil {
		return Outcome{}, ErrNoFile
	}

	release, err := c.acquire()
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	request := c.transcript.Append(c.newMessage(RoleBot, UploadingMessage(up.Name)))

	var status *knowledge.Status
	err = guard("upload", func() (err error) {
		status, err = c.svc.Upload(ctx, up.Name, up.Body)
		return err
	})
	if err == nil && (status == nil || status.Message == "") {
		err = fmt.Errorf("upload: %w: message", knowledge.ErrMissingField)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("file", up.Name).Msg("Upload failed")
		reply := c.transcript.Append(c.newMessage(RoleBot, MsgUploadFailed))
		return Outcome{Request: &request, Reply: reply, Err: err}, nil
	}

	reply := c.transcript.Append(c.newMessage(RoleBot, status.Message))
	c.logger.Info().Str("file", up.Name).Str("result", status.Message).Msg("Upload complete")
	return Outcome{Request: &request, Reply: reply}, nil
}

// UploadPath opens a local file and uploads it under its base name.
// Files that cannot be opened are reported as errors without touching the
// transcript.
func (c *Controller) UploadPath(ctx context.Context, path string) (Outcome, error) {
	if strings.TrimSpace(path) == "" {
		return Outcome{}, ErrNoFile
	}

	f, err := safe.OpenFile(path, &safe.FileOptions{MaxSize: c.uploadLimit})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer kberrors.DeferClose(c.logger, f, "failed to close upload file")

	return c.UploadFile(ctx, Upload{Name: filepath.Base(path), Body: f})
}

// ResetKnowledge asks the service to wipe its knowledge base.
func (c *Controller) ResetKnowledge(ctx context.Context) (Outcome, error) {
	release, err := c.acquire()
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	var status *knowledge.Status
	err = guard("reset", func() (err error) {
		status, err = c.svc.Reset(ctx)
		return err
	})
	if err == nil && (status == nil || status.Message == "") {
		err = fmt.Errorf("reset: %w: message", knowledge.ErrMissingField)
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Reset failed")
		reply := c.transcript.Append(c.newMessage(RoleBot, MsgResetFailed))
		return Outcome{Reply: reply, Err: err}, nil
	}

	reply := c.transcript.Append(c.newMessage(RoleBot, status.Message))
	c.logger.Info().Msg("Knowledge base reset")
	return Outcome{Reply: reply}, nil
}

// ViewKnowledge opens the knowledge panel and loads it. It never changes the
// busy state and may overlap a primary request.
func (c *Controller) ViewKnowledge(ctx context.Context, topic string) KnowledgePanel {
	c.OpenKnowledge(topic)
	return c.LoadKnowledge(ctx)
}

// OpenKnowledge shows the knowledge panel in its loading state.
func (c *Controller) OpenKnowledge(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panelVersion++
	c.panel = KnowledgePanel{
		Open:   true,
		Topic:  strings.TrimSpace(topic),
		Status: KnowledgeLoading,
	}
}

// LoadKnowledge fetches the panel contents for the topic set by the last
// OpenKnowledge. Results of a load superseded by a newer OpenKnowledge are
// dropped.
func (c *Controller) LoadKnowledge(ctx context.Context) KnowledgePanel {
	c.mu.Lock()
	version := c.panelVersion
	topic := c.panel.Topic
	c.mu.Unlock()

	var entries []knowledge.Entry
	err := guard("view knowledge", func() (err error) {
		entries, err = c.svc.ViewKnowledge(ctx, topic)
		return err
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if version != c.panelVersion {
		c.logger.Debug().Str("topic", topic).Msg("Dropping superseded knowledge load")
		return c.panel.clone()
	}

	switch {
	case err != nil:
		c.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to load knowledge")
		c.panel.Status = KnowledgeFailed
		c.panel.Entries = nil
	case len(entries) == 0:
		c.panel.Status = KnowledgeEmpty
		c.panel.Entries = nil
	default:
		c.panel.Status = KnowledgeLoaded
		c.panel.Entries = append([]knowledge.Entry(nil), entries...)
	}
	return c.panel.clone()
}

// CloseKnowledge hides the knowledge panel.
func (c *Controller) CloseKnowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel.Open = false
}

// Knowledge returns the knowledge panel state.
func (c *Controller) Knowledge() KnowledgePanel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel.clone()
}

// OpenHistory shows the history panel and returns its entries, oldest first.
// No network call is made.
func (c *Controller) OpenHistory() []string {
	c.mu.Lock()
	c.historyOpen = true
	c.mu.Unlock()
	return c.history.Entries()
}

// SelectHistory copies a history entry into the input field and closes the
// panel. The entry is not resubmitted.
func (c *Controller) SelectHistory(index int) (string, error) {
	entry, ok := c.history.At(index)
	if !ok {
		return "", ErrNoSuchHistoryEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = entry
	c.historyOpen = false
	return entry, nil
}

// CloseHistory hides the history panel.
func (c *Controller) CloseHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyOpen = false
}

// HistoryOpen reports whether the history panel is shown.
func (c *Controller) HistoryOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyOpen
}

// State returns the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a primary request is in flight.
func (c *Controller) Busy() bool {
	return c.State() == StateBusy
}

// Input returns the input field value.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the input field value.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

// Transcript returns a copy of the transcript.
func (c *Controller) Transcript() []Message {
	return c.transcript.Messages()
}

// History returns a copy of the prompt history.
func (c *Controller) History() []string {
	return c.history.Entries()
}

// Snapshot returns a copy of the whole session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		State:       c.state,
		Input:       c.input,
		HistoryOpen: c.historyOpen,
		Knowledge:   c.panel.clone(),
	}
	c.mu.Unlock()

	snap.Transcript = c.transcript.Messages()
	snap.History = c.history.Entries()
	return snap
}

// acquire moves the controller from idle to busy. The returned release
// puts it back to idle and is safe to call more than once.
func (c *Controller) acquire() (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateBusy {
		return nil, ErrBusy
	}
	c.state = StateBusy

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.state = StateIdle
			c.mu.Unlock()
		})
	}, nil
}

func (c *Controller) newMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: c.now(),
	}
}

// guard runs a service call and turns a panic into an error.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op, r)
		}
	}()
	return fn()
}
