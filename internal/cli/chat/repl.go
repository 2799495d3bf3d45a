package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/session"
)

const promptText = "you> "

const replHelp = `Commands:
  /upload <file>      add a document to the knowledge base
  /knowledge [topic]  show the stored knowledge
  /history            list previous questions
  /use <n>            put history entry n back on the prompt
  /reply <n>          send quick reply n of the last answer
  /reset              wipe the knowledge base
  /help               show this help
  /exit               quit (also Ctrl+D)
Anything else is sent as a question.`

// LineReader is the input side of the REPL. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
}

// stdinWriter is implemented by readline to pre-fill the next prompt.
type stdinWriter interface {
	WriteStdin([]byte) (int, error)
}

// REPL is the line-mode chat client.
type REPL struct {
	ctrl      *session.Controller
	out       io.Writer
	assistant string
}

// NewREPL creates a REPL writing to out.
func NewREPL(ctrl *session.Controller, out io.Writer, assistant string) *REPL {
	if assistant == "" {
		assistant = "Assistant"
	}
	return &REPL{ctrl: ctrl, out: out, assistant: assistant}
}

// Run reads lines until EOF, /exit or ctx is done.
func (r *REPL) Run(ctx context.Context, in LineReader) error {
	for ctx.Err() == nil {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		exit, err := r.Handle(ctx, line)
		if err != nil {
			r.printf("Error: %v\n", err)
		}
		if exit {
			return nil
		}
		if text := r.ctrl.Input(); text != "" {
			if w, ok := in.(stdinWriter); ok {
				_, _ = w.WriteStdin([]byte(text))
			}
		}
	}
	return nil
}

// Handle runs one input line and prints the messages it produced.
func (r *REPL) Handle(ctx context.Context, line string) (exit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	r.ctrl.SetInput("")

	if !strings.HasPrefix(line, "/") {
		r.ctrl.SetInput(line)
		return false, r.run(func() (session.Outcome, error) {
			return r.ctrl.SubmitQuestion(ctx, line)
		})
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		r.printf("%s\n", replHelp)
		return false, nil

	case "/upload":
		if arg == "" {
			return false, errors.New("usage: /upload <file>")
		}
		return false, r.run(func() (session.Outcome, error) {
			return r.ctrl.UploadPath(ctx, arg)
		})

	case "/reset":
		return false, r.run(func() (session.Outcome, error) {
			return r.ctrl.ResetKnowledge(ctx)
		})

	case "/knowledge":
		panel := r.ctrl.ViewKnowledge(ctx, arg)
		r.ctrl.CloseKnowledge()
		return false, helpers.WriteKnowledge(r.out, panel)

	case "/history":
		entries := r.ctrl.OpenHistory()
		r.ctrl.CloseHistory()
		if len(entries) == 0 {
			r.printf("%s\n", session.MsgNoHistory)
			return false, nil
		}
		for i, entry := range entries {
			r.printf("  %d. %s\n", i+1, entry)
		}
		return false, nil

	case "/use":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.New("usage: /use <n>")
		}
		r.ctrl.OpenHistory()
		text, err := r.ctrl.SelectHistory(n - 1)
		if err != nil {
			r.ctrl.CloseHistory()
			return false, err
		}
		r.printf("Selected: %s\n", text)
		return false, nil

	case "/reply":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.New("usage: /reply <n>")
		}
		transcript := r.ctrl.Transcript()
		if len(transcript) == 0 {
			return false, session.ErrNoSuchQuickReply
		}
		last := transcript[len(transcript)-1]
		return false, r.run(func() (session.Outcome, error) {
			return r.ctrl.SubmitQuickReply(ctx, last.ID, n-1)
		})

	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", name)
	}
}

// run executes a primary operation and prints the bot messages it added.
func (r *REPL) run(op func() (session.Outcome, error)) error {
	before := len(r.ctrl.Transcript())

	if _, err := op(); err != nil {
		if errors.Is(err, session.ErrEmptyQuestion) {
			return nil
		}
		return err
	}

	added := r.ctrl.Transcript()[before:]
	for i, msg := range added {
		if msg.Role == session.RoleUser {
			continue
		}
		last := i == len(added)-1
		if err := helpers.WriteMessage(r.out, msg, r.assistant, last); err != nil {
			return err
		}
	}
	return nil
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
