// Package chat implements `kbchat chat`: the interactive chat client, either
// as a full-screen TUI or as a line-mode REPL.
package chat

import (
	"bufio"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coral-mesh/kbchat/internal/cli/chat/ui"
	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/constants"
)

// NewChatCmd creates the chat command.
func NewChatCmd(rt *helpers.Runtime) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the knowledge base (default command)",
		Long: `Start an interactive chat with the Knowledge Service.

The full-screen client shows the conversation, a typing indicator while the
service answers, quick replies, the prompt history (ctrl+r) and the knowledge
viewer (/knowledge). Type /help inside the chat for every command.

--plain, ui.plain or a non-terminal stdin switch to a line-mode REPL with the
same commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, rt, plain)
		},
	}

	AddPlainFlag(cmd, &plain)
	return cmd
}

// AddPlainFlag adds the --plain flag. The root command shares it because a
// bare `kbchat` starts the chat.
func AddPlainFlag(cmd *cobra.Command, plain *bool) {
	cmd.Flags().BoolVar(plain, "plain", false, "Use the line-mode REPL instead of the full-screen client")
}

// Run starts the chat client selected by the flags and the terminal.
func Run(cmd *cobra.Command, rt *helpers.Runtime, plain bool) error {
	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
	if plain || rt.Config.UI.Plain || !stdinTTY {
		return runPlain(cmd, rt, stdinTTY)
	}
	return runTUI(cmd, rt)
}

func runTUI(cmd *cobra.Command, rt *helpers.Runtime) error {
	// The TUI owns the terminal, so logs go to the log file.
	if err := rt.LogToFile(); err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.Controller()
	if err != nil {
		return err
	}

	model, err := ui.NewModel(cmd.Context(), ctrl, ui.Options{
		AssistantName: rt.Config.UI.AssistantName,
		ServiceURL:    rt.Config.Service.URL,
		Markdown:      rt.Config.UI.Markdown,
		MaxMessages:   rt.Config.UI.MaxMessages,
	})
	if err != nil {
		return fmt.Errorf("failed to create UI model: %w", err)
	}

	rt.Logger.Info().Str("url", rt.Config.Service.URL).Msg("Starting interactive chat")

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}

func runPlain(cmd *cobra.Command, rt *helpers.Runtime, interactive bool) error {
	ctrl, err := rt.Controller()
	if err != nil {
		return err
	}

	repl := NewREPL(ctrl, cmd.OutOrStdout(), rt.Config.UI.AssistantName)

	if !interactive {
		return repl.Run(cmd.Context(), newScanner(cmd.InOrStdin()))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptText,
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
		Stdout:          cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer func() {
		_ = rl.Close()
	}()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Chatting with %s at %s. Type /help for commands, /exit to quit.\n\n",
		rt.Config.UI.AssistantName, rt.Config.Service.URL)
	return repl.Run(cmd.Context(), rl)
}

// scanner reads lines from a non-terminal stdin.
type scanner struct {
	s *bufio.Scanner
}

func newScanner(r io.Reader) *scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), constants.MaxInputLineBytes)
	return &scanner{s: s}
}

func (s *scanner) Readline() (string, error) {
	if s.s.Scan() {
		return s.s.Text(), nil
	}
	if err := s.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
