package kb

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/session"
)

var messageFormats = []helpers.OutputFormat{helpers.FormatText, helpers.FormatJSON}

// NewAskCmd creates the ask command.
func NewAskCmd(rt *helpers.Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the knowledge base a question",
		Long: `Send a single question to the Knowledge Service and print the answer.

The answer is followed by its source, the highlighted passage and the token
usage when the service reports them.

Examples:
  kbchat ask "What is the refund policy?"
  kbchat ask how do I rotate keys --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, messageFormats); err != nil {
				return err
			}

			ctrl, err := rt.Controller()
			if err != nil {
				return err
			}

			outcome, err := ctrl.SubmitQuestion(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeOutcome(cmd, outcome, format)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatText, messageFormats)
	return cmd
}

// writeOutcome prints the reply of a primary operation, preceded in text
// mode by the status line of uploads. A degraded reply is printed like any
// other and then reported as ErrDegraded.
func writeOutcome(cmd *cobra.Command, outcome session.Outcome, format string) error {
	out := cmd.OutOrStdout()

	if format == string(helpers.FormatJSON) {
		if err := (&helpers.JSONFormatter{}).Format(outcome.Reply, out); err != nil {
			return err
		}
	} else {
		if req := outcome.Request; req != nil && req.Role == session.RoleBot {
			if err := helpers.WriteMessage(out, *req, "", false); err != nil {
				return err
			}
		}
		if err := helpers.WriteMessage(out, outcome.Reply, "", true); err != nil {
			return err
		}
	}

	if outcome.Failed() {
		return helpers.ErrDegraded
	}
	return nil
}
