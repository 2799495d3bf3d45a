package kb

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
)

// NewResetCmd creates the reset command.
func NewResetCmd(rt *helpers.Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the knowledge base",
		Long:  `Ask the Knowledge Service to delete every stored document.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, messageFormats); err != nil {
				return err
			}

			ctrl, err := rt.Controller()
			if err != nil {
				return err
			}

			outcome, err := ctrl.ResetKnowledge(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutcome(cmd, outcome, format)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatText, messageFormats)
	return cmd
}
