package kb

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
)

// NewUploadCmd creates the upload command.
func NewUploadCmd(rt *helpers.Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Add a document to the knowledge base",
		Long: `Upload a document (PDF, text, ...) to the Knowledge Service for ingestion.

The file is sent as multipart form data under its base name to the configured
ingestion endpoint (service.upload_path).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, messageFormats); err != nil {
				return err
			}

			ctrl, err := rt.Controller()
			if err != nil {
				return err
			}

			outcome, err := ctrl.UploadPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutcome(cmd, outcome, format)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatText, messageFormats)
	return cmd
}
