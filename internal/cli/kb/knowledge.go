package kb

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/session"
)

var knowledgeFormats = []helpers.OutputFormat{
	helpers.FormatTable,
	helpers.FormatJSON,
	helpers.FormatCSV,
	helpers.FormatText,
}

// NewKnowledgeCmd creates the knowledge command.
func NewKnowledgeCmd(rt *helpers.Runtime) *cobra.Command {
	var (
		format string
		topic  string
	)

	cmd := &cobra.Command{
		Use:     "knowledge",
		Aliases: []string{"kb"},
		Short:   "List the stored knowledge",
		Long: `List the chunks stored in the knowledge base with their source.

--topic keeps only the chunks mentioning the topic (matching is done by the
service).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, knowledgeFormats); err != nil {
				return err
			}

			ctrl, err := rt.Controller()
			if err != nil {
				return err
			}

			panel := ctrl.ViewKnowledge(cmd.Context(), topic)
			return writePanel(cmd, panel, helpers.OutputFormat(format))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, knowledgeFormats)
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only show knowledge about this topic")
	return cmd
}

func writePanel(cmd *cobra.Command, panel session.KnowledgePanel, format helpers.OutputFormat) error {
	out := cmd.OutOrStdout()

	switch {
	case panel.Status == session.KnowledgeFailed:
		if err := helpers.WriteKnowledge(out, panel); err != nil {
			return err
		}
		return helpers.ErrDegraded

	case format == helpers.FormatText:
		return helpers.WriteKnowledge(out, panel)

	case panel.Status == session.KnowledgeEmpty && format == helpers.FormatTable:
		return helpers.WriteKnowledge(out, panel)
	}

	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}
	entries := panel.Entries
	if entries == nil {
		entries = []knowledge.Entry{}
	}
	return formatter.Format(entries, out)
}
