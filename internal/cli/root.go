package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/chat"
	configcmd "github.com/coral-mesh/kbchat/internal/cli/config"
	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/cli/kb"
	"github.com/coral-mesh/kbchat/pkg/version"
)

// NewRootCmd creates the kbchat command tree. A bare `kbchat` starts the
// interactive chat.
func NewRootCmd() *cobra.Command {
	var plain bool

	rootCmd := &cobra.Command{
		Use:   "kbchat",
		Short: "kbchat - chat with your knowledge base",
		Long: `Chat with a Knowledge Service from the terminal.

Ask questions answered from the stored documents, upload new documents,
browse or wipe the knowledge base, and revisit earlier questions.

Run without a subcommand for the interactive chat, or use the one-shot
commands (ask, upload, knowledge, reset) in scripts.`,
		Args:          cobra.NoArgs,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rt := helpers.NewRuntime(rootCmd.PersistentFlags())

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if helpers.SkipsLoad(cmd) {
			return nil
		}
		return rt.Load()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		rt.Close()
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return chat.Run(cmd, rt, plain)
	}
	chat.AddPlainFlag(rootCmd, &plain)

	rootCmd.AddCommand(chat.NewChatCmd(rt))
	rootCmd.AddCommand(kb.NewCommands(rt)...)
	rootCmd.AddCommand(configcmd.NewConfigCmd(rt))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{helpers.AnnotationSkipLoad: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("kbchat version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
