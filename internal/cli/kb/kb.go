// Package kb implements the one-shot knowledge base commands: ask, upload,
// knowledge, reset and ping. Each command drives a fresh session controller
// and prints the same chat messages the interactive client would show.
package kb

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
)

// NewCommands returns the one-shot commands bound to rt.
func NewCommands(rt *helpers.Runtime) []*cobra.Command {
	return []*cobra.Command{
		NewAskCmd(rt),
		NewUploadCmd(rt),
		NewKnowledgeCmd(rt),
		NewResetCmd(rt),
		NewPingCmd(rt),
	}
}
