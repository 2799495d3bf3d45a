package kb

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/constants"
	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/retry"
)

// NewPingCmd creates the ping command.
func NewPingCmd(rt *helpers.Runtime) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the Knowledge Service is reachable",
		Long: `Call the Knowledge Service root endpoint and print its banner.

--retries waits for a service that is still starting: connection failures and
5xx responses are retried with exponential backoff.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retries < 1 {
				return fmt.Errorf("--retries must be at least 1, got %d", retries)
			}

			client, err := rt.Client()
			if err != nil {
				return err
			}

			cfg := retry.Config{
				MaxRetries:     retries,
				InitialBackoff: constants.DefaultPingBackoff,
				MaxBackoff:     constants.DefaultPingMaxBackoff,
				Jitter:         0.1,
			}

			var status *knowledge.Status
			err = retry.Do(cmd.Context(), cfg, func() error {
				ctx, cancel := context.WithTimeout(cmd.Context(), constants.DefaultPingTimeout)
				defer cancel()

				start := time.Now()
				banner, err := client.Ping(ctx)
				if err != nil {
					rt.Logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("Ping failed")
					return err
				}
				status = banner
				return nil
			}, knowledge.IsTransient)
			if err != nil {
				return fmt.Errorf("knowledge service at %s is unreachable: %w", client.BaseURL(), err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is up: %s\n", client.BaseURL(), status.Message)
			return err
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 1, "Number of attempts before giving up")
	return cmd
}
