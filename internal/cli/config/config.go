// Package config implements the 'kbchat config' command family.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/kbchat/internal/cli/helpers"
	"github.com/coral-mesh/kbchat/internal/config"
)

var viewFormats = []helpers.OutputFormat{
	helpers.FormatYAML,
	helpers.FormatJSON,
}

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd(rt *helpers.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kbchat configuration",
		Long: `Manage kbchat configuration.

Configuration Priority (highest first):
  1. Command-line flags (--url, --upload-path, --timeout, --log-level)
  2. KBCHAT_* environment variables
  3. .env file in the current directory
  4. Config file (~/.kbchat/config.yaml, or --config)
  5. Built-in defaults

Environment Variables:
  KBCHAT_CONFIG_DIR  Override config directory (default: ~/.kbchat)
  KBCHAT_URL         Knowledge Service base URL`,
	}

	cmd.AddCommand(newViewCmd(rt))
	cmd.AddCommand(newValidateCmd(rt))
	cmd.AddCommand(newInitCmd(rt))
	cmd.AddCommand(newPathCmd(rt))

	return cmd
}

// newViewCmd creates the 'config view' command.
func newViewCmd(rt *helpers.Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"show"},
		Short:   "Show the effective configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, viewFormats); err != nil {
				return err
			}
			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			return formatter.Format(rt.Config, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatYAML, viewFormats)
	return cmd
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd(rt *helpers.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Resolve every configuration layer and report each invalid field.

Exits non-zero when the configuration is invalid.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{helpers.AnnotationSkipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rt)
		},
	}
}

func runValidate(cmd *cobra.Command, rt *helpers.Runtime) error {
	err := rt.Load()
	if err == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	}
	if !isValidationError(err) {
		return err
	}

	invalid := validationErrors(err)
	for _, verr := range invalid {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", verr.Field, verr.Message)
	}
	return fmt.Errorf("configuration has %d invalid field(s)", len(invalid))
}

func isValidationError(err error) bool {
	var verr *config.ValidationError
	return errors.As(err, &verr)
}

// validationErrors unpacks the errors.Join result of Config.Validate.
func validationErrors(err error) []*config.ValidationError {
	var out []*config.ValidationError

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, validationErrors(e)...)
		}
		return out
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		out = append(out, verr)
	}
	return out
}

// newInitCmd creates the 'config init' command.
func newInitCmd(rt *helpers.Runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the built-in defaults to the config file so they can be edited.

Refuses to overwrite an existing file unless --force is given.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{helpers.AnnotationSkipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.Flags.ConfigPath
			if path == "" {
				path = rt.Loader.ConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}

			written, err := rt.Loader.Save(config.Default(), path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", written)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

// newPathCmd creates the 'config path' command.
func newPathCmd(rt *helpers.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Show the config and log file locations",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{helpers.AnnotationSkipLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.Flags.ConfigPath
			if path == "" {
				path = rt.Loader.ConfigPath()
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Config directory: %s\n", rt.Loader.Dir())
			_, _ = fmt.Fprintf(out, "Config file:      %s\n", path)
			_, _ = fmt.Fprintf(out, "Log file:         %s\n", rt.Loader.LogPath())
			return nil
		},
	}
}
