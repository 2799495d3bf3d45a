package helpers

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/coral-mesh/kbchat/internal/config"
	"github.com/coral-mesh/kbchat/internal/constants"
	kberrors "github.com/coral-mesh/kbchat/internal/errors"
	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/logging"
	"github.com/coral-mesh/kbchat/internal/session"
)

// ErrDegraded marks a command whose request failed after the failure
// message was already printed to stdout. main exits 1 without printing it
// again.
var ErrDegraded = errors.New("request failed")

// AnnotationSkipLoad marks commands that must run without a loaded, valid
// configuration. The root PersistentPreRunE skips Runtime.Load for them.
const AnnotationSkipLoad = "kbchat/skip-load"

// SkipsLoad reports whether cmd carries AnnotationSkipLoad.
func SkipsLoad(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[AnnotationSkipLoad]
	return ok
}

// Runtime is the per-invocation state shared by every command: the loaded
// configuration and the root logger. The root command fills it in its
// PersistentPreRunE; subcommands read it in RunE.
type Runtime struct {
	Loader *config.Loader
	Flags  *config.Flags
	Config *config.Config
	Logger zerolog.Logger

	// Stderr receives one-shot command logs. Tests replace it.
	Stderr io.Writer

	logFile io.Closer
}

// NewRuntime creates a runtime whose config flags are bound to fs.
func NewRuntime(fs *pflag.FlagSet) *Runtime {
	return &Runtime{
		Loader: config.NewLoader(),
		Flags:  config.BindFlags(fs),
		Logger: zerolog.Nop(),
		Stderr: os.Stderr,
	}
}

// Load resolves the layered configuration and sets up a stderr logger.
func (r *Runtime) Load() error {
	layers := r.Loader.Layers()
	layers.SetEnvFile(constants.EnvFile)
	layers.SetFlags(r.Flags)

	cfg, err := r.Loader.Load(r.Flags.ConfigPath)
	if err != nil {
		return err
	}
	r.Config = cfg

	r.Logger = logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Pretty:  cfg.Logging.Pretty,
		NoColor: !isTerminal(r.Stderr),
		Output:  r.Stderr,
	})
	r.Logger.Debug().Str("url", cfg.Service.URL).Msg("Configuration loaded")
	return nil
}

// LogToFile redirects logging to the configured log file. The interactive
// client calls it because the TUI owns the terminal.
func (r *Runtime) LogToFile() error {
	f, err := logging.OpenFile(r.Config.Logging.File)
	if err != nil {
		return err
	}
	r.Close()
	r.logFile = f
	r.Logger = logging.New(logging.Config{
		Level:   r.Config.Logging.Level,
		Pretty:  r.Config.Logging.Pretty,
		NoColor: true,
		Output:  f,
	})
	return nil
}

// Close releases the log file, if any.
func (r *Runtime) Close() {
	if r.logFile != nil {
		kberrors.DeferClose(r.Logger, r.logFile, "failed to close log file")
		r.logFile = nil
	}
}

// Component returns a logger tagged with component.
func (r *Runtime) Component(name string) zerolog.Logger {
	return r.Logger.With().Str("component", name).Logger()
}

// Client builds a Knowledge Service client from the configuration.
func (r *Runtime) Client() (*knowledge.Client, error) {
	if r.Config == nil {
		return nil, errors.New("configuration not loaded")
	}

	client, err := knowledge.NewClient(r.Config.Service.URL,
		knowledge.WithUploadPath(r.Config.Service.UploadPath),
		knowledge.WithTimeout(r.Config.Service.Timeout),
		knowledge.WithUserAgent(r.Config.Service.UserAgent),
		knowledge.WithLogger(r.Component("knowledge")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge client: %w", err)
	}
	return client, nil
}

// Controller builds a session controller backed by a new client.
func (r *Runtime) Controller() (*session.Controller, error) {
	client, err := r.Client()
	if err != nil {
		return nil, err
	}
	return session.New(client,
		session.WithLogger(r.Component("session")),
		session.WithUploadLimit(r.Config.Upload.MaxSizeBytes),
	), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
