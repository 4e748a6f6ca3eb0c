// Package cli implements the daqd command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/daqd/internal/logging"
	"github.com/mesh-intelligence/daqd/internal/paths"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
}

// app carries per-invocation state from PersistentPreRunE to the subcommands.
type app struct {
	flags     rootFlags
	configDir string
	viper     *viper.Viper
	config    types.Config
}

// NewRootCmd creates the top-level "daqd" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "daqd",
		Short: "Decode a telemetry byte stream into SQLite tables",
		Long: "daqd reads a self-describing telemetry stream from a producer, learns\n" +
			"table schemas from descriptor frames, and stores every entry as a row.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.daqd)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.daqd-db)")
	pf.String("db", "", "database file (default: <data-dir>/daqd.db)")
	pf.Bool("fresh-db", true, "remove an existing database before decoding")
	pf.Int("buffer-size", types.DefaultBufferSize, "receive buffer size in bytes")
	pf.String("metrics-addr", "", "serve prometheus metrics on this address")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newConnectCmd(a))
	root.AddCommand(newListenCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newExportCmd(a))

	return root
}

// load resolves the config directory, reads config.yaml, binds the flags
// of the running command, and configures logging.
func (a *app) load(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := buildConfig(v, a.flags.dataDir)
	if err != nil {
		return err
	}

	a.configDir = configDir
	a.viper = v
	a.config = cfg
	logging.ConfigureRuntime(cfg.LogLevel)
	return nil
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM, and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "daqd:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitUserError
	}
	return exitSuccess
}

// exitError attaches a process exit code to a command failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a runtime failure rather than a usage mistake.
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}
